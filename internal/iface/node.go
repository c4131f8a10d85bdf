package iface

import (
	"github.com/dzm2020/gactor/internal/config"
	"github.com/dzm2020/gactor/pkg/actor"
	"github.com/dzm2020/gactor/pkg/lib/component"
)

type (
	// INode 组件启动时拿到的节点
	INode interface {
		Name() string
		Config() *config.Config
		// System 在 actor 系统组件启动之前返回 nil
		System() *actor.System
		SetSystem(system *actor.System)
	}

	IComponent = component.IComponent[INode]
)
