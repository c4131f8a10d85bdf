package gactor

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/dzm2020/gactor/internal/config"
	"github.com/dzm2020/gactor/pkg/actor"
)

var ErrNodeAlreadyStarted = errors.New("gactor: node already started")

var defaultNode atomic.Pointer[Node]

// Startup 读取配置文件并启动默认节点
func Startup(path string, comps ...IComponent) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	return StartupWithConfig(cfg, comps...)
}

func StartupWithConfig(cfg *config.Config, comps ...IComponent) error {
	n := NewNode(cfg)
	if !defaultNode.CompareAndSwap(nil, n) {
		return ErrNodeAlreadyStarted
	}
	if err := n.Startup(context.Background(), comps...); err != nil {
		defaultNode.Store(nil)
		return err
	}
	return nil
}

// Shutdown 停止默认节点，未启动时直接返回
func Shutdown(ctx context.Context) error {
	n := defaultNode.Swap(nil)
	if n == nil {
		return nil
	}
	return n.Shutdown(ctx)
}

// System 默认节点的 actor 系统，未启动时返回 nil
func System() *actor.System {
	if n := defaultNode.Load(); n != nil {
		return n.System()
	}
	return nil
}

func GetNode() *Node {
	return defaultNode.Load()
}
