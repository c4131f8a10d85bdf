package app

import (
	"github.com/dzm2020/gactor/pkg/actor"
)

const (
	RouterRoundRobin = "round-robin"
	RouterBroadcast  = "broadcast"
)

// Config app 组件配置
type Config struct {
	Services []ServiceConfig `json:"services" yaml:"services"`
}

// ServiceConfig 启动时创建的顶层 actor
type ServiceConfig struct {
	// Name actor 名称，为空时自动生成
	Name string `json:"name" yaml:"name"`
	// Props 创建 actor 的描述，必须设置
	Props *actor.Props `json:"-" yaml:"-"`
	// Params 作为 OnInit 的 params
	Params []interface{} `json:"params" yaml:"params"`
	// Dispatcher / Mailbox 为空时使用 Props 中的设置
	Dispatcher string       `json:"dispatcher" yaml:"dispatcher"`
	Mailbox    string       `json:"mailbox" yaml:"mailbox"`
	Router     RouterConfig `json:"router" yaml:"router"`
	// System 为 true 时创建在 /system 下
	System bool `json:"system" yaml:"system"`
}

// RouterConfig Instances 为 0 表示不使用路由
type RouterConfig struct {
	Type      string `json:"type" yaml:"type"`
	Instances int    `json:"instances" yaml:"instances"`
}

func (s *ServiceConfig) props() (*actor.Props, error) {
	if s.Props == nil {
		return nil, actor.ErrPropsIsNil
	}
	p := s.Props
	if len(s.Params) > 0 {
		p = p.WithArgs(s.Params...)
	}
	if s.Dispatcher != "" {
		p = p.WithDispatcher(s.Dispatcher)
	}
	if s.Mailbox != "" {
		p = p.WithMailbox(s.Mailbox)
	}
	if s.Router.Instances > 0 {
		switch s.Router.Type {
		case "", RouterRoundRobin:
			p = p.WithRouter(actor.NewRoundRobinPool(s.Router.Instances))
		case RouterBroadcast:
			p = p.WithRouter(actor.NewBroadcastPool(s.Router.Instances))
		default:
			return nil, ErrUnknownRouter
		}
	}
	return p, nil
}
