package actor

import (
	"golang.org/x/exp/slices"
)

const (
	DeployLocal  = "local"
	DeployRemote = "remote"
)

// Deploy 部署信息，目前只支持本地部署
type Deploy struct {
	Scope string
	Tags  []string
}

// Props 创建 actor 的描述，不可修改，With 系列方法返回副本
type Props struct {
	producer   Producer
	dispatcher string
	mailbox    string
	router     RouterConfig
	deploy     Deploy
	strategy   SupervisorStrategy
	args       []interface{}
}

// PropsFromProducer 每次创建或重启都会调用 producer
func PropsFromProducer(producer Producer) *Props {
	return &Props{producer: producer, deploy: Deploy{Scope: DeployLocal}}
}

// PropsFromFunc 用函数作为 actor 的处理函数
func PropsFromFunc(receive ReceiveFunc) *Props {
	return PropsFromProducer(func() IActor {
		return &funcActor{receive: receive}
	})
}

func (p *Props) copy() *Props {
	c := *p
	c.args = slices.Clone(p.args)
	c.deploy.Tags = slices.Clone(p.deploy.Tags)
	return &c
}

func (p *Props) WithDispatcher(id string) *Props {
	c := p.copy()
	c.dispatcher = id
	return c
}

func (p *Props) WithMailbox(id string) *Props {
	c := p.copy()
	c.mailbox = id
	return c
}

func (p *Props) WithRouter(router RouterConfig) *Props {
	c := p.copy()
	c.router = router
	return c
}

func (p *Props) WithDeploy(deploy Deploy) *Props {
	c := p.copy()
	c.deploy = Deploy{Scope: deploy.Scope, Tags: slices.Clone(deploy.Tags)}
	return c
}

// WithSupervisor 覆盖 actor 对子节点使用的监督策略
func (p *Props) WithSupervisor(strategy SupervisorStrategy) *Props {
	c := p.copy()
	c.strategy = strategy
	return c
}

// WithArgs 作为 OnInit 的 params
func (p *Props) WithArgs(args ...interface{}) *Props {
	c := p.copy()
	c.args = slices.Clone(args)
	return c
}

func (p *Props) Dispatcher() string {
	return p.dispatcher
}

func (p *Props) Mailbox() string {
	return p.mailbox
}

func (p *Props) Router() RouterConfig {
	return p.router
}

func (p *Props) Deploy() Deploy {
	return p.deploy
}

func (p *Props) SupervisorStrategy() SupervisorStrategy {
	return p.strategy
}

func (p *Props) Args() []interface{} {
	return slices.Clone(p.args)
}

// NewActor 调用 producer 创建实例
func (p *Props) NewActor() (IActor, error) {
	if p.producer == nil {
		return nil, ErrProducerIsNil
	}
	a := p.producer()
	if a == nil {
		return nil, ErrProducerReturnedNil
	}
	return a, nil
}

func (p *Props) validate() error {
	if p == nil {
		return ErrPropsIsNil
	}
	if p.producer == nil {
		return ErrProducerIsNil
	}
	if p.deploy.Scope == DeployRemote {
		return ErrRemoteDeployNotAllowed
	}
	return nil
}
