package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dzm2020/gactor/internal/iface"
	"github.com/dzm2020/gactor/pkg/actor"
	"github.com/dzm2020/gactor/pkg/glog"
	"github.com/dzm2020/gactor/pkg/lib/component"
)

var (
	ErrSystemNotStarted = errors.New("app: actor system not started")
	ErrUnknownRouter    = errors.New("app: unknown router type")
)

var _ iface.IComponent = (*Component)(nil)

// Component 启动时按顺序创建配置中的 actor，停止时逆序优雅停止
type Component struct {
	component.BaseComponent[iface.INode]
	name   string
	config *Config
	system *actor.System
	refs   []actor.IActorRef
}

func NewComponent(name string, config *Config) *Component {
	if config == nil {
		config = &Config{}
	}
	return &Component{
		name:   name,
		config: config,
	}
}

func (c *Component) Name() string {
	return c.name
}

func (c *Component) Start(ctx context.Context, node iface.INode) error {
	system := node.System()
	if system == nil {
		return ErrSystemNotStarted
	}
	c.system = system
	for i := range c.config.Services {
		service := &c.config.Services[i]
		props, err := service.props()
		if err != nil {
			return errors.Wrapf(err, "service %q", service.Name)
		}
		var ref actor.IActorRef
		if service.System {
			ref, err = system.SystemActorOf(props, service.Name)
		} else {
			ref, err = system.ActorOf(props, service.Name)
		}
		if err != nil {
			c.stopAll(ctx)
			return errors.Wrapf(err, "spawn service %q", service.Name)
		}
		c.refs = append(c.refs, ref)
		glog.Info("app: service started", zap.String("app", c.name), zap.Stringer("ref", ref))
	}
	return nil
}

func (c *Component) Stop(ctx context.Context) error {
	return c.stopAll(ctx)
}

// stopAll 逆序停止，ctx 截止时间作为每个 actor 的等待上限
func (c *Component) stopAll(ctx context.Context) error {
	var lastErr error
	for i := len(c.refs) - 1; i >= 0; i-- {
		ref := c.refs[i]
		if _, err := c.system.GracefulStop(ref, c.stopTimeout(ctx)).WaitContext(ctx); err != nil {
			glog.Warn("app: graceful stop failed", zap.String("app", c.name), zap.Stringer("ref", ref), zap.Error(err))
			ref.Stop()
			lastErr = err
		}
	}
	c.refs = nil
	return lastErr
}

// stopTimeout 为 0 时使用 Settings.AskTimeout
func (c *Component) stopTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		return time.Until(deadline)
	}
	return 0
}

// Refs 已启动的 actor，顺序与配置一致
func (c *Component) Refs() []actor.IActorRef {
	return append([]actor.IActorRef(nil), c.refs...)
}
