package system

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dzm2020/gactor/internal/iface"
	"github.com/dzm2020/gactor/pkg/actor"
	"github.com/dzm2020/gactor/pkg/glog"
	"github.com/dzm2020/gactor/pkg/lib/component"
)

const (
	ComponentName = "actor-system"
)

// Component actor 系统组件，Start 创建系统，Stop 等待所有 actor 终止
type Component struct {
	component.BaseComponent[iface.INode]
	node   iface.INode
	system *actor.System
	opts   []actor.Option
}

// NewComponent opts 追加在节点配置之后
func NewComponent(opts ...actor.Option) *Component {
	return &Component{opts: opts}
}

func (c *Component) Name() string {
	return ComponentName
}

func (c *Component) Start(ctx context.Context, node iface.INode) error {
	cfg := node.Config()
	settings := cfg.Actor
	opts := append([]actor.Option{actor.WithSettings(&settings)}, c.opts...)
	system, err := actor.NewSystem(cfg.Node.Name, opts...)
	if err != nil {
		return errors.Wrap(err, "create actor system")
	}
	c.node = node
	c.system = system
	node.SetSystem(system)
	return nil
}

// Stop ctx 没有截止时间时使用 node.shutdownTimeout
func (c *Component) Stop(ctx context.Context) error {
	if c.system == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok && c.node.Config().Node.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.node.Config().Node.ShutdownTimeout)
		defer cancel()
	}
	if err := c.system.Shutdown(ctx); err != nil {
		glog.Error("actor system shutdown", zap.String("system", c.system.Name()), zap.Error(err))
		return err
	}
	return nil
}

func (c *Component) System() *actor.System {
	return c.system
}
