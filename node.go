package gactor

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dzm2020/gactor/internal/config"
	"github.com/dzm2020/gactor/internal/iface"
	"github.com/dzm2020/gactor/internal/logger"
	"github.com/dzm2020/gactor/internal/system"
	"github.com/dzm2020/gactor/pkg/actor"
	"github.com/dzm2020/gactor/pkg/glog"
	"github.com/dzm2020/gactor/pkg/lib/component"
)

type (
	INode         = iface.INode
	IComponent    = iface.IComponent
	BaseComponent = component.BaseComponent[iface.INode]
)

var _ INode = (*Node)(nil)

// Node 进程内的节点，依次启动日志、actor 系统和用户组件，逆序停止
type Node struct {
	config     *config.Config
	system     atomic.Pointer[actor.System]
	components *component.Manager[iface.INode]
}

// NewNode cfg 为 nil 时使用默认配置
func NewNode(cfg *config.Config) *Node {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Node{
		config:     cfg,
		components: component.NewComponentsMgr[iface.INode](),
	}
}

func (n *Node) Name() string           { return n.config.Node.Name }
func (n *Node) Config() *config.Config { return n.config }
func (n *Node) System() *actor.System  { return n.system.Load() }

func (n *Node) SetSystem(system *actor.System) {
	n.system.Store(system)
}

// Startup 注册内置组件和 comps 后按顺序启动
func (n *Node) Startup(ctx context.Context, comps ...IComponent) error {
	if err := n.config.Validate(); err != nil {
		return err
	}
	builtin := []IComponent{
		logger.NewComponent(nil),
		system.NewComponent(),
	}
	if err := n.components.Register(append(builtin, comps...)...); err != nil {
		return errors.Wrap(err, "register components")
	}
	if err := n.components.Init(n); err != nil {
		return err
	}
	if err := n.components.Start(ctx, n); err != nil {
		return err
	}
	glog.Info("node started", zap.String("node", n.Name()), zap.Strings("components", n.components.GetComponentNames()))
	return nil
}

// Shutdown 逆序停止所有组件
func (n *Node) Shutdown(ctx context.Context) error {
	glog.Info("node stopping", zap.String("node", n.Name()))
	if err := n.components.Stop(ctx); err != nil {
		return err
	}
	glog.Info("node stopped", zap.String("node", n.Name()))
	return nil
}

func (n *Node) Component(name string) IComponent {
	return n.components.GetComponent(name)
}
