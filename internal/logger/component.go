package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dzm2020/gactor/internal/iface"
	"github.com/dzm2020/gactor/pkg/glog"
	"github.com/dzm2020/gactor/pkg/lib/component"
)

const (
	ComponentName = "logger"
)

// Component glog 日志组件，按节点配置重新初始化全局 logger
type Component struct {
	component.BaseComponent[iface.INode]
	panicHook func(entry zapcore.Entry)
}

// NewComponent panicHook 在 DPanic 及以上级别的日志输出时调用
func NewComponent(panicHook func(entry zapcore.Entry)) *Component {
	return &Component{
		panicHook: panicHook,
	}
}

func (c *Component) Name() string {
	return ComponentName
}

func (c *Component) Start(ctx context.Context, node iface.INode) error {
	conf := node.Config().Glog
	if err := glog.Init(&conf); err != nil {
		return err
	}
	options := []zap.Option{
		zap.Fields(zap.String("node", node.Name())),
		zap.Hooks(func(entry zapcore.Entry) error {
			if entry.Level >= zap.DPanicLevel && c.panicHook != nil {
				c.panicHook(entry)
			}
			return nil
		}),
	}
	glog.WithOptions(options...)
	return nil
}

// Stop 标准输出上的 Sync 会返回 EINVAL，忽略
func (c *Component) Stop(ctx context.Context) error {
	_ = glog.Stop()
	return nil
}
