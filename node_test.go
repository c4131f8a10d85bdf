package gactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzm2020/gactor/internal/config"
	"github.com/dzm2020/gactor/internal/system"
	"github.com/dzm2020/gactor/pkg/actor"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Node.Name = "node-test"
	cfg.Glog.Path = ""
	cfg.Node.ShutdownTimeout = 3 * time.Second
	return cfg
}

// pingComponent 启动时在 actor 系统里创建一个 echo actor
type pingComponent struct {
	BaseComponent
	ref     actor.IActorRef
	stopped bool
}

func (p *pingComponent) Name() string { return "ping" }

func (p *pingComponent) Start(ctx context.Context, node INode) error {
	ref, err := node.System().ActorOf(actor.PropsFromFunc(func(ctx actor.IContext, msg interface{}) error {
		ctx.Reply(msg)
		return nil
	}), "ping")
	if err != nil {
		return err
	}
	p.ref = ref
	return nil
}

func (p *pingComponent) Stop(ctx context.Context) error {
	p.stopped = true
	return nil
}

func TestNode_StartupShutdown(t *testing.T) {
	n := NewNode(testConfig())
	ping := &pingComponent{}
	require.NoError(t, n.Startup(context.Background(), ping))

	sys := n.System()
	require.NotNil(t, sys)
	assert.Equal(t, "node-test", sys.Name())
	assert.Same(t, sys, n.Component(system.ComponentName).(*system.Component).System())

	res, err := sys.Ask(ping.ref, "pong", time.Second).Wait()
	require.NoError(t, err)
	assert.Equal(t, "pong", res)

	require.NoError(t, n.Shutdown(context.Background()))
	assert.True(t, ping.stopped)
	select {
	case <-sys.WhenTerminated():
	default:
		assert.Fail(t, "actor system should be terminated")
	}
}

func TestNode_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Node.Name = ""
	assert.ErrorIs(t, NewNode(cfg).Startup(context.Background()), config.ErrInvalidConfig)
}

func TestStartupWithConfig(t *testing.T) {
	require.NoError(t, StartupWithConfig(testConfig()))
	assert.NotNil(t, System())
	assert.NotNil(t, GetNode())
	assert.ErrorIs(t, StartupWithConfig(testConfig()), ErrNodeAlreadyStarted)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, Shutdown(ctx))
	assert.Nil(t, System())
	require.NoError(t, Shutdown(ctx))
}
