package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dzm2020/gactor"
	"github.com/dzm2020/gactor/internal/app"
	"github.com/dzm2020/gactor/internal/config"
	"github.com/dzm2020/gactor/pkg/actor"
	"github.com/dzm2020/gactor/pkg/glog"
)

func main() {
	path := flag.String("config", "", "yaml 配置文件，为空时使用默认配置")
	dump := flag.Bool("dump", false, "输出默认配置后退出")
	flag.Parse()

	if *dump {
		data, err := config.Default().Marshal()
		if err != nil {
			panic(err)
		}
		fmt.Print(string(data))
		return
	}

	services := app.NewComponent("demo-app", &app.Config{Services: []app.ServiceConfig{
		{
			Name: "workers",
			Props: actor.PropsFromProducer(newWorker).
				WithSupervisor(actor.NewOneForOneStrategy(10, time.Minute, actor.DefaultDecider)),
			Router: app.RouterConfig{Type: app.RouterRoundRobin, Instances: 4},
		},
		{Name: "client", Props: actor.PropsFromProducer(newClient)},
	}})

	var err error
	if *path != "" {
		err = gactor.Startup(*path, services, &demo{})
	} else {
		err = gactor.StartupWithConfig(config.Default(), services, &demo{})
	}
	if err != nil {
		panic(err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err = gactor.Shutdown(ctx); err != nil {
		glog.Error("shutdown", zap.Error(err))
		os.Exit(1)
	}
}

// demo 周期性地驱动 client，worker 和 client 由 app 组件创建
type demo struct {
	gactor.BaseComponent
	ticker actor.ICancelable
	sub    *actor.Subscription
}

func (d *demo) Name() string {
	return "demo"
}

func (d *demo) Start(ctx context.Context, node gactor.INode) error {
	sys := node.System()
	d.sub = actor.SubscribeTo(sys.EventStream(), func(evt *actor.DeadLetter) {
		glog.Info("dead letter", zap.Any("msg", evt.Message), zap.Stringer("recipient", evt.Recipient))
	})

	client, err := sys.ResolveActorRef("/user/client")
	if err != nil {
		return err
	}
	d.ticker = sys.Scheduler().ScheduleTellRepeatedly(time.Second, time.Second, client, &tick{}, actor.NoSender)
	return nil
}

func (d *demo) Stop(ctx context.Context) error {
	if d.ticker != nil {
		d.ticker.Cancel()
	}
	if sys := gactor.System(); sys != nil && d.sub != nil {
		sys.EventStream().Unsubscribe(d.sub)
	}
	return nil
}

type (
	tick    struct{}
	request struct {
		N int
	}
	response struct {
		N      int
		Worker string
	}
)

// worker 每收到第 5 个请求 panic 一次，由路由 actor 的监督策略重启
type worker struct {
	actor.Actor
	handled int
}

func newWorker() actor.IActor {
	return &worker{}
}

func (w *worker) OnInit(ctx actor.IContext, _ []interface{}) error {
	glog.Info("worker started", zap.Stringer("self", ctx.Self()))
	return nil
}

func (w *worker) OnMessage(ctx actor.IContext, msg interface{}) error {
	switch m := msg.(type) {
	case *request:
		w.handled++
		if w.handled%5 == 0 {
			panic(fmt.Sprintf("worker %s gave up on request %d", ctx.Self().Path().Name(), m.N))
		}
		ctx.Reply(&response{N: m.N * m.N, Worker: ctx.Self().Path().Name()})
		return nil
	}
	return actor.ErrUnhandled
}

func (w *worker) OnStop(ctx actor.IContext) error {
	glog.Info("worker stopped", zap.Stringer("self", ctx.Self()))
	return nil
}

// client 每个 tick 向 worker 发一次请求，回复在自己的处理协程中打印
type client struct {
	actor.Actor
	workers actor.IActorRef
	seq     int
}

func newClient() actor.IActor {
	return &client{}
}

// OnInit 通过 selection 查找 worker 路由
func (c *client) OnInit(ctx actor.IContext, _ []interface{}) error {
	ctx.ReenterAfter(ctx.ActorSelection("/user/workers").ResolveOne(time.Second), func(result interface{}, err error) {
		if err != nil {
			glog.Error("resolve workers", zap.Error(err))
			return
		}
		c.workers = result.(actor.IActorRef)
	})
	return nil
}

func (c *client) OnMessage(ctx actor.IContext, msg interface{}) error {
	switch msg.(type) {
	case *tick:
		if c.workers == nil {
			return nil
		}
		c.seq++
		n := c.seq
		ctx.ReenterAfter(ctx.Ask(c.workers, &request{N: n}, 500*time.Millisecond), func(result interface{}, err error) {
			if err != nil {
				glog.Warn("request failed", zap.Int("n", n), zap.Error(err))
				return
			}
			resp := result.(*response)
			glog.Info("response", zap.Int("n", n), zap.Int("square", resp.N), zap.String("worker", resp.Worker))
		})
		return nil
	}
	return actor.ErrUnhandled
}
