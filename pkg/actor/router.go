package actor

import (
	"sync/atomic"
)

// RouterConfig 路由池配置，Props.WithRouter 之后创建出的是路由 actor
type RouterConfig interface {
	NrOfInstances() int
	newLogic() routingLogic
}

type routingLogic interface {
	selectRoutees(msg interface{}, routees []IActorRef) []IActorRef
}

// Broadcast 路由 actor 收到后发给所有 routee
type Broadcast struct {
	Message interface{}
}

// GetRoutees 路由 actor 回复 *Routees
type GetRoutees struct{}

type Routees struct {
	Routees []IActorRef
}

// 路由控制消息跳过序列化校验，Broadcast 只校验其中的 Message
func (*GetRoutees) NoSerializationVerificationNeeded() {}
func (*Routees) NoSerializationVerificationNeeded()    {}

type roundRobinPool struct {
	n int
}

// NewRoundRobinPool 依次轮流发给 n 个 routee
func NewRoundRobinPool(n int) RouterConfig {
	return &roundRobinPool{n: n}
}

func (p *roundRobinPool) NrOfInstances() int     { return p.n }
func (p *roundRobinPool) newLogic() routingLogic { return &roundRobinLogic{} }

type roundRobinLogic struct {
	next atomic.Uint64
}

func (l *roundRobinLogic) selectRoutees(_ interface{}, routees []IActorRef) []IActorRef {
	if len(routees) == 0 {
		return nil
	}
	i := (l.next.Add(1) - 1) % uint64(len(routees))
	return routees[i : i+1]
}

type broadcastPool struct {
	n int
}

// NewBroadcastPool 每条消息都发给全部 n 个 routee
func NewBroadcastPool(n int) RouterConfig {
	return &broadcastPool{n: n}
}

func (p *broadcastPool) NrOfInstances() int     { return p.n }
func (p *broadcastPool) newLogic() routingLogic { return broadcastLogic{} }

type broadcastLogic struct{}

func (broadcastLogic) selectRoutees(_ interface{}, routees []IActorRef) []IActorRef {
	return routees
}

// routerActor 创建并监视 routee，routee 全部终止后自己停止
type routerActor struct {
	Actor
	config      RouterConfig
	routeeProps *Props
	logic       routingLogic
	routees     []IActorRef
}

func newRouterProps(props *Props) *Props {
	config := props.router
	routeeProps := props.WithRouter(nil)
	p := props.copy()
	p.router = nil
	p.args = nil
	p.producer = func() IActor {
		return &routerActor{config: config, routeeProps: routeeProps}
	}
	return p
}

func (r *routerActor) OnInit(ctx IContext, _ []interface{}) error {
	r.logic = r.config.newLogic()
	r.routees = r.routees[:0]
	for i := 0; i < r.config.NrOfInstances(); i++ {
		ref, err := ctx.ActorOf(r.routeeProps, "")
		if err != nil {
			return err
		}
		ctx.Watch(ref)
		r.routees = append(r.routees, ref)
	}
	return nil
}

func (r *routerActor) OnMessage(ctx IContext, msg interface{}) error {
	switch m := msg.(type) {
	case *Terminated:
		r.removeRoutee(m.Actor)
		if len(r.routees) == 0 {
			ctx.Stop(ctx.Self())
		}
	case *Broadcast:
		for _, ref := range r.routees {
			ref.Tell(m.Message, ctx.Sender())
		}
	case *GetRoutees:
		ctx.Reply(&Routees{Routees: append([]IActorRef(nil), r.routees...)})
	default:
		for _, ref := range r.logic.selectRoutees(msg, r.routees) {
			ref.Tell(msg, ctx.Sender())
		}
	}
	return nil
}

func (r *routerActor) removeRoutee(ref IActorRef) {
	for i, routee := range r.routees {
		if sameActor(routee, ref) {
			r.routees = append(r.routees[:i], r.routees[i+1:]...)
			return
		}
	}
}
