package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// routeeProps 把 "名字:消息" 转发给 probe
func routeeProps(p *probe) *Props {
	return PropsFromFunc(func(ctx IContext, msg interface{}) error {
		if s, ok := msg.(string); ok {
			p.ref.Tell(ctx.Self().Path().Name()+":"+s, ctx.Self())
		}
		return nil
	})
}

func TestRoundRobinPool(t *testing.T) {
	sys := newTestSystem(t)
	p := newProbe(t, sys)
	router, err := sys.ActorOf(routeeProps(p).WithRouter(NewRoundRobinPool(3)), "rr")
	require.NoError(t, err)

	routees := ask(t, sys, router, &GetRoutees{}).(*Routees).Routees
	require.Len(t, routees, 3)

	for i := 0; i < 6; i++ {
		router.Tell("m", NoSender)
	}
	counts := map[string]int{}
	for i := 0; i < 6; i++ {
		counts[p.receive(t).(string)]++
	}
	require.Len(t, counts, 3)
	for _, ref := range routees {
		assert.Equal(t, 2, counts[ref.Path().Name()+":m"])
	}
}

func TestBroadcastPool(t *testing.T) {
	sys := newTestSystem(t)
	p := newProbe(t, sys)
	router, err := sys.ActorOf(routeeProps(p).WithRouter(NewBroadcastPool(2)), "bc")
	require.NoError(t, err)

	router.Tell("all", NoSender)
	got := []interface{}{p.receive(t), p.receive(t)}
	p.expectNoMsg(t, 50*time.Millisecond)
	assert.NotEqual(t, got[0], got[1])

	// RoundRobin 池同样支持 Broadcast 包装
	rr, err := sys.ActorOf(routeeProps(p).WithRouter(NewRoundRobinPool(2)), "rr")
	require.NoError(t, err)
	rr.Tell(&Broadcast{Message: "each"}, NoSender)
	got = []interface{}{p.receive(t), p.receive(t)}
	assert.NotEqual(t, got[0], got[1])
}

func TestRouter_StopsWhenRouteesGone(t *testing.T) {
	sys := newTestSystem(t)
	p := newProbe(t, sys)
	router, err := sys.ActorOf(routeeProps(p).WithRouter(NewRoundRobinPool(2)), "rr")
	require.NoError(t, err)
	p.watch(t, router)

	routees := ask(t, sys, router, &GetRoutees{}).(*Routees).Routees
	routees[0].Tell(&PoisonPill{}, NoSender)
	require.Eventually(t, func() bool {
		return len(ask(t, sys, router, &GetRoutees{}).(*Routees).Routees) == 1
	}, waitTimeout, 10*time.Millisecond)

	routees[1].Tell(&PoisonPill{}, NoSender)
	terminated := expectMsg[*Terminated](t, p)
	assert.True(t, sameActor(router, terminated.Actor))
}

func TestRouter_SerializeAllMessages(t *testing.T) {
	settings := DefaultSettings()
	settings.SerializeAllMessages = true
	sys := newTestSystem(t, WithSettings(settings))
	p := newProbe(t, sys)

	router, err := sys.ActorOf(PropsFromFunc(func(ctx IContext, msg interface{}) error {
		if m, ok := msg.(*serialPayload); ok {
			p.ref.Tell(m, ctx.Self())
		}
		return nil
	}).WithRouter(NewBroadcastPool(1)), "bc")
	require.NoError(t, err)

	// Broadcast 中的消息保持原来的类型
	router.Tell(&Broadcast{Message: &serialPayload{Value: 3}}, NoSender)
	got, ok := p.receive(t).(*serialPayload)
	require.True(t, ok)
	assert.Equal(t, 3, got.Value)

	// actor 之间传递 GetRoutees / Routees
	asker, err := sys.ActorOf(PropsFromFunc(func(ctx IContext, msg interface{}) error {
		switch m := msg.(type) {
		case string:
			ctx.Send(router, &GetRoutees{})
		case *Routees:
			p.ref.Tell(len(m.Routees), ctx.Self())
		}
		return nil
	}), "asker")
	require.NoError(t, err)
	asker.Tell("query", NoSender)
	assert.Equal(t, 1, p.receive(t))
}
