package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const waitTimeout = 3 * time.Second

func newTestSystem(t *testing.T, opts ...Option) *System {
	t.Helper()
	sys, err := NewSystem("test", opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()
		_ = sys.Shutdown(ctx)
	})
	return sys
}

// probe 把收到的消息转发到 channel，用来在测试协程里断言
type probe struct {
	ref IActorRef
	ch  chan interface{}
}

type watchRequest struct {
	target IActorRef
}

type unwatchRequest struct {
	target IActorRef
}

func newProbe(t *testing.T, sys *System) *probe {
	t.Helper()
	p := &probe{ch: make(chan interface{}, 128)}
	ref, err := sys.ActorOf(PropsFromFunc(func(ctx IContext, msg interface{}) error {
		switch m := msg.(type) {
		case *watchRequest:
			ctx.Watch(m.target)
			p.ch <- m
			return nil
		case *unwatchRequest:
			ctx.Unwatch(m.target)
			p.ch <- m
			return nil
		}
		p.ch <- msg
		return nil
	}), "")
	require.NoError(t, err)
	p.ref = ref
	return p
}

// watch 返回时 Watch 已经发出
func (p *probe) watch(t *testing.T, target IActorRef) {
	t.Helper()
	p.ref.Tell(&watchRequest{target: target}, NoSender)
	expectMsg[*watchRequest](t, p)
}

func (p *probe) unwatch(t *testing.T, target IActorRef) {
	t.Helper()
	p.ref.Tell(&unwatchRequest{target: target}, NoSender)
	expectMsg[*unwatchRequest](t, p)
}

func (p *probe) receive(t *testing.T) interface{} {
	t.Helper()
	select {
	case msg := <-p.ch:
		return msg
	case <-time.After(waitTimeout):
		require.FailNow(t, "timeout waiting for message")
	}
	return nil
}

func (p *probe) expectNoMsg(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case msg := <-p.ch:
		require.FailNow(t, "unexpected message", "%#v", msg)
	case <-time.After(d):
	}
}

func expectMsg[T any](t *testing.T, p *probe) T {
	t.Helper()
	msg := p.receive(t)
	v, ok := msg.(T)
	require.True(t, ok, "unexpected message %#v", msg)
	return v
}

// collect 订阅事件流中类型为 T 的事件
func collect[T any](sys *System) (chan T, func()) {
	ch := make(chan T, 128)
	sub := SubscribeTo(sys.EventStream(), func(evt T) {
		select {
		case ch <- evt:
		default:
		}
	})
	return ch, func() { sys.EventStream().Unsubscribe(sub) }
}

func receiveEvent[T any](t *testing.T, ch chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case evt := <-ch:
			if match == nil || match(evt) {
				return evt
			}
		case <-deadline:
			var zero T
			require.FailNow(t, "timeout waiting for event")
			return zero
		}
	}
}

func waitTerminated(t *testing.T, sys *System, ref IActorRef) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := sys.registry.get(ref.Path().key)
		return !ok
	}, waitTimeout, 5*time.Millisecond)
}

func ask(t *testing.T, sys *System, ref IActorRef, msg interface{}) interface{} {
	t.Helper()
	res, err := sys.Ask(ref, msg, waitTimeout).Wait()
	require.NoError(t, err)
	return res
}
