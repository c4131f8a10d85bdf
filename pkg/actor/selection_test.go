package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelection(t *testing.T) {
	elements := parseSelection("/user/./a//../b*/c?")
	assert.Equal(t, []SelectionElement{
		SelectChildName{Name: "user"},
		SelectChildName{Name: "a"},
		SelectParent{},
		SelectChildPattern{Pattern: "b*"},
		SelectChildPattern{Pattern: "c?"},
	}, elements)
}

func TestActorSelection_Tell(t *testing.T) {
	sys := newTestSystem(t)
	p := newProbe(t, sys)

	fwd := PropsFromFunc(func(ctx IContext, msg interface{}) error {
		p.ref.Tell(ctx.Self().Path().Name()+":"+msg.(string), ctx.Self())
		return nil
	})
	parent, err := sys.ActorOf(PropsFromFunc(func(ctx IContext, msg interface{}) error {
		if name, ok := msg.(string); ok {
			_, err := ctx.ActorOf(fwd, name)
			if err != nil {
				return err
			}
			ctx.Reply(name)
		}
		return nil
	}), "workers")
	require.NoError(t, err)
	for _, name := range []string{"w1", "w2", "other"} {
		assert.Equal(t, name, ask(t, sys, parent, name))
	}

	sys.ActorSelection("/user/workers/w1").Tell("exact", NoSender)
	assert.Equal(t, "w1:exact", p.receive(t))

	sys.ActorSelection("workers/w2").Tell("relative", NoSender)
	assert.Equal(t, "w2:relative", p.receive(t))

	sys.ActorSelection("gactor://test/user/workers/../workers/w1").Tell("parent", NoSender)
	assert.Equal(t, "w1:parent", p.receive(t))

	sys.ActorSelection("/user/workers/w*").Tell("wild", NoSender)
	got := []interface{}{p.receive(t), p.receive(t)}
	assert.ElementsMatch(t, []interface{}{"w1:wild", "w2:wild"}, got)
	p.expectNoMsg(t, 50*time.Millisecond)
}

func TestActorSelection_Missing(t *testing.T) {
	sys := newTestSystem(t)
	letters, cancel := collect[*DeadLetter](sys)
	defer cancel()

	sys.ActorSelection("/user/missing/child").Tell("lost", NoSender)
	dl := receiveEvent(t, letters, nil)
	sel, ok := dl.Message.(*ActorSelectionMessage)
	require.True(t, ok)
	assert.Equal(t, "lost", sel.Message)

	// 精确路径上的通配符未命中同样转交死信
	sys.ActorSelection("/user/nothing*").Tell("pattern", NoSender)
	dl = receiveEvent(t, letters, nil)
	assert.Equal(t, "pattern", dl.Message.(*ActorSelectionMessage).Message)

	// 通配符展开之后的未命中直接丢弃
	_, err := sys.ActorOf(echoProps(), "worker")
	require.NoError(t, err)
	sys.ActorSelection("/user/work*/missing").Tell("quiet", NoSender)
	select {
	case dl := <-letters:
		assert.Failf(t, "unexpected dead letter", "%#v", dl)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestActorSelection_ResolveOne(t *testing.T) {
	sys := newTestSystem(t)
	ref, err := sys.ActorOf(echoProps(), "echo")
	require.NoError(t, err)

	res, err := sys.ActorSelection("/user/echo").ResolveOne(time.Second).Wait()
	require.NoError(t, err)
	assert.True(t, sameActor(ref, res.(IActorRef)))

	_, err = sys.ActorSelection("/user/nobody").ResolveOne(time.Second).Wait()
	assert.ErrorIs(t, err, ErrActorNotFound)

	_, err = sys.ActorSelection("/user/nob*").ResolveOne(time.Second).Wait()
	assert.ErrorIs(t, err, ErrActorNotFound)
}

func TestActorSelection_FromContext(t *testing.T) {
	sys := newTestSystem(t)
	sibling, err := sys.ActorOf(echoProps(), "sibling")
	require.NoError(t, err)

	ref, err := sys.ActorOf(PropsFromFunc(func(ctx IContext, msg interface{}) error {
		if s, ok := msg.(string); ok {
			ctx.ActorSelection("../sibling").Tell(s, ctx.Sender())
		}
		return nil
	}), "asker")
	require.NoError(t, err)

	assert.Equal(t, "via-selection", ask(t, sys, ref, "via-selection"))
	assert.Equal(t, "ActorSelection[gactor://test/user/asker/../sibling]", contextOf(t, sys, ref).ActorSelection("../sibling").String())
	assert.Equal(t, "ActorSelection[gactor://test/sibling]", contextOf(t, sys, ref).ActorSelection("/sibling").String())
	_ = sibling
}

// contextOf 仅用于构造选择器，不在处理协程之外读写 cell 状态
func contextOf(t *testing.T, sys *System, ref IActorRef) IContext {
	t.Helper()
	c := sys.cellOf(ref)
	require.NotNil(t, c)
	return c
}

func TestActorSelection_DeadLetters(t *testing.T) {
	sys := newTestSystem(t)
	letters, cancel := collect[*DeadLetter](sys)
	defer cancel()

	sys.ActorSelection("/deadLetters").Tell("to-the-void", NoSender)
	dl := receiveEvent(t, letters, nil)
	assert.Equal(t, "to-the-void", dl.Message)
}
