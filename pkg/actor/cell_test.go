package actor

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type started struct {
	name     string
	instance int64
}

type stopped struct {
	name string
}

var instanceSeq atomic.Int64

// lifecycleActor 上报 OnInit、OnStop，收到 "boom" 时失败，收到 "panic" 时 panic
type lifecycleActor struct {
	Actor
	events   chan interface{}
	instance int64
	name     string
}

func newLifecycleProps(events chan interface{}) *Props {
	return PropsFromProducer(func() IActor {
		return &lifecycleActor{events: events, instance: instanceSeq.Add(1)}
	})
}

func (a *lifecycleActor) OnInit(ctx IContext, _ []interface{}) error {
	a.name = ctx.Self().Path().Name()
	a.events <- &started{name: a.name, instance: a.instance}
	return nil
}

func (a *lifecycleActor) OnMessage(ctx IContext, msg interface{}) error {
	switch m := msg.(type) {
	case string:
		switch m {
		case "boom":
			return errBoom
		case "panic":
			panic("kaboom")
		case "instance":
			ctx.Reply(a.instance)
		case "spawn":
			ref, err := ctx.ActorOf(newLifecycleProps(a.events), "")
			if err != nil {
				return err
			}
			ctx.Reply(ref)
		default:
			ctx.Reply(m)
		}
		return nil
	case *spawnNamed:
		ref, err := ctx.ActorOf(m.props, m.name)
		if err != nil {
			ctx.Reply(&Failure{Cause: err})
			return nil
		}
		ctx.Reply(ref)
		return nil
	}
	return ErrUnhandled
}

func (a *lifecycleActor) OnStop(IContext) error {
	a.events <- &stopped{name: a.name}
	return nil
}

type spawnNamed struct {
	props *Props
	name  string
}

func expectEvent[T any](t *testing.T, events chan interface{}) T {
	t.Helper()
	select {
	case evt := <-events:
		v, ok := evt.(T)
		require.True(t, ok, "unexpected event %#v", evt)
		return v
	case <-time.After(waitTimeout):
		require.FailNow(t, "timeout waiting for lifecycle event")
	}
	var zero T
	return zero
}

func spawnChild(t *testing.T, sys *System, parent IActorRef, props *Props, name string) IActorRef {
	t.Helper()
	res := ask(t, sys, parent, &spawnNamed{props: props, name: name})
	ref, ok := res.(IActorRef)
	require.True(t, ok, "spawn failed: %v", res)
	return ref
}

func TestRandomName(t *testing.T) {
	assert.Equal(t, "$a", randomName(0))
	assert.Equal(t, "$b", randomName(1))
	assert.Equal(t, "$~", randomName(63))
	assert.Equal(t, "$ab", randomName(64))
	assert.Equal(t, "$bb", randomName(65))
}

func TestActorOf_GeneratedAndDuplicateNames(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)

	a, err := sys.ActorOf(newLifecycleProps(events), "")
	require.NoError(t, err)
	b, err := sys.ActorOf(newLifecycleProps(events), "")
	require.NoError(t, err)
	assert.Equal(t, "/user/$a", a.Path().ToStringWithoutAddress())
	assert.Equal(t, "/user/$b", b.Path().ToStringWithoutAddress())

	_, err = sys.ActorOf(newLifecycleProps(events), "svc")
	require.NoError(t, err)
	_, err = sys.ActorOf(newLifecycleProps(events), "svc")
	assert.ErrorIs(t, err, ErrNameTaken)

	_, err = sys.ActorOf(newLifecycleProps(events), "$bad")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = sys.ActorOf(nil, "x")
	assert.ErrorIs(t, err, ErrPropsIsNil)
	_, err = sys.ActorOf(newLifecycleProps(events).WithDeploy(Deploy{Scope: DeployRemote}), "remote")
	assert.ErrorIs(t, err, ErrRemoteDeployNotAllowed)
	_, err = sys.ActorOf(newLifecycleProps(events).WithDispatcher("missing"), "x")
	assert.ErrorIs(t, err, ErrUnknownDispatcher)
	_, ok := sys.userGuardian.Child("x")
	assert.False(t, ok)
}

// 失败后在原路径上重启，父节点不受影响
func TestRestartOnFailure(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)

	parent, err := sys.ActorOf(newLifecycleProps(events), "parent")
	require.NoError(t, err)
	p := expectEvent[*started](t, events)

	child := spawnChild(t, sys, parent, newLifecycleProps(events), "child")
	first := expectEvent[*started](t, events)
	assert.Equal(t, "child", first.name)

	child.Tell("boom", NoSender)
	assert.Equal(t, "child", expectEvent[*stopped](t, events).name)
	second := expectEvent[*started](t, events)
	assert.Equal(t, "child", second.name)
	assert.NotEqual(t, first.instance, second.instance)

	assert.Equal(t, second.instance, ask(t, sys, child, "instance"))
	assert.Equal(t, p.instance, ask(t, sys, parent, "instance"))
	select {
	case evt := <-events:
		assert.Failf(t, "parent should not restart", "%#v", evt)
	default:
	}
}

func TestRestartOnPanic(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)
	errorsCh, cancel := collect[*ErrorEvent](sys)
	defer cancel()

	ref, err := sys.ActorOf(newLifecycleProps(events), "panicky")
	require.NoError(t, err)
	first := expectEvent[*started](t, events)

	ref.Tell("panic", NoSender)
	expectEvent[*stopped](t, events)
	second := expectEvent[*started](t, events)
	assert.NotEqual(t, first.instance, second.instance)

	evt := receiveEvent(t, errorsCh, nil)
	var pe *PanicError
	require.ErrorAs(t, evt.Cause, &pe)
	assert.Equal(t, "kaboom", pe.Value)
	assert.Equal(t, "Restart", evt.Message)
}

// PoisonPill 停止子节点，父节点移除它，监视者只收到一次 Terminated
func TestPoisonPillStopsChild(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)

	parent, err := sys.ActorOf(newLifecycleProps(events), "parent")
	require.NoError(t, err)
	expectEvent[*started](t, events)
	child := spawnChild(t, sys, parent, newLifecycleProps(events), "child")
	expectEvent[*started](t, events)

	watcher := newProbe(t, sys)
	watcher.watch(t, child)
	watcher.watch(t, child)

	child.Tell(&PoisonPill{}, NoSender)
	expectEvent[*stopped](t, events)
	terminated := expectMsg[*Terminated](t, watcher)
	assert.True(t, sameActor(terminated.Actor, child))
	assert.True(t, terminated.ExistenceConfirmed)
	watcher.expectNoMsg(t, 100*time.Millisecond)

	parentCell := sys.cellOf(parent)
	require.NotNil(t, parentCell)
	require.Eventually(t, func() bool {
		_, ok := parentCell.Child("child")
		return !ok
	}, waitTimeout, 5*time.Millisecond)
}

func TestDeadLetterForUnknownPath(t *testing.T) {
	sys := newTestSystem(t)
	letters, cancel := collect[*DeadLetter](sys)
	defer cancel()

	ref, err := sys.ResolveActorRef("/user/nobody")
	require.NoError(t, err)
	ref.Tell("hello", NoSender)

	dl := receiveEvent(t, letters, func(dl *DeadLetter) bool { return dl.Message == "hello" })
	assert.Equal(t, "/user/nobody", dl.Recipient.Path().ToStringWithoutAddress())
}

// 终止后投递的消息不会到达用户代码
func TestNoDeliveryAfterTermination(t *testing.T) {
	sys := newTestSystem(t)
	var received atomic.Int32
	ref, err := sys.ActorOf(PropsFromFunc(func(ctx IContext, msg interface{}) error {
		received.Add(1)
		return nil
	}), "short")
	require.NoError(t, err)

	res, err := sys.GracefulStop(ref, waitTimeout).Wait()
	require.NoError(t, err)
	assert.Equal(t, true, res)

	letters, cancel := collect[*DeadLetter](sys)
	defer cancel()
	for i := 0; i < 10; i++ {
		ref.Tell(i, NoSender)
	}
	receiveEvent(t, letters, func(dl *DeadLetter) bool { return dl.Message == 9 })
	assert.Equal(t, int32(0), received.Load())
}

// 子节点先于父节点结束
func TestTerminationIsBottomUp(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)

	parent, err := sys.ActorOf(newLifecycleProps(events), "p")
	require.NoError(t, err)
	expectEvent[*started](t, events)
	child := spawnChild(t, sys, parent, newLifecycleProps(events), "c")
	expectEvent[*started](t, events)
	spawnChild(t, sys, child, newLifecycleProps(events), "g")
	expectEvent[*started](t, events)

	parent.Stop()
	assert.Equal(t, "g", expectEvent[*stopped](t, events).name)
	assert.Equal(t, "c", expectEvent[*stopped](t, events).name)
	assert.Equal(t, "p", expectEvent[*stopped](t, events).name)
	waitTerminated(t, sys, parent)
}

func TestStopIsIdempotent(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)
	ref, err := sys.ActorOf(newLifecycleProps(events), "once")
	require.NoError(t, err)
	expectEvent[*started](t, events)

	ref.Stop()
	ref.Stop()
	sys.Stop(ref)
	expectEvent[*stopped](t, events)
	waitTerminated(t, sys, ref)
	select {
	case evt := <-events:
		assert.Failf(t, "unexpected event", "%#v", evt)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestKillIsSupervised(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)
	watcher := newProbe(t, sys)

	ref, err := sys.ActorOf(newLifecycleProps(events), "victim")
	require.NoError(t, err)
	expectEvent[*started](t, events)
	watcher.watch(t, ref)

	ref.Tell(&Kill{}, NoSender)
	expectEvent[*stopped](t, events)
	expectMsg[*Terminated](t, watcher)
}

func TestIdentify(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)
	ref, err := sys.ActorOf(newLifecycleProps(events), "who")
	require.NoError(t, err)

	res := ask(t, sys, ref, &Identify{MessageID: 7})
	identity, ok := res.(*ActorIdentity)
	require.True(t, ok)
	assert.Equal(t, 7, identity.MessageID)
	assert.True(t, sameActor(ref, identity.Ref))
}

func TestUnhandledMessagePublished(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)
	unhandled, cancel := collect[*UnhandledMessage](sys)
	defer cancel()

	ref, err := sys.ActorOf(newLifecycleProps(events), "picky")
	require.NoError(t, err)
	expectEvent[*started](t, events)
	ref.Tell(42, NoSender)

	evt := receiveEvent(t, unhandled, nil)
	assert.Equal(t, 42, evt.Message)
	assert.True(t, sameActor(ref, evt.Recipient))
	assert.Equal(t, "pong", ask(t, sys, ref, "pong"))

	// 显式调用 Unhandled 后返回 nil 同样发布
	explicit, err := sys.ActorOf(PropsFromFunc(func(ctx IContext, msg interface{}) error {
		ctx.Unhandled(msg)
		return nil
	}), "explicit")
	require.NoError(t, err)
	explicit.Tell("skip", NoSender)
	evt = receiveEvent(t, unhandled, nil)
	assert.Equal(t, "skip", evt.Message)
	assert.True(t, sameActor(explicit, evt.Recipient))
}

// 不处理 Terminated 的监视者以 DeathPactError 失败并被停止
func TestDeathPact(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)
	errorsCh, cancel := collect[*ErrorEvent](sys)
	defer cancel()

	target, err := sys.ActorOf(newLifecycleProps(events), "target")
	require.NoError(t, err)
	expectEvent[*started](t, events)

	watcher, err := sys.ActorOf(PropsFromFunc(func(ctx IContext, msg interface{}) error {
		if m, ok := msg.(*watchRequest); ok {
			ctx.Watch(m.target)
			ctx.Reply("ok")
			return nil
		}
		return ErrUnhandled
	}), "watcher")
	require.NoError(t, err)
	assert.Equal(t, "ok", ask(t, sys, watcher, &watchRequest{target: target}))

	target.Stop()
	evt := receiveEvent(t, errorsCh, func(e *ErrorEvent) bool {
		var pact *DeathPactError
		return errors.As(e.Cause, &pact)
	})
	assert.Equal(t, "Stop", evt.Message)
	waitTerminated(t, sys, watcher)
}

func TestUnwatchSuppressesTerminated(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)
	watcher := newProbe(t, sys)

	target, err := sys.ActorOf(newLifecycleProps(events), "target")
	require.NoError(t, err)
	expectEvent[*started](t, events)

	watcher.watch(t, target)
	watcher.unwatch(t, target)
	target.Stop()
	expectEvent[*stopped](t, events)
	waitTerminated(t, sys, target)
	watcher.expectNoMsg(t, 100*time.Millisecond)
}

func TestWatchDeadActor(t *testing.T) {
	sys := newTestSystem(t)
	watcher := newProbe(t, sys)
	ghost, err := sys.ResolveActorRef("/user/ghost")
	require.NoError(t, err)

	watcher.watch(t, ghost)
	terminated := expectMsg[*Terminated](t, watcher)
	assert.False(t, terminated.ExistenceConfirmed)
	assert.Equal(t, "/user/ghost", terminated.Actor.Path().ToStringWithoutAddress())
}

func TestBecomeUnbecome(t *testing.T) {
	sys := newTestSystem(t)
	var angry ReceiveFunc
	happy := func(ctx IContext, msg interface{}) error {
		switch msg {
		case "mood":
			ctx.Reply("happy")
		case "anger":
			ctx.Become(angry, false)
		case "unbecome":
			ctx.Unbecome()
		}
		return nil
	}
	angry = func(ctx IContext, msg interface{}) error {
		switch msg {
		case "mood":
			ctx.Reply("angry")
		case "unbecome":
			ctx.Unbecome()
		case "swap":
			ctx.Become(func(ctx IContext, msg interface{}) error {
				ctx.Reply("calm")
				return nil
			}, true)
		}
		return nil
	}
	ref, err := sys.ActorOf(PropsFromFunc(happy), "moody")
	require.NoError(t, err)

	assert.Equal(t, "happy", ask(t, sys, ref, "mood"))
	ref.Tell("anger", NoSender)
	assert.Equal(t, "angry", ask(t, sys, ref, "mood"))
	ref.Tell("unbecome", NoSender)
	assert.Equal(t, "happy", ask(t, sys, ref, "mood"))

	// 只剩最初的处理函数时 Unbecome 不生效
	ref.Tell("unbecome", NoSender)
	ref.Tell("unbecome", NoSender)
	assert.Equal(t, "happy", ask(t, sys, ref, "mood"))

	ref.Tell("anger", NoSender)
	ref.Tell("swap", NoSender)
	assert.Equal(t, "calm", ask(t, sys, ref, "mood"))
}

func TestBehaviorStack(t *testing.T) {
	var s behaviorStack
	assert.Nil(t, s.peek())
	assert.False(t, s.pop())

	tag := func(v string) ReceiveFunc {
		return func(ctx IContext, msg interface{}) error { return errors.New(v) }
	}
	s.reset(tag("a"))
	s.push(tag("b"))
	assert.Equal(t, 2, s.len())
	assert.EqualError(t, s.peek()(nil, nil), "b")
	s.replace(tag("c"))
	assert.EqualError(t, s.peek()(nil, nil), "c")
	assert.True(t, s.pop())
	assert.False(t, s.pop())
	assert.EqualError(t, s.peek()(nil, nil), "a")
	s.clear()
	assert.Equal(t, 0, s.len())
}

func TestChildrenAreSorted(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)
	parent, err := sys.ActorOf(newLifecycleProps(events), "parent")
	require.NoError(t, err)
	for _, name := range []string{"c", "a", "b"} {
		spawnChild(t, sys, parent, newLifecycleProps(events), name)
	}
	var names []string
	for _, ref := range sys.cellOf(parent).Children() {
		names = append(names, ref.Path().Name())
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestInitFailureStopsActor(t *testing.T) {
	sys := newTestSystem(t)
	errorsCh, cancel := collect[*ErrorEvent](sys)
	defer cancel()

	ref, err := sys.ActorOf(PropsFromProducer(func() IActor { return &failingInit{} }), "broken")
	require.NoError(t, err)

	evt := receiveEvent(t, errorsCh, nil)
	var initErr *ActorInitializationError
	require.ErrorAs(t, evt.Cause, &initErr)
	assert.Equal(t, "Stop", evt.Message)
	waitTerminated(t, sys, ref)
}

type failingInit struct {
	Actor
}

func (f *failingInit) OnInit(IContext, []interface{}) error {
	return fmt.Errorf("no database")
}

func TestProducerReturningNil(t *testing.T) {
	sys := newTestSystem(t, WithSettings(&Settings{SerializeAllCreators: true}))
	_, err := sys.ActorOf(PropsFromProducer(func() IActor { return nil }), "nil")
	assert.ErrorIs(t, err, ErrProducerReturnedNil)
}

func TestOnInitReceivesArgs(t *testing.T) {
	sys := newTestSystem(t)
	got := make(chan []interface{}, 1)
	_, err := sys.ActorOf(PropsFromProducer(func() IActor {
		return &argsActor{got: got}
	}).WithArgs(1, "two"), "args")
	require.NoError(t, err)
	select {
	case args := <-got:
		assert.Equal(t, []interface{}{1, "two"}, args)
	case <-time.After(waitTimeout):
		require.FailNow(t, "OnInit not called")
	}
}

type argsActor struct {
	Actor
	got chan []interface{}
}

func (a *argsActor) OnInit(_ IContext, params []interface{}) error {
	a.got <- params
	return nil
}

func TestReceiveTimeout(t *testing.T) {
	sys := newTestSystem(t)
	fired := make(chan struct{}, 4)
	ref, err := sys.ActorOf(PropsFromFunc(func(ctx IContext, msg interface{}) error {
		switch msg.(type) {
		case string:
			ctx.SetReceiveTimeout(50 * time.Millisecond)
		case *ReceiveTimeout:
			ctx.SetReceiveTimeout(0)
			fired <- struct{}{}
		}
		return nil
	}), "idle")
	require.NoError(t, err)

	ref.Tell("arm", NoSender)
	select {
	case <-fired:
	case <-time.After(waitTimeout):
		require.FailNow(t, "receive timeout not fired")
	}
	select {
	case <-fired:
		require.FailNow(t, "receive timeout fired after disable")
	case <-time.After(200 * time.Millisecond):
	}
}

// recordingWatcher 记录收到的系统消息，不经过 cell 的 watching 过滤
type recordingWatcher struct {
	path *ActorPath
	ch   chan SystemMessage
}

func (w *recordingWatcher) Path() *ActorPath                  { return w.path }
func (w *recordingWatcher) Tell(interface{}, IActorRef)       {}
func (w *recordingWatcher) Stop()                             {}
func (w *recordingWatcher) String() string                    { return w.path.String() }
func (w *recordingWatcher) SendSystemMessage(m SystemMessage) { w.ch <- m }
func (w *recordingWatcher) Resume(error)                      {}
func (w *recordingWatcher) Suspend()                          {}
func (w *recordingWatcher) Restart(error)                     {}
func (w *recordingWatcher) IsLocal() bool                     { return true }

// 同一个监视者重复 Watch 只会收到一次通知
func TestWatchedBy_IsASet(t *testing.T) {
	sys := newTestSystem(t)
	events := make(chan interface{}, 16)
	target, err := sys.ActorOf(newLifecycleProps(events), "target")
	require.NoError(t, err)
	expectEvent[*started](t, events)

	w := &recordingWatcher{path: sys.TempPath(), ch: make(chan SystemMessage, 8)}
	internal := target.(IInternalActorRef)
	internal.SendSystemMessage(&Watch{Watchee: target, Watcher: w})
	internal.SendSystemMessage(&Watch{Watchee: target, Watcher: w})
	target.Tell(&PoisonPill{}, NoSender)
	expectEvent[*stopped](t, events)

	select {
	case msg := <-w.ch:
		dwn, ok := msg.(*DeathWatchNotification)
		require.True(t, ok, "%#v", msg)
		assert.True(t, sameActor(target, dwn.Actor))
		assert.True(t, dwn.ExistenceConfirmed)
	case <-time.After(waitTimeout):
		require.FailNow(t, "watcher was not notified")
	}
	select {
	case msg := <-w.ch:
		assert.Failf(t, "duplicate notification", "%#v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}
