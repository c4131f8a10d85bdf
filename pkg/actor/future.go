package actor

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Future Ask 的结果，只会完成一次
type Future struct {
	mu        sync.Mutex
	done      chan struct{}
	completed bool
	result    interface{}
	err       error
	callbacks []func(result interface{}, err error)
	ref       *futureRef
	timer     ICancelable
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Done 完成时关闭
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait 阻塞直到完成，不要在 actor 的处理函数中调用
func (f *Future) Wait() (interface{}, error) {
	<-f.done
	return f.result, f.err
}

// WaitContext ctx 结束时返回 ctx.Err()
func (f *Future) WaitContext(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) IsCompleted() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// PipeTo 完成后把结果投递给 ref，失败时投递 *Failure
func (f *Future) PipeTo(ref IActorRef, sender IActorRef) {
	f.continueWith(func(result interface{}, err error) {
		if err != nil {
			ref.Tell(&Failure{Cause: err}, sender)
			return
		}
		ref.Tell(result, sender)
	})
}

// continueWith 已完成时立即在当前协程执行
func (f *Future) continueWith(fn func(result interface{}, err error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	fn(f.result, f.err)
}

// complete 返回 false 表示已经完成过
func (f *Future) complete(result interface{}, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.result, f.err = result, err
	callbacks := f.callbacks
	f.callbacks = nil
	timer := f.timer
	f.mu.Unlock()

	if timer != nil {
		timer.Cancel()
	}
	close(f.done)
	if f.ref != nil {
		f.ref.system.UnregisterTempActor(f.ref.path)
	}
	for _, fn := range callbacks {
		bestEffort("future callback", func() error {
			fn(result, err)
			return nil
		})
	}
	return true
}

var _ IInternalActorRef = (*futureRef)(nil)

// futureRef 注册在 /temp 下的临时 ref，收到的第一条消息就是结果
type futureRef struct {
	path    *ActorPath
	system  *System
	future  *Future
	onReply func(msg interface{}) (result interface{}, done bool, err error)
}

func (r *futureRef) Path() *ActorPath { return r.path }
func (r *futureRef) String() string   { return r.path.String() }
func (r *futureRef) IsLocal() bool    { return true }
func (r *futureRef) Resume(error)     {}
func (r *futureRef) Suspend()         {}
func (r *futureRef) Restart(error)    {}

func (r *futureRef) Stop() {
	r.future.complete(nil, ErrFutureRefDisposed)
}

// Tell 回复被包装成 CompleteFuture 交给 SendSystemMessage
func (r *futureRef) Tell(msg interface{}, sender IActorRef) {
	if msg == nil {
		return
	}
	r.SendSystemMessage(&CompleteFuture{Action: func() {
		r.reply(msg)
	}})
}

func (r *futureRef) reply(msg interface{}) {
	if r.onReply != nil {
		if result, done, err := r.onReply(msg); done {
			r.future.complete(result, err)
		}
		return
	}
	if failure, ok := msg.(*Failure); ok {
		r.future.complete(nil, failure.Cause)
		return
	}
	r.future.complete(msg, nil)
}

func (r *futureRef) SendSystemMessage(msg SystemMessage) {
	switch m := msg.(type) {
	case *CompleteFuture:
		if m.Action != nil {
			m.Action()
		}
	case *DeathWatchNotification:
		r.reply(&Terminated{Actor: m.Actor, ExistenceConfirmed: m.ExistenceConfirmed, AddressTerminated: m.AddressTerminated})
	}
}

// newFutureRef timeout <= 0 使用 Settings.AskTimeout
func (s *System) newFutureRef(timeout time.Duration) *futureRef {
	if timeout <= 0 {
		timeout = s.settings.AskTimeout
	}
	f := newFuture()
	ref := &futureRef{path: s.TempPath(), system: s, future: f}
	f.ref = ref
	s.RegisterTempActor(ref)
	timer := s.scheduler.ScheduleOnce(timeout, func() {
		f.complete(nil, errors.Wrapf(ErrAskTimeout, "after %s", timeout))
	})
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		timer.Cancel()
	} else {
		f.timer = timer
		f.mu.Unlock()
	}
	return ref
}

// Ask 发送 msg 并以临时 ref 作为发送者，回复 *Failure 时 Future 以其 Cause 失败
func (s *System) Ask(to IActorRef, msg interface{}, timeout time.Duration) *Future {
	ref := s.newFutureRef(timeout)
	if to == nil {
		ref.future.complete(nil, ErrRecipientIsNil)
		return ref.future
	}
	if msg == nil {
		ref.future.complete(nil, ErrMessageIsNil)
		return ref.future
	}
	to.Tell(msg, ref)
	return ref.future
}

// GracefulStop 发送 PoisonPill，actor 终止后 Future 以 true 完成
func (s *System) GracefulStop(target IActorRef, timeout time.Duration) *Future {
	ref := s.newFutureRef(timeout)
	ref.onReply = func(msg interface{}) (interface{}, bool, error) {
		if t, ok := msg.(*Terminated); ok && sameActor(t.Actor, target) {
			return true, true, nil
		}
		return nil, false, nil
	}
	watchee, ok := target.(IInternalActorRef)
	if !ok {
		ref.future.complete(nil, ErrRecipientIsNil)
		return ref.future
	}
	watchee.SendSystemMessage(&Watch{Watchee: target, Watcher: ref})
	target.Tell(&PoisonPill{}, ref)
	return ref.future
}
