package actor

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/duke-git/lancet/v2/maputil"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dzm2020/gactor/pkg/glog"
	"github.com/dzm2020/gactor/pkg/lib/workers"
)

var _ IContext = (*actorCell)(nil)
var _ IMessageInvoker = (*actorCell)(nil)

// actorCell actor 的运行时容器，重启时只替换 actor 实例
// 除 children、watchedBy 和几个原子变量外，字段只在处理协程中读写
type actorCell struct {
	system     *System
	self       *LocalActorRef
	parent     IInternalActorRef
	props      *Props
	uid        int64
	mailbox    *Mailbox
	dispatcher IDispatcher
	strategy   SupervisorStrategy

	actor     IActor
	behaviors behaviorStack

	children *maputil.ConcurrentMap[string, *LocalActorRef]
	stopping map[string]*LocalActorRef
	nameSeq  atomic.Int64

	watching         map[string]IActorRef
	terminatedQueued map[string]IActorRef
	watchedBy        *BroadcastActorRef

	message interface{}
	sender  IActorRef

	isTerminating atomic.Bool
	terminated    atomic.Bool

	failed        bool
	failedMessage interface{}
	perpetrator   string
	recreating    bool
	recreateCause error

	receiveTimeout      time.Duration
	receiveTimeoutTimer ICancelable
}

func newActorCell(system *System, self *LocalActorRef, parent IInternalActorRef, props *Props) *actorCell {
	return &actorCell{
		system:           system,
		self:             self,
		parent:           parent,
		props:            props,
		uid:              self.uid,
		children:         maputil.NewConcurrentMap[string, *LocalActorRef](4),
		stopping:         make(map[string]*LocalActorRef),
		watching:         make(map[string]IActorRef),
		terminatedQueued: make(map[string]IActorRef),
		watchedBy:        NewBroadcastActorRef(),
	}
}

func (c *actorCell) Self() IActorRef      { return c.self }
func (c *actorCell) Parent() IActorRef    { return c.parent }
func (c *actorCell) Message() interface{} { return c.message }
func (c *actorCell) System() *System      { return c.system }
func (c *actorCell) Props() *Props        { return c.props }
func (c *actorCell) Actor() IActor        { return c.actor }

func (c *actorCell) Sender() IActorRef {
	return orNoSender(c.sender)
}

// enterTurn 绑定当前消息，返回的函数恢复之前的状态
func (c *actorCell) enterTurn(msg interface{}, sender IActorRef) func() {
	prevMsg, prevSender := c.message, c.sender
	c.message, c.sender = msg, sender
	return func() {
		c.message, c.sender = prevMsg, prevSender
	}
}

func (c *actorCell) sendMessage(env Envelope) {
	if c.system.settings.SerializeAllMessages {
		msg, err := c.system.serialization.verify(env.Message)
		if err != nil {
			glog.Error("message serialization verification failed", zap.Stringer("recipient", c.self),
				zap.String("type", fmt.Sprintf("%T", env.Message)), zap.Error(err))
			c.system.eventStream.Publish(&ErrorEvent{Source: c.self.String(), Cause: err, Message: "serialization verification failed"})
			c.system.deadLetters.Tell(&DeadLetter{Message: env.Message, Sender: env.Sender, Recipient: c.self}, env.Sender)
			return
		}
		env.Message = msg
	}
	if err := c.mailbox.Post(env); err != nil {
		c.system.deadLetters.Tell(&DeadLetter{Message: env.Message, Sender: env.Sender, Recipient: c.self}, env.Sender)
	}
}

func (c *actorCell) sendSystemMessage(msg SystemMessage) {
	if err := c.mailbox.PostSystem(msg); err != nil {
		c.system.deadLetters.handleSystem(c.self, msg)
	}
}

// InvokeUserMessage 用户消息的入口，失败转成 Failed 发给父节点
func (c *actorCell) InvokeUserMessage(env Envelope) {
	restore := c.enterTurn(env.Message, env.Sender)
	defer restore()

	_, notInfluence := env.Message.(NotInfluenceReceiveTimeout)
	if !notInfluence {
		c.cancelReceiveTimeout()
	}
	if err := tryInvoke(func() error { return c.receive(env.Message) }); err != nil {
		c.handleInvokeFailure(err)
	}
	if !notInfluence {
		c.scheduleReceiveTimeout()
	}
}

func (c *actorCell) receive(msg interface{}) error {
	switch m := msg.(type) {
	case *Terminated:
		return c.receivedTerminated(m)
	case *PoisonPill:
		c.debugAutoReceive(msg)
		c.self.Stop()
		return nil
	case *Kill:
		c.debugAutoReceive(msg)
		return &ActorKilledError{Actor: c.self}
	case *Identify:
		c.debugAutoReceive(msg)
		c.Sender().Tell(&ActorIdentity{MessageID: m.MessageID, Ref: c.self}, c.self)
		return nil
	case *ActorSelectionMessage:
		c.debugAutoReceive(msg)
		deliverSelection(c.system, c.self, m, c.Sender())
		return nil
	}
	return c.receiveMessage(msg)
}

// receiveMessage 交给当前的处理函数，未处理的消息发布到事件流
func (c *actorCell) receiveMessage(msg interface{}) error {
	receive := c.behaviors.peek()
	if receive == nil {
		return nil
	}
	err := receive(c, msg)
	if errors.Is(err, ErrUnhandled) {
		c.unhandled(msg)
		return nil
	}
	return err
}

func (c *actorCell) Unhandled(msg interface{}) {
	c.unhandled(msg)
}

func (c *actorCell) unhandled(msg interface{}) {
	if c.system.settings.DebugUnhandled {
		glog.Debug("unhandled message", zap.Stringer("actor", c.self), zap.String("type", fmt.Sprintf("%T", msg)))
	}
	c.system.eventStream.Publish(&UnhandledMessage{Message: msg, Sender: c.Sender(), Recipient: c.self})
}

func (c *actorCell) receivedTerminated(t *Terminated) error {
	key := watchKey(t.Actor)
	if _, ok := c.terminatedQueued[key]; !ok {
		return nil
	}
	delete(c.terminatedQueued, key)
	receive := c.behaviors.peek()
	if receive == nil {
		return nil
	}
	err := receive(c, t)
	if errors.Is(err, ErrUnhandled) {
		return &DeathPactError{Dead: t.Actor}
	}
	return err
}

// InvokeSystemMessage 系统消息的入口，未知类型的系统消息直接 panic
func (c *actorCell) InvokeSystemMessage(msg SystemMessage) {
	restore := c.enterTurn(msg, NoSender)
	defer restore()

	var unknown *UnknownSystemMessageError
	err := tryInvoke(func() error { return c.systemInvoke(msg) })
	switch {
	case err == nil:
	case errors.As(err, &unknown):
		panic(err)
	default:
		c.handleInvokeFailure(err)
	}
}

// systemInvoke 按固定的优先顺序匹配
func (c *actorCell) systemInvoke(msg SystemMessage) error {
	switch m := msg.(type) {
	case *CompleteFuture:
		if m.Action != nil {
			m.Action()
		}
	case *Failed:
		return c.handleFailed(m)
	case *DeathWatchNotification:
		return c.watchedActorTerminated(m.Actor, m.ExistenceConfirmed, m.AddressTerminated)
	case *Create:
		return c.create()
	case *Watch:
		c.addWatcher(m.Watchee, m.Watcher)
	case *Unwatch:
		c.remWatcher(m.Watchee, m.Watcher)
	case *Recreate:
		return c.faultRecreate(m.Cause)
	case *Suspend:
		c.faultSuspend()
	case *Resume:
		return c.faultResume(m.Cause)
	case *Terminate:
		c.terminate()
	case *Supervise:
		c.supervise(m.Child, m.Async)
	case *NoMessage:
	default:
		return &UnknownSystemMessageError{Message: msg}
	}
	return nil
}

// create 创建 actor 实例并调用 OnInit
func (c *actorCell) create() error {
	a, err := c.newActor()
	if err != nil {
		return &ActorInitializationError{Actor: c.self, Cause: err}
	}
	c.setActor(a)
	if err = tryInvoke(func() error { return a.OnInit(c, c.props.args) }); err != nil {
		c.actor = nil
		c.behaviors.clear()
		return &ActorInitializationError{Actor: c.self, Cause: err}
	}
	c.debugLifecycle("started")
	c.scheduleReceiveTimeout()
	return nil
}

// setActor 替换实例并重置处理函数栈，Props 没有指定监督策略时使用实例提供的
func (c *actorCell) setActor(a IActor) {
	c.actor = a
	c.behaviors.reset(a.OnMessage)
	if c.props.strategy != nil {
		return
	}
	if p, ok := a.(ISupervisorStrategyProvider); ok {
		if strategy := p.SupervisorStrategy(); strategy != nil {
			c.strategy = strategy
		}
	}
}

func (c *actorCell) newActor() (a IActor, err error) {
	err = tryInvoke(func() error {
		var e error
		a, e = c.props.NewActor()
		return e
	})
	return
}

func (c *actorCell) supervise(child IActorRef, _ bool) {
	if _, ok := c.childByRef(child); !ok {
		glog.Error("received Supervise from unregistered child", zap.Stringer("parent", c.self), zap.Stringer("child", child))
		return
	}
	c.debugLifecycle("now supervising " + child.String())
}

func (c *actorCell) debugLifecycle(msg string) {
	if !c.system.settings.DebugLifecycle {
		return
	}
	glog.Debug(msg, zap.Stringer("actor", c.self))
	c.system.eventStream.Publish(&DebugEvent{Source: c.self.String(), Message: msg})
}

func (c *actorCell) debugAutoReceive(msg interface{}) {
	if !c.system.settings.DebugAutoReceive {
		return
	}
	text := fmt.Sprintf("received AutoReceiveMessage %T", msg)
	glog.Debug(text, zap.Stringer("actor", c.self), zap.Stringer("sender", c.Sender()))
	c.system.eventStream.Publish(&DebugEvent{Source: c.self.String(), Message: text})
}

// Become 替换或压入处理函数
func (c *actorCell) Become(receive ReceiveFunc, discardOld bool) {
	if receive == nil {
		return
	}
	if discardOld {
		c.behaviors.replace(receive)
		return
	}
	c.behaviors.push(receive)
}

func (c *actorCell) Unbecome() {
	if !c.behaviors.pop() {
		glog.Debug("unbecome ignored, behavior stack has a single entry", zap.Stringer("actor", c.self))
	}
}

func (c *actorCell) Send(to IActorRef, msg interface{}) {
	if to != nil {
		to.Tell(msg, c.self)
	}
}

func (c *actorCell) Reply(msg interface{}) {
	c.Sender().Tell(msg, c.self)
}

func (c *actorCell) Forward(to IActorRef) {
	if to != nil {
		to.Tell(c.message, c.Sender())
	}
}

func (c *actorCell) Ask(to IActorRef, msg interface{}, timeout time.Duration) *Future {
	return c.system.Ask(to, msg, timeout)
}

// ReenterAfter fn 以 CompleteFuture 系统消息的形式回到处理协程
func (c *actorCell) ReenterAfter(f *Future, fn func(result interface{}, err error)) {
	self := c.self
	f.continueWith(func(result interface{}, err error) {
		self.SendSystemMessage(&CompleteFuture{Action: func() {
			fn(result, err)
		}})
	})
}

func (c *actorCell) ActorSelection(path string) *ActorSelection {
	return newActorSelectionFrom(c.system, c.self, path)
}

func (c *actorCell) SetReceiveTimeout(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.receiveTimeout = d
	c.cancelReceiveTimeout()
	c.scheduleReceiveTimeout()
}

func (c *actorCell) ReceiveTimeout() time.Duration {
	return c.receiveTimeout
}

func (c *actorCell) scheduleReceiveTimeout() {
	if c.receiveTimeout <= 0 || c.isTerminating.Load() || c.actor == nil {
		return
	}
	c.cancelReceiveTimeout()
	c.receiveTimeoutTimer = c.system.scheduler.ScheduleTellOnce(c.receiveTimeout, c.self, &ReceiveTimeout{}, NoSender)
}

func (c *actorCell) cancelReceiveTimeout() {
	if c.receiveTimeoutTimer != nil {
		c.receiveTimeoutTimer.Cancel()
		c.receiveTimeoutTimer = nil
	}
}

// tryInvoke panic 转成 PanicError
func tryInvoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return fn()
}

// bestEffort 失败只记录日志
func bestEffort(name string, fn func() error) {
	workers.Try(func() {
		if err := fn(); err != nil {
			glog.Warn("best effort operation failed", zap.String("op", name), zap.Error(err))
		}
	}, func(err interface{}) {
		glog.Warn("best effort operation panic", zap.String("op", name), zap.Any("err", err))
	})
}

// deadCell 终止后替换 Mailbox 的消费者，丢弃所有消息
type deadCell struct{}

func (deadCell) InvokeUserMessage(Envelope)        {}
func (deadCell) InvokeSystemMessage(SystemMessage) {}
