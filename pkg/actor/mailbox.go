package actor

import (
	"sync"
	"sync/atomic"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dzm2020/gactor/pkg/glog"
	"github.com/dzm2020/gactor/pkg/lib/mpsc"
)

const (
	idle int32 = iota
	running
)

const (
	MailboxUnbounded = "unbounded"
	MailboxBounded   = "bounded"

	DefaultMailboxId = "default-mailbox"
)

// IMessageInvoker Mailbox 的消费者，同一时刻只会被一个协程调用
type IMessageInvoker interface {
	InvokeUserMessage(env Envelope)
	InvokeSystemMessage(msg SystemMessage)
}

type IMailbox interface {
	Setup(dispatcher IDispatcher, invoker IMessageInvoker)
	Post(env Envelope) error
	PostSystem(msg SystemMessage) error
	Suspend()
	Resume()
	IsSuspended() bool
	Stop()
	IsClosed() bool
	NumberOfMessages() int
}

var _ IMailbox = (*Mailbox)(nil)

// MailboxConfig 邮箱配置
type MailboxConfig struct {
	// Type unbounded / bounded
	Type     string `json:"type" yaml:"type"`
	Capacity int    `json:"capacity" yaml:"capacity"`
}

type userQueue interface {
	Push(env Envelope) bool
	Pop() (Envelope, bool)
	Len() int
}

type unboundedQueue struct {
	q *mpsc.Queue[Envelope]
}

func (u *unboundedQueue) Push(env Envelope) bool {
	u.q.Push(env)
	return true
}

func (u *unboundedQueue) Pop() (Envelope, bool) { return u.q.Pop() }
func (u *unboundedQueue) Len() int              { return u.q.Len() }

// 有界队列，满了之后 Push 返回 false
type boundedQueue struct {
	rb *queue.RingBuffer
}

func (b *boundedQueue) Push(env Envelope) bool {
	ok, err := b.rb.Offer(env)
	return ok && err == nil
}

func (b *boundedQueue) Pop() (Envelope, bool) {
	if b.rb.Len() == 0 {
		return Envelope{}, false
	}
	v, err := b.rb.Get()
	if err != nil {
		return Envelope{}, false
	}
	return v.(Envelope), true
}

func (b *boundedQueue) Len() int { return int(b.rb.Len()) }

// Mailbox 系统消息队列优先于用户消息队列
type Mailbox struct {
	invoker      IMessageInvoker
	dispatcher   IDispatcher
	userQueue    userQueue
	systemQueue  *mpsc.Queue[SystemMessage]
	dispatchStat atomic.Int32
	suspendCount atomic.Int32
	closed       atomic.Bool
	// closeMu 保证 Stop 返回后不会再有系统消息入队
	closeMu sync.RWMutex
}

func NewUnboundedMailbox() *Mailbox {
	return newMailbox(&unboundedQueue{q: mpsc.New[Envelope]()})
}

// NewBoundedMailbox capacity 会被向上取整为 2 的幂
func NewBoundedMailbox(capacity int) *Mailbox {
	if capacity <= 0 {
		capacity = 1024
	}
	return newMailbox(&boundedQueue{rb: queue.NewRingBuffer(uint64(capacity))})
}

func newMailbox(q userQueue) *Mailbox {
	return &Mailbox{
		userQueue:   q,
		systemQueue: mpsc.New[SystemMessage](),
	}
}

func newMailboxFromConfig(id string, mailboxes map[string]MailboxConfig) (*Mailbox, error) {
	if id == "" || id == DefaultMailboxId {
		if cfg, ok := mailboxes[DefaultMailboxId]; ok {
			return mailboxFromConfig(cfg)
		}
		return NewUnboundedMailbox(), nil
	}
	cfg, ok := mailboxes[id]
	if !ok {
		return nil, errors.Wrap(ErrUnknownMailbox, id)
	}
	return mailboxFromConfig(cfg)
}

func mailboxFromConfig(cfg MailboxConfig) (*Mailbox, error) {
	switch cfg.Type {
	case "", MailboxUnbounded:
		return NewUnboundedMailbox(), nil
	case MailboxBounded:
		return NewBoundedMailbox(cfg.Capacity), nil
	default:
		return nil, errors.Wrapf(ErrUnknownMailbox, "type %q", cfg.Type)
	}
}

// Setup 绑定调度器和消费者，必须在第一次投递之前调用
func (mb *Mailbox) Setup(dispatcher IDispatcher, invoker IMessageInvoker) {
	mb.dispatcher = dispatcher
	mb.invoker = invoker
}

// setInvoker 只能在消费协程中调用
func (mb *Mailbox) setInvoker(invoker IMessageInvoker) {
	mb.invoker = invoker
}

// Post 投递用户消息，关闭后的投递被静默丢弃
func (mb *Mailbox) Post(env Envelope) error {
	if mb.closed.Load() {
		return nil
	}
	if !mb.userQueue.Push(env) {
		return ErrMailboxFull
	}
	return mb.schedule()
}

// PostSystem 关闭后返回 ErrMailboxStop，由调用方转交死信
func (mb *Mailbox) PostSystem(msg SystemMessage) error {
	mb.closeMu.RLock()
	if mb.closed.Load() {
		mb.closeMu.RUnlock()
		return ErrMailboxStop
	}
	mb.systemQueue.Push(msg)
	mb.closeMu.RUnlock()
	return mb.schedule()
}

// Suspend 暂停用户消息，可嵌套
func (mb *Mailbox) Suspend() {
	mb.suspendCount.Add(1)
}

// Resume 与 Suspend 配对，计数不会小于 0
func (mb *Mailbox) Resume() {
	for {
		n := mb.suspendCount.Load()
		if n <= 0 {
			return
		}
		if mb.suspendCount.CompareAndSwap(n, n-1) {
			if n == 1 {
				_ = mb.schedule()
			}
			return
		}
	}
}

func (mb *Mailbox) IsSuspended() bool {
	return mb.suspendCount.Load() > 0
}

// Stop 之后的投递都会被丢弃，系统消息在 Stop 之前入队的由 drain 取出
func (mb *Mailbox) Stop() {
	mb.closeMu.Lock()
	mb.closed.Store(true)
	mb.closeMu.Unlock()
}

func (mb *Mailbox) IsClosed() bool {
	return mb.closed.Load()
}

func (mb *Mailbox) NumberOfMessages() int {
	return mb.userQueue.Len()
}

// drain 取出剩余消息，只能在消费协程中调用
func (mb *Mailbox) drain(user func(Envelope), system func(SystemMessage)) {
	for {
		msg, ok := mb.systemQueue.Pop()
		if !ok {
			break
		}
		system(msg)
	}
	for {
		env, ok := mb.userQueue.Pop()
		if !ok {
			break
		}
		user(env)
	}
}

func (mb *Mailbox) hasPending() bool {
	if mb.closed.Load() {
		return false
	}
	if !mb.systemQueue.Empty() {
		return true
	}
	return mb.suspendCount.Load() == 0 && mb.userQueue.Len() > 0
}

// schedule 使用 CAS 保证同一时间只有一个协程在处理
func (mb *Mailbox) schedule() error {
	if !mb.dispatchStat.CompareAndSwap(idle, running) {
		return nil
	}
	if err := mb.dispatcher.Schedule(mb.process, func(err interface{}) {
		glog.Error("mailbox process panic", zap.Any("err", err), zap.Stack("stack"))
	}); err != nil {
		mb.dispatchStat.Store(idle)
		glog.Error("mailbox schedule failed", zap.Error(err))
		return err
	}
	return nil
}

// process 处理结束后再检查一次队列，避免丢失处理期间到达的消息
func (mb *Mailbox) process() {
	defer func() {
		mb.dispatchStat.Store(idle)
		if mb.hasPending() {
			_ = mb.schedule()
		}
	}()
	mb.run()
}

func (mb *Mailbox) run() {
	throughput := mb.dispatcher.Throughput()
	processed := 0
	for !mb.closed.Load() {
		if msg, ok := mb.systemQueue.Pop(); ok {
			mb.invoker.InvokeSystemMessage(msg)
			continue
		}
		if mb.suspendCount.Load() > 0 {
			return
		}
		env, ok := mb.userQueue.Pop()
		if !ok {
			return
		}
		mb.invoker.InvokeUserMessage(env)
		processed++
		if throughput > 0 && processed >= throughput {
			return
		}
	}
}
