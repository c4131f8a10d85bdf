package actor

import (
	"strconv"

	"github.com/duke-git/lancet/v2/maputil"
)

// IActorRef 向 actor 发送消息的句柄
type IActorRef interface {
	Path() *ActorPath
	// Tell 异步投递，sender 为 nil 时视为 NoSender
	Tell(msg interface{}, sender IActorRef)
	// Stop 异步停止，重复调用无副作用
	Stop()
	String() string
}

// IInternalActorRef 运行时内部使用的能力
type IInternalActorRef interface {
	IActorRef
	SendSystemMessage(msg SystemMessage)
	Resume(cause error)
	Suspend()
	Restart(cause error)
	IsLocal() bool
}

// Tell 不带发送者投递消息
func Tell(ref IActorRef, msg interface{}) {
	if ref != nil {
		ref.Tell(msg, NoSender)
	}
}

// NoSender 所有操作都是空操作
var NoSender IActorRef = noSender{}

type noSender struct{}

func (noSender) Path() *ActorPath                { return nil }
func (noSender) Tell(interface{}, IActorRef)     {}
func (noSender) Stop()                           {}
func (noSender) String() string                  { return "NoSender" }
func (noSender) SendSystemMessage(SystemMessage) {}
func (noSender) Resume(error)                    {}
func (noSender) Suspend()                        {}
func (noSender) Restart(error)                   {}
func (noSender) IsLocal() bool                   { return true }

func orNoSender(ref IActorRef) IActorRef {
	if ref == nil {
		return NoSender
	}
	return ref
}

// refKey 同一路径不同化身的 actor 有不同的 key
func refKey(ref IActorRef) string {
	switch r := ref.(type) {
	case nil:
		return ""
	case *LocalActorRef:
		return r.path.key + "#" + strconv.FormatInt(r.uid, 10)
	}
	if p := ref.Path(); p != nil {
		return p.key
	}
	return ref.String()
}

func refEquals(a, b IActorRef) bool {
	return refKey(a) == refKey(b)
}

// sameActor uid 为 0 的 ref 只比较路径
func sameActor(a, b IActorRef) bool {
	la, ok1 := a.(*LocalActorRef)
	lb, ok2 := b.(*LocalActorRef)
	if ok1 && ok2 && la.uid != 0 && lb.uid != 0 {
		return la.uid == lb.uid && la.path.key == lb.path.key
	}
	if a == nil || b == nil {
		return a == b
	}
	pa, pb := a.Path(), b.Path()
	if pa == nil || pb == nil {
		return refEquals(a, b)
	}
	return pa.key == pb.key
}

var _ IInternalActorRef = (*LocalActorRef)(nil)

// LocalActorRef 通过系统注册表查找 cell，不直接持有 cell
type LocalActorRef struct {
	path   *ActorPath
	uid    int64
	system *System
}

func (r *LocalActorRef) Path() *ActorPath {
	return r.path
}

// UID 区分同一路径上先后创建的 actor，0 表示匹配任意化身
func (r *LocalActorRef) UID() int64 {
	return r.uid
}

func (r *LocalActorRef) String() string {
	return r.path.String()
}

func (r *LocalActorRef) IsLocal() bool {
	return true
}

func (r *LocalActorRef) cell() *actorCell {
	c, ok := r.system.registry.get(r.path.key)
	if !ok {
		return nil
	}
	if r.uid != 0 && c.uid != r.uid {
		return nil
	}
	return c
}

// Tell actor 不存在时转交死信
func (r *LocalActorRef) Tell(msg interface{}, sender IActorRef) {
	if msg == nil {
		return
	}
	sender = orNoSender(sender)
	c := r.cell()
	if c == nil {
		r.system.deadLetters.Tell(&DeadLetter{Message: msg, Sender: sender, Recipient: r}, sender)
		return
	}
	c.sendMessage(Envelope{Message: msg, Sender: sender})
}

func (r *LocalActorRef) SendSystemMessage(msg SystemMessage) {
	c := r.cell()
	if c == nil {
		r.system.deadLetters.handleSystem(r, msg)
		return
	}
	c.sendSystemMessage(msg)
}

func (r *LocalActorRef) Stop() {
	r.SendSystemMessage(&Terminate{})
}

func (r *LocalActorRef) Resume(cause error) {
	r.SendSystemMessage(&Resume{Cause: cause})
}

func (r *LocalActorRef) Suspend() {
	r.SendSystemMessage(&Suspend{})
}

func (r *LocalActorRef) Restart(cause error) {
	r.SendSystemMessage(&Recreate{Cause: cause})
}

var _ IInternalActorRef = (*DeadLetterActorRef)(nil)

// DeadLetterActorRef 无法投递的消息都发布到事件流
type DeadLetterActorRef struct {
	path   *ActorPath
	system *System
}

func (r *DeadLetterActorRef) Path() *ActorPath { return r.path }
func (r *DeadLetterActorRef) String() string   { return r.path.String() }
func (r *DeadLetterActorRef) IsLocal() bool    { return true }
func (r *DeadLetterActorRef) Stop()            {}
func (r *DeadLetterActorRef) Resume(error)     {}
func (r *DeadLetterActorRef) Suspend()         {}
func (r *DeadLetterActorRef) Restart(error)    {}

func (r *DeadLetterActorRef) Tell(msg interface{}, sender IActorRef) {
	if msg == nil {
		return
	}
	if dl, ok := msg.(*DeadLetter); ok {
		r.system.eventStream.Publish(dl)
		return
	}
	r.system.eventStream.Publish(&DeadLetter{Message: msg, Sender: orNoSender(sender), Recipient: r})
}

func (r *DeadLetterActorRef) SendSystemMessage(msg SystemMessage) {
	r.handleSystem(r, msg)
}

// handleSystem 发给已终止 actor 的系统消息：Watch 立即回复终止通知
func (r *DeadLetterActorRef) handleSystem(recipient IActorRef, msg SystemMessage) {
	switch m := msg.(type) {
	case *Watch:
		if w, ok := m.Watcher.(IInternalActorRef); ok && !refEquals(m.Watcher, recipient) {
			w.SendSystemMessage(&DeathWatchNotification{Actor: m.Watchee, ExistenceConfirmed: false})
		}
	case *Unwatch, *Terminate, *Suspend, *Resume, *Recreate, *NoMessage, *Supervise:
	case *DeathWatchNotification:
	default:
		r.system.eventStream.Publish(&DeadLetter{Message: msg, Sender: NoSender, Recipient: recipient})
	}
}

var _ IInternalActorRef = (*BroadcastActorRef)(nil)

// BroadcastActorRef 并发安全的 ref 集合，消息发给所有成员
type BroadcastActorRef struct {
	members *maputil.ConcurrentMap[string, IActorRef]
}

func NewBroadcastActorRef() *BroadcastActorRef {
	return &BroadcastActorRef{members: maputil.NewConcurrentMap[string, IActorRef](4)}
}

// Add 已存在时返回 false
func (b *BroadcastActorRef) Add(ref IActorRef) bool {
	_, loaded := b.members.GetOrSet(refKey(ref), ref)
	return !loaded
}

// Remove 不存在时返回 false
func (b *BroadcastActorRef) Remove(ref IActorRef) bool {
	_, ok := b.members.GetAndDelete(refKey(ref))
	return ok
}

func (b *BroadcastActorRef) Contains(ref IActorRef) bool {
	return b.members.Has(refKey(ref))
}

func (b *BroadcastActorRef) Members() []IActorRef {
	var refs []IActorRef
	b.members.Range(func(_ string, ref IActorRef) bool {
		refs = append(refs, ref)
		return true
	})
	return refs
}

func (b *BroadcastActorRef) Len() int {
	n := 0
	b.members.Range(func(string, IActorRef) bool {
		n++
		return true
	})
	return n
}

func (b *BroadcastActorRef) Path() *ActorPath { return nil }
func (b *BroadcastActorRef) IsLocal() bool    { return true }

func (b *BroadcastActorRef) String() string {
	return "Broadcast(" + strconv.Itoa(b.Len()) + ")"
}

func (b *BroadcastActorRef) Tell(msg interface{}, sender IActorRef) {
	b.members.Range(func(_ string, ref IActorRef) bool {
		ref.Tell(msg, sender)
		return true
	})
}

func (b *BroadcastActorRef) SendSystemMessage(msg SystemMessage) {
	b.members.Range(func(_ string, ref IActorRef) bool {
		if r, ok := ref.(IInternalActorRef); ok {
			r.SendSystemMessage(msg)
		}
		return true
	})
}

func (b *BroadcastActorRef) Stop() {
	b.members.Range(func(_ string, ref IActorRef) bool {
		ref.Stop()
		return true
	})
}

func (b *BroadcastActorRef) Resume(cause error) {}
func (b *BroadcastActorRef) Suspend()           {}
func (b *BroadcastActorRef) Restart(error)      {}
