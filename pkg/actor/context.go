package actor

import "time"

// IContext actor 处理消息时的上下文，只能在 actor 自己的处理协程中使用
type IContext interface {
	Self() IActorRef
	Parent() IActorRef
	// Sender 当前消息的发送者，没有时返回 NoSender
	Sender() IActorRef
	// Message 当前正在处理的消息
	Message() interface{}
	System() *System
	Props() *Props
	Actor() IActor

	// Children 按名字排序
	Children() []IActorRef
	Child(name string) (IActorRef, bool)
	// ActorOf name 为空时自动生成
	ActorOf(props *Props, name string) (IActorRef, error)
	Stop(ref IActorRef)

	// Watch 被监视的 actor 终止后收到 Terminated，重复调用无副作用
	Watch(ref IActorRef) IActorRef
	Unwatch(ref IActorRef) IActorRef

	// Become discardOld 为 true 时替换栈顶，否则压栈
	Become(receive ReceiveFunc, discardOld bool)
	// Unbecome 只剩最初的处理函数时不做任何事
	Unbecome()

	// Send 以自己为发送者投递
	Send(to IActorRef, msg interface{})
	Reply(msg interface{})
	// Forward 保留原发送者转发当前消息
	Forward(to IActorRef)
	Ask(to IActorRef, msg interface{}, timeout time.Duration) *Future
	// Unhandled 发布 UnhandledMessage，效果等同于 OnMessage 返回 ErrUnhandled
	Unhandled(msg interface{})
	// ReenterAfter future 完成后在 actor 自己的处理协程中执行 fn
	ReenterAfter(f *Future, fn func(result interface{}, err error))

	// SetReceiveTimeout d <= 0 关闭
	SetReceiveTimeout(d time.Duration)
	ReceiveTimeout() time.Duration

	ActorSelection(path string) *ActorSelection
}
