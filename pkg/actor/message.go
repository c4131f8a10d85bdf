package actor

// Envelope 投递到 Mailbox 的消息和发送者，入队后不再修改
type Envelope struct {
	Message interface{}
	Sender  IActorRef
}

// 自动处理的消息，不会进入用户的 OnMessage（Terminated 除外）
type (
	// PoisonPill 处理完之前的消息后停止
	PoisonPill struct{}
	// Kill 以 ActorKilledError 失败，交给父节点处理
	Kill struct{}
	// Identify 回复 ActorIdentity
	Identify struct {
		MessageID interface{}
	}
	// ActorIdentity Ref 为 nil 表示 actor 不存在
	ActorIdentity struct {
		MessageID interface{}
		Ref       IActorRef
	}
	// Terminated 被监视的 actor 已经终止
	Terminated struct {
		Actor              IActorRef
		ExistenceConfirmed bool
		AddressTerminated  bool
	}
)

// ReceiveTimeout 在 SetReceiveTimeout 设置的时长内没有收到消息
type ReceiveTimeout struct{}

// Failure 作为 Ask 的回复时，Future 以 Cause 结束
type Failure struct {
	Cause error
}

// NotInfluenceReceiveTimeout 实现该接口的消息不会重置 ReceiveTimeout
type NotInfluenceReceiveTimeout interface {
	NotInfluenceReceiveTimeout()
}

// NoSerializationVerificationNeeded 实现该接口的消息跳过序列化校验
type NoSerializationVerificationNeeded interface {
	NoSerializationVerificationNeeded()
}

func (*PoisonPill) NoSerializationVerificationNeeded()     {}
func (*Kill) NoSerializationVerificationNeeded()           {}
func (*Identify) NoSerializationVerificationNeeded()       {}
func (*ActorIdentity) NoSerializationVerificationNeeded()  {}
func (*Terminated) NoSerializationVerificationNeeded()     {}
func (*ReceiveTimeout) NoSerializationVerificationNeeded() {}
func (*Failure) NoSerializationVerificationNeeded()        {}

// 事件流上发布的事件
type (
	// DeadLetter 无法投递的消息
	DeadLetter struct {
		Message   interface{}
		Sender    IActorRef
		Recipient IActorRef
	}
	// UnhandledMessage OnMessage 返回了 ErrUnhandled
	UnhandledMessage struct {
		Message   interface{}
		Sender    IActorRef
		Recipient IActorRef
	}
	// DebugEvent 调试信息，受 Settings 中的 Debug 开关控制
	DebugEvent struct {
		Source  string
		Message string
	}
	// ErrorEvent 监督失败、序列化校验失败等
	ErrorEvent struct {
		Source  string
		Cause   error
		Message string
	}
)
