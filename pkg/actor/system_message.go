package actor

// SystemMessage 控制消息，只能由本包定义
type SystemMessage interface {
	systemMessage()
}

type (
	// Create 创建 actor 实例并调用 OnInit
	Create struct{}
	// Recreate 由监督者发出，重启 actor
	Recreate struct {
		Cause error
	}
	// Suspend 暂停用户消息处理，递归到所有子节点
	Suspend struct{}
	// Resume 恢复用户消息处理，Cause 非空表示是对自身失败的恢复
	Resume struct {
		Cause error
	}
	// Terminate 停止 actor
	Terminate struct{}
	// Supervise 子节点创建完成后通知父节点
	Supervise struct {
		Child IActorRef
		Async bool
	}
	Watch struct {
		Watchee IActorRef
		Watcher IActorRef
	}
	Unwatch struct {
		Watchee IActorRef
		Watcher IActorRef
	}
	// Failed 子节点处理消息失败
	Failed struct {
		Child IActorRef
		Cause error
		UID   int64
	}
	// DeathWatchNotification 被监视者或子节点已终止
	DeathWatchNotification struct {
		Actor              IActorRef
		ExistenceConfirmed bool
		AddressTerminated  bool
	}
	// CompleteFuture 在 actor 的处理轮次中执行 Action
	CompleteFuture struct {
		Action func()
	}
	NoMessage struct{}
)

func (*Create) systemMessage()                 {}
func (*Recreate) systemMessage()               {}
func (*Suspend) systemMessage()                {}
func (*Resume) systemMessage()                 {}
func (*Terminate) systemMessage()              {}
func (*Supervise) systemMessage()              {}
func (*Watch) systemMessage()                  {}
func (*Unwatch) systemMessage()                {}
func (*Failed) systemMessage()                 {}
func (*DeathWatchNotification) systemMessage() {}
func (*CompleteFuture) systemMessage()         {}
func (*NoMessage) systemMessage()              {}
