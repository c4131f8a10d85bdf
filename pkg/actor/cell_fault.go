package actor

import (
	"go.uber.org/zap"

	"github.com/dzm2020/gactor/pkg/glog"
)

// handleInvokeFailure 暂停自己和子节点，把失败交给父节点
func (c *actorCell) handleInvokeFailure(cause error) {
	if c.isTerminating.Load() {
		glog.Warn("failure while terminating", zap.Stringer("actor", c.self), zap.Error(cause))
		return
	}
	if c.failed {
		glog.Warn("failure while already failed", zap.Stringer("actor", c.self), zap.Error(cause))
		return
	}
	c.failed = true
	c.failedMessage = c.message
	c.cancelReceiveTimeout()
	c.mailbox.Suspend()
	c.suspendChildren(c.perpetrator)
	c.parent.SendSystemMessage(&Failed{Child: c.self, Cause: cause, UID: c.uid})
}

// handleFailed 返回非 nil 表示升级，自己以同样的原因失败
func (c *actorCell) handleFailed(f *Failed) error {
	child, ok := c.childByRef(f.Child)
	if !ok {
		glog.Debug("dropping Failed from unknown child", zap.Stringer("actor", c.self), zap.Stringer("child", f.Child))
		return nil
	}
	if child.uid != f.UID || c.isStopping(child) {
		return nil
	}
	if c.strategy.HandleFailure(c, child, f.Cause) {
		return nil
	}
	c.perpetrator = refKey(child)
	return f.Cause
}

func (c *actorCell) faultSuspend() {
	c.mailbox.Suspend()
	c.suspendChildren("")
}

// faultResume cause 不为 nil 表示是监督者对失败的处理结果
func (c *actorCell) faultResume(cause error) error {
	if c.isTerminating.Load() {
		return nil
	}
	if c.actor == nil && cause != nil {
		// 创建失败后被恢复，只能重新创建
		return c.faultRecreate(cause)
	}
	perpetrator := c.perpetrator
	if cause != nil {
		c.clearFailed()
	}
	c.mailbox.Resume()
	c.resumeChildren(cause, perpetrator)
	return nil
}

func (c *actorCell) clearFailed() {
	c.failed = false
	c.failedMessage = nil
	c.perpetrator = ""
}

// faultRecreate 先处理旧实例，等待被停止的子节点结束后再创建新实例
func (c *actorCell) faultRecreate(cause error) error {
	if c.isTerminating.Load() {
		return nil
	}
	if c.actor == nil {
		c.clearFailed()
		c.mailbox.Resume()
		return c.create()
	}
	failedMessage := c.failedMessage
	c.cancelReceiveTimeout()
	if err := c.aroundPreRestart(cause, failedMessage); err != nil {
		e := &PreRestartError{Actor: c.self, Original: cause, Cause: err, Message: failedMessage}
		glog.Error("pre restart failed", zap.Stringer("actor", c.self), zap.Error(e))
		c.system.eventStream.Publish(&ErrorEvent{Source: c.self.String(), Cause: e, Message: "pre restart failed"})
	}
	c.actor = nil
	if len(c.stopping) > 0 {
		c.recreating = true
		c.recreateCause = cause
		return nil
	}
	return c.finishRecreate(cause)
}

func (c *actorCell) aroundPreRestart(cause error, msg interface{}) error {
	a := c.actor
	return tryInvoke(func() error {
		if r, ok := a.(IPreRestarter); ok {
			return r.OnPreRestart(c, cause, msg)
		}
		for _, ref := range c.watchingRefs() {
			if _, ok := c.childByRef(ref); ok {
				c.Unwatch(ref)
			}
		}
		c.stopChildren()
		return a.OnStop(c)
	})
}

// finishRecreate 在原路径上创建新实例，未被停止的子节点一并重启
func (c *actorCell) finishRecreate(cause error) error {
	c.recreating = false
	c.recreateCause = nil
	c.clearFailed()
	c.mailbox.Resume()
	c.behaviors.clear()

	a, err := c.newActor()
	if err != nil {
		return &ActorInitializationError{Actor: c.self, Cause: err}
	}
	c.setActor(a)
	if err = tryInvoke(func() error { return c.aroundPostRestart(a, cause) }); err != nil {
		return &ActorInitializationError{Actor: c.self, Cause: err}
	}
	c.children.Range(func(_ string, child *LocalActorRef) bool {
		if !c.isStopping(child) {
			child.Restart(cause)
		}
		return true
	})
	c.debugLifecycle("restarted")
	c.scheduleReceiveTimeout()
	return nil
}

func (c *actorCell) aroundPostRestart(a IActor, cause error) error {
	if r, ok := a.(IPostRestarter); ok {
		return r.OnPostRestart(c, cause)
	}
	return a.OnInit(c, c.props.args)
}

// terminate 先停止所有子节点，全部结束后 finishTerminate
func (c *actorCell) terminate() {
	if !c.isTerminating.CompareAndSwap(false, true) {
		return
	}
	c.recreating = false
	c.recreateCause = nil
	c.cancelReceiveTimeout()
	c.mailbox.Suspend()
	c.unwatchAll()
	c.stopChildren()
	if c.childCount() == 0 {
		c.finishTerminate()
	}
}

func (c *actorCell) finishTerminate() {
	if !c.terminated.CompareAndSwap(false, true) {
		return
	}
	c.system.registry.remove(c)

	c.tellWatchersWeDied()
	if a := c.actor; a != nil {
		bestEffort("post stop", func() error {
			return a.OnStop(c)
		})
	}
	c.parent.SendSystemMessage(&DeathWatchNotification{Actor: c.self, ExistenceConfirmed: true})

	c.actor = nil
	c.behaviors.clear()
	c.mailbox.Stop()
	c.mailbox.setInvoker(deadCell{})
	c.mailbox.drain(func(env Envelope) {
		if _, ok := env.Message.(*Terminated); ok {
			return
		}
		c.system.deadLetters.Tell(&DeadLetter{Message: env.Message, Sender: orNoSender(env.Sender), Recipient: c.self}, env.Sender)
	}, func(msg SystemMessage) {
		c.system.deadLetters.handleSystem(c.self, msg)
	})
	c.debugLifecycle("stopped")
}

func (c *actorCell) tellWatchersWeDied() {
	for _, w := range c.watchedBy.Members() {
		if refEquals(w, c.parent) {
			continue
		}
		watcher := w
		bestEffort("notify watcher", func() error {
			if r, ok := watcher.(IInternalActorRef); ok {
				r.SendSystemMessage(&DeathWatchNotification{Actor: c.self, ExistenceConfirmed: true})
			}
			return nil
		})
	}
}
