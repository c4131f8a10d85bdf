package actor

import (
	"go.uber.org/zap"

	"github.com/dzm2020/gactor/pkg/glog"
)

// Watch ref 终止后会收到一条 Terminated
func (c *actorCell) Watch(ref IActorRef) IActorRef {
	watchee, ok := ref.(IInternalActorRef)
	if !ok || sameActor(ref, c.self) {
		return ref
	}
	key := watchKey(ref)
	if _, ok = c.watching[key]; ok {
		return ref
	}
	c.watching[key] = ref
	watchee.SendSystemMessage(&Watch{Watchee: ref, Watcher: c.self})
	return ref
}

// Unwatch 尚未处理的 Terminated 也会被丢弃
func (c *actorCell) Unwatch(ref IActorRef) IActorRef {
	watchee, ok := ref.(IInternalActorRef)
	if !ok || sameActor(ref, c.self) {
		return ref
	}
	key := watchKey(ref)
	if _, ok = c.watching[key]; ok {
		delete(c.watching, key)
		watchee.SendSystemMessage(&Unwatch{Watchee: ref, Watcher: c.self})
	}
	delete(c.terminatedQueued, key)
	return ref
}

func (c *actorCell) watchingRefs() []IActorRef {
	refs := make([]IActorRef, 0, len(c.watching))
	for _, ref := range c.watching {
		refs = append(refs, ref)
	}
	return refs
}

func (c *actorCell) unwatchAll() {
	for _, ref := range c.watchingRefs() {
		c.Unwatch(ref)
	}
}

// addWatcher 处理 Watch 系统消息，既可能是别人监视自己，也可能是要求自己去监视别人
func (c *actorCell) addWatcher(watchee, watcher IActorRef) {
	watcheeSelf := sameActor(watchee, c.self)
	watcherSelf := sameActor(watcher, c.self)
	switch {
	case watcheeSelf && !watcherSelf:
		if c.watchedBy.Add(watcher) {
			c.debugLifecycle("now watched by " + watcher.String())
		}
	case !watcheeSelf && watcherSelf:
		c.Watch(watchee)
	default:
		glog.Error("illegal Watch", zap.Stringer("actor", c.self), zap.Stringer("watchee", watchee), zap.Stringer("watcher", watcher))
	}
}

func (c *actorCell) remWatcher(watchee, watcher IActorRef) {
	watcheeSelf := sameActor(watchee, c.self)
	watcherSelf := sameActor(watcher, c.self)
	switch {
	case watcheeSelf && !watcherSelf:
		if c.watchedBy.Remove(watcher) {
			c.debugLifecycle("no longer watched by " + watcher.String())
		}
	case !watcheeSelf && watcherSelf:
		c.Unwatch(watchee)
	default:
		glog.Error("illegal Unwatch", zap.Stringer("actor", c.self), zap.Stringer("watchee", watchee), zap.Stringer("watcher", watcher))
	}
}

// watchedActorTerminated 转成 Terminated 投递到自己的邮箱，子节点的终止在这里清理
func (c *actorCell) watchedActorTerminated(actor IActorRef, existenceConfirmed, addressTerminated bool) error {
	key := watchKey(actor)
	if _, ok := c.watching[key]; ok {
		delete(c.watching, key)
		if !c.isTerminating.Load() {
			c.terminatedQueued[key] = actor
			c.self.Tell(&Terminated{
				Actor:              actor,
				ExistenceConfirmed: existenceConfirmed,
				AddressTerminated:  addressTerminated,
			}, actor)
		}
	}
	return c.handleChildTerminated(actor)
}

// watchKey 按路径区分，uid 未知的 ref 也能匹配到终止通知
func watchKey(ref IActorRef) string {
	if ref == nil {
		return ""
	}
	if p := ref.Path(); p != nil {
		return p.key
	}
	return ref.String()
}
