package actor

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/dzm2020/gactor/pkg/glog"
)

const base64chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789+~"

// randomName 低 6 位在前，如 0 -> $a，64 -> $ab
func randomName(n int64) string {
	var sb strings.Builder
	sb.WriteByte('$')
	u := uint64(n)
	for {
		sb.WriteByte(base64chars[u&63])
		u >>= 6
		if u == 0 {
			break
		}
	}
	return sb.String()
}

func (c *actorCell) nextName() string {
	return randomName(c.nameSeq.Add(1) - 1)
}

// ActorOf 创建子节点，可以在任意协程中调用
func (c *actorCell) ActorOf(props *Props, name string) (IActorRef, error) {
	ref, err := c.actorOf(props, name)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (c *actorCell) actorOf(props *Props, name string) (*LocalActorRef, error) {
	if err := props.validate(); err != nil {
		return nil, err
	}
	if name == "" {
		name = c.nextName()
	} else if err := ValidateName(name); err != nil {
		return nil, err
	}
	if c.isTerminating.Load() {
		return nil, ErrParentTerminating
	}

	ref := &LocalActorRef{
		path:   c.self.path.Child(name),
		uid:    c.system.nextUID(),
		system: c.system,
	}
	if _, loaded := c.children.GetOrSet(name, ref); loaded {
		return nil, errors.Wrap(ErrNameTaken, name)
	}
	if err := c.system.newCell(props, ref, c.self); err != nil {
		c.children.Delete(name)
		return nil, err
	}
	c.self.SendSystemMessage(&Supervise{Child: ref, Async: false})

	// 与 terminate 并发时由这里补发停止
	if c.isTerminating.Load() {
		ref.Stop()
	}
	return ref, nil
}

func (c *actorCell) Children() []IActorRef {
	refs := make([]IActorRef, 0, 4)
	c.children.Range(func(_ string, ref *LocalActorRef) bool {
		refs = append(refs, ref)
		return true
	})
	slices.SortFunc(refs, func(a, b IActorRef) int {
		return strings.Compare(a.Path().Name(), b.Path().Name())
	})
	return refs
}

func (c *actorCell) Child(name string) (IActorRef, bool) {
	ref, ok := c.children.Get(name)
	if !ok {
		return nil, false
	}
	return ref, true
}

func (c *actorCell) childCount() int {
	n := 0
	c.children.Range(func(string, *LocalActorRef) bool {
		n++
		return true
	})
	return n
}

// childByRef 名字和 uid 都相同才是自己的子节点
func (c *actorCell) childByRef(ref IActorRef) (*LocalActorRef, bool) {
	if ref == nil || ref.Path() == nil {
		return nil, false
	}
	p := ref.Path()
	parent := p.Parent()
	if parent == nil || !parent.Equal(c.self.path) {
		return nil, false
	}
	child, ok := c.children.Get(p.Name())
	if !ok || !sameActor(child, ref) {
		return nil, false
	}
	return child, true
}

// Stop 停止子节点时先标记，其余 actor 直接发送 Terminate
func (c *actorCell) Stop(ref IActorRef) {
	if ref == nil {
		return
	}
	if child, ok := c.childByRef(ref); ok {
		c.stopping[child.path.Name()] = child
	}
	ref.Stop()
}

func (c *actorCell) isStopping(child *LocalActorRef) bool {
	s, ok := c.stopping[child.path.Name()]
	return ok && s == child
}

func (c *actorCell) stopChildren() {
	c.children.Range(func(name string, child *LocalActorRef) bool {
		c.stopping[name] = child
		child.Stop()
		return true
	})
}

func (c *actorCell) suspendChildren(except string) {
	c.children.Range(func(_ string, child *LocalActorRef) bool {
		if refKey(child) != except {
			child.Suspend()
		}
		return true
	})
}

func (c *actorCell) resumeChildren(cause error, perpetrator string) {
	c.children.Range(func(_ string, child *LocalActorRef) bool {
		if refKey(child) == perpetrator {
			child.Resume(cause)
		} else {
			child.Resume(nil)
		}
		return true
	})
}

// handleChildTerminated 移除子节点，推进等待中的终止或重启
func (c *actorCell) handleChildTerminated(ref IActorRef) error {
	child, ok := c.childByRef(ref)
	if !ok {
		return nil
	}
	name := child.path.Name()
	c.children.Delete(name)
	delete(c.stopping, name)
	if c.strategy != nil {
		bestEffort("handle child terminated", func() error {
			c.strategy.HandleChildTerminated(c, child)
			return nil
		})
	}
	if c.system.settings.DebugLifecycle {
		glog.Debug("child terminated", zap.Stringer("parent", c.self), zap.Stringer("child", child))
	}
	switch {
	case c.isTerminating.Load():
		if c.childCount() == 0 {
			c.finishTerminate()
		}
	case c.recreating:
		if len(c.stopping) == 0 {
			return c.finishRecreate(c.recreateCause)
		}
	}
	return nil
}
