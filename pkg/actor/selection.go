package actor

import (
	"path"
	"strings"
	"time"
)

// SelectionElement ActorSelection 路径中的一段
type SelectionElement interface {
	String() string
}

type (
	// SelectParent ".."
	SelectParent struct{}
	// SelectChildName 按名字精确匹配
	SelectChildName struct {
		Name string
	}
	// SelectChildPattern 通配符匹配，支持 * 和 ?
	SelectChildPattern struct {
		Pattern string
	}
)

func (SelectParent) String() string         { return ".." }
func (s SelectChildName) String() string    { return s.Name }
func (s SelectChildPattern) String() string { return s.Pattern }

func (s SelectChildPattern) match(name string) bool {
	ok, err := path.Match(s.Pattern, name)
	return err == nil && ok
}

// ActorSelectionMessage 携带尚未解析的路径段，由下一个能解析的 actor 继续投递
type ActorSelectionMessage struct {
	Message        interface{}
	Elements       []SelectionElement
	WildcardFanOut bool
}

func (*ActorSelectionMessage) NoSerializationVerificationNeeded() {}

// ActorSelection 以 anchor 为起点的逻辑路径，每次投递时重新解析
type ActorSelection struct {
	system   *System
	anchor   IActorRef
	elements []SelectionElement
}

// parseSelection 空段和 "." 被忽略
func parseSelection(p string) []SelectionElement {
	var elements []SelectionElement
	for _, seg := range strings.Split(p, "/") {
		switch {
		case seg == "" || seg == ".":
		case seg == "..":
			elements = append(elements, SelectParent{})
		case strings.ContainsAny(seg, "*?["):
			elements = append(elements, SelectChildPattern{Pattern: seg})
		default:
			elements = append(elements, SelectChildName{Name: seg})
		}
	}
	return elements
}

// newActorSelectionFrom 绝对路径从根节点开始，相对路径从 anchor 开始
func newActorSelectionFrom(system *System, anchor IActorRef, p string) *ActorSelection {
	if i := strings.Index(p, "://"); i >= 0 {
		p = p[i+3:]
		if slash := strings.IndexByte(p, '/'); slash >= 0 {
			p = p[slash:]
		} else {
			p = "/"
		}
	}
	if strings.HasPrefix(p, "/") {
		anchor = system.root.self
	}
	return &ActorSelection{system: system, anchor: anchor, elements: parseSelection(p)}
}

func (s *ActorSelection) Anchor() IActorRef {
	return s.anchor
}

func (s *ActorSelection) Elements() []SelectionElement {
	return append([]SelectionElement(nil), s.elements...)
}

func (s *ActorSelection) String() string {
	var sb strings.Builder
	sb.WriteString("ActorSelection[")
	if p := s.anchor.Path(); p != nil {
		sb.WriteString(strings.TrimSuffix(p.String(), "/"))
	}
	for _, e := range s.elements {
		sb.WriteString("/")
		sb.WriteString(e.String())
	}
	sb.WriteString("]")
	return sb.String()
}

// Tell 投递给所有匹配的 actor，精确路径不存在时转交死信
func (s *ActorSelection) Tell(msg interface{}, sender IActorRef) {
	if msg == nil {
		return
	}
	deliverSelection(s.system, s.anchor, &ActorSelectionMessage{Message: msg, Elements: s.elements}, orNoSender(sender))
}

// ResolveOne 用 Identify 解析出一个 actor，Future 的结果是 IActorRef
func (s *ActorSelection) ResolveOne(timeout time.Duration) *Future {
	ref := s.system.newFutureRef(timeout)
	ref.onReply = func(msg interface{}) (interface{}, bool, error) {
		identity, ok := msg.(*ActorIdentity)
		if !ok {
			return nil, false, nil
		}
		if identity.Ref == nil {
			return nil, true, ErrActorNotFound
		}
		return identity.Ref, true, nil
	}
	s.Tell(&Identify{}, ref)
	return ref.future
}

// deliverSelection 本地 actor 直接沿 cell 解析，其它 ref 转发剩余的路径段
func deliverSelection(system *System, anchor IActorRef, sel *ActorSelectionMessage, sender IActorRef) {
	var walk func(ref IActorRef, elements []SelectionElement, wildcard bool)
	walk = func(ref IActorRef, elements []SelectionElement, wildcard bool) {
		if len(elements) == 0 {
			ref.Tell(sel.Message, sender)
			return
		}
		c := system.cellOf(ref)
		if c == nil {
			if lr, ok := ref.(*LocalActorRef); ok && lr.cell() == nil {
				selectionMiss(system, ref, sel, sender, wildcard)
				return
			}
			ref.Tell(&ActorSelectionMessage{Message: sel.Message, Elements: elements, WildcardFanOut: wildcard}, sender)
			return
		}
		switch e := elements[0].(type) {
		case SelectParent:
			if parent, ok := c.parent.(*LocalActorRef); ok {
				walk(parent, elements[1:], wildcard)
				return
			}
			walk(c.self, elements[1:], wildcard)
		case SelectChildName:
			if child, ok := c.children.Get(e.Name); ok {
				walk(child, elements[1:], wildcard)
				return
			}
			if c == system.root && e.Name == system.deadLetters.path.Name() && len(elements) == 1 {
				system.deadLetters.Tell(sel.Message, sender)
				return
			}
			selectionMiss(system, ref, sel, sender, wildcard)
		case SelectChildPattern:
			matched := 0
			for _, child := range c.Children() {
				if e.match(child.Path().Name()) {
					matched++
					walk(child, elements[1:], true)
				}
			}
			if matched == 0 {
				selectionMiss(system, ref, sel, sender, wildcard)
			}
		}
	}
	walk(anchor, sel.Elements, sel.WildcardFanOut)
}

// selectionMiss Identify 回复空的 ActorIdentity，通配符展开中的未命中直接忽略
func selectionMiss(system *System, at IActorRef, sel *ActorSelectionMessage, sender IActorRef, wildcard bool) {
	if wildcard {
		return
	}
	if identify, ok := sel.Message.(*Identify); ok {
		sender.Tell(&ActorIdentity{MessageID: identify.MessageID}, NoSender)
		return
	}
	system.deadLetters.Tell(&DeadLetter{Message: sel, Sender: sender, Recipient: at}, sender)
}
