package actor

// IActor 用户 actor
type IActor interface {
	// OnInit 创建后以及默认的重启流程中调用，params 来自 Props.WithArgs
	OnInit(ctx IContext, params []interface{}) error
	// OnMessage 返回 ErrUnhandled 表示不处理该消息，返回其它错误视为失败
	OnMessage(ctx IContext, msg interface{}) error
	// OnStop 停止时以及默认的重启流程中调用
	OnStop(ctx IContext) error
}

// IPreRestarter 替换默认的重启前处理（停止所有子节点后调用 OnStop）
type IPreRestarter interface {
	OnPreRestart(ctx IContext, cause error, msg interface{}) error
}

// IPostRestarter 替换默认的重启后处理（调用 OnInit）
type IPostRestarter interface {
	OnPostRestart(ctx IContext, cause error) error
}

// ISupervisorStrategyProvider actor 自己提供监督策略，优先级低于 Props.WithSupervisor
type ISupervisorStrategyProvider interface {
	SupervisorStrategy() SupervisorStrategy
}

// ReceiveFunc 消息处理函数，Become 压栈的就是它
type ReceiveFunc func(ctx IContext, msg interface{}) error

// Producer 创建 actor 实例，每次重启都会调用
type Producer func() IActor

var _ IActor = (*Actor)(nil)

// Actor 空实现，用于嵌入
type Actor struct{}

func (a *Actor) OnInit(ctx IContext, params []interface{}) error {
	return nil
}

func (a *Actor) OnMessage(ctx IContext, msg interface{}) error {
	return ErrUnhandled
}

func (a *Actor) OnStop(ctx IContext) error {
	return nil
}

// funcActor 用函数实现的 actor
type funcActor struct {
	Actor
	receive ReceiveFunc
}

func (f *funcActor) OnMessage(ctx IContext, msg interface{}) error {
	return f.receive(ctx, msg)
}

// behaviorStack 非空时栈顶是当前的处理函数
type behaviorStack []ReceiveFunc

func (s *behaviorStack) reset(fn ReceiveFunc) {
	*s = append((*s)[:0], fn)
}

func (s *behaviorStack) push(fn ReceiveFunc) {
	*s = append(*s, fn)
}

// replace 替换栈顶，栈为空时压栈
func (s *behaviorStack) replace(fn ReceiveFunc) {
	if len(*s) == 0 {
		s.push(fn)
		return
	}
	(*s)[len(*s)-1] = fn
}

// pop 只剩一个时不弹出，返回 false
func (s *behaviorStack) pop() bool {
	if len(*s) <= 1 {
		return false
	}
	(*s)[len(*s)-1] = nil
	*s = (*s)[:len(*s)-1]
	return true
}

func (s *behaviorStack) peek() ReceiveFunc {
	if len(*s) == 0 {
		return nil
	}
	return (*s)[len(*s)-1]
}

func (s *behaviorStack) clear() {
	for i := range *s {
		(*s)[i] = nil
	}
	*s = (*s)[:0]
}

func (s *behaviorStack) len() int {
	return len(*s)
}
