package actor

import (
	"fmt"

	"github.com/pkg/errors"
)

// 路径与命名
var (
	ErrInvalidPath       = errors.New("actor: invalid path")
	ErrInvalidName       = errors.New("actor: invalid name")
	ErrNameCannotBeEmpty = errors.New("actor: name cannot be empty")
	ErrNameTaken         = errors.New("actor: name is already taken")
)

// 创建与生命周期
var (
	ErrPropsIsNil             = errors.New("actor: props is nil")
	ErrProducerIsNil          = errors.New("actor: props has no producer")
	ErrProducerReturnedNil    = errors.New("actor: producer returned nil actor")
	ErrParentTerminating      = errors.New("actor: parent is terminating")
	ErrSystemShuttingDown     = errors.New("actor: system is shutting down")
	ErrRemoteDeployNotAllowed = errors.New("actor: remote deployment is not supported")
	ErrUnknownDispatcher      = errors.New("actor: unknown dispatcher")
	ErrUnknownMailbox         = errors.New("actor: unknown mailbox")
)

// 消息
var (
	// ErrUnhandled OnMessage 返回它表示消息未处理，不视为失败
	ErrUnhandled    = errors.New("actor: unhandled message")
	ErrMessageIsNil = errors.New("actor: message is nil")
	ErrMailboxFull  = errors.New("actor: mailbox is full")
	ErrMailboxStop  = errors.New("actor: mailbox is closed")
)

// Ask
var (
	ErrAskTimeout        = errors.New("actor: ask timeout")
	ErrFutureRefDisposed = errors.New("actor: future ref disposed")
	ErrRecipientIsNil    = errors.New("actor: recipient is nil")
	ErrActorNotFound     = errors.New("actor: actor not found")
)

// ActorInitializationError 创建实例或 OnInit 失败
type ActorInitializationError struct {
	Actor IActorRef
	Cause error
}

func (e *ActorInitializationError) Error() string {
	return fmt.Sprintf("actor %s initialization failed: %v", e.Actor, e.Cause)
}

func (e *ActorInitializationError) Unwrap() error { return e.Cause }

// ActorKilledError 收到 Kill 消息
type ActorKilledError struct {
	Actor IActorRef
}

func (e *ActorKilledError) Error() string {
	return fmt.Sprintf("actor %s killed", e.Actor)
}

// DeathPactError 被监视的 actor 终止，而 Terminated 消息没有被处理
type DeathPactError struct {
	Dead IActorRef
}

func (e *DeathPactError) Error() string {
	return fmt.Sprintf("monitored actor %s terminated", e.Dead)
}

// PreRestartError 重启钩子本身失败，Original 是触发重启的原因
type PreRestartError struct {
	Actor    IActorRef
	Original error
	Cause    error
	Message  interface{}
}

func (e *PreRestartError) Error() string {
	return fmt.Sprintf("actor %s pre-restart failed: %v (restart cause: %v)", e.Actor, e.Cause, e.Original)
}

func (e *PreRestartError) Unwrap() error { return e.Cause }

// PanicError 处理消息时发生 panic
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// UnknownSystemMessageError 内部错误，出现即 panic
type UnknownSystemMessageError struct {
	Message SystemMessage
}

func (e *UnknownSystemMessageError) Error() string {
	return fmt.Sprintf("actor: unknown system message %T", e.Message)
}
