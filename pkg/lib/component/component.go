package component

import (
	"context"
)

// IComponent 组件，Start 按注册顺序调用，Stop 按逆序调用
type IComponent[T any] interface {
	Name() string
	Init(t T) error
	Start(ctx context.Context, t T) error
	Stop(ctx context.Context) error
}

type BaseComponent[T any] struct {
}

func (*BaseComponent[T]) Init(t T) error { return nil }
func (*BaseComponent[T]) Start(ctx context.Context, t T) error {
	return nil
}
func (*BaseComponent[T]) Stop(ctx context.Context) error {
	return nil
}
