package factory

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

var ErrFactoryExists = errors.New("factory already exists")

// Manager 按名字注册的构造函数，C 是构造参数
type Manager[C any, T any] struct {
	mu        sync.RWMutex
	factories map[string]func(cfg C) (T, error)
}

func New[C any, T any]() *Manager[C, T] {
	return &Manager[C, T]{
		factories: make(map[string]func(cfg C) (T, error)),
	}
}

// Register 同名的工厂已存在时返回 ErrFactoryExists
func (f *Manager[C, T]) Register(name string, factory func(cfg C) (T, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.factories[name]; ok {
		return errors.Wrap(ErrFactoryExists, name)
	}
	f.factories[name] = factory
	return nil
}

func (f *Manager[C, T]) Unregister(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.factories, name)
}

func (f *Manager[C, T]) Get(name string) (func(cfg C) (T, error), bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	factory, ok := f.factories[name]
	return factory, ok
}

// Create 调用 name 对应的构造函数，ok 为 false 表示未注册
func (f *Manager[C, T]) Create(name string, cfg C) (t T, ok bool, err error) {
	factory, ok := f.Get(name)
	if !ok {
		return t, false, nil
	}
	t, err = factory(cfg)
	return t, true, err
}

// List 已注册的名字，按字典序
func (f *Manager[C, T]) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.factories))
	for name := range f.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
