package event

import (
	"sync"
	"sync/atomic"

	"golang.org/x/exp/slices"
)

type handler[V any] struct {
	id uint64
	fn func(V)
}

// Listener 事件监听器，按注册顺序通知
type Listener[V any] struct {
	mu       sync.RWMutex
	seq      atomic.Uint64
	handlers []handler[V]
}

func NewListener[V any]() *Listener[V] {
	return &Listener[V]{}
}

// Register 注册回调，返回用于注销的 id
func (m *Listener[V]) Register(fn func(V)) uint64 {
	id := m.seq.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler[V]{id: id, fn: fn})
	return id
}

func (m *Listener[V]) UnRegister(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	index := slices.IndexFunc(m.handlers, func(h handler[V]) bool {
		return h.id == id
	})
	if index < 0 {
		return false
	}
	m.handlers = slices.Delete(m.handlers, index, index+1)
	return true
}

func (m *Listener[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers)
}

// Notify 通知所有回调，回调中可以安全地注册或注销
func (m *Listener[V]) Notify(param V) {
	m.mu.RLock()
	handlers := slices.Clone(m.handlers)
	m.mu.RUnlock()
	for _, h := range handlers {
		h.fn(param)
	}
}
