package component

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/duke-git/lancet/v2/maputil"
	"github.com/pkg/errors"
)

var (
	ErrComponentCannotBeNil                = errors.New("组件不能为空")
	ErrComponentNameCannotBeEmpty          = errors.New("组件名字不能空")
	ErrCannotRegisterComponentAfterStarted = errors.New("组件启动后无法注册组件")
	ErrComponentAlreadyRegistered          = errors.New("组件已注册")
	ErrManagerAlreadyStarted               = errors.New("管理器已启动")
	ErrManagerStoppedCannotRestart         = errors.New("管理器已停止，无法重启")
	ErrFailedToStartComponent              = errors.New("启动组件失败")
)

// Manager 组件生命周期管理
type Manager[T any] struct {
	components *maputil.ConcurrentMap[string, IComponent[T]]
	order      []string
	orderMu    sync.RWMutex
	started    atomic.Bool
	stopped    atomic.Bool
	stopOnce   sync.Once
}

func NewComponentsMgr[T any]() *Manager[T] {
	return &Manager[T]{
		components: maputil.NewConcurrentMap[string, IComponent[T]](10),
	}
}

func (cm *Manager[T]) IsStarted() bool {
	return cm.started.Load()
}

func (cm *Manager[T]) IsStopped() bool {
	return cm.stopped.Load()
}

func (cm *Manager[T]) ComponentCount() int {
	cm.orderMu.RLock()
	defer cm.orderMu.RUnlock()
	return len(cm.order)
}

func (cm *Manager[T]) GetComponent(name string) IComponent[T] {
	c, _ := cm.components.Get(name)
	return c
}

// GetComponentNames 按注册顺序返回组件名
func (cm *Manager[T]) GetComponentNames() []string {
	return cm.snapshot()
}

func (cm *Manager[T]) snapshot() []string {
	cm.orderMu.RLock()
	defer cm.orderMu.RUnlock()
	names := make([]string, len(cm.order))
	copy(names, cm.order)
	return names
}

// Register 注册组件
func (cm *Manager[T]) Register(components ...IComponent[T]) error {
	if cm.started.Load() {
		return ErrCannotRegisterComponentAfterStarted
	}
	cm.orderMu.Lock()
	defer cm.orderMu.Unlock()
	for _, c := range components {
		if c == nil {
			return ErrComponentCannotBeNil
		}
		if c.Name() == "" {
			return ErrComponentNameCannotBeEmpty
		}
		if _, loaded := cm.components.GetOrSet(c.Name(), c); loaded {
			return errors.Wrap(ErrComponentAlreadyRegistered, c.Name())
		}
		cm.order = append(cm.order, c.Name())
	}
	return nil
}

func (cm *Manager[T]) Init(t T) error {
	if cm.started.Load() {
		return ErrManagerAlreadyStarted
	}
	for _, name := range cm.snapshot() {
		c, ok := cm.components.Get(name)
		if !ok {
			continue
		}
		if err := c.Init(t); err != nil {
			return errors.Wrapf(err, "init component %s", name)
		}
	}
	return nil
}

// Start 按注册顺序启动，某个组件失败时逆序停止已启动的组件
func (cm *Manager[T]) Start(ctx context.Context, t T) error {
	if cm.stopped.Load() {
		return ErrManagerStoppedCannotRestart
	}
	if !cm.started.CompareAndSwap(false, true) {
		return ErrManagerAlreadyStarted
	}

	var started []IComponent[T]
	for _, name := range cm.snapshot() {
		c, ok := cm.components.Get(name)
		if !ok {
			continue
		}
		if err := c.Start(ctx, t); err != nil {
			reverse(started)
			_ = cm.stopComponents(ctx, started)
			cm.stopped.Store(true)
			return errors.Wrapf(ErrFailedToStartComponent, "%s: %v", name, err)
		}
		started = append(started, c)
	}
	return nil
}

// Stop 按注册顺序的逆序停止
func (cm *Manager[T]) Stop(ctx context.Context) error {
	var err error
	cm.stopOnce.Do(func() {
		if !cm.started.Load() || cm.stopped.Load() {
			return
		}
		cm.stopped.Store(true)

		order := cm.snapshot()
		components := make([]IComponent[T], 0, len(order))
		for i := len(order) - 1; i >= 0; i-- {
			if c, ok := cm.components.Get(order[i]); ok {
				components = append(components, c)
			}
		}
		err = cm.stopComponents(ctx, components)
	})
	return err
}

func (cm *Manager[T]) stopComponents(ctx context.Context, components []IComponent[T]) error {
	var lastErr error
	for _, c := range components {
		if err := c.Stop(ctx); err != nil {
			lastErr = errors.Wrapf(err, "stop component %s", c.Name())
		}
	}
	return lastErr
}

func (cm *Manager[T]) StopWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return cm.Stop(ctx)
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
