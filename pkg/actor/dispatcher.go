package actor

import (
	"github.com/duke-git/lancet/v2/maputil"
	"github.com/pkg/errors"

	"github.com/dzm2020/gactor/pkg/lib/factory"
	"github.com/dzm2020/gactor/pkg/lib/workers"
)

const (
	DispatcherGoroutine    = "goroutine"
	DispatcherPool         = "pool"
	DispatcherSynchronized = "synchronized"

	DefaultDispatcherId = "default-dispatcher"
	DefaultThroughput   = 100
)

// IDispatcher 执行 Mailbox 的处理函数，Throughput 是一次调度最多处理的用户消息数
type IDispatcher interface {
	Schedule(fn func(), recoverFun func(err interface{})) error
	Throughput() int
}

// 每次调度启动一个协程
type goroutineDispatcher int

func NewGoroutineDispatcher(throughput int) IDispatcher {
	return goroutineDispatcher(throughput)
}

func (goroutineDispatcher) Schedule(fn func(), recoverFun func(err interface{})) error {
	go workers.Try(fn, recoverFun)
	return nil
}

func (d goroutineDispatcher) Throughput() int {
	return int(d)
}

// 在调用方协程中同步执行，测试里用来得到确定的执行顺序
type synchronizedDispatcher int

func NewSynchronizedDispatcher(throughput int) IDispatcher {
	return synchronizedDispatcher(throughput)
}

func (synchronizedDispatcher) Schedule(fn func(), recoverFun func(err interface{})) error {
	workers.Try(fn, recoverFun)
	return nil
}

func (d synchronizedDispatcher) Throughput() int {
	return int(d)
}

// 协程池调度器
type poolDispatcher struct {
	pool       *workers.Pool
	throughput int
}

func NewPoolDispatcher(size, throughput int) (IDispatcher, error) {
	p, err := workers.NewPool(size)
	if err != nil {
		return nil, errors.Wrap(err, "create dispatcher pool")
	}
	return &poolDispatcher{pool: p, throughput: throughput}, nil
}

func (d *poolDispatcher) Schedule(fn func(), recoverFun func(err interface{})) error {
	return d.pool.Submit(fn, recoverFun)
}

func (d *poolDispatcher) Throughput() int {
	return d.throughput
}

func (d *poolDispatcher) shutdown() {
	d.pool.Release()
}

// DispatcherConfig 调度器配置
type DispatcherConfig struct {
	// Type goroutine / pool / synchronized
	Type       string `json:"type" yaml:"type"`
	Throughput int    `json:"throughput" yaml:"throughput"`
	// PoolSize 只对 pool 生效，<= 0 不限制
	PoolSize int `json:"poolSize" yaml:"poolSize"`
}

// Dispatchers 按 id 创建并缓存调度器
type Dispatchers struct {
	settings *Settings
	cache    *maputil.ConcurrentMap[string, IDispatcher]
}

func newDispatchers(settings *Settings) *Dispatchers {
	return &Dispatchers{
		settings: settings,
		cache:    maputil.NewConcurrentMap[string, IDispatcher](4),
	}
}

// Lookup 返回 id 对应的调度器，空 id 使用默认调度器
func (d *Dispatchers) Lookup(id string) (IDispatcher, error) {
	if id == "" {
		id = d.settings.DefaultDispatcher
	}
	if v, ok := d.cache.Get(id); ok {
		return v, nil
	}
	created, err := d.FromConfig(id)
	if err != nil {
		return nil, err
	}
	actual, loaded := d.cache.GetOrSet(id, created)
	if loaded {
		if p, ok := created.(*poolDispatcher); ok {
			p.shutdown()
		}
	}
	return actual, nil
}

// FromConfig 按配置新建调度器，不经过缓存
func (d *Dispatchers) FromConfig(id string) (IDispatcher, error) {
	cfg, ok := d.settings.Dispatchers[id]
	if !ok {
		if id != DefaultDispatcherId {
			return nil, errors.Wrap(ErrUnknownDispatcher, id)
		}
		cfg = DispatcherConfig{Type: DispatcherGoroutine}
	}
	if cfg.Throughput <= 0 {
		cfg.Throughput = DefaultThroughput
	}
	if cfg.Type == "" {
		cfg.Type = DispatcherGoroutine
	}
	dispatcher, ok, err := dispatcherTypes.Create(cfg.Type, cfg)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownDispatcher, "%s: type %q", id, cfg.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "dispatcher %s", id)
	}
	return dispatcher, nil
}

func (d *Dispatchers) shutdown() {
	d.cache.Range(func(_ string, v IDispatcher) bool {
		if p, ok := v.(*poolDispatcher); ok {
			p.shutdown()
		}
		return true
	})
}

var dispatcherTypes = factory.New[DispatcherConfig, IDispatcher]()

func init() {
	_ = RegisterDispatcherType(DispatcherGoroutine, func(cfg DispatcherConfig) (IDispatcher, error) {
		return NewGoroutineDispatcher(cfg.Throughput), nil
	})
	_ = RegisterDispatcherType(DispatcherSynchronized, func(cfg DispatcherConfig) (IDispatcher, error) {
		return NewSynchronizedDispatcher(cfg.Throughput), nil
	})
	_ = RegisterDispatcherType(DispatcherPool, func(cfg DispatcherConfig) (IDispatcher, error) {
		return NewPoolDispatcher(cfg.PoolSize, cfg.Throughput)
	})
}

// RegisterDispatcherType 注册自定义的调度器类型，配置中的 type 字段按名字查找
func RegisterDispatcherType(name string, fn func(cfg DispatcherConfig) (IDispatcher, error)) error {
	return dispatcherTypes.Register(name, fn)
}

// HasDispatcherType 空字符串视为 goroutine
func HasDispatcherType(name string) bool {
	if name == "" {
		return true
	}
	_, ok := dispatcherTypes.Get(name)
	return ok
}
