package actor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/duke-git/lancet/v2/maputil"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"github.com/dzm2020/gactor/pkg/glog"
)

const (
	userGuardianName   = "user"
	systemGuardianName = "system"
	tempName           = "temp"
	deadLettersName    = "deadLetters"
)

// Option 创建 System 的可选项
type Option func(s *System)

// WithSettings 为空的字段使用默认值
func WithSettings(settings *Settings) Option {
	return func(s *System) {
		if settings != nil {
			s.settings = settings.normalize()
		}
	}
}

// System 本地 actor 系统，根节点下有 /user 和 /system 两个守护者
type System struct {
	name          string
	address       Address
	settings      *Settings
	registry      *registry
	dispatchers   *Dispatchers
	eventStream   *EventStream
	scheduler     *Scheduler
	serialization *Serialization
	deadLetters   *DeadLetterActorRef
	temp          *maputil.ConcurrentMap[string, IInternalActorRef]
	tempPath      *ActorPath
	uid           atomic.Int64

	supervisor     *rootSupervisor
	root           *actorCell
	userGuardian   *actorCell
	systemGuardian *actorCell

	terminating  atomic.Bool
	terminated   chan struct{}
	shutdownOnce sync.Once
}

// NewSystem 创建并启动 actor 系统
func NewSystem(name string, opts ...Option) (*System, error) {
	s := &System{
		name:          name,
		address:       NewLocalAddress(name),
		settings:      DefaultSettings(),
		registry:      newRegistry(),
		eventStream:   NewEventStream(),
		serialization: &Serialization{},
		temp:          maputil.NewConcurrentMap[string, IInternalActorRef](16),
		terminated:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := ValidateName(name); err != nil {
		return nil, errors.Wrap(err, "system name")
	}
	s.dispatchers = newDispatchers(s.settings)
	s.scheduler = newScheduler(s.settings.SchedulerTick, s.settings.SchedulerWheelSize)

	rootPath := NewRootPath(s.address)
	s.deadLetters = &DeadLetterActorRef{path: rootPath.Child(deadLettersName), system: s}
	s.tempPath = rootPath.Child(tempName)
	s.supervisor = &rootSupervisor{path: rootPath.Child("bubble-walker"), system: s}

	if err := s.startGuardians(rootPath); err != nil {
		s.scheduler.stop()
		s.dispatchers.shutdown()
		return nil, err
	}
	glog.Info("actor system started", zap.String("system", name), zap.Stringer("address", s.address))
	return s, nil
}

func (s *System) startGuardians(rootPath *ActorPath) error {
	rootRef := &LocalActorRef{path: rootPath, uid: s.nextUID(), system: s}
	rootProps := PropsFromProducer(newGuardian).WithSupervisor(StoppingStrategy)
	if err := s.newCell(rootProps, rootRef, s.supervisor); err != nil {
		return errors.Wrap(err, "root guardian")
	}
	s.root = rootRef.cell()

	guardianProps := PropsFromProducer(newGuardian)
	systemRef, err := s.root.actorOf(guardianProps, systemGuardianName)
	if err != nil {
		return errors.Wrap(err, "system guardian")
	}
	userRef, err := s.root.actorOf(guardianProps, userGuardianName)
	if err != nil {
		return errors.Wrap(err, "user guardian")
	}
	s.systemGuardian = systemRef.cell()
	s.userGuardian = userRef.cell()

	// user 终止后 system 停止，system 终止后根节点停止
	systemRef.Tell(&guardianWatch{target: userRef}, NoSender)
	rootRef.Tell(&guardianWatch{target: systemRef}, NoSender)
	return nil
}

// newCell 创建 cell 并投递 Create，parent 负责监督
func (s *System) newCell(props *Props, ref *LocalActorRef, parent IInternalActorRef) error {
	if props.router != nil {
		props = newRouterProps(props)
	}
	if s.settings.SerializeAllCreators {
		if _, err := props.NewActor(); err != nil {
			return errors.Wrap(err, "verify producer")
		}
	}
	dispatcher, err := s.dispatchers.Lookup(props.dispatcher)
	if err != nil {
		return err
	}
	mailbox, err := newMailboxFromConfig(props.mailbox, s.settings.Mailboxes)
	if err != nil {
		return err
	}
	c := newActorCell(s, ref, parent, props)
	c.dispatcher = dispatcher
	c.mailbox = mailbox
	c.strategy = props.strategy
	if c.strategy == nil {
		c.strategy = DefaultStrategy()
	}
	mailbox.Setup(dispatcher, c)
	if !s.registry.add(c) {
		return errors.Wrap(ErrNameTaken, ref.path.String())
	}
	c.sendSystemMessage(&Create{})
	return nil
}

func (s *System) nextUID() int64 {
	return s.uid.Add(1)
}

func (s *System) cellOf(ref IActorRef) *actorCell {
	if lr, ok := ref.(*LocalActorRef); ok && lr.system == s {
		return lr.cell()
	}
	return nil
}

func (s *System) Name() string              { return s.name }
func (s *System) Address() Address          { return s.address }
func (s *System) Settings() Settings        { return *s.settings }
func (s *System) EventStream() *EventStream { return s.eventStream }
func (s *System) Scheduler() *Scheduler     { return s.scheduler }
func (s *System) DeadLetters() IActorRef    { return s.deadLetters }
func (s *System) Dispatchers() *Dispatchers { return s.dispatchers }

func (s *System) Serialization() *Serialization {
	return s.serialization
}

// Root 根守护者
func (s *System) Root() IActorRef {
	return s.root.self
}

func (s *System) UserGuardian() IActorRef {
	return s.userGuardian.self
}

func (s *System) SystemGuardian() IActorRef {
	return s.systemGuardian.self
}

// ActorOf 在 /user 下创建顶层 actor
func (s *System) ActorOf(props *Props, name string) (IActorRef, error) {
	if s.terminating.Load() {
		return nil, ErrSystemShuttingDown
	}
	return s.userGuardian.ActorOf(props, name)
}

// SystemActorOf 在 /system 下创建
func (s *System) SystemActorOf(props *Props, name string) (IActorRef, error) {
	if s.terminating.Load() {
		return nil, ErrSystemShuttingDown
	}
	return s.systemGuardian.ActorOf(props, name)
}

// ActorSelection 相对路径以 /user 为起点
func (s *System) ActorSelection(p string) *ActorSelection {
	return newActorSelectionFrom(s, s.userGuardian.self, p)
}

// Stop 异步停止
func (s *System) Stop(ref IActorRef) {
	if ref != nil {
		ref.Stop()
	}
}

// ResolveActorRef 找不到时返回一个指向死信的 LocalActorRef
func (s *System) ResolveActorRef(p string) (IActorRef, error) {
	path, err := Parse(p)
	if err != nil {
		return nil, err
	}
	if !path.address.IsZero() && !path.address.Equal(s.address) {
		return nil, errors.Wrapf(ErrRemoteDeployNotAllowed, "address %s", path.address)
	}
	return s.resolvePath(path), nil
}

func (s *System) resolvePath(path *ActorPath) IActorRef {
	if path.Equal(s.deadLetters.path) {
		return s.deadLetters
	}
	if path.IsDescendantOf(s.tempPath) && path.Depth() == s.tempPath.Depth()+1 {
		if ref, ok := s.temp.Get(path.Name()); ok {
			return ref
		}
	}
	if c, ok := s.registry.get(path.key); ok {
		return c.self
	}
	return &LocalActorRef{path: path.WithAddress(s.address), system: s}
}

// TempPath 生成 /temp 下不重复的路径
func (s *System) TempPath() *ActorPath {
	return s.tempPath.Child("$" + xid.New().String())
}

func (s *System) RegisterTempActor(ref IInternalActorRef) {
	s.temp.Set(ref.Path().Name(), ref)
}

func (s *System) UnregisterTempActor(path *ActorPath) {
	s.temp.Delete(path.Name())
}

// Terminate 停止 /user，随后 /system 和根节点依次停止
func (s *System) Terminate() {
	if !s.terminating.CompareAndSwap(false, true) {
		return
	}
	glog.Info("actor system terminating", zap.String("system", s.name))
	s.userGuardian.self.Stop()
}

// WhenTerminated 根节点终止后关闭
func (s *System) WhenTerminated() <-chan struct{} {
	return s.terminated
}

// Shutdown 等待所有 actor 终止后释放调度器和时间轮
func (s *System) Shutdown(ctx context.Context) error {
	s.Terminate()
	select {
	case <-s.terminated:
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "actor system shutdown")
	}
	s.shutdownOnce.Do(func() {
		s.scheduler.stop()
		s.dispatchers.shutdown()
		glog.Info("actor system terminated", zap.String("system", s.name))
	})
	return nil
}

// ShutdownWithTimeout 便于在组件的 Stop 中使用
func (s *System) ShutdownWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(ctx)
}

func (s *System) markTerminated() {
	s.terminating.Store(true)
	select {
	case <-s.terminated:
	default:
		close(s.terminated)
	}
}

// guardianWatch 让守护者监视 target
type guardianWatch struct {
	target IActorRef
}

func (*guardianWatch) NoSerializationVerificationNeeded() {}

// guardian 被监视的守护者终止时停止自己
type guardian struct {
	Actor
}

func newGuardian() IActor {
	return &guardian{}
}

func (g *guardian) OnMessage(ctx IContext, msg interface{}) error {
	switch m := msg.(type) {
	case *guardianWatch:
		ctx.Watch(m.target)
	case *Terminated:
		ctx.Stop(ctx.Self())
	default:
		return ErrUnhandled
	}
	return nil
}

var _ IInternalActorRef = (*rootSupervisor)(nil)

// rootSupervisor 根节点的父节点，根节点失败时直接停止它，根节点终止时系统结束
type rootSupervisor struct {
	path   *ActorPath
	system *System
}

func (r *rootSupervisor) Path() *ActorPath { return r.path }
func (r *rootSupervisor) String() string   { return r.path.String() }
func (r *rootSupervisor) IsLocal() bool    { return true }
func (r *rootSupervisor) Stop()            {}
func (r *rootSupervisor) Resume(error)     {}
func (r *rootSupervisor) Suspend()         {}
func (r *rootSupervisor) Restart(error)    {}

func (r *rootSupervisor) Tell(msg interface{}, sender IActorRef) {
	r.system.deadLetters.Tell(msg, sender)
}

func (r *rootSupervisor) SendSystemMessage(msg SystemMessage) {
	switch m := msg.(type) {
	case *Failed:
		glog.Error("root guardian failed, shutting down", zap.Error(m.Cause))
		r.system.terminating.Store(true)
		m.Child.Stop()
	case *DeathWatchNotification:
		r.system.markTerminated()
	case *Supervise, *Watch, *Unwatch:
	default:
		glog.Warn("root supervisor received unexpected system message", zap.Any("msg", msg))
	}
}
