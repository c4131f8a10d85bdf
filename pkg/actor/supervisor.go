package actor

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dzm2020/gactor/pkg/glog"
)

// Directive 监督者对失败子节点的处理指令
type Directive int

const (
	ResumeDirective Directive = iota
	RestartDirective
	StopDirective
	EscalateDirective
)

func (d Directive) String() string {
	switch d {
	case ResumeDirective:
		return "Resume"
	case RestartDirective:
		return "Restart"
	case StopDirective:
		return "Stop"
	case EscalateDirective:
		return "Escalate"
	}
	return "Unknown"
}

// Decider 根据失败原因给出指令
type Decider func(cause error) Directive

// DefaultDecider 初始化失败、被 Kill、DeathPact 停止，其余重启
func DefaultDecider(cause error) Directive {
	var (
		initErr   *ActorInitializationError
		killedErr *ActorKilledError
		pactErr   *DeathPactError
	)
	switch {
	case errors.As(cause, &initErr), errors.As(cause, &killedErr), errors.As(cause, &pactErr):
		return StopDirective
	}
	return RestartDirective
}

// AlwaysRestart 任何失败都重启
func AlwaysRestart(error) Directive { return RestartDirective }

// AlwaysStop 任何失败都停止
func AlwaysStop(error) Directive { return StopDirective }

// AlwaysEscalate 交给上一级处理
func AlwaysEscalate(error) Directive { return EscalateDirective }

// SupervisorStrategy 只在监督者自己的处理协程中调用
type SupervisorStrategy interface {
	// HandleFailure 返回 false 表示升级，由监督者自己失败
	HandleFailure(ctx IContext, child IActorRef, cause error) bool
	// HandleChildTerminated 子节点终止后清理记录
	HandleChildTerminated(ctx IContext, child IActorRef)
}

// failureLog 单个子节点在时间窗口内的失败记录
type failureLog struct {
	records []failureRecord
}

type failureRecord struct {
	cause error
	at    time.Time
}

// retryStats 按子节点记录失败次数
type retryStats struct {
	mu         sync.Mutex
	maxRetries int
	window     time.Duration
	logs       map[string]*failureLog
	now        func() time.Time
}

func newRetryStats(maxRetries int, window time.Duration) *retryStats {
	return &retryStats{
		maxRetries: maxRetries,
		window:     window,
		logs:       make(map[string]*failureLog),
		now:        time.Now,
	}
}

// record 记下一次失败，返回 false 表示超过了重试上限
func (s *retryStats) record(child IActorRef, cause error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := refKey(child)
	l, ok := s.logs[key]
	if !ok {
		l = &failureLog{}
		s.logs[key] = l
	}
	now := s.now()
	l.records = append(l.records, failureRecord{cause: cause, at: now})
	if s.window > 0 {
		from := now.Add(-s.window)
		i := 0
		for i < len(l.records) && l.records[i].at.Before(from) {
			i++
		}
		l.records = l.records[i:]
	}
	if s.maxRetries < 0 {
		return true
	}
	return len(l.records) <= s.maxRetries
}

// count 当前窗口内的失败次数
func (s *retryStats) count(child IActorRef) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.logs[refKey(child)]; ok {
		return len(l.records)
	}
	return 0
}

func (s *retryStats) remove(child IActorRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, refKey(child))
}

func (s *retryStats) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = make(map[string]*failureLog)
}

var _ SupervisorStrategy = (*OneForOneStrategy)(nil)

// OneForOneStrategy 只处理失败的子节点
// maxRetries < 0 不限制次数，window <= 0 表示不限时间窗口
type OneForOneStrategy struct {
	decider Decider
	stats   *retryStats
}

func NewOneForOneStrategy(maxRetries int, window time.Duration, decider Decider) *OneForOneStrategy {
	if decider == nil {
		decider = DefaultDecider
	}
	return &OneForOneStrategy{decider: decider, stats: newRetryStats(maxRetries, window)}
}

// DefaultStrategy 每个 actor 都会得到一个新的实例
func DefaultStrategy() SupervisorStrategy {
	return NewOneForOneStrategy(-1, 0, DefaultDecider)
}

func (s *OneForOneStrategy) HandleFailure(ctx IContext, child IActorRef, cause error) bool {
	directive := s.decider(cause)
	if !s.stats.record(child, cause) {
		directive = StopDirective
	}
	logFailure(ctx, child, cause, directive)
	switch directive {
	case ResumeDirective:
		resumeChild(child, cause)
	case RestartDirective:
		restartChild(child, cause, false)
	case StopDirective:
		ctx.Stop(child)
	case EscalateDirective:
		return false
	}
	return true
}

func (s *OneForOneStrategy) HandleChildTerminated(_ IContext, child IActorRef) {
	s.stats.remove(child)
}

var _ SupervisorStrategy = (*AllForOneStrategy)(nil)

// AllForOneStrategy 一个子节点失败时，重启或停止全部子节点
// Resume 只作用于失败的子节点；超过重试上限时停止全部子节点
type AllForOneStrategy struct {
	decider Decider
	stats   *retryStats
}

func NewAllForOneStrategy(maxRetries int, window time.Duration, decider Decider) *AllForOneStrategy {
	if decider == nil {
		decider = DefaultDecider
	}
	return &AllForOneStrategy{decider: decider, stats: newRetryStats(maxRetries, window)}
}

func (s *AllForOneStrategy) HandleFailure(ctx IContext, child IActorRef, cause error) bool {
	directive := s.decider(cause)
	if !s.stats.record(child, cause) {
		directive = StopDirective
	}
	logFailure(ctx, child, cause, directive)
	switch directive {
	case ResumeDirective:
		resumeChild(child, cause)
	case RestartDirective:
		for _, c := range ctx.Children() {
			restartChild(c, cause, !refEquals(c, child))
		}
	case StopDirective:
		for _, c := range ctx.Children() {
			ctx.Stop(c)
		}
	case EscalateDirective:
		return false
	}
	return true
}

func (s *AllForOneStrategy) HandleChildTerminated(_ IContext, child IActorRef) {
	s.stats.remove(child)
}

var _ SupervisorStrategy = stoppingStrategy{}

// StoppingStrategy 失败的子节点一律停止，根守护者使用
var StoppingStrategy SupervisorStrategy = stoppingStrategy{}

type stoppingStrategy struct{}

func (stoppingStrategy) HandleFailure(ctx IContext, child IActorRef, cause error) bool {
	logFailure(ctx, child, cause, StopDirective)
	ctx.Stop(child)
	return true
}

func (stoppingStrategy) HandleChildTerminated(IContext, IActorRef) {}

func resumeChild(child IActorRef, cause error) {
	if r, ok := child.(IInternalActorRef); ok {
		r.Resume(cause)
	}
}

func restartChild(child IActorRef, cause error, suspendFirst bool) {
	r, ok := child.(IInternalActorRef)
	if !ok {
		return
	}
	if suspendFirst {
		r.Suspend()
	}
	r.Restart(cause)
}

func logFailure(ctx IContext, child IActorRef, cause error, directive Directive) {
	if directive == EscalateDirective {
		return
	}
	fields := []zap.Field{
		zap.Stringer("child", child),
		zap.Stringer("directive", directive),
		zap.Error(cause),
	}
	if directive == ResumeDirective {
		glog.Warn("actor failure", fields...)
	} else {
		glog.Error("actor failure", fields...)
	}
	if sys := ctx.System(); sys != nil {
		sys.EventStream().Publish(&ErrorEvent{Source: child.String(), Cause: cause, Message: directive.String()})
	}
}
