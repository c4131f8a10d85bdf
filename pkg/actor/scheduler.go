package actor

import (
	"sync/atomic"
	"time"

	"github.com/RussellLuo/timingwheel"

	"github.com/dzm2020/gactor/pkg/lib/timex"
)

// ICancelable 定时任务句柄
type ICancelable interface {
	// Cancel 返回 false 表示已经取消过或已经执行
	Cancel() bool
	IsCancelled() bool
}

// Scheduler 基于时间轮的定时投递
type Scheduler struct {
	wheel *timex.Wheel
}

func newScheduler(tick time.Duration, wheelSize int64) *Scheduler {
	w := timex.NewWheel(tick, wheelSize)
	w.Start()
	return &Scheduler{wheel: w}
}

// ScheduleOnce delay 之后执行一次 f
func (s *Scheduler) ScheduleOnce(delay time.Duration, f func()) ICancelable {
	c := &onceCancelable{}
	c.timer = s.wheel.AfterFunc(delay, func() {
		if c.fired.CompareAndSwap(false, true) {
			f()
		}
	})
	return c
}

// ScheduleTellOnce delay 之后向 receiver 投递一次 msg
func (s *Scheduler) ScheduleTellOnce(delay time.Duration, receiver IActorRef, msg interface{}, sender IActorRef) ICancelable {
	return s.ScheduleOnce(delay, func() {
		receiver.Tell(msg, sender)
	})
}

// ScheduleRepeatedly 首次延迟 initial，之后每隔 interval 执行一次
func (s *Scheduler) ScheduleRepeatedly(initial, interval time.Duration, f func()) ICancelable {
	return &tickCancelable{ticker: s.wheel.TickFunc(initial, interval, f)}
}

func (s *Scheduler) ScheduleTellRepeatedly(initial, interval time.Duration, receiver IActorRef, msg interface{}, sender IActorRef) ICancelable {
	return s.ScheduleRepeatedly(initial, interval, func() {
		receiver.Tell(msg, sender)
	})
}

func (s *Scheduler) stop() {
	s.wheel.Stop()
}

type onceCancelable struct {
	timer *timingwheel.Timer
	fired atomic.Bool
}

func (c *onceCancelable) Cancel() bool {
	if !c.fired.CompareAndSwap(false, true) {
		return false
	}
	c.timer.Stop()
	return true
}

func (c *onceCancelable) IsCancelled() bool {
	return c.fired.Load()
}

type tickCancelable struct {
	ticker    *timex.Ticker
	cancelled atomic.Bool
}

func (c *tickCancelable) Cancel() bool {
	if !c.cancelled.CompareAndSwap(false, true) {
		return false
	}
	return c.ticker.Stop()
}

func (c *tickCancelable) IsCancelled() bool {
	return c.cancelled.Load()
}
