/**
 * @Author: dingQingHui
 * @Description:
 * @File: timingwheel
 * @Version: 1.0.0
 * @Date: 2024/11/28 14:06
 */

package timex

import (
	"sync/atomic"
	"time"

	"github.com/RussellLuo/timingwheel"
)

const (
	DefaultTick      = 10 * time.Millisecond
	DefaultWheelSize = 3600
)

// Wheel 时间轮，回调在独立协程中执行
type Wheel struct {
	tw      *timingwheel.TimingWheel
	started atomic.Bool
	stopped atomic.Bool
}

func NewWheel(tick time.Duration, wheelSize int64) *Wheel {
	if tick < time.Millisecond {
		tick = DefaultTick
	}
	if wheelSize <= 0 {
		wheelSize = DefaultWheelSize
	}
	return &Wheel{tw: timingwheel.NewTimingWheel(tick, wheelSize)}
}

func (w *Wheel) Start() {
	if w.started.CompareAndSwap(false, true) {
		w.tw.Start()
	}
}

func (w *Wheel) Stop() {
	if !w.started.Load() {
		return
	}
	if w.stopped.CompareAndSwap(false, true) {
		w.tw.Stop()
	}
}

// AfterFunc d 之后执行一次 f
func (w *Wheel) AfterFunc(d time.Duration, f func()) *timingwheel.Timer {
	return w.tw.AfterFunc(d, f)
}

// TickFunc 首次延迟 initial，之后每隔 interval 执行一次 f
func (w *Wheel) TickFunc(initial, interval time.Duration, f func()) *Ticker {
	t := &Ticker{}
	s := &tickScheduler{ticker: t, initial: initial, interval: interval}
	t.timer = w.tw.ScheduleFunc(s, func() {
		if t.stopped.Load() {
			return
		}
		f()
	})
	return t
}

// Ticker 周期定时器
type Ticker struct {
	timer   *timingwheel.Timer
	stopped atomic.Bool
}

// Stop 停止后不会再执行回调
func (t *Ticker) Stop() bool {
	if !t.stopped.CompareAndSwap(false, true) {
		return false
	}
	t.timer.Stop()
	return true
}

type tickScheduler struct {
	ticker   *Ticker
	initial  time.Duration
	interval time.Duration
	fired    bool
}

func (s *tickScheduler) Next(prev time.Time) time.Time {
	if s.ticker.stopped.Load() {
		return time.Time{}
	}
	if !s.fired {
		s.fired = true
		return prev.Add(s.initial)
	}
	if s.interval <= 0 {
		return time.Time{}
	}
	return prev.Add(s.interval)
}

var std = NewWheel(DefaultTick, DefaultWheelSize)

func init() {
	std.Start()
}

// AfterFunc 使用默认时间轮
func AfterFunc(d time.Duration, f func()) *timingwheel.Timer {
	return std.AfterFunc(d, f)
}
