package actor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_Once(t *testing.T) {
	sys := newTestSystem(t)
	fired := make(chan struct{}, 1)
	c := sys.Scheduler().ScheduleOnce(20*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(waitTimeout):
		require.FailNow(t, "timer did not fire")
	}
	assert.False(t, c.Cancel())
}

func TestScheduler_Cancel(t *testing.T) {
	sys := newTestSystem(t)
	var fired atomic.Bool
	c := sys.Scheduler().ScheduleOnce(50*time.Millisecond, func() { fired.Store(true) })
	assert.True(t, c.Cancel())
	assert.True(t, c.IsCancelled())
	assert.False(t, c.Cancel())

	time.Sleep(100 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestScheduler_TellOnce(t *testing.T) {
	sys := newTestSystem(t)
	p := newProbe(t, sys)
	sys.Scheduler().ScheduleTellOnce(10*time.Millisecond, p.ref, "tick", NoSender)
	assert.Equal(t, "tick", p.receive(t))
}

func TestScheduler_Repeatedly(t *testing.T) {
	sys := newTestSystem(t)
	p := newProbe(t, sys)
	c := sys.Scheduler().ScheduleTellRepeatedly(10*time.Millisecond, 10*time.Millisecond, p.ref, "tick", NoSender)
	for i := 0; i < 3; i++ {
		assert.Equal(t, "tick", p.receive(t))
	}
	assert.True(t, c.Cancel())
	assert.True(t, c.IsCancelled())

	// 取消前已经在途的消息处理掉之后不再有新的
	time.Sleep(50 * time.Millisecond)
	for len(p.ch) > 0 {
		<-p.ch
	}
	p.expectNoMsg(t, 60*time.Millisecond)
}
