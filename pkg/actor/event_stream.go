package actor

import (
	"go.uber.org/zap"

	"github.com/dzm2020/gactor/pkg/glog"
	"github.com/dzm2020/gactor/pkg/lib/event"
	"github.com/dzm2020/gactor/pkg/lib/workers"
)

// EventStream 系统内的事件总线，回调在发布者的协程中同步执行
type EventStream struct {
	listener *event.Listener[interface{}]
}

func NewEventStream() *EventStream {
	return &EventStream{listener: event.NewListener[interface{}]()}
}

// Subscription 用于取消订阅
type Subscription struct {
	id uint64
}

// Subscribe 订阅所有事件
func (es *EventStream) Subscribe(fn func(evt interface{})) *Subscription {
	return &Subscription{id: es.listener.Register(safeNotify(fn))}
}

func (es *EventStream) Unsubscribe(sub *Subscription) bool {
	if sub == nil {
		return false
	}
	return es.listener.UnRegister(sub.id)
}

// Publish 订阅者的 panic 会被记录并忽略
func (es *EventStream) Publish(evt interface{}) {
	es.listener.Notify(evt)
}

func (es *EventStream) Len() int {
	return es.listener.Len()
}

// SubscribeTo 只接收类型为 T 的事件
func SubscribeTo[T any](es *EventStream, fn func(evt T)) *Subscription {
	return es.Subscribe(func(evt interface{}) {
		if v, ok := evt.(T); ok {
			fn(v)
		}
	})
}

func safeNotify(fn func(evt interface{})) func(evt interface{}) {
	return func(evt interface{}) {
		workers.Try(func() { fn(evt) }, func(err interface{}) {
			glog.Error("event stream subscriber panic", zap.Any("event", evt), zap.Any("err", err))
		})
	}
}
