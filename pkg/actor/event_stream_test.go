package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventStream(t *testing.T) {
	es := NewEventStream()
	var all []interface{}
	var letters []*DeadLetter

	sub := es.Subscribe(func(evt interface{}) { all = append(all, evt) })
	SubscribeTo(es, func(evt *DeadLetter) { letters = append(letters, evt) })
	assert.Equal(t, 2, es.Len())

	dl := &DeadLetter{Message: "x"}
	es.Publish(dl)
	es.Publish("plain")
	assert.Equal(t, []interface{}{dl, "plain"}, all)
	assert.Equal(t, []*DeadLetter{dl}, letters)

	assert.True(t, es.Unsubscribe(sub))
	assert.False(t, es.Unsubscribe(sub))
	assert.False(t, es.Unsubscribe(nil))
	es.Publish("after")
	assert.Len(t, all, 2)
	assert.Equal(t, 1, es.Len())
}

// 一个订阅者 panic 不影响其它订阅者
func TestEventStream_PanickingSubscriber(t *testing.T) {
	es := NewEventStream()
	var got []interface{}
	es.Subscribe(func(interface{}) { panic("bad subscriber") })
	es.Subscribe(func(evt interface{}) { got = append(got, evt) })

	assert.NotPanics(t, func() { es.Publish(1) })
	assert.Equal(t, []interface{}{1}, got)
}
