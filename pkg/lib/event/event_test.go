package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListener_RegisterNotify(t *testing.T) {
	l := NewListener[int]()
	var a, b []int
	idA := l.Register(func(v int) { a = append(a, v) })
	l.Register(func(v int) { b = append(b, v) })
	assert.Equal(t, 2, l.Len())

	l.Notify(1)
	assert.True(t, l.UnRegister(idA))
	assert.False(t, l.UnRegister(idA))
	l.Notify(2)

	assert.Equal(t, []int{1}, a)
	assert.Equal(t, []int{1, 2}, b)
}

func TestListener_SameClosureTwice(t *testing.T) {
	l := NewListener[string]()
	count := 0
	for i := 0; i < 2; i++ {
		l.Register(func(string) { count++ })
	}
	l.Notify("x")
	assert.Equal(t, 2, count)
}

func TestListener_UnRegisterInsideNotify(t *testing.T) {
	l := NewListener[int]()
	var id uint64
	calls := 0
	id = l.Register(func(int) {
		calls++
		l.UnRegister(id)
	})
	l.Notify(1)
	l.Notify(2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, l.Len())
}
