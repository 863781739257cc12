package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls, last int32

	for i := int32(1); i <= 5; i++ {
		v := i
		d.Trigger("u1", func() {
			atomic.AddInt32(&calls, 1)
			atomic.StoreInt32(&last, v)
		})
	}
	assert.Equal(t, 1, d.Pending())

	eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 })
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(5), atomic.LoadInt32(&last))
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var a, b int32
	d.Trigger("a", func() { atomic.AddInt32(&a, 1) })
	d.Trigger("b", func() { atomic.AddInt32(&b, 1) })
	assert.Equal(t, 2, d.Pending())

	eventually(t, func() bool { return atomic.LoadInt32(&a) == 1 && atomic.LoadInt32(&b) == 1 })
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls int32
	d.Trigger("u1", func() { atomic.AddInt32(&calls, 1) })

	assert.True(t, d.Cancel("u1"))
	assert.False(t, d.Cancel("u1"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls int32
	d.Trigger("u1", func() { atomic.AddInt32(&calls, 1) })
	d.Trigger("u2", func() { atomic.AddInt32(&calls, 1) })

	d.Stop()
	assert.Equal(t, 0, d.Pending())

	d.Trigger("u3", func() { atomic.AddInt32(&calls, 1) })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, d.Pending())
}
