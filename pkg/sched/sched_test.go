package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleFires(t *testing.T) {
	s := New()
	defer s.Stop()

	fired := make(chan struct{})
	ok := s.Schedule("k", 10*time.Millisecond, func() { close(fired) })
	require.True(t, ok)
	assert.True(t, s.Pending("k"))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("task did not fire")
	}
	assert.False(t, s.Pending("k"))
}

func TestScheduleSameKeyIsNoOp(t *testing.T) {
	s := New()
	defer s.Stop()

	var count atomic.Int32
	require.True(t, s.Schedule("k", 20*time.Millisecond, func() { count.Add(1) }))
	assert.False(t, s.Schedule("k", time.Millisecond, func() { count.Add(1) }))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), count.Load())
}

func TestCancelPreventsFire(t *testing.T) {
	s := New()
	defer s.Stop()

	var fired atomic.Bool
	require.True(t, s.Schedule("k", 20*time.Millisecond, func() { fired.Store(true) }))
	assert.True(t, s.Cancel("k"))
	assert.False(t, s.Pending("k"))

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestCancelUnknownKey(t *testing.T) {
	s := New()
	defer s.Stop()
	assert.False(t, s.Cancel("missing"))
}

func TestReplace(t *testing.T) {
	s := New()
	defer s.Stop()

	var first, second atomic.Bool
	require.True(t, s.Schedule("k", 10*time.Millisecond, func() { first.Store(true) }))
	require.True(t, s.Replace("k", 20*time.Millisecond, func() { second.Store(true) }))

	time.Sleep(100 * time.Millisecond)
	assert.False(t, first.Load())
	assert.True(t, second.Load())
}

func TestKeyReusableFromCallback(t *testing.T) {
	s := New()
	defer s.Stop()

	done := make(chan struct{})
	require.True(t, s.Schedule("k", 5*time.Millisecond, func() {
		// Key released before the callback runs
		if s.Schedule("k", 5*time.Millisecond, func() { close(done) }) {
			return
		}
		t.Error("reschedule from callback rejected")
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("rescheduled task did not fire")
	}
}

func TestStopCancelsAll(t *testing.T) {
	s := New()

	var fired atomic.Int32
	s.Schedule("a", 20*time.Millisecond, func() { fired.Add(1) })
	s.Schedule("b", 20*time.Millisecond, func() { fired.Add(1) })
	s.Stop()

	assert.False(t, s.Schedule("c", time.Millisecond, func() { fired.Add(1) }))
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}
