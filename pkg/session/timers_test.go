package session_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cicerone-chat/cicerone/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimers_Fires(t *testing.T) {
	timers := session.NewTimers()
	fired := make(chan struct{})

	timers.Schedule("s1", time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.Equal(t, 0, timers.Pending("s1"), "fired timer is forgotten")
}

func TestTimers_TouchCancelsPending(t *testing.T) {
	timers := session.NewTimers()
	var fired atomic.Int32

	timers.Schedule("s1", 20*time.Millisecond, func() { fired.Add(1) })
	timers.Schedule("s1", 20*time.Millisecond, func() { fired.Add(1) })
	require.Equal(t, 2, timers.Pending("s1"))

	timers.Touch("s1")
	assert.Equal(t, 0, timers.Pending("s1"))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "no timer fires after activity")
}

func TestTimers_TouchIsScopedToSession(t *testing.T) {
	timers := session.NewTimers()
	fired := make(chan struct{})

	timers.Schedule("s1", 10*time.Millisecond, func() { close(fired) })
	timers.Schedule("s2", time.Hour, func() { t.Error("s2 must not fire") })

	timers.Touch("s2")

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("s1 timer was cancelled by another session's activity")
	}
}

func TestTimers_CancelSingle(t *testing.T) {
	timers := session.NewTimers()
	var fired atomic.Int32

	cancel := timers.Schedule("s1", 20*time.Millisecond, func() { fired.Add(1) })
	keep := make(chan struct{})
	timers.Schedule("s1", 20*time.Millisecond, func() { close(keep) })

	cancel()
	assert.Equal(t, 1, timers.Pending("s1"))

	select {
	case <-keep:
	case <-time.After(time.Second):
		t.Fatal("second timer should still fire")
	}
	assert.Equal(t, int32(0), fired.Load())
}

func TestTimers_ReleaseAfterHandover(t *testing.T) {
	timers := session.NewTimers()
	var fired atomic.Int32

	timers.Schedule("s1", 10*time.Millisecond, func() { fired.Add(1) })
	timers.Release("s1")

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "a timer never fires after the session left awaiting-human")
}

func TestTimers_ConcurrentScheduleAndTouch(t *testing.T) {
	timers := session.NewTimers()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			timers.Schedule("s1", time.Millisecond, func() {})
		}()
		go func() {
			defer wg.Done()
			timers.Touch("s1")
		}()
	}
	wg.Wait()

	// Everything either fired or was cancelled; nothing may linger forever.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, timers.Pending("s1"))
}
