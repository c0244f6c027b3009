package reconnect

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimer_Fires(t *testing.T) {
	var tm Timer
	fired := make(chan struct{})

	tm.Schedule(10*time.Millisecond, func() { close(fired) })
	if !tm.Pending() {
		t.Error("Pending() = false right after Schedule")
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	if tm.Pending() {
		t.Error("Pending() = true after firing")
	}
}

func TestTimer_Cancel(t *testing.T) {
	var tm Timer
	var calls atomic.Int32

	tm.Schedule(20*time.Millisecond, func() { calls.Add(1) })
	if !tm.Cancel() {
		t.Error("Cancel() = false with a pending callback")
	}
	if tm.Cancel() {
		t.Error("second Cancel() = true")
	}

	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("canceled callback ran %d times", calls.Load())
	}
}

func TestTimer_ScheduleReplacesPending(t *testing.T) {
	var tm Timer
	var first, second atomic.Int32
	done := make(chan struct{})

	tm.Schedule(20*time.Millisecond, func() { first.Add(1) })
	tm.Schedule(30*time.Millisecond, func() {
		second.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("replacement callback did not fire")
	}
	time.Sleep(20 * time.Millisecond)

	if first.Load() != 0 {
		t.Errorf("replaced callback ran %d times", first.Load())
	}
	if second.Load() != 1 {
		t.Errorf("replacement callback ran %d times, want 1", second.Load())
	}
}
