package reconcile

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_Basic(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50*time.Millisecond, func() {
		callCount.Add(1)
	})

	for i := 0; i < 10; i++ {
		d.Call()
	}

	time.Sleep(100 * time.Millisecond)

	if callCount.Load() != 1 {
		t.Errorf("callCount = %d, want 1", callCount.Load())
	}
}

func TestDebouncer_TrailingEdge(t *testing.T) {
	var fired atomic.Int64

	d := NewDebouncer(60*time.Millisecond, func() {
		fired.Store(time.Now().UnixNano())
	})

	d.Call()
	time.Sleep(30 * time.Millisecond)
	d.Call()
	time.Sleep(30 * time.Millisecond)
	last := time.Now()
	d.Call()

	time.Sleep(150 * time.Millisecond)

	if fired.Load() == 0 {
		t.Fatal("callback never fired")
	}
	if elapsed := time.Unix(0, fired.Load()).Sub(last); elapsed < 60*time.Millisecond {
		t.Errorf("fired %v after last call, want >= 60ms", elapsed)
	}
}

func TestDebouncer_SpacedCalls(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(30*time.Millisecond, func() {
		callCount.Add(1)
	})

	for i := 0; i < 3; i++ {
		d.Call()
		time.Sleep(80 * time.Millisecond)
	}

	if callCount.Load() != 3 {
		t.Errorf("callCount = %d, want 3", callCount.Load())
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(50*time.Millisecond, func() {
		callCount.Add(1)
	})

	d.Call()
	if !d.IsPending() {
		t.Error("expected pending call")
	}
	d.Cancel()
	if d.IsPending() {
		t.Error("expected no pending call after Cancel")
	}

	time.Sleep(100 * time.Millisecond)

	if callCount.Load() != 0 {
		t.Errorf("callCount = %d, want 0", callCount.Load())
	}
}

func TestDebouncer_Flush(t *testing.T) {
	var callCount atomic.Int32

	d := NewDebouncer(time.Hour, func() {
		callCount.Add(1)
	})

	d.Flush()
	if callCount.Load() != 0 {
		t.Errorf("callCount = %d after idle Flush, want 0", callCount.Load())
	}

	d.Call()
	d.Flush()
	if callCount.Load() != 1 {
		t.Errorf("callCount = %d, want 1", callCount.Load())
	}
	if d.IsPending() {
		t.Error("expected no pending call after Flush")
	}
}
