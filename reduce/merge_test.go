package reduce

import (
	"testing"
	"time"
)

func TestMutexTryLockForSucceedsWhenFree(t *testing.T) {
	var m Mutex
	if !m.TryLockFor(50*time.Millisecond, time.Millisecond) {
		t.Fatal("TryLockFor failed to acquire a free lock")
	}
	m.Unlock()
}

func TestMutexTryLockForTimesOutWhenHeld(t *testing.T) {
	var m Mutex
	if !m.TryLockFor(time.Millisecond, time.Millisecond) {
		t.Fatal("setup: could not acquire lock")
	}
	defer m.Unlock()

	start := time.Now()
	ok := m.TryLockFor(20*time.Millisecond, time.Millisecond)
	elapsed := time.Since(start)
	if ok {
		t.Error("TryLockFor succeeded on an already-held lock")
	}
	if elapsed < 15*time.Millisecond {
		t.Errorf("TryLockFor returned after %v, want it to respect the ~20ms timeout", elapsed)
	}
}

func TestMutexTryLockForSucceedsOnceReleased(t *testing.T) {
	var m Mutex
	if !m.TryLockFor(time.Millisecond, time.Millisecond) {
		t.Fatal("setup: could not acquire lock")
	}
	go func() {
		time.Sleep(5 * time.Millisecond)
		m.Unlock()
	}()
	if !m.TryLockFor(100*time.Millisecond, time.Millisecond) {
		t.Fatal("TryLockFor did not acquire the lock after it was released")
	}
	m.Unlock()
}
