// Package reduce implements the timed-lock merge of thread-local
// observables into the global state (spec §4.E), including the texture
// autoscale recomputation performed by particle id 0 under the lock.
package reduce

import (
	"sync"
	"time"

	"github.com/iBaer/molflow-core/model"
	"github.com/iBaer/molflow-core/observe"
)

// Mutex is a timed mutual-exclusion lock. Go's sync.Mutex has no
// try-lock-with-timeout primitive (unlike the reference implementation's
// std::timed_mutex), so TryLockFor polls Mutex.TryLock with a short
// backoff until it succeeds or the timeout elapses — the idiomatic Go
// substitute (DESIGN.md's reduce-package entry).
type Mutex struct {
	mu sync.Mutex
}

// TryLockFor attempts to acquire the lock within timeout, retrying every
// backoff interval. Returns false on timeout (spec §4.E step 1, §7
// "Transient" policy).
func (m *Mutex) TryLockFor(timeout time.Duration, backoff time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if m.mu.TryLock() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(backoff)
	}
}

// Unlock releases the lock.
func (m *Mutex) Unlock() {
	m.mu.Unlock()
}

// Reducer owns the global state's timed mutex and performs merges.
type Reducer struct {
	mu     Mutex
	global *observe.GlobalState
	model  *model.Model
}

// NewReducer binds a reducer to a global state and model snapshot.
func NewReducer(global *observe.GlobalState, m *model.Model) *Reducer {
	return &Reducer{global: global, model: m}
}

// UpdateMCHits merges thread into the global state under the timed mutex
// (spec §4.E). Returns false on lock timeout without merging (the driver
// may retry with backoff, spec §7 "Transient").
func (r *Reducer) UpdateMCHits(thread *observe.ThreadState, timeout, backoff time.Duration) bool {
	if !r.mu.TryLockFor(timeout, backoff) {
		return false
	}
	defer r.mu.Unlock()

	r.global.State.Add(&thread.State)

	r.global.LeakCache.AppendAll(&thread.LeakCache)

	if thread.ParticleID == 0 {
		r.global.HitCache.Push(observe.HitRecord{Type: observe.HitLast})
		r.global.HitCache.AppendAll(&thread.HitCache)
		r.recomputeTextureLimits()
	}

	return true
}
