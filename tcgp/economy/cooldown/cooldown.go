// Package cooldown decides when a generation's packs regenerate and drives
// the per-player countdown timers behind the "packs ready" signal.
package cooldown

import (
	"sync"
	"time"

	"github.com/toto789520/TCGP-bis/tcgp/economy/ledger"
)

// Check lazily regenerates a generation state. Regeneration only happens from
// an exhausted state: once available packs hit zero and the role's cooldown
// window has fully elapsed since the last draw, packs reset to packCap. A
// partial pack count never tops up, and the last-draw timestamp is left
// alone. Returns the (possibly updated) state and whether regeneration
// happened.
func Check(state ledger.GenState, packCap int, window time.Duration, now time.Time) (ledger.GenState, bool) {
	if state.AvailablePacks > 0 {
		return state, false
	}
	if !state.LastDrawTime.IsZero() && now.Sub(state.LastDrawTime) < window {
		return state, false
	}
	state.AvailablePacks = packCap
	return state, true
}

// Remaining reports how long until the next regeneration, zero when packs are
// already available or due.
func Remaining(state ledger.GenState, window time.Duration, now time.Time) time.Duration {
	if state.AvailablePacks > 0 || state.LastDrawTime.IsZero() {
		return 0
	}
	left := window - now.Sub(state.LastDrawTime)
	if left < 0 {
		return 0
	}
	return left
}

// Scheduler arms at most one countdown timer per player and generation.
// Arming again always cancels the previous timer first. The Ready callback
// fires from the timer goroutine when the countdown reaches zero.
type Scheduler struct {
	timers sync.Map // "playerID|genID" -> *time.Timer
	ready  func(playerID, genID string)
}

func NewScheduler(ready func(playerID, genID string)) *Scheduler {
	if ready == nil {
		ready = func(string, string) {}
	}
	return &Scheduler{ready: ready}
}

func key(playerID, genID string) string {
	return playerID + "|" + genID
}

// Arm schedules the ready signal after d. A non-positive d fires immediately.
func (s *Scheduler) Arm(playerID, genID string, d time.Duration) {
	k := key(playerID, genID)
	s.cancelKey(k)

	if d <= 0 {
		s.ready(playerID, genID)
		return
	}

	t := time.AfterFunc(d, func() {
		s.timers.Delete(k)
		s.ready(playerID, genID)
	})
	if prev, loaded := s.timers.Swap(k, t); loaded {
		prev.(*time.Timer).Stop()
	}
}

// Cancel stops a pending timer for one player and generation, if any.
func (s *Scheduler) Cancel(playerID, genID string) {
	s.cancelKey(key(playerID, genID))
}

func (s *Scheduler) cancelKey(k string) {
	if t, loaded := s.timers.LoadAndDelete(k); loaded {
		t.(*time.Timer).Stop()
	}
}

// Close stops every pending timer.
func (s *Scheduler) Close() {
	s.timers.Range(func(k, v any) bool {
		v.(*time.Timer).Stop()
		s.timers.Delete(k)
		return true
	})
}
