// Package session tracks an in-progress pack opening: the drawn cards and
// which slots the player has flipped so far.
package session

import (
	"errors"
	"sort"
	"sync"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
)

var (
	ErrNoSession        = errors.New("session: no booster in progress")
	ErrSessionOpen      = errors.New("session: a booster is already in progress")
	ErrNotFullyRevealed = errors.New("session: booster not fully revealed")
	ErrAlreadyClosed    = errors.New("session: booster already closed")
)

// Session is one player's reveal state. All methods are safe for concurrent
// use. A session moves OPEN -> CLOSED once and is never reused.
type Session struct {
	mu       sync.Mutex
	booster  []catalog.Instance
	revealed map[int]struct{}
	closed   bool
}

// New opens a session over freshly drawn cards.
func New(booster []catalog.Instance) *Session {
	return &Session{
		booster:  booster,
		revealed: make(map[int]struct{}, len(booster)),
	}
}

// Resume rebuilds a session from persisted state. Revealed indices outside
// the booster bounds are dropped rather than rejected, so a stale persisted
// record cannot wedge the player.
func Resume(booster []catalog.Instance, revealed []int) *Session {
	s := New(booster)
	for _, i := range revealed {
		if i >= 0 && i < len(booster) {
			s.revealed[i] = struct{}{}
		}
	}
	return s
}

// Reveal marks one slot face-up. Revealing an already-revealed or
// out-of-range slot is a no-op. Reports whether the slot state changed.
func (s *Session) Reveal(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || i < 0 || i >= len(s.booster) {
		return false
	}
	if _, ok := s.revealed[i]; ok {
		return false
	}
	s.revealed[i] = struct{}{}
	return true
}

// Revealed returns the revealed slot indices in ascending order.
func (s *Session) Revealed() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]int, 0, len(s.revealed))
	for i := range s.revealed {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Booster returns the drawn cards in slot order.
func (s *Session) Booster() []catalog.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]catalog.Instance, len(s.booster))
	copy(out, s.booster)
	return out
}

// Size returns the number of cards in the booster.
func (s *Session) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.booster)
}

// FullyRevealed reports whether every slot has been flipped.
func (s *Session) FullyRevealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.revealed) == len(s.booster)
}

// Close finishes the session and hands back the drawn cards for settlement.
// It succeeds exactly once, and only after every slot is revealed.
func (s *Session) Close() ([]catalog.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrAlreadyClosed
	}
	if len(s.booster) == 0 {
		return nil, ErrNoSession
	}
	if len(s.revealed) != len(s.booster) {
		return nil, ErrNotFullyRevealed
	}

	cards := s.booster
	s.booster = nil
	s.revealed = map[int]struct{}{}
	s.closed = true
	return cards, nil
}
