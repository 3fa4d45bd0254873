package session

import (
	"errors"
	"reflect"
	"testing"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
)

func booster(n int) []catalog.Instance {
	out := make([]catalog.Instance, n)
	for i := range out {
		out[i] = catalog.Instance{
			Card:       catalog.Card{ID: i + 1},
			InstanceID: string(rune('a' + i)),
		}
	}
	return out
}

func TestReveal(t *testing.T) {
	s := New(booster(4))

	if !s.Reveal(1) {
		t.Error("first reveal of slot 1 should change state")
	}
	if s.Reveal(1) {
		t.Error("second reveal of slot 1 should be a no-op")
	}
	if s.Reveal(-1) || s.Reveal(4) {
		t.Error("out-of-range reveals should be no-ops")
	}
	if got := s.Revealed(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("Revealed() = %v, want [1]", got)
	}
}

func TestRevealedSorted(t *testing.T) {
	s := New(booster(5))
	for _, i := range []int{3, 0, 4, 2, 1} {
		s.Reveal(i)
	}
	if got := s.Revealed(); !reflect.DeepEqual(got, []int{0, 1, 2, 3, 4}) {
		t.Errorf("Revealed() = %v, want ascending order", got)
	}
}

func TestCloseRequiresFullReveal(t *testing.T) {
	s := New(booster(4))
	s.Reveal(0)
	s.Reveal(1)

	if _, err := s.Close(); !errors.Is(err, ErrNotFullyRevealed) {
		t.Fatalf("Close() error = %v, want ErrNotFullyRevealed", err)
	}

	s.Reveal(2)
	s.Reveal(3)
	cards, err := s.Close()
	if err != nil {
		t.Fatalf("Close() after full reveal error = %v", err)
	}
	if len(cards) != 4 {
		t.Errorf("Close() returned %d cards, want 4", len(cards))
	}
}

func TestCloseExactlyOnce(t *testing.T) {
	s := New(booster(2))
	s.Reveal(0)
	s.Reveal(1)

	if _, err := s.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if _, err := s.Close(); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("second Close() error = %v, want ErrAlreadyClosed", err)
	}
	if s.Reveal(0) {
		t.Error("Reveal() after close should be a no-op")
	}
}

func TestCloseEmptySession(t *testing.T) {
	s := New(nil)
	if _, err := s.Close(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Close() on empty session error = %v, want ErrNoSession", err)
	}
}

func TestResumeDropsOutOfRange(t *testing.T) {
	s := Resume(booster(3), []int{0, 2, 7, -1})

	if got := s.Revealed(); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Errorf("Revealed() = %v, want [0 2]", got)
	}
	if s.FullyRevealed() {
		t.Error("session with slot 1 hidden reported fully revealed")
	}

	s.Reveal(1)
	if !s.FullyRevealed() {
		t.Error("session should be fully revealed")
	}
}

func TestBoosterIsACopy(t *testing.T) {
	s := New(booster(3))
	got := s.Booster()
	got[0].ID = 999

	if s.Booster()[0].ID == 999 {
		t.Error("Booster() must return a copy, not the backing slice")
	}
	if s.Size() != 3 {
		t.Errorf("Size() = %d, want 3", s.Size())
	}
}
