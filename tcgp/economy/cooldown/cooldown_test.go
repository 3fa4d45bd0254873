package cooldown

import (
	"testing"
	"time"

	"github.com/toto789520/TCGP-bis/tcgp/economy/ledger"
)

func TestCheck(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 7 * time.Minute

	tests := []struct {
		name      string
		state     ledger.GenState
		packCap   int
		wantPacks int
		wantRegen bool
	}{
		{
			name:      "full packs untouched",
			state:     ledger.GenState{AvailablePacks: 3, LastDrawTime: now.Add(-time.Minute)},
			packCap:   3,
			wantPacks: 3,
		},
		{
			name:      "never drew regenerates",
			state:     ledger.GenState{AvailablePacks: 0},
			packCap:   3,
			wantPacks: 3,
			wantRegen: true,
		},
		{
			name:      "window not elapsed",
			state:     ledger.GenState{AvailablePacks: 0, LastDrawTime: now.Add(-window + time.Second)},
			packCap:   3,
			wantPacks: 0,
		},
		{
			name:      "window elapsed",
			state:     ledger.GenState{AvailablePacks: 0, LastDrawTime: now.Add(-window - time.Second)},
			packCap:   3,
			wantPacks: 3,
			wantRegen: true,
		},
		{
			name:      "partial packs never top up",
			state:     ledger.GenState{AvailablePacks: 1, LastDrawTime: now.Add(-window - time.Second)},
			packCap:   3,
			wantPacks: 1,
		},
		{
			name:      "partial packs inside the window stay put",
			state:     ledger.GenState{AvailablePacks: 2, LastDrawTime: now.Add(-time.Minute)},
			packCap:   3,
			wantPacks: 2,
		},
		{
			name:      "regeneration honors the configured cap",
			state:     ledger.GenState{AvailablePacks: 0, LastDrawTime: now.Add(-window - time.Second)},
			packCap:   5,
			wantPacks: 5,
			wantRegen: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, regen := Check(tt.state, tt.packCap, window, now)
			if got.AvailablePacks != tt.wantPacks {
				t.Errorf("Check() packs = %d, want %d", got.AvailablePacks, tt.wantPacks)
			}
			if regen != tt.wantRegen {
				t.Errorf("Check() regenerated = %v, want %v", regen, tt.wantRegen)
			}
			if !got.LastDrawTime.Equal(tt.state.LastDrawTime) {
				t.Errorf("Check() moved LastDrawTime to %v", got.LastDrawTime)
			}
		})
	}
}

func TestRemaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := 7 * time.Minute

	tests := []struct {
		name  string
		state ledger.GenState
		want  time.Duration
	}{
		{
			name:  "packs available",
			state: ledger.GenState{AvailablePacks: 2, LastDrawTime: now.Add(-time.Minute)},
			want:  0,
		},
		{
			name:  "never drew",
			state: ledger.GenState{},
			want:  0,
		},
		{
			name:  "mid cooldown",
			state: ledger.GenState{LastDrawTime: now.Add(-2 * time.Minute)},
			want:  5 * time.Minute,
		},
		{
			name:  "overdue",
			state: ledger.GenState{LastDrawTime: now.Add(-time.Hour)},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Remaining(tt.state, window, now); got != tt.want {
				t.Errorf("Remaining() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchedulerArm(t *testing.T) {
	fired := make(chan string, 4)
	s := NewScheduler(func(playerID, genID string) {
		fired <- playerID + "/" + genID
	})
	defer s.Close()

	s.Arm("p1", "gen1", 10*time.Millisecond)

	select {
	case got := <-fired:
		if got != "p1/gen1" {
			t.Errorf("ready fired with %q, want p1/gen1", got)
		}
	case <-time.After(time.Second):
		t.Fatal("ready never fired")
	}
}

func TestSchedulerArmReplacesTimer(t *testing.T) {
	fired := make(chan struct{}, 4)
	s := NewScheduler(func(string, string) { fired <- struct{}{} })
	defer s.Close()

	s.Arm("p1", "gen1", time.Hour)
	s.Arm("p1", "gen1", 10*time.Millisecond)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("rearmed timer never fired")
	}

	select {
	case <-fired:
		t.Fatal("cancelled timer fired too")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSchedulerImmediateFire(t *testing.T) {
	fired := make(chan struct{}, 1)
	s := NewScheduler(func(string, string) { fired <- struct{}{} })
	defer s.Close()

	s.Arm("p1", "gen1", 0)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("non-positive delay must fire immediately")
	}
}

func TestSchedulerCancel(t *testing.T) {
	fired := make(chan struct{}, 1)
	s := NewScheduler(func(string, string) { fired <- struct{}{} })
	defer s.Close()

	s.Arm("p1", "gen1", 20*time.Millisecond)
	s.Cancel("p1", "gen1")

	select {
	case <-fired:
		t.Fatal("cancelled timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}
