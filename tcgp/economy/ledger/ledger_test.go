package ledger

import (
	"testing"
	"time"
)

func TestSettleDraw(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		state         GenState
		drawnCards    int
		packsConsumed int
		bonus         bool
		pointsPerCard int
		threshold     int
		want          GenState
		wantEarned    int
	}{
		{
			name:          "standard draw consumes a pack and stamps the time",
			state:         NewGenState(),
			drawnCards:    4,
			packsConsumed: 1,
			pointsPerCard: 1,
			threshold:     30,
			want:          GenState{AvailablePacks: 2, LastDrawTime: now, Points: 4},
		},
		{
			name:          "points cross the threshold",
			state:         GenState{AvailablePacks: 1, Points: 28},
			drawnCards:    5,
			packsConsumed: 1,
			pointsPerCard: 1,
			threshold:     30,
			want:          GenState{AvailablePacks: 0, LastDrawTime: now, Points: 3, BonusPacks: 1},
			wantEarned:    1,
		},
		{
			name:          "vip threshold earns sooner",
			state:         GenState{AvailablePacks: 3, Points: 18},
			drawnCards:    4,
			packsConsumed: 1,
			pointsPerCard: 1,
			threshold:     20,
			want:          GenState{AvailablePacks: 2, LastDrawTime: now, Points: 2, BonusPacks: 1},
			wantEarned:    1,
		},
		{
			name:          "bonus draw spends bonus packs and keeps the timestamp",
			state:         GenState{AvailablePacks: 2, BonusPacks: 2},
			drawnCards:    4,
			packsConsumed: 1,
			bonus:         true,
			pointsPerCard: 1,
			threshold:     30,
			want:          GenState{AvailablePacks: 2, Points: 4, BonusPacks: 1},
		},
		{
			name:          "bonus spend floors at zero",
			state:         GenState{BonusPacks: 1},
			drawnCards:    8,
			packsConsumed: 3,
			bonus:         true,
			pointsPerCard: 1,
			threshold:     30,
			want:          GenState{Points: 8},
		},
		{
			name:          "pack count floors at zero",
			state:         GenState{AvailablePacks: 1},
			drawnCards:    9,
			packsConsumed: 2,
			pointsPerCard: 1,
			threshold:     30,
			want:          GenState{LastDrawTime: now, Points: 9},
		},
		{
			name:          "spend and earn in one settlement do not offset",
			state:         GenState{BonusPacks: 1, Points: 28},
			drawnCards:    4,
			packsConsumed: 1,
			bonus:         true,
			pointsPerCard: 1,
			threshold:     30,
			want:          GenState{Points: 2, BonusPacks: 1},
			wantEarned:    1,
		},
		{
			name:          "tuned points per card scale the haul",
			state:         GenState{AvailablePacks: 2},
			drawnCards:    4,
			packsConsumed: 1,
			pointsPerCard: 2,
			threshold:     30,
			want:          GenState{AvailablePacks: 1, LastDrawTime: now, Points: 8},
		},
		{
			name:          "zero threshold never earns",
			state:         GenState{AvailablePacks: 3, Points: 90},
			drawnCards:    4,
			packsConsumed: 1,
			pointsPerCard: 1,
			threshold:     0,
			want:          GenState{AvailablePacks: 2, LastDrawTime: now, Points: 94},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SettleDraw(tt.state, tt.drawnCards, tt.packsConsumed, tt.bonus, tt.pointsPerCard, tt.threshold, now)
			if got.State != tt.want {
				t.Errorf("SettleDraw() state = %+v, want %+v", got.State, tt.want)
			}
			if got.EarnedBonus != tt.wantEarned {
				t.Errorf("SettleDraw() earned = %d, want %d", got.EarnedBonus, tt.wantEarned)
			}
		})
	}
}

func TestNewGenState(t *testing.T) {
	st := NewGenState()
	if st.AvailablePacks != 3 {
		t.Errorf("NewGenState() packs = %d, want 3", st.AvailablePacks)
	}
	if !st.LastDrawTime.IsZero() || st.Points != 0 || st.BonusPacks != 0 {
		t.Errorf("NewGenState() = %+v, want zeroed counters", st)
	}
}
