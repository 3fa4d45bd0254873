// Package ledger holds the per-player, per-generation pack economy: pack
// counters, draw timestamps, points and bonus packs.
package ledger

import (
	"time"

	"github.com/toto789520/TCGP-bis/tcgp/config"
)

// GenState is one generation's counters for one player. Zero value means the
// player never touched the generation; callers bootstrap with NewGenState.
type GenState struct {
	AvailablePacks int       `json:"available_packs"`
	LastDrawTime   time.Time `json:"last_draw_time"`
	Points         int       `json:"points"`
	BonusPacks     int       `json:"bonus_packs"`
}

// NewGenState returns a fresh state with the full pack cap.
func NewGenState() GenState {
	return GenState{AvailablePacks: config.PacksPerCooldown}
}

// Settlement is the outcome of one draw settlement.
type Settlement struct {
	State       GenState
	EarnedBonus int
}

// SettleDraw applies one completed draw to a generation state. Order matters:
// pack decrement and bonus spend happen before newly earned bonus packs are
// credited, so spending and earning in the same settlement never offset.
// pointsPerCard values each drawn card; threshold is the role-dependent
// points-per-bonus-pack target.
func SettleDraw(state GenState, drawnCards, packsConsumed int, bonus bool, pointsPerCard, threshold int, now time.Time) Settlement {
	if bonus {
		state.BonusPacks -= packsConsumed
		if state.BonusPacks < 0 {
			state.BonusPacks = 0
		}
	} else {
		state.AvailablePacks -= packsConsumed
		if state.AvailablePacks < 0 {
			state.AvailablePacks = 0
		}
		state.LastDrawTime = now
	}

	total := state.Points + drawnCards*pointsPerCard
	earned := 0
	if threshold > 0 {
		earned = total / threshold
		total = total % threshold
	}
	state.Points = total
	state.BonusPacks += earned

	return Settlement{State: state, EarnedBonus: earned}
}
