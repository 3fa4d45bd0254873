package gacha

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/config"
)

var (
	// ErrEmptyCatalog means not even the common bucket has cards for the
	// generation, so no slot can be filled.
	ErrEmptyCatalog = errors.New("gacha: generation has no drawable cards")

	// ErrNoPacks is returned when a draw asks for zero or too many packs.
	ErrNoPacks = errors.New("gacha: invalid pack count")
)

// BucketSource is the slice of the catalog the composer needs.
type BucketSource interface {
	Bucket(ctx context.Context, genID string, rarity catalog.Rarity) ([]catalog.Card, error)
}

// Tuning adjusts pack composition odds and duplicate limiting. Values come
// from the game config; DefaultTuning carries the stock numbers.
type Tuning struct {
	FiveCardChance float64
	DuplicateCap   int
	DrawAttemptCap int
}

func DefaultTuning() Tuning {
	return Tuning{
		FiveCardChance: config.FiveCardChance,
		DuplicateCap:   config.DuplicateCap,
		DrawAttemptCap: config.DrawAttemptCap,
	}
}

// Composer assembles booster packs from the catalog.
type Composer struct {
	source BucketSource
	rng    RandomSource
	tuning Tuning
	now    func() time.Time
}

func NewComposer(source BucketSource, rng RandomSource, tuning Tuning) *Composer {
	// A cap below one would make every draw a redraw.
	if tuning.DuplicateCap < 1 {
		tuning.DuplicateCap = config.DuplicateCap
	}
	if tuning.DrawAttemptCap < 1 {
		tuning.DrawAttemptCap = config.DrawAttemptCap
	}
	return &Composer{
		source: source,
		rng:    rng,
		tuning: tuning,
		now:    time.Now,
	}
}

// OpenPacks draws packCount packs for a generation and returns every card
// instance in slot order. Each pack has 4 cards, or 5 with the tuned chance.
// A duplicate is allowed up to the tuned cap across the whole batch; after
// the attempt cap the duplicate is accepted rather than looping forever.
// Any bucket fetch error aborts the entire batch.
func (c *Composer) OpenPacks(ctx context.Context, genID string, packCount int, vip bool) ([]catalog.Instance, error) {
	if packCount < 1 || packCount > config.MaxPacksPerOpen {
		return nil, fmt.Errorf("%w: %d", ErrNoPacks, packCount)
	}

	drawn := make([]catalog.Instance, 0, packCount*config.PackMaxSize)
	copies := make(map[int]int)

	for p := 0; p < packCount; p++ {
		size := config.PackBaseSize
		if c.rng.Float64() < c.tuning.FiveCardChance {
			size = config.PackMaxSize
		}

		for slot := 0; slot < size; slot++ {
			inst, err := c.drawSlot(ctx, genID, slot, vip, copies)
			if err != nil {
				return nil, err
			}
			copies[inst.ID]++
			drawn = append(drawn, inst)
		}
	}

	return drawn, nil
}

func (c *Composer) drawSlot(ctx context.Context, genID string, slot int, vip bool, copies map[int]int) (catalog.Instance, error) {
	rarity := ResolveRarity(slot, vip, c.rng)

	list, err := c.source.Bucket(ctx, genID, rarity)
	if err != nil {
		return catalog.Instance{}, fmt.Errorf("draw aborted: %w", err)
	}

	// Empty or missing bucket falls back to common, and the card is
	// recorded as common.
	if len(list) == 0 && rarity != catalog.RarityCommon {
		rarity = catalog.RarityCommon
		list, err = c.source.Bucket(ctx, genID, rarity)
		if err != nil {
			return catalog.Instance{}, fmt.Errorf("draw aborted: %w", err)
		}
	}
	if len(list) == 0 {
		return catalog.Instance{}, fmt.Errorf("%w: %s", ErrEmptyCatalog, genID)
	}

	card := list[c.rng.IntN(len(list))]
	for attempt := 0; copies[card.ID] >= c.tuning.DuplicateCap && attempt < c.tuning.DrawAttemptCap; attempt++ {
		card = list[c.rng.IntN(len(list))]
	}

	return catalog.Instance{
		Card:        card,
		InstanceID:  uuid.NewString(),
		Rarity:      rarity,
		Generation:  genID,
		SpecialSlot: slot == config.SpecialSlotIndex,
		AcquiredAt:  c.now().UTC(),
	}, nil
}
