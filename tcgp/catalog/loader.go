package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/toto789520/TCGP-bis/tcgp/config"
)

// Loader assembles and caches generation rosters on top of a Source.
// Concurrent loads of the same generation are collapsed into one fetch.
type Loader struct {
	source  Source
	rosters *lru.Cache[string, []RosterCard]
	buckets *lru.Cache[string, []Card]
	group   singleflight.Group
}

func NewLoader(source Source) (*Loader, error) {
	rosters, err := lru.New[string, []RosterCard](config.RosterCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create roster cache: %w", err)
	}
	buckets, err := lru.New[string, []Card](config.BucketCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket cache: %w", err)
	}
	return &Loader{
		source:  source,
		rosters: rosters,
		buckets: buckets,
	}, nil
}

// LoadGeneration returns the full roster for a generation: every bucket
// concatenated, sorted by catalog ID, with dense 1-based binder numbers.
// Generations with no bucket files at all come back empty, not as an error.
func (l *Loader) LoadGeneration(ctx context.Context, genID string) ([]RosterCard, error) {
	if roster, ok := l.rosters.Get(genID); ok {
		return roster, nil
	}

	v, err, _ := l.group.Do("roster:"+genID, func() (interface{}, error) {
		return l.buildRoster(ctx, genID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]RosterCard), nil
}

func (l *Loader) buildRoster(ctx context.Context, genID string) ([]RosterCard, error) {
	start := time.Now()

	roster := make([]RosterCard, 0, 64)
	for _, rarity := range Buckets {
		cards, err := l.Bucket(ctx, genID, rarity)
		if err != nil {
			return nil, fmt.Errorf("failed to load generation %s: %w", genID, err)
		}
		for _, c := range cards {
			roster = append(roster, RosterCard{Card: c, Rarity: rarity})
		}
	}

	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].ID < roster[j].ID
	})
	for i := range roster {
		roster[i].DisplayID = i + 1
	}

	l.rosters.Add(genID, roster)

	slog.Info("Generation roster loaded",
		slog.String("type", "sys"),
		slog.String("generation", genID),
		slog.Int("cards", len(roster)),
		slog.Duration("took", time.Since(start)),
	)
	return roster, nil
}

// Bucket returns one rarity bucket for a generation, cached. Missing buckets
// are cached as empty so repeated draws do not hammer the source.
func (l *Loader) Bucket(ctx context.Context, genID string, rarity Rarity) ([]Card, error) {
	key := genID + "/" + string(rarity)
	if cards, ok := l.buckets.Get(key); ok {
		return cards, nil
	}

	v, err, _ := l.group.Do("bucket:"+key, func() (interface{}, error) {
		cards, err := l.source.Bucket(ctx, genID, rarity)
		if err != nil {
			return nil, err
		}
		if cards == nil {
			cards = []Card{}
		}
		l.buckets.Add(key, cards)
		return cards, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Card), nil
}

// Invalidate drops cached data for one generation, forcing a refetch on the
// next load. Used by admin catalog refresh.
func (l *Loader) Invalidate(genID string) {
	l.rosters.Remove(genID)
	for _, rarity := range Buckets {
		l.buckets.Remove(genID + "/" + string(rarity))
	}
}
