// Package search backs the binder view: completion stats per rarity and
// fuzzy card lookup within a generation roster.
package search

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/store"
)

// rosterItems implements fuzzy.Source over a generation roster.
type rosterItems []catalog.RosterCard

func (r rosterItems) Len() int {
	return len(r)
}

func (r rosterItems) String(i int) string {
	return strings.ToLower(r[i].Name)
}

// BucketStats counts binder completion for one rarity.
type BucketStats struct {
	Owned int `json:"owned"`
	Total int `json:"total"`
}

// BinderEntry pairs a roster card with how many copies the player owns.
type BinderEntry struct {
	catalog.RosterCard
	OwnedCopies int `json:"owned_copies"`
}

// RosterSource is the slice of the catalog loader the binder needs.
type RosterSource interface {
	LoadGeneration(ctx context.Context, genID string) ([]catalog.RosterCard, error)
}

// BinderService assembles the binder view for one player and generation.
type BinderService struct {
	loader RosterSource
	store  store.Store
}

func NewBinderService(loader RosterSource, st store.Store) *BinderService {
	return &BinderService{loader: loader, store: st}
}

// Binder returns the full roster annotated with owned copies, plus
// completion stats per rarity and overall.
func (b *BinderService) Binder(ctx context.Context, playerID, genID string) ([]BinderEntry, map[catalog.Rarity]BucketStats, error) {
	roster, err := b.loader.LoadGeneration(ctx, genID)
	if err != nil {
		return nil, nil, err
	}

	player, err := b.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}

	owned := make(map[int]int, len(player.Collection))
	for _, c := range player.Collection {
		if c.Generation == genID {
			owned[c.ID]++
		}
	}

	entries := make([]BinderEntry, len(roster))
	stats := make(map[catalog.Rarity]BucketStats, len(catalog.Buckets))
	for _, rarity := range catalog.Buckets {
		stats[rarity] = BucketStats{}
	}

	for i, card := range roster {
		copies := owned[card.ID]
		entries[i] = BinderEntry{RosterCard: card, OwnedCopies: copies}

		st := stats[card.Rarity]
		st.Total++
		if copies > 0 {
			st.Owned++
		}
		stats[card.Rarity] = st
	}

	return entries, stats, nil
}

// Search fuzzy-matches a query against card names in a generation, best
// matches first.
func (b *BinderService) Search(ctx context.Context, genID, query string) ([]catalog.RosterCard, error) {
	roster, err := b.loader.LoadGeneration(ctx, genID)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return roster, nil
	}

	matches := fuzzy.FindFrom(query, rosterItems(roster))
	results := make([]catalog.RosterCard, len(matches))
	for i, m := range matches {
		results[i] = roster[m.Index]
	}
	return results, nil
}
