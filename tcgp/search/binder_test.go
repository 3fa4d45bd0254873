package search

import (
	"context"
	"testing"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/store"
)

type staticRoster []catalog.RosterCard

func (s staticRoster) LoadGeneration(context.Context, string) ([]catalog.RosterCard, error) {
	return s, nil
}

func testRoster() staticRoster {
	return staticRoster{
		{Card: catalog.Card{ID: 1, Name: "Bulbizarre"}, Rarity: catalog.RarityCommon, DisplayID: 1},
		{Card: catalog.Card{ID: 4, Name: "Salamèche"}, Rarity: catalog.RarityCommon, DisplayID: 2},
		{Card: catalog.Card{ID: 25, Name: "Pikachu"}, Rarity: catalog.RarityRare, DisplayID: 3},
		{Card: catalog.Card{ID: 150, Name: "Mewtwo"}, Rarity: catalog.RarityUltraRare, DisplayID: 4},
	}
}

func seedCollector(t *testing.T, st *store.MemoryStore) {
	t.Helper()
	p := store.NewPlayer("p1")
	p.Collection = []catalog.Instance{
		{Card: catalog.Card{ID: 1}, Generation: "gen1"},
		{Card: catalog.Card{ID: 1}, Generation: "gen1"},
		{Card: catalog.Card{ID: 25}, Generation: "gen1"},
		// Same catalog id from another generation must not count.
		{Card: catalog.Card{ID: 4}, Generation: "gen2"},
	}
	if err := st.CreatePlayer(context.Background(), p); err != nil {
		t.Fatalf("CreatePlayer() error = %v", err)
	}
}

func TestBinder(t *testing.T) {
	st := store.NewMemoryStore()
	seedCollector(t, st)
	svc := NewBinderService(testRoster(), st)

	entries, stats, err := svc.Binder(context.Background(), "p1", "gen1")
	if err != nil {
		t.Fatalf("Binder() error = %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("Binder() returned %d entries, want the full roster of 4", len(entries))
	}

	owned := map[int]int{}
	for _, e := range entries {
		owned[e.ID] = e.OwnedCopies
	}
	want := map[int]int{1: 2, 4: 0, 25: 1, 150: 0}
	for id, n := range want {
		if owned[id] != n {
			t.Errorf("card %d owned copies = %d, want %d", id, owned[id], n)
		}
	}

	if got := stats[catalog.RarityCommon]; got.Owned != 1 || got.Total != 2 {
		t.Errorf("common stats = %+v, want 1/2", got)
	}
	if got := stats[catalog.RarityRare]; got.Owned != 1 || got.Total != 1 {
		t.Errorf("rare stats = %+v, want 1/1", got)
	}
	if got := stats[catalog.RarityUltraRare]; got.Owned != 0 || got.Total != 1 {
		t.Errorf("ultra rare stats = %+v, want 0/1", got)
	}
}

func TestBinderUnknownPlayer(t *testing.T) {
	svc := NewBinderService(testRoster(), store.NewMemoryStore())
	if _, _, err := svc.Binder(context.Background(), "ghost", "gen1"); err == nil {
		t.Error("Binder() for unknown player should fail")
	}
}

func TestSearch(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewBinderService(testRoster(), st)

	tests := []struct {
		name      string
		query     string
		wantFirst string
		wantLen   int
	}{
		{name: "exact", query: "pikachu", wantFirst: "Pikachu", wantLen: 1},
		{name: "partial", query: "mew", wantFirst: "Mewtwo", wantLen: 1},
		{name: "case and spacing", query: "  PIKA ", wantFirst: "Pikachu", wantLen: 1},
		{name: "empty query returns roster", query: "", wantLen: 4},
		{name: "no match", query: "zzzz", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(context.Background(), "gen1", tt.query)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("Search(%q) returned %d results, want %d", tt.query, len(got), tt.wantLen)
			}
			if tt.wantFirst != "" && got[0].Name != tt.wantFirst {
				t.Errorf("Search(%q) first = %q, want %q", tt.query, got[0].Name, tt.wantFirst)
			}
		})
	}
}
