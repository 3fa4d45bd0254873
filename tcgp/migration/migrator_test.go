package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/toto789520/TCGP-bis/tcgp/store"
)

func TestImportPlayersCountsOnlySuccesses(t *testing.T) {
	st := store.NewMemoryStore()
	st.FailWith(nil, errors.New("connection reset"), nil)

	players := []*store.Player{
		store.NewPlayer("a"),
		store.NewPlayer("b"),
		store.NewPlayer("c"),
	}

	imported, err := importPlayers(context.Background(), st, players)
	if err == nil {
		t.Fatal("importPlayers() error = nil, want the failed write surfaced")
	}
	if imported != 2 {
		t.Errorf("imported = %d, want only the 2 writes that landed", imported)
	}
}

func TestImportPlayersAllSucceed(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	players := []*store.Player{
		store.NewPlayer("a"),
		store.NewPlayer("b"),
	}

	imported, err := importPlayers(ctx, st, players)
	if err != nil {
		t.Fatalf("importPlayers() error = %v", err)
	}
	if imported != 2 {
		t.Errorf("imported = %d, want 2", imported)
	}
	for _, id := range []string{"a", "b"} {
		if _, err := st.GetPlayer(ctx, id); err != nil {
			t.Errorf("GetPlayer(%s) error = %v", id, err)
		}
	}
}
