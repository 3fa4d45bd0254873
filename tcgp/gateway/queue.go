package gateway

import (
	"time"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/store"
)

type OpKind string

const (
	// OpMerge is a generic merge-write of a player patch.
	OpMerge OpKind = "merge"
	// OpAppend appends card instances to the player's collection. Pending
	// appends for the same player are absorbed into one entry.
	OpAppend OpKind = "append_collection"
)

// Entry is one deferred write. Entries survive restarts through the
// QueueStore.
type Entry struct {
	PlayerID  string             `json:"player_id"`
	Kind      OpKind             `json:"kind"`
	Patch     store.Patch        `json:"patch,omitempty"`
	Cards     []catalog.Instance `json:"cards,omitempty"`
	Attempts  int                `json:"attempts"`
	CreatedAt time.Time          `json:"created_at"`
}

// mergeAppend folds new cards into an existing append entry, de-duplicating
// by instance id so a write retried after a partial failure cannot double a
// card.
func mergeAppend(entry *Entry, cards []catalog.Instance) {
	seen := make(map[string]struct{}, len(entry.Cards))
	for _, c := range entry.Cards {
		seen[c.InstanceID] = struct{}{}
	}
	for _, c := range cards {
		if _, dup := seen[c.InstanceID]; dup {
			continue
		}
		seen[c.InstanceID] = struct{}{}
		entry.Cards = append(entry.Cards, c)
	}
}

// enqueue appends a write to the queue, folding collection appends into an
// existing pending append for the same player.
func enqueue(queue []Entry, e Entry) []Entry {
	if e.Kind == OpAppend {
		for i := range queue {
			if queue[i].Kind == OpAppend && queue[i].PlayerID == e.PlayerID {
				mergeAppend(&queue[i], e.Cards)
				return queue
			}
		}
	}
	return append(queue, e)
}
