package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
)

// MemoryStore is an in-process Store used by tests. Writes can be made to
// fail in order via FailWith, which is how quota and outage paths are
// exercised.
type MemoryStore struct {
	mu          sync.Mutex
	players     map[string]*Player
	maintenance bool
	failQueue   []error

	Writes int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{players: make(map[string]*Player)}
}

// FailWith queues errors returned by the next writes, one per call, in
// order. A nil entry lets that write through.
func (m *MemoryStore) FailWith(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failQueue = append(m.failQueue, errs...)
}

func (m *MemoryStore) nextFailure() error {
	if len(m.failQueue) == 0 {
		return nil
	}
	err := m.failQueue[0]
	m.failQueue = m.failQueue[1:]
	return err
}

func (m *MemoryStore) GetPlayer(_ context.Context, id string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clonePlayer(p), nil
}

func (m *MemoryStore) CreatePlayer(_ context.Context, p *Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.nextFailure(); err != nil {
		return err
	}
	if _, ok := m.players[p.ID]; ok {
		return nil
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.players[p.ID] = clonePlayer(p)
	m.Writes++
	return nil
}

func (m *MemoryStore) SavePlayer(_ context.Context, id string, patch Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if patch.Empty() {
		return nil
	}
	if err := m.nextFailure(); err != nil {
		return err
	}
	p, ok := m.players[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	patch.Apply(p)
	p.UpdatedAt = time.Now()
	m.Writes++
	return nil
}

func (m *MemoryStore) AppendToCollection(_ context.Context, id string, cards []catalog.Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(cards) == 0 {
		return nil
	}
	if err := m.nextFailure(); err != nil {
		return err
	}
	p, ok := m.players[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	known := make(map[string]struct{}, len(p.Collection))
	for _, c := range p.Collection {
		known[c.InstanceID] = struct{}{}
	}
	for _, c := range cards {
		if _, ok := known[c.InstanceID]; ok {
			continue
		}
		p.Collection = append(p.Collection, c)
	}
	p.UpdatedAt = time.Now()
	m.Writes++
	return nil
}

func (m *MemoryStore) DeletePlayer(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.nextFailure(); err != nil {
		return err
	}
	delete(m.players, id)
	m.Writes++
	return nil
}

func (m *MemoryStore) ListPlayers(_ context.Context) ([]*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, clonePlayer(p))
	}
	return out, nil
}

func (m *MemoryStore) Maintenance(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maintenance, nil
}

func (m *MemoryStore) SetMaintenance(_ context.Context, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maintenance = on
	return nil
}

func clonePlayer(p *Player) *Player {
	blob, err := json.Marshal(p)
	if err != nil {
		panic("store: clone failed: " + err.Error())
	}
	out := new(Player)
	if err := json.Unmarshal(blob, out); err != nil {
		panic("store: clone failed: " + err.Error())
	}
	return out
}
