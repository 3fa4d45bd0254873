package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/logger"
)

// PostgresStore keeps player documents in a single players table with JSONB
// columns for the collection, economy map and session state.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetPlayer(ctx context.Context, id string) (*Player, error) {
	start := time.Now()
	player := new(Player)
	err := s.db.NewSelect().
		Model(player).
		Where("id = ?", id).
		Scan(ctx)
	logger.LogQuery("SELECT player", time.Since(start), ignoreNoRows(err))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get player %s: %w", id, err)
	}
	return player, nil
}

func (s *PostgresStore) CreatePlayer(ctx context.Context, p *Player) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	start := time.Now()
	_, err := s.db.NewInsert().
		Model(p).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	logger.LogQuery("INSERT player", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to create player %s: %w", p.ID, err)
	}
	return nil
}

// SavePlayer merges a patch into the document in one UPDATE. Scalar fields
// overwrite; packs_by_gen merges per generation key via jsonb concatenation.
func (s *PostgresStore) SavePlayer(ctx context.Context, id string, patch Patch) error {
	if patch.Empty() {
		return nil
	}

	q := s.db.NewUpdate().
		Model((*Player)(nil)).
		Where("id = ?", id).
		Set("updated_at = ?", time.Now())

	if patch.Role != nil {
		q = q.Set("role = ?", *patch.Role)
	}
	if patch.Collection != nil {
		blob, err := json.Marshal(*patch.Collection)
		if err != nil {
			return fmt.Errorf("failed to encode collection: %w", err)
		}
		q = q.Set("collection = ?::jsonb", string(blob))
	}
	if len(patch.PacksByGen) > 0 {
		blob, err := json.Marshal(patch.PacksByGen)
		if err != nil {
			return fmt.Errorf("failed to encode packs_by_gen: %w", err)
		}
		q = q.Set("packs_by_gen = packs_by_gen || ?::jsonb", string(blob))
	}
	if patch.CurrentBooster != nil {
		blob, err := json.Marshal(*patch.CurrentBooster)
		if err != nil {
			return fmt.Errorf("failed to encode current_booster: %w", err)
		}
		q = q.Set("current_booster = ?::jsonb", string(blob))
	}
	if patch.RevealedCards != nil {
		blob, err := json.Marshal(*patch.RevealedCards)
		if err != nil {
			return fmt.Errorf("failed to encode revealed cards: %w", err)
		}
		q = q.Set("booster_revealed_cards = ?::jsonb", string(blob))
	}
	if patch.BoosterGen != nil {
		q = q.Set("booster_gen = ?", *patch.BoosterGen)
	}
	if patch.BoosterPacks != nil {
		q = q.Set("booster_packs = ?", *patch.BoosterPacks)
	}
	if patch.BoosterBonus != nil {
		q = q.Set("booster_bonus = ?", *patch.BoosterBonus)
	}
	if patch.Notifications != nil {
		q = q.Set("notifications = ?", *patch.Notifications)
	}
	if patch.AdminNotice != nil {
		q = q.Set("admin_notice = ?", *patch.AdminNotice)
	}

	start := time.Now()
	res, err := q.Exec(ctx)
	logger.LogQuery("UPDATE player", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to save player %s: %w", id, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// appendCollectionExpr concatenates only the incoming instances whose
// instance_id is not already in the collection, so a retried close cannot
// double-append the same cards.
const appendCollectionExpr = `collection = collection || (
	SELECT COALESCE(jsonb_agg(c), '[]'::jsonb)
	FROM jsonb_array_elements(?::jsonb) AS c
	WHERE NOT EXISTS (
		SELECT 1 FROM jsonb_array_elements(players.collection) AS e
		WHERE e->>'instance_id' = c->>'instance_id'
	)
)`

// AppendToCollection concatenates card instances onto the collection array
// without rewriting the existing entries. Instances already present are
// skipped, making retries safe.
func (s *PostgresStore) AppendToCollection(ctx context.Context, id string, cards []catalog.Instance) error {
	if len(cards) == 0 {
		return nil
	}

	blob, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("failed to encode cards: %w", err)
	}

	start := time.Now()
	res, err := s.db.NewUpdate().
		Model((*Player)(nil)).
		Where("id = ?", id).
		Set(appendCollectionExpr, string(blob)).
		Set("updated_at = ?", time.Now()).
		Exec(ctx)
	logger.LogQuery("UPDATE player collection", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to append to collection for %s: %w", id, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) DeletePlayer(ctx context.Context, id string) error {
	start := time.Now()
	_, err := s.db.NewDelete().
		Model((*Player)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	logger.LogQuery("DELETE player", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to delete player %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) ListPlayers(ctx context.Context) ([]*Player, error) {
	start := time.Now()
	var players []*Player
	err := s.db.NewSelect().
		Model(&players).
		Order("id ASC").
		Scan(ctx)
	logger.LogQuery("SELECT players", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

func (s *PostgresStore) Maintenance(ctx context.Context) (bool, error) {
	var value string
	err := s.db.NewRaw("SELECT value FROM app_meta WHERE key = ?", maintenanceKey).
		Scan(ctx, &value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read maintenance flag: %w", err)
	}
	return value == "1", nil
}

func (s *PostgresStore) SetMaintenance(ctx context.Context, on bool) error {
	value := "0"
	if on {
		value = "1"
	}
	_, err := s.db.NewRaw(
		"INSERT INTO app_meta (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value",
		maintenanceKey, value,
	).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set maintenance flag: %w", err)
	}
	return nil
}

const maintenanceKey = "maintenance"

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
