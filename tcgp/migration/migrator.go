// Package migration imports legacy web-app player documents from MongoDB
// into the Postgres store. One-shot, invoked with -migrate.
package migration

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/toto789520/TCGP-bis/tcgp/logger"
	"github.com/toto789520/TCGP-bis/tcgp/store"
)

const (
	defaultCollection = "players"
	connectTimeout    = 10 * time.Second
	importConcurrency = 8
)

type Migrator struct {
	store    store.Store
	client   *mongo.Client
	database string
	coll     string
}

func New(ctx context.Context, st store.Store, uri, database string) (*Migrator, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to legacy database: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("legacy database unreachable: %w", err)
	}

	return &Migrator{
		store:    st,
		client:   client,
		database: database,
		coll:     defaultCollection,
	}, nil
}

// SetCollection overrides the source collection name.
func (m *Migrator) SetCollection(name string) {
	if name != "" {
		m.coll = name
	}
}

func (m *Migrator) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Run copies every legacy player document into the store. Players that
// already exist are left untouched. Returns the number of players that
// actually landed in the store.
func (m *Migrator) Run(ctx context.Context) (int, error) {
	start := time.Now()
	coll := m.client.Database(m.database).Collection(m.coll)

	cur, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to query legacy players: %w", err)
	}
	defer cur.Close(ctx)

	var players []*store.Player
	for cur.Next(ctx) {
		var legacy legacyPlayer
		if err := cur.Decode(&legacy); err != nil {
			logger.LogError("Skipping undecodable legacy player", err)
			continue
		}
		players = append(players, legacy.convert())
	}
	if err := cur.Err(); err != nil {
		return 0, fmt.Errorf("legacy cursor failed: %w", err)
	}

	imported, err := importPlayers(ctx, m.store, players)
	if err != nil {
		return imported, err
	}

	logger.LogSystem("Legacy migration completed",
		"players", imported,
		"took", time.Since(start).String(),
	)
	return imported, nil
}

// importPlayers writes players concurrently and counts only the writes that
// succeeded, so a partial failure does not overstate the result.
func importPlayers(ctx context.Context, st store.Store, players []*store.Player) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importConcurrency)

	var imported atomic.Int64
	for _, player := range players {
		g.Go(func() error {
			if err := st.CreatePlayer(gctx, player); err != nil {
				return fmt.Errorf("failed to import player %s: %w", player.ID, err)
			}
			imported.Add(1)
			return nil
		})
	}
	err := g.Wait()
	return int(imported.Load()), err
}
