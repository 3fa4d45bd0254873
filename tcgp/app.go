package tcgp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/toto789520/TCGP-bis/tcgp/admin"
	"github.com/toto789520/TCGP-bis/tcgp/catalog"
	"github.com/toto789520/TCGP-bis/tcgp/database"
	"github.com/toto789520/TCGP-bis/tcgp/economy/cooldown"
	"github.com/toto789520/TCGP-bis/tcgp/gacha"
	"github.com/toto789520/TCGP-bis/tcgp/game"
	"github.com/toto789520/TCGP-bis/tcgp/gateway"
	"github.com/toto789520/TCGP-bis/tcgp/search"
	"github.com/toto789520/TCGP-bis/tcgp/store"
)

func New(cfg Config, version string, commit string) *App {
	return &App{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

// App owns every service and their wiring. Built once at startup.
type App struct {
	Cfg     Config
	Version string
	Commit  string

	DB      *database.DB
	Redis   *redis.Client
	Store   store.Store
	Loader  *catalog.Loader
	Gateway *gateway.Gateway
	Sched   *cooldown.Scheduler
	Game    *game.Service
	Binder  *search.BinderService
	Admin   *admin.Service
}

// Setup connects the databases and builds the service graph.
func (a *App) Setup(ctx context.Context) error {
	db, err := database.New(ctx, database.Config{
		Host:         a.Cfg.DB.Host,
		Port:         a.Cfg.DB.Port,
		User:         a.Cfg.DB.User,
		Password:     a.Cfg.DB.Password,
		Database:     a.Cfg.DB.Database,
		PoolSize:     a.Cfg.DB.PoolSize,
		MaxIdleConns: a.Cfg.DB.MaxIdleConns,
		MaxLifetime:  a.Cfg.DB.MaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = db

	if err := db.InitializeSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	a.Store = store.NewPostgresStore(db.BunDB())

	source, err := a.catalogSource()
	if err != nil {
		return err
	}
	loader, err := catalog.NewLoader(source)
	if err != nil {
		return err
	}
	a.Loader = loader

	qs, err := a.queueStore(ctx)
	if err != nil {
		return err
	}

	gwOpts := gateway.DefaultOptions()
	if a.Cfg.Gateway.MinWriteIntervalSec > 0 {
		gwOpts.MinWriteInterval = a.Cfg.Gateway.MinWriteInterval()
	}
	if a.Cfg.Gateway.RevealDebounceSec > 0 {
		gwOpts.RevealDebounce = a.Cfg.Gateway.RevealDebounce()
	}
	if a.Cfg.Gateway.BackoffBaseSec > 0 {
		gwOpts.BackoffBase = a.Cfg.Gateway.BackoffBase()
	}
	if a.Cfg.Gateway.BackoffCapSec > 0 {
		gwOpts.BackoffCap = a.Cfg.Gateway.BackoffCap()
	}
	if a.Cfg.Gateway.MaxAttempts > 0 {
		gwOpts.MaxAttempts = a.Cfg.Gateway.MaxAttempts
	}
	gw, err := gateway.New(ctx, a.Store, qs, gwOpts)
	if err != nil {
		return err
	}
	a.Gateway = gw

	a.Sched = cooldown.NewScheduler(func(playerID, genID string) {
		slog.Info("Packs ready",
			slog.String("type", "game"),
			slog.String("player_id", playerID),
			slog.String("generation", genID),
		)
	})

	gens := make([]string, len(a.Cfg.Game.Generations))
	for i, g := range a.Cfg.Game.Generations {
		gens[i] = g.ID
	}

	composer := gacha.NewComposer(loader, gacha.NewCryptoRNG(), gacha.Tuning{
		FiveCardChance: a.Cfg.Game.FiveCardChance,
		DuplicateCap:   a.Cfg.Game.DuplicateCap,
		DrawAttemptCap: a.Cfg.Game.DrawAttemptCap,
	})
	a.Game = game.NewService(game.Config{
		Generations:       gens,
		PacksPerCooldown:  a.Cfg.Game.PacksPerCooldown,
		PointsPerCard:     a.Cfg.Game.PointsPerCard,
		CooldownStandard:  a.Cfg.Game.CooldownWindow(false),
		CooldownVIP:       a.Cfg.Game.CooldownWindow(true),
		ThresholdStandard: a.Cfg.Game.PointsThreshold(false),
		ThresholdVIP:      a.Cfg.Game.PointsThreshold(true),
	}, a.Store, gw, composer, a.Sched)

	a.Binder = search.NewBinderService(loader, a.Store)
	a.Admin = admin.NewService(a.Store, gens)

	slog.Info("TCGP services ready",
		slog.String("version", a.Version),
		slog.String("commit", a.Commit),
		slog.Int("generations", len(gens)),
	)
	return nil
}

func (a *App) catalogSource() (catalog.Source, error) {
	switch a.Cfg.Catalog.Kind {
	case "spaces":
		return catalog.NewSpacesSource(
			a.Cfg.Catalog.Key,
			a.Cfg.Catalog.Secret,
			a.Cfg.Catalog.Region,
			a.Cfg.Catalog.Bucket,
			a.Cfg.Catalog.DataRoot,
		)
	case "http", "":
		return catalog.NewHTTPSource(a.Cfg.Catalog.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown catalog source kind: %q", a.Cfg.Catalog.Kind)
	}
}

func (a *App) queueStore(ctx context.Context) (gateway.QueueStore, error) {
	if a.Cfg.Redis.Addr == "" {
		slog.Warn("No Redis configured, write queue will not survive restarts")
		return gateway.NewMemoryQueueStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.Cfg.Redis.Addr,
		Password: a.Cfg.Redis.Password,
		DB:       a.Cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}

	a.Redis = client
	return gateway.NewRedisQueueStore(client), nil
}

// Shutdown flushes pending writes and closes every connection.
func (a *App) Shutdown(ctx context.Context) {
	if a.Sched != nil {
		a.Sched.Close()
	}
	if a.Gateway != nil {
		if err := a.Gateway.Close(ctx); err != nil {
			slog.Error("Failed to flush gateway on shutdown", slog.Any("error", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			slog.Error("Failed to close Redis", slog.Any("error", err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
	slog.Info("Shutdown complete")
}
