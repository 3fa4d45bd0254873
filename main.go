package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/toto789520/TCGP-bis/backend"
	"github.com/toto789520/TCGP-bis/tcgp"
	"github.com/toto789520/TCGP-bis/tcgp/logger"
	"github.com/toto789520/TCGP-bis/tcgp/migration"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	handler := logger.NewHandler("TCGP")
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting TCGP server",
		slog.String("version", version),
		slog.String("commit", commit))

	path := flag.String("config", "config.toml", "path to config")
	migrate := flag.Bool("migrate", false, "import legacy players from MongoDB and exit")
	mongoURI := flag.String("mongo-uri", "mongodb://localhost:27017", "legacy MongoDB URI for -migrate")
	mongoDB := flag.String("mongo-db", "tcgp", "legacy MongoDB database for -migrate")
	flag.Parse()

	cfg, err := tcgp.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	if cfg.Log.Prefix != "" {
		handler = logger.NewHandler(cfg.Log.Prefix)
		slog.SetDefault(slog.New(handler))
	}
	handler.SetLevel(cfg.Log.Level)

	setupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	app := tcgp.New(*cfg, version, commit)
	if err := app.Setup(setupCtx); err != nil {
		cancel()
		slog.Error("Failed to set up services", slog.Any("error", err))
		os.Exit(-1)
	}
	cancel()

	if *migrate {
		if err := runMigration(app, *mongoURI, *mongoDB); err != nil {
			slog.Error("Migration failed", slog.Any("error", err))
			os.Exit(-1)
		}
		return
	}

	srv := backend.New(app)
	go func() {
		if err := srv.Listen(); err != nil {
			slog.Error("Backend stopped", slog.Any("error", err))
		}
	}()

	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s

	slog.Info("Shutting down...")
	if err := srv.Shutdown(); err != nil {
		slog.Error("Failed to drain backend", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	app.Shutdown(shutdownCtx)
}

func runMigration(app *tcgp.App, uri, database string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	defer app.Shutdown(ctx)

	m, err := migration.New(ctx, app.Store, uri, database)
	if err != nil {
		return err
	}
	defer m.Close(ctx)

	imported, err := m.Run(ctx)
	if err != nil {
		return err
	}
	slog.Info("Migration finished", slog.Int("imported", imported))
	return nil
}
