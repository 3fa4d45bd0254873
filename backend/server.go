// Package backend exposes the game services over HTTP for the web client.
package backend

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/toto789520/TCGP-bis/backend/handlers"
	"github.com/toto789520/TCGP-bis/backend/middleware"
	"github.com/toto789520/TCGP-bis/backend/utils"
	"github.com/toto789520/TCGP-bis/tcgp"
)

const (
	defaultAddr       = ":8080"
	defaultRateLimit  = 60
	defaultRateWindow = time.Minute
	shutdownTimeout   = 15 * time.Second
)

// Server is the fiber app plus its configuration.
type Server struct {
	app  *fiber.App
	addr string
}

func New(app *tcgp.App) *Server {
	cfg := app.Cfg.Backend

	f := fiber.New(fiber.Config{
		AppName:      "TCGP API",
		ServerHeader: "TCGP",
		ErrorHandler: errorHandler,
	})

	f.Use(recover.New())
	f.Use(compress.New())
	f.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins(cfg.AllowedOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, X-Player-ID",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))
	f.Use(middleware.Identity())
	f.Use(middleware.LoggingMiddleware())

	setupRoutes(f, app, cfg)

	addr := cfg.Addr
	if addr == "" {
		addr = defaultAddr
	}
	return &Server{app: f, addr: addr}
}

func setupRoutes(f *fiber.App, app *tcgp.App, cfg tcgp.BackendConfig) {
	web := handlers.NewWebApp(app)

	f.Get("/health", web.Health)

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	window := defaultRateWindow
	if cfg.RateWindowSec > 0 {
		window = time.Duration(cfg.RateWindowSec) * time.Second
	}
	limiter := middleware.NewRateLimiter(limit, window)

	api := f.Group("/api",
		middleware.RateLimit(limiter),
		middleware.Maintenance(app.Store),
		middleware.RequirePlayer(),
	)

	api.Get("/generations", web.Generations)
	api.Get("/player", web.Player)
	api.Get("/notice", web.Notice)
	api.Put("/notifications", web.SetNotifications)

	gens := api.Group("/gens/:gen")
	gens.Get("/state", web.GenState)
	gens.Post("/draw", web.Draw)
	gens.Post("/bonus", web.UseBonusPacks)
	gens.Get("/binder", web.Binder)
	gens.Get("/search", web.SearchBinder)

	sess := api.Group("/session")
	sess.Get("/", web.Session)
	sess.Post("/reveal", web.Reveal)
	sess.Post("/close", web.CloseSession)

	adm := api.Group("/admin")
	adm.Get("/players", web.ListPlayers)
	adm.Post("/players/:id/reset-economy", web.ResetEconomy)
	adm.Post("/players/:id/reset-cooldowns", web.ResetCooldowns)
	adm.Post("/players/:id/toggle-vip", web.ToggleVIP)
	adm.Post("/players/:id/notify", web.NotifyPlayer)
	adm.Delete("/players/:id", web.DeletePlayer)
	adm.Put("/maintenance", web.SetMaintenance)
}

// Listen serves until the listener fails or Shutdown is called.
func (s *Server) Listen() error {
	slog.Info("Backend listening", slog.String("addr", s.addr))
	return s.app.Listen(s.addr)
}

// Shutdown drains in-flight requests with a deadline.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(shutdownTimeout)
}

func allowedOrigins(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ", ")
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code >= 500 {
		slog.Error("Request failed",
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return utils.SendInternalServerError(c, "Something went wrong")
	}
	return utils.SendError(c, code, "REQUEST_FAILED", err.Error(), nil)
}
