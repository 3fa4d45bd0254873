// Package handlers contains the HTTP handlers of the TCGP web API. Handlers
// translate between the JSON surface and the game services; all rules live
// in the services.
package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/toto789520/TCGP-bis/backend/middleware"
	"github.com/toto789520/TCGP-bis/backend/models"
	"github.com/toto789520/TCGP-bis/backend/utils"
	"github.com/toto789520/TCGP-bis/tcgp"
	"github.com/toto789520/TCGP-bis/tcgp/admin"
	"github.com/toto789520/TCGP-bis/tcgp/gacha"
	"github.com/toto789520/TCGP-bis/tcgp/game"
	"github.com/toto789520/TCGP-bis/tcgp/session"
	"github.com/toto789520/TCGP-bis/tcgp/store"
)

// WebApp bundles the services the handlers dispatch to.
type WebApp struct {
	app *tcgp.App
}

func NewWebApp(app *tcgp.App) *WebApp {
	return &WebApp{app: app}
}

// Health reports liveness and build identity.
func (w *WebApp) Health(c *fiber.Ctx) error {
	return utils.SendJSON(c, fiber.StatusOK, models.NewHealthCheck(w.app.Version, w.app.Commit))
}

// Generations lists the configured generations for the tab bar.
func (w *WebApp) Generations(c *fiber.Ctx) error {
	type gen struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	out := make([]gen, len(w.app.Cfg.Game.Generations))
	for i, g := range w.app.Cfg.Game.Generations {
		out[i] = gen{ID: g.ID, Name: g.Name}
	}
	return utils.SendSuccess(c, out, "")
}

// Player returns the caller's profile summary.
func (w *WebApp) Player(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)
	p, err := w.app.Game.LoadPlayer(c.UserContext(), playerID)
	if err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{
		"id":            p.ID,
		"role":          p.Role,
		"notifications": p.Notifications,
		"cards_owned":   len(p.Collection),
	}, "")
}

// Notice returns and clears a pending admin notice for the caller.
func (w *WebApp) Notice(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)
	msg, err := w.app.Admin.ConsumeNotice(c.UserContext(), playerID)
	if err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"notice": msg}, "")
}

// SetNotifications records the packs-ready notification preference.
func (w *WebApp) SetNotifications(c *fiber.Ctx) error {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Invalid request body", nil)
	}

	playerID := middleware.PlayerID(c)
	if err := w.app.Game.SetNotifications(c.UserContext(), playerID, req.Enabled); err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"enabled": req.Enabled}, "Preference saved")
}

// sendDomainError maps service errors onto HTTP statuses.
func (w *WebApp) sendDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, game.ErrUnknownGeneration), errors.Is(err, gacha.ErrNoPacks):
		return utils.SendBadRequest(c, err.Error(), nil)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, session.ErrNoSession):
		return utils.SendNotFound(c, err.Error())
	case errors.Is(err, admin.ErrNotAdmin):
		return utils.SendForbidden(c, "Admin role required")
	case errors.Is(err, game.ErrNoPacksAvailable),
		errors.Is(err, game.ErrNoBonusPacks),
		errors.Is(err, session.ErrSessionOpen),
		errors.Is(err, session.ErrNotFullyRevealed),
		errors.Is(err, session.ErrAlreadyClosed):
		return utils.SendConflict(c, err.Error(), nil)
	default:
		slog.Error("Unhandled API error",
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return utils.SendInternalServerError(c, "Something went wrong")
	}
}
