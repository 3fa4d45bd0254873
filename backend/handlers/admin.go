package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/toto789520/TCGP-bis/backend/middleware"
	"github.com/toto789520/TCGP-bis/backend/utils"
)

// ListPlayers returns every player document. Admin only.
func (w *WebApp) ListPlayers(c *fiber.Ctx) error {
	callerID := middleware.PlayerID(c)

	players, err := w.app.Admin.ListPlayers(c.UserContext(), callerID)
	if err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{
		"players": players,
		"count":   len(players),
	}, "")
}

// ResetEconomy wipes a player's collection, counters and session.
func (w *WebApp) ResetEconomy(c *fiber.Ctx) error {
	callerID := middleware.PlayerID(c)
	targetID := c.Params("id")

	if err := w.app.Admin.ResetEconomy(c.UserContext(), callerID, targetID); err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"player_id": targetID}, "Economy reset")
}

// ResetCooldowns restores a player's packs across all generations.
func (w *WebApp) ResetCooldowns(c *fiber.Ctx) error {
	callerID := middleware.PlayerID(c)
	targetID := c.Params("id")

	if err := w.app.Admin.ResetCooldowns(c.UserContext(), callerID, targetID); err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"player_id": targetID}, "Cooldowns reset")
}

// ToggleVIP flips a player between standard and VIP.
func (w *WebApp) ToggleVIP(c *fiber.Ctx) error {
	callerID := middleware.PlayerID(c)
	targetID := c.Params("id")

	role, err := w.app.Admin.ToggleVIP(c.UserContext(), callerID, targetID)
	if err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{
		"player_id": targetID,
		"role":      role,
	}, "Role updated")
}

// DeletePlayer removes a player document entirely.
func (w *WebApp) DeletePlayer(c *fiber.Ctx) error {
	callerID := middleware.PlayerID(c)
	targetID := c.Params("id")

	if err := w.app.Admin.DeletePlayer(c.UserContext(), callerID, targetID); err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"player_id": targetID}, "Player deleted")
}

// NotifyPlayer stores a one-shot notice on a player document.
func (w *WebApp) NotifyPlayer(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Invalid request body", nil)
	}
	if strings.TrimSpace(req.Message) == "" {
		return utils.SendBadRequest(c, "Message must not be empty", nil)
	}

	callerID := middleware.PlayerID(c)
	targetID := c.Params("id")

	if err := w.app.Admin.Notify(c.UserContext(), callerID, targetID, req.Message); err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"player_id": targetID}, "Notice stored")
}

// SetMaintenance flips the maintenance switch.
func (w *WebApp) SetMaintenance(c *fiber.Ctx) error {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Invalid request body", nil)
	}

	callerID := middleware.PlayerID(c)
	if err := w.app.Admin.SetMaintenance(c.UserContext(), callerID, req.Enabled); err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"enabled": req.Enabled}, "Maintenance updated")
}
