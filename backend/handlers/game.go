package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/toto789520/TCGP-bis/backend/middleware"
	"github.com/toto789520/TCGP-bis/backend/utils"
)

// GenState returns one generation's pack counters and cooldown remaining.
func (w *WebApp) GenState(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)
	genID := c.Params("gen")

	status, err := w.app.Game.GenState(c.UserContext(), playerID, genID)
	if err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{
		"available_packs":   status.State.AvailablePacks,
		"bonus_packs":       status.State.BonusPacks,
		"points":            status.State.Points,
		"cooldown_seconds":  int(status.Remaining.Seconds()),
		"cooldown_complete": status.Remaining == 0,
	}, "")
}

// Draw opens packs for a generation and starts a reveal session.
func (w *WebApp) Draw(c *fiber.Ctx) error {
	var req struct {
		Packs int  `json:"packs"`
		Bonus bool `json:"bonus"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Invalid request body", nil)
	}
	if req.Packs == 0 {
		req.Packs = 1
	}

	playerID := middleware.PlayerID(c)
	genID := c.Params("gen")

	cards, err := w.app.Game.Draw(c.UserContext(), playerID, genID, req.Packs, req.Bonus)
	if err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"booster": cards}, "Booster opened")
}

// UseBonusPacks opens every accrued bonus pack, up to the per-open cap.
func (w *WebApp) UseBonusPacks(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)
	genID := c.Params("gen")

	cards, err := w.app.Game.UseBonusPacks(c.UserContext(), playerID, genID)
	if err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"booster": cards}, "Bonus packs opened")
}

// Session returns the pending reveal session, 404 when none is open.
func (w *WebApp) Session(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)

	resume, err := w.app.Game.Resume(c.UserContext(), playerID)
	if err != nil {
		return w.sendDomainError(c, err)
	}
	if resume == nil {
		return utils.SendNotFound(c, "No session in progress")
	}
	return utils.SendSuccess(c, fiber.Map{
		"booster":  resume.Booster,
		"revealed": resume.Revealed,
	}, "")
}

// Reveal flips one booster slot face-up.
func (w *WebApp) Reveal(c *fiber.Ctx) error {
	var req struct {
		Slot int `json:"slot"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.SendBadRequest(c, "Invalid request body", nil)
	}

	playerID := middleware.PlayerID(c)
	if err := w.app.Game.Reveal(c.UserContext(), playerID, req.Slot); err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"slot": req.Slot}, "")
}

// CloseSession banks a fully revealed booster into the collection.
func (w *WebApp) CloseSession(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)

	res, err := w.app.Game.CloseSession(c.UserContext(), playerID)
	if err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{
		"cards":           res.Cards,
		"available_packs": res.State.AvailablePacks,
		"bonus_packs":     res.State.BonusPacks,
		"points":          res.State.Points,
		"earned_bonus":    res.EarnedBonus,
	}, "Booster banked")
}
