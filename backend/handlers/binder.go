package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/toto789520/TCGP-bis/backend/middleware"
	"github.com/toto789520/TCGP-bis/backend/utils"
)

// Binder returns the full roster of a generation annotated with owned
// copies, plus completion stats per rarity.
func (w *WebApp) Binder(c *fiber.Ctx) error {
	playerID := middleware.PlayerID(c)
	genID := c.Params("gen")

	entries, stats, err := w.app.Binder.Binder(c.UserContext(), playerID, genID)
	if err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{
		"cards": entries,
		"stats": stats,
	}, "")
}

// SearchBinder fuzzy-matches card names within a generation.
func (w *WebApp) SearchBinder(c *fiber.Ctx) error {
	genID := c.Params("gen")
	query := c.Query("q")

	results, err := w.app.Binder.Search(c.UserContext(), genID, query)
	if err != nil {
		return w.sendDomainError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{
		"query":   query,
		"results": results,
	}, "")
}
