package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/toto789520/TCGP-bis/backend/utils"
	"github.com/toto789520/TCGP-bis/tcgp/store"
)

// Maintenance gates the API behind the store-backed maintenance switch.
// Admins keep access so they can turn it back off.
func Maintenance(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		on, err := st.Maintenance(c.UserContext())
		if err != nil {
			slog.Warn("Maintenance check failed", slog.Any("error", err))
			return c.Next()
		}
		if !on {
			return c.Next()
		}

		if id := PlayerID(c); id != "" {
			if p, err := st.GetPlayer(c.UserContext(), id); err == nil && p.Role.Admin() {
				return c.Next()
			}
		}
		return utils.SendServiceUnavailable(c, "Maintenance in progress, try again later")
	}
}
