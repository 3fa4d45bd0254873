package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/toto789520/TCGP-bis/backend/utils"
)

const playerIDHeader = "X-Player-ID"

const playerIDKey = "player_id"

// Identity records the caller's player ID from the request header so every
// handler downstream can read it from Locals. It does not reject; use
// RequirePlayer on routes that need an identified caller.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(playerIDHeader))
		if id != "" {
			c.Locals(playerIDKey, id)
		}
		return c.Next()
	}
}

// RequirePlayer rejects requests that carry no player identity.
func RequirePlayer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if PlayerID(c) == "" {
			return utils.SendUnauthorized(c, "Missing "+playerIDHeader+" header")
		}
		return c.Next()
	}
}

// PlayerID returns the caller's player ID, empty when unidentified.
func PlayerID(c *fiber.Ctx) string {
	if id, ok := c.Locals(playerIDKey).(string); ok {
		return id
	}
	return ""
}
