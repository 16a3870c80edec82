package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialsync-api/internal/models"
)

func GetUserID(c *fiber.Ctx) int64 {
	raw, _ := c.Locals("user_id").(string)
	userID, _ := strconv.ParseInt(raw, 10, 64)
	return userID
}

// writeError is the single place where service errors become HTTP answers.
// Provider bodies and internal details never reach the client.
func writeError(c *fiber.Ctx, err error, platform string) error {
	switch {
	case errors.Is(err, models.ErrPlatformNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Platform not found",
		})

	case errors.Is(err, models.ErrAccountNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Social account not found",
		})

	case errors.Is(err, models.ErrPlatformMisconfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":          "Platform is not configured",
			"details":        "OAuth client credentials for " + platform + " have not been set up",
			"setup_required": true,
			"platform":       platform,
		})

	case errors.Is(err, models.ErrMissingCode):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Authorization code is missing",
		})

	case errors.Is(err, models.ErrInvalidOAuthState):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid or expired authorization state",
		})

	case errors.Is(err, models.ErrTokenExchangeFailed):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to connect account",
		})

	case errors.Is(err, models.ErrProviderTimeout):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":     "Analytics are temporarily unavailable",
			"retryable": true,
		})

	case errors.Is(err, models.ErrAccountNotConnected),
		errors.Is(err, models.ErrTokenRefreshFailed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":              "Account needs to be reconnected",
			"reconnect_required": true,
		})

	case errors.Is(err, models.ErrAnalyticsUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":     "Analytics are temporarily unavailable",
			"retryable": true,
		})

	default:
		slog.Error("request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Something went wrong",
		})
	}
}
