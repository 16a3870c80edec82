package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/service"
)

type AnalyticsHandler struct {
	as service.AnalyticsService
}

func NewAnalyticsHandler(as service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{as: as}
}

func accountID(c *fiber.Ctx) (int64, bool) {
	id, err := c.ParamsInt("accountId")
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}

func invalidAccountID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid account id",
	})
}

func (h *AnalyticsHandler) ListAnalytics(c *fiber.Ctx) error {
	list, err := h.as.List(c.Context(), GetUserID(c))
	if err != nil {
		return writeError(c, err, "")
	}
	if list == nil {
		list = []*models.UnifiedAnalytics{}
	}

	return c.Status(fiber.StatusOK).JSON(list)
}

func (h *AnalyticsHandler) GetAnalytics(c *fiber.Ctx) error {
	id, ok := accountID(c)
	if !ok {
		return invalidAccountID(c)
	}

	u, err := h.as.Get(c.Context(), GetUserID(c), id)
	if err != nil {
		return writeError(c, err, "")
	}

	return c.Status(fiber.StatusOK).JSON(u)
}

func (h *AnalyticsHandler) RefreshAnalytics(c *fiber.Ctx) error {
	id, ok := accountID(c)
	if !ok {
		return invalidAccountID(c)
	}

	u, err := h.as.Refresh(c.Context(), GetUserID(c), id)
	if err != nil {
		return writeError(c, err, "")
	}

	return c.Status(fiber.StatusOK).JSON(u)
}

func (h *AnalyticsHandler) RecentContent(c *fiber.Ctx) error {
	id, ok := accountID(c)
	if !ok {
		return invalidAccountID(c)
	}

	items, err := h.as.RecentContent(c.Context(), GetUserID(c), id, c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err, "")
	}
	if items == nil {
		items = []models.ContentItem{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"account_id": id,
		"items":      items,
	})
}
