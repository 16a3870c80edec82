package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/socialsync-api/internal/models"
	"github.com/maheshrc27/socialsync-api/internal/service"
)

type PlatformHandler struct {
	registry service.PlatformRegistry
	cs       service.ConnectionService
}

func NewPlatformHandler(registry service.PlatformRegistry, cs service.ConnectionService) *PlatformHandler {
	return &PlatformHandler{
		registry: registry,
		cs:       cs,
	}
}

type platformResponse struct {
	ID          models.Platform `json:"id"`
	DisplayName string          `json:"display_name"`
	IconClass   string          `json:"icon_class"`
	ColorClass  string          `json:"color_class"`
	Configured  bool            `json:"configured"`
}

type callbackRequest struct {
	Code  string `json:"code" form:"code"`
	State string `json:"state" form:"state"`
}

func (h *PlatformHandler) ListPlatforms(c *fiber.Ctx) error {
	platforms, err := h.registry.ListActive(c.Context())
	if err != nil {
		return writeError(c, err, "")
	}

	resp := make([]platformResponse, 0, len(platforms))
	for _, d := range platforms {
		resp = append(resp, platformResponse{
			ID:          d.ID,
			DisplayName: d.DisplayName,
			IconClass:   d.IconClass,
			ColorClass:  d.ColorClass,
			Configured:  d.Configured(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *PlatformHandler) Connect(c *fiber.Ctx) error {
	platform := c.Params("platform")

	req, err := h.cs.Initiate(c.Context(), GetUserID(c), platform)
	if err != nil {
		return writeError(c, err, platform)
	}

	return c.Status(fiber.StatusOK).JSON(req)
}

func (h *PlatformHandler) Callback(c *fiber.Ctx) error {
	platform := c.Params("platform")

	var body callbackRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}
	if body.Code == "" {
		body.Code = c.Query("code")
	}
	if body.State == "" {
		body.State = c.Query("state")
	}

	account, created, err := h.cs.Complete(c.Context(), GetUserID(c), platform, body.Code, body.State)
	if err != nil {
		return writeError(c, err, platform)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"account": account,
		"created": created,
	})
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accounts, err := h.cs.List(c.Context(), GetUserID(c))
	if err != nil {
		return writeError(c, err, "")
	}
	if accounts == nil {
		accounts = []*models.SocialAccount{}
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	accountID, err := c.ParamsInt("id")
	if err != nil || accountID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid account id",
		})
	}

	if err := h.cs.Disconnect(c.Context(), GetUserID(c), int64(accountID)); err != nil {
		return writeError(c, err, "")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
