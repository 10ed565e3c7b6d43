package handler

import (
	"errors"
	"html"
	"time"

	"github.com/SiteNotice/SiteNotice/internal/models"
	"github.com/SiteNotice/SiteNotice/internal/service"
	"github.com/SiteNotice/SiteNotice/pkg/logger"
	"github.com/SiteNotice/SiteNotice/pkg/response"
	"github.com/gofiber/fiber/v2"
)

type NoticeHandler struct {
	noticeSvc *service.NoticeService
}

func NewNoticeHandler(noticeSvc *service.NoticeService) *NoticeHandler {
	return &NoticeHandler{noticeSvc: noticeSvc}
}

// RenderPayload is what page-building clients embed. HTML carries the
// escaped notice text, ready to drop into markup.
type RenderPayload struct {
	Active   bool              `json:"active"`
	HTML     string            `json:"html,omitempty"`
	Type     models.NoticeType `json:"type,omitempty"`
	CSSClass string            `json:"css_class,omitempty"`
}

// Render returns the notice for the requesting page, or active=false when
// the display conditions are not met. Public, evaluated per request.
func (h *NoticeHandler) Render(c *fiber.Ctx) error {
	pageCtx := models.PageContext{
		IsHomePage: c.QueryBool("home"),
	}

	cfg := h.noticeSvc.Get()
	displayed := cfg.ShouldDisplay(time.Now(), pageCtx)
	RecordRenderDecision(displayed)

	if !displayed {
		return response.Success(c, RenderPayload{Active: false})
	}

	return response.Success(c, RenderPayload{
		Active:   true,
		HTML:     html.EscapeString(cfg.Text),
		Type:     cfg.Type,
		CSSClass: "notice-" + string(cfg.Type) + " " + cfg.CSSClass,
	})
}

// GetConfig returns the current notice configuration with defaults filled in.
func (h *NoticeHandler) GetConfig(c *fiber.Ctx) error {
	return response.Success(c, h.noticeSvc.Get())
}

// UpdateConfig applies a partial configuration update on behalf of the
// authenticated admin.
func (h *NoticeHandler) UpdateConfig(c *fiber.Ctx) error {
	var candidate service.NoticeUpdate
	if err := c.BodyParser(&candidate); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	actorID := localUserID(c)
	cfg, err := h.noticeSvc.Update(candidate, actorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			RecordNoticeUpdate("unauthorized")
			return response.Forbidden(c, "admin access required")
		case errors.Is(err, service.ErrInvalidInput):
			RecordNoticeUpdate("invalid")
			return response.BadRequest(c, err.Error())
		default:
			RecordNoticeUpdate("error")
			logger.Error().Err(err).Msg("Failed to persist notice configuration")
			return response.InternalError(c, "failed to update notice")
		}
	}

	RecordNoticeUpdate("ok")
	SetNoticeActive(cfg.ShouldDisplay(time.Now(), models.PageContext{IsHomePage: true}))
	logger.Audit("notice_updated", actorID, map[string]string{
		"type":  string(cfg.Type),
		"scope": string(cfg.Scope),
	})

	return response.Success(c, cfg)
}

// ResetConfig restores the notice configuration to its defaults.
func (h *NoticeHandler) ResetConfig(c *fiber.Ctx) error {
	actorID := localUserID(c)
	cfg, err := h.noticeSvc.Reset(actorID)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return response.Forbidden(c, "admin access required")
		}
		logger.Error().Err(err).Msg("Failed to reset notice configuration")
		return response.InternalError(c, "failed to reset notice")
	}

	SetNoticeActive(false)
	logger.Audit("notice_reset", actorID, nil)

	return response.Success(c, cfg)
}

// GetSettings returns the raw key/value rows with their update timestamps.
func (h *NoticeHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.noticeSvc.Settings()
	if err != nil {
		return response.InternalError(c, "failed to load settings")
	}
	return response.Success(c, settings)
}

func localUserID(c *fiber.Ctx) string {
	userID, ok := c.Locals("user_id").(string)
	if !ok {
		return ""
	}
	return userID
}
