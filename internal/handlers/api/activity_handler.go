package api

import (
	"github.com/duchm/foliogate/internal/audit"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

const (
	defaultActivityPageSize = 20
	maxActivityPageSize     = 100
)

type ActivityHandler struct {
	activityRepo audit.ActivityRepository
}

// GetActivity lists recent audit entries, newest first.
func (h *ActivityHandler) GetActivity(ctx *fiber.Ctx) error {
	page := cast.ToInt(ctx.Query("page"))
	if page < 1 {
		page = 1
	}
	limit := cast.ToInt(ctx.Query("limit"))
	if limit < 1 {
		limit = defaultActivityPageSize
	}
	if limit > maxActivityPageSize {
		limit = maxActivityPageSize
	}

	activities, err := h.activityRepo.Recent(ctx.Context(), limit, (page-1)*limit)
	if err != nil {
		return err
	}
	total, err := h.activityRepo.Count(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"activities": activities,
		"total":      total,
		"page":       page,
		"limit":      limit,
	})
}

func NewActivityHandler(activityRepo audit.ActivityRepository) *ActivityHandler {
	return &ActivityHandler{activityRepo: activityRepo}
}
