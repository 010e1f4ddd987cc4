package handler

import (
	"time"

	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError writes any error as {"error": code, "message": ..., "details": ...}
func respondError(c *fiber.Ctx, err error) error {
	appErr := apperror.From(err)
	if appErr.HTTPStatus >= fiber.StatusInternalServerError {
		logger.FromFiber(c).Error("request failed",
			zap.String("path", c.Path()),
			zap.String("code", appErr.Code),
			zap.Error(err),
		)
	}

	body := fiber.Map{
		"error":   appErr.Code,
		"message": appErr.Message,
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	return c.Status(appErr.HTTPStatus).JSON(body)
}

func invalidJSON(c *fiber.Ctx) error {
	return respondError(c, apperror.Validation("invalid JSON body"))
}

// getActor returns the caller set by RequireAuth
func getActor(c *fiber.Ctx) model.Actor {
	if actor, ok := c.Locals(middleware.ActorKey).(model.Actor); ok {
		return actor
	}
	return model.Actor{Name: "anonymous"}
}

func paramID(c *fiber.Ctx, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid "+resource+" ID").WithDetail("id", c.Params("id"))
	}
	return id, nil
}

// queryID parses an optional uuid query parameter
func queryID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperror.Validation("invalid "+key).WithDetail(key, raw)
	}
	return &id, nil
}

// queryTime accepts RFC3339 or a plain date. A plain date used as an upper bound
// covers the whole day.
func queryTime(c *fiber.Ctx, key string, upper bool) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperror.Validation("invalid "+key+", use YYYY-MM-DD or RFC3339").WithDetail(key, raw)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func queryPage(c *fiber.Ctx) repository.Page {
	return repository.Page{
		Number: c.QueryInt("page", 1),
		Size:   c.QueryInt("page_size", repository.DefaultPageSize),
	}.Normalized()
}

func paginated(c *fiber.Ctx, data interface{}, total int64, page repository.Page) error {
	return c.JSON(fiber.Map{
		"data":      data,
		"total":     total,
		"page":      page.Number,
		"page_size": page.Size,
	})
}
