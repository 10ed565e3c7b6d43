package handler

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"
)

var errDatabaseNotInitialized = errors.New("database not initialized")

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Liveness returns basic liveness status (is the server running?)
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// Readiness returns readiness status (can the server handle requests?)
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	checks := make(map[string]interface{})
	status := "ok"
	statusCode := fiber.StatusOK

	if err := h.checkDatabase(); err != nil {
		checks["database"] = fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		}
		status = "degraded"
		statusCode = fiber.StatusServiceUnavailable
	} else {
		checks["database"] = fiber.Map{
			"status": "healthy",
		}
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status": status,
		"checks": checks,
	})
}

func (h *HealthHandler) checkDatabase() error {
	if h.db == nil {
		return errDatabaseNotInitialized
	}
	return h.db.Ping()
}
