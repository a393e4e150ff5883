package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"invoicer/internal/errors"
	"invoicer/internal/seed"
)

// SeedHandler handles seed data endpoints.
type SeedHandler struct {
	seeder *seed.Seeder
	log    *zap.Logger
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(seeder *seed.Seeder, log *zap.Logger) *SeedHandler {
	return &SeedHandler{seeder: seeder, log: log}
}

// SeedResponse represents the seed response.
type SeedResponse struct {
	Message string      `json:"message"`
	Created seed.Result `json:"created"`
}

// SeedDemo godoc
// @Summary Seed demo data
// @Description Creates demo clients, invoices and payments in the caller's account. Admin only.
// @Tags seed
// @Produce json
// @Security BearerAuth
// @Success 201 {object} SeedResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /seed/demo [post]
func (h *SeedHandler) SeedDemo(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if !p.IsAdmin() {
		return respondError(c, h.log, errors.NewAuthorizationError("admin role required"))
	}

	res, err := h.seeder.Demo(c.Request().Context(), p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, SeedResponse{
		Message: "demo data seeded successfully",
		Created: *res,
	})
}
