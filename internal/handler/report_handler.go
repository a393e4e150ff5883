package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"invoicer/internal/errors"
	"invoicer/internal/service"
)

// ReportHandler serves dashboard aggregates.
type ReportHandler struct {
	svc service.ReportService
	log *zap.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc service.ReportService, log *zap.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, log: log}
}

// Summary godoc
// @Summary Dashboard summary
// @Description Outstanding and overdue balances, money received in the last 30 days and invoice counts by status.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Summary
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	summary, err := h.svc.Summary(c.Request().Context(), p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// RevenueByClient godoc
// @Summary Revenue by client
// @Description Revenue collected on paid and partially paid invoices, grouped by client. Admins may pass another user's id.
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "Target user (admin only)"
// @Success 200 {array} service.ClientRevenue
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /reports/revenue-by-client [get]
func (h *ReportHandler) RevenueByClient(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	userID := p.ID
	if raw := c.QueryParam("user_id"); raw != "" {
		if userID, err = uuid.Parse(raw); err != nil {
			return respondError(c, h.log, errors.NewValidationError("user_id", "must be a UUID"))
		}
	}
	revenue, err := h.svc.RevenueByClient(c.Request().Context(), p, userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, revenue)
}
