package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"invoicer/internal/service"
)

// SettingsHandler serves the caller's company profile and invoicing defaults.
type SettingsHandler struct {
	svc service.SettingsService
	log *zap.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(svc service.SettingsService, log *zap.Logger) *SettingsHandler {
	return &SettingsHandler{svc: svc, log: log}
}

// SettingsRequest is a partial settings update. Omitted fields are kept.
type SettingsRequest struct {
	CompanyName    *string          `json:"company_name"`
	CompanyAddress *string          `json:"company_address"`
	LogoURL        *string          `json:"logo_url" validate:"omitempty,url"`
	Currency       *string          `json:"currency" validate:"omitempty,len=3"`
	TaxRate        *decimal.Decimal `json:"tax_rate" swaggertype:"string" example:"7.5"`
	Template       *string          `json:"template"`
}

// GetSettings godoc
// @Summary Get settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Settings
// @Failure 401 {object} errors.ErrorResponse
// @Router /settings [get]
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	settings, err := h.svc.Get(c.Request().Context(), p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary Update settings
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SettingsRequest true "Fields to change"
// @Success 200 {object} model.Settings
// @Failure 400 {object} errors.ErrorResponse
// @Router /settings [patch]
func (h *SettingsHandler) UpdateSettings(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req SettingsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	settings, err := h.svc.Update(c.Request().Context(), p, service.SettingsPatch{
		CompanyName:    req.CompanyName,
		CompanyAddress: req.CompanyAddress,
		LogoURL:        req.LogoURL,
		Currency:       req.Currency,
		TaxRate:        req.TaxRate,
		Template:       req.Template,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, settings)
}
