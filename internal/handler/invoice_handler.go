package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"invoicer/internal/document"
	"invoicer/internal/errors"
	"invoicer/internal/model"
	"invoicer/internal/repository"
	"invoicer/internal/service"
)

// InvoiceHandler serves the caller's invoices and their documents.
type InvoiceHandler struct {
	svc       service.InvoiceService
	generator document.Generator
	mailer    document.Mailer
	log       *zap.Logger
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(svc service.InvoiceService, generator document.Generator, mailer document.Mailer, log *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, generator: generator, mailer: mailer, log: log}
}

// LineItemRequest is one line of an invoice request. Decimal fields accept
// JSON numbers or strings.
type LineItemRequest struct {
	Description string              `json:"description"`
	Quantity    decimal.Decimal     `json:"quantity" swaggertype:"string" example:"2"`
	UnitPrice   decimal.Decimal     `json:"unit_price" swaggertype:"string" example:"100.00"`
	TaxRate     decimal.NullDecimal `json:"tax_rate" swaggertype:"string" example:"10"`
}

// RecurrenceRequest configures advisory recurrence.
type RecurrenceRequest struct {
	IsRecurring bool   `json:"is_recurring"`
	Frequency   string `json:"frequency" validate:"omitempty,oneof=daily weekly monthly yearly"`
	Interval    int    `json:"interval" validate:"gte=0"`
	EndDate     string `json:"end_date" example:"2025-12-31"`
}

// InvoiceRequest represents an invoice create or replace request.
type InvoiceRequest struct {
	ClientID    string              `json:"client_id" validate:"omitempty,uuid"`
	InvoiceDate string              `json:"invoice_date" example:"2024-03-15"`
	DueDate     string              `json:"due_date" example:"2024-04-14"`
	Items       []LineItemRequest   `json:"items"`
	Notes       string              `json:"notes"`
	Currency    string              `json:"currency" validate:"omitempty,len=3"`
	TaxRate     decimal.NullDecimal `json:"tax_rate" swaggertype:"string" example:"10"`
	Status      string              `json:"status"`
	Recurrence  *RecurrenceRequest  `json:"recurrence"`
}

func (r *InvoiceRequest) input() (service.InvoiceInput, error) {
	in := service.InvoiceInput{
		Notes:    r.Notes,
		Currency: r.Currency,
		TaxRate:  r.TaxRate,
		Status:   model.InvoiceStatus(strings.TrimSpace(r.Status)),
	}

	var err error
	if r.ClientID != "" {
		if in.ClientID, err = uuid.Parse(r.ClientID); err != nil {
			return in, errors.NewValidationError("client_id", "must be a UUID")
		}
	}
	if in.InvoiceDate, err = parseDate("invoice_date", r.InvoiceDate); err != nil {
		return in, err
	}
	if in.DueDate, err = parseOptionalDate("due_date", r.DueDate); err != nil {
		return in, err
	}

	in.Items = make([]model.LineItem, len(r.Items))
	for i, item := range r.Items {
		in.Items[i] = model.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
		}
	}

	if rec := r.Recurrence; rec != nil {
		in.Recurrence = model.Recurrence{
			Enabled:   rec.IsRecurring,
			Frequency: model.RecurrenceFrequency(rec.Frequency),
			Interval:  rec.Interval,
		}
		if in.Recurrence.EndDate, err = parseOptionalDate("recurrence.end_date", rec.EndDate); err != nil {
			return in, err
		}
	}
	return in, nil
}

// SendInvoiceRequest optionally overrides the recipient of an invoice email.
type SendInvoiceRequest struct {
	To string `json:"to" validate:"omitempty,email"`
}

// SendInvoiceResponse reports where the invoice document was sent.
type SendInvoiceResponse struct {
	Message  string `json:"message"`
	To       string `json:"to"`
	Filename string `json:"filename"`
}

// CreateInvoice godoc
// @Summary Create invoice
// @Description Prices the line items, assigns the next invoice number and stores the invoice.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body InvoiceRequest true "Invoice"
// @Success 201 {object} service.InvoiceView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req InvoiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return respondError(c, h.log, err)
	}
	invoice, err := h.svc.Create(c.Request().Context(), p, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, invoice)
}

// ListInvoices godoc
// @Summary List invoices
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param client_id query string false "Filter by client"
// @Success 200 {array} service.InvoiceView
// @Failure 400 {object} errors.ErrorResponse
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter := repository.InvoiceFilter{Status: model.InvoiceStatus(c.QueryParam("status"))}
	if raw := c.QueryParam("client_id"); raw != "" {
		if filter.ClientID, err = uuid.Parse(raw); err != nil {
			return respondError(c, h.log, errors.NewValidationError("client_id", "must be a UUID"))
		}
	}
	invoices, err := h.svc.List(c.Request().Context(), p, filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, invoices)
}

// GetInvoice godoc
// @Summary Get invoice by id
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} service.InvoiceView
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	invoice, err := h.svc.Get(c.Request().Context(), p, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// UpdateInvoice godoc
// @Summary Replace invoice
// @Description Replaces the invoice contents and recomputes its total. Omitted client, date, currency and status keep their stored values.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param request body InvoiceRequest true "Invoice"
// @Success 200 {object} service.InvoiceView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req InvoiceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.input()
	if err != nil {
		return respondError(c, h.log, err)
	}
	invoice, err := h.svc.Update(c.Request().Context(), p, id, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice godoc
// @Summary Delete invoice
// @Description Deletes the invoice and every payment recorded against it.
// @Tags invoices
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), p, id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *InvoiceHandler) render(c echo.Context) (*service.InvoiceDocument, *document.Document, error) {
	p, err := principal(c)
	if err != nil {
		return nil, nil, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return nil, nil, err
	}
	ctx := c.Request().Context()
	data, err := h.svc.Document(ctx, p, id)
	if err != nil {
		return nil, nil, respondError(c, h.log, err)
	}
	doc, err := h.generator.Generate(ctx, data)
	if err != nil {
		return nil, nil, respondError(c, h.log, err)
	}
	return data, doc, nil
}

// DownloadInvoice godoc
// @Summary Download invoice document
// @Tags invoices
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {file} file
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadInvoice(c echo.Context) error {
	_, doc, err := h.render(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
	return c.Blob(http.StatusOK, doc.ContentType, doc.Body)
}

// SendInvoice godoc
// @Summary Email invoice document
// @Description Sends the invoice to the client's email address unless a recipient is given.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param request body SendInvoiceRequest false "Recipient override"
// @Success 202 {object} SendInvoiceResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id}/send [post]
func (h *InvoiceHandler) SendInvoice(c echo.Context) error {
	var req SendInvoiceRequest
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}

	data, doc, err := h.render(c)
	if err != nil {
		return err
	}

	to := req.To
	if to == "" && data.Client != nil {
		to = data.Client.Email
	}
	if to == "" {
		return respondError(c, h.log, errors.NewValidationError("to", "is required when the client no longer exists"))
	}

	if err := h.mailer.Send(c.Request().Context(), to, doc); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusAccepted, SendInvoiceResponse{
		Message:  "invoice sent",
		To:       to,
		Filename: doc.Filename,
	})
}
