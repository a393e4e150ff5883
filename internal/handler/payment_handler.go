package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"invoicer/internal/errors"
	"invoicer/internal/model"
	"invoicer/internal/service"
)

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	paymentService service.PaymentService
	log            *zap.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(paymentService service.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, log: log}
}

// PaymentRequest represents money received against an invoice.
type PaymentRequest struct {
	Amount        string `json:"amount" validate:"required" example:"150.00"`
	PaymentDate   string `json:"payment_date" validate:"required" example:"2024-03-20"`
	PaymentMethod string `json:"payment_method" validate:"required" example:"bank_transfer"`
	Notes         string `json:"notes"`
}

// PaymentResponse represents a recorded payment and the invoice state after it.
type PaymentResponse struct {
	Payment *model.Payment       `json:"payment"`
	Invoice *service.InvoiceView `json:"invoice"`
}

// RecordPayment godoc
// @Summary Record a payment
// @Description Appends a payment to the invoice and re-derives the invoice status from the amount paid.
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param request body PaymentRequest true "Payment data"
// @Success 201 {object} PaymentResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /invoices/{id}/payments [post]
func (h *PaymentHandler) RecordPayment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	invoiceID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req PaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid amount format",
			Code:  "INVALID_AMOUNT",
			Field: "amount",
		})
	}
	paidAt, err := parseDate("payment_date", req.PaymentDate)
	if err != nil {
		return respondError(c, h.log, err)
	}

	payment, invoice, err := h.paymentService.Record(c.Request().Context(), p, invoiceID, service.PaymentInput{
		Amount:      amount,
		PaymentDate: paidAt,
		Method:      req.PaymentMethod,
		Notes:       req.Notes,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusCreated, PaymentResponse{Payment: payment, Invoice: invoice})
}

// ListPayments godoc
// @Summary List payments of an invoice
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {array} model.Payment
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id}/payments [get]
func (h *PaymentHandler) ListPayments(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	invoiceID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	payments, err := h.paymentService.ListByInvoice(c.Request().Context(), p, invoiceID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, payments)
}

// GetPayment godoc
// @Summary Get payment by id
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} model.Payment
// @Failure 404 {object} errors.ErrorResponse
// @Router /payments/{id} [get]
func (h *PaymentHandler) GetPayment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	payment, err := h.paymentService.Get(c.Request().Context(), p, id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, payment)
}
