package service

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"invoicer/internal/errors"
	"invoicer/internal/model"
	"invoicer/internal/repository"
)

// Recorder receives domain events for metrics.
type Recorder interface {
	InvoiceCreated()
	InvoiceDeleted()
	PaymentRecorded(status model.InvoiceStatus, amount decimal.Decimal)
}

type noopRecorder struct{}

func (noopRecorder) InvoiceCreated() {}
func (noopRecorder) InvoiceDeleted() {}
func (noopRecorder) PaymentRecorded(model.InvoiceStatus, decimal.Decimal) {}

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// lookupError turns a repository miss into a NotFoundError for resource and
// passes every other error through.
func lookupError(err error, resource string, id uuid.UUID) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFoundError(resource, id.String())
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func named(log *zap.Logger, name string) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log.Named(name)
}

type options struct {
	policy   StatusPolicy
	recorder Recorder
	now      Clock
}

// Option configures the invoice, payment and report services.
type Option func(*options)

// WithStatusPolicy replaces DerivePaymentStatus as the post-payment status rule.
func WithStatusPolicy(policy StatusPolicy) Option {
	return func(o *options) {
		if policy != nil {
			o.policy = policy
		}
	}
}

// WithRecorder sends domain events to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithClock sets the time source used for defaults, invoice numbers and reports.
func WithClock(now Clock) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		policy:   DerivePaymentStatus,
		recorder: noopRecorder{},
		now:      utcNow,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
