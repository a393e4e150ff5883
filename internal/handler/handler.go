package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"invoicer/internal/auth"
	"invoicer/internal/errors"
)

// Context keys set by the authentication middleware.
const (
	principalKey = "principal"
	claimsKey    = "claims"
)

// SetPrincipal stores the authenticated identity and its token claims on the request context.
func SetPrincipal(c echo.Context, p auth.Principal, claims *auth.Claims) {
	c.Set(principalKey, p)
	c.Set(claimsKey, claims)
}

func principal(c echo.Context) (auth.Principal, error) {
	p, ok := c.Get(principalKey).(auth.Principal)
	if !ok {
		return auth.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "missing credentials",
			Code:  "UNAUTHORIZED",
		})
	}
	return p, nil
}

func tokenClaims(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}
	if err := c.Validate(req); err != nil {
		resp := errors.ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"}
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			resp.Field = verrs[0].Field()
			resp.Error = validationMessage(verrs[0])
		}
		return echo.NewHTTPError(http.StatusBadRequest, resp)
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + ": is required"
	case "email":
		return fe.Field() + ": must be a valid email address"
	case "min":
		return fe.Field() + ": must be at least " + fe.Param() + " characters"
	case "uuid":
		return fe.Field() + ": must be a UUID"
	case "oneof":
		return fe.Field() + ": must be one of " + fe.Param()
	default:
		return fe.Field() + ": failed " + fe.Tag() + " check"
	}
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid " + name,
			Code:  "INVALID_UUID",
			Field: name,
		})
	}
	return id, nil
}

// respondError converts a domain error into an HTTP error. Internal failures
// are logged with the request id and reported without detail.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.IsInternal() && log != nil {
		log.Error("request failed",
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseDate accepts RFC 3339 timestamps and plain dates. An empty value yields the zero time.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.NewValidationError(field, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	t, err := parseDate(field, value)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}
