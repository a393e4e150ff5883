package router

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/segmentio/ksuid"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"invoicer/internal/auth"
	"invoicer/internal/config"
	"invoicer/internal/errors"
	"invoicer/internal/handler"
	"invoicer/internal/metrics"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Settings *handler.SettingsHandler
	Client   *handler.ClientHandler
	Invoice  *handler.InvoiceHandler
	Payment  *handler.PaymentHandler
	Report   *handler.ReportHandler
	Seed     *handler.SeedHandler
}

// Register wires routes and middleware. m may be nil to disable metrics.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	h Handlers,
	tokenStore auth.TokenStoreInterface,
	m *metrics.Metrics,
	log *zap.Logger,
) {
	if log == nil {
		log = zap.NewNop()
	}

	e.HideBanner = true
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return ksuid.New().String() },
	}))
	e.Use(middleware.Recover())
	e.Use(requestLogger(log.Named("http")))
	e.Use(middleware.BodyLimit("1M"))
	if m != nil {
		e.Use(m.Middleware())
	}

	e.Validator = NewValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	// Secured routes (require an unrevoked access token)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthorized("invalid or missing access token", "UNAUTHORIZED")
		},
	}), requirePrincipal(tokenStore))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/me", h.Auth.Me)

	secured.GET("/users", h.User.ListUsers)
	secured.GET("/users/me", h.User.GetProfile)
	secured.PUT("/users/me", h.User.UpdateProfile)

	secured.GET("/settings", h.Settings.GetSettings)
	secured.PATCH("/settings", h.Settings.UpdateSettings)

	secured.POST("/clients", h.Client.CreateClient)
	secured.GET("/clients", h.Client.ListClients)
	secured.GET("/clients/:id", h.Client.GetClient)
	secured.PUT("/clients/:id", h.Client.UpdateClient)
	secured.DELETE("/clients/:id", h.Client.DeleteClient)

	secured.POST("/invoices", h.Invoice.CreateInvoice)
	secured.GET("/invoices", h.Invoice.ListInvoices)
	secured.GET("/invoices/:id", h.Invoice.GetInvoice)
	secured.PUT("/invoices/:id", h.Invoice.UpdateInvoice)
	secured.DELETE("/invoices/:id", h.Invoice.DeleteInvoice)
	secured.GET("/invoices/:id/pdf", h.Invoice.DownloadInvoice)
	secured.POST("/invoices/:id/send", h.Invoice.SendInvoice)

	secured.POST("/invoices/:id/payments", h.Payment.RecordPayment)
	secured.GET("/invoices/:id/payments", h.Payment.ListPayments)
	secured.GET("/payments/:id", h.Payment.GetPayment)

	secured.GET("/reports/summary", h.Report.Summary)
	secured.GET("/reports/revenue-by-client", h.Report.RevenueByClient)

	if h.Seed != nil {
		secured.POST("/seed/demo", h.Seed.SeedDemo)
	}
}

func unauthorized(msg, code string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{Error: msg, Code: code})
}

// requirePrincipal accepts only access tokens that have not been revoked and
// exposes their principal to the handlers.
func requirePrincipal(tokenStore auth.TokenStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return unauthorized("invalid token", "UNAUTHORIZED")
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok || claims.Type != auth.TokenTypeAccess {
				return unauthorized("access token required", "UNAUTHORIZED")
			}
			if tokenStore != nil && claims.ID != "" {
				revoked, err := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
				if err == nil && revoked {
					return unauthorized("token has been revoked", "TOKEN_REVOKED")
				}
			}
			p, err := claims.Principal()
			if err != nil {
				return unauthorized(err.Error(), "UNAUTHORIZED")
			}
			handler.SetPrincipal(c, p, claims)
			return next(c)
		}
	}
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			switch {
			case v.Status >= http.StatusInternalServerError:
				log.Error("request", append(fields, zap.Error(v.Error))...)
			case v.Status >= http.StatusBadRequest:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
