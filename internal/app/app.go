// Package app assembles the storage, cache, services and HTTP handlers of the
// invoicing service from a Config.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"invoicer/internal/auth"
	"invoicer/internal/cache"
	"invoicer/internal/config"
	"invoicer/internal/db"
	"invoicer/internal/document"
	"invoicer/internal/handler"
	"invoicer/internal/metrics"
	"invoicer/internal/repository"
	"invoicer/internal/repository/memory"
	"invoicer/internal/router"
	"invoicer/internal/seed"
	"invoicer/internal/service"
)

// App holds every long-lived component of the service.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Store   repository.Store
	Cache   *cache.Client
	Metrics *metrics.Metrics
	JWT     *auth.JWTService
	Tokens  auth.TokenStoreInterface

	Auth     service.AuthService
	Users    service.UserService
	Settings service.SettingsService
	Clients  service.ClientService
	Invoices service.InvoiceService
	Payments service.PaymentService
	Reports  service.ReportService
	Seeder   *seed.Seeder

	closers []func() error
}

// New opens the configured store and cache and builds the services on top of them.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	store, closeStore, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	var cacheClient *cache.Client
	if cfg.RedisAddr != "" {
		cacheClient = cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := cacheClient.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, continuing without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
	}

	a := Build(cfg, log, store, cacheClient, auth.NewTokenStore(cacheClient), metrics.New())
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}
	return a, nil
}

// Build wires the services over an already opened store. tokens backs refresh
// tokens and the access-token blacklist. m may be nil.
func Build(cfg *config.Config, log *zap.Logger, store repository.Store, cacheClient *cache.Client,
	tokens auth.TokenStoreInterface, m *metrics.Metrics, opts ...service.Option) *App {
	if log == nil {
		log = zap.NewNop()
	}
	if m != nil {
		opts = append([]service.Option{service.WithRecorder(m)}, opts...)
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	locks := service.NewKeyedMutex()

	a := &App{
		Config:  cfg,
		Log:     log,
		Store:   store,
		Cache:   cacheClient,
		Metrics: m,
		JWT:     jwtService,
		Tokens:  tokens,
	}
	a.Auth = service.NewAuthService(store, jwtService, tokens, cfg.BcryptCost, log)
	a.Users = service.NewUserService(store, cacheClient, cfg.BcryptCost)
	a.Settings = service.NewSettingsService(store, cacheClient)
	a.Clients = service.NewClientService(store)
	a.Invoices = service.NewInvoiceService(store, locks, log, opts...)
	a.Payments = service.NewPaymentService(store, locks, log, opts...)
	a.Reports = service.NewReportService(store, opts...)
	a.Seeder = seed.New(a.Auth, a.Users, a.Clients, a.Invoices, a.Payments, log)
	return a
}

// Handlers builds the HTTP handlers for the router.
func (a *App) Handlers() router.Handlers {
	log := a.Log.Named("handler")
	return router.Handlers{
		Auth:     handler.NewAuthHandler(a.Auth, log),
		User:     handler.NewUserHandler(a.Users, log),
		Settings: handler.NewSettingsHandler(a.Settings, log),
		Client:   handler.NewClientHandler(a.Clients, log),
		Invoice:  handler.NewInvoiceHandler(a.Invoices, document.NewStubGenerator(), document.NewLogMailer(log), log),
		Payment:  handler.NewPaymentHandler(a.Payments, log),
		Report:   handler.NewReportHandler(a.Reports, log),
		Seed:     handler.NewSeedHandler(a.Seeder, log),
	}
}

// Close releases the database connection.
func (a *App) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func openStore(cfg *config.Config, log *zap.Logger) (repository.Store, func() error, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Info("using in-memory store")
		return memory.NewStore(), nil, nil
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DSN(), log, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("database init: %w", err)
	}
	if err := db.Migrate(gormDB, cfg.ResetDB, log); err != nil {
		return nil, nil, fmt.Errorf("auto-migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("database handle: %w", err)
	}
	log.Info("database ready", zap.String("driver", cfg.DBDriver))
	return repository.NewStore(gormDB), sqlDB.Close, nil
}
