package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicer/internal/auth"
	"invoicer/internal/cache"
	"invoicer/internal/errors"
	"invoicer/internal/model"
	"invoicer/internal/repository"
)

const settingsCacheTTL = 10 * time.Minute

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// normalizeCurrency upper-cases code and checks it is three letters.
func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !currencyPattern.MatchString(code) {
		return "", errors.NewValidationError("currency", "must be a 3-letter currency code")
	}
	return code, nil
}

// SettingsPatch is a partial settings update. Nil fields are left as they are.
type SettingsPatch struct {
	CompanyName    *string
	CompanyAddress *string
	LogoURL        *string
	Currency       *string
	TaxRate        *decimal.Decimal
	Template       *string
}

// SettingsService manages the per-user company profile and invoicing defaults.
type SettingsService interface {
	Get(ctx context.Context, p auth.Principal) (*model.Settings, error)
	Update(ctx context.Context, p auth.Principal, patch SettingsPatch) (*model.Settings, error)
}

type settingsService struct {
	store repository.Store
	cache *cache.Client
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store repository.Store, cache *cache.Client) SettingsService {
	return &settingsService{store: store, cache: cache}
}

func (s *settingsService) cacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("settings:%s", userID.String())
}

// Get returns the caller's settings, creating the defaults if the user has none yet.
func (s *settingsService) Get(ctx context.Context, p auth.Principal) (*model.Settings, error) {
	var cached model.Settings
	if s.cache.GetJSON(ctx, s.cacheKey(p.ID), &cached) {
		return &cached, nil
	}

	settings, err := loadSettings(ctx, s.store, p.ID)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, s.cacheKey(p.ID), settings, settingsCacheTTL)
	return settings, nil
}

// Update applies patch to the caller's settings.
func (s *settingsService) Update(ctx context.Context, p auth.Principal, patch SettingsPatch) (*model.Settings, error) {
	settings, err := loadSettings(ctx, s.store, p.ID)
	if err != nil {
		return nil, err
	}

	if patch.CompanyName != nil {
		settings.CompanyName = *patch.CompanyName
	}
	if patch.CompanyAddress != nil {
		settings.CompanyAddress = *patch.CompanyAddress
	}
	if patch.LogoURL != nil {
		settings.LogoURL = *patch.LogoURL
	}
	if patch.Currency != nil {
		currency, err := normalizeCurrency(*patch.Currency)
		if err != nil {
			return nil, err
		}
		settings.Currency = currency
	}
	if patch.TaxRate != nil {
		if !validTaxRate(*patch.TaxRate) {
			return nil, errors.NewValidationError("tax_rate", taxRateReason)
		}
		settings.TaxRate = *patch.TaxRate
	}
	if patch.Template != nil {
		if isBlank(*patch.Template) {
			return nil, errors.NewValidationError("template", "must not be blank")
		}
		settings.Template = *patch.Template
	}

	if err := s.store.Settings().Update(ctx, settings); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(p.ID))
	return settings, nil
}

// loadSettings returns the user's settings, creating the defaults on first access.
func loadSettings(ctx context.Context, store repository.Store, userID uuid.UUID) (*model.Settings, error) {
	settings, err := store.Settings().FindByUserID(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find settings: %w", err)
	}

	settings = model.NewDefaultSettings(userID)
	if err := store.Settings().Create(ctx, settings); err != nil {
		if !stderrors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("create settings: %w", err)
		}
		// created concurrently
		return store.Settings().FindByUserID(ctx, userID)
	}
	return settings, nil
}
