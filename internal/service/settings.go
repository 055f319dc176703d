package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atinyakov/flowerdaily/internal/models"
	"github.com/atinyakov/flowerdaily/internal/secret"
)

var (
	// ErrSettingNotFound is returned when no setting has the key.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrInvalidKey is returned for an empty setting key.
	ErrInvalidKey = errors.New("setting key is required")
)

// sensitiveKeys are always stored encrypted.
var sensitiveKeys = map[string]bool{
	"ai.api_key":          true,
	"unsplash.access_key": true,
}

// IsSensitiveKey reports whether key always holds a secret.
func IsSensitiveKey(key string) bool {
	return sensitiveKeys[key]
}

// SettingStore defines the persistence operations required by the SettingsService.
type SettingStore interface {
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	UpsertSetting(ctx context.Context, s models.Setting) error
	DeleteSetting(ctx context.Context, key string) error
	ListSettings(ctx context.Context) ([]models.Setting, error)
}

// SecretCodec seals and opens secret envelopes.
type SecretCodec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(envelope string) (string, error)
	DecryptOrRaw(value string) (string, bool)
}

// SettingsService is the key-value configuration store of the back office.
type SettingsService struct {
	store SettingStore
	codec SecretCodec
	now   func() time.Time
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(store SettingStore, codec SecretCodec) *SettingsService {
	return &SettingsService{store: store, codec: codec, now: time.Now}
}

// Get returns a setting with its value in clear text.
func (s *SettingsService) Get(ctx context.Context, key string) (models.Setting, error) {
	setting, err := s.store.GetSetting(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return models.Setting{}, ErrSettingNotFound
	}
	if err != nil {
		return models.Setting{}, err
	}
	if setting.Encrypted {
		plain, err := s.codec.Decrypt(setting.Value)
		if err != nil {
			return models.Setting{}, fmt.Errorf("setting %q: %w", key, err)
		}
		setting.Value = plain
	}
	return *setting, nil
}

// Put stores a setting. Values flagged sensitive, and values of the known
// secret keys, are encrypted first.
func (s *SettingsService) Put(ctx context.Context, key, value string, sensitive bool) (models.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return models.Setting{}, ErrInvalidKey
	}
	setting := models.Setting{
		Key:       key,
		Value:     value,
		Encrypted: sensitive || IsSensitiveKey(key),
		UpdatedAt: s.now().UTC(),
	}
	if setting.Encrypted {
		envelope, err := s.codec.Encrypt(value)
		if err != nil {
			return models.Setting{}, err
		}
		setting.Value = envelope
	}
	if err := s.store.UpsertSetting(ctx, setting); err != nil {
		return models.Setting{}, err
	}
	if setting.Encrypted {
		setting.Value = secret.Mask(value)
	}
	return setting, nil
}

// Delete removes a setting.
func (s *SettingsService) Delete(ctx context.Context, key string) error {
	err := s.store.DeleteSetting(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return ErrSettingNotFound
	}
	return err
}

// List returns every setting with secret values masked.
func (s *SettingsService) List(ctx context.Context) ([]models.Setting, error) {
	settings, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range settings {
		if settings[i].Encrypted {
			plain, _ := s.codec.DecryptOrRaw(settings[i].Value)
			settings[i].Value = secret.Mask(plain)
		}
	}
	return settings, nil
}
