package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/laporkota/laporkota/internal/domain"
	"github.com/laporkota/laporkota/internal/governance/audit"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
	"github.com/laporkota/laporkota/internal/pkg/logger"
)

const settingCachePrefix = "laporkota:setting:"

// Settings manages the global key-value configuration store with a Redis
// read-through cache. A cache miss or Redis outage falls back to the
// database; writes invalidate the cached key.
type Settings struct {
	db      *gorm.DB
	cache   *redis.Client
	ttl     time.Duration
	auditor *audit.Recorder
	now     func() time.Time
}

// NewSettings creates the settings service. cache may be nil, which disables
// caching entirely.
func NewSettings(db *gorm.DB, cache *redis.Client, ttl time.Duration, auditor *audit.Recorder) *Settings {
	return &Settings{
		db:      db,
		cache:   cache,
		ttl:     ttl,
		auditor: auditor,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock for tests.
func (s *Settings) WithClock(now func() time.Time) *Settings {
	s.now = now
	return s
}

// Get returns one setting value by key, consulting the cache first.
func (s *Settings) Get(ctx context.Context, key string) (string, error) {
	if s.cache != nil {
		val, err := s.cache.Get(ctx, settingCachePrefix+key).Result()
		if err == nil {
			return val, nil
		}
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Settings cache read failed, falling back to database",
				zap.String("key", key), zap.Error(err))
		}
	}

	setting, err := s.fetch(ctx, key)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, settingCachePrefix+key, setting.Value, s.ttl).Err(); err != nil {
			logger.Warn("Settings cache write failed",
				zap.String("key", key), zap.Error(err))
		}
	}
	return setting.Value, nil
}

// Set creates or updates a setting and invalidates the cached key.
func (s *Settings) Set(ctx context.Context, key, value string, isPublic bool, description *string, actorID int64) (*domain.Setting, error) {
	if key == "" {
		return nil, apperrors.Validation(apperrors.CodeValidationFailed, "setting key is required")
	}

	now := s.now()
	var setting domain.Setting
	var oldValue *string

	err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	switch {
	case err == nil:
		prev := setting.Value
		oldValue = &prev
		setting.Value = value
		setting.IsPublic = isPublic
		if description != nil {
			setting.Description = description
		}
		setting.UpdatedAt = &now
		if err := s.db.WithContext(ctx).Save(&setting).Error; err != nil {
			return nil, apperrors.StorageUnavailable(err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		setting = domain.Setting{
			Key:         key,
			Value:       value,
			Description: description,
			IsPublic:    isPublic,
			CreatedAt:   now,
		}
		if err := s.db.WithContext(ctx).Create(&setting).Error; err != nil {
			return nil, apperrors.StorageUnavailable(err)
		}
	default:
		return nil, apperrors.StorageUnavailable(err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, settingCachePrefix+key).Err(); err != nil {
			logger.Warn("Settings cache invalidation failed",
				zap.String("key", key), zap.Error(err))
		}
	}

	oldValues := domain.JSONMap(nil)
	if oldValue != nil {
		oldValues = domain.JSONMap{"value": *oldValue}
	}
	if err := recordAudit(ctx, s.auditor, actorID, domain.AuditUpdate, domain.ResourceSetting, setting.ID,
		oldValues, domain.JSONMap{"key": key, "value": value}, now); err != nil {
		return nil, err
	}
	return &setting, nil
}

// ListPublic returns the citizen-visible settings ordered by key.
func (s *Settings) ListPublic(ctx context.Context) ([]domain.Setting, error) {
	var settings []domain.Setting
	err := s.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("key ASC").
		Find(&settings).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return settings, nil
}

// ListAll returns every setting ordered by key, for administration.
func (s *Settings) ListAll(ctx context.Context) ([]domain.Setting, error) {
	var settings []domain.Setting
	err := s.db.WithContext(ctx).Order("key ASC").Find(&settings).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return settings, nil
}

func (s *Settings) fetch(ctx context.Context, key string) (*domain.Setting, error) {
	var setting domain.Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeSettingNotFound,
				fmt.Sprintf("setting %q not found", key))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &setting, nil
}

// GetOr returns the setting value, or fallback when the key does not exist.
// Storage failures still surface as errors.
func (s *Settings) GetOr(ctx context.Context, key, fallback string) (string, error) {
	value, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fallback, nil
		}
		return "", err
	}
	return value, nil
}

// SettingUpdate is one key/value pair for SetMultiple.
type SettingUpdate struct {
	Key   string
	Value string
}

// SetMultiple updates several existing settings in one transaction. Every
// key must already exist; an unknown key fails the whole batch and nothing
// is written.
func (s *Settings) SetMultiple(ctx context.Context, updates []SettingUpdate, actorID int64) ([]domain.Setting, error) {
	if len(updates) == 0 {
		return nil, apperrors.Validation(apperrors.CodeValidationFailed, "no settings to update")
	}

	now := s.now()
	saved := make([]domain.Setting, 0, len(updates))
	oldValues := make([]string, 0, len(updates))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			var setting domain.Setting
			if err := tx.Where("key = ?", u.Key).First(&setting).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NotFound(apperrors.CodeSettingNotFound,
						fmt.Sprintf("setting %q not found", u.Key))
				}
				return apperrors.StorageUnavailable(err)
			}
			oldValues = append(oldValues, setting.Value)
			setting.Value = u.Value
			setting.UpdatedAt = &now
			if err := tx.Save(&setting).Error; err != nil {
				return apperrors.StorageUnavailable(err)
			}
			saved = append(saved, setting)
		}
		return nil
	})
	if err != nil {
		if _, ok := apperrors.IsAppError(err); ok {
			return nil, err
		}
		return nil, apperrors.StorageUnavailable(err)
	}

	for i, setting := range saved {
		if s.cache != nil {
			if err := s.cache.Del(ctx, settingCachePrefix+setting.Key).Err(); err != nil {
				logger.Warn("Settings cache invalidation failed",
					zap.String("key", setting.Key), zap.Error(err))
			}
		}
		if err := recordAudit(ctx, s.auditor, actorID, domain.AuditUpdate, domain.ResourceSetting, setting.ID,
			domain.JSONMap{"value": oldValues[i]},
			domain.JSONMap{"key": setting.Key, "value": setting.Value}, now); err != nil {
			return nil, err
		}
	}
	return saved, nil
}

// Delete removes a setting and its cached value.
func (s *Settings) Delete(ctx context.Context, key string, actorID int64) error {
	setting, err := s.fetch(ctx, key)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(setting).Error; err != nil {
		return apperrors.StorageUnavailable(err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, settingCachePrefix+key).Err(); err != nil {
			logger.Warn("Settings cache invalidation failed",
				zap.String("key", key), zap.Error(err))
		}
	}

	return recordAudit(ctx, s.auditor, actorID, domain.AuditDelete, domain.ResourceSetting, setting.ID,
		domain.JSONMap{"key": key, "value": setting.Value}, nil, s.now())
}
