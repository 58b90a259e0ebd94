// Package audit implements the audit trail.
//
// Audit entries are append-only compliance records. They are never edited;
// the only delete path is the retention purge, which runs on a schedule with
// horizons from configuration.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/laporkota/laporkota/internal/domain"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
	"github.com/laporkota/laporkota/internal/pkg/logger"
	"github.com/laporkota/laporkota/internal/query"
)

// Recorder writes and reads audit trail entries.
type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRecorder creates an audit recorder over db.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the recorder clock for tests.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Record appends one audit entry. CRUD services call this outside the
// workflow engine; the engine writes its entries inside its own transaction
// instead.
func (r *Recorder) Record(ctx context.Context, entry *domain.AuditLog) error {
	if !entry.Action.Valid() {
		return apperrors.Validation(apperrors.CodeValidationFailed,
			"unknown audit action").
			WithParams(map[string]interface{}{"action": string(entry.Action)})
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Error("Failed to write audit entry",
			zap.String("action", string(entry.Action)),
			zap.String("resource_type", string(entry.ResourceType)),
			zap.Error(err),
		)
		return apperrors.StorageUnavailable(err)
	}
	return nil
}

// Query returns audit entries matching the conjunctive filter, newest first,
// with the total match count for pagination.
func (r *Recorder) Query(ctx context.Context, filter query.AuditFilter, page query.Page) ([]domain.AuditLog, int64, error) {
	base := r.db.WithContext(ctx).Model(&domain.AuditLog{})

	var total int64
	if err := filter.Apply(base.Session(&gorm.Session{})).Count(&total).Error; err != nil {
		return nil, 0, apperrors.StorageUnavailable(err)
	}

	var entries []domain.AuditLog
	err := page.Apply(filter.Apply(base.Session(&gorm.Session{}))).Find(&entries).Error
	if err != nil {
		return nil, 0, apperrors.StorageUnavailable(err)
	}
	return entries, total, nil
}

// ListByResource returns the full audit trail of one resource in
// chronological order.
func (r *Recorder) ListByResource(ctx context.Context, resourceType domain.ResourceType, resourceID int64) ([]domain.AuditLog, error) {
	var entries []domain.AuditLog
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return entries, nil
}

// ListUserActivity returns one user's recent actions, newest first.
func (r *Recorder) ListUserActivity(ctx context.Context, userID int64, page query.Page) ([]domain.AuditLog, int64, error) {
	return r.Query(ctx, query.AuditFilter{UserID: &userID}, page)
}

// ListLoginHistory returns login and logout entries, optionally for one
// user, newest first.
func (r *Recorder) ListLoginHistory(ctx context.Context, userID *int64, page query.Page) ([]domain.AuditLog, int64, error) {
	base := r.db.WithContext(ctx).Model(&domain.AuditLog{}).
		Where("action IN ?", []domain.AuditAction{domain.AuditLogin, domain.AuditLogout})
	if userID != nil {
		base = base.Where("user_id = ?", *userID)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.StorageUnavailable(err)
	}

	var entries []domain.AuditLog
	err := page.Apply(base.Session(&gorm.Session{}).Order("created_at DESC")).Find(&entries).Error
	if err != nil {
		return nil, 0, apperrors.StorageUnavailable(err)
	}
	return entries, total, nil
}

// ExportJSON renders the matching entries as a JSON document for offline
// compliance review.
func (r *Recorder) ExportJSON(ctx context.Context, filter query.AuditFilter) ([]byte, error) {
	var entries []domain.AuditLog
	err := filter.Apply(r.db.WithContext(ctx).Model(&domain.AuditLog{})).Find(&entries).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return json.MarshalIndent(entries, "", "  ")
}

// PurgeExpired deletes entries older than the horizon. Critical actions
// (role_change, delete) use the longer criticalHorizon. Returns the number
// of rows removed.
func (r *Recorder) PurgeExpired(ctx context.Context, horizon, criticalHorizon time.Duration) (int64, error) {
	now := r.now()
	cutoff := now.Add(-horizon)
	criticalCutoff := now.Add(-criticalHorizon)

	critical := []domain.AuditAction{domain.AuditRoleChange, domain.AuditDelete}

	res := r.db.WithContext(ctx).
		Where("created_at < ? AND action NOT IN ?", cutoff, critical).
		Delete(&domain.AuditLog{})
	if res.Error != nil {
		return 0, apperrors.StorageUnavailable(res.Error)
	}
	purged := res.RowsAffected

	res = r.db.WithContext(ctx).
		Where("created_at < ? AND action IN ?", criticalCutoff, critical).
		Delete(&domain.AuditLog{})
	if res.Error != nil {
		return purged, apperrors.StorageUnavailable(res.Error)
	}
	purged += res.RowsAffected

	if purged > 0 {
		logger.Info("Audit retention purge completed",
			zap.Int64("purged", purged),
			zap.Time("cutoff", cutoff),
			zap.Time("critical_cutoff", criticalCutoff),
		)
	}
	return purged, nil
}
