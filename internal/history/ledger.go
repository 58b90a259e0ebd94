// Package history reads the append-only status history ledger. Writes happen
// exclusively inside workflow engine transactions; this package never exposes
// an update or delete path.
package history

import (
	"context"

	"gorm.io/gorm"

	"github.com/laporkota/laporkota/internal/domain"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
)

// Ledger reads status history records.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a history ledger over db.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// ListFor returns the full chronological history of one resource, oldest
// first. The result is unbounded: a lifecycle has at most a handful of
// entries and the ledger is the authoritative timeline.
func (l *Ledger) ListFor(ctx context.Context, resourceType domain.ResourceType, resourceID int64) ([]domain.StatusHistory, error) {
	var entries []domain.StatusHistory
	err := l.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return entries, nil
}
