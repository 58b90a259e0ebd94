// Package repository implements the persistence layer over GORM. It is the
// only package that touches gorm error values; everything it returns is a
// typed application error.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/laporkota/laporkota/internal/domain"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
	"github.com/laporkota/laporkota/internal/workflow"
)

// Store implements workflow.Store over a GORM handle.
type Store struct {
	db *gorm.DB
}

// NewStore creates the workflow store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn in one database transaction. Any error from fn rolls the
// whole transaction back, so entity, history and audit writes commit together
// or not at all.
func (s *Store) WithTx(ctx context.Context, fn func(tx workflow.Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&storeTx{db: tx})
	})
	if err == nil {
		return nil
	}
	if _, ok := apperrors.IsAppError(err); ok {
		return err
	}
	return apperrors.StorageUnavailable(err)
}

// storeTx implements workflow.Tx inside one transaction.
type storeTx struct {
	db *gorm.DB
}

func (t *storeTx) CreateComplaint(ctx context.Context, c *domain.Complaint) error {
	if err := t.db.WithContext(ctx).Create(c).Error; err != nil {
		return apperrors.StorageUnavailable(err)
	}
	return nil
}

// GetComplaintForUpdate loads a complaint under FOR UPDATE so concurrent
// transitions against the same row serialize.
func (t *storeTx) GetComplaintForUpdate(ctx context.Context, id int64) (*domain.Complaint, error) {
	var c domain.Complaint
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeComplaintNotFound,
				fmt.Sprintf("complaint %d not found", id))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &c, nil
}

func (t *storeTx) SaveComplaint(ctx context.Context, c *domain.Complaint) error {
	if err := t.db.WithContext(ctx).Save(c).Error; err != nil {
		return apperrors.StorageUnavailable(err)
	}
	return nil
}

func (t *storeTx) CreateReport(ctx context.Context, r *domain.InfrastructureReport) error {
	if err := t.db.WithContext(ctx).Create(r).Error; err != nil {
		return apperrors.StorageUnavailable(err)
	}
	return nil
}

// GetReportForUpdate loads a report under FOR UPDATE.
func (t *storeTx) GetReportForUpdate(ctx context.Context, id int64) (*domain.InfrastructureReport, error) {
	var r domain.InfrastructureReport
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&r, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeReportNotFound,
				fmt.Sprintf("report %d not found", id))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &r, nil
}

func (t *storeTx) SaveReport(ctx context.Context, r *domain.InfrastructureReport) error {
	if err := t.db.WithContext(ctx).Save(r).Error; err != nil {
		return apperrors.StorageUnavailable(err)
	}
	return nil
}

func (t *storeTx) AppendHistory(ctx context.Context, h *domain.StatusHistory) error {
	if err := t.db.WithContext(ctx).Create(h).Error; err != nil {
		return apperrors.StorageUnavailable(err)
	}
	return nil
}

func (t *storeTx) AppendAudit(ctx context.Context, a *domain.AuditLog) error {
	if err := t.db.WithContext(ctx).Create(a).Error; err != nil {
		return apperrors.StorageUnavailable(err)
	}
	return nil
}
