package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/laporkota/laporkota/internal/domain"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
	"github.com/laporkota/laporkota/internal/query"
)

// Reports is the read side for infrastructure reports.
type Reports struct {
	db *gorm.DB
}

// NewReports creates the report read repository.
func NewReports(db *gorm.DB) *Reports {
	return &Reports{db: db}
}

// Get returns one report by id.
func (r *Reports) Get(ctx context.Context, id int64) (*domain.InfrastructureReport, error) {
	var report domain.InfrastructureReport
	err := r.db.WithContext(ctx).First(&report, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeReportNotFound,
				fmt.Sprintf("report %d not found", id))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &report, nil
}

// List returns reports matching the filter, severity rank first then newest,
// with the total match count.
func (r *Reports) List(ctx context.Context, filter query.ReportFilter, page query.Page) ([]domain.InfrastructureReport, int64, error) {
	base := r.db.WithContext(ctx).Model(&domain.InfrastructureReport{})

	var total int64
	if err := filter.Apply(base.Session(&gorm.Session{})).Count(&total).Error; err != nil {
		return nil, 0, apperrors.StorageUnavailable(err)
	}

	var reports []domain.InfrastructureReport
	err := page.Apply(filter.Apply(base.Session(&gorm.Session{}))).Find(&reports).Error
	if err != nil {
		return nil, 0, apperrors.StorageUnavailable(err)
	}
	return reports, total, nil
}

// CountByStatus returns the report count per status.
func (r *Reports) CountByStatus(ctx context.Context) (map[domain.ReportStatus]int64, error) {
	type row struct {
		Status domain.ReportStatus
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.InfrastructureReport{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	out := make(map[domain.ReportStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// CountBySeverity returns the report count per severity.
func (r *Reports) CountBySeverity(ctx context.Context) (map[domain.Severity]int64, error) {
	type row struct {
		Severity domain.Severity
		N        int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.InfrastructureReport{}).
		Select("severity, count(*) as n").
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	out := make(map[domain.Severity]int64, len(rows))
	for _, r := range rows {
		out[r.Severity] = r.N
	}
	return out, nil
}
