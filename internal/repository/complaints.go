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

// Complaints is the read side for complaints. Mutations go through the
// workflow store only.
type Complaints struct {
	db *gorm.DB
}

// NewComplaints creates the complaint read repository.
func NewComplaints(db *gorm.DB) *Complaints {
	return &Complaints{db: db}
}

// Get returns one complaint by id.
func (r *Complaints) Get(ctx context.Context, id int64) (*domain.Complaint, error) {
	var c domain.Complaint
	err := r.db.WithContext(ctx).First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeComplaintNotFound,
				fmt.Sprintf("complaint %d not found", id))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &c, nil
}

// List returns complaints matching the filter, newest first, with the total
// match count.
func (r *Complaints) List(ctx context.Context, filter query.ComplaintFilter, page query.Page) ([]domain.Complaint, int64, error) {
	base := r.db.WithContext(ctx).Model(&domain.Complaint{})

	var total int64
	if err := filter.Apply(base.Session(&gorm.Session{})).Count(&total).Error; err != nil {
		return nil, 0, apperrors.StorageUnavailable(err)
	}

	var complaints []domain.Complaint
	err := page.Apply(filter.Apply(base.Session(&gorm.Session{}))).Find(&complaints).Error
	if err != nil {
		return nil, 0, apperrors.StorageUnavailable(err)
	}
	return complaints, total, nil
}

// CountByStatus returns the complaint count per status, used by the
// dashboard.
func (r *Complaints) CountByStatus(ctx context.Context) (map[domain.ComplaintStatus]int64, error) {
	type row struct {
		Status domain.ComplaintStatus
		N      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.Complaint{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	out := make(map[domain.ComplaintStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
