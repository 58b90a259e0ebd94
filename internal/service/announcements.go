package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/laporkota/laporkota/internal/domain"
	"github.com/laporkota/laporkota/internal/governance/audit"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
)

// Announcements manages broadcast notices. Published listings order by
// category urgency, not insertion order.
type Announcements struct {
	db       *gorm.DB
	auditor  *audit.Recorder
	validate *validator.Validate
	now      func() time.Time
}

// NewAnnouncements creates the announcements service.
func NewAnnouncements(db *gorm.DB, auditor *audit.Recorder) *Announcements {
	return &Announcements{
		db:       db,
		auditor:  auditor,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock for tests.
func (s *Announcements) WithClock(now func() time.Time) *Announcements {
	s.now = now
	return s
}

// CreateAnnouncementInput carries the fields for a new announcement.
type CreateAnnouncementInput struct {
	Title       string                      `validate:"required,min=1,max=255"`
	Content     string                      `validate:"required,min=1"`
	Category    domain.AnnouncementCategory `validate:"required"`
	LinkURL     *string                     `validate:"omitempty,url"`
	IsPublished bool
	PublishDate *time.Time
}

// UpdateAnnouncementInput carries the mutable fields. Nil fields stay
// unchanged.
type UpdateAnnouncementInput struct {
	Title       *string                      `validate:"omitempty,min=1,max=255"`
	Content     *string                      `validate:"omitempty,min=1"`
	Category    *domain.AnnouncementCategory `validate:"omitempty"`
	LinkURL     *string                      `validate:"omitempty,url"`
	IsPublished *bool
	PublishDate *time.Time
}

// Create registers a new announcement.
func (s *Announcements) Create(ctx context.Context, input CreateAnnouncementInput, actorID int64) (*domain.Announcement, error) {
	if err := checkInput(s.validate, input); err != nil {
		return nil, err
	}
	if !input.Category.Valid() {
		return nil, apperrors.Validation(apperrors.CodeContentInvalid,
			"unknown announcement category").
			WithParams(map[string]interface{}{"category": string(input.Category)})
	}

	now := s.now()
	ann := &domain.Announcement{
		Title:       input.Title,
		Content:     input.Content,
		Category:    input.Category,
		LinkURL:     input.LinkURL,
		IsPublished: input.IsPublished,
		PublishDate: input.PublishDate,
		CreatedAt:   now,
	}
	if ann.IsPublished && ann.PublishDate == nil {
		ann.PublishDate = &now
	}

	if err := s.db.WithContext(ctx).Create(ann).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	if err := recordAudit(ctx, s.auditor, actorID, domain.AuditCreate, domain.ResourceAnnouncement, ann.ID,
		nil, domain.JSONMap{"title": ann.Title, "category": string(ann.Category)}, now); err != nil {
		return nil, err
	}
	return ann, nil
}

// Update applies the non-nil fields to an announcement.
func (s *Announcements) Update(ctx context.Context, id int64, input UpdateAnnouncementInput, actorID int64) (*domain.Announcement, error) {
	if err := checkInput(s.validate, input); err != nil {
		return nil, err
	}
	if input.Category != nil && !input.Category.Valid() {
		return nil, apperrors.Validation(apperrors.CodeContentInvalid,
			"unknown announcement category").
			WithParams(map[string]interface{}{"category": string(*input.Category)})
	}

	ann, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := domain.JSONMap{}
	if input.Title != nil {
		ann.Title = *input.Title
		changed["title"] = *input.Title
	}
	if input.Content != nil {
		ann.Content = *input.Content
		changed["content"] = true
	}
	if input.Category != nil {
		ann.Category = *input.Category
		changed["category"] = string(*input.Category)
	}
	if input.LinkURL != nil {
		ann.LinkURL = input.LinkURL
		changed["link_url"] = *input.LinkURL
	}
	if input.IsPublished != nil {
		ann.IsPublished = *input.IsPublished
		changed["is_published"] = *input.IsPublished
		if *input.IsPublished && ann.PublishDate == nil && input.PublishDate == nil {
			now := s.now()
			ann.PublishDate = &now
		}
	}
	if input.PublishDate != nil {
		ann.PublishDate = input.PublishDate
		changed["publish_date"] = input.PublishDate.Format(time.RFC3339)
	}
	if len(changed) == 0 {
		return ann, nil
	}

	now := s.now()
	ann.UpdatedAt = &now
	if err := s.db.WithContext(ctx).Save(ann).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	if err := recordAudit(ctx, s.auditor, actorID, domain.AuditUpdate, domain.ResourceAnnouncement, ann.ID,
		nil, changed, now); err != nil {
		return nil, err
	}
	return ann, nil
}

// Delete removes an announcement.
func (s *Announcements) Delete(ctx context.Context, id, actorID int64) error {
	ann, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(ann).Error; err != nil {
		return apperrors.StorageUnavailable(err)
	}
	return recordAudit(ctx, s.auditor, actorID, domain.AuditDelete, domain.ResourceAnnouncement, id,
		domain.JSONMap{"title": ann.Title}, nil, s.now())
}

// Get returns one announcement by id.
func (s *Announcements) Get(ctx context.Context, id int64) (*domain.Announcement, error) {
	var ann domain.Announcement
	err := s.db.WithContext(ctx).First(&ann, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeAnnouncementNotFound,
				fmt.Sprintf("announcement %d not found", id))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &ann, nil
}

// ListPublished returns published announcements ordered by category urgency
// (urgent first), then newest publish date.
func (s *Announcements) ListPublished(ctx context.Context) ([]domain.Announcement, error) {
	var anns []domain.Announcement
	err := s.db.WithContext(ctx).
		Where("is_published = ?", true).
		Order(domain.AnnouncementRank.OrderExpr("category") + " DESC").
		Order("publish_date DESC").
		Find(&anns).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return anns, nil
}

// ListAll returns every announcement, newest first, for administration.
func (s *Announcements) ListAll(ctx context.Context) ([]domain.Announcement, error) {
	var anns []domain.Announcement
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&anns).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return anns, nil
}
