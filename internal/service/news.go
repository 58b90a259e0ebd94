// Package service implements the content and administration services around
// the workflow core: news, announcements, settings, media metadata and the
// dashboard aggregates. Every mutation writes an audit trail entry.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/laporkota/laporkota/internal/domain"
	"github.com/laporkota/laporkota/internal/governance/audit"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
)

// News manages news articles.
type News struct {
	db       *gorm.DB
	auditor  *audit.Recorder
	validate *validator.Validate
	now      func() time.Time
}

// NewNews creates the news service.
func NewNews(db *gorm.DB, auditor *audit.Recorder) *News {
	return &News{
		db:       db,
		auditor:  auditor,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock for tests.
func (s *News) WithClock(now func() time.Time) *News {
	s.now = now
	return s
}

// CreateNewsInput carries the fields for a new article.
type CreateNewsInput struct {
	Title         string  `validate:"required,min=1,max=255"`
	Content       string  `validate:"required,min=50"`
	Excerpt       *string `validate:"omitempty,max=500"`
	FeaturedImage *string `validate:"omitempty,max=500"`
	AuthorID      int64   `validate:"required,gt=0"`
	IsPublished   bool
	PublishDate   *time.Time
}

// UpdateNewsInput carries the mutable article fields. Nil fields stay
// unchanged.
type UpdateNewsInput struct {
	Title         *string `validate:"omitempty,min=1,max=255"`
	Content       *string `validate:"omitempty,min=50"`
	Excerpt       *string `validate:"omitempty,max=500"`
	FeaturedImage *string `validate:"omitempty,max=500"`
	IsPublished   *bool
	PublishDate   *time.Time
}

// Create registers a new article. Publishing without an explicit publish
// date stamps the current time.
func (s *News) Create(ctx context.Context, input CreateNewsInput, actorID int64) (*domain.News, error) {
	if err := checkInput(s.validate, input); err != nil {
		return nil, err
	}

	now := s.now()
	article := &domain.News{
		Title:         input.Title,
		Content:       input.Content,
		Excerpt:       input.Excerpt,
		FeaturedImage: input.FeaturedImage,
		AuthorID:      input.AuthorID,
		IsPublished:   input.IsPublished,
		PublishDate:   input.PublishDate,
		CreatedAt:     now,
	}
	if article.IsPublished && article.PublishDate == nil {
		article.PublishDate = &now
	}

	if err := s.db.WithContext(ctx).Create(article).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	if err := recordAudit(ctx, s.auditor, actorID, domain.AuditCreate, domain.ResourceNews, article.ID,
		nil, domain.JSONMap{"title": article.Title}, s.now()); err != nil {
		return nil, err
	}
	return article, nil
}

// Update applies the non-nil fields to an article.
func (s *News) Update(ctx context.Context, id int64, input UpdateNewsInput, actorID int64) (*domain.News, error) {
	if err := checkInput(s.validate, input); err != nil {
		return nil, err
	}

	article, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := domain.JSONMap{}
	if input.Title != nil {
		article.Title = *input.Title
		changed["title"] = *input.Title
	}
	if input.Content != nil {
		article.Content = *input.Content
		changed["content"] = true
	}
	if input.Excerpt != nil {
		article.Excerpt = input.Excerpt
		changed["excerpt"] = *input.Excerpt
	}
	if input.FeaturedImage != nil {
		article.FeaturedImage = input.FeaturedImage
		changed["featured_image"] = *input.FeaturedImage
	}
	if input.IsPublished != nil {
		article.IsPublished = *input.IsPublished
		changed["is_published"] = *input.IsPublished
		if *input.IsPublished && article.PublishDate == nil && input.PublishDate == nil {
			now := s.now()
			article.PublishDate = &now
		}
	}
	if input.PublishDate != nil {
		article.PublishDate = input.PublishDate
		changed["publish_date"] = input.PublishDate.Format(time.RFC3339)
	}
	if len(changed) == 0 {
		return article, nil
	}

	now := s.now()
	article.UpdatedAt = &now
	if err := s.db.WithContext(ctx).Save(article).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	if err := recordAudit(ctx, s.auditor, actorID, domain.AuditUpdate, domain.ResourceNews, article.ID,
		nil, changed, now); err != nil {
		return nil, err
	}
	return article, nil
}

// Delete removes an article.
func (s *News) Delete(ctx context.Context, id, actorID int64) error {
	article, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(article).Error; err != nil {
		return apperrors.StorageUnavailable(err)
	}
	return recordAudit(ctx, s.auditor, actorID, domain.AuditDelete, domain.ResourceNews, id,
		domain.JSONMap{"title": article.Title}, nil, s.now())
}

// Get returns one article by id.
func (s *News) Get(ctx context.Context, id int64) (*domain.News, error) {
	var article domain.News
	err := s.db.WithContext(ctx).First(&article, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeNewsNotFound,
				fmt.Sprintf("news %d not found", id))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &article, nil
}

// ListPublished returns published articles, newest publish date first.
func (s *News) ListPublished(ctx context.Context) ([]domain.News, error) {
	var articles []domain.News
	err := s.db.WithContext(ctx).
		Where("is_published = ?", true).
		Order("publish_date DESC").
		Find(&articles).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return articles, nil
}

// ListAll returns every article, newest first, for administration.
func (s *News) ListAll(ctx context.Context) ([]domain.News, error) {
	var articles []domain.News
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&articles).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return articles, nil
}

// checkInput runs struct validation and converts failures into a typed error
// with field details.
func checkInput(validate *validator.Validate, input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Validation(apperrors.CodeValidationFailed, err.Error())
	}
	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperrors.FieldError{
			Field: strings.ToLower(fe.Field()),
			Code:  fe.Tag(),
		})
	}
	return apperrors.Validation(apperrors.CodeValidationFailed, "input validation failed").
		WithFieldErrors(fields)
}

// recordAudit writes one audit entry for a service mutation.
func recordAudit(ctx context.Context, auditor *audit.Recorder, actorID int64, action domain.AuditAction, resource domain.ResourceType, id int64, oldValues, newValues domain.JSONMap, at time.Time) error {
	return auditor.Record(ctx, &domain.AuditLog{
		UserID:       actorID,
		Action:       action,
		ResourceType: resource,
		ResourceID:   &id,
		OldValues:    oldValues,
		NewValues:    newValues,
		CreatedAt:    at,
	})
}
