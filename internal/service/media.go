package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/laporkota/laporkota/internal/domain"
	"github.com/laporkota/laporkota/internal/governance/audit"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
	"github.com/laporkota/laporkota/internal/pkg/logger"
)

// Media manages file metadata. The bytes live in an external store; this
// service only assigns a collision-free stored name and tracks ownership.
type Media struct {
	db       *gorm.DB
	auditor  *audit.Recorder
	validate *validator.Validate
	now      func() time.Time
	newID    func() uuid.UUID
}

// NewMedia creates the media metadata service.
func NewMedia(db *gorm.DB, auditor *audit.Recorder) *Media {
	return &Media{
		db:       db,
		auditor:  auditor,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.New,
	}
}

// WithClock overrides the clock for tests.
func (s *Media) WithClock(now func() time.Time) *Media {
	s.now = now
	return s
}

// RegisterMediaInput carries the metadata of an uploaded file.
type RegisterMediaInput struct {
	OriginalName string  `validate:"required,min=1,max=255"`
	MimeType     string  `validate:"required,min=1,max=128"`
	Size         int64   `validate:"required,gt=0"`
	BaseURL      string  `validate:"required,min=1"`
	OwnerTable   *string `validate:"omitempty,max=64"`
	OwnerID      *int64  `validate:"omitempty,gt=0"`
}

// Register records a file's metadata. The stored filename is a fresh uuid
// keeping the original extension, so uploads never collide.
func (s *Media) Register(ctx context.Context, input RegisterMediaInput, actorID int64) (*domain.Media, error) {
	if err := checkInput(s.validate, input); err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(input.OriginalName))
	stored := s.newID().String() + ext

	media := &domain.Media{
		Filename:     stored,
		OriginalName: input.OriginalName,
		MimeType:     input.MimeType,
		Size:         input.Size,
		URL:          strings.TrimRight(input.BaseURL, "/") + "/" + stored,
		OwnerTable:   input.OwnerTable,
		OwnerID:      input.OwnerID,
		UploadedBy:   actorID,
		CreatedAt:    s.now(),
	}
	if err := s.db.WithContext(ctx).Create(media).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}

	if err := recordAudit(ctx, s.auditor, actorID, domain.AuditCreate, domain.ResourceMedia, media.ID,
		nil, domain.JSONMap{"filename": media.Filename, "original_name": media.OriginalName}, s.now()); err != nil {
		return nil, err
	}
	return media, nil
}

// Get returns one media record by id.
func (s *Media) Get(ctx context.Context, id int64) (*domain.Media, error) {
	var media domain.Media
	err := s.db.WithContext(ctx).First(&media, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeMediaNotFound,
				fmt.Sprintf("media %d not found", id))
		}
		return nil, apperrors.StorageUnavailable(err)
	}
	return &media, nil
}

// ListByOwner returns the media attached to one owning record, oldest first.
func (s *Media) ListByOwner(ctx context.Context, ownerTable string, ownerID int64) ([]domain.Media, error) {
	var media []domain.Media
	err := s.db.WithContext(ctx).
		Where("owner_table = ? AND owner_id = ?", ownerTable, ownerID).
		Order("created_at ASC").
		Find(&media).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return media, nil
}

// Delete removes a media record. Deleting metadata does not touch the bytes
// in the external store.
func (s *Media) Delete(ctx context.Context, id, actorID int64) error {
	media, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(media).Error; err != nil {
		return apperrors.StorageUnavailable(err)
	}
	return recordAudit(ctx, s.auditor, actorID, domain.AuditDelete, domain.ResourceMedia, id,
		domain.JSONMap{"filename": media.Filename}, nil, s.now())
}

// ListUnassigned returns media records that no owning record claims, newest
// first, optionally filtered by uploader. These are candidates for cleanup.
func (s *Media) ListUnassigned(ctx context.Context, uploadedBy *int64) ([]domain.Media, error) {
	db := s.db.WithContext(ctx).
		Where("owner_table IS NULL AND owner_id IS NULL")
	if uploadedBy != nil {
		db = db.Where("uploaded_by = ?", *uploadedBy)
	}

	var media []domain.Media
	if err := db.Order("created_at DESC, id DESC").Find(&media).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	return media, nil
}

// AssignToOwner attaches an unassigned media record to its owning record.
func (s *Media) AssignToOwner(ctx context.Context, id int64, ownerTable string, ownerID, actorID int64) (*domain.Media, error) {
	media, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if media.OwnerTable != nil || media.OwnerID != nil {
		return nil, apperrors.Validation(apperrors.CodeContentInvalid,
			fmt.Sprintf("media %d already has an owner", id))
	}

	media.OwnerTable = &ownerTable
	media.OwnerID = &ownerID
	if err := s.db.WithContext(ctx).Save(media).Error; err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}

	if err := recordAudit(ctx, s.auditor, actorID, domain.AuditUpdate, domain.ResourceMedia, id,
		nil, domain.JSONMap{"owner_table": ownerTable, "owner_id": ownerID}, s.now()); err != nil {
		return nil, err
	}
	return media, nil
}

// CleanupOrphaned deletes unassigned media older than the retention window
// and returns the number of records removed. Meant to run on a schedule.
func (s *Media) CleanupOrphaned(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan)

	res := s.db.WithContext(ctx).
		Where("owner_table IS NULL AND owner_id IS NULL AND created_at < ?", cutoff).
		Delete(&domain.Media{})
	if res.Error != nil {
		return 0, apperrors.StorageUnavailable(res.Error)
	}

	if res.RowsAffected > 0 {
		logger.Info("orphaned media cleaned up",
			zap.Int64("removed", res.RowsAffected),
			zap.Time("cutoff", cutoff))
	}
	return res.RowsAffected, nil
}
