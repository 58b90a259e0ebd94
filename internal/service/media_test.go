package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laporkota/laporkota/internal/domain"
	"github.com/laporkota/laporkota/internal/governance/audit"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
	"github.com/laporkota/laporkota/internal/testutil"
)

func registerMedia(t *testing.T, svc *Media, name string, ownerTable *string, ownerID *int64) *domain.Media {
	t.Helper()
	media, err := svc.Register(context.Background(), RegisterMediaInput{
		OriginalName: name,
		MimeType:     "image/jpeg",
		Size:         2048,
		BaseURL:      "https://media.laporkota.go.id/uploads",
		OwnerTable:   ownerTable,
		OwnerID:      ownerID,
	}, 1)
	require.NoError(t, err)
	return media
}

func TestMedia_ListUnassigned(t *testing.T) {
	db := testutil.OpenGormDB(t, "media_unassigned")
	svc := NewMedia(db, audit.NewRecorder(db))
	ctx := context.Background()

	owner := "complaints"
	ownerID := int64(1)
	registerMedia(t, svc, "foto-jalan.jpg", &owner, &ownerID)
	orphan := registerMedia(t, svc, "tanpa-pemilik.jpg", nil, nil)

	list, err := svc.ListUnassigned(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, orphan.ID, list[0].ID)

	other := int64(99)
	list, err = svc.ListUnassigned(ctx, &other)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMedia_AssignToOwner(t *testing.T) {
	db := testutil.OpenGormDB(t, "media_assign")
	svc := NewMedia(db, audit.NewRecorder(db))
	ctx := context.Background()

	orphan := registerMedia(t, svc, "foto.jpg", nil, nil)

	assigned, err := svc.AssignToOwner(ctx, orphan.ID, "complaints", 5, 1)
	require.NoError(t, err)
	require.NotNil(t, assigned.OwnerTable)
	assert.Equal(t, "complaints", *assigned.OwnerTable)
	require.NotNil(t, assigned.OwnerID)
	assert.Equal(t, int64(5), *assigned.OwnerID)

	// A second owner claim is refused.
	_, err = svc.AssignToOwner(ctx, orphan.ID, "complaints", 6, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestMedia_CleanupOrphaned(t *testing.T) {
	db := testutil.OpenGormDB(t, "media_cleanup")
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	svc := NewMedia(db, audit.NewRecorder(db)).WithClock(func() time.Time { return now })
	ctx := context.Background()

	owner := "complaints"
	ownerID := int64(1)

	old := registerMedia(t, svc, "lama.jpg", nil, nil)
	require.NoError(t, db.Model(&domain.Media{}).Where("id = ?", old.ID).
		Update("created_at", now.Add(-40*24*time.Hour)).Error)

	fresh := registerMedia(t, svc, "baru.jpg", nil, nil)
	owned := registerMedia(t, svc, "dipakai.jpg", &owner, &ownerID)
	require.NoError(t, db.Model(&domain.Media{}).Where("id = ?", owned.ID).
		Update("created_at", now.Add(-40*24*time.Hour)).Error)

	removed, err := svc.CleanupOrphaned(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// The fresh orphan and the owned record both survive.
	_, err = svc.Get(ctx, fresh.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, owned.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, old.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
