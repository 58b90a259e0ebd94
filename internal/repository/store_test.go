package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laporkota/laporkota/internal/domain"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
	"github.com/laporkota/laporkota/internal/query"
	"github.com/laporkota/laporkota/internal/testutil"
	"github.com/laporkota/laporkota/internal/workflow"
)

func seedComplaint(t *testing.T, store *Store, title string, status domain.ComplaintStatus) *domain.Complaint {
	t.Helper()
	c := &domain.Complaint{
		Title:         title,
		Description:   "integration test complaint",
		Category:      domain.CategoryInfrastruktur,
		Status:        status,
		ReporterName:  "Tester",
		ReporterEmail: "tester@example.com",
		CreatedAt:     time.Now().UTC(),
	}
	err := store.WithTx(context.Background(), func(tx workflow.Tx) error {
		return tx.CreateComplaint(context.Background(), c)
	})
	require.NoError(t, err)
	return c
}

func TestStoreWithTx_CommitsTogether(t *testing.T) {
	db := testutil.OpenGormDB(t, "store_commit")
	store := NewStore(db)
	ctx := context.Background()

	var id int64
	err := store.WithTx(ctx, func(tx workflow.Tx) error {
		c := &domain.Complaint{
			Title:         "committed complaint",
			Description:   "entity, history and audit in one tx",
			Category:      domain.CategoryKebersihan,
			Status:        domain.ComplaintNew,
			ReporterName:  "Tester",
			ReporterEmail: "tester@example.com",
			CreatedAt:     time.Now().UTC(),
		}
		if err := tx.CreateComplaint(ctx, c); err != nil {
			return err
		}
		id = c.ID
		newStatus := string(domain.ComplaintNew)
		if err := tx.AppendHistory(ctx, &domain.StatusHistory{
			ResourceType: domain.ResourceComplaint,
			ResourceID:   c.ID,
			NewStatus:    newStatus,
			ChangedBy:    1,
			CreatedAt:    time.Now().UTC(),
		}); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, &domain.AuditLog{
			UserID:       1,
			Action:       domain.AuditCreate,
			ResourceType: domain.ResourceComplaint,
			ResourceID:   &c.ID,
			CreatedAt:    time.Now().UTC(),
		})
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.Complaint{}).Where("id = ?", id).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&domain.StatusHistory{}).Where("resource_id = ?", id).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, db.Model(&domain.AuditLog{}).Where("resource_id = ?", id).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestStoreWithTx_RollsBackTogether(t *testing.T) {
	db := testutil.OpenGormDB(t, "store_rollback")
	store := NewStore(db)
	ctx := context.Background()

	boom := errors.New("refuse commit")
	err := store.WithTx(ctx, func(tx workflow.Tx) error {
		c := &domain.Complaint{
			Title:         "doomed complaint",
			Description:   "must not survive the rollback",
			Category:      domain.CategoryLainnya,
			Status:        domain.ComplaintNew,
			ReporterName:  "Tester",
			ReporterEmail: "tester@example.com",
			CreatedAt:     time.Now().UTC(),
		}
		if err := tx.CreateComplaint(ctx, c); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorageUnavail)

	var count int64
	require.NoError(t, db.Model(&domain.Complaint{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStoreGetComplaintForUpdate_NotFound(t *testing.T) {
	db := testutil.OpenGormDB(t, "store_notfound")
	store := NewStore(db)

	err := store.WithTx(context.Background(), func(tx workflow.Tx) error {
		_, err := tx.GetComplaintForUpdate(context.Background(), 404)
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestComplaintsList_Filters(t *testing.T) {
	db := testutil.OpenGormDB(t, "complaints_list")
	store := NewStore(db)
	repo := NewComplaints(db)
	ctx := context.Background()

	seedComplaint(t, store, "Jalan rusak parah", domain.ComplaintNew)
	seedComplaint(t, store, "Sampah menumpuk", domain.ComplaintVerified)
	seedComplaint(t, store, "Jalan gelap", domain.ComplaintVerified)

	verified := domain.ComplaintVerified
	list, total, err := repo.List(ctx, query.ComplaintFilter{Status: &verified}, query.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	search := "jalan"
	list, total, err = repo.List(ctx, query.ComplaintFilter{Search: &search}, query.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "search is case-insensitive")

	// Conjunctive: verified AND matching search.
	list, total, err = repo.List(ctx, query.ComplaintFilter{Status: &verified, Search: &search}, query.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "Jalan gelap", list[0].Title)
}

func TestReportsList_SeverityOrdering(t *testing.T) {
	db := testutil.OpenGormDB(t, "reports_order")
	store := NewStore(db)
	repo := NewReports(db)
	ctx := context.Background()

	mk := func(title string, sev domain.Severity) {
		r := &domain.InfrastructureReport{
			Title:              title,
			Description:        "integration test report",
			InfrastructureType: domain.InfraJalan,
			Severity:           sev,
			Status:             domain.ReportNew,
			ReporterName:       "Tester",
			ReporterEmail:      "tester@example.com",
			CreatedAt:          time.Now().UTC(),
		}
		err := store.WithTx(ctx, func(tx workflow.Tx) error {
			return tx.CreateReport(ctx, r)
		})
		require.NoError(t, err)
	}

	mk("low issue", domain.SeverityLow)
	mk("critical issue", domain.SeverityCritical)
	mk("medium issue", domain.SeverityMedium)

	list, total, err := repo.List(ctx, query.ReportFilter{}, query.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 3)
	assert.Equal(t, domain.SeverityCritical, list[0].Severity)
	assert.Equal(t, domain.SeverityMedium, list[1].Severity)
	assert.Equal(t, domain.SeverityLow, list[2].Severity)
}

func TestComplaintsList_StablePaginationOnTiedTimestamps(t *testing.T) {
	db := testutil.OpenGormDB(t, "complaints_pages")
	repo := NewComplaints(db)
	ctx := context.Background()

	// Bulk intake lands many rows on the same timestamp; paging must still
	// partition them without repeats or gaps.
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		c := &domain.Complaint{
			Title:         "batch complaint",
			Description:   "integration test complaint",
			Category:      domain.CategoryPelayanan,
			Status:        domain.ComplaintNew,
			ReporterName:  "Tester",
			ReporterEmail: "tester@example.com",
			CreatedAt:     at,
		}
		require.NoError(t, db.Create(c).Error)
	}

	seen := make(map[int64]bool)
	for page := 1; page <= 3; page++ {
		list, total, err := repo.List(ctx, query.ComplaintFilter{}, query.Page{Page: page, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		for _, c := range list {
			assert.False(t, seen[c.ID], "complaint %d returned on more than one page", c.ID)
			seen[c.ID] = true
		}
	}
	assert.Len(t, seen, 5)
}
