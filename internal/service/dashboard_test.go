package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laporkota/laporkota/internal/domain"
	"github.com/laporkota/laporkota/internal/pkg/worker"
	"github.com/laporkota/laporkota/internal/repository"
	"github.com/laporkota/laporkota/internal/testutil"
)

func TestDashboard_Stats(t *testing.T) {
	db := testutil.OpenGormDB(t, "dashboard")
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		status := domain.ComplaintNew
		if i >= 5 {
			status = domain.ComplaintResolved
		}
		c := domain.Complaint{
			Title:         fmt.Sprintf("Pengaduan %d", i),
			Description:   "Laporan warga mengenai layanan publik.",
			Category:      domain.CategoryPelayanan,
			Status:        status,
			ReporterName:  "Warga",
			ReporterEmail: "warga@example.com",
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, db.Create(&c).Error)
	}
	for i := 0; i < 3; i++ {
		r := domain.InfrastructureReport{
			Title:              fmt.Sprintf("Kerusakan %d", i),
			Description:        "Kerusakan aset kota.",
			InfrastructureType: domain.InfraJalan,
			Severity:           domain.SeverityHigh,
			Status:             domain.ReportNew,
			ReporterName:       "Warga",
			ReporterEmail:      "warga@example.com",
			CreatedAt:          base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, db.Create(&r).Error)
	}

	pools, err := worker.NewPools(ctx, worker.Config{QuerySize: 4})
	require.NoError(t, err)
	defer pools.Shutdown()

	svc := NewDashboard(db, repository.NewComplaints(db), repository.NewReports(db), pools)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(7), stats.TotalComplaints)
	assert.Equal(t, int64(3), stats.TotalReports)
	assert.Equal(t, int64(5), stats.ComplaintsByStatus[domain.ComplaintNew])
	assert.Equal(t, int64(2), stats.ComplaintsByStatus[domain.ComplaintResolved])
	assert.Equal(t, int64(3), stats.ReportsByStatus[domain.ReportNew])
	assert.Equal(t, int64(3), stats.ReportsBySeverity[domain.SeverityHigh])

	// Recent listings are capped at the dashboard window.
	assert.Len(t, stats.RecentComplaints, 5)
	assert.Len(t, stats.RecentReports, 3)
}

func TestDashboard_Stats_CancelledContext(t *testing.T) {
	db := testutil.OpenGormDB(t, "dashboard_cancel")

	pools, err := worker.NewPools(context.Background(), worker.Config{})
	require.NoError(t, err)
	defer pools.Shutdown()

	svc := NewDashboard(db, repository.NewComplaints(db), repository.NewReports(db), pools)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.Stats(ctx)
	require.Error(t, err)
}

func TestDashboard_ItemsRequiringAttention(t *testing.T) {
	db := testutil.OpenGormDB(t, "dashboard_attention")
	ctx := context.Background()

	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	assignee := int64(7)

	mkComplaint := func(title string, status domain.ComplaintStatus, assignedTo *int64) {
		c := domain.Complaint{
			Title:         title,
			Description:   "Laporan warga mengenai layanan publik.",
			Category:      domain.CategoryPelayanan,
			Status:        status,
			ReporterName:  "Warga",
			ReporterEmail: "warga@example.com",
			AssignedTo:    assignedTo,
			CreatedAt:     now.Add(-time.Hour),
		}
		require.NoError(t, db.Create(&c).Error)
	}
	mkReport := func(title string, sev domain.Severity, status domain.ReportStatus, scheduled *time.Time, assignedTo *int64) {
		r := domain.InfrastructureReport{
			Title:              title,
			Description:        "Kerusakan aset kota.",
			InfrastructureType: domain.InfraJalan,
			Severity:           sev,
			Status:             status,
			ScheduledDate:      scheduled,
			AssignedTo:         assignedTo,
			ReporterName:       "Warga",
			ReporterEmail:      "warga@example.com",
			CreatedAt:          now.Add(-48 * time.Hour),
		}
		require.NoError(t, db.Create(&r).Error)
	}

	mkComplaint("Menunggu verifikasi", domain.ComplaintNew, nil)
	mkComplaint("Terverifikasi tanpa petugas", domain.ComplaintVerified, nil)
	mkComplaint("Terverifikasi sudah dipegang", domain.ComplaintVerified, &assignee)

	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)
	mkReport("Terlambat dikerjakan", domain.SeverityMedium, domain.ReportScheduled, &past, &assignee)
	mkReport("Masih sesuai jadwal", domain.SeverityMedium, domain.ReportScheduled, &future, &assignee)
	mkReport("Kritis tanpa petugas", domain.SeverityCritical, domain.ReportNew, nil, nil)

	pools, err := worker.NewPools(ctx, worker.Config{QuerySize: 4})
	require.NoError(t, err)
	defer pools.Shutdown()

	svc := NewDashboard(db, repository.NewComplaints(db), repository.NewReports(db), pools).
		WithClock(func() time.Time { return now })

	items, err := svc.ItemsRequiringAttention(ctx)
	require.NoError(t, err)

	require.Len(t, items.NewComplaints, 1)
	assert.Equal(t, "Menunggu verifikasi", items.NewComplaints[0].Title)

	require.Len(t, items.UnassignedVerified, 1)
	assert.Equal(t, "Terverifikasi tanpa petugas", items.UnassignedVerified[0].Title)

	require.Len(t, items.OverdueReports, 1)
	assert.Equal(t, "Terlambat dikerjakan", items.OverdueReports[0].Title)

	require.Len(t, items.UnassignedCritical, 1)
	assert.Equal(t, "Kritis tanpa petugas", items.UnassignedCritical[0].Title)
}

func TestDashboard_PerformanceMetrics(t *testing.T) {
	db := testutil.OpenGormDB(t, "dashboard_perf")
	ctx := context.Background()

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	assignee := int64(7)

	role := domain.Role{Name: "petugas", Permissions: domain.BoolMap{}, CreatedAt: from}
	require.NoError(t, db.Create(&role).Error)
	require.NoError(t, db.Create(&domain.User{
		ID:        assignee,
		Name:      "Andi Wijaya",
		Email:     "andi@laporkota.go.id",
		NIK:       "3171234567890009",
		IsActive:  true,
		RoleID:    role.ID,
		CreatedAt: from,
	}).Error)

	// Two complaints resolved in 2 and 4 days: average and median 3 days.
	for _, days := range []int{2, 4} {
		created := from.Add(24 * time.Hour)
		resolved := created.Add(time.Duration(days) * 24 * time.Hour)
		c := domain.Complaint{
			Title:         "Selesai",
			Description:   "Laporan warga mengenai layanan publik.",
			Category:      domain.CategoryPelayanan,
			Status:        domain.ComplaintResolved,
			ReporterName:  "Warga",
			ReporterEmail: "warga@example.com",
			AssignedTo:    &assignee,
			CreatedAt:     created,
			ResolvedAt:    &resolved,
		}
		require.NoError(t, db.Create(&c).Error)
	}

	pools, err := worker.NewPools(ctx, worker.Config{})
	require.NoError(t, err)
	defer pools.Shutdown()

	svc := NewDashboard(db, repository.NewComplaints(db), repository.NewReports(db), pools)

	metrics, err := svc.PerformanceMetrics(ctx, from, to)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, metrics.ComplaintResolution.AverageDays, 0.01)
	assert.InDelta(t, 3.0, metrics.ComplaintResolution.MedianDays, 0.01)
	assert.Zero(t, metrics.ReportCompletion.AverageDays)

	require.Len(t, metrics.UserProductivity, 1)
	assert.Equal(t, assignee, metrics.UserProductivity[0].UserID)
	assert.Equal(t, "Andi Wijaya", metrics.UserProductivity[0].UserName)
	assert.Equal(t, int64(2), metrics.UserProductivity[0].ResolvedComplaints)
	assert.Equal(t, int64(0), metrics.UserProductivity[0].CompletedReports)
}
