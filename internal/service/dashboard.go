package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/laporkota/laporkota/internal/domain"
	apperrors "github.com/laporkota/laporkota/internal/pkg/errors"
	"github.com/laporkota/laporkota/internal/pkg/worker"
	"github.com/laporkota/laporkota/internal/query"
	"github.com/laporkota/laporkota/internal/repository"
)

// DashboardStats is the aggregate snapshot shown on the admin landing page.
type DashboardStats struct {
	TotalComplaints    int64                            `json:"total_complaints"`
	TotalReports       int64                            `json:"total_reports"`
	ComplaintsByStatus map[domain.ComplaintStatus]int64 `json:"complaints_by_status"`
	ReportsByStatus    map[domain.ReportStatus]int64    `json:"reports_by_status"`
	ReportsBySeverity  map[domain.Severity]int64        `json:"reports_by_severity"`
	RecentComplaints   []domain.Complaint               `json:"recent_complaints"`
	RecentReports      []domain.InfrastructureReport    `json:"recent_reports"`
}

const recentWindow = 5

// Dashboard gathers the aggregate counts. The independent queries fan out
// through the query worker pool and run concurrently against the shared
// connection pool.
type Dashboard struct {
	db         *gorm.DB
	complaints *repository.Complaints
	reports    *repository.Reports
	pools      *worker.Pools
	now        func() time.Time
}

// NewDashboard creates the dashboard service.
func NewDashboard(db *gorm.DB, complaints *repository.Complaints, reports *repository.Reports, pools *worker.Pools) *Dashboard {
	return &Dashboard{
		db:         db,
		complaints: complaints,
		reports:    reports,
		pools:      pools,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock for tests.
func (s *Dashboard) WithClock(now func() time.Time) *Dashboard {
	s.now = now
	return s
}

// Stats collects the snapshot. The first query error wins; partial results
// are never returned.
func (s *Dashboard) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	tasks := []worker.Task{
		func(ctx context.Context) {
			byStatus, err := s.complaints.CountByStatus(ctx)
			if err != nil {
				fail(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			stats.ComplaintsByStatus = byStatus
			for _, n := range byStatus {
				stats.TotalComplaints += n
			}
		},
		func(ctx context.Context) {
			byStatus, err := s.reports.CountByStatus(ctx)
			if err != nil {
				fail(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			stats.ReportsByStatus = byStatus
			for _, n := range byStatus {
				stats.TotalReports += n
			}
		},
		func(ctx context.Context) {
			bySeverity, err := s.reports.CountBySeverity(ctx)
			if err != nil {
				fail(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			stats.ReportsBySeverity = bySeverity
		},
		func(ctx context.Context) {
			recent, _, err := s.complaints.List(ctx, query.ComplaintFilter{},
				query.Page{Page: 1, Limit: recentWindow})
			if err != nil {
				fail(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			stats.RecentComplaints = recent
		},
		func(ctx context.Context) {
			recent, _, err := s.reports.List(ctx, query.ReportFilter{},
				query.Page{Page: 1, Limit: recentWindow})
			if err != nil {
				fail(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			stats.RecentReports = recent
		},
	}

	for _, task := range tasks {
		task := task
		wg.Add(1)
		if err := s.pools.Query.Submit(ctx, func(ctx context.Context) {
			defer wg.Done()
			task(ctx)
		}); err != nil {
			wg.Done()
			fail(apperrors.StorageUnavailable(err))
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return stats, nil
}

// AttentionItems groups the work queues an operator should look at first.
type AttentionItems struct {
	NewComplaints      []domain.Complaint            `json:"new_complaints"`
	UnassignedVerified []domain.Complaint            `json:"unassigned_verified"`
	OverdueReports     []domain.InfrastructureReport `json:"overdue_reports"`
	UnassignedCritical []domain.InfrastructureReport `json:"unassigned_critical"`
}

// attentionWindow caps each attention queue; the full backlog lives behind
// the regular filtered listings.
const attentionWindow = 20

// ItemsRequiringAttention collects the queues that need immediate action:
// new complaints awaiting verification, verified complaints nobody picked
// up, reports past their scheduled date, and critical reports without an
// assignee. Queries fan out like Stats; the first error wins.
func (s *Dashboard) ItemsRequiringAttention(ctx context.Context) (*AttentionItems, error) {
	items := &AttentionItems{}
	asOf := s.now()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	page := query.Page{Page: 1, Limit: attentionWindow}
	statusNew := domain.ComplaintNew
	statusVerified := domain.ComplaintVerified
	sevCritical := domain.SeverityCritical

	tasks := []worker.Task{
		func(ctx context.Context) {
			list, _, err := s.complaints.List(ctx, query.ComplaintFilter{Status: &statusNew}, page)
			if err != nil {
				fail(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			items.NewComplaints = list
		},
		func(ctx context.Context) {
			list, _, err := s.complaints.List(ctx, query.ComplaintFilter{
				Status:     &statusVerified,
				Unassigned: true,
			}, page)
			if err != nil {
				fail(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			items.UnassignedVerified = list
		},
		func(ctx context.Context) {
			list, _, err := s.reports.List(ctx, query.ReportFilter{OverdueAsOf: &asOf}, page)
			if err != nil {
				fail(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			items.OverdueReports = list
		},
		func(ctx context.Context) {
			list, _, err := s.reports.List(ctx, query.ReportFilter{
				Severity:   &sevCritical,
				Unassigned: true,
			}, page)
			if err != nil {
				fail(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			items.UnassignedCritical = list
		},
	}

	for _, task := range tasks {
		task := task
		wg.Add(1)
		if err := s.pools.Query.Submit(ctx, func(ctx context.Context) {
			defer wg.Done()
			task(ctx)
		}); err != nil {
			wg.Done()
			fail(apperrors.StorageUnavailable(err))
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return items, nil
}

// DurationStats are wall-clock days from intake to closure.
type DurationStats struct {
	AverageDays float64 `json:"average_days"`
	MedianDays  float64 `json:"median_days"`
}

// UserProductivity counts the items one user closed inside the window.
type UserProductivity struct {
	UserID             int64  `json:"user_id"`
	UserName           string `json:"user_name"`
	ResolvedComplaints int64  `json:"resolved_complaints"`
	CompletedReports   int64  `json:"completed_reports"`
}

// PerformanceMetrics is the management reporting snapshot for a date range.
type PerformanceMetrics struct {
	ComplaintResolution DurationStats      `json:"complaint_resolution"`
	ReportCompletion    DurationStats      `json:"report_completion"`
	UserProductivity    []UserProductivity `json:"user_productivity"`
}

const secondsPerDay = 24 * 60 * 60

type durationRow struct {
	AvgSecs    *float64
	MedianSecs *float64
}

func (r durationRow) toDays() DurationStats {
	stats := DurationStats{}
	if r.AvgSecs != nil {
		stats.AverageDays = *r.AvgSecs / secondsPerDay
	}
	if r.MedianSecs != nil {
		stats.MedianDays = *r.MedianSecs / secondsPerDay
	}
	return stats
}

// PerformanceMetrics computes closure-time statistics and per-user closed
// counts for items closed between from and to.
func (s *Dashboard) PerformanceMetrics(ctx context.Context, from, to time.Time) (*PerformanceMetrics, error) {
	metrics := &PerformanceMetrics{}

	var row durationRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT AVG(EXTRACT(EPOCH FROM (resolved_at - created_at))) AS avg_secs,
		       PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY EXTRACT(EPOCH FROM (resolved_at - created_at))) AS median_secs
		FROM complaints
		WHERE status = ? AND resolved_at BETWEEN ? AND ?`,
		domain.ComplaintResolved, from, to).Scan(&row).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	metrics.ComplaintResolution = row.toDays()

	row = durationRow{}
	err = s.db.WithContext(ctx).Raw(`
		SELECT AVG(EXTRACT(EPOCH FROM (completed_date - created_at))) AS avg_secs,
		       PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY EXTRACT(EPOCH FROM (completed_date - created_at))) AS median_secs
		FROM infrastructure_reports
		WHERE status = ? AND completed_date BETWEEN ? AND ?`,
		domain.ReportCompleted, from, to).Scan(&row).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	metrics.ReportCompletion = row.toDays()

	var productivity []UserProductivity
	err = s.db.WithContext(ctx).Raw(`
		SELECT u.id AS user_id, u.name AS user_name,
		       COALESCE(c.n, 0) AS resolved_complaints,
		       COALESCE(r.n, 0) AS completed_reports
		FROM users u
		LEFT JOIN (
			SELECT assigned_to, COUNT(*) AS n FROM complaints
			WHERE status = ? AND resolved_at BETWEEN ? AND ? AND assigned_to IS NOT NULL
			GROUP BY assigned_to
		) c ON c.assigned_to = u.id
		LEFT JOIN (
			SELECT assigned_to, COUNT(*) AS n FROM infrastructure_reports
			WHERE status = ? AND completed_date BETWEEN ? AND ? AND assigned_to IS NOT NULL
			GROUP BY assigned_to
		) r ON r.assigned_to = u.id
		WHERE COALESCE(c.n, 0) + COALESCE(r.n, 0) > 0
		ORDER BY COALESCE(c.n, 0) + COALESCE(r.n, 0) DESC, u.id ASC`,
		domain.ComplaintResolved, from, to,
		domain.ReportCompleted, from, to).Scan(&productivity).Error
	if err != nil {
		return nil, apperrors.StorageUnavailable(err)
	}
	metrics.UserProductivity = productivity

	return metrics, nil
}
