// Package jobs holds the River background jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/laporkota/laporkota/internal/governance/audit"
	"github.com/laporkota/laporkota/internal/pkg/logger"
)

const (
	// DefaultAuditRetention is the baseline horizon for audit entries.
	DefaultAuditRetention = 365 * 24 * time.Hour

	// DefaultCriticalAuditRetention applies to role_change and delete
	// actions, kept longer for compliance investigations.
	DefaultCriticalAuditRetention = 730 * 24 * time.Hour
)

// AuditRetentionArgs is the periodic maintenance job that purges expired
// audit trail entries.
type AuditRetentionArgs struct{}

// Kind returns the job kind identifier for the audit retention purge.
func (AuditRetentionArgs) Kind() string { return "audit_retention" }

// InsertOpts ensures at most one purge job is enqueued within the same day.
func (AuditRetentionArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 24 * time.Hour,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// AuditRetentionWorker deletes audit entries older than the configured
// horizons.
type AuditRetentionWorker struct {
	river.WorkerDefaults[AuditRetentionArgs]
	recorder        *audit.Recorder
	horizon         time.Duration
	criticalHorizon time.Duration
}

// NewAuditRetentionWorker creates the retention worker. Non-positive
// horizons fall back to the defaults; the critical horizon is never allowed
// below the standard one.
func NewAuditRetentionWorker(recorder *audit.Recorder, horizon, criticalHorizon time.Duration) *AuditRetentionWorker {
	if horizon <= 0 {
		horizon = DefaultAuditRetention
	}
	if criticalHorizon <= 0 {
		criticalHorizon = DefaultCriticalAuditRetention
	}
	if criticalHorizon < horizon {
		criticalHorizon = horizon
	}
	return &AuditRetentionWorker{
		recorder:        recorder,
		horizon:         horizon,
		criticalHorizon: criticalHorizon,
	}
}

// Work removes expired audit rows.
func (w *AuditRetentionWorker) Work(ctx context.Context, _ *river.Job[AuditRetentionArgs]) error {
	if w == nil || w.recorder == nil {
		return fmt.Errorf("audit retention worker is not initialized")
	}

	purged, err := w.recorder.PurgeExpired(ctx, w.horizon, w.criticalHorizon)
	if err != nil {
		return fmt.Errorf("purge expired audit entries: %w", err)
	}

	logger.Info("audit retention completed",
		zap.Int64("purged_rows", purged),
		zap.Duration("horizon", w.horizon),
		zap.Duration("critical_horizon", w.criticalHorizon),
	)
	return nil
}
