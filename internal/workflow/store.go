// Package workflow implements the status lifecycle and assignment engine for
// complaints and infrastructure reports.
//
// Every mutation validates first, then runs atomically: the entity write, the
// status history entry and the audit entry commit in one transaction or not
// at all. The engine owns the derived timestamps (resolved_at,
// scheduled_date, completed_date); callers never set them directly.
package workflow

import (
	"context"

	"github.com/laporkota/laporkota/internal/domain"
)

// Actor identifies the staff user performing an operation, plus the request
// metadata recorded on audit entries.
type Actor struct {
	UserID    int64
	IPAddress *string
	UserAgent *string
}

// Tx is the set of writes available inside one engine transaction.
// Get*ForUpdate must take a row lock so concurrent transitions serialize.
type Tx interface {
	CreateComplaint(ctx context.Context, c *domain.Complaint) error
	GetComplaintForUpdate(ctx context.Context, id int64) (*domain.Complaint, error)
	SaveComplaint(ctx context.Context, c *domain.Complaint) error

	CreateReport(ctx context.Context, r *domain.InfrastructureReport) error
	GetReportForUpdate(ctx context.Context, id int64) (*domain.InfrastructureReport, error)
	SaveReport(ctx context.Context, r *domain.InfrastructureReport) error

	AppendHistory(ctx context.Context, h *domain.StatusHistory) error
	AppendAudit(ctx context.Context, a *domain.AuditLog) error
}

// Store runs fn inside a database transaction. fn returning an error rolls
// everything back.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Directory resolves users and interprets permission keys. The engine passes
// keys opaquely; only the directory gives them meaning.
type Directory interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	HasPermission(role *domain.Role, key string) bool
}
