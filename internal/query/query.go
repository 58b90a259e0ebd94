// Package query builds the read-side filters shared by the listing
// operations. All filter fields combine conjunctively; absent fields do not
// constrain. Free-text search is case-insensitive substring matching, not
// ranked search.
package query

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/laporkota/laporkota/internal/domain"
)

// Pagination limits. Limits outside the window are clamped, never rejected;
// only a negative page is a caller bug surfaced as the minimum.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is a normalized pagination request.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page request into the supported window.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Apply adds LIMIT/OFFSET to the statement.
func (p Page) Apply(db *gorm.DB) *gorm.DB {
	n := p.Normalize()
	return db.Limit(n.Limit).Offset(n.Offset())
}

// SearchPattern renders a free-text term as an ILIKE pattern, escaping the
// LIKE metacharacters so user input matches literally.
func SearchPattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

// ComplaintFilter narrows a complaint listing.
type ComplaintFilter struct {
	Status     *domain.ComplaintStatus
	Category   *domain.ComplaintCategory
	AssignedTo *int64
	// Unassigned selects complaints with no assignee.
	Unassigned bool
	Search     *string
	From       *time.Time
	To         *time.Time
}

// Apply adds the filter conditions to the statement. Ordering is fixed:
// newest complaints first.
func (f ComplaintFilter) Apply(db *gorm.DB) *gorm.DB {
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.Category != nil {
		db = db.Where("category = ?", *f.Category)
	}
	if f.AssignedTo != nil {
		db = db.Where("assigned_to = ?", *f.AssignedTo)
	}
	if f.Unassigned {
		db = db.Where("assigned_to IS NULL")
	}
	if f.Search != nil && *f.Search != "" {
		pattern := SearchPattern(*f.Search)
		db = db.Where(
			"title ILIKE ? OR description ILIKE ? OR reporter_name ILIKE ?",
			pattern, pattern, pattern,
		)
	}
	if f.From != nil {
		db = db.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("created_at <= ?", *f.To)
	}
	return db.Order("created_at DESC, id DESC")
}

// ReportFilter narrows an infrastructure report listing.
type ReportFilter struct {
	Status             *domain.ReportStatus
	Severity           *domain.Severity
	InfrastructureType *domain.InfrastructureType
	AssignedTo         *int64
	// Unassigned selects reports with no assignee.
	Unassigned bool
	// OverdueAsOf selects reports whose scheduled date has passed without
	// completion, judged against the given instant.
	OverdueAsOf *time.Time
	Search      *string
	From        *time.Time
	To          *time.Time
}

// Apply adds the filter conditions to the statement. Reports order by
// severity rank (critical first), then newest first.
func (f ReportFilter) Apply(db *gorm.DB) *gorm.DB {
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.Severity != nil {
		db = db.Where("severity = ?", *f.Severity)
	}
	if f.InfrastructureType != nil {
		db = db.Where("infrastructure_type = ?", *f.InfrastructureType)
	}
	if f.AssignedTo != nil {
		db = db.Where("assigned_to = ?", *f.AssignedTo)
	}
	if f.Unassigned {
		db = db.Where("assigned_to IS NULL")
	}
	if f.OverdueAsOf != nil {
		db = db.Where("scheduled_date < ? AND status <> ?",
			*f.OverdueAsOf, domain.ReportCompleted)
	}
	if f.Search != nil && *f.Search != "" {
		pattern := SearchPattern(*f.Search)
		db = db.Where(
			"title ILIKE ? OR description ILIKE ? OR reporter_name ILIKE ? OR location ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if f.From != nil {
		db = db.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("created_at <= ?", *f.To)
	}
	return db.
		Order(domain.SeverityRank.OrderExpr("severity") + " DESC").
		Order("created_at DESC, id DESC")
}

// AuditFilter narrows an audit trail query.
type AuditFilter struct {
	UserID       *int64
	Action       *domain.AuditAction
	ResourceType *domain.ResourceType
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
}

// Apply adds the filter conditions to the statement. The trail reads newest
// first.
func (f AuditFilter) Apply(db *gorm.DB) *gorm.DB {
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.Action != nil {
		db = db.Where("action = ?", *f.Action)
	}
	if f.ResourceType != nil {
		db = db.Where("resource_type = ?", *f.ResourceType)
	}
	if f.ResourceID != nil {
		db = db.Where("resource_id = ?", *f.ResourceID)
	}
	if f.From != nil {
		db = db.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("created_at <= ?", *f.To)
	}
	return db.Order("created_at DESC, id DESC")
}
