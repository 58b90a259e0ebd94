// Package domain provides the entity model for LaporKota: complaints,
// infrastructure reports, the directory (users/roles), content records and
// the append-only history/audit records.
//
// Status vocabularies and their allowed-successor tables live here; the
// workflow engine consults them but never redefines them.
package domain

import "time"

// ComplaintStatus is the lifecycle state of a citizen complaint.
type ComplaintStatus string

const (
	ComplaintNew        ComplaintStatus = "new"
	ComplaintVerified   ComplaintStatus = "verified"
	ComplaintAssigned   ComplaintStatus = "assigned"
	ComplaintInProgress ComplaintStatus = "in_progress"
	ComplaintResolved   ComplaintStatus = "resolved"
	ComplaintRejected   ComplaintStatus = "rejected"
)

// complaintSuccessors is the allowed-transition table. Statuses absent from
// the map are terminal. Rejection branches off before any work starts, so it
// is reachable only from new and verified.
var complaintSuccessors = map[ComplaintStatus][]ComplaintStatus{
	ComplaintNew:        {ComplaintVerified, ComplaintRejected},
	ComplaintVerified:   {ComplaintAssigned, ComplaintRejected},
	ComplaintAssigned:   {ComplaintInProgress},
	ComplaintInProgress: {ComplaintResolved},
}

// Valid reports whether s is part of the complaint status vocabulary.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintNew, ComplaintVerified, ComplaintAssigned,
		ComplaintInProgress, ComplaintResolved, ComplaintRejected:
		return true
	}
	return false
}

// Terminal reports whether s has no successors.
func (s ComplaintStatus) Terminal() bool {
	return len(complaintSuccessors[s]) == 0
}

// CanTransitionTo reports whether target is a direct successor of s.
func (s ComplaintStatus) CanTransitionTo(target ComplaintStatus) bool {
	for _, next := range complaintSuccessors[s] {
		if next == target {
			return true
		}
	}
	return false
}

// ComplaintCategory classifies a complaint by municipal service area.
type ComplaintCategory string

const (
	CategoryInfrastruktur ComplaintCategory = "infrastruktur"
	CategoryKebersihan    ComplaintCategory = "kebersihan"
	CategoryKeamanan      ComplaintCategory = "keamanan"
	CategoryPelayanan     ComplaintCategory = "pelayanan"
	CategoryLainnya       ComplaintCategory = "lainnya"
)

// Valid reports whether c is part of the category vocabulary.
func (c ComplaintCategory) Valid() bool {
	switch c {
	case CategoryInfrastruktur, CategoryKebersihan, CategoryKeamanan,
		CategoryPelayanan, CategoryLainnya:
		return true
	}
	return false
}

// Complaint is a citizen complaint. Reporter and location fields are fixed at
// creation; status, assignment and admin notes are owned by the workflow
// engine.
type Complaint struct {
	ID            int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string            `gorm:"not null" json:"title"`
	Description   string            `gorm:"not null" json:"description"`
	Category      ComplaintCategory `gorm:"type:varchar(32);not null;index" json:"category"`
	Status        ComplaintStatus   `gorm:"type:varchar(32);not null;default:'new';index" json:"status"`
	ReporterName  string            `gorm:"not null" json:"reporter_name"`
	ReporterEmail string            `gorm:"not null" json:"reporter_email"`
	ReporterPhone *string           `json:"reporter_phone"`
	Location      *string           `json:"location"`
	Coordinates   *string           `json:"coordinates"`
	Photos        StringList        `json:"photos"`
	AssignedTo    *int64            `gorm:"index" json:"assigned_to"`
	AdminNotes    *string           `json:"admin_notes"`
	Attachments   StringList        `json:"attachments"`
	CreatedAt     time.Time         `gorm:"not null;index" json:"created_at"`
	UpdatedAt     *time.Time        `json:"updated_at"`
	ResolvedAt    *time.Time        `json:"resolved_at"`
}

// TableName fixes the table name to the canonical schema.
func (Complaint) TableName() string { return "complaints" }
