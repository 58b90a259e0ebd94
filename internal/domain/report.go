package domain

import "time"

// ReportStatus is the lifecycle state of an infrastructure report.
// The chain is strictly linear; there is no rejection branch for this
// entity type.
type ReportStatus string

const (
	ReportNew        ReportStatus = "new"
	ReportVerified   ReportStatus = "verified"
	ReportScheduled  ReportStatus = "scheduled"
	ReportInProgress ReportStatus = "in_progress"
	ReportCompleted  ReportStatus = "completed"
)

var reportSuccessors = map[ReportStatus][]ReportStatus{
	ReportNew:        {ReportVerified},
	ReportVerified:   {ReportScheduled},
	ReportScheduled:  {ReportInProgress},
	ReportInProgress: {ReportCompleted},
}

// Valid reports whether s is part of the report status vocabulary.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportNew, ReportVerified, ReportScheduled, ReportInProgress, ReportCompleted:
		return true
	}
	return false
}

// Terminal reports whether s has no successors.
func (s ReportStatus) Terminal() bool {
	return len(reportSuccessors[s]) == 0
}

// CanTransitionTo reports whether target is a direct successor of s.
func (s ReportStatus) CanTransitionTo(target ReportStatus) bool {
	for _, next := range reportSuccessors[s] {
		if next == target {
			return true
		}
	}
	return false
}

// InfrastructureType classifies the affected asset.
type InfrastructureType string

const (
	InfraJalan         InfrastructureType = "jalan"
	InfraJembatan      InfrastructureType = "jembatan"
	InfraDrainase      InfrastructureType = "drainase"
	InfraPenerangan    InfrastructureType = "penerangan"
	InfraTaman         InfrastructureType = "taman"
	InfraFasilitasUmum InfrastructureType = "fasilitas_umum"
)

// Valid reports whether t is part of the infrastructure type vocabulary.
func (t InfrastructureType) Valid() bool {
	switch t {
	case InfraJalan, InfraJembatan, InfraDrainase, InfraPenerangan,
		InfraTaman, InfraFasilitasUmum:
		return true
	}
	return false
}

// Severity grades the urgency of an infrastructure report.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is part of the severity vocabulary.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// InfrastructureReport is a damage report against a municipal asset.
// estimated_cost is fixed at creation; actual_cost exists only once the work
// is completed. scheduled_date and completed_date are derived by the workflow
// engine when the matching status is entered.
type InfrastructureReport struct {
	ID                 int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	Title              string             `gorm:"not null" json:"title"`
	Description        string             `gorm:"not null" json:"description"`
	InfrastructureType InfrastructureType `gorm:"type:varchar(32);not null;index" json:"infrastructure_type"`
	Severity           Severity           `gorm:"type:varchar(16);not null;index" json:"severity"`
	Status             ReportStatus       `gorm:"type:varchar(32);not null;default:'new';index" json:"status"`
	Location           *string            `json:"location"`
	Coordinates        *string            `json:"coordinates"`
	EstimatedCost      *float64           `gorm:"type:numeric(15,2)" json:"estimated_cost"`
	ActualCost         *float64           `gorm:"type:numeric(15,2)" json:"actual_cost"`
	ReporterName       string             `gorm:"not null" json:"reporter_name"`
	ReporterEmail      string             `gorm:"not null" json:"reporter_email"`
	AssignedTo         *int64             `gorm:"index" json:"assigned_to"`
	ScheduledDate      *time.Time         `json:"scheduled_date"`
	CompletedDate      *time.Time         `json:"completed_date"`
	Photos             StringList         `json:"photos"`
	CreatedAt          time.Time          `gorm:"not null;index" json:"created_at"`
	UpdatedAt          *time.Time         `json:"updated_at"`
}

// TableName fixes the table name to the canonical schema.
func (InfrastructureReport) TableName() string { return "infrastructure_reports" }
