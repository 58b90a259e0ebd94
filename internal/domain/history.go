package domain

import "time"

// ResourceType tags which entity a history or audit record refers to.
// resource_id is interpreted relative to this tag, not as a shared
// foreign key.
type ResourceType string

const (
	ResourceComplaint    ResourceType = "complaint"
	ResourceReport       ResourceType = "infrastructure_report"
	ResourceNews         ResourceType = "news"
	ResourceAnnouncement ResourceType = "announcement"
	ResourceMedia        ResourceType = "media"
	ResourceSetting      ResourceType = "setting"
	ResourceUser         ResourceType = "user"
	ResourceRole         ResourceType = "role"
)

// StatusHistory is one immutable record of a single status change.
// OldStatus is nil exactly once per resource: the creation event.
type StatusHistory struct {
	ID           int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ResourceType ResourceType `gorm:"type:varchar(32);not null;index:idx_status_history_resource" json:"resource_type"`
	ResourceID   int64        `gorm:"not null;index:idx_status_history_resource" json:"resource_id"`
	OldStatus    *string      `json:"old_status"`
	NewStatus    string       `gorm:"not null" json:"new_status"`
	Notes        *string      `json:"notes"`
	ChangedBy    int64        `gorm:"not null;index" json:"changed_by"`
	CreatedAt    time.Time    `gorm:"not null;index" json:"created_at"`
}

// TableName fixes the table name to the canonical schema.
func (StatusHistory) TableName() string { return "status_history" }
