package domain

import "time"

// AuditAction classifies a mutating action for the audit trail.
type AuditAction string

const (
	AuditCreate       AuditAction = "create"
	AuditUpdate       AuditAction = "update"
	AuditDelete       AuditAction = "delete"
	AuditStatusChange AuditAction = "status_change"
	AuditRoleChange   AuditAction = "role_change"
	AuditLogin        AuditAction = "login"
	AuditLogout       AuditAction = "logout"
)

// Valid reports whether a is part of the audit action vocabulary.
func (a AuditAction) Valid() bool {
	switch a {
	case AuditCreate, AuditUpdate, AuditDelete, AuditStatusChange,
		AuditRoleChange, AuditLogin, AuditLogout:
		return true
	}
	return false
}

// Critical reports whether the action falls under the extended retention
// horizon (role grants and destructive actions are kept longer).
func (a AuditAction) Critical() bool {
	return a == AuditRoleChange || a == AuditDelete
}

// AuditLog is one immutable record of a mutating action. Rows are never
// edited; the only delete path is the retention purge.
type AuditLog struct {
	ID           int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       int64        `gorm:"not null;index" json:"user_id"`
	Action       AuditAction  `gorm:"type:varchar(32);not null;index" json:"action"`
	ResourceType ResourceType `gorm:"type:varchar(32);not null;index:idx_audit_logs_resource" json:"resource_type"`
	ResourceID   *int64       `gorm:"index:idx_audit_logs_resource" json:"resource_id"`
	OldValues    JSONMap      `json:"old_values"`
	NewValues    JSONMap      `json:"new_values"`
	IPAddress    *string      `json:"ip_address"`
	UserAgent    *string      `json:"user_agent"`
	CreatedAt    time.Time    `gorm:"not null;index" json:"created_at"`
}

// TableName fixes the table name to the canonical schema.
func (AuditLog) TableName() string { return "audit_logs" }
