package domain

import "time"

// Permission keys stored in Role.Permissions. The workflow engine and
// services pass these opaquely to the directory; only the role's permission
// map gives them meaning.
const (
	PermComplaintVerify  = "complaints.verify"
	PermComplaintAssign  = "complaints.assign"
	PermComplaintWork    = "complaints.work"
	PermComplaintResolve = "complaints.resolve"
	PermComplaintReject  = "complaints.reject"
	PermComplaintHandle  = "complaints.handle"

	PermReportVerify   = "reports.verify"
	PermReportAssign   = "reports.assign"
	PermReportSchedule = "reports.schedule"
	PermReportWork     = "reports.work"
	PermReportComplete = "reports.complete"
	PermReportHandle   = "reports.handle"

	PermNewsManage         = "news.manage"
	PermAnnouncementManage = "announcements.manage"
	PermSettingsManage     = "settings.manage"
	PermMediaManage        = "media.manage"
	PermUsersManage        = "users.manage"
	PermRolesManage        = "roles.manage"
	PermAuditView          = "audit.view"
)

// Role groups a named permission map.
type Role struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"uniqueIndex;not null" json:"name"`
	Description *string    `json:"description"`
	Permissions BoolMap    `gorm:"not null" json:"permissions"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// TableName fixes the table name to the canonical schema.
func (Role) TableName() string { return "roles" }

// Grants reports whether the role grants the permission key.
func (r *Role) Grants(key string) bool {
	if r == nil {
		return false
	}
	return r.Permissions[key]
}

// User is a staff account in the directory. Citizens reporting complaints are
// not users; they appear only as reporter fields on the entities.
type User struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	NIK       string     `gorm:"column:nik;uniqueIndex;not null" json:"nik"`
	Phone     *string    `json:"phone"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	RoleID    int64      `gorm:"not null;index" json:"role_id"`
	Role      *Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at"`
}

// TableName fixes the table name to the canonical schema.
func (User) TableName() string { return "users" }

// Active reports whether the account may act or be assigned work.
func (u *User) Active() bool {
	return u != nil && u.IsActive && u.DeletedAt == nil
}
