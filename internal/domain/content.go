package domain

import "time"

// News is a published article authored by a staff user.
type News struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string     `gorm:"not null" json:"title"`
	Content       string     `gorm:"not null" json:"content"`
	Excerpt       *string    `json:"excerpt"`
	FeaturedImage *string    `json:"featured_image"`
	AuthorID      int64      `gorm:"not null;index" json:"author_id"`
	IsPublished   bool       `gorm:"not null;default:false;index" json:"is_published"`
	PublishDate   *time.Time `gorm:"index" json:"publish_date"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

// TableName fixes the table name to the canonical schema.
func (News) TableName() string { return "news" }

// AnnouncementCategory grades announcement urgency; listing order follows
// the category rank, not insertion order.
type AnnouncementCategory string

const (
	AnnouncementInfo        AnnouncementCategory = "info"
	AnnouncementWarning     AnnouncementCategory = "warning"
	AnnouncementUrgent      AnnouncementCategory = "urgent"
	AnnouncementMaintenance AnnouncementCategory = "maintenance"
)

// Valid reports whether c is part of the announcement category vocabulary.
func (c AnnouncementCategory) Valid() bool {
	switch c {
	case AnnouncementInfo, AnnouncementWarning, AnnouncementUrgent, AnnouncementMaintenance:
		return true
	}
	return false
}

// Announcement is a short broadcast notice.
type Announcement struct {
	ID          int64                `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string               `gorm:"not null" json:"title"`
	Content     string               `gorm:"not null" json:"content"`
	Category    AnnouncementCategory `gorm:"type:varchar(16);not null;index" json:"category"`
	LinkURL     *string              `json:"link_url"`
	IsPublished bool                 `gorm:"not null;default:false;index" json:"is_published"`
	PublishDate *time.Time           `gorm:"index" json:"publish_date"`
	CreatedAt   time.Time            `gorm:"not null" json:"created_at"`
	UpdatedAt   *time.Time           `json:"updated_at"`
}

// TableName fixes the table name to the canonical schema.
func (Announcement) TableName() string { return "announcements" }

// Media is file metadata only; the bytes live in an external store.
type Media struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename     string    `gorm:"not null" json:"filename"`
	OriginalName string    `gorm:"not null" json:"original_name"`
	MimeType     string    `gorm:"not null" json:"mime_type"`
	Size         int64     `gorm:"not null" json:"size"`
	URL          string    `gorm:"not null" json:"url"`
	OwnerTable   *string   `gorm:"index:idx_media_owner" json:"owner_table"`
	OwnerID      *int64    `gorm:"index:idx_media_owner" json:"owner_id"`
	UploadedBy   int64     `gorm:"not null;index" json:"uploaded_by"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

// TableName fixes the table name to the canonical schema.
func (Media) TableName() string { return "media" }

// Setting is one key of the global key-value configuration store.
type Setting struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Key         string     `gorm:"uniqueIndex;not null" json:"key"`
	Value       string     `gorm:"not null" json:"value"`
	Description *string    `json:"description"`
	IsPublic    bool       `gorm:"not null;default:false;index" json:"is_public"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// TableName fixes the table name to the canonical schema.
func (Setting) TableName() string { return "settings" }
