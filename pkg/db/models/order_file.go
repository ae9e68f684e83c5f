package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderFile records an attachment stored in object storage; only the returned
// URL and path are kept locally.
type OrderFile struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	FileType   string    `gorm:"column:file_type;type:text;not null"`
	FileName   string    `gorm:"column:file_name;type:text;not null"`
	URL        string    `gorm:"column:url;type:text;not null"`
	Path       string    `gorm:"column:path;type:text;not null"`
	UploadedBy uuid.UUID `gorm:"column:uploaded_by;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
