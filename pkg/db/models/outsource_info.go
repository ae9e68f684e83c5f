package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pressroomhq/printdesk-backend/pkg/enums"
)

// OutsourceInfo exists only while an item is routed to an external vendor.
type OutsourceInfo struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID  uuid.UUID            `gorm:"column:order_item_id;type:uuid;not null;uniqueIndex:ux_outsource_info_item"`
	VendorName   string               `gorm:"column:vendor_name;type:text;not null"`
	VendorPhone  *string              `gorm:"column:vendor_phone;type:text"`
	WorkType     string               `gorm:"column:work_type;type:text;not null"`
	ExpectedDate *time.Time           `gorm:"column:expected_date"`
	Quantity     int                  `gorm:"column:quantity;not null;default:0"`
	Stage        enums.OutsourceStage `gorm:"column:stage;type:text;not null;default:'outsourced'"`
	Notes        []OutsourceNote      `gorm:"foreignKey:OutsourceID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// OutsourceNote is one entry in the append-only vendor follow-up log.
type OutsourceNote struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OutsourceID uuid.UUID `gorm:"column:outsource_id;type:uuid;not null;index"`
	AuthorID    uuid.UUID `gorm:"column:author_id;type:uuid;not null"`
	Note        string    `gorm:"column:note;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
