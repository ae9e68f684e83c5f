package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TimelineEntry is the append-only audit record written for every mutating
// action on an order or item. Entries are never updated or deleted, except by
// the destructive bulk wipe.
type TimelineEntry struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID *uuid.UUID     `gorm:"column:order_item_id;type:uuid"`
	Stage       string         `gorm:"column:stage;type:text;not null"`
	Substage    *string        `gorm:"column:substage;type:text"`
	ActorID     uuid.UUID      `gorm:"column:actor_id;type:uuid;not null"`
	ActorName   string         `gorm:"column:actor_name;type:text;not null"`
	Note        string         `gorm:"column:note;type:text;not null"`
	Attachments pq.StringArray `gorm:"column:attachments;type:text[]"`
	Public      bool           `gorm:"column:public;not null;default:true"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}
