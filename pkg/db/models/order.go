package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/pressroomhq/printdesk-backend/pkg/enums"
)

// Order is one customer purchase, owning one or more items. Orders are never
// physically deleted except by explicit admin/sales action, which cascades to
// items, files and timeline rows.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string            `gorm:"column:order_number;type:text;not null;uniqueIndex:ux_orders_order_number"`
	CustomerName  string            `gorm:"column:customer_name;type:text;not null"`
	CustomerEmail *string           `gorm:"column:customer_email;type:text"`
	CustomerPhone *string           `gorm:"column:customer_phone;type:text"`
	Notes         *string           `gorm:"column:notes;type:text"`
	DeliveryDate  *time.Time        `gorm:"column:delivery_date"`
	Source        enums.OrderSource `gorm:"column:source;type:text;not null;default:'manual'"`
	WooOrderID    *int64            `gorm:"column:woo_order_id;uniqueIndex:ux_orders_woo_order_id"`
	Completed     bool              `gorm:"column:completed;not null;default:false"`
	Archived      bool              `gorm:"column:archived;not null;default:false"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Files         []OrderFile       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
