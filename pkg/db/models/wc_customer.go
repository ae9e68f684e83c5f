package models

import (
	"time"

	"github.com/google/uuid"
)

// WCCustomer links an imported order to its WooCommerce customer record.
// Written best-effort after the primary import succeeds.
type WCCustomer struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	WooCustomerID int64     `gorm:"column:woo_customer_id;not null"`
	Name          string    `gorm:"column:name;type:text;not null"`
	Email         *string   `gorm:"column:email;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
