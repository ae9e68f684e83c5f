package models

import (
	"time"

	"github.com/google/uuid"
)

// Material is a paper/stock inventory row reserved against production jobs.
type Material struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"column:name;type:text;not null"`
	Unit        string    `gorm:"column:unit;type:text;not null;default:'sheets'"`
	StockQty    int       `gorm:"column:stock_qty;not null;default:0"`
	ReservedQty int       `gorm:"column:reserved_qty;not null;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
