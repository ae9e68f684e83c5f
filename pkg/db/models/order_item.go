package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/types"
)

// OrderItem is one product line within an order. AssignedDepartment is the
// authority for department visibility; CurrentStage is the fallback when it
// is unset. SubstageSequence overrides the default production sequence when
// an admin attaches a custom one before the item enters production.
type OrderItem struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID            uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	ProductName        string            `gorm:"column:product_name;type:text;not null"`
	Quantity           int               `gorm:"column:quantity;not null;default:1"`
	UnitPrice          decimal.Decimal   `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
	Specs              types.JSONMap     `gorm:"column:specs;type:jsonb;serializer:json"`
	CurrentStage       enums.Stage       `gorm:"column:current_stage;type:text;not null;default:'sales'"`
	CurrentSubstage    *string           `gorm:"column:current_substage;type:text"`
	SubstageSequence   pq.StringArray    `gorm:"column:substage_sequence;type:text[]"`
	AssignedDepartment *string           `gorm:"column:assigned_department;type:text"`
	AssignedUserID     *uuid.UUID        `gorm:"column:assigned_user_id;type:uuid"`
	DeliveryDate       *time.Time        `gorm:"column:delivery_date"`
	Priority           enums.Priority    `gorm:"column:priority;type:text;not null;default:'blue'"`
	Dispatched         bool              `gorm:"column:dispatched;not null;default:false"`
	MaterialID         *uuid.UUID        `gorm:"column:material_id;type:uuid"`
	MaterialQuantity   int               `gorm:"column:material_quantity;not null;default:0"`
	Outsource          *OutsourceInfo    `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
