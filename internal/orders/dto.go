package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pressroomhq/printdesk-backend/pkg/auth"
	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/outbox"
)

// Actor is the authenticated profile performing an operation.
type Actor struct {
	UserID             uuid.UUID
	Name               string
	Role               enums.Role
	Department         string
	ProductionSubstage string
	IsAdmin            bool
}

// ActorFromClaims maps a verified token into an Actor.
func ActorFromClaims(claims *auth.Claims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{
		UserID:             claims.UserID,
		Name:               claims.Name,
		Role:               claims.Role,
		Department:         claims.Department,
		ProductionSubstage: claims.ProductionSubstage,
		IsAdmin:            claims.IsAdmin,
	}
}

func (a Actor) ref() outbox.ActorRef {
	return outbox.ActorRef{UserID: a.UserID, Name: a.Name, Role: a.Role.String()}
}

func (a Actor) isAdmin() bool {
	return a.IsAdmin || a.Role == enums.RoleAdmin
}

// CreateOrderInput is the manual intake payload.
type CreateOrderInput struct {
	OrderNumber   string            `json:"order_number" validate:"omitempty,max=64"`
	CustomerName  string            `json:"customer_name" validate:"required,max=200"`
	CustomerEmail string            `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone string            `json:"customer_phone" validate:"omitempty,max=40"`
	Notes         string            `json:"notes" validate:"omitempty,max=4000"`
	DeliveryDate  *time.Time        `json:"delivery_date"`
	Items         []CreateItemInput `json:"items" validate:"required,min=1,dive"`
}

// CreateItemInput is one product line in a manual order.
type CreateItemInput struct {
	ProductName      string            `json:"product_name" validate:"required,max=200"`
	Quantity         int               `json:"quantity" validate:"required,min=1"`
	UnitPrice        decimal.Decimal   `json:"unit_price"`
	Specs            map[string]string `json:"specs" validate:"omitempty,max=40"`
	DeliveryDate     *time.Time        `json:"delivery_date"`
	SubstageSequence []string          `json:"substage_sequence" validate:"omitempty,min=1,dive,required"`
	MaterialID       *uuid.UUID        `json:"material_id"`
	MaterialQuantity int               `json:"material_quantity" validate:"omitempty,min=1"`
}

// AssignInput routes an item to a department, optionally to a named user.
type AssignInput struct {
	Department     string     `json:"department" validate:"required"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id"`
}

// OutsourceInput opens the vendor sub-workflow for an item.
type OutsourceInput struct {
	VendorName   string     `json:"vendor_name" validate:"required,max=200"`
	VendorPhone  string     `json:"vendor_phone" validate:"omitempty,max=40"`
	WorkType     string     `json:"work_type" validate:"required,max=200"`
	ExpectedDate *time.Time `json:"expected_date"`
	Quantity     int        `json:"quantity" validate:"omitempty,min=1"`
}

// TimelineNoteInput appends a free-form audit note.
type TimelineNoteInput struct {
	OrderItemID *uuid.UUID `json:"order_item_id"`
	Note        string     `json:"note" validate:"required,max=4000"`
	Attachments []string   `json:"attachments" validate:"omitempty,dive,url"`
	Public      *bool      `json:"public"`
}

// ListResult carries a visibility-filtered snapshot plus its cache outcome.
type ListResult struct {
	Orders    []models.Order `json:"orders"`
	FromCache bool           `json:"from_cache"`
}

// Stats summarizes the floor for the dashboard header.
type Stats struct {
	TotalOrders     int64            `json:"total_orders"`
	CompletedOrders int64            `json:"completed_orders"`
	ItemsByStage    map[string]int64 `json:"items_by_stage"`
	ItemsByPriority map[string]int64 `json:"items_by_priority"`
	OverdueItems    int64            `json:"overdue_items"`
}
