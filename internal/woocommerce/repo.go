package woocommerce

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
)

// Repository persists imported orders and their customer links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByWooOrderID(ctx context.Context, wooOrderID int64) (*models.Order, error)
	FindByNormalizedNumber(ctx context.Context, normalized string) (*models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateCustomerLink(ctx context.Context, link *models.WCCustomer) error
	CreateTimelineEntry(ctx context.Context, entry *models.TimelineEntry) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an import repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) FindByWooOrderID(ctx context.Context, wooOrderID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, "woo_order_id = ?", wooOrderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByNormalizedNumber compares stored numbers digit-for-digit so "WC-00123"
// and "MAN-123" collide with "123".
func (r *repositoryImpl) FindByNormalizedNumber(ctx context.Context, normalized string) (*models.Order, error) {
	if normalized == "" {
		return nil, nil
	}
	var order models.Order
	err := r.db.WithContext(ctx).
		First(&order, `ltrim(regexp_replace(order_number, '\D', '', 'g'), '0') = ?`, normalized).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repositoryImpl) CreateCustomerLink(ctx context.Context, link *models.WCCustomer) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *repositoryImpl) CreateTimelineEntry(ctx context.Context, entry *models.TimelineEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
