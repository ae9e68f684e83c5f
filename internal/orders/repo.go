package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/pagination"
)

// Repository exposes persistence helpers for orders, items, the outsource
// sub-records and the timeline.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	FindByNormalizedNumber(ctx context.Context, normalized string) (*models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	UpdateOrderColumns(ctx context.Context, id uuid.UUID, columns map[string]any) error
	TouchOrder(ctx context.Context, id uuid.UUID, now time.Time) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	PurgeAll(ctx context.Context) error
	CountOrders(ctx context.Context) (total, completed int64, err error)

	GetItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	UpdateItemColumns(ctx context.Context, id uuid.UUID, columns map[string]any) error
	CountItemsByColumn(ctx context.Context, column string) (map[string]int64, error)
	CountOverdueItems(ctx context.Context, now time.Time) (int64, error)
	ListDeliveryDates(ctx context.Context) ([]deliverySnapshot, error)

	CreateOutsourceInfo(ctx context.Context, info *models.OutsourceInfo) error
	UpdateOutsourceColumns(ctx context.Context, id uuid.UUID, columns map[string]any) error
	AddOutsourceNote(ctx context.Context, note *models.OutsourceNote) error

	CreateTimelineEntry(ctx context.Context, entry *models.TimelineEntry) error
	ListTimeline(ctx context.Context, params listTimelineParams) ([]models.TimelineEntry, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listTimelineParams struct {
	OrderID    uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	PublicOnly bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.created_at ASC") }).
		Preload("Items.Outsource").
		Preload("Items.Outsource.Notes", func(db *gorm.DB) *gorm.DB { return db.Order("outsource_notes.created_at ASC") }).
		Preload("Files").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("archived = FALSE").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.created_at ASC") }).
		Preload("Items.Outsource").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

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

func (r *repositoryImpl) UpdateOrderColumns(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	columns["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumns(columns).Error
}

func (r *repositoryImpl) TouchOrder(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", now).Error
}

func (r *repositoryImpl) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id).Error
}

// PurgeAll wipes every order; cascades clear items, outsource records, files
// and timeline rows.
func (r *repositoryImpl) PurgeAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Order{}).Error
}

func (r *repositoryImpl) CountOrders(ctx context.Context) (int64, int64, error) {
	var total, completed int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("archived = FALSE").Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("archived = FALSE AND completed = TRUE").
		Count(&completed).Error
	return total, completed, err
}

func (r *repositoryImpl) GetItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Preload("Outsource").
		Preload("Outsource.Notes", func(db *gorm.DB) *gorm.DB { return db.Order("outsource_notes.created_at ASC") }).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) UpdateItemColumns(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	columns["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", id).
		UpdateColumns(columns).Error
}

type columnCount struct {
	Value string
	Count int64
}

func (r *repositoryImpl) CountItemsByColumn(ctx context.Context, column string) (map[string]int64, error) {
	var rows []columnCount
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select(column+" AS value, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Value] = row.Count
	}
	return counts, nil
}

// deliverySnapshot carries the two dates an item's urgency bucket derives
// from: its own delivery date and the order-level fallback.
type deliverySnapshot struct {
	ItemDate  *time.Time
	OrderDate *time.Time
}

func (r *repositoryImpl) ListDeliveryDates(ctx context.Context) ([]deliverySnapshot, error) {
	var rows []deliverySnapshot
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("order_items.delivery_date AS item_date, orders.delivery_date AS order_date").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.archived = FALSE").
		Scan(&rows).Error
	return rows, err
}

func (r *repositoryImpl) CountOverdueItems(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("delivery_date < ? AND dispatched = FALSE AND current_stage <> ?", now, "completed").
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) CreateOutsourceInfo(ctx context.Context, info *models.OutsourceInfo) error {
	return r.db.WithContext(ctx).Create(info).Error
}

func (r *repositoryImpl) UpdateOutsourceColumns(ctx context.Context, id uuid.UUID, columns map[string]any) error {
	columns["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.OutsourceInfo{}).
		Where("id = ?", id).
		UpdateColumns(columns).Error
}

func (r *repositoryImpl) AddOutsourceNote(ctx context.Context, note *models.OutsourceNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *repositoryImpl) CreateTimelineEntry(ctx context.Context, entry *models.TimelineEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) ListTimeline(ctx context.Context, params listTimelineParams) ([]models.TimelineEntry, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.TimelineEntry{}).
		Where("order_id = ?", params.OrderID)
	if params.PublicOnly {
		query = query.Where("public = TRUE")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var entries []models.TimelineEntry
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, nil, err
	}
	if len(entries) > normalized {
		next := entries[normalized]
		entries = entries[:normalized]
		return entries, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return entries, nil, nil
}
