package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/pressroomhq/printdesk-backend/internal/priority"
	"github.com/pressroomhq/printdesk-backend/internal/visibility"
	"github.com/pressroomhq/printdesk-backend/internal/woocommerce"
	"github.com/pressroomhq/printdesk-backend/pkg/config"
	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
	"github.com/pressroomhq/printdesk-backend/pkg/metrics"
	"github.com/pressroomhq/printdesk-backend/pkg/outbox"
	"github.com/pressroomhq/printdesk-backend/pkg/pagination"
	"github.com/pressroomhq/printdesk-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type transitionNotifier interface {
	NotifyStageChange(ctx context.Context, order *models.Order, item *models.OrderItem, newStage enums.Stage, targetDepartment string, actor outbox.ActorRef) error
	NotifyAssignment(ctx context.Context, order *models.Order, item *models.OrderItem, targetDepartment string, actor outbox.ActorRef) error
	NotifyPriorityEscalation(ctx context.Context, order *models.Order, item *models.OrderItem, actor outbox.ActorRef) error
}

type userLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type paperReserver interface {
	ReservePaperForJob(ctx context.Context, orderID, materialID uuid.UUID, quantity int, userID uuid.UUID) error
}

type notificationPurger interface {
	DeleteAll(ctx context.Context) error
}

// Deps wires the order aggregate service.
type Deps struct {
	Repo          Repository
	Users         userLookup
	Tx            txRunner
	Outbox        outboxPublisher
	Notifier      transitionNotifier
	Cache         listStore
	Inventory     paperReserver
	Notifications notificationPurger
	Config        config.OrdersConfig
	Logger        *logger.Logger
	Metrics       *metrics.OrderMetrics
}

// Service orchestrates every order mutation: it validates the transition,
// persists the change transactionally with its timeline entry and outbox
// event, then runs the non-fatal side effects (notifications, cache
// invalidation, inventory reservation).
type Service struct {
	repo      Repository
	users     userLookup
	tx        txRunner
	outbox    outboxPublisher
	notifier  transitionNotifier
	cache     *listCache
	inventory paperReserver
	notifs    notificationPurger
	cfg       config.OrdersConfig
	logg      *logger.Logger
	metrics   *metrics.OrderMetrics
}

func NewService(deps Deps) *Service {
	return &Service{
		repo:      deps.Repo,
		users:     deps.Users,
		tx:        deps.Tx,
		outbox:    deps.Outbox,
		notifier:  deps.Notifier,
		cache:     newListCache(deps.Cache, deps.Config.ListCacheTTL, deps.Config.FetchGuardTTL, deps.Logger),
		inventory: deps.Inventory,
		notifs:    deps.Notifications,
		cfg:       deps.Config,
		logg:      deps.Logger,
		metrics:   deps.Metrics,
	}
}

// List returns the viewer's filtered order list. Results are cached for a
// short window per (user, role); forceRefresh and every mutation bypass or
// invalidate the cache. A guard flag keeps concurrent duplicate fetches for
// the same viewer from piling onto the database.
func (s *Service) List(ctx context.Context, actor Actor, forceRefresh bool) (*ListResult, error) {
	viewer := viewerFor(actor)
	userKey := actor.UserID.String()
	roleKey := actor.Role.String()

	if !forceRefresh {
		if cached, ok := s.cache.get(ctx, userKey, roleKey); ok {
			s.metrics.ObserveFetch("hit")
			recomputePriorities(cached, time.Now())
			return &ListResult{Orders: cached, FromCache: true}, nil
		}
	}

	cacheable := s.cache.tryAcquireGuard(ctx, userKey, roleKey)
	if cacheable {
		defer s.cache.releaseGuard(ctx, userKey, roleKey)
		s.metrics.ObserveFetch("miss")
	} else {
		s.metrics.ObserveFetch("skipped")
	}

	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing orders")
	}

	recomputePriorities(orders, time.Now())
	filtered := filterForViewer(orders, viewer)

	if cacheable && !forceRefresh {
		s.cache.set(ctx, userKey, roleKey, filtered)
	}
	return &ListResult{Orders: filtered}, nil
}

// Get returns one order with the viewer's visible items.
func (s *Service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range order.Items {
		order.Items[i].Priority = priority.Compute(effectiveDeliveryDate(&order.Items[i], order), now)
	}

	visible := visibility.FilterItems(order.Items, viewerFor(actor))
	if len(visible) == 0 && !actor.isAdmin() && actor.Role != enums.RoleSales {
		return nil, errors.New(errors.CodeForbidden, "order is not visible to your department")
	}
	order.Items = visible
	return order, nil
}

// CreateManual creates an order from the intake form. Inventory reservations
// for material-consuming items run after commit under a soft-fail policy.
func (s *Service) CreateManual(ctx context.Context, actor Actor, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, errors.New(errors.CodeValidation, "at least one item is required")
	}

	orderNumber := strings.TrimSpace(input.OrderNumber)
	if orderNumber == "" {
		orderNumber = fmt.Sprintf("MAN-%d", time.Now().UTC().UnixMilli())
	}

	if existing, err := s.repo.FindByNormalizedNumber(ctx, woocommerce.NormalizeOrderNumber(orderNumber)); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "checking for duplicate order number")
	} else if existing != nil {
		return nil, errors.New(errors.CodeConflict,
			fmt.Sprintf("order number %s already exists as %s", orderNumber, existing.OrderNumber))
	}

	order := buildManualOrder(orderNumber, input)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "creating order")
		}
		entry := &models.TimelineEntry{
			OrderID:   order.ID,
			Stage:     enums.StageSales.String(),
			ActorID:   actor.UserID,
			ActorName: actor.Name,
			Note:      fmt.Sprintf("Order %s created for %s", order.OrderNumber, order.CustomerName),
		}
		if err := repo.CreateTimelineEntry(ctx, entry); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "writing creation timeline entry")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRefPtr(actor),
			Data:          map[string]any{"orderId": order.ID, "orderNumber": order.OrderNumber},
		})
	})
	if err != nil {
		return nil, err
	}

	s.reserveMaterials(ctx, actor, order)
	s.cache.invalidate(ctx)
	return order, nil
}

// reserveMaterials runs the post-commit soft-fail reservations.
func (s *Service) reserveMaterials(ctx context.Context, actor Actor, order *models.Order) {
	if s.inventory == nil {
		return
	}
	for _, item := range order.Items {
		if item.MaterialID == nil || item.MaterialQuantity <= 0 {
			continue
		}
		err := s.inventory.ReservePaperForJob(ctx, order.ID, *item.MaterialID, item.MaterialQuantity, actor.UserID)
		if err != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"order_id":    order.ID.String(),
				"material_id": item.MaterialID.String(),
			})
			s.logg.Warn(logCtx, "material reservation failed, order kept: "+err.Error())
		}
	}
}

// UpdateNotes replaces the order-level notes.
func (s *Service) UpdateNotes(ctx context.Context, actor Actor, orderID uuid.UUID, notes string) error {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrderColumns(ctx, orderID, map[string]any{"notes": notes}); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "updating order notes")
		}
		entry := &models.TimelineEntry{
			OrderID:   order.ID,
			Stage:     "notes",
			ActorID:   actor.UserID,
			ActorName: actor.Name,
			Note:      "Order notes updated",
			Public:    false,
		}
		return repo.CreateTimelineEntry(ctx, entry)
	})
	if err != nil {
		return err
	}
	s.cache.invalidate(ctx)
	return nil
}

// UpdateItemDeliveryDate moves an item's delivery date and recomputes its
// bucket, escalating to the urgent fan-out when the bucket turns red.
func (s *Service) UpdateItemDeliveryDate(ctx context.Context, actor Actor, itemID uuid.UUID, deliveryDate *time.Time) error {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return err
	}
	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return err
	}

	oldBucket := priority.Compute(effectiveDeliveryDate(item, order), time.Now())
	newBucket := priority.Compute(deliveryDateOrFallback(deliveryDate, order), time.Now())

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		columns := map[string]any{"delivery_date": deliveryDate, "priority": newBucket.String()}
		if err := repo.UpdateItemColumns(ctx, itemID, columns); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "updating delivery date")
		}
		if err := repo.TouchOrder(ctx, item.OrderID, time.Now().UTC()); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "touching parent order")
		}
		entry := &models.TimelineEntry{
			OrderID:     order.ID,
			OrderItemID: &item.ID,
			Stage:       item.CurrentStage.String(),
			ActorID:     actor.UserID,
			ActorName:   actor.Name,
			Note:        deliveryDateNote(deliveryDate),
		}
		if err := repo.CreateTimelineEntry(ctx, entry); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "writing delivery date timeline entry")
		}
		if newBucket == enums.PriorityRed && oldBucket != enums.PriorityRed {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderPriorityRed,
				AggregateType: enums.AggregateOrderItem,
				AggregateID:   item.ID,
				Actor:         actorRefPtr(actor),
				Data:          map[string]any{"orderId": order.ID, "itemId": item.ID},
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	if newBucket == enums.PriorityRed && oldBucket != enums.PriorityRed {
		item.DeliveryDate = deliveryDate
		if err := s.notifier.NotifyPriorityEscalation(ctx, order, item, actor.ref()); err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "priority escalation fan-out incomplete: "+err.Error())
		}
	}
	s.cache.invalidate(ctx)
	return nil
}

// AddTimelineNote appends a free-form audit entry.
func (s *Service) AddTimelineNote(ctx context.Context, actor Actor, orderID uuid.UUID, input TimelineNoteInput) (*models.TimelineEntry, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	stage := "note"
	if input.OrderItemID != nil {
		item, err := s.loadItem(ctx, *input.OrderItemID)
		if err != nil {
			return nil, err
		}
		if item.OrderID != orderID {
			return nil, errors.New(errors.CodeValidation, "item does not belong to this order")
		}
		stage = item.CurrentStage.String()
	}

	public := true
	if input.Public != nil {
		public = *input.Public
	}
	entry := &models.TimelineEntry{
		OrderID:     order.ID,
		OrderItemID: input.OrderItemID,
		Stage:       stage,
		ActorID:     actor.UserID,
		ActorName:   actor.Name,
		Note:        input.Note,
		Attachments: pq.StringArray(input.Attachments),
		Public:      public,
	}
	if err := s.repo.CreateTimelineEntry(ctx, entry); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "writing timeline note")
	}
	return entry, nil
}

// Timeline lists an order's audit trail, newest first. Private entries are
// reserved for admins.
func (s *Service) Timeline(ctx context.Context, actor Actor, orderID uuid.UUID, params pagination.Params) ([]models.TimelineEntry, string, error) {
	if _, err := s.loadOrder(ctx, orderID); err != nil {
		return nil, "", err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}

	entries, next, err := s.repo.ListTimeline(ctx, listTimelineParams{
		OrderID:    orderID,
		Limit:      params.Limit,
		Cursor:     cursor,
		PublicOnly: !actor.isAdmin(),
	})
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeInternal, err, "listing timeline")
	}

	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return entries, nextCursor, nil
}

// Delete removes one order and everything hanging off it. Only admins and
// sales may delete.
func (s *Service) Delete(ctx context.Context, actor Actor, orderID uuid.UUID) error {
	if !actor.isAdmin() && actor.Role != enums.RoleSales {
		return errors.New(errors.CodeForbidden, "only admin or sales may delete orders")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteOrder(ctx, orderID); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "deleting order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDeleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         actorRefPtr(actor),
			Data:          map[string]any{"orderId": orderID, "orderNumber": order.OrderNumber},
		})
	})
	if err != nil {
		return err
	}
	s.cache.invalidate(ctx)
	return nil
}

// Purge wipes every order, timeline row and notification. The typed
// confirmation phrase is required verbatim; a yes/no flag is not enough for
// this blast radius.
func (s *Service) Purge(ctx context.Context, actor Actor, confirmation string) error {
	if !actor.isAdmin() {
		return errors.New(errors.CodeForbidden, "only admins may purge orders")
	}
	if confirmation != s.cfg.PurgeConfirmation {
		return errors.New(errors.CodeValidation,
			fmt.Sprintf("confirmation phrase must be %q", s.cfg.PurgeConfirmation))
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.PurgeAll(ctx); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "purging orders")
		}
		if s.notifs != nil {
			if err := s.notifs.DeleteAll(ctx); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "purging notifications")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logg.Warn(s.logg.WithUserID(ctx, actor.UserID.String()), "all orders purged")
	s.cache.invalidate(ctx)
	return nil
}

// Stats aggregates the floor counts for the dashboard header.
func (s *Service) Stats(ctx context.Context, actor Actor) (*Stats, error) {
	total, completed, err := s.repo.CountOrders(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "counting orders")
	}
	byStage, err := s.repo.CountItemsByColumn(ctx, "current_stage")
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "counting items by stage")
	}
	snapshots, err := s.repo.ListDeliveryDates(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing delivery dates")
	}
	// The stored bucket is a write-time snapshot; dashboards re-derive it from
	// the dates so items age into yellow and red without being touched.
	now := time.Now()
	byPriority := make(map[string]int64, 3)
	for _, snap := range snapshots {
		date := snap.ItemDate
		if date == nil {
			date = snap.OrderDate
		}
		byPriority[priority.Compute(date, now).String()]++
	}
	overdue, err := s.repo.CountOverdueItems(ctx, time.Now().UTC())
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "counting overdue items")
	}
	return &Stats{
		TotalOrders:     total,
		CompletedOrders: completed,
		ItemsByStage:    byStage,
		ItemsByPriority: byPriority,
		OverdueItems:    overdue,
	}, nil
}

// InvalidateListCache stales every viewer's cached list. The change-feed
// worker calls this after its debounce window closes.
func (s *Service) InvalidateListCache(ctx context.Context) {
	s.cache.invalidate(ctx)
}

func (s *Service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *Service) loadItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.CodeNotFound, "order item not found")
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading order item")
	}
	return item, nil
}

func viewerFor(actor Actor) visibility.Viewer {
	return visibility.Viewer{
		Role:               actor.Role,
		Department:         actor.Department,
		ProductionSubstage: actor.ProductionSubstage,
		IsAdmin:            actor.IsAdmin,
	}
}

func actorRefPtr(actor Actor) *outbox.ActorRef {
	ref := actor.ref()
	return &ref
}

// recomputePriorities refreshes the derived bucket on every item in place.
// The stored value is only a cache; dashboards always see the value derived
// from "now".
func recomputePriorities(orders []models.Order, now time.Time) {
	for i := range orders {
		for j := range orders[i].Items {
			item := &orders[i].Items[j]
			item.Priority = priority.Compute(effectiveDeliveryDate(item, &orders[i]), now)
		}
	}
}

// filterForViewer drops invisible items, and whole orders once nothing in
// them is visible (admin and sales keep empty orders for oversight).
func filterForViewer(orders []models.Order, viewer visibility.Viewer) []models.Order {
	keepEmpty := viewer.IsAdmin || viewer.Role == enums.RoleAdmin || viewer.Role == enums.RoleSales
	filtered := make([]models.Order, 0, len(orders))
	for i := range orders {
		visible := visibility.FilterItems(orders[i].Items, viewer)
		if len(visible) == 0 && !keepEmpty {
			continue
		}
		order := orders[i]
		order.Items = visible
		filtered = append(filtered, order)
	}
	return filtered
}

func effectiveDeliveryDate(item *models.OrderItem, order *models.Order) *time.Time {
	if item.DeliveryDate != nil {
		return item.DeliveryDate
	}
	if order != nil {
		return order.DeliveryDate
	}
	return nil
}

func deliveryDateOrFallback(deliveryDate *time.Time, order *models.Order) *time.Time {
	if deliveryDate != nil {
		return deliveryDate
	}
	if order != nil {
		return order.DeliveryDate
	}
	return nil
}

func deliveryDateNote(deliveryDate *time.Time) string {
	if deliveryDate == nil {
		return "Delivery date cleared"
	}
	return "Delivery date set to " + deliveryDate.Format("2006-01-02")
}

func buildManualOrder(orderNumber string, input CreateOrderInput) *models.Order {
	now := time.Now()
	order := &models.Order{
		OrderNumber:  orderNumber,
		CustomerName: strings.TrimSpace(input.CustomerName),
		Source:       enums.OrderSourceManual,
		DeliveryDate: input.DeliveryDate,
	}
	if input.CustomerEmail != "" {
		email := input.CustomerEmail
		order.CustomerEmail = &email
	}
	if input.CustomerPhone != "" {
		phone := input.CustomerPhone
		order.CustomerPhone = &phone
	}
	if input.Notes != "" {
		notes := input.Notes
		order.Notes = &notes
	}

	for _, line := range input.Items {
		item := models.OrderItem{
			ProductName:  strings.TrimSpace(line.ProductName),
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			CurrentStage: enums.StageSales,
			DeliveryDate: line.DeliveryDate,
			MaterialID:   line.MaterialID,
		}
		if line.MaterialID != nil {
			item.MaterialQuantity = line.MaterialQuantity
		}
		if len(line.Specs) > 0 {
			item.Specs = types.JSONMap(line.Specs)
		}
		if len(line.SubstageSequence) > 0 {
			item.SubstageSequence = pq.StringArray(line.SubstageSequence)
		}
		item.Priority = priority.Compute(deliveryDateOrFallback(line.DeliveryDate, order), now)
		order.Items = append(order.Items, item)
	}
	return order
}
