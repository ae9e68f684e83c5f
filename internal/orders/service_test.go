package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pressroomhq/printdesk-backend/pkg/config"
	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
	"github.com/pressroomhq/printdesk-backend/pkg/outbox"
	"github.com/pressroomhq/printdesk-backend/pkg/pagination"
)

// memRepo is an in-memory Repository good enough to drive the service's
// decision logic in tests.
type memRepo struct {
	orders    map[uuid.UUID]*models.Order
	items     map[uuid.UUID]*models.OrderItem
	outsource map[uuid.UUID]*models.OutsourceInfo
	timeline  []models.TimelineEntry
	notes     []models.OutsourceNote
}

func newMemRepo() *memRepo {
	return &memRepo{
		orders:    map[uuid.UUID]*models.Order{},
		items:     map[uuid.UUID]*models.OrderItem{},
		outsource: map[uuid.UUID]*models.OutsourceInfo{},
	}
}

func (m *memRepo) WithTx(tx *gorm.DB) Repository { return m }

func (m *memRepo) GetOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	copied.Items = nil
	for _, item := range m.items {
		if item.OrderID == id {
			copied.Items = append(copied.Items, *m.attach(item))
		}
	}
	return &copied, nil
}

func (m *memRepo) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	for id := range m.orders {
		order, err := m.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

func (m *memRepo) FindByNormalizedNumber(_ context.Context, normalized string) (*models.Order, error) {
	for _, order := range m.orders {
		digits := ""
		for _, r := range order.OrderNumber {
			if r >= '1' && r <= '9' || (r == '0' && digits != "") {
				digits += string(r)
			}
		}
		if digits == normalized {
			return order, nil
		}
	}
	return nil, nil
}

func (m *memRepo) CreateOrder(_ context.Context, order *models.Order) error {
	order.ID = uuid.New()
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
		item := order.Items[i]
		m.items[item.ID] = &item
	}
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *memRepo) UpdateOrderColumns(_ context.Context, id uuid.UUID, columns map[string]any) error {
	order := m.orders[id]
	for key, value := range columns {
		switch key {
		case "notes":
			notes := value.(string)
			order.Notes = &notes
		case "completed":
			order.Completed = value.(bool)
		}
	}
	return nil
}

func (m *memRepo) TouchOrder(_ context.Context, id uuid.UUID, now time.Time) error {
	if order, ok := m.orders[id]; ok {
		order.UpdatedAt = now
	}
	return nil
}

func (m *memRepo) DeleteOrder(_ context.Context, id uuid.UUID) error {
	delete(m.orders, id)
	for itemID, item := range m.items {
		if item.OrderID == id {
			delete(m.items, itemID)
		}
	}
	return nil
}

func (m *memRepo) PurgeAll(context.Context) error {
	m.orders = map[uuid.UUID]*models.Order{}
	m.items = map[uuid.UUID]*models.OrderItem{}
	m.timeline = nil
	return nil
}

func (m *memRepo) CountOrders(context.Context) (int64, int64, error) {
	var completed int64
	for _, order := range m.orders {
		if order.Completed {
			completed++
		}
	}
	return int64(len(m.orders)), completed, nil
}

func (m *memRepo) GetItem(_ context.Context, id uuid.UUID) (*models.OrderItem, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.attach(item), nil
}

func (m *memRepo) attach(item *models.OrderItem) *models.OrderItem {
	copied := *item
	for _, info := range m.outsource {
		if info.OrderItemID == item.ID {
			attached := *info
			copied.Outsource = &attached
		}
	}
	return &copied
}

func (m *memRepo) UpdateItemColumns(_ context.Context, id uuid.UUID, columns map[string]any) error {
	item := m.items[id]
	for key, value := range columns {
		switch key {
		case "assigned_department":
			if value == nil {
				item.AssignedDepartment = nil
			} else {
				dept := value.(string)
				item.AssignedDepartment = &dept
			}
		case "assigned_user_id":
			if value == nil {
				item.AssignedUserID = nil
			} else {
				item.AssignedUserID = value.(*uuid.UUID)
			}
		case "current_stage":
			item.CurrentStage = enums.Stage(value.(string))
		case "current_substage":
			if value == nil {
				item.CurrentSubstage = nil
			} else {
				substage := value.(string)
				item.CurrentSubstage = &substage
			}
		case "delivery_date":
			if value == nil {
				item.DeliveryDate = nil
			} else {
				item.DeliveryDate = value.(*time.Time)
			}
		case "priority":
			item.Priority = enums.Priority(value.(string))
		case "dispatched":
			item.Dispatched = value.(bool)
		}
	}
	return nil
}

func (m *memRepo) CountItemsByColumn(context.Context, string) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func (m *memRepo) CountOverdueItems(context.Context, time.Time) (int64, error) { return 0, nil }

func (m *memRepo) ListDeliveryDates(context.Context) ([]deliverySnapshot, error) {
	var rows []deliverySnapshot
	for _, item := range m.items {
		var orderDate *time.Time
		if order, ok := m.orders[item.OrderID]; ok {
			orderDate = order.DeliveryDate
		}
		rows = append(rows, deliverySnapshot{ItemDate: item.DeliveryDate, OrderDate: orderDate})
	}
	return rows, nil
}

func (m *memRepo) CreateOutsourceInfo(_ context.Context, info *models.OutsourceInfo) error {
	info.ID = uuid.New()
	stored := *info
	m.outsource[info.ID] = &stored
	return nil
}

func (m *memRepo) UpdateOutsourceColumns(_ context.Context, id uuid.UUID, columns map[string]any) error {
	info := m.outsource[id]
	if stage, ok := columns["stage"]; ok {
		info.Stage = enums.OutsourceStage(stage.(string))
	}
	return nil
}

func (m *memRepo) AddOutsourceNote(_ context.Context, note *models.OutsourceNote) error {
	note.ID = uuid.New()
	m.notes = append(m.notes, *note)
	return nil
}

func (m *memRepo) CreateTimelineEntry(_ context.Context, entry *models.TimelineEntry) error {
	entry.ID = uuid.New()
	m.timeline = append(m.timeline, *entry)
	return nil
}

func (m *memRepo) ListTimeline(_ context.Context, params listTimelineParams) ([]models.TimelineEntry, *pagination.Cursor, error) {
	var entries []models.TimelineEntry
	for _, entry := range m.timeline {
		if entry.OrderID != params.OrderID {
			continue
		}
		if params.PublicOnly && !entry.Public {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil, nil
}

type memUsers struct {
	users map[uuid.UUID]*models.User
}

func (m *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type noopTx struct{}

func (noopTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(&gorm.DB{}) }

type captureOutbox struct {
	events []outbox.DomainEvent
}

func (c *captureOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

type captureNotifier struct {
	stageChanges []enums.Stage
	assignments  []string
	escalations  int
}

func (c *captureNotifier) NotifyStageChange(_ context.Context, _ *models.Order, _ *models.OrderItem, newStage enums.Stage, _ string, _ outbox.ActorRef) error {
	c.stageChanges = append(c.stageChanges, newStage)
	return nil
}

func (c *captureNotifier) NotifyAssignment(_ context.Context, _ *models.Order, _ *models.OrderItem, dept string, _ outbox.ActorRef) error {
	c.assignments = append(c.assignments, dept)
	return nil
}

func (c *captureNotifier) NotifyPriorityEscalation(context.Context, *models.Order, *models.OrderItem, outbox.ActorRef) error {
	c.escalations++
	return nil
}

type failingReserver struct {
	calls int
}

func (f *failingReserver) ReservePaperForJob(context.Context, uuid.UUID, uuid.UUID, int, uuid.UUID) error {
	f.calls++
	return errors.New(errors.CodeConflict, "out of stock")
}

type fixture struct {
	svc      *Service
	repo     *memRepo
	users    *memUsers
	outbox   *captureOutbox
	notifier *captureNotifier
	reserver *failingReserver
}

func newFixture() *fixture {
	repo := newMemRepo()
	users := &memUsers{users: map[uuid.UUID]*models.User{}}
	ob := &captureOutbox{}
	notifier := &captureNotifier{}
	reserver := &failingReserver{}

	svc := NewService(Deps{
		Repo:      repo,
		Users:     users,
		Tx:        noopTx{},
		Outbox:    ob,
		Notifier:  notifier,
		Inventory: reserver,
		Config: config.OrdersConfig{
			ListCacheTTL:      30 * time.Second,
			FetchGuardTTL:     10 * time.Second,
			PurgeConfirmation: "DELETE ALL ORDERS",
		},
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	return &fixture{svc: svc, repo: repo, users: users, outbox: ob, notifier: notifier, reserver: reserver}
}

func (f *fixture) seedOrder(t *testing.T, items ...models.OrderItem) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:  "MAN-500",
		CustomerName: "Rustic Press",
		Items:        items,
	}
	require.NoError(t, f.repo.CreateOrder(context.Background(), order))
	return f.repo.orders[order.ID]
}

func salesActor() Actor {
	return Actor{UserID: uuid.New(), Name: "Sana", Role: enums.RoleSales, Department: "sales"}
}

func adminActor() Actor {
	return Actor{UserID: uuid.New(), Name: "Arun", Role: enums.RoleAdmin, IsAdmin: true}
}

func itemIn(order *models.Order, f *fixture) uuid.UUID {
	for id, item := range f.repo.items {
		if item.OrderID == order.ID {
			return id
		}
	}
	return uuid.Nil
}

func TestCreateManualComputesPriority(t *testing.T) {
	f := newFixture()
	tomorrow := time.Now().AddDate(0, 0, 1)

	order, err := f.svc.CreateManual(context.Background(), salesActor(), CreateOrderInput{
		CustomerName: "Rustic Press",
		Items: []CreateItemInput{
			{ProductName: "Invites", Quantity: 100, DeliveryDate: &tomorrow},
		},
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, enums.PriorityRed, order.Items[0].Priority)
	assert.Equal(t, enums.StageSales, order.Items[0].CurrentStage)
	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.EventOrderCreated, f.outbox.events[0].EventType)
	assert.Len(t, f.repo.timeline, 1)
}

func TestCreateManualRejectsDuplicateNumber(t *testing.T) {
	f := newFixture()
	f.seedOrder(t, models.OrderItem{ProductName: "Cards", CurrentStage: enums.StageSales})

	_, err := f.svc.CreateManual(context.Background(), salesActor(), CreateOrderInput{
		OrderNumber:  "500",
		CustomerName: "Someone",
		Items:        []CreateItemInput{{ProductName: "Cards", Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))
}

func TestCreateManualKeepsOrderWhenReservationFails(t *testing.T) {
	f := newFixture()
	materialID := uuid.New()

	order, err := f.svc.CreateManual(context.Background(), salesActor(), CreateOrderInput{
		CustomerName: "Rustic Press",
		Items: []CreateItemInput{
			{ProductName: "Cards", Quantity: 1, MaterialID: &materialID, MaterialQuantity: 500},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.reserver.calls)
	assert.Contains(t, f.repo.orders, order.ID)
}

func TestAssignDepartmentAppliesMatrix(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(t, models.OrderItem{ProductName: "Cards", CurrentStage: enums.StageSales})
	itemID := itemIn(order, f)

	_, err := f.svc.AssignDepartment(context.Background(), salesActor(), itemID, AssignInput{Department: "production"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))

	item, err := f.svc.AssignDepartment(context.Background(), salesActor(), itemID, AssignInput{Department: "design"})
	require.NoError(t, err)
	require.NotNil(t, item.AssignedDepartment)
	assert.Equal(t, "design", *item.AssignedDepartment)
	assert.Equal(t, enums.StageDesign, item.CurrentStage)
	assert.Equal(t, []string{"design"}, f.notifier.assignments)
}

func TestAssignToProductionEntersFirstStation(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(t, models.OrderItem{
		ProductName:      "Cards",
		CurrentStage:     enums.StagePrepress,
		SubstageSequence: pq.StringArray{"printing", "cutting", "packing"},
	})
	itemID := itemIn(order, f)

	actor := Actor{UserID: uuid.New(), Name: "Pia", Role: enums.RolePrepress, Department: "prepress"}
	item, err := f.svc.AssignDepartment(context.Background(), actor, itemID, AssignInput{Department: "production"})
	require.NoError(t, err)
	require.NotNil(t, item.CurrentSubstage)
	assert.Equal(t, "printing", *item.CurrentSubstage)
}

func TestReassignmentDropsForeignAssignee(t *testing.T) {
	f := newFixture()
	dept := "design"
	designer := &models.User{ID: uuid.New(), Name: "Dev", Role: enums.RoleDesign, Department: &dept}
	f.users.users[designer.ID] = designer

	order := f.seedOrder(t, models.OrderItem{
		ProductName:    "Cards",
		CurrentStage:   enums.StageDesign,
		AssignedUserID: &designer.ID,
	})
	itemID := itemIn(order, f)

	item, err := f.svc.AssignDepartment(context.Background(), adminActor(), itemID, AssignInput{Department: "prepress"})
	require.NoError(t, err)
	assert.Nil(t, item.AssignedUserID, "designer must not stay assigned to a prepress item")
}

func TestExplicitForeignAssigneeIsRejected(t *testing.T) {
	f := newFixture()
	dept := "design"
	designer := &models.User{ID: uuid.New(), Name: "Dev", Role: enums.RoleDesign, Department: &dept}
	f.users.users[designer.ID] = designer

	order := f.seedOrder(t, models.OrderItem{ProductName: "Cards", CurrentStage: enums.StageSales})
	itemID := itemIn(order, f)

	_, err := f.svc.AssignDepartment(context.Background(), adminActor(), itemID,
		AssignInput{Department: "prepress", AssignedUserID: &designer.ID})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}

func TestAdvanceSubstageWalksSequenceAndAutoDispatches(t *testing.T) {
	f := newFixture()
	station := "printing"
	order := f.seedOrder(t, models.OrderItem{
		ProductName:      "Cards",
		CurrentStage:     enums.StageProduction,
		CurrentSubstage:  &station,
		SubstageSequence: pq.StringArray{"printing", "packing"},
	})
	itemID := itemIn(order, f)
	worker := Actor{UserID: uuid.New(), Name: "Wren", Role: enums.RoleProduction, Department: "production", ProductionSubstage: "printing"}

	item, err := f.svc.AdvanceSubstage(context.Background(), worker, itemID)
	require.NoError(t, err)
	require.NotNil(t, item.CurrentSubstage)
	assert.Equal(t, "packing", *item.CurrentSubstage)
	assert.Equal(t, enums.StageProduction, item.CurrentStage)

	// The worker's own station no longer matches; an admin finishes the run.
	item, err = f.svc.AdvanceSubstage(context.Background(), adminActor(), itemID)
	require.NoError(t, err)
	assert.Equal(t, enums.StageDispatch, item.CurrentStage)
	assert.Nil(t, item.CurrentSubstage)
	assert.Contains(t, f.notifier.stageChanges, enums.StageDispatch)
}

func TestAdvanceSubstageEnforcesStation(t *testing.T) {
	f := newFixture()
	station := "printing"
	order := f.seedOrder(t, models.OrderItem{
		ProductName:     "Cards",
		CurrentStage:    enums.StageProduction,
		CurrentSubstage: &station,
	})
	itemID := itemIn(order, f)
	cutter := Actor{UserID: uuid.New(), Role: enums.RoleProduction, ProductionSubstage: "cutting"}

	_, err := f.svc.AdvanceSubstage(context.Background(), cutter, itemID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))
}

func TestDispatchCompletesOrderWhenLastItemShips(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(t,
		models.OrderItem{ProductName: "Cards", CurrentStage: enums.StageDispatch},
		models.OrderItem{ProductName: "Boxes", CurrentStage: enums.StageCompleted, Dispatched: true},
	)

	var dispatchable uuid.UUID
	for id, item := range f.repo.items {
		if item.OrderID == order.ID && item.CurrentStage == enums.StageDispatch {
			dispatchable = id
		}
	}

	item, err := f.svc.Dispatch(context.Background(), adminActor(), dispatchable)
	require.NoError(t, err)
	assert.True(t, item.Dispatched)
	assert.Equal(t, enums.StageCompleted, item.CurrentStage)
	assert.True(t, f.repo.orders[order.ID].Completed)
	assert.Contains(t, f.notifier.stageChanges, enums.StageCompleted)
}

func TestOutsourceLifecycle(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(t, models.OrderItem{ProductName: "Foil covers", CurrentStage: enums.StageSales})
	itemID := itemIn(order, f)
	actor := salesActor()

	item, err := f.svc.Outsource(context.Background(), actor, itemID, OutsourceInput{
		VendorName: "GoldLeaf Co",
		WorkType:   "foiling",
		Quantity:   300,
	})
	require.NoError(t, err)
	require.NotNil(t, item.Outsource)
	assert.Equal(t, enums.OutsourceStageOutsourced, item.Outsource.Stage)
	assert.Equal(t, enums.StageOutsource, item.CurrentStage)

	// Skipping vendor_in_progress is rejected and leaves the stage untouched.
	_, err = f.svc.TransitionOutsource(context.Background(), actor, itemID, enums.OutsourceStageVendorDispatched)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeStateConflict))
	item, err = f.svc.loadItem(context.Background(), itemID)
	require.NoError(t, err)
	assert.Equal(t, enums.OutsourceStageOutsourced, item.Outsource.Stage)

	for _, next := range []enums.OutsourceStage{
		enums.OutsourceStageVendorInProgress,
		enums.OutsourceStageVendorDispatched,
		enums.OutsourceStageReceivedFromVendor,
		enums.OutsourceStageQualityCheck,
		enums.OutsourceStageDecisionPending,
	} {
		item, err = f.svc.TransitionOutsource(context.Background(), actor, itemID, next)
		require.NoError(t, err)
		assert.Equal(t, next, item.Outsource.Stage)
	}

	item, err = f.svc.ResolveOutsourceDecision(context.Background(), actor, itemID, enums.StageProduction)
	require.NoError(t, err)
	assert.Equal(t, enums.StageProduction, item.CurrentStage)
	require.NotNil(t, item.CurrentSubstage)
	assert.Equal(t, "foiling", *item.CurrentSubstage)
	// The vendor record stays at decision_pending; the decision can be revisited.
	assert.Equal(t, enums.OutsourceStageDecisionPending, item.Outsource.Stage)
}

func TestOutsourceNoteRequiresOpenJob(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(t, models.OrderItem{ProductName: "Cards", CurrentStage: enums.StageSales})
	itemID := itemIn(order, f)

	_, err := f.svc.AddOutsourceNote(context.Background(), salesActor(), itemID, "chased vendor")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeStateConflict))
}

func TestListFiltersByDepartment(t *testing.T) {
	f := newFixture()
	dept := "design"
	f.seedOrder(t, models.OrderItem{ProductName: "Cards", CurrentStage: enums.StageDesign, AssignedDepartment: &dept})
	prepress := "prepress"
	f.repo.CreateOrder(context.Background(), &models.Order{
		OrderNumber:  "MAN-501",
		CustomerName: "Other",
		Items:        []models.OrderItem{{ProductName: "Boxes", CurrentStage: enums.StagePrepress, AssignedDepartment: &prepress}},
	})

	designer := Actor{UserID: uuid.New(), Role: enums.RoleDesign, Department: "design"}
	result, err := f.svc.List(context.Background(), designer, false)
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "Cards", result.Orders[0].Items[0].ProductName)

	admin, err := f.svc.List(context.Background(), adminActor(), false)
	require.NoError(t, err)
	assert.Len(t, admin.Orders, 2)
}

func TestUpdateDeliveryDateEscalatesToRed(t *testing.T) {
	f := newFixture()
	nextMonth := time.Now().AddDate(0, 1, 0)
	dept := "design"
	order := f.seedOrder(t, models.OrderItem{
		ProductName:        "Cards",
		CurrentStage:       enums.StageDesign,
		AssignedDepartment: &dept,
		DeliveryDate:       &nextMonth,
		Priority:           enums.PriorityBlue,
	})
	itemID := itemIn(order, f)

	tomorrow := time.Now().AddDate(0, 0, 1)
	require.NoError(t, f.svc.UpdateItemDeliveryDate(context.Background(), adminActor(), itemID, &tomorrow))

	assert.Equal(t, 1, f.notifier.escalations)
	assert.Equal(t, enums.PriorityRed, f.repo.items[itemID].Priority)

	var sawEscalation bool
	for _, event := range f.outbox.events {
		if event.EventType == enums.EventOrderPriorityRed {
			sawEscalation = true
		}
	}
	assert.True(t, sawEscalation)
}

func TestStatsDerivesPriorityFromDeliveryDates(t *testing.T) {
	f := newFixture()
	tomorrow := time.Now().AddDate(0, 0, 1)
	f.seedOrder(t, models.OrderItem{
		ProductName:  "Posters",
		CurrentStage: enums.StageSales,
		Priority:     enums.PriorityBlue, // stale write-time stamp
		DeliveryDate: &tomorrow,
	})

	stats, err := f.svc.Stats(context.Background(), adminActor())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.ItemsByPriority["red"])
	assert.Zero(t, stats.ItemsByPriority["blue"])
}

func TestTransitionRestampsStalePriority(t *testing.T) {
	f := newFixture()
	tomorrow := time.Now().AddDate(0, 0, 1)
	order := f.seedOrder(t, models.OrderItem{
		ProductName:  "Flyers",
		CurrentStage: enums.StageSales,
		Priority:     enums.PriorityBlue,
		DeliveryDate: &tomorrow,
	})
	itemID := itemIn(order, f)

	item, err := f.svc.AssignDepartment(context.Background(), salesActor(), itemID, AssignInput{Department: "design"})
	require.NoError(t, err)
	assert.Equal(t, enums.PriorityRed, item.Priority)
	assert.Equal(t, 1, f.notifier.escalations)
}

func TestOutsourceTransitionNotifiesWatchers(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(t, models.OrderItem{ProductName: "Foil cards", CurrentStage: enums.StagePrepress})
	itemID := itemIn(order, f)
	admin := adminActor()

	_, err := f.svc.Outsource(context.Background(), admin, itemID, OutsourceInput{
		VendorName: "GoldLeaf Co",
		WorkType:   "foiling",
		Quantity:   50,
	})
	require.NoError(t, err)
	before := len(f.notifier.stageChanges)

	_, err = f.svc.TransitionOutsource(context.Background(), admin, itemID, enums.OutsourceStageVendorInProgress)
	require.NoError(t, err)
	require.Len(t, f.notifier.stageChanges, before+1)
	assert.Equal(t, enums.StageOutsource, f.notifier.stageChanges[before])
}

func TestPurgeRequiresTypedConfirmation(t *testing.T) {
	f := newFixture()
	f.seedOrder(t, models.OrderItem{ProductName: "Cards", CurrentStage: enums.StageSales})

	err := f.svc.Purge(context.Background(), salesActor(), "DELETE ALL ORDERS")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))

	err = f.svc.Purge(context.Background(), adminActor(), "delete everything")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
	assert.NotEmpty(t, f.repo.orders)

	require.NoError(t, f.svc.Purge(context.Background(), adminActor(), "DELETE ALL ORDERS"))
	assert.Empty(t, f.repo.orders)
}

func TestDeleteRestrictedToAdminAndSales(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(t, models.OrderItem{ProductName: "Cards", CurrentStage: enums.StageSales})

	worker := Actor{UserID: uuid.New(), Role: enums.RoleProduction, Department: "production"}
	err := f.svc.Delete(context.Background(), worker, order.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))

	require.NoError(t, f.svc.Delete(context.Background(), salesActor(), order.ID))
	assert.Empty(t, f.repo.orders)
}
