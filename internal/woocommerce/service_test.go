package woocommerce

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
	"github.com/pressroomhq/printdesk-backend/pkg/outbox"
)

type stubClient struct {
	remote *RemoteOrder
	err    error
}

func (s *stubClient) LookupOrder(context.Context, string) (*RemoteOrder, error) {
	return s.remote, s.err
}

type stubImportRepo struct {
	byWooID        map[int64]*models.Order
	byNumber       map[string]*models.Order
	duplicateCalls int
	createdOrder   *models.Order
	timeline       []models.TimelineEntry
	customerLinks  []models.WCCustomer
}

func (s *stubImportRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubImportRepo) FindByWooOrderID(_ context.Context, id int64) (*models.Order, error) {
	s.duplicateCalls++
	return s.byWooID[id], nil
}

func (s *stubImportRepo) FindByNormalizedNumber(_ context.Context, normalized string) (*models.Order, error) {
	s.duplicateCalls++
	return s.byNumber[normalized], nil
}

func (s *stubImportRepo) CreateOrder(_ context.Context, order *models.Order) error {
	order.ID = uuid.New()
	s.createdOrder = order
	return nil
}

func (s *stubImportRepo) CreateCustomerLink(_ context.Context, link *models.WCCustomer) error {
	s.customerLinks = append(s.customerLinks, *link)
	return nil
}

func (s *stubImportRepo) CreateTimelineEntry(_ context.Context, entry *models.TimelineEntry) error {
	s.timeline = append(s.timeline, *entry)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubNotifier struct {
	notified int
}

func (s *stubNotifier) NotifyImport(context.Context, *models.Order, outbox.ActorRef) error {
	s.notified++
	return nil
}

func importLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func remoteOrder775() *RemoteOrder {
	return &RemoteOrder{
		ID:         9001,
		Number:     "775",
		CustomerID: 42,
		Customer:   RemoteCustomer{Name: "Asha Mehta", Email: "asha@example.com"},
		Items: []RemoteLineItem{
			{ProductName: "Foil cards", Quantity: 200, Meta: map[string]string{"Size": "A5"}},
		},
	}
}

func newImportService(client Client, repo Repository) (*Service, *stubOutbox, *stubNotifier) {
	ob := &stubOutbox{}
	notifier := &stubNotifier{}
	svc := NewService(client, repo, stubTxRunner{}, ob, notifier, importLogger())
	return svc, ob, notifier
}

func TestImportCreatesOrderWithItemsAndLink(t *testing.T) {
	repo := &stubImportRepo{byWooID: map[int64]*models.Order{}, byNumber: map[string]*models.Order{}}
	svc, ob, notifier := newImportService(&stubClient{remote: remoteOrder775()}, repo)

	actor := outbox.ActorRef{UserID: uuid.New(), Name: "Priya", Role: "sales"}
	order, err := svc.Import(context.Background(), actor, "775")
	require.NoError(t, err)

	assert.Equal(t, "WC-775", order.OrderNumber)
	assert.Equal(t, enums.OrderSourceWooCommerce, order.Source)
	require.NotNil(t, order.WooOrderID)
	assert.EqualValues(t, 9001, *order.WooOrderID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Foil cards", order.Items[0].ProductName)
	assert.Equal(t, "A5", order.Items[0].Specs["Size"])

	require.Len(t, repo.timeline, 1)
	require.Len(t, ob.events, 1)
	assert.Equal(t, enums.EventOrderImported, ob.events[0].EventType)
	require.Len(t, repo.customerLinks, 1)
	assert.EqualValues(t, 42, repo.customerLinks[0].WooCustomerID)
	assert.Equal(t, 1, notifier.notified)
}

func TestImportMismatchSkipsDuplicateCheck(t *testing.T) {
	repo := &stubImportRepo{byWooID: map[int64]*models.Order{}, byNumber: map[string]*models.Order{}}
	svc, _, _ := newImportService(&stubClient{remote: remoteOrder775()}, repo)

	_, err := svc.Import(context.Background(), outbox.ActorRef{UserID: uuid.New()}, "774")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
	assert.Contains(t, err.Error(), "775")
	assert.Contains(t, err.Error(), "774")
	assert.Zero(t, repo.duplicateCalls, "mismatch must abort before duplicate detection")
	assert.Nil(t, repo.createdOrder)
}

func TestImportRejectsAlreadyImportedOrder(t *testing.T) {
	existing := &models.Order{OrderNumber: "WC-775"}
	repo := &stubImportRepo{
		byWooID:  map[int64]*models.Order{9001: existing},
		byNumber: map[string]*models.Order{},
	}
	svc, _, _ := newImportService(&stubClient{remote: remoteOrder775()}, repo)

	_, err := svc.Import(context.Background(), outbox.ActorRef{UserID: uuid.New()}, "775")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))
	assert.Nil(t, repo.createdOrder)
}

func TestImportRejectsLocalNumberCollision(t *testing.T) {
	existing := &models.Order{OrderNumber: "MAN-775"}
	repo := &stubImportRepo{
		byWooID:  map[int64]*models.Order{},
		byNumber: map[string]*models.Order{"775": existing},
	}
	svc, _, _ := newImportService(&stubClient{remote: remoteOrder775()}, repo)

	_, err := svc.Import(context.Background(), outbox.ActorRef{UserID: uuid.New()}, "775")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConflict))
}

func TestImportAcceptsRemoteIDMatch(t *testing.T) {
	repo := &stubImportRepo{byWooID: map[int64]*models.Order{}, byNumber: map[string]*models.Order{}}
	svc, _, _ := newImportService(&stubClient{remote: remoteOrder775()}, repo)

	// Requested by the remote numeric id rather than the order number.
	order, err := svc.Import(context.Background(), outbox.ActorRef{UserID: uuid.New()}, "9001")
	require.NoError(t, err)
	assert.Equal(t, "WC-775", order.OrderNumber)
}

func TestImportPropagatesNotFound(t *testing.T) {
	svc, _, _ := newImportService(&stubClient{err: errors.New(errors.CodeNotFound, "order not found on woocommerce")},
		&stubImportRepo{})

	_, err := svc.Import(context.Background(), outbox.ActorRef{UserID: uuid.New()}, "123")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}
