package notifications

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
	"github.com/pressroomhq/printdesk-backend/pkg/outbox"
	"github.com/pressroomhq/printdesk-backend/pkg/pagination"
)

type stubRepo struct {
	created []models.Notification
	failFor map[uuid.UUID]error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(_ context.Context, n *models.Notification) error {
	if err, ok := s.failFor[n.UserID]; ok {
		return err
	}
	s.created = append(s.created, *n)
	return nil
}

func (s *stubRepo) List(context.Context, listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (s *stubRepo) CountUnread(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func (s *stubRepo) MarkRead(context.Context, uuid.UUID, uuid.UUID, time.Time) (notificationMarkResult, error) {
	return notificationMarkResult{Found: true, Updated: true}, nil
}

func (s *stubRepo) MarkAllRead(context.Context, uuid.UUID, time.Time) (int64, error) { return 0, nil }

func (s *stubRepo) DeleteAll(context.Context) error { return nil }

type stubDirectory struct {
	admins []models.User
	sales  []models.User
	byDept map[string][]models.User
}

func (s *stubDirectory) ListAdmins(context.Context) ([]models.User, error) { return s.admins, nil }

func (s *stubDirectory) ListByRole(_ context.Context, role enums.Role) ([]models.User, error) {
	if role == enums.RoleSales {
		return s.sales, nil
	}
	return nil, nil
}

func (s *stubDirectory) ListByDepartment(_ context.Context, dept string) ([]models.User, error) {
	return s.byDept[dept], nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func user(name string) models.User {
	return models.User{ID: uuid.New(), Name: name}
}

func recipients(created []models.Notification) map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool, len(created))
	for _, n := range created {
		out[n.UserID] = true
	}
	return out
}

func TestStageChangeAudienceExcludesActor(t *testing.T) {
	admin := user("admin")
	actor := user("actor admin")
	designer := user("designer")
	sales := user("sales")

	repo := &stubRepo{}
	svc := NewService(repo, &stubDirectory{
		admins: []models.User{admin, actor},
		sales:  []models.User{sales},
		byDept: map[string][]models.User{"design": {designer}},
	}, testLogger(), nil)

	order := &models.Order{ID: uuid.New(), OrderNumber: "MAN-7"}
	item := &models.OrderItem{ID: uuid.New(), ProductName: "Wedding cards"}

	err := svc.NotifyStageChange(context.Background(), order, item, enums.StageDesign, "design",
		outbox.ActorRef{UserID: actor.ID, Name: actor.Name})
	require.NoError(t, err)

	got := recipients(repo.created)
	assert.True(t, got[admin.ID])
	assert.True(t, got[designer.ID])
	assert.False(t, got[actor.ID], "actor must not be notified")
	assert.False(t, got[sales.ID], "sales only joins for dispatch/completed")
}

func TestStageChangeIncludesSalesOnDispatch(t *testing.T) {
	sales := user("sales")
	actor := user("production lead")

	repo := &stubRepo{}
	svc := NewService(repo, &stubDirectory{
		sales:  []models.User{sales},
		byDept: map[string][]models.User{},
	}, testLogger(), nil)

	order := &models.Order{ID: uuid.New(), OrderNumber: "MAN-8"}
	item := &models.OrderItem{ID: uuid.New(), ProductName: "Boxes"}

	err := svc.NotifyStageChange(context.Background(), order, item, enums.StageDispatch, "",
		outbox.ActorRef{UserID: actor.ID, Name: actor.Name})
	require.NoError(t, err)

	got := recipients(repo.created)
	assert.True(t, got[sales.ID])
	require.Len(t, repo.created, 1)
	assert.Equal(t, enums.NotificationTypeDispatch, repo.created[0].Type)
}

func TestAudienceDeduplicatesAcrossGroups(t *testing.T) {
	// A sales user who is also an admin gets one record, not two.
	both := user("sales admin")

	repo := &stubRepo{}
	svc := NewService(repo, &stubDirectory{
		admins: []models.User{both},
		sales:  []models.User{both},
	}, testLogger(), nil)

	order := &models.Order{ID: uuid.New(), OrderNumber: "MAN-9"}
	item := &models.OrderItem{ID: uuid.New(), ProductName: "Flyers"}

	err := svc.NotifyStageChange(context.Background(), order, item, enums.StageCompleted, "",
		outbox.ActorRef{UserID: uuid.New(), Name: "someone"})
	require.NoError(t, err)
	assert.Len(t, repo.created, 1)
}

func TestDeliverContinuesPastFailedRecipient(t *testing.T) {
	broken := user("broken")
	healthy := user("healthy")

	repo := &stubRepo{failFor: map[uuid.UUID]error{broken.ID: errors.New("insert failed")}}
	svc := NewService(repo, &stubDirectory{
		admins: []models.User{broken, healthy},
	}, testLogger(), nil)

	order := &models.Order{ID: uuid.New(), OrderNumber: "MAN-10"}
	item := &models.OrderItem{ID: uuid.New(), ProductName: "Posters"}

	err := svc.NotifyStageChange(context.Background(), order, item, enums.StagePrepress, "",
		outbox.ActorRef{UserID: uuid.New(), Name: "someone"})

	// The aggregate error reports the failure, but the healthy recipient
	// still got their record.
	require.Error(t, err)
	got := recipients(repo.created)
	assert.True(t, got[healthy.ID])
}

func TestPriorityEscalationTargetsAssignedDepartmentOnly(t *testing.T) {
	admin := user("admin")
	producer := user("producer")
	designer := user("designer")

	repo := &stubRepo{}
	svc := NewService(repo, &stubDirectory{
		admins: []models.User{admin},
		byDept: map[string][]models.User{
			"production": {producer},
			"design":     {designer},
		},
	}, testLogger(), nil)

	dept := "production"
	order := &models.Order{ID: uuid.New(), OrderNumber: "MAN-11"}
	item := &models.OrderItem{ID: uuid.New(), ProductName: "Menus", AssignedDepartment: &dept}

	err := svc.NotifyPriorityEscalation(context.Background(), order, item,
		outbox.ActorRef{UserID: uuid.New(), Name: "scheduler"})
	require.NoError(t, err)

	got := recipients(repo.created)
	assert.True(t, got[admin.ID])
	assert.True(t, got[producer.ID])
	assert.False(t, got[designer.ID])
	for _, n := range repo.created {
		assert.Equal(t, enums.NotificationTypeUrgent, n.Type)
	}
}
