package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
	"github.com/pressroomhq/printdesk-backend/pkg/metrics"
	"github.com/pressroomhq/printdesk-backend/pkg/outbox"
	"github.com/pressroomhq/printdesk-backend/pkg/pagination"
)

// userDirectory is the slice of the users repository the fan-out needs.
type userDirectory interface {
	ListAdmins(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role enums.Role) ([]models.User, error)
	ListByDepartment(ctx context.Context, department string) ([]models.User, error)
}

// Service resolves notification audiences and writes per-user records.
// Every write is independent: one failed recipient is logged and counted,
// never allowed to block the rest or the underlying transition.
type Service struct {
	repo    Repository
	users   userDirectory
	logg    *logger.Logger
	metrics *metrics.OrderMetrics
}

func NewService(repo Repository, users userDirectory, logg *logger.Logger, m *metrics.OrderMetrics) *Service {
	return &Service{repo: repo, users: users, logg: logg, metrics: m}
}

// NotifyStageChange fans a stage transition out to admins, the target
// department, and (for dispatch/completed) the sales team.
func (s *Service) NotifyStageChange(ctx context.Context, order *models.Order, item *models.OrderItem, newStage enums.Stage, targetDepartment string, actor outbox.ActorRef) error {
	groups := make([][]models.User, 0, 3)

	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "resolving admin recipients")
	}
	groups = append(groups, admins)

	if newStage == enums.StageDispatch || newStage == enums.StageCompleted {
		sales, err := s.users.ListByRole(ctx, enums.RoleSales)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "resolving sales recipients")
		}
		groups = append(groups, sales)
	}

	if targetDepartment != "" {
		dept, err := s.users.ListByDepartment(ctx, targetDepartment)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "resolving department recipients")
		}
		groups = append(groups, dept)
	}

	notification := models.Notification{
		Type:        enums.NotificationTypeStageChange,
		Title:       fmt.Sprintf("%s moved to %s", item.ProductName, newStage),
		Message:     fmt.Sprintf("%s (order %s) is now in %s, moved by %s.", item.ProductName, order.OrderNumber, newStage, actor.Name),
		OrderID:     &order.ID,
		OrderItemID: &item.ID,
	}
	if newStage == enums.StageDispatch {
		notification.Type = enums.NotificationTypeDispatch
	}

	return s.deliver(ctx, mergeAudience(actor.UserID, groups...), notification)
}

// NotifyAssignment tells the receiving department an item landed in its queue.
func (s *Service) NotifyAssignment(ctx context.Context, order *models.Order, item *models.OrderItem, targetDepartment string, actor outbox.ActorRef) error {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "resolving admin recipients")
	}
	dept, err := s.users.ListByDepartment(ctx, targetDepartment)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "resolving department recipients")
	}

	notification := models.Notification{
		Type:        enums.NotificationTypeAssignment,
		Title:       fmt.Sprintf("%s assigned to %s", item.ProductName, targetDepartment),
		Message:     fmt.Sprintf("%s (order %s) was assigned to %s by %s.", item.ProductName, order.OrderNumber, targetDepartment, actor.Name),
		OrderID:     &order.ID,
		OrderItemID: &item.ID,
	}
	return s.deliver(ctx, mergeAudience(actor.UserID, admins, dept), notification)
}

// NotifyPriorityEscalation alerts admins and the currently assigned
// department when an item's bucket turns red.
func (s *Service) NotifyPriorityEscalation(ctx context.Context, order *models.Order, item *models.OrderItem, actor outbox.ActorRef) error {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "resolving admin recipients")
	}

	groups := [][]models.User{admins}
	if item.AssignedDepartment != nil && *item.AssignedDepartment != "" {
		dept, err := s.users.ListByDepartment(ctx, *item.AssignedDepartment)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "resolving department recipients")
		}
		groups = append(groups, dept)
	}

	notification := models.Notification{
		Type:        enums.NotificationTypeUrgent,
		Title:       fmt.Sprintf("%s is now urgent", item.ProductName),
		Message:     fmt.Sprintf("%s (order %s) has fewer than 3 days until delivery.", item.ProductName, order.OrderNumber),
		OrderID:     &order.ID,
		OrderItemID: &item.ID,
	}
	return s.deliver(ctx, mergeAudience(actor.UserID, groups...), notification)
}

// NotifyImport tells admins and sales a WooCommerce order landed.
func (s *Service) NotifyImport(ctx context.Context, order *models.Order, actor outbox.ActorRef) error {
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "resolving admin recipients")
	}
	sales, err := s.users.ListByRole(ctx, enums.RoleSales)
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "resolving sales recipients")
	}

	notification := models.Notification{
		Type:    enums.NotificationTypeImport,
		Title:   fmt.Sprintf("Order %s imported", order.OrderNumber),
		Message: fmt.Sprintf("Order %s for %s was imported from WooCommerce by %s.", order.OrderNumber, order.CustomerName, actor.Name),
		OrderID: &order.ID,
	}
	return s.deliver(ctx, mergeAudience(actor.UserID, admins, sales), notification)
}

// deliver writes one record per recipient. Failures are collected and
// reported but must never abort remaining writes.
func (s *Service) deliver(ctx context.Context, audience []models.User, template models.Notification) error {
	var errs error
	for _, recipient := range audience {
		record := template
		record.ID = uuid.Nil
		record.UserID = recipient.ID
		if err := s.repo.Create(ctx, &record); err != nil {
			s.metrics.IncNotificationFailure()
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"recipient_id": recipient.ID.String(),
				"type":         template.Type.String(),
			}), "notification write failed: "+err.Error())
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// List returns the caller's notifications, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, params pagination.Params, unreadOnly bool) ([]models.Notification, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}

	records, next, err := s.repo.List(ctx, listNotificationsParams{
		UserID:     userID,
		Limit:      params.Limit,
		Cursor:     cursor,
		UnreadOnly: unreadOnly,
	})
	if err != nil {
		return nil, "", errors.Wrap(errors.CodeInternal, err, "listing notifications")
	}

	nextCursor := ""
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return records, nextCursor, nil
}

// CountUnread returns the caller's unread badge count.
func (s *Service) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(errors.CodeInternal, err, "counting unread notifications")
	}
	return count, nil
}

// MarkRead flips one notification to read.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	mark, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return errors.Wrap(errors.CodeInternal, err, "marking notification read")
	}
	if !mark.Found {
		return errors.New(errors.CodeNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead flips every unread notification for the caller.
func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, errors.Wrap(errors.CodeInternal, err, "marking notifications read")
	}
	return updated, nil
}
