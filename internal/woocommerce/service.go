package woocommerce

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
	"github.com/pressroomhq/printdesk-backend/pkg/outbox"
	"github.com/pressroomhq/printdesk-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type importNotifier interface {
	NotifyImport(ctx context.Context, order *models.Order, actor outbox.ActorRef) error
}

// Service imports orders from the remote store. The primary write (order,
// items, timeline, event) is transactional; the customer link is a
// best-effort enrichment written after commit.
type Service struct {
	client   Client
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier importNotifier
	logg     *logger.Logger
}

func NewService(client Client, repo Repository, tx txRunner, ob outboxPublisher, notifier importNotifier, logg *logger.Logger) *Service {
	return &Service{client: client, repo: repo, tx: tx, outbox: ob, notifier: notifier, logg: logg}
}

// Import looks the requested order up remotely and creates the local copy.
//
// Ordering matters: a number mismatch is raised before any duplicate check
// runs, so a wrong remote response can never be confused with "already
// imported". Re-importing the same remote order is rejected by duplicate
// detection, never silently overwritten.
func (s *Service) Import(ctx context.Context, actor outbox.ActorRef, requestedNumber string) (*models.Order, error) {
	remote, err := s.client.LookupOrder(ctx, requestedNumber)
	if err != nil {
		return nil, err
	}

	if err := checkMismatch(requestedNumber, remote); err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindByWooOrderID(ctx, remote.ID); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "checking for imported duplicate")
	} else if existing != nil {
		return nil, errors.New(errors.CodeConflict,
			fmt.Sprintf("remote order %d was already imported as %s", remote.ID, existing.OrderNumber))
	}
	if existing, err := s.repo.FindByNormalizedNumber(ctx, NormalizeOrderNumber(remote.Number)); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "checking for duplicate order number")
	} else if existing != nil {
		return nil, errors.New(errors.CodeConflict,
			fmt.Sprintf("order number %s already exists as %s", remote.Number, existing.OrderNumber))
	}

	order := buildOrder(remote)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "creating imported order")
		}
		entry := &models.TimelineEntry{
			OrderID:   order.ID,
			Stage:     enums.StageSales.String(),
			ActorID:   actor.UserID,
			ActorName: actor.Name,
			Note:      fmt.Sprintf("Imported from WooCommerce (remote order %d)", remote.ID),
		}
		if err := repo.CreateTimelineEntry(ctx, entry); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "writing import timeline entry")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderImported,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &actor,
			Data: map[string]any{
				"orderId":     order.ID,
				"orderNumber": order.OrderNumber,
				"wooOrderId":  remote.ID,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.writeCustomerLink(ctx, order, remote)

	if err := s.notifier.NotifyImport(ctx, order, actor); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "import notification fan-out incomplete: "+err.Error())
	}

	return order, nil
}

// writeCustomerLink is a post-commit enrichment; failure is logged, never
// surfaced.
func (s *Service) writeCustomerLink(ctx context.Context, order *models.Order, remote *RemoteOrder) {
	if remote.CustomerID <= 0 {
		return
	}
	link := &models.WCCustomer{
		OrderID:       order.ID,
		WooCustomerID: remote.CustomerID,
		Name:          remote.Customer.Name,
	}
	if remote.Customer.Email != "" {
		email := remote.Customer.Email
		link.Email = &email
	}
	if err := s.repo.CreateCustomerLink(ctx, link); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "customer link write failed: "+err.Error())
	}
}

// checkMismatch raises an explicit error when the remote response does not
// match the requested number or id, including both values in the message.
func checkMismatch(requested string, remote *RemoteOrder) error {
	if SameOrderNumber(requested, remote.Number) {
		return nil
	}
	if NormalizeOrderNumber(requested) == strconv.FormatInt(remote.ID, 10) {
		return nil
	}
	return errors.New(errors.CodeValidation,
		fmt.Sprintf("woocommerce returned order %q but %q was requested", remote.Number, requested)).
		WithDetails(map[string]any{"requested": requested, "returned": remote.Number, "remoteId": remote.ID})
}

func buildOrder(remote *RemoteOrder) *models.Order {
	wooID := remote.ID
	order := &models.Order{
		OrderNumber:  fmt.Sprintf("WC-%s", remote.Number),
		CustomerName: remote.Customer.Name,
		Source:       enums.OrderSourceWooCommerce,
		WooOrderID:   &wooID,
	}
	if remote.Customer.Email != "" {
		email := remote.Customer.Email
		order.CustomerEmail = &email
	}
	if remote.Customer.Phone != "" {
		phone := remote.Customer.Phone
		order.CustomerPhone = &phone
	}

	for _, line := range remote.Items {
		item := models.OrderItem{
			ProductName:  line.ProductName,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			CurrentStage: enums.StageSales,
			Priority:     enums.PriorityBlue,
		}
		if len(line.Meta) > 0 {
			item.Specs = types.JSONMap(line.Meta)
		}
		order.Items = append(order.Items, item)
	}
	return order
}
