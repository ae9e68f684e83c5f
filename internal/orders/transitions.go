package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pressroomhq/printdesk-backend/internal/priority"
	"github.com/pressroomhq/printdesk-backend/internal/rules"
	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/enums"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
	"github.com/pressroomhq/printdesk-backend/pkg/outbox"
)

// AssignDepartment routes an item to a new department. The actor's role must
// allow the destination, a carried-over assignee from another department is
// unassigned, and both the item and its parent order are touched so change
// listeners pick the move up.
func (s *Service) AssignDepartment(ctx context.Context, actor Actor, itemID uuid.UUID, input AssignInput) (*models.OrderItem, error) {
	department, err := enums.ParseDepartment(input.Department)
	if err != nil {
		return nil, errors.New(errors.CodeValidation, err.Error())
	}
	if department == enums.DepartmentOutsource {
		return nil, errors.New(errors.CodeValidation, "outsourcing requires vendor details; use the outsource operation")
	}
	if err := rules.ValidateAssignment(actor.Role, actor.isAdmin(), department); err != nil {
		return nil, err
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}

	assignedUserID, err := s.resolveAssignee(ctx, item, input, department)
	if err != nil {
		return nil, err
	}

	fromStage := item.CurrentStage
	toStage := department.Stage()
	columns := map[string]any{
		"assigned_department": department.String(),
		"assigned_user_id":    assignedUserID,
		"current_stage":       toStage.String(),
		"current_substage":    nil,
	}
	if department == enums.DepartmentProduction {
		first, err := rules.FirstSubstage(rules.SequenceFor(item))
		if err != nil {
			return nil, err
		}
		columns["current_substage"] = first
	}
	escalated := refreshPriority(columns, item, order, time.Now())

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateItemColumns(ctx, itemID, columns); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "assigning item")
		}
		if err := repo.TouchOrder(ctx, item.OrderID, time.Now().UTC()); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "touching parent order")
		}
		entry := &models.TimelineEntry{
			OrderID:     order.ID,
			OrderItemID: &item.ID,
			Stage:       toStage.String(),
			ActorID:     actor.UserID,
			ActorName:   actor.Name,
			Note:        fmt.Sprintf("Moved from %s to %s", fromStage, department),
		}
		if err := repo.CreateTimelineEntry(ctx, entry); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "writing assignment timeline entry")
		}
		return s.emitStageChange(ctx, tx, actor, order, item, fromStage, toStage)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(fromStage.String(), toStage.String())
	if err := s.notifier.NotifyAssignment(ctx, order, item, department.String(), actor.ref()); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "assignment fan-out incomplete: "+err.Error())
	}
	s.notifyEscalation(ctx, escalated, order, item, actor)
	s.cache.invalidate(ctx)

	return s.loadItem(ctx, itemID)
}

// resolveAssignee decides who stays individually assigned after a reroute. A
// user explicitly named in the request must belong to the new department; a
// carried-over assignee from a different department is silently dropped.
func (s *Service) resolveAssignee(ctx context.Context, item *models.OrderItem, input AssignInput, department enums.Department) (*uuid.UUID, error) {
	candidate := input.AssignedUserID
	explicit := candidate != nil
	if candidate == nil {
		candidate = item.AssignedUserID
	}
	if candidate == nil {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, *candidate)
	if err == gorm.ErrRecordNotFound {
		if explicit {
			return nil, errors.New(errors.CodeValidation, "assigned user not found")
		}
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading assigned user")
	}

	if userBelongsTo(user, department) {
		return candidate, nil
	}
	if explicit {
		return nil, errors.New(errors.CodeValidation,
			fmt.Sprintf("%s does not belong to %s", user.Name, department))
	}
	return nil, nil
}

func userBelongsTo(user *models.User, department enums.Department) bool {
	if user.Department != nil && department.Equals(*user.Department) {
		return true
	}
	return user.Department == nil && department.Equals(user.Role.String())
}

// AdvanceSubstage completes the item's current production station. The final
// station auto-transitions the item to dispatch.
func (s *Service) AdvanceSubstage(ctx context.Context, actor Actor, itemID uuid.UUID) (*models.OrderItem, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CurrentStage != enums.StageProduction || item.CurrentSubstage == nil {
		return nil, errors.New(errors.CodeStateConflict, "item is not in production")
	}
	if err := s.checkStationAccess(actor, *item.CurrentSubstage); err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}

	next, final, err := rules.NextSubstage(rules.SequenceFor(item), *item.CurrentSubstage)
	if err != nil {
		return nil, err
	}

	fromStage := item.CurrentStage
	toStage := enums.StageProduction
	columns := map[string]any{}
	if final {
		toStage = enums.StageDispatch
		columns["current_stage"] = toStage.String()
		columns["current_substage"] = nil
		columns["assigned_department"] = enums.DepartmentDispatch.String()
		columns["assigned_user_id"] = nil
	} else {
		columns["current_substage"] = next
	}
	escalated := refreshPriority(columns, item, order, time.Now())

	completed := *item.CurrentSubstage
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateItemColumns(ctx, itemID, columns); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "advancing substage")
		}
		if err := repo.TouchOrder(ctx, item.OrderID, time.Now().UTC()); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "touching parent order")
		}
		note := fmt.Sprintf("Completed %s, moved to %s", completed, next)
		if final {
			note = fmt.Sprintf("Completed %s, ready for dispatch", completed)
		}
		entry := &models.TimelineEntry{
			OrderID:     order.ID,
			OrderItemID: &item.ID,
			Stage:       toStage.String(),
			Substage:    &completed,
			ActorID:     actor.UserID,
			ActorName:   actor.Name,
			Note:        note,
		}
		if err := repo.CreateTimelineEntry(ctx, entry); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "writing substage timeline entry")
		}
		return s.emitStageChange(ctx, tx, actor, order, item, fromStage, toStage)
	})
	if err != nil {
		return nil, err
	}

	if final {
		s.metrics.ObserveTransition(fromStage.String(), toStage.String())
		if err := s.notifier.NotifyStageChange(ctx, order, item, toStage, enums.DepartmentDispatch.String(), actor.ref()); err != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "dispatch fan-out incomplete: "+err.Error())
		}
	}
	s.notifyEscalation(ctx, escalated, order, item, actor)
	s.cache.invalidate(ctx)

	return s.loadItem(ctx, itemID)
}

// checkStationAccess keeps production workers on their own station; admins
// and production leads without a configured station pass.
func (s *Service) checkStationAccess(actor Actor, currentSubstage string) error {
	if actor.isAdmin() {
		return nil
	}
	if actor.Role != enums.RoleProduction {
		return errors.New(errors.CodeForbidden, "only production may advance substages")
	}
	if actor.ProductionSubstage != "" && !strings.EqualFold(actor.ProductionSubstage, currentSubstage) {
		return errors.New(errors.CodeForbidden,
			fmt.Sprintf("item is at %s, your station is %s", currentSubstage, actor.ProductionSubstage))
	}
	return nil
}

// Dispatch marks a dispatch-stage item as handed over, completing it. When
// the last sibling completes, the parent order is flagged completed.
func (s *Service) Dispatch(ctx context.Context, actor Actor, itemID uuid.UUID) (*models.OrderItem, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CurrentStage != enums.StageDispatch {
		return nil, errors.New(errors.CodeStateConflict, "item is not ready for dispatch")
	}
	if item.Dispatched {
		return nil, errors.New(errors.CodeStateConflict, "item was already dispatched")
	}

	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}

	allDone := true
	for _, sibling := range order.Items {
		if sibling.ID != item.ID && sibling.CurrentStage != enums.StageCompleted {
			allDone = false
			break
		}
	}

	columns := map[string]any{
		"dispatched":    true,
		"current_stage": enums.StageCompleted.String(),
	}
	// Restamp only; a completed item raises no urgency fan-out.
	refreshPriority(columns, item, order, time.Now())

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateItemColumns(ctx, itemID, columns); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "dispatching item")
		}
		if allDone {
			if err := repo.UpdateOrderColumns(ctx, order.ID, map[string]any{"completed": true}); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "completing order")
			}
		} else if err := repo.TouchOrder(ctx, order.ID, time.Now().UTC()); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "touching parent order")
		}
		entry := &models.TimelineEntry{
			OrderID:     order.ID,
			OrderItemID: &item.ID,
			Stage:       enums.StageCompleted.String(),
			ActorID:     actor.UserID,
			ActorName:   actor.Name,
			Note:        fmt.Sprintf("%s dispatched", item.ProductName),
		}
		if err := repo.CreateTimelineEntry(ctx, entry); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "writing dispatch timeline entry")
		}
		return s.emitStageChange(ctx, tx, actor, order, item, enums.StageDispatch, enums.StageCompleted)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(enums.StageDispatch.String(), enums.StageCompleted.String())
	if err := s.notifier.NotifyStageChange(ctx, order, item, enums.StageCompleted, "", actor.ref()); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "completion fan-out incomplete: "+err.Error())
	}
	s.cache.invalidate(ctx)

	return s.loadItem(ctx, itemID)
}

// Outsource hands an item to an external vendor and opens the vendor
// sub-machine at its initial stage.
func (s *Service) Outsource(ctx context.Context, actor Actor, itemID uuid.UUID, input OutsourceInput) (*models.OrderItem, error) {
	if err := rules.ValidateAssignment(actor.Role, actor.isAdmin(), enums.DepartmentOutsource); err != nil {
		return nil, err
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Outsource != nil {
		return nil, errors.New(errors.CodeConflict, "item already has an open outsource job")
	}
	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}

	fromStage := item.CurrentStage
	info := &models.OutsourceInfo{
		OrderItemID: item.ID,
		VendorName:  strings.TrimSpace(input.VendorName),
		WorkType:    strings.TrimSpace(input.WorkType),
		Quantity:    input.Quantity,
		Stage:       enums.OutsourceStageOutsourced,
	}
	if input.VendorPhone != "" {
		phone := input.VendorPhone
		info.VendorPhone = &phone
	}
	info.ExpectedDate = input.ExpectedDate

	columns := map[string]any{
		"assigned_department": enums.DepartmentOutsource.String(),
		"assigned_user_id":    nil,
		"current_stage":       enums.StageOutsource.String(),
		"current_substage":    nil,
	}
	escalated := refreshPriority(columns, item, order, time.Now())

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOutsourceInfo(ctx, info); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "creating outsource job")
		}
		if err := repo.UpdateItemColumns(ctx, itemID, columns); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "moving item to outsource")
		}
		if err := repo.TouchOrder(ctx, item.OrderID, time.Now().UTC()); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "touching parent order")
		}
		entry := &models.TimelineEntry{
			OrderID:     order.ID,
			OrderItemID: &item.ID,
			Stage:       enums.StageOutsource.String(),
			ActorID:     actor.UserID,
			ActorName:   actor.Name,
			Note:        fmt.Sprintf("Outsourced to %s for %s", info.VendorName, info.WorkType),
		}
		if err := repo.CreateTimelineEntry(ctx, entry); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "writing outsource timeline entry")
		}
		return s.emitStageChange(ctx, tx, actor, order, item, fromStage, enums.StageOutsource)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(fromStage.String(), enums.StageOutsource.String())
	if err := s.notifier.NotifyAssignment(ctx, order, item, enums.DepartmentOutsource.String(), actor.ref()); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "outsource fan-out incomplete: "+err.Error())
	}
	s.notifyEscalation(ctx, escalated, order, item, actor)
	s.cache.invalidate(ctx)

	return s.loadItem(ctx, itemID)
}

// TransitionOutsource moves the vendor sub-machine one step. Illegal moves
// are rejected before anything is written, leaving the stored stage as-is.
func (s *Service) TransitionOutsource(ctx context.Context, actor Actor, itemID uuid.UUID, to enums.OutsourceStage) (*models.OrderItem, error) {
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Outsource == nil {
		return nil, errors.New(errors.CodeStateConflict, "item has no outsource job")
	}
	if err := rules.ValidateOutsourceTransition(item.Outsource.Stage, to); err != nil {
		return nil, err
	}
	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}

	from := item.Outsource.Stage
	itemColumns := map[string]any{}
	escalated := refreshPriority(itemColumns, item, order, time.Now())

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOutsourceColumns(ctx, item.Outsource.ID, map[string]any{"stage": to.String()}); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "updating outsource stage")
		}
		if len(itemColumns) > 0 {
			if err := repo.UpdateItemColumns(ctx, itemID, itemColumns); err != nil {
				return errors.Wrap(errors.CodeInternal, err, "restamping item priority")
			}
		}
		if err := repo.TouchOrder(ctx, item.OrderID, time.Now().UTC()); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "touching parent order")
		}
		entry := &models.TimelineEntry{
			OrderID:     order.ID,
			OrderItemID: &item.ID,
			Stage:       enums.StageOutsource.String(),
			ActorID:     actor.UserID,
			ActorName:   actor.Name,
			Note:        fmt.Sprintf("Vendor stage moved from %s to %s", from, to),
		}
		if err := repo.CreateTimelineEntry(ctx, entry); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "writing vendor timeline entry")
		}
		return s.emitStageChange(ctx, tx, actor, order, item, enums.StageOutsource, enums.StageOutsource)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(from.String(), to.String())
	if err := s.notifier.NotifyStageChange(ctx, order, item, enums.StageOutsource, enums.DepartmentOutsource.String(), actor.ref()); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "vendor stage fan-out incomplete: "+err.Error())
	}
	s.notifyEscalation(ctx, escalated, order, item, actor)
	s.cache.invalidate(ctx)
	return s.loadItem(ctx, itemID)
}

// ResolveOutsourceDecision routes a decision_pending item back into the shop:
// into production at the first station, or straight to dispatch. The vendor
// record keeps its decision_pending stage so the decision can be revisited.
func (s *Service) ResolveOutsourceDecision(ctx context.Context, actor Actor, itemID uuid.UUID, destination enums.Stage) (*models.OrderItem, error) {
	if destination != enums.StageProduction && destination != enums.StageDispatch {
		return nil, errors.New(errors.CodeValidation, "decision must resolve to production or dispatch")
	}

	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Outsource == nil || item.Outsource.Stage != enums.OutsourceStageDecisionPending {
		return nil, errors.New(errors.CodeStateConflict, "outsource job is not awaiting a decision")
	}
	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}

	columns := map[string]any{
		"current_stage":    destination.String(),
		"assigned_user_id": nil,
	}
	if destination == enums.StageProduction {
		first, err := rules.FirstSubstage(rules.SequenceFor(item))
		if err != nil {
			return nil, err
		}
		columns["assigned_department"] = enums.DepartmentProduction.String()
		columns["current_substage"] = first
	} else {
		columns["assigned_department"] = enums.DepartmentDispatch.String()
		columns["current_substage"] = nil
	}
	escalated := refreshPriority(columns, item, order, time.Now())

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateItemColumns(ctx, itemID, columns); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "resolving outsource decision")
		}
		if err := repo.TouchOrder(ctx, item.OrderID, time.Now().UTC()); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "touching parent order")
		}
		entry := &models.TimelineEntry{
			OrderID:     order.ID,
			OrderItemID: &item.ID,
			Stage:       destination.String(),
			ActorID:     actor.UserID,
			ActorName:   actor.Name,
			Note:        fmt.Sprintf("Vendor work accepted, moved to %s", destination),
		}
		if err := repo.CreateTimelineEntry(ctx, entry); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "writing decision timeline entry")
		}
		return s.emitStageChange(ctx, tx, actor, order, item, enums.StageOutsource, destination)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveTransition(enums.StageOutsource.String(), destination.String())
	if err := s.notifier.NotifyStageChange(ctx, order, item, destination, columns["assigned_department"].(string), actor.ref()); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "decision fan-out incomplete: "+err.Error())
	}
	s.notifyEscalation(ctx, escalated, order, item, actor)
	s.cache.invalidate(ctx)

	return s.loadItem(ctx, itemID)
}

// AddOutsourceNote appends to the vendor follow-up log.
func (s *Service) AddOutsourceNote(ctx context.Context, actor Actor, itemID uuid.UUID, note string) (*models.OutsourceNote, error) {
	if strings.TrimSpace(note) == "" {
		return nil, errors.New(errors.CodeValidation, "note is required")
	}
	item, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Outsource == nil {
		return nil, errors.New(errors.CodeStateConflict, "item has no outsource job")
	}

	record := &models.OutsourceNote{
		OutsourceID: item.Outsource.ID,
		AuthorID:    actor.UserID,
		Note:        strings.TrimSpace(note),
	}
	if err := s.repo.AddOutsourceNote(ctx, record); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "adding vendor note")
	}
	return record, nil
}

// refreshPriority restamps the stored urgency bucket alongside whatever a
// transition is already writing. Reports whether the bucket escalated to red
// so the caller can raise the urgent fan-out after commit.
func refreshPriority(columns map[string]any, item *models.OrderItem, order *models.Order, now time.Time) bool {
	bucket := priority.Compute(effectiveDeliveryDate(item, order), now)
	if bucket == item.Priority {
		return false
	}
	columns["priority"] = bucket.String()
	return bucket == enums.PriorityRed
}

func (s *Service) notifyEscalation(ctx context.Context, escalated bool, order *models.Order, item *models.OrderItem, actor Actor) {
	if !escalated {
		return
	}
	if err := s.notifier.NotifyPriorityEscalation(ctx, order, item, actor.ref()); err != nil {
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "priority escalation fan-out incomplete: "+err.Error())
	}
}

func (s *Service) emitStageChange(ctx context.Context, tx *gorm.DB, actor Actor, order *models.Order, item *models.OrderItem, from, to enums.Stage) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStageChanged,
		AggregateType: enums.AggregateOrderItem,
		AggregateID:   item.ID,
		Actor:         actorRefPtr(actor),
		Data: map[string]any{
			"orderId": order.ID,
			"itemId":  item.ID,
			"from":    from,
			"to":      to,
		},
	})
}
