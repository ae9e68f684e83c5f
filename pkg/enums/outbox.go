package enums

// OutboxEventType names the domain events emitted via the transactional outbox.
type OutboxEventType string

const (
	EventOrderCreated      OutboxEventType = "order.created"
	EventOrderImported     OutboxEventType = "order.imported"
	EventOrderStageChanged OutboxEventType = "order.stage_changed"
	EventOrderPriorityRed  OutboxEventType = "order.priority_escalated"
	EventOrderDeleted      OutboxEventType = "order.deleted"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder     OutboxAggregateType = "order"
	AggregateOrderItem OutboxAggregateType = "order_item"
)
