package feed

import (
	"context"
	"encoding/json"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/pressroomhq/printdesk-backend/pkg/config"
	"github.com/pressroomhq/printdesk-backend/pkg/errors"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
	"github.com/pressroomhq/printdesk-backend/pkg/metrics"
)

type cacheInvalidator interface {
	InvalidateListCache(ctx context.Context)
}

// eventHeader is the slice of the published payload the feed cares about.
type eventHeader struct {
	EventID string `json:"eventId"`
}

// Consumer drains the order change feed and refreshes the cached dashboards.
// Events arrive in bursts (one mutation can emit several), so invalidation is
// debounced rather than run per message.
type Consumer struct {
	subscriber *pubsub.Subscriber
	debouncer  *Debouncer
	logg       *logger.Logger
	metrics    *metrics.OrderMetrics
}

func NewConsumer(subscriber *pubsub.Subscriber, invalidator cacheInvalidator, cfg config.FeedConfig, logg *logger.Logger, m *metrics.OrderMetrics) *Consumer {
	debouncer := NewDebouncer(cfg.DebounceWindow, invalidator.InvalidateListCache)
	return &Consumer{
		subscriber: subscriber,
		debouncer:  debouncer,
		logg:       logg,
		metrics:    m,
	}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscriber == nil {
		return errors.New(errors.CodeDependency, "orders subscription is not configured")
	}
	c.logg.Info(ctx, "change feed consumer started")

	err := c.subscriber.Receive(ctx, c.handle)
	c.debouncer.Flush(context.WithoutCancel(ctx))
	if err != nil && ctx.Err() == nil {
		return errors.Wrap(errors.CodeDependency, err, "receiving change feed")
	}
	c.logg.Info(ctx, "change feed consumer stopped")
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg *pubsub.Message) {
	c.metrics.IncFeedEvent()

	var header eventHeader
	if err := json.Unmarshal(msg.Data, &header); err != nil {
		c.logg.Warn(ctx, "change feed message is not valid JSON, dropping")
		msg.Ack()
		return
	}

	// Every event on this topic can change what a dashboard shows, including
	// types added later. A spare refresh is cheaper than a stale list.
	c.debouncer.Trigger(context.WithoutCancel(ctx))
	msg.Ack()
}
