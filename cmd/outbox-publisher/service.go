package main

import (
	"context"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/pressroomhq/printdesk-backend/pkg/config"
	"github.com/pressroomhq/printdesk-backend/pkg/db/models"
	"github.com/pressroomhq/printdesk-backend/pkg/logger"
	"github.com/pressroomhq/printdesk-backend/pkg/outbox"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 15 * time.Second
)

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	Repository *outbox.Repository
	Publisher  *gcppubsub.Publisher
}

// Service drains outbox_events onto the order change feed. Rows that keep
// failing are retried until their attempt budget runs out, then left for an
// operator to inspect.
type Service struct {
	logg         *logger.Logger
	repo         *outbox.Repository
	publisher    *gcppubsub.Publisher
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) *Service {
	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		logg:         params.Logger,
		repo:         params.Repository,
		publisher:    params.Publisher,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}
}

func (s *Service) Run(ctx context.Context) error {
	if s.publisher == nil {
		return errors.New("orders topic publisher is not configured")
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := s.publishBatch(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			s.logg.Warn(ctx, "outbox batch failed: "+err.Error())
		}
	}
}

func (s *Service) publishBatch(ctx context.Context) error {
	rows, err := s.repo.FetchUnpublished(s.batchSize, s.maxAttempts)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_id":   row.ID.String(),
			"event_type": string(row.EventType),
		})

		if err := s.publishOne(ctx, row); err != nil {
			if markErr := s.repo.MarkFailed(row.ID, err); markErr != nil {
				s.logg.Error(logCtx, "failed to record publish failure", markErr)
			}
			s.logg.Warn(logCtx, "event publish failed: "+err.Error())
			continue
		}

		if err := s.repo.MarkPublished(row.ID); err != nil {
			// The event will be re-sent next poll; consumers must tolerate
			// duplicates.
			s.logg.Error(logCtx, "failed to mark event published", err)
			continue
		}
		s.logg.Info(logCtx, "event published")
	}
	return nil
}

func (s *Service) publishOne(ctx context.Context, row models.OutboxEvent) error {
	pctx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := s.publisher.Publish(pctx, &gcppubsub.Message{
		Data: row.Payload,
		Attributes: map[string]string{
			"eventType":     string(row.EventType),
			"aggregateType": string(row.AggregateType),
			"aggregateId":   row.AggregateID.String(),
		},
	})
	_, err := result.Get(pctx)
	return err
}
