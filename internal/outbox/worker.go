package outbox

import (
	"context"
	"encoding/json"
	"time"

	"stockledger/internal/repository"

	"go.uber.org/zap"
)

// Handler consumes one delivered event. Delivery is at-least-once: a handler
// may see the same event twice and must tolerate it.
type Handler func(ctx context.Context, event *repository.OutboxEvent) error

// Worker polls the outbox table and delivers pending events to registered
// handlers. Events are written in the same transaction as the state change
// they announce, so a crash between commit and delivery only delays the
// notification, never loses it.
type Worker struct {
	repo     repository.OutboxRepository
	handlers map[string][]Handler
	interval time.Duration
	batch    int
	logger   *zap.Logger
}

// NewWorker creates a worker polling at the given interval, delivering at
// most batch events per poll.
func NewWorker(repo repository.OutboxRepository, interval time.Duration, batch int, logger *zap.Logger) *Worker {
	return &Worker{
		repo:     repo,
		handlers: make(map[string][]Handler),
		interval: interval,
		batch:    batch,
		logger:   logger,
	}
}

// Subscribe registers a handler for an event type. Call before Run.
func (w *Worker) Subscribe(eventType string, handler Handler) {
	w.handlers[eventType] = append(w.handlers[eventType], handler)
}

// Run polls until the context is cancelled. Blocking; run in a goroutine.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Outbox worker started",
		zap.Duration("interval", w.interval),
		zap.Int("batch", w.batch),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Outbox worker stopping")
			return
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.Error("Outbox poll failed", zap.Error(err))
			}
		}
	}
}

// Drain delivers one batch of pending events. Exposed for tests and for a
// final sweep during shutdown.
func (w *Worker) Drain(ctx context.Context) error {
	events, err := w.repo.FetchPending(ctx, w.batch)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := w.dispatch(ctx, event); err != nil {
			// Leave the event pending; the next poll retries it. Failures
			// are recorded, never swallowed.
			w.logger.Error("Event delivery failed",
				zap.String("event_id", event.ID.String()),
				zap.String("event_type", event.EventType),
				zap.Int("attempts", event.Attempts+1),
				zap.Error(err),
			)
			if recErr := w.repo.RecordFailure(ctx, event.ID, err.Error()); recErr != nil {
				w.logger.Error("Failed to record delivery failure", zap.Error(recErr))
			}
			continue
		}

		if err := w.repo.MarkProcessed(ctx, event.ID); err != nil {
			w.logger.Error("Failed to mark event processed",
				zap.String("event_id", event.ID.String()),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (w *Worker) dispatch(ctx context.Context, event *repository.OutboxEvent) error {
	handlers := w.handlers[event.EventType]
	if len(handlers) == 0 {
		w.logger.Warn("No handler for event type, dropping",
			zap.String("event_type", event.EventType),
		)
		return nil
	}

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}

	return nil
}

// DecodePayload unmarshals an event payload into v.
func DecodePayload(event *repository.OutboxEvent, v any) error {
	return json.Unmarshal(event.Payload, v)
}
