package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outbox event statuses
const (
	OutboxStatusPending   = "pending"
	OutboxStatusProcessed = "processed"
)

// OutboxEvent is a durable notification row written in the same transaction
// as the state change it announces. A worker delivers pending events with
// at-least-once semantics, so consumers must tolerate duplicates.
type OutboxEvent struct {
	ID          uuid.UUID       `json:"id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	LastError   sql.NullString  `json:"-"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt sql.NullTime    `json:"-"`
}

// OutboxRepository defines the interface for outbox event access
type OutboxRepository interface {
	Enqueue(ctx context.Context, eventType string, payload any) error
	FetchPending(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	RecordFailure(ctx context.Context, id uuid.UUID, cause string) error
}

type outboxRepository struct {
	db DBTX
}

// NewOutboxRepository creates a new instance of OutboxRepository
func NewOutboxRepository(db DBTX) OutboxRepository {
	return &outboxRepository{db: db}
}

// Enqueue serializes the payload and inserts a pending event. Called inside
// the transaction that produced the event, so the notification is exactly as
// durable as the state change itself.
func (r *outboxRepository) Enqueue(ctx context.Context, eventType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
	`

	_, err = r.db.ExecContext(ctx, query, uuid.New(), eventType, body, OutboxStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox event: %w", err)
	}

	return nil
}

// FetchPending retrieves up to limit undelivered events, oldest first
func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `
		SELECT id, event_type, payload, status, attempts, last_error, created_at, processed_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, OutboxStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending outbox events: %w", err)
	}
	defer rows.Close()

	events := []*OutboxEvent{}
	for rows.Next() {
		event := &OutboxEvent{}
		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.Payload,
			&event.Status,
			&event.Attempts,
			&event.LastError,
			&event.CreatedAt,
			&event.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox events: %w", err)
	}

	return events, nil
}

// MarkProcessed records successful delivery of an event
func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = $2, processed_at = $3
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, OutboxStatusProcessed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark outbox event processed: %w", err)
	}

	return nil
}

// RecordFailure notes a delivery failure, leaving the event pending so the
// next poll retries it.
func (r *outboxRepository) RecordFailure(ctx context.Context, id uuid.UUID, cause string) error {
	query := `
		UPDATE outbox_events
		SET attempts = attempts + 1, last_error = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, cause)
	if err != nil {
		return fmt.Errorf("failed to record outbox failure: %w", err)
	}

	return nil
}
