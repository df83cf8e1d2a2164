package pgstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/events"
)

// EventSink appends events to subscription_events. Emit cannot fail the caller,
// so write errors are logged and dropped.
type EventSink struct {
	db     DB
	logger *slog.Logger
}

var _ events.Sink = (*EventSink)(nil)

func NewEventSink(db DB, logger *slog.Logger) *EventSink {
	if db == nil {
		panic("pgstore: db is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EventSink{db: db, logger: logger}
}

func (s *EventSink) Emit(ctx context.Context, e events.Event) {
	var errText *string
	if e.Err != nil {
		msg := e.Err.Error()
		errText = &msg
	}
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO subscription_events
			(type, subscription_id, tenant_id, module, from_status, to_status, error, stats, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(e.Type), nullUUID(e.SubscriptionID), nullUUID(e.TenantID),
		nullString(e.Module), nullString(e.From), nullString(e.To), errText, e.Stats, at,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store subscription event",
			slog.String("event", string(e.Type)),
			slog.String("error", err.Error()),
		)
	}
}

// Recorded is a stored event as read back from the table.
type Recorded struct {
	ID         int64
	Type       events.Type
	From, To   string
	Error      string
	OccurredAt time.Time
}

// History returns the stored events of one subscription, oldest first.
func (s *EventSink) History(ctx context.Context, subscriptionID uuid.UUID) ([]Recorded, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, type, COALESCE(from_status, ''), COALESCE(to_status, ''), COALESCE(error, ''), occurred_at
		FROM subscription_events WHERE subscription_id = $1 ORDER BY id`, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Recorded
	for rows.Next() {
		var (
			r   Recorded
			typ string
		)
		if err := rows.Scan(&r.ID, &typ, &r.From, &r.To, &r.Error, &r.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		r.Type = events.Type(typ)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return out, nil
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
