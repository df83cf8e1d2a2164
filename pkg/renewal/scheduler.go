package renewal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/events"
	"github.com/orbion/subledger/pkg/logger"
	"github.com/orbion/subledger/pkg/subscription"
)

// DefaultBatchLimit is used when RunBatch is called with a non-positive limit.
const DefaultBatchLimit = 100

// Scheduler runs renewal batches over a subscription service.
type Scheduler struct {
	subs   *subscription.Service
	store  subscription.Store
	caps   subscription.Capabilities
	sink   events.Sink
	logger *slog.Logger
}

// NewScheduler creates a Scheduler. Store capabilities are read once here.
// Panics if subs is nil.
func NewScheduler(subs *subscription.Service, opts ...SchedulerOption) *Scheduler {
	if subs == nil {
		panic("renewal: subscription service is required")
	}
	s := &Scheduler{
		subs:   subs,
		store:  subs.Store(),
		sink:   events.NopSink{},
		logger: slog.Default(),
	}
	s.caps = s.store.Capabilities()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunBatch processes up to limit subscriptions due at now. Only a failure to
// list due rows is returned as an error; per-row failures are counted in
// Result.Errors.
func (s *Scheduler) RunBatch(ctx context.Context, now time.Time, limit int) (Result, error) {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	var res Result
	due, err := s.store.ListDue(ctx, now, limit)
	if err != nil {
		return res, errors.Join(ErrListDueFailed, err)
	}

	s.logger.InfoContext(ctx, "renewal batch start",
		slog.Time("now", now),
		slog.Int("limit", limit),
		slog.Int("due", len(due)),
		slog.Bool("skip_locked", s.caps.SupportsSkipLocked),
	)

	for _, row := range due {
		res.Checked++

		out, sub, claimed, err := s.processRow(ctx, row.ID, now)
		switch {
		case err != nil:
			res.Errors++
			s.logger.ErrorContext(ctx, "renewal failed",
				logger.SubscriptionID(row.ID),
				logger.TenantID(row.TenantID),
				logger.Module(string(row.Module)),
				logger.Error(err),
			)
			s.sink.Emit(ctx, events.Event{
				Type:           events.TypeRenewalFailed,
				SubscriptionID: row.ID,
				TenantID:       row.TenantID,
				Module:         string(row.Module),
				From:           string(row.Status),
				At:             now,
				Err:            err,
			})
			continue
		case !claimed:
			res.Locked++
			continue
		case !out.Changed():
			res.Skipped++
			continue
		}

		switch out.Kind {
		case subscription.OutcomeRenewed:
			res.Renewed++
		case subscription.OutcomeCancelled:
			res.Cancelled++
		case subscription.OutcomePastDue:
			res.PastDue++
		case subscription.OutcomeSuspended:
			res.Suspended++
		}
		res.SubscriptionIDs = append(res.SubscriptionIDs, row.ID)
		s.subs.EmitOutcome(ctx, sub, out)
	}

	s.logger.InfoContext(ctx, "renewal batch end",
		slog.Int("checked", res.Checked),
		slog.Int("renewed", res.Renewed),
		slog.Int("cancelled", res.Cancelled),
		slog.Int("past_due", res.PastDue),
		slog.Int("suspended", res.Suspended),
		slog.Int("skipped", res.Skipped),
		slog.Int("locked", res.Locked),
		slog.Int("errors", res.Errors),
	)
	s.sink.Emit(ctx, events.Event{
		Type:  events.TypeBatchCompleted,
		At:    now,
		Stats: res.Stats(),
	})

	return res, nil
}

// processRow claims one row and commits its transition in its own unit of work.
func (s *Scheduler) processRow(ctx context.Context, id uuid.UUID, now time.Time) (out subscription.Outcome, sub *subscription.Subscription, claimed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrRowPanicked, r)
		}
	}()

	claimed, err = s.store.Claim(ctx, id, func(row *subscription.Subscription) error {
		out = s.subs.Renew(row, now)
		if !out.Changed() {
			return subscription.ErrUnchanged
		}
		sub = row.Clone()
		return nil
	})
	return out, sub, claimed, err
}
