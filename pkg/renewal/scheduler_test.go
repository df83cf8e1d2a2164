package renewal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbion/subledger/pkg/events"
	"github.com/orbion/subledger/pkg/period"
	"github.com/orbion/subledger/pkg/renewal"
	"github.com/orbion/subledger/pkg/subscription"
)

var now = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func ptr(t time.Time) *time.Time { return &t }

func newTrial(endsAt time.Time) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:        uuid.New(),
		TenantID:  uuid.New(),
		Module:    subscription.ModuleInbound,
		StartedAt: endsAt.Add(-14 * day),
	}
	sub.Apply(subscription.Trial{EndsAt: endsAt})
	return sub
}

func newActive(start time.Time, paidAt time.Time) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:        uuid.New(),
		TenantID:  uuid.New(),
		Module:    subscription.ModuleWMS,
		StartedAt: start,
	}
	sub.Apply(subscription.Active{
		Period:        period.Of(start, start, 30),
		LastPaymentAt: ptr(paidAt),
	})
	return sub
}

// faultyStore fails or panics when claiming selected rows and reports others as
// held by a different worker.
type faultyStore struct {
	*subscription.MemoryStore
	fail    map[uuid.UUID]error
	panicOn map[uuid.UUID]bool
	locked  map[uuid.UUID]bool
	listErr error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		MemoryStore: subscription.NewMemoryStore(),
		fail:        map[uuid.UUID]error{},
		panicOn:     map[uuid.UUID]bool{},
		locked:      map[uuid.UUID]bool{},
	}
}

func (s *faultyStore) Claim(ctx context.Context, id uuid.UUID, fn subscription.UpdateFunc) (bool, error) {
	if err, ok := s.fail[id]; ok {
		return true, err
	}
	if s.locked[id] {
		return false, nil
	}
	if s.panicOn[id] {
		return s.MemoryStore.Claim(ctx, id, func(*subscription.Subscription) error {
			panic("corrupt row")
		})
	}
	return s.MemoryStore.Claim(ctx, id, fn)
}

func (s *faultyStore) ListDue(ctx context.Context, at time.Time, limit int) ([]*subscription.Subscription, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.MemoryStore.ListDue(ctx, at, limit)
}

func setup(t *testing.T, rows ...*subscription.Subscription) (*renewal.Scheduler, *faultyStore, *events.Recorder) {
	t.Helper()
	store := newFaultyStore()
	for _, row := range rows {
		require.NoError(t, store.Create(context.Background(), row))
	}
	rec := events.NewRecorder()
	svc := subscription.NewService(store,
		subscription.WithEventSink(rec),
		subscription.WithGracePeriod(3*day),
	)
	return renewal.NewScheduler(svc, renewal.WithEventSink(rec)), store, rec
}

func TestNewScheduler_PanicsWithoutService(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { renewal.NewScheduler(nil) })
}

func TestScheduler_RunBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	expiredTrial := newTrial(now.Add(-time.Hour))
	runningTrial := newTrial(now.Add(time.Hour))
	paid := newActive(now.Add(-30*day), now.Add(-10*day))
	unpaid := newActive(now.Add(-31*day), now.Add(-31*day))
	deferred := newActive(now.Add(-32*day), now.Add(-32*day))
	deferred.CancelAtPeriodEnd = true
	notDue := newActive(now.Add(-5*day), now.Add(-5*day))
	pastDue := newActive(now.Add(-40*day), now.Add(-40*day))
	pastDue.Apply(subscription.PastDue{
		Period:      period.Of(now.Add(-40*day), now.Add(-40*day), 30),
		Since:       now.Add(-10 * day),
		GraceEndsAt: now.Add(-7 * day),
	})
	cancelled := newActive(now.Add(-60*day), now.Add(-60*day))
	cancelled.Apply(subscription.Cancelled{At: now.Add(-20 * day)})

	scheduler, store, rec := setup(t, expiredTrial, runningTrial, paid, unpaid, deferred, notDue, pastDue, cancelled)

	res, err := scheduler.RunBatch(ctx, now, 50)
	require.NoError(t, err)

	assert.Equal(t, 5, res.Checked)
	assert.Equal(t, 1, res.Renewed)
	assert.Equal(t, 2, res.Cancelled)
	assert.Equal(t, 1, res.PastDue)
	assert.Equal(t, 1, res.Suspended)
	assert.Zero(t, res.Errors)
	assert.ElementsMatch(t, []uuid.UUID{expiredTrial.ID, paid.ID, unpaid.ID, deferred.ID, pastDue.ID}, res.SubscriptionIDs)

	got, err := store.Get(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, now, *got.CurrentPeriodStart)
	assert.Equal(t, now.Add(30*day), *got.CurrentPeriodEnd)

	got, err = store.Get(ctx, expiredTrial.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCancelled, got.Status)
	assert.Nil(t, got.NextRenewalAt)

	got, err = store.Get(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPastDue, got.Status)
	assert.Equal(t, now.Add(3*day), *got.NextRenewalAt)

	assert.Len(t, rec.OfType(events.TypeRenewed), 1)
	assert.Len(t, rec.OfType(events.TypeCancelled), 2)
	batches := rec.OfType(events.TypeBatchCompleted)
	require.Len(t, batches, 1)
	assert.Equal(t, 5, batches[0].Stats["checked"])

	again, err := scheduler.RunBatch(ctx, now, 50)
	require.NoError(t, err)
	assert.Zero(t, again.Transitioned(), "a second run at the same instant finds nothing to do")
}

func TestScheduler_BatchIsolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ok1 := newTrial(now.Add(-3 * time.Hour))
	bad := newTrial(now.Add(-2 * time.Hour))
	ok2 := newTrial(now.Add(-1 * time.Hour))

	scheduler, store, rec := setup(t, ok1, bad, ok2)
	store.fail[bad.ID] = errors.New("connection reset")

	res, err := scheduler.RunBatch(ctx, now, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Checked)
	assert.Equal(t, 2, res.Cancelled)
	assert.Equal(t, 1, res.Errors)

	for _, id := range []uuid.UUID{ok1.ID, ok2.ID} {
		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusCancelled, got.Status)
	}
	got, err := store.Get(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusTrial, got.Status)

	failed := rec.OfType(events.TypeRenewalFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, bad.ID, failed[0].SubscriptionID)
	require.Error(t, failed[0].Err)
}

func TestScheduler_RecoversPanickingRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	good := newTrial(now.Add(-2 * time.Hour))
	broken := newTrial(now.Add(-time.Hour))

	scheduler, store, rec := setup(t, good, broken)
	store.panicOn[broken.ID] = true

	res, err := scheduler.RunBatch(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cancelled)
	assert.Equal(t, 1, res.Errors)

	failed := rec.OfType(events.TypeRenewalFailed)
	require.Len(t, failed, 1)
	require.ErrorIs(t, failed[0].Err, renewal.ErrRowPanicked)

	// The row lock was released while unwinding.
	claimed, err := store.MemoryStore.Claim(ctx, broken.ID, func(*subscription.Subscription) error {
		return subscription.ErrUnchanged
	})
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestScheduler_SkipsLockedRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	free := newTrial(now.Add(-2 * time.Hour))
	held := newTrial(now.Add(-time.Hour))

	scheduler, store, _ := setup(t, free, held)
	store.locked[held.ID] = true

	res, err := scheduler.RunBatch(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Checked)
	assert.Equal(t, 1, res.Cancelled)
	assert.Equal(t, 1, res.Locked)
	assert.Zero(t, res.Errors)

	got, err := store.Get(ctx, held.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusTrial, got.Status)
}

func TestScheduler_LimitAndOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	oldest := newTrial(now.Add(-3 * time.Hour))
	middle := newTrial(now.Add(-2 * time.Hour))
	newest := newTrial(now.Add(-1 * time.Hour))

	scheduler, _, _ := setup(t, newest, oldest, middle)

	res, err := scheduler.RunBatch(ctx, now, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Checked)
	assert.Equal(t, []uuid.UUID{oldest.ID, middle.ID}, res.SubscriptionIDs)
}

func TestScheduler_ListFailure(t *testing.T) {
	t.Parallel()

	scheduler, store, _ := setup(t)
	store.listErr = errors.New("db down")

	_, err := scheduler.RunBatch(context.Background(), now, 10)
	require.ErrorIs(t, err, renewal.ErrListDueFailed)
}

func TestRunner_StartRunsUntilCancelled(t *testing.T) {
	t.Parallel()

	trial := newTrial(now.Add(-time.Hour))
	scheduler, store, rec := setup(t, trial)
	runner := renewal.NewRunner(scheduler,
		renewal.WithInterval(10*time.Millisecond),
		renewal.WithClock(func() time.Time { return now }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Start(ctx) }()

	require.Eventually(t, func() bool {
		return len(rec.OfType(events.TypeBatchCompleted)) >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}

	got, err := store.Get(context.Background(), trial.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCancelled, got.Status)
}
