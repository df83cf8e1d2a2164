package subscription_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbion/subledger/pkg/subscription"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := subscription.NewMemoryStore()

	sub := trialSub(t0)
	require.NoError(t, store.Create(ctx, sub))

	got, err := store.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.TenantID, got.TenantID)

	got.Status = subscription.StatusCancelled
	again, err := store.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusTrial, again.Status, "returned rows are copies")

	byPair, err := store.GetByTenantModule(ctx, sub.TenantID, sub.Module)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, byPair.ID)

	_, err = store.Get(ctx, uuid.New())
	require.ErrorIs(t, err, subscription.ErrNotFound)

	bad := trialSub(t0)
	bad.CurrentPeriodStart = ptr(t0)
	bad.CurrentPeriodEnd = ptr(t0.Add(time.Hour))
	require.ErrorIs(t, store.Create(ctx, bad), subscription.ErrInvariantViolation)
}

func TestMemoryStore_UpdateRejectsInvalidRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := subscription.NewMemoryStore()

	sub := trialSub(t0)
	require.NoError(t, store.Create(ctx, sub))

	_, err := store.Update(ctx, sub.ID, func(s *subscription.Subscription) error {
		s.CurrentPeriodStart = ptr(t0)
		s.CurrentPeriodEnd = ptr(t0.Add(time.Hour))
		return nil
	})
	require.ErrorIs(t, err, subscription.ErrInvariantViolation)

	boom := errors.New("boom")
	_, err = store.Update(ctx, sub.ID, func(s *subscription.Subscription) error {
		s.Status = subscription.StatusCancelled
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusTrial, got.Status)
	assert.Nil(t, got.CurrentPeriodStart)
}

func TestMemoryStore_ListDue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := subscription.NewMemoryStore()
	now := t0.Add(60 * 24 * time.Hour)

	expiredTrial := trialSub(now.Add(-2 * time.Hour))
	runningTrial := trialSub(now.Add(time.Hour))
	dueActive := activeSub(now.Add(-31*24*time.Hour), 30)
	laterActive := activeSub(now.Add(-10*24*time.Hour), 30)
	cancelled := activeSub(now.Add(-40*24*time.Hour), 30)
	cancelled.Apply(subscription.Cancelled{At: now.Add(-time.Hour)})

	for _, s := range []*subscription.Subscription{expiredTrial, runningTrial, dueActive, laterActive, cancelled} {
		require.NoError(t, store.Create(ctx, s))
	}

	due, err := store.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, dueActive.ID, due[0].ID, "ordered by due time")
	assert.Equal(t, expiredTrial.ID, due[1].ID)

	limited, err := store.ListDue(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, dueActive.ID, limited[0].ID)
}

func TestMemoryStore_ClaimSkipsLockedRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := subscription.NewMemoryStore()

	sub := trialSub(t0)
	require.NoError(t, store.Create(ctx, sub))

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.Update(ctx, sub.ID, func(*subscription.Subscription) error {
			close(held)
			<-release
			return subscription.ErrUnchanged
		})
	}()

	<-held
	called := false
	claimed, err := store.Claim(ctx, sub.ID, func(*subscription.Subscription) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.False(t, called)

	due, err := store.ListDue(ctx, t0.Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due, "locked rows are skipped")

	close(release)
	<-done

	claimed, err = store.Claim(ctx, sub.ID, func(s *subscription.Subscription) error {
		s.Apply(subscription.Cancelled{At: t0})
		return nil
	})
	require.NoError(t, err)
	assert.True(t, claimed)

	got, err := store.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCancelled, got.Status)
}

func TestMemoryStore_ConcurrentProvisioning(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := subscription.NewService(subscription.NewMemoryStore())
	tenant := uuid.New()

	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		dupCount int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ProvisionTrial(ctx, tenant, subscription.ModuleInbound, 14)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, subscription.ErrAlreadyExists):
				dupCount++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, dupCount)
}
