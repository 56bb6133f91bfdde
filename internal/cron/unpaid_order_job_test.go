package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resinriver/storefront/internal/orders"
	"github.com/resinriver/storefront/pkg/enums"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
)

type fakeFinder struct {
	ids    []uuid.UUID
	cutoff time.Time
	limit  int
	calls  int
}

func (f *fakeFinder) FindStaleUnpaid(_ context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	f.calls++
	f.cutoff = cutoff
	f.limit = limit
	return f.ids, nil
}

type fakeCanceller struct {
	results map[uuid.UUID]error
	calls   []enums.OrderStatus
}

func (f *fakeCanceller) UpdateStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus) (*orders.OrderDTO, error) {
	f.calls = append(f.calls, status)
	if err := f.results[id]; err != nil {
		return nil, err
	}
	return &orders.OrderDTO{ID: id, Status: status}, nil
}

type fakeExpiryRecorder struct{ total int }

func (f *fakeExpiryRecorder) AddOrdersExpired(n int) { f.total += n }

func TestUnpaidOrderJobCancelsStaleOrders(t *testing.T) {
	paidMeanwhile := uuid.New()
	broken := uuid.New()
	finder := &fakeFinder{ids: []uuid.UUID{uuid.New(), paidMeanwhile, broken, uuid.New()}}
	canceller := &fakeCanceller{results: map[uuid.UUID]error{
		paidMeanwhile: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move order"),
		broken:        errors.New("db down"),
	}}
	recorder := &fakeExpiryRecorder{}
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	job, err := NewUnpaidOrderJob(UnpaidOrderJobParams{
		Logger:    testLogger(),
		Orders:    finder,
		Canceller: canceller,
		Metrics:   recorder,
		TTL:       72 * time.Hour,
		Now:       func() time.Time { return now },
	})
	require.NoError(t, err)
	assert.Equal(t, UnpaidOrderJobName, job.Name())

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), broken.String())
	assert.Equal(t, now.Add(-72*time.Hour), finder.cutoff)
	assert.Equal(t, defaultUnpaidBatchSize, finder.limit)
	assert.Len(t, canceller.calls, 4)
	for _, status := range canceller.calls {
		assert.Equal(t, enums.OrderStatusCancelled, status)
	}
	assert.Equal(t, 2, recorder.total)
}

func TestUnpaidOrderJobDisabledWithoutTTL(t *testing.T) {
	finder := &fakeFinder{ids: []uuid.UUID{uuid.New()}}
	job, err := NewUnpaidOrderJob(UnpaidOrderJobParams{
		Logger:    testLogger(),
		Orders:    finder,
		Canceller: &fakeCanceller{},
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))
	assert.Zero(t, finder.calls)
}
