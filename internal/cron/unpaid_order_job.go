package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/resinriver/storefront/internal/orders"
	"github.com/resinriver/storefront/pkg/enums"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
	"github.com/resinriver/storefront/pkg/logger"
	"github.com/resinriver/storefront/pkg/metrics"
)

const (
	UnpaidOrderJobName     = "unpaid_order_expiry"
	defaultUnpaidBatchSize = 100
)

type staleOrderFinder interface {
	FindStaleUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type orderCanceller interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*orders.OrderDTO, error)
}

type expiryRecorder interface {
	AddOrdersExpired(n int)
}

// UnpaidOrderJobParams configure the unpaid order expiry job.
type UnpaidOrderJobParams struct {
	Logger    *logger.Logger
	Orders    staleOrderFinder
	Canceller orderCanceller
	Metrics   expiryRecorder
	TTL       time.Duration
	BatchSize int
	Now       func() time.Time
}

type unpaidOrderJob struct {
	logg      *logger.Logger
	orders    staleOrderFinder
	canceller orderCanceller
	metrics   expiryRecorder
	ttl       time.Duration
	batchSize int
	now       func() time.Time
}

// NewUnpaidOrderJob builds the job that cancels pending orders left unpaid
// longer than TTL. Cancelling goes through the orders service so the customer
// receives the usual status email. A zero TTL disables the job.
func NewUnpaidOrderJob(params UnpaidOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Canceller == nil {
		return nil, fmt.Errorf("orders service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultUnpaidBatchSize
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	var m expiryRecorder = params.Metrics
	if m == nil {
		m = (*metrics.HousekeepingMetrics)(nil)
	}
	return &unpaidOrderJob{
		logg:      params.Logger,
		orders:    params.Orders,
		canceller: params.Canceller,
		metrics:   m,
		ttl:       params.TTL,
		batchSize: batch,
		now:       now,
	}, nil
}

func (j *unpaidOrderJob) Name() string { return UnpaidOrderJobName }

func (j *unpaidOrderJob) Run(ctx context.Context) error {
	if j.ttl <= 0 {
		return nil
	}
	cutoff := j.now().UTC().Add(-j.ttl)
	ids, err := j.orders.FindStaleUnpaid(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("find stale unpaid orders: %w", err)
	}

	var errs error
	cancelled := 0
	for _, id := range ids {
		orderCtx := j.logg.WithOrderID(ctx, id.String())
		_, err := j.canceller.UpdateStatus(orderCtx, id, enums.OrderStatusCancelled)
		switch {
		case err == nil:
			cancelled++
		case pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			// paid or moved on since the query ran
			j.logg.Info(orderCtx, "housekeeping.order_skipped")
		default:
			errs = multierr.Append(errs, fmt.Errorf("cancel order %s: %w", id, err))
		}
	}

	j.metrics.AddOrdersExpired(cancelled)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"candidates": len(ids),
		"cancelled":  cancelled,
		"cutoff":     cutoff,
	}), "housekeeping.unpaid_orders_expired")
	return errs
}
