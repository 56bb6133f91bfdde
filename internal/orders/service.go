package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/db/models"
	"github.com/resinriver/storefront/pkg/enums"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
	"github.com/resinriver/storefront/pkg/logger"
	"github.com/resinriver/storefront/pkg/metrics"
	"github.com/resinriver/storefront/pkg/pagination"
)

const (
	paymentTokenField = "payment_token"
	declinedToken     = "fail"
	declinedPrefix    = "fail_"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier sends order emails after state changes commit.
type Notifier interface {
	StatusUpdate(ctx context.Context, order *models.Order, previous enums.OrderStatus) bool
	PaymentConfirmation(ctx context.Context, order *models.Order) bool
}

type orderMetrics interface {
	IncStatusChange(status string)
	IncPayment(outcome string)
}

// Access describes who is asking for an order. Staff see every order, users
// see their own, and guests present the email used at checkout.
type Access struct {
	UserID     *uuid.UUID
	Staff      bool
	GuestEmail string
}

func (a Access) canView(order *models.Order) bool {
	if a.Staff {
		return true
	}
	if order.UserID != nil {
		return a.UserID != nil && *a.UserID == *order.UserID
	}
	guest := strings.TrimSpace(a.GuestEmail)
	return guest != "" && strings.EqualFold(guest, order.GuestEmail)
}

// Service exposes order history and lifecycle operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	Detail(ctx context.Context, access Access, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	ConfirmPayment(ctx context.Context, access Access, orderID uuid.UUID, token string) (*PaymentResult, error)
}

// ServiceParams wires the orders service.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Notifier Notifier
	Metrics  orderMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier Notifier
	metrics  orderMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the orders service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	var m orderMetrics = params.Metrics
	if m == nil {
		m = (*metrics.StoreMetrics)(nil)
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		notifier: params.Notifier,
		metrics:  m,
		logg:     logg,
		now:      now,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		if errors.Is(err, ErrInvalidCursor) {
			return nil, pkgerrors.Field("cursor", "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return list, nil
}

func (s *service) Detail(ctx context.Context, access Access, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if !access.canView(order) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := ToOrderDTO(order)
	return &dto, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Field("status", "Select a valid order status.")
	}

	var previous enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		previous = order.Status
		if !order.Status.CanTransitionTo(status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, status))
		}

		var payment *enums.PaymentStatus
		if status == enums.OrderStatusRefunded && order.PaymentStatus == enums.PaymentStatusPaid {
			refunded := enums.PaymentStatusRefunded
			payment = &refunded
		}
		if err := repo.UpdateStatus(ctx, orderID, status, payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	s.metrics.IncStatusChange(string(status))
	s.notifier.StatusUpdate(s.logg.WithOrderID(ctx, orderID.String()), order, previous)

	dto := ToOrderDTO(order)
	return &dto, nil
}

// ConfirmPayment settles an order through the mock gateway. The token "fail"
// (or any token starting with "fail_") is declined; everything else pays.
func (s *service) ConfirmPayment(ctx context.Context, access Access, orderID uuid.UUID, token string) (*PaymentResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.Field(paymentTokenField, "Payment token is required.")
	}
	declined := token == declinedToken || strings.HasPrefix(token, declinedPrefix)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return mapLoadError(err)
		}
		if !access.canView(order) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
		}
		if order.Status == enums.OrderStatusCancelled || order.Status == enums.OrderStatusRefunded {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be paid")
		}

		if declined {
			return repo.UpdatePayment(ctx, orderID, map[string]any{
				"payment_status": string(enums.PaymentStatusFailed),
			})
		}

		updates := map[string]any{
			"payment_status":    string(enums.PaymentStatusPaid),
			"payment_reference": "mock_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
			"paid_at":           s.now().UTC(),
		}
		if order.Status == enums.OrderStatusPending {
			updates["status"] = string(enums.OrderStatusProcessing)
		}
		return repo.UpdatePayment(ctx, orderID, updates)
	})
	if err != nil {
		if _, ok := err.(*pkgerrors.Error); !ok {
			err = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "confirm payment")
		}
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}

	result := &PaymentResult{Order: ToOrderDTO(order)}
	if declined {
		s.metrics.IncPayment(metrics.OutcomeRejected)
		result.Message = "Payment was declined. Please try another payment method."
		return result, nil
	}

	s.metrics.IncPayment(metrics.OutcomeSuccess)
	result.Paid = true
	result.Message = "Payment received. Thank you for your order!"
	s.notifier.PaymentConfirmation(s.logg.WithOrderID(ctx, orderID.String()), order)
	return result, nil
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if _, ok := err.(*pkgerrors.Error); ok {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
}
