package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/internal/cart"
	"github.com/resinriver/storefront/internal/orders"
	"github.com/resinriver/storefront/internal/pricing"
	"github.com/resinriver/storefront/pkg/db"
	"github.com/resinriver/storefront/pkg/db/models"
	"github.com/resinriver/storefront/pkg/enums"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
	"github.com/resinriver/storefront/pkg/logger"
	"github.com/resinriver/storefront/pkg/metrics"
)

const (
	orderNumberConstraint = "order_number"
	maxPlaceAttempts      = 3

	msgCartEmpty = "Your cart is empty."
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Carts is the slice of the cart service checkout needs.
type Carts interface {
	Lines(ctx context.Context, owner cart.Owner) ([]pricing.Line, error)
	LinesTx(ctx context.Context, tx *gorm.DB, owner cart.Owner) ([]pricing.Line, error)
	ClearTx(ctx context.Context, tx *gorm.DB, owner cart.Owner) error
	Clear(ctx context.Context, owner cart.Owner) error
}

// Redeemer bumps a discount code's usage inside the checkout transaction.
type Redeemer interface {
	IncrementUsage(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

// ShippingMethods lists the methods offered on the checkout form.
type ShippingMethods interface {
	ListActive(ctx context.Context) ([]models.ShippingMethod, error)
}

// AddressBook lists a user's saved addresses for prefill.
type AddressBook interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
}

// Confirmer sends the order confirmation email.
type Confirmer interface {
	OrderConfirmation(ctx context.Context, order *models.Order) bool
}

type checkoutMetrics interface {
	ObserveCheckout(outcome string, duration time.Duration)
	IncDiscountRedeemed()
}

// QuoteRequest previews totals for the current cart.
type QuoteRequest struct {
	ShippingMethodID *uuid.UUID `json:"shipping_method_id"`
	DiscountCode     string     `json:"discount_code"`
	Country          string     `json:"country"`
	State            string     `json:"state"`
}

// FormContext is everything the checkout page renders before submission.
type FormContext struct {
	Lines           []pricing.Line          `json:"lines"`
	ShippingMethods []models.ShippingMethod `json:"shipping_methods"`
	Quote           *pricing.Quote          `json:"quote"`
	Addresses       []models.Address        `json:"addresses"`
	DefaultCountry  string                  `json:"default_country"`
	GuestCheckout   bool                    `json:"guest_checkout"`
}

// Service turns carts into orders.
type Service interface {
	Context(ctx context.Context, owner cart.Owner) (*FormContext, error)
	Quote(ctx context.Context, owner cart.Owner, req QuoteRequest) (*pricing.Quote, error)
	PlaceOrder(ctx context.Context, owner cart.Owner, input Input) (*orders.OrderDTO, error)
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Tx             txRunner
	Carts          Carts
	Pricing        pricing.Service
	Orders         orders.Repository
	Discounts      Redeemer
	Shipping       ShippingMethods
	Addresses      AddressBook
	Confirmer      Confirmer
	Metrics        checkoutMetrics
	Logger         *logger.Logger
	DefaultCountry string
	GuestCheckout  bool
}

type service struct {
	tx             txRunner
	carts          Carts
	pricing        pricing.Service
	orders         orders.Repository
	discounts      Redeemer
	shipping       ShippingMethods
	addresses      AddressBook
	confirmer      Confirmer
	metrics        checkoutMetrics
	logg           *logger.Logger
	defaultCountry string
	guestCheckout  bool
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if params.Shipping == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if params.Confirmer == nil {
		return nil, fmt.Errorf("confirmation notifier required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	var m checkoutMetrics = params.Metrics
	if m == nil {
		m = (*metrics.StoreMetrics)(nil)
	}
	return &service{
		tx:             params.Tx,
		carts:          params.Carts,
		pricing:        params.Pricing,
		orders:         params.Orders,
		discounts:      params.Discounts,
		shipping:       params.Shipping,
		addresses:      params.Addresses,
		confirmer:      params.Confirmer,
		metrics:        m,
		logg:           logg,
		defaultCountry: strings.ToUpper(strings.TrimSpace(params.DefaultCountry)),
		guestCheckout:  params.GuestCheckout,
	}, nil
}

func (s *service) Context(ctx context.Context, owner cart.Owner) (*FormContext, error) {
	if err := s.authorize(owner); err != nil {
		return nil, err
	}
	quote, err := s.Quote(ctx, owner, QuoteRequest{})
	if err != nil {
		return nil, err
	}
	methods, err := s.shipping.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping methods")
	}

	form := &FormContext{
		Lines:           quote.Lines,
		ShippingMethods: methods,
		Quote:           quote,
		Addresses:       []models.Address{},
		DefaultCountry:  s.defaultCountry,
		GuestCheckout:   s.guestCheckout,
	}
	if owner.IsUser() && s.addresses != nil {
		saved, err := s.addresses.ListByUser(ctx, *owner.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load saved addresses")
		}
		form.Addresses = saved
	}
	return form, nil
}

func (s *service) Quote(ctx context.Context, owner cart.Owner, req QuoteRequest) (*pricing.Quote, error) {
	lines := []pricing.Line{}
	if owner.IsUser() || owner.Token != "" {
		found, err := s.carts.Lines(ctx, owner)
		if err != nil {
			return nil, err
		}
		lines = found
	}
	country := strings.ToUpper(strings.TrimSpace(req.Country))
	if country == "" {
		country = s.defaultCountry
	}
	return s.pricing.Quote(ctx, pricing.QuoteInput{
		Lines:            lines,
		ShippingMethodID: req.ShippingMethodID,
		DiscountCode:     req.DiscountCode,
		Country:          country,
		State:            strings.TrimSpace(req.State),
	})
}

// PlaceOrder validates the form, then in one transaction re-prices the cart,
// locks the discount code, writes the order with its lines, redeems the code
// and empties a persisted cart. Session carts and the confirmation email are
// handled once the transaction has committed.
func (s *service) PlaceOrder(ctx context.Context, owner cart.Owner, input Input) (*orders.OrderDTO, error) {
	started := time.Now()
	order, err := s.placeOrder(ctx, owner, input)
	if err != nil {
		s.metrics.ObserveCheckout(outcomeFor(err), time.Since(started))
		return nil, err
	}
	s.metrics.ObserveCheckout(metrics.OutcomeSuccess, time.Since(started))
	if order.DiscountCodeID != nil {
		s.metrics.IncDiscountRedeemed()
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	if !owner.IsUser() {
		if err := s.carts.Clear(ctx, owner); err != nil {
			s.logg.Error(ctx, "checkout.clear_session_cart_failed", err)
		}
	}

	stored, err := s.orders.FindByID(ctx, order.ID)
	if err != nil {
		s.logg.Error(ctx, "checkout.reload_order_failed", err)
		stored = order
	}
	s.confirmer.OrderConfirmation(ctx, stored)
	s.logg.Info(ctx, "checkout.order_placed")

	dto := orders.ToOrderDTO(stored)
	return &dto, nil
}

func (s *service) placeOrder(ctx context.Context, owner cart.Owner, input Input) (*models.Order, error) {
	if err := s.authorize(owner); err != nil {
		return nil, err
	}
	if !owner.IsUser() && owner.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgCartEmpty)
	}
	form := input.normalize(s.defaultCountry)
	if err := form.validate(); err != nil {
		return nil, err
	}

	var (
		order *models.Order
		err   error
	)
	for attempt := 1; attempt <= maxPlaceAttempts; attempt++ {
		order, err = s.materialize(ctx, owner, form)
		if err == nil || !db.IsUniqueViolation(err, orderNumberConstraint) {
			break
		}
		s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "checkout.order_number_collision")
	}
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "place order")
	}
	return order, nil
}

func (s *service) materialize(ctx context.Context, owner cart.Owner, form checkoutForm) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		lines, err := s.carts.LinesTx(ctx, tx, owner)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, msgCartEmpty)
		}

		quote, err := s.pricing.QuoteTx(ctx, tx, pricing.QuoteInput{
			Lines:            lines,
			ShippingMethodID: form.ShippingMethodID,
			DiscountCode:     form.DiscountCode,
			Country:          form.Shipping.Country,
			State:            form.Shipping.State,
		})
		if err != nil {
			return err
		}
		if quote.DiscountError != "" {
			return pkgerrors.Field("discount_code", quote.DiscountError)
		}

		repo := s.orders.WithTx(tx)
		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocate order number")
		}

		order = buildOrder(number, owner, form, quote)
		if err := repo.Create(ctx, order); err != nil {
			return err
		}
		if quote.Discount != nil {
			if err := s.discounts.IncrementUsage(ctx, tx, quote.Discount.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeem discount code")
			}
		}
		return s.carts.ClearTx(ctx, tx, owner)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) authorize(owner cart.Owner) error {
	if owner.IsUser() {
		return nil
	}
	if !s.guestCheckout {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to check out")
	}
	return nil
}

func buildOrder(number int64, owner cart.Owner, form checkoutForm, quote *pricing.Quote) *models.Order {
	order := &models.Order{
		OrderNumber:           number,
		UserID:                owner.UserID,
		FullName:              form.Shipping.FullName,
		Email:                 form.Email,
		Phone:                 form.Phone,
		AddressLine1:          form.Shipping.AddressLine1,
		AddressLine2:          form.Shipping.AddressLine2,
		City:                  form.Shipping.City,
		State:                 form.Shipping.State,
		PostalCode:            form.Shipping.PostalCode,
		Country:               form.Shipping.Country,
		BillingSameAsShipping: form.BillingSameAsShipping,
		BillingFullName:       form.Billing.FullName,
		BillingAddressLine1:   form.Billing.AddressLine1,
		BillingAddressLine2:   form.Billing.AddressLine2,
		BillingCity:           form.Billing.City,
		BillingState:          form.Billing.State,
		BillingPostalCode:     form.Billing.PostalCode,
		BillingCountry:        form.Billing.Country,
		Subtotal:              quote.Totals.Subtotal,
		ShippingCost:          quote.Totals.Shipping,
		TaxAmount:             quote.Totals.Tax,
		DiscountAmount:        quote.Totals.Discount,
		Total:                 quote.Totals.Total,
		Status:                enums.OrderStatusPending,
		PaymentStatus:         enums.PaymentStatusUnpaid,
		Notes:                 form.Notes,
	}
	if !owner.IsUser() {
		order.GuestEmail = form.Email
	}
	if quote.ShippingMethod != nil {
		id := quote.ShippingMethod.ID
		order.ShippingMethodID = &id
		order.ShippingMethodName = quote.ShippingMethod.Name
	}
	if quote.Discount != nil {
		id := quote.Discount.ID
		order.DiscountCodeID = &id
		order.DiscountCode = quote.Discount.Code
	}

	order.Items = make([]models.OrderItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		itemID := line.ItemID
		order.Items = append(order.Items, models.OrderItem{
			ItemID:       &itemID,
			Name:         line.Name,
			UnitPrice:    line.UnitPrice,
			Quantity:     line.Quantity,
			LineSubtotal: line.Subtotal(),
		})
	}
	return order
}

func outcomeFor(err error) string {
	if appErr := pkgerrors.As(err); appErr != nil {
		switch appErr.Code() {
		case pkgerrors.CodeValidation, pkgerrors.CodeUnauthorized, pkgerrors.CodeNotFound:
			return metrics.OutcomeRejected
		}
	}
	return metrics.OutcomeFailure
}
