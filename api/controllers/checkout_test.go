package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resinriver/storefront/internal/cart"
	"github.com/resinriver/storefront/internal/checkout"
	"github.com/resinriver/storefront/internal/orders"
	"github.com/resinriver/storefront/internal/pricing"
	"github.com/resinriver/storefront/pkg/db/models"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
)

type stubCheckout struct {
	owner cart.Owner
	quote checkout.QuoteRequest
	input checkout.Input
	err   error
}

func (s *stubCheckout) Context(_ context.Context, owner cart.Owner) (*checkout.FormContext, error) {
	s.owner = owner
	line := pricing.Line{ItemID: uuid.New(), Name: "Coaster", UnitPrice: decimal.RequireFromString("12.50"), Quantity: 2}
	return &checkout.FormContext{
		Lines:           []pricing.Line{line},
		ShippingMethods: []models.ShippingMethod{{Name: "Standard", BaseCost: decimal.RequireFromString("5")}},
		Quote:           &pricing.Quote{Lines: []pricing.Line{line}, ItemCount: 2},
		DefaultCountry:  "US",
		GuestCheckout:   true,
	}, nil
}

func (s *stubCheckout) Quote(_ context.Context, owner cart.Owner, req checkout.QuoteRequest) (*pricing.Quote, error) {
	s.owner = owner
	s.quote = req
	return &pricing.Quote{DiscountCode: req.DiscountCode}, nil
}

func (s *stubCheckout) PlaceOrder(_ context.Context, owner cart.Owner, input checkout.Input) (*orders.OrderDTO, error) {
	s.owner = owner
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &orders.OrderDTO{OrderNumber: 7, Email: input.Email}, nil
}

func TestCheckoutContextMapsModels(t *testing.T) {
	svc := &stubCheckout{}
	rec := serve(CheckoutContext(svc, nil), asGuest(newRequest(t, http.MethodGet, "/api/v1/checkout", nil), "tok"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cart.GuestOwner("tok"), svc.owner)
	var body checkoutContextResponse
	decode(t, rec, &body)
	require.Len(t, body.Lines, 1)
	assert.Equal(t, "25", body.Lines[0].LineTotal.String())
	require.Len(t, body.ShippingMethods, 1)
	assert.Equal(t, "Standard", body.ShippingMethods[0].Name)
	assert.Equal(t, "US", body.DefaultCountry)
	require.NotNil(t, body.Quote)
	assert.Equal(t, 2, body.Quote.ItemCount)
}

func TestCheckoutQuotePassesRequest(t *testing.T) {
	svc := &stubCheckout{}
	req := asGuest(newRequest(t, http.MethodPost, "/api/v1/checkout/quote", map[string]string{
		"discount_code": "SAVE10",
		"country":       "US",
		"state":         "TX",
	}), "tok")

	rec := serve(CheckoutQuote(svc, nil), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SAVE10", svc.quote.DiscountCode)
	assert.Equal(t, "TX", svc.quote.State)
}

func TestCheckoutPlaceOrderCreated(t *testing.T) {
	svc := &stubCheckout{}
	req := asGuest(newRequest(t, http.MethodPost, "/api/v1/checkout", map[string]any{
		"email":         "dana@example.com",
		"full_name":     "Dana River",
		"address_line1": "1 Creek Rd",
		"city":          "Austin",
		"postal_code":   "73301",
	}), "tok")

	rec := serve(CheckoutPlaceOrder(svc, nil), req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "dana@example.com", svc.input.Email)
	assert.Equal(t, "Dana River", svc.input.FullName)
	assert.Empty(t, svc.input.Country)
	assert.True(t, svc.input.SameAsShipping())
	var order orders.OrderDTO
	decode(t, rec, &order)
	assert.Equal(t, int64(7), order.OrderNumber)
}

func TestCheckoutPlaceOrderSurfacesFieldErrors(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeValidation, "checkout form is invalid").
		WithDetails(map[string]string{"email": "This field is required."})}

	rec := serve(CheckoutPlaceOrder(svc, nil), asGuest(newRequest(t, http.MethodPost, "/api/v1/checkout", map[string]any{}), "tok"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "This field is required.", env.Error.Details["email"])
}
