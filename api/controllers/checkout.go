package controllers

import (
	"net/http"

	"github.com/resinriver/storefront/api/responses"
	"github.com/resinriver/storefront/api/validators"
	"github.com/resinriver/storefront/internal/checkout"
	"github.com/resinriver/storefront/internal/pricing"
	"github.com/resinriver/storefront/pkg/logger"
)

type checkoutContextResponse struct {
	Lines           []quoteLineResponse      `json:"lines"`
	ShippingMethods []shippingMethodResponse `json:"shipping_methods"`
	Quote           *quoteResponse           `json:"quote"`
	Addresses       []addressResponse        `json:"addresses"`
	DefaultCountry  string                   `json:"default_country"`
	GuestCheckout   bool                     `json:"guest_checkout"`
}

func toCheckoutContextResponse(fc *checkout.FormContext) checkoutContextResponse {
	methods := make([]shippingMethodResponse, 0, len(fc.ShippingMethods))
	for _, m := range fc.ShippingMethods {
		methods = append(methods, toShippingMethodResponse(m))
	}
	return checkoutContextResponse{
		Lines:           toQuoteLines(fc.Lines),
		ShippingMethods: methods,
		Quote:           toQuoteResponse(fc.Quote),
		Addresses:       toAddressResponses(fc.Addresses),
		DefaultCountry:  fc.DefaultCountry,
		GuestCheckout:   fc.GuestCheckout,
	}
}

func toQuoteLines(lines []pricing.Line) []quoteLineResponse {
	out := make([]quoteLineResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, quoteLineResponse{Line: line, LineTotal: line.Subtotal()})
	}
	return out
}

// CheckoutContext returns the lines, shipping methods, saved addresses and a
// default quote for the checkout page.
func CheckoutContext(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("checkout"))
			return
		}
		fc, err := svc.Context(ctx, cartOwner(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCheckoutContextResponse(fc))
	}
}

// CheckoutQuote recalculates totals for a shipping method, discount code and
// destination without placing the order.
func CheckoutQuote(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("checkout"))
			return
		}
		var body checkout.QuoteRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		quote, err := svc.Quote(ctx, cartOwner(r), body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toQuoteResponse(quote))
	}
}

func CheckoutPlaceOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("checkout"))
			return
		}
		var body checkout.Input
		if err := validators.DecodeJSON(w, r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.PlaceOrder(ctx, cartOwner(r), body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteCreated(w, order)
	}
}
