package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/db/models"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
)

const msgInvalidShippingMethod = "Select a valid shipping method."

// QuoteInput carries everything needed to price a cart.
type QuoteInput struct {
	Lines            []Line
	ShippingMethodID *uuid.UUID
	DiscountCode     string
	Country          string
	State            string
}

// Quote is a priced cart. DiscountError is set when a code was supplied but
// rejected; the totals then exclude any discount.
type Quote struct {
	Lines          []Line                 `json:"lines"`
	ItemCount      int                    `json:"item_count"`
	Totals         Totals                 `json:"totals"`
	ShippingMethod *models.ShippingMethod `json:"shipping_method,omitempty"`
	Discount       *models.DiscountCode   `json:"-"`
	DiscountCode   string                 `json:"discount_code,omitempty"`
	DiscountError  string                 `json:"discount_error,omitempty"`
}

// Service prices carts against the shipping, tax and discount tables.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) (*Quote, error)
	// QuoteTx prices inside tx and locks the discount code row until tx ends.
	QuoteTx(ctx context.Context, tx *gorm.DB, input QuoteInput) (*Quote, error)
}

type ServiceParams struct {
	Shipping       ShippingMethods
	Tax            TaxRates
	Discounts      DiscountCodes
	DefaultCountry string
	Now            func() time.Time
}

type service struct {
	shipping       ShippingMethods
	tax            TaxRates
	discounts      DiscountCodes
	defaultCountry string
	now            func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Shipping == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if params.Tax == nil {
		return nil, fmt.Errorf("tax repository required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		shipping:       params.Shipping,
		tax:            params.Tax,
		discounts:      params.Discounts,
		defaultCountry: strings.ToUpper(strings.TrimSpace(params.DefaultCountry)),
		now:            now,
	}, nil
}

func (s *service) Quote(ctx context.Context, input QuoteInput) (*Quote, error) {
	return s.quote(ctx, input, func(code string) (*models.DiscountCode, error) {
		return s.discounts.FindByCode(ctx, code)
	})
}

func (s *service) QuoteTx(ctx context.Context, tx *gorm.DB, input QuoteInput) (*Quote, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	return s.quote(ctx, input, func(code string) (*models.DiscountCode, error) {
		return s.discounts.FindByCodeForUpdate(ctx, tx, code)
	})
}

func (s *service) quote(ctx context.Context, input QuoteInput, findCode func(string) (*models.DiscountCode, error)) (*Quote, error) {
	method, err := s.resolveShipping(ctx, input.ShippingMethodID)
	if err != nil {
		return nil, err
	}

	country := strings.TrimSpace(input.Country)
	if country == "" {
		country = s.defaultCountry
	}
	configs, err := s.tax.ListForCountry(ctx, country)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tax rates")
	}
	rate, _ := MatchTaxRate(configs, country, input.State)

	quote := &Quote{
		Lines:          input.Lines,
		ItemCount:      ItemCount(input.Lines),
		ShippingMethod: method,
	}

	code := strings.TrimSpace(input.DiscountCode)
	if code != "" {
		discount, err := findCode(code)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			quote.DiscountError = MsgDiscountInvalid
		case err != nil:
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code")
		default:
			subtotal := roundMoney(Subtotal(input.Lines))
			if verr := ValidateDiscount(discount, subtotal, s.now()); verr != nil {
				quote.DiscountError = DiscountMessage(verr)
			} else {
				quote.Discount = discount
				quote.DiscountCode = discount.Code
			}
		}
	}

	quote.Totals = Compute(input.Lines, method, rate, quote.Discount)
	return quote, nil
}

func (s *service) resolveShipping(ctx context.Context, selected *uuid.UUID) (*models.ShippingMethod, error) {
	if selected != nil && *selected != uuid.Nil {
		method, err := s.shipping.FindByID(ctx, *selected)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Field("shipping_method_id", msgInvalidShippingMethod)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping method")
		}
		if !method.Active {
			return nil, pkgerrors.Field("shipping_method_id", msgInvalidShippingMethod)
		}
		return method, nil
	}

	methods, err := s.shipping.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipping methods")
	}
	return DefaultShippingMethod(methods), nil
}
