package pricing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/db/models"
	"github.com/resinriver/storefront/pkg/enums"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
)

type stubShipping struct {
	methods []models.ShippingMethod
}

func (s stubShipping) ListActive(context.Context) ([]models.ShippingMethod, error) {
	var out []models.ShippingMethod
	for _, m := range s.methods {
		if m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s stubShipping) FindByID(_ context.Context, id uuid.UUID) (*models.ShippingMethod, error) {
	for i := range s.methods {
		if s.methods[i].ID == id {
			return &s.methods[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubTax struct {
	configs []models.TaxConfiguration
	country string
}

func (s *stubTax) ListForCountry(_ context.Context, country string) ([]models.TaxConfiguration, error) {
	s.country = country
	return s.configs, nil
}

type stubDiscounts struct {
	codes       map[string]*models.DiscountCode
	lockedCalls int
}

func (s *stubDiscounts) FindByCode(_ context.Context, code string) (*models.DiscountCode, error) {
	if c, ok := s.codes[strings.ToUpper(code)]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubDiscounts) FindByCodeForUpdate(ctx context.Context, _ *gorm.DB, code string) (*models.DiscountCode, error) {
	s.lockedCalls++
	return s.FindByCode(ctx, code)
}

func newTestService(t *testing.T, now time.Time) (Service, *stubTax, *stubDiscounts, []models.ShippingMethod) {
	t.Helper()
	methods := []models.ShippingMethod{
		{ID: uuid.New(), Name: "Standard", BaseCost: dec("10"), DisplayOrder: 1, Active: true},
		{ID: uuid.New(), Name: "Express", BaseCost: dec("25"), DisplayOrder: 2, Active: true},
		{ID: uuid.New(), Name: "Retired", BaseCost: dec("1"), DisplayOrder: 0, Active: false},
	}
	tax := &stubTax{configs: []models.TaxConfiguration{{Country: "US", Rate: dec("0.08"), Active: true}}}
	expired := now.Add(-time.Hour)
	discounts := &stubDiscounts{codes: map[string]*models.DiscountCode{
		"TENOFF": {
			Code: "TENOFF", Type: enums.DiscountTypePercentage, Value: dec("10"),
			MaximumDiscount: decPtr("5"), ValidFrom: now.Add(-time.Hour), Active: true,
		},
		"OLD": {
			Code: "OLD", Type: enums.DiscountTypeFixed, Value: dec("5"),
			ValidFrom: now.Add(-48 * time.Hour), ValidUntil: &expired, Active: true,
		},
	}}
	svc, err := NewService(ServiceParams{
		Shipping:       stubShipping{methods: methods},
		Tax:            tax,
		Discounts:      discounts,
		DefaultCountry: "us",
		Now:            func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, tax, discounts, methods
}

func TestQuoteAppliesDefaultsAndDiscount(t *testing.T) {
	t.Parallel()

	now := time.Now()
	svc, tax, _, _ := newTestService(t, now)

	quote, err := svc.Quote(context.Background(), QuoteInput{
		Lines:        []Line{{ItemID: uuid.New(), UnitPrice: dec("25"), Quantity: 4}},
		DiscountCode: " tenoff ",
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if tax.country != "US" {
		t.Fatalf("expected default country US, got %q", tax.country)
	}
	if quote.ShippingMethod == nil || quote.ShippingMethod.Name != "Standard" {
		t.Fatalf("expected default Standard shipping, got %+v", quote.ShippingMethod)
	}
	if quote.DiscountError != "" || quote.DiscountCode != "TENOFF" {
		t.Fatalf("expected applied discount, got code=%q err=%q", quote.DiscountCode, quote.DiscountError)
	}
	if !quote.Totals.Total.Equal(dec("113")) {
		t.Fatalf("expected 113 got %s", quote.Totals.Total)
	}
	if quote.ItemCount != 4 {
		t.Fatalf("expected 4 items got %d", quote.ItemCount)
	}
}

func TestQuoteReportsRejectedDiscount(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(t, time.Now())
	lines := []Line{{ItemID: uuid.New(), UnitPrice: dec("10"), Quantity: 1}}

	quote, err := svc.Quote(context.Background(), QuoteInput{Lines: lines, DiscountCode: "OLD"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.DiscountError != MsgDiscountExpired {
		t.Fatalf("expected expiry message, got %q", quote.DiscountError)
	}
	if !quote.Totals.Discount.IsZero() {
		t.Fatalf("rejected code must not discount, got %s", quote.Totals.Discount)
	}

	quote, err = svc.Quote(context.Background(), QuoteInput{Lines: lines, DiscountCode: "NOPE"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.DiscountError != MsgDiscountInvalid {
		t.Fatalf("expected invalid message, got %q", quote.DiscountError)
	}
}

func TestQuoteSelectedShippingMethod(t *testing.T) {
	t.Parallel()

	svc, _, _, methods := newTestService(t, time.Now())
	lines := []Line{{ItemID: uuid.New(), UnitPrice: dec("10"), Quantity: 1}}

	express := methods[1].ID
	quote, err := svc.Quote(context.Background(), QuoteInput{Lines: lines, ShippingMethodID: &express})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !quote.Totals.Shipping.Equal(dec("25")) {
		t.Fatalf("expected express shipping 25 got %s", quote.Totals.Shipping)
	}

	retired := methods[2].ID
	_, err = svc.Quote(context.Background(), QuoteInput{Lines: lines, ShippingMethodID: &retired})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for inactive method, got %v", err)
	}

	unknown := uuid.New()
	_, err = svc.Quote(context.Background(), QuoteInput{Lines: lines, ShippingMethodID: &unknown})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown method, got %v", err)
	}
}

func TestQuoteTxLocksDiscount(t *testing.T) {
	t.Parallel()

	svc, _, discounts, _ := newTestService(t, time.Now())
	lines := []Line{{ItemID: uuid.New(), UnitPrice: dec("10"), Quantity: 1}}

	if _, err := svc.QuoteTx(context.Background(), nil, QuoteInput{Lines: lines}); err == nil {
		t.Fatalf("expected error without transaction")
	}
	if _, err := svc.QuoteTx(context.Background(), &gorm.DB{}, QuoteInput{Lines: lines, DiscountCode: "TENOFF"}); err != nil {
		t.Fatalf("quote tx: %v", err)
	}
	if discounts.lockedCalls != 1 {
		t.Fatalf("expected locked lookup, got %d", discounts.lockedCalls)
	}
}

func TestNewServiceRequiresDeps(t *testing.T) {
	t.Parallel()

	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected missing dependency error")
	}
}
