package pricing

import (
	"testing"
	"time"

	"github.com/resinriver/storefront/pkg/db/models"
	"github.com/resinriver/storefront/pkg/enums"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
)

func validCode(now time.Time) *models.DiscountCode {
	until := now.Add(24 * time.Hour)
	limit := 10
	return &models.DiscountCode{
		Code:              "SPRING",
		Type:              enums.DiscountTypePercentage,
		Value:             dec("10"),
		MinimumOrderTotal: dec("20"),
		UsageLimit:        &limit,
		ValidFrom:         now.Add(-24 * time.Hour),
		ValidUntil:        &until,
		Active:            true,
	}
}

func TestValidateDiscountChecksInOrder(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		mutate func(*models.DiscountCode)
		total  string
		want   string
	}{
		{name: "valid", mutate: func(*models.DiscountCode) {}, total: "50"},
		{
			name: "inactive wins over expiry",
			mutate: func(c *models.DiscountCode) {
				c.Active = false
				past := now.Add(-time.Hour)
				c.ValidUntil = &past
			},
			total: "50",
			want:  MsgDiscountInactive,
		},
		{
			name:   "not yet valid",
			mutate: func(c *models.DiscountCode) { c.ValidFrom = now.Add(time.Hour) },
			total:  "50",
			want:   MsgDiscountNotYet,
		},
		{
			name: "expired wins over usage limit",
			mutate: func(c *models.DiscountCode) {
				past := now.Add(-time.Minute)
				c.ValidUntil = &past
				c.UsageCount = 10
			},
			total: "50",
			want:  MsgDiscountExpired,
		},
		{
			name:   "usage limit reached",
			mutate: func(c *models.DiscountCode) { c.UsageCount = 10 },
			total:  "5",
			want:   MsgDiscountExhausted,
		},
		{
			name:   "below minimum",
			mutate: func(*models.DiscountCode) {},
			total:  "19.99",
			want:   "Order total must be at least $20.00 to use this code.",
		},
		{
			name:   "open ended window",
			mutate: func(c *models.DiscountCode) { c.ValidUntil = nil; c.UsageLimit = nil },
			total:  "20",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			code := validCode(now)
			tc.mutate(code)
			err := ValidateDiscount(code, dec(tc.total), now)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("expected valid code, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %q", tc.want)
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := DiscountMessage(err); got != tc.want {
				t.Fatalf("expected %q got %q", tc.want, got)
			}
		})
	}
}

func TestValidateDiscountNil(t *testing.T) {
	t.Parallel()

	if got := DiscountMessage(ValidateDiscount(nil, dec("10"), time.Now())); got != MsgDiscountInvalid {
		t.Fatalf("expected invalid message, got %q", got)
	}
}

func TestDiscountAmount(t *testing.T) {
	t.Parallel()

	percent := &models.DiscountCode{Type: enums.DiscountTypePercentage, Value: dec("15")}
	if got := DiscountAmount(percent, dec("80")); !got.Equal(dec("12")) {
		t.Fatalf("expected 12 got %s", got)
	}
	percent.MaximumDiscount = decPtr("10")
	if got := DiscountAmount(percent, dec("80")); !got.Equal(dec("10")) {
		t.Fatalf("expected capped 10 got %s", got)
	}

	fixed := &models.DiscountCode{Type: enums.DiscountTypeFixed, Value: dec("25")}
	if got := DiscountAmount(fixed, dec("100")); !got.Equal(dec("25")) {
		t.Fatalf("expected 25 got %s", got)
	}
	if got := DiscountAmount(fixed, dec("18.50")); !got.Equal(dec("18.50")) {
		t.Fatalf("expected subtotal cap 18.50 got %s", got)
	}
	if got := DiscountAmount(fixed, dec("0")); !got.IsZero() {
		t.Fatalf("expected zero for empty cart got %s", got)
	}
}
