package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/resinriver/storefront/pkg/db/models"
	"github.com/resinriver/storefront/pkg/enums"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
)

// DiscountField is the form field discount messages attach to.
const DiscountField = "discount_code"

const (
	MsgDiscountInvalid    = "Invalid discount code."
	MsgDiscountInactive   = "This discount code is not active."
	MsgDiscountNotYet     = "This discount code is not yet valid."
	MsgDiscountExpired    = "This discount code has expired."
	MsgDiscountExhausted  = "This discount code has reached its usage limit."
	msgDiscountMinimumFmt = "Order total must be at least $%s to use this code."
)

// ValidateDiscount runs the redemption checks in order: active flag, validity
// window, usage limit, minimum order total. The first failure is returned as a
// validation error whose message is safe to show the shopper.
func ValidateDiscount(code *models.DiscountCode, orderTotal decimal.Decimal, now time.Time) error {
	if code == nil {
		return discountError(MsgDiscountInvalid)
	}
	if !code.Active {
		return discountError(MsgDiscountInactive)
	}
	if now.Before(code.ValidFrom) {
		return discountError(MsgDiscountNotYet)
	}
	if code.ValidUntil != nil && now.After(*code.ValidUntil) {
		return discountError(MsgDiscountExpired)
	}
	if code.UsageLimit != nil && code.UsageCount >= *code.UsageLimit {
		return discountError(MsgDiscountExhausted)
	}
	if orderTotal.LessThan(code.MinimumOrderTotal) {
		return discountError(fmt.Sprintf(msgDiscountMinimumFmt, code.MinimumOrderTotal.StringFixed(2)))
	}
	return nil
}

// DiscountAmount is value% of subtotal capped at the maximum for percentage
// codes, or min(value, subtotal) for fixed codes.
func DiscountAmount(code *models.DiscountCode, subtotal decimal.Decimal) decimal.Decimal {
	if code == nil || !subtotal.IsPositive() || !code.Value.IsPositive() {
		return decimal.Zero
	}
	switch code.Type {
	case enums.DiscountTypePercentage:
		amount := roundMoney(subtotal.Mul(code.Value).Div(decimal.NewFromInt(100)))
		if code.MaximumDiscount != nil && amount.GreaterThan(*code.MaximumDiscount) {
			amount = *code.MaximumDiscount
		}
		return amount
	case enums.DiscountTypeFixed:
		return decimal.Min(code.Value, subtotal)
	default:
		return decimal.Zero
	}
}

func discountError(message string) error {
	return pkgerrors.Field(DiscountField, message)
}

// DiscountMessage extracts the shopper-facing message from a discount
// validation error.
func DiscountMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
		return typed.Message()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
