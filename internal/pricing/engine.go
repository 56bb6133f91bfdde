package pricing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resinriver/storefront/pkg/db/models"
)

// Line is one priced cart entry.
type Line struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns unit price × quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineFromItem prices an item at its effective (sale or list) price.
func LineFromItem(item models.Item, quantity int) Line {
	return Line{
		ItemID:    item.ID,
		Name:      item.Name,
		Slug:      item.Slug,
		UnitPrice: item.EffectivePrice(),
		Quantity:  quantity,
	}
}

// Totals is the breakdown shown at checkout and persisted on orders.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping_cost"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Tax      decimal.Decimal `json:"tax_amount"`
	Discount decimal.Decimal `json:"discount_amount"`
	Total    decimal.Decimal `json:"total"`
}

// Subtotal sums every line.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Subtotal())
	}
	return sum
}

// ItemCount sums line quantities.
func ItemCount(lines []Line) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}

// ShippingCost applies base + per-item pricing, waived once the subtotal reaches
// the method's free-shipping threshold. A nil method ships free.
func ShippingCost(method *models.ShippingMethod, subtotal decimal.Decimal, itemCount int) decimal.Decimal {
	if method == nil {
		return decimal.Zero
	}
	if method.FreeShippingThreshold != nil && subtotal.GreaterThanOrEqual(*method.FreeShippingThreshold) {
		return decimal.Zero
	}
	cost := method.BaseCost.Add(method.PerItemCost.Mul(decimal.NewFromInt(int64(itemCount))))
	return roundMoney(cost)
}

// DefaultShippingMethod picks the active method with the lowest display order.
// Ties resolve by name so the choice is stable.
func DefaultShippingMethod(methods []models.ShippingMethod) *models.ShippingMethod {
	var best *models.ShippingMethod
	for i := range methods {
		m := &methods[i]
		if !m.Active {
			continue
		}
		if best == nil || m.DisplayOrder < best.DisplayOrder ||
			(m.DisplayOrder == best.DisplayOrder && m.Name < best.Name) {
			best = m
		}
	}
	return best
}

// MatchTaxRate finds the rate for the destination. A state-specific row wins
// over the country-wide row; no match yields a zero rate.
func MatchTaxRate(configs []models.TaxConfiguration, country, state string) (decimal.Decimal, *models.TaxConfiguration) {
	country = strings.TrimSpace(country)
	state = strings.TrimSpace(state)
	if country == "" {
		return decimal.Zero, nil
	}

	var countryWide *models.TaxConfiguration
	for i := range configs {
		cfg := &configs[i]
		if !cfg.Active || !strings.EqualFold(cfg.Country, country) {
			continue
		}
		if cfg.State == "" {
			if countryWide == nil {
				countryWide = cfg
			}
			continue
		}
		if state != "" && strings.EqualFold(cfg.State, state) {
			return cfg.Rate, cfg
		}
	}
	if countryWide != nil {
		return countryWide.Rate, countryWide
	}
	return decimal.Zero, nil
}

// Tax applies rate to subtotal, rounded to cents.
func Tax(subtotal, rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	return roundMoney(subtotal.Mul(rate))
}

// Total is subtotal + shipping + tax − discount, never below zero.
func Total(subtotal, shipping, tax, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(shipping).Add(tax).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return roundMoney(total)
}

// Compute runs the full breakdown for already-resolved inputs. code must have
// passed ValidateDiscount when non-nil.
func Compute(lines []Line, method *models.ShippingMethod, taxRate decimal.Decimal, code *models.DiscountCode) Totals {
	subtotal := roundMoney(Subtotal(lines))
	shipping := ShippingCost(method, subtotal, ItemCount(lines))
	tax := Tax(subtotal, taxRate)
	discount := decimal.Zero
	if code != nil {
		discount = DiscountAmount(code, subtotal)
	}
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		TaxRate:  taxRate,
		Tax:      tax,
		Discount: discount,
		Total:    Total(subtotal, shipping, tax, discount),
	}
}

func roundMoney(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}
