package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/enums"
)

// Order is the immutable snapshot of a completed checkout. Only the status,
// payment and timestamp columns change after creation.
type Order struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber int64      `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	UserID      *uuid.UUID `gorm:"column:user_id;type:uuid;index:orders_user_id_idx"`
	GuestEmail  string     `gorm:"column:guest_email;not null;default:''"`

	FullName string `gorm:"column:full_name;not null"`
	Email    string `gorm:"column:email;not null"`
	Phone    string `gorm:"column:phone;not null;default:''"`

	AddressLine1 string `gorm:"column:address_line1;not null"`
	AddressLine2 string `gorm:"column:address_line2;not null;default:''"`
	City         string `gorm:"column:city;not null"`
	State        string `gorm:"column:state;not null;default:''"`
	PostalCode   string `gorm:"column:postal_code;not null"`
	Country      string `gorm:"column:country;not null"`

	BillingSameAsShipping bool   `gorm:"column:billing_same_as_shipping;not null"`
	BillingFullName       string `gorm:"column:billing_full_name;not null"`
	BillingAddressLine1   string `gorm:"column:billing_address_line1;not null"`
	BillingAddressLine2   string `gorm:"column:billing_address_line2;not null;default:''"`
	BillingCity           string `gorm:"column:billing_city;not null"`
	BillingState          string `gorm:"column:billing_state;not null;default:''"`
	BillingPostalCode     string `gorm:"column:billing_postal_code;not null"`
	BillingCountry        string `gorm:"column:billing_country;not null"`

	ShippingMethodID   *uuid.UUID `gorm:"column:shipping_method_id;type:uuid"`
	ShippingMethodName string     `gorm:"column:shipping_method_name;not null;default:''"`
	DiscountCodeID     *uuid.UUID `gorm:"column:discount_code_id;type:uuid"`
	DiscountCode       string     `gorm:"column:discount_code;not null;default:''"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingCost   decimal.Decimal `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	Total          decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`

	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	PaymentReference string              `gorm:"column:payment_reference;not null;default:''"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`
	Notes            string              `gorm:"column:notes;type:text;not null;default:''"`

	Items     []OrderItem `gorm:"foreignKey:OrderID"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// RecipientEmail picks the address notifications go to: the account email
// when known, then the guest email, then the contact email.
func (o Order) RecipientEmail(accountEmail string) string {
	for _, candidate := range []string{accountEmail, o.GuestEmail, o.Email} {
		if strings.Contains(candidate, "@") {
			return candidate
		}
	}
	return ""
}
