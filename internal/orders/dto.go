package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resinriver/storefront/pkg/db/models"
	"github.com/resinriver/storefront/pkg/enums"
)

// OrderSummary is one row of the order history list.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   int64               `json:"order_number"`
	CreatedAt     time.Time           `json:"created_at"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	TotalItems    int                 `json:"total_items"`
	Total         decimal.Decimal     `json:"total"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// AddressDTO is a postal address on an order.
type AddressDTO struct {
	FullName     string `json:"full_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// OrderItemDTO is a purchased line snapshot.
type OrderItemDTO struct {
	ItemID       *uuid.UUID      `json:"item_id,omitempty"`
	Name         string          `json:"name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
}

// OrderDTO is the full order as returned by detail, checkout and payment.
type OrderDTO struct {
	ID                    uuid.UUID           `json:"id"`
	OrderNumber           int64               `json:"order_number"`
	Status                enums.OrderStatus   `json:"status"`
	PaymentStatus         enums.PaymentStatus `json:"payment_status"`
	PaymentReference      string              `json:"payment_reference,omitempty"`
	PaidAt                *time.Time          `json:"paid_at,omitempty"`
	Email                 string              `json:"email"`
	Phone                 string              `json:"phone,omitempty"`
	GuestEmail            string              `json:"guest_email,omitempty"`
	Shipping              AddressDTO          `json:"shipping_address"`
	BillingSameAsShipping bool                `json:"billing_same_as_shipping"`
	Billing               AddressDTO          `json:"billing_address"`
	ShippingMethod        string              `json:"shipping_method,omitempty"`
	DiscountCode          string              `json:"discount_code,omitempty"`
	Items                 []OrderItemDTO      `json:"items"`
	Subtotal              decimal.Decimal     `json:"subtotal"`
	ShippingCost          decimal.Decimal     `json:"shipping_cost"`
	TaxAmount             decimal.Decimal     `json:"tax_amount"`
	DiscountAmount        decimal.Decimal     `json:"discount_amount"`
	Total                 decimal.Decimal     `json:"total"`
	Notes                 string              `json:"notes,omitempty"`
	CreatedAt             time.Time           `json:"created_at"`
}

// PaymentResult reports the outcome of a mock payment confirmation.
type PaymentResult struct {
	Paid    bool     `json:"paid"`
	Message string   `json:"message"`
	Order   OrderDTO `json:"order"`
}

// ToOrderDTO maps an order row (with preloaded items) to its API shape.
func ToOrderDTO(order *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ItemID:       item.ItemID,
			Name:         item.Name,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineSubtotal: item.LineSubtotal,
		})
	}
	return OrderDTO{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		PaymentReference: order.PaymentReference,
		PaidAt:           order.PaidAt,
		Email:            order.Email,
		Phone:            order.Phone,
		GuestEmail:       order.GuestEmail,
		Shipping: AddressDTO{
			FullName:     order.FullName,
			AddressLine1: order.AddressLine1,
			AddressLine2: order.AddressLine2,
			City:         order.City,
			State:        order.State,
			PostalCode:   order.PostalCode,
			Country:      order.Country,
		},
		BillingSameAsShipping: order.BillingSameAsShipping,
		Billing: AddressDTO{
			FullName:     order.BillingFullName,
			AddressLine1: order.BillingAddressLine1,
			AddressLine2: order.BillingAddressLine2,
			City:         order.BillingCity,
			State:        order.BillingState,
			PostalCode:   order.BillingPostalCode,
			Country:      order.BillingCountry,
		},
		ShippingMethod: order.ShippingMethodName,
		DiscountCode:   order.DiscountCode,
		Items:          items,
		Subtotal:       order.Subtotal,
		ShippingCost:   order.ShippingCost,
		TaxAmount:      order.TaxAmount,
		DiscountAmount: order.DiscountAmount,
		Total:          order.Total,
		Notes:          order.Notes,
		CreatedAt:      order.CreatedAt,
	}
}

func toSummary(order *models.Order) OrderSummary {
	totalItems := 0
	for _, item := range order.Items {
		totalItems += item.Quantity
	}
	return OrderSummary{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		CreatedAt:     order.CreatedAt,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalItems:    totalItems,
		Total:         order.Total,
	}
}
