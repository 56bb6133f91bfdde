package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resinriver/storefront/internal/pricing"
	"github.com/resinriver/storefront/pkg/db/models"
)

type shippingMethodResponse struct {
	ID                    uuid.UUID        `json:"id"`
	Name                  string           `json:"name"`
	Description           string           `json:"description,omitempty"`
	BaseCost              decimal.Decimal  `json:"base_cost"`
	PerItemCost           decimal.Decimal  `json:"per_item_cost"`
	FreeShippingThreshold *decimal.Decimal `json:"free_shipping_threshold,omitempty"`
	EstimatedDays         string           `json:"estimated_days,omitempty"`
}

func toShippingMethodResponse(m models.ShippingMethod) shippingMethodResponse {
	return shippingMethodResponse{
		ID:                    m.ID,
		Name:                  m.Name,
		Description:           m.Description,
		BaseCost:              m.BaseCost,
		PerItemCost:           m.PerItemCost,
		FreeShippingThreshold: m.FreeShippingThreshold,
		EstimatedDays:         m.EstimatedDays,
	}
}

type addressResponse struct {
	ID           uuid.UUID `json:"id"`
	Label        string    `json:"label,omitempty"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone,omitempty"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 string    `json:"address_line2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state,omitempty"`
	PostalCode   string    `json:"postal_code"`
	Country      string    `json:"country"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

func toAddressResponse(a models.Address) addressResponse {
	return addressResponse{
		ID:           a.ID,
		Label:        a.Label,
		FullName:     a.FullName,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
		IsDefault:    a.IsDefault,
		CreatedAt:    a.CreatedAt,
	}
}

func toAddressResponses(rows []models.Address) []addressResponse {
	out := make([]addressResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAddressResponse(row))
	}
	return out
}

type quoteLineResponse struct {
	pricing.Line
	LineTotal decimal.Decimal `json:"line_total"`
}

type quoteResponse struct {
	Lines          []quoteLineResponse     `json:"lines"`
	ItemCount      int                     `json:"item_count"`
	Totals         pricing.Totals          `json:"totals"`
	ShippingMethod *shippingMethodResponse `json:"shipping_method,omitempty"`
	DiscountCode   string                  `json:"discount_code,omitempty"`
	DiscountError  string                  `json:"discount_error,omitempty"`
}

func toQuoteResponse(q *pricing.Quote) *quoteResponse {
	if q == nil {
		return nil
	}
	lines := make([]quoteLineResponse, 0, len(q.Lines))
	for _, line := range q.Lines {
		lines = append(lines, quoteLineResponse{Line: line, LineTotal: line.Subtotal()})
	}
	resp := &quoteResponse{
		Lines:         lines,
		ItemCount:     q.ItemCount,
		Totals:        q.Totals,
		DiscountCode:  q.DiscountCode,
		DiscountError: q.DiscountError,
	}
	if q.ShippingMethod != nil {
		method := toShippingMethodResponse(*q.ShippingMethod)
		resp.ShippingMethod = &method
	}
	return resp
}
