package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestItemEffectivePrice(t *testing.T) {
	t.Parallel()

	item := Item{Price: decimal.RequireFromString("20.00")}
	if !item.EffectivePrice().Equal(decimal.RequireFromString("20")) {
		t.Fatalf("expected list price, got %s", item.EffectivePrice())
	}

	sale := decimal.RequireFromString("15.50")
	item.SalePrice = &sale
	if !item.EffectivePrice().Equal(sale) {
		t.Fatalf("expected sale price, got %s", item.EffectivePrice())
	}
}

func TestOrderRecipientEmail(t *testing.T) {
	t.Parallel()

	order := Order{GuestEmail: "guest@example.com", Email: "contact@example.com"}
	if got := order.RecipientEmail("account@example.com"); got != "account@example.com" {
		t.Fatalf("expected account email, got %q", got)
	}
	if got := order.RecipientEmail(""); got != "guest@example.com" {
		t.Fatalf("expected guest email, got %q", got)
	}

	order.GuestEmail = ""
	if got := order.RecipientEmail(""); got != "contact@example.com" {
		t.Fatalf("expected contact email, got %q", got)
	}

	order.Email = "555-0100"
	if got := order.RecipientEmail(""); got != "" {
		t.Fatalf("expected no recipient, got %q", got)
	}
}

func TestUserFullName(t *testing.T) {
	t.Parallel()

	if got := (User{FirstName: "Ada", LastName: "Lovelace"}).FullName(); got != "Ada Lovelace" {
		t.Fatalf("unexpected full name %q", got)
	}
	if got := (User{LastName: "Lovelace"}).FullName(); got != "Lovelace" {
		t.Fatalf("unexpected full name %q", got)
	}
}
