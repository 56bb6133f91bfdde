package checkout

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	pkgerrors "github.com/resinriver/storefront/pkg/errors"
)

// Address is a postal address captured by the checkout form.
type Address struct {
	FullName     string `json:"full_name" validate:"required,max=150"`
	AddressLine1 string `json:"address_line1" validate:"required,max=255"`
	AddressLine2 string `json:"address_line2" validate:"max=255"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"max=100"`
	PostalCode   string `json:"postal_code" validate:"required,max=20"`
	Country      string `json:"country" validate:"required,len=2,alpha"`
}

// BillingAddress carries the billing_* form fields.
type BillingAddress struct {
	BillingFullName     string `json:"billing_full_name"`
	BillingAddressLine1 string `json:"billing_address_line1"`
	BillingAddressLine2 string `json:"billing_address_line2"`
	BillingCity         string `json:"billing_city"`
	BillingState        string `json:"billing_state"`
	BillingPostalCode   string `json:"billing_postal_code"`
	BillingCountry      string `json:"billing_country"`
}

func (b BillingAddress) address() Address {
	return Address{
		FullName:     b.BillingFullName,
		AddressLine1: b.BillingAddressLine1,
		AddressLine2: b.BillingAddressLine2,
		City:         b.BillingCity,
		State:        b.BillingState,
		PostalCode:   b.BillingPostalCode,
		Country:      b.BillingCountry,
	}
}

// Input is the flat checkout form. Delivery fields sit at the top level and
// billing fields carry a billing_ prefix. A missing billing_same_as_shipping
// means true, in which case billing is copied from delivery.
type Input struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	Address
	BillingSameAsShipping *bool `json:"billing_same_as_shipping"`
	BillingAddress
	ShippingMethodID *uuid.UUID `json:"shipping_method_id"`
	DiscountCode     string     `json:"discount_code"`
	Notes            string     `json:"notes"`
}

// SameAsShipping resolves the billing toggle, defaulting to true.
func (in Input) SameAsShipping() bool {
	return in.BillingSameAsShipping == nil || *in.BillingSameAsShipping
}

type checkoutForm struct {
	Email                 string     `json:"email" validate:"required,max=254,email"`
	Phone                 string     `json:"phone" validate:"max=30"`
	Shipping              Address    `json:"shipping"`
	BillingSameAsShipping bool       `json:"billing_same_as_shipping"`
	Billing               Address    `json:"billing" validate:"-"`
	ShippingMethodID      *uuid.UUID `json:"shipping_method_id"`
	DiscountCode          string     `json:"discount_code" validate:"max=50"`
	Notes                 string     `json:"notes" validate:"max=2000"`
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// normalize trims every field, upper-cases countries (falling back to
// defaultCountry) and copies delivery into billing when requested.
func (in Input) normalize(defaultCountry string) checkoutForm {
	out := checkoutForm{
		Email:                 strings.TrimSpace(in.Email),
		Phone:                 strings.TrimSpace(in.Phone),
		Shipping:              in.Address.normalize(defaultCountry),
		BillingSameAsShipping: in.SameAsShipping(),
		ShippingMethodID:      in.ShippingMethodID,
		DiscountCode:          strings.TrimSpace(in.DiscountCode),
		Notes:                 strings.TrimSpace(in.Notes),
	}
	if out.BillingSameAsShipping {
		out.Billing = out.Shipping
	} else {
		out.Billing = in.BillingAddress.address().normalize(defaultCountry)
	}
	return out
}

func (a Address) normalize(defaultCountry string) Address {
	out := Address{
		FullName:     strings.TrimSpace(a.FullName),
		AddressLine1: strings.TrimSpace(a.AddressLine1),
		AddressLine2: strings.TrimSpace(a.AddressLine2),
		City:         strings.TrimSpace(a.City),
		State:        strings.TrimSpace(a.State),
		PostalCode:   strings.TrimSpace(a.PostalCode),
		Country:      strings.ToUpper(strings.TrimSpace(a.Country)),
	}
	if out.Country == "" {
		out.Country = strings.ToUpper(strings.TrimSpace(defaultCountry))
	}
	return out
}

// validate returns a validation error whose details map each bad form field
// (delivery fields unprefixed, billing fields prefixed "billing_") to a
// message. Call after normalize.
func (f checkoutForm) validate() error {
	details := map[string]string{}
	collect(details, formValidator.Struct(f), "")
	if !f.BillingSameAsShipping {
		collect(details, formValidator.Struct(f.Billing), "billing_")
	}
	if len(details) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "checkout form is invalid").WithDetails(details)
}

func collect(details map[string]string, err error, prefix string) {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return
	}
	for _, fe := range errs {
		details[prefix+fe.Field()] = fieldMessage(fe)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "len", "alpha":
		return "Enter a two-letter country code."
	}
	return "Enter a valid value."
}
