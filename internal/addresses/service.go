package addresses

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/pkg/db/models"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input is a create or replace payload for an address book entry.
type Input struct {
	Label        string `json:"label" validate:"max=50"`
	FullName     string `json:"full_name" validate:"required,max=150"`
	Phone        string `json:"phone" validate:"max=30"`
	AddressLine1 string `json:"address_line1" validate:"required,max=255"`
	AddressLine2 string `json:"address_line2" validate:"max=255"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"max=100"`
	PostalCode   string `json:"postal_code" validate:"required,max=20"`
	Country      string `json:"country" validate:"required,len=2,alpha"`
	IsDefault    bool   `json:"is_default"`
}

// Service manages a user's saved addresses. A user's first address becomes
// the default; marking another default clears the previous one.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error)
	Update(ctx context.Context, userID, addressID uuid.UUID, input Input) (*models.Address, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

type ServiceParams struct {
	Repo           *Repository
	Tx             txRunner
	DefaultCountry string
}

type service struct {
	repo           *Repository
	tx             txRunner
	defaultCountry string
	validate       *validator.Validate
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return &service{
		repo:           params.Repo,
		tx:             params.Tx,
		defaultCountry: strings.ToUpper(strings.TrimSpace(params.DefaultCountry)),
		validate:       v,
	}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	if rows == nil {
		rows = []models.Address{}
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input Input) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	input, err := s.clean(input)
	if err != nil {
		return nil, err
	}

	address := &models.Address{UserID: userID}
	apply(address, input)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		count, err := repo.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count == 0 {
			address.IsDefault = true
		}
		if err := repo.Create(ctx, address); err != nil {
			return err
		}
		if address.IsDefault {
			return repo.ClearDefault(ctx, userID, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create address")
	}
	return address, nil
}

func (s *service) Update(ctx context.Context, userID, addressID uuid.UUID, input Input) (*models.Address, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	input, err := s.clean(input)
	if err != nil {
		return nil, err
	}

	var address *models.Address
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindForUser(ctx, userID, addressID)
		if err != nil {
			return err
		}
		wasDefault := found.IsDefault
		apply(found, input)
		// The default can move but never be dropped by editing.
		if wasDefault {
			found.IsDefault = true
		}
		if err := repo.Save(ctx, found); err != nil {
			return err
		}
		address = found
		if found.IsDefault {
			return repo.ClearDefault(ctx, userID, found.ID)
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err, "update address")
	}
	return address, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindForUser(ctx, userID, addressID)
		if err != nil {
			return err
		}
		if _, err := repo.Delete(ctx, userID, addressID); err != nil {
			return err
		}
		if found.IsDefault {
			return repo.PromoteLatest(ctx, userID)
		}
		return nil
	})
	if err != nil {
		return mapError(err, "delete address")
	}
	return nil
}

func (s *service) clean(input Input) (Input, error) {
	out := Input{
		Label:        strings.TrimSpace(input.Label),
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        strings.TrimSpace(input.Phone),
		AddressLine1: strings.TrimSpace(input.AddressLine1),
		AddressLine2: strings.TrimSpace(input.AddressLine2),
		City:         strings.TrimSpace(input.City),
		State:        strings.TrimSpace(input.State),
		PostalCode:   strings.TrimSpace(input.PostalCode),
		Country:      strings.ToUpper(strings.TrimSpace(input.Country)),
		IsDefault:    input.IsDefault,
	}
	if out.Country == "" {
		out.Country = s.defaultCountry
	}

	err := s.validate.Struct(out)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out, nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "This field is required."
		case "max":
			details[fe.Field()] = fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
		default:
			details[fe.Field()] = "Enter a two-letter country code."
		}
	}
	return out, pkgerrors.New(pkgerrors.CodeValidation, "address is invalid").WithDetails(details)
}

func apply(address *models.Address, input Input) {
	address.Label = input.Label
	address.FullName = input.FullName
	address.Phone = input.Phone
	address.AddressLine1 = input.AddressLine1
	address.AddressLine2 = input.AddressLine2
	address.City = input.City
	address.State = input.State
	address.PostalCode = input.PostalCode
	address.Country = input.Country
	address.IsDefault = input.IsDefault
}

func mapError(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
