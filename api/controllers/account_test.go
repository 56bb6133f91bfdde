package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resinriver/storefront/internal/addresses"
	"github.com/resinriver/storefront/internal/wishlist"
	"github.com/resinriver/storefront/pkg/db/models"
	"github.com/resinriver/storefront/pkg/enums"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
)

type stubAddresses struct {
	input   addresses.Input
	deleted uuid.UUID
}

func (s *stubAddresses) List(_ context.Context, userID uuid.UUID) ([]models.Address, error) {
	return []models.Address{{UserID: userID, FullName: "Dana River", IsDefault: true}}, nil
}

func (s *stubAddresses) Create(_ context.Context, userID uuid.UUID, input addresses.Input) (*models.Address, error) {
	s.input = input
	return &models.Address{ID: uuid.New(), UserID: userID, FullName: input.FullName, Country: "US"}, nil
}

func (s *stubAddresses) Update(_ context.Context, userID, addressID uuid.UUID, input addresses.Input) (*models.Address, error) {
	s.input = input
	return &models.Address{ID: addressID, UserID: userID, FullName: input.FullName}, nil
}

func (s *stubAddresses) Delete(_ context.Context, _ uuid.UUID, addressID uuid.UUID) error {
	if addressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	s.deleted = addressID
	return nil
}

type stubWishlist struct {
	added   uuid.UUID
	removed uuid.UUID
	cursor  string
	limit   int
}

func (s *stubWishlist) GetWishlist(_ context.Context, _ uuid.UUID, cursor string, limit int) (wishlist.WishlistItemsPageDTO, error) {
	s.cursor = cursor
	s.limit = limit
	return wishlist.WishlistItemsPageDTO{Items: []wishlist.WishlistItemDTO{}}, nil
}

func (s *stubWishlist) GetWishlistIDs(context.Context, uuid.UUID) (wishlist.WishlistIDsDTO, error) {
	return wishlist.WishlistIDsDTO{ItemIDs: []uuid.UUID{s.added}}, nil
}

func (s *stubWishlist) AddItem(_ context.Context, _ uuid.UUID, itemID uuid.UUID) error {
	s.added = itemID
	return nil
}

func (s *stubWishlist) RemoveItem(_ context.Context, _ uuid.UUID, itemID uuid.UUID) error {
	s.removed = itemID
	return nil
}

func TestAddressEndpointsRequireUser(t *testing.T) {
	rec := serve(AddressList(&stubAddresses{}, nil), newRequest(t, http.MethodGet, "/api/v1/addresses", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddressCreateAndList(t *testing.T) {
	svc := &stubAddresses{}
	userID := uuid.New()

	req := asUser(newRequest(t, http.MethodPost, "/api/v1/addresses", map[string]any{
		"full_name": "Dana River", "address_line1": "1 Creek Rd", "city": "Austin", "postal_code": "73301", "is_default": true,
	}), userID, enums.UserRoleCustomer)
	rec := serve(AddressCreate(svc, nil), req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, svc.input.IsDefault)
	var created addressResponse
	decode(t, rec, &created)
	assert.Equal(t, "Dana River", created.FullName)

	rec = serve(AddressList(svc, nil), asUser(newRequest(t, http.MethodGet, "/api/v1/addresses", nil), userID, enums.UserRoleCustomer))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed map[string][]addressResponse
	decode(t, rec, &listed)
	require.Len(t, listed["addresses"], 1)
	assert.True(t, listed["addresses"][0].IsDefault)
}

func TestAddressDelete(t *testing.T) {
	svc := &stubAddresses{}
	addressID := uuid.New()
	req := withParams(asUser(newRequest(t, http.MethodDelete, "/api/v1/addresses/x", nil), uuid.New(), enums.UserRoleCustomer),
		map[string]string{"addressID": addressID.String()})

	rec := serve(AddressDelete(svc, nil), req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, addressID, svc.deleted)
}

func TestWishlistFlow(t *testing.T) {
	svc := &stubWishlist{}
	userID := uuid.New()
	itemID := uuid.New()

	req := asUser(newRequest(t, http.MethodPost, "/api/v1/wishlist", map[string]any{"item_id": itemID}), userID, enums.UserRoleCustomer)
	rec := serve(WishlistAdd(svc, nil), req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, itemID, svc.added)

	req = asUser(newRequest(t, http.MethodGet, "/api/v1/wishlist?cursor=c1&limit=10", nil), userID, enums.UserRoleCustomer)
	rec = serve(WishlistGet(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c1", svc.cursor)
	assert.Equal(t, 10, svc.limit)

	rec = serve(WishlistIDs(svc, nil), asUser(newRequest(t, http.MethodGet, "/api/v1/wishlist/ids", nil), userID, enums.UserRoleCustomer))
	require.Equal(t, http.StatusOK, rec.Code)
	var ids wishlist.WishlistIDsDTO
	decode(t, rec, &ids)
	assert.Equal(t, []uuid.UUID{itemID}, ids.ItemIDs)

	req = withParams(asUser(newRequest(t, http.MethodDelete, "/api/v1/wishlist/x", nil), userID, enums.UserRoleCustomer),
		map[string]string{"itemID": itemID.String()})
	rec = serve(WishlistRemove(svc, nil), req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, itemID, svc.removed)
}

func TestWishlistAddRequiresItem(t *testing.T) {
	req := asUser(newRequest(t, http.MethodPost, "/api/v1/wishlist", map[string]any{}), uuid.New(), enums.UserRoleCustomer)
	rec := serve(WishlistAdd(&stubWishlist{}, nil), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
