package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resinriver/storefront/internal/orders"
	"github.com/resinriver/storefront/pkg/enums"
	"github.com/resinriver/storefront/pkg/pagination"
)

type stubOrders struct {
	params pagination.Params
	access orders.Access
	token  string
	status enums.OrderStatus
}

func (s *stubOrders) List(_ context.Context, _ uuid.UUID, params pagination.Params) (*orders.OrderList, error) {
	s.params = params
	return &orders.OrderList{Orders: []orders.OrderSummary{}}, nil
}

func (s *stubOrders) Detail(_ context.Context, access orders.Access, id uuid.UUID) (*orders.OrderDTO, error) {
	s.access = access
	return &orders.OrderDTO{ID: id}, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, id uuid.UUID, status enums.OrderStatus) (*orders.OrderDTO, error) {
	s.status = status
	return &orders.OrderDTO{ID: id, Status: status}, nil
}

func (s *stubOrders) ConfirmPayment(_ context.Context, access orders.Access, id uuid.UUID, token string) (*orders.PaymentResult, error) {
	s.access = access
	s.token = token
	return &orders.PaymentResult{Paid: token != "fail", Order: orders.OrderDTO{ID: id}}, nil
}

func TestOrderListRequiresUser(t *testing.T) {
	rec := serve(OrderList(&stubOrders{}, nil), newRequest(t, http.MethodGet, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderListPassesCursor(t *testing.T) {
	svc := &stubOrders{}
	req := asUser(newRequest(t, http.MethodGet, "/api/v1/orders?limit=5&cursor=abc", nil), uuid.New(), enums.UserRoleCustomer)

	rec := serve(OrderList(svc, nil), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pagination.Params{Limit: 5, Cursor: "abc"}, svc.params)
}

func TestOrderDetailBuildsAccess(t *testing.T) {
	orderID := uuid.New()
	params := map[string]string{"orderID": orderID.String()}

	svc := &stubOrders{}
	req := withParams(newRequest(t, http.MethodGet, "/api/v1/orders/x?email=+guest@example.com+", nil), params)
	rec := serve(OrderDetail(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.access.UserID)
	assert.False(t, svc.access.Staff)
	assert.Equal(t, "guest@example.com", svc.access.GuestEmail)

	staffID := uuid.New()
	req = withParams(asUser(newRequest(t, http.MethodGet, "/api/v1/orders/x", nil), staffID, enums.UserRoleStaff), params)
	rec = serve(OrderDetail(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.access.Staff)
	require.NotNil(t, svc.access.UserID)
	assert.Equal(t, staffID, *svc.access.UserID)
}

func TestOrderPaymentDeclineIsStillOK(t *testing.T) {
	svc := &stubOrders{}
	orderID := uuid.New()
	req := withParams(newRequest(t, http.MethodPost, "/api/v1/orders/x/payment", map[string]string{
		"payment_token": "fail",
		"email":         "guest@example.com",
	}), map[string]string{"orderID": orderID.String()})

	rec := serve(OrderPayment(svc, nil), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fail", svc.token)
	assert.Equal(t, "guest@example.com", svc.access.GuestEmail)
	var result orders.PaymentResult
	decode(t, rec, &result)
	assert.False(t, result.Paid)
}

func TestOrderUpdateStatus(t *testing.T) {
	svc := &stubOrders{}
	params := map[string]string{"orderID": uuid.NewString()}

	req := withParams(newRequest(t, http.MethodPatch, "/api/v1/orders/x/status", map[string]string{"status": " Shipped "}), params)
	rec := serve(OrderUpdateStatus(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enums.OrderStatusShipped, svc.status)

	req = withParams(newRequest(t, http.MethodPatch, "/api/v1/orders/x/status", map[string]string{"status": "lost"}), params)
	rec = serve(OrderUpdateStatus(svc, nil), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
