package controllers

import (
	"net/http"
	"strings"

	"github.com/resinriver/storefront/api/middleware"
	"github.com/resinriver/storefront/api/responses"
	"github.com/resinriver/storefront/api/validators"
	"github.com/resinriver/storefront/internal/orders"
	"github.com/resinriver/storefront/pkg/enums"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
	"github.com/resinriver/storefront/pkg/logger"
	"github.com/resinriver/storefront/pkg/pagination"
)

type paymentRequest struct {
	PaymentToken string `json:"payment_token"`
	Email        string `json:"email" validate:"omitempty,email"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// orderAccess describes the caller: staff, a signed-in user, or a guest
// quoting the checkout email.
func orderAccess(r *http.Request, guestEmail string) orders.Access {
	access := orders.Access{
		Staff:      middleware.RoleFromContext(r.Context()) == string(enums.UserRoleStaff),
		GuestEmail: strings.TrimSpace(guestEmail),
	}
	if userID, ok := middleware.UserUUIDFromContext(r.Context()); ok {
		access.UserID = &userID
	}
	return access
}

// OrderList returns the caller's orders newest first.
func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("orders"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := svc.List(ctx, userID, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("orders"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		order, err := svc.Detail(ctx, orderAccess(r, r.URL.Query().Get("email")), orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// OrderPayment runs the mock gateway. A declined payment is still a 200 with
// paid=false so the client can retry.
func OrderPayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("orders"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body paymentRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ConfirmPayment(ctx, orderAccess(r, body.Email), orderID, body.PaymentToken)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OrderUpdateStatus is the staff transition endpoint.
func OrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("orders"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body updateStatusRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(body.Status)))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Field("status", "Select a valid order status."))
			return
		}

		order, err := svc.UpdateStatus(ctx, orderID, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
