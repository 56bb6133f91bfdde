package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/resinriver/storefront/api/middleware"
	"github.com/resinriver/storefront/internal/cart"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
)

// cartOwner resolves whose cart a request targets: the signed-in user, or the
// guest holding the X-Cart-Token.
func cartOwner(r *http.Request) cart.Owner {
	if userID, ok := middleware.UserUUIDFromContext(r.Context()); ok {
		return cart.UserOwner(userID)
	}
	return cart.GuestOwner(middleware.CartTokenFromContext(r.Context()))
}

func requireUser(r *http.Request) (uuid.UUID, error) {
	userID, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return userID, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
