package middleware

import (
	"net/http"

	"github.com/resinriver/storefront/api/responses"
	"github.com/resinriver/storefront/pkg/enums"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
	"github.com/resinriver/storefront/pkg/logger"
)

// RequireUser rejects requests that OptionalAuth left anonymous.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if UserIDFromContext(r.Context()) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireRole(role enums.UserRole, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if UserIDFromContext(ctx) == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if RoleFromContext(ctx) != string(role) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, string(role)+" access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff restricts a route to staff accounts.
func RequireStaff(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireRole(enums.UserRoleStaff, logg)
}
