package middleware

import (
	"net/http"
	"strings"

	"github.com/resinriver/storefront/internal/cart"
	"github.com/resinriver/storefront/pkg/logger"
)

// CartTokenHeader carries the guest cart token in both directions.
const CartTokenHeader = "X-Cart-Token"

const maxCartTokenLen = 64

// CartToken attaches the guest cart token to the request context. Guests
// writing without a token get a fresh one; the active token is echoed back in
// the response header so clients can persist it.
func CartToken(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(CartTokenHeader))
			if len(token) > maxCartTokenLen {
				token = ""
			}
			if token == "" && isWrite(r.Method) && UserIDFromContext(r.Context()) == "" {
				token = cart.NewToken()
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set(CartTokenHeader, token)
			ctx := WithCartToken(r.Context(), token)
			if logg != nil {
				ctx = logg.WithCartToken(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
