package controllers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resinriver/storefront/internal/auth"
	pkgAuth "github.com/resinriver/storefront/pkg/auth"
	"github.com/resinriver/storefront/pkg/config"
	"github.com/resinriver/storefront/pkg/enums"
)

var controllerJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

type stubAuth struct {
	register  auth.RegisterRequest
	login     auth.LoginRequest
	refresh   auth.RefreshRequest
	loggedOut string
}

func (s *stubAuth) Register(_ context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error) {
	s.register = req
	return &auth.AuthResponse{AccessToken: "access", RefreshToken: "refresh", MergedCartLines: 2}, nil
}

func (s *stubAuth) Login(_ context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
	s.login = req
	return &auth.AuthResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (s *stubAuth) Refresh(_ context.Context, req auth.RefreshRequest) (*auth.AuthResponse, error) {
	s.refresh = req
	return &auth.AuthResponse{AccessToken: "access2", RefreshToken: "refresh2"}, nil
}

func (s *stubAuth) Logout(_ context.Context, accessID string) error {
	if accessID == "" {
		return errors.New("missing access id")
	}
	s.loggedOut = accessID
	return nil
}

func TestAuthRegisterCarriesCartToken(t *testing.T) {
	svc := &stubAuth{}
	req := asGuest(newRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "dana@example.com", "password": "Tr1cky-Pass", "password_confirm": "Tr1cky-Pass",
	}), "guest-token")

	rec := serve(AuthRegister(svc, nil), req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "guest-token", svc.register.CartToken)
	var resp auth.AuthResponse
	decode(t, rec, &resp)
	assert.Equal(t, 2, resp.MergedCartLines)
}

func TestAuthLoginValidatesEmail(t *testing.T) {
	svc := &stubAuth{}
	rec := serve(AuthLogin(svc, nil), newRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "not-an-email", "password": "x",
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.login.Email)

	rec = serve(AuthLogin(svc, nil), asGuest(newRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "dana@example.com", "password": "x",
	}), "tok"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", svc.login.CartToken)
}

func TestAuthRefreshNeedsBearer(t *testing.T) {
	svc := &stubAuth{}
	body := map[string]string{"refresh_token": "refresh"}

	rec := serve(AuthRefresh(svc, nil), newRequest(t, http.MethodPost, "/api/v1/auth/refresh", body))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := newRequest(t, http.MethodPost, "/api/v1/auth/refresh", body)
	req.Header.Set("Authorization", "Bearer old-access")
	rec = serve(AuthRefresh(svc, nil), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "old-access", svc.refresh.AccessToken)
	assert.Equal(t, "refresh", svc.refresh.RefreshToken)
}

func TestAuthLogoutAcceptsExpiredToken(t *testing.T) {
	svc := &stubAuth{}
	token, err := pkgAuth.MintAccessToken(controllerJWT, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleCustomer,
		JTI:    "jti-1",
	})
	require.NoError(t, err)

	req := newRequest(t, http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(AuthLogout(svc, controllerJWT, nil), req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "jti-1", svc.loggedOut)

	req = newRequest(t, http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = serve(AuthLogout(svc, controllerJWT, nil), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
