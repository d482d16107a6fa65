package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgAuth "github.com/carelane/medstock-backend/pkg/auth"
	"github.com/carelane/medstock-backend/pkg/config"
	"github.com/carelane/medstock-backend/pkg/enums"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "middleware-test-secret",
	Issuer:            "medstock-test",
	ExpirationMinutes: 15,
}

type stubSessionVerifier struct {
	live map[string]bool
	err  error
}

func (s stubSessionVerifier) HasSession(_ context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.live[accessID], nil
}

func mintToken(t *testing.T, userID uuid.UUID, role enums.UserRole, jti string) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWTConfig, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   userID,
		Username: "nurse.joy",
		Role:     role,
		JTI:      jti,
	})
	require.NoError(t, err)
	return token
}

func serveAuth(verifier stubSessionVerifier, header string, next http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	Auth(testJWTConfig, verifier, nil)(next).ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	rec := serveAuth(stubSessionVerifier{}, "", okHandler())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsMalformedToken(t *testing.T) {
	rec := serveAuth(stubSessionVerifier{}, "Bearer not-a-jwt", okHandler())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthAttachesPrincipal(t *testing.T) {
	userID := uuid.New()
	token := mintToken(t, userID, enums.UserRoleStaff, "access-1")

	var got Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		require.True(t, ok)
		got = p
		w.WriteHeader(http.StatusOK)
	})

	rec := serveAuth(stubSessionVerifier{live: map[string]bool{"access-1": true}}, "Bearer "+token, next)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, enums.UserRoleStaff, got.Role)
	assert.Equal(t, "access-1", got.AccessID)
}

func TestAuthAcceptsTokenWithoutScheme(t *testing.T) {
	token := mintToken(t, uuid.New(), enums.UserRoleAdmin, "access-2")
	rec := serveAuth(stubSessionVerifier{live: map[string]bool{"access-2": true}}, token, okHandler())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token := mintToken(t, uuid.New(), enums.UserRoleStaff, "revoked")
	rec := serveAuth(stubSessionVerifier{live: map[string]bool{}}, "Bearer "+token, okHandler())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthSessionStoreFailure(t *testing.T) {
	token := mintToken(t, uuid.New(), enums.UserRoleStaff, "access-3")
	rec := serveAuth(stubSessionVerifier{err: errors.New("redis down")}, "Bearer "+token, okHandler())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthReportsExpiredToken(t *testing.T) {
	token, err := pkgAuth.MintAccessToken(testJWTConfig, time.Now().Add(-time.Hour), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.UserRoleStaff,
		JTI:    "stale",
	})
	require.NoError(t, err)

	rec := serveAuth(stubSessionVerifier{live: map[string]bool{"stale": true}}, "Bearer "+token, okHandler())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token expired")
	assert.Equal(t, `Bearer realm="medstock"`, rec.Header().Get("WWW-Authenticate"))
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name   string
		ctx    func(context.Context) context.Context
		status int
	}{
		{"anonymous", func(ctx context.Context) context.Context { return ctx }, http.StatusUnauthorized},
		{"staff", func(ctx context.Context) context.Context {
			return WithPrincipal(ctx, Principal{UserID: uuid.New(), Role: enums.UserRoleStaff})
		}, http.StatusForbidden},
		{"admin", func(ctx context.Context) context.Context {
			return WithPrincipal(ctx, Principal{UserID: uuid.New(), Role: enums.UserRoleAdmin})
		}, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/inventory/x", nil)
			req = req.WithContext(tc.ctx(req.Context()))
			rec := httptest.NewRecorder()
			RequireRole(nil, enums.UserRoleAdmin)(okHandler()).ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
