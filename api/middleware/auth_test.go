package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatepasshq/gatepass-backend/pkg/config"
)

const testSecret = "unit-test-secret"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{JWTSecret: testSecret, Issuer: "https://id.example.com"}
}

func signToken(t *testing.T, claims identityClaims, secret string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() identityClaims {
	return identityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ext_user_42",
			Issuer:    "https://id.example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: "user@example.com",
		Name:  "User FortyTwo",
	}
}

func authedHandler(t *testing.T, captured *Identity) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuth_ValidTokenSeedsIdentity(t *testing.T) {
	var identity Identity
	handler := Auth(testAuthConfig(), nil)(authedHandler(t, &identity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(), testSecret))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ext_user_42", identity.ExternalID)
	assert.Equal(t, "user@example.com", identity.Email)
	assert.Equal(t, "User FortyTwo", identity.Name)
}

func TestAuth_MissingHeader(t *testing.T) {
	var identity Identity
	handler := Auth(testAuthConfig(), nil)(authedHandler(t, &identity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_WrongSecret(t *testing.T) {
	var identity Identity
	handler := Auth(testAuthConfig(), nil)(authedHandler(t, &identity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(), "other-secret"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ExpiredToken(t *testing.T) {
	var identity Identity
	handler := Auth(testAuthConfig(), nil)(authedHandler(t, &identity))

	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims, testSecret))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_WrongIssuer(t *testing.T) {
	var identity Identity
	handler := Auth(testAuthConfig(), nil)(authedHandler(t, &identity))

	claims := validClaims()
	claims.Issuer = "https://evil.example.com"

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims, testSecret))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_MissingSubject(t *testing.T) {
	var identity Identity
	handler := Auth(testAuthConfig(), nil)(authedHandler(t, &identity))

	claims := validClaims()
	claims.Subject = ""

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims, testSecret))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
