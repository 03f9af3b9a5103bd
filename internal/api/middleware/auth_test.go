package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-test-secret-test-secret!"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func authProbe(t *testing.T, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	SetJWTSecret(testSecret)
	SetJWTValidation("tenmo-ledger", "tenmo-api")

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/transfers", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	AuthMiddleware(next).ServeHTTP(rec, req)
	return rec, gotUserID
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	userID := uuid.New().String()
	token := signToken(t, jwt.MapClaims{
		"user_id": userID,
		"role":    "user",
		"sub":     userID,
		"iss":     "tenmo-ledger",
		"aud":     "tenmo-api",
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec, gotUserID := authProbe(t, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, gotUserID)
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	rec, _ := authProbe(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareBadFormat(t *testing.T) {
	rec, _ := authProbe(t, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	userID := uuid.New().String()
	token := signToken(t, jwt.MapClaims{
		"user_id": userID,
		"sub":     userID,
		"iss":     "tenmo-ledger",
		"aud":     "tenmo-api",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	rec, _ := authProbe(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareWrongIssuer(t *testing.T) {
	userID := uuid.New().String()
	token := signToken(t, jwt.MapClaims{
		"user_id": userID,
		"sub":     userID,
		"iss":     "someone-else",
		"aud":     "tenmo-api",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec, _ := authProbe(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareSubjectMismatch(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"user_id": uuid.New().String(),
		"sub":     uuid.New().String(),
		"iss":     "tenmo-ledger",
		"aud":     "tenmo-api",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec, _ := authProbe(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareMissingUserIDClaim(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"iss": "tenmo-ledger",
		"aud": "tenmo-api",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec, _ := authProbe(t, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
