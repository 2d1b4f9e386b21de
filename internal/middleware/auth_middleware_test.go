package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myflix-api/pkg/jwt"
)

type secretValidator struct {
	secret string
}

func (v secretValidator) ValidateToken(token string) (*jwt.Claims, error) {
	return jwt.ValidateToken(token, v.secret)
}

type rejectAll struct{}

func (rejectAll) ValidateToken(string) (*jwt.Claims, error) {
	return nil, errors.New("rejected")
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "middleware-secret"

	valid, err := jwt.GenerateToken("user-1", "alice01", time.Hour, secret)
	require.NoError(t, err)
	expired, err := jwt.GenerateToken("user-1", "alice01", -time.Hour, secret)
	require.NoError(t, err)

	var gotUsername, gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUsername = GetUsername(r)
		gotUserID = GetUserID(r)
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware(secretValidator{secret: secret})(next)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid token", header: "Bearer " + valid, want: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + valid, want: http.StatusOK},
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, want: http.StatusUnauthorized},
		{name: "no token", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expired, want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not.a.token", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUsername, gotUserID = "", ""

			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "alice01", gotUsername)
				assert.Equal(t, "user-1", gotUserID)
			} else {
				assert.Equal(t, "Unauthorized", rec.Body.String())
				assert.Empty(t, gotUsername)
			}
		})
	}
}

func TestAuthMiddleware_ValidatorRejects(t *testing.T) {
	called := false
	handler := AuthMiddleware(rejectAll{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestGetUsername_NoContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetUsername(req))
	assert.Empty(t, GetUserID(req))
}
