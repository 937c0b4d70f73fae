package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giftlab/giftserve/internal/config"
	"github.com/giftlab/giftserve/internal/httpx"
	"github.com/giftlab/giftserve/internal/token"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-key-0123456789abcdef"

type middlewareFixture struct {
	tokens  token.Service
	handler http.Handler

	reached      bool
	seenIdentity *Identity
}

func newMiddlewareFixture(t *testing.T, blacklist token.Blacklist) *middlewareFixture {
	t.Helper()

	codec, err := token.NewCodec(testSecret, "HS256")
	require.NoError(t, err)
	tokens := token.NewService(zap.NewNop(), codec, blacklist, &config.JWTConfig{
		Secret:     testSecret,
		Algorithm:  "HS256",
		Issuer:     "giftserve-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})

	whitelist, err := NewWhitelist([]string{"/api/login", "/api/register/", "^/media/"})
	require.NoError(t, err)

	f := &middlewareFixture{tokens: tokens}
	downstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.reached = true
		if id, ok := IdentityFrom(r.Context()); ok {
			f.seenIdentity = id
		}
		w.WriteHeader(http.StatusOK)
	})
	f.handler = NewMiddleware(zap.NewNop(), tokens, whitelist).Handler(downstream)
	return f
}

func newTestBlacklist(t *testing.T) *token.MemoryBlacklist {
	t.Helper()
	b := token.NewMemoryBlacklist(time.Minute)
	t.Cleanup(b.Close)
	return b
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) httpx.Response {
	t.Helper()
	var resp httpx.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestMiddlewareExemptPathPassesThrough(t *testing.T) {
	f := newMiddlewareFixture(t, newTestBlacklist(t))

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/login", nil))

	assert.True(t, f.reached)
	assert.Nil(t, f.seenIdentity)
}

func TestMiddlewareOptionsPassesThrough(t *testing.T) {
	f := newMiddlewareFixture(t, newTestBlacklist(t))

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/users", nil))

	assert.True(t, f.reached)
}

func TestMiddlewareNoToken(t *testing.T) {
	f := newMiddlewareFixture(t, newTestBlacklist(t))

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	assert.False(t, f.reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.NotEmpty(t, resp.Message)
}

func TestMiddlewareValidTokenSetsIdentity(t *testing.T) {
	f := newMiddlewareFixture(t, newTestBlacklist(t))

	tokenString, err := f.tokens.CreateAccessToken(10001, "alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.True(t, f.reached)
	require.NotNil(t, f.seenIdentity)
	assert.Equal(t, int64(10001), f.seenIdentity.UserID)
	assert.Equal(t, "alice", f.seenIdentity.Username)
	require.NotNil(t, f.seenIdentity.Claims)
	assert.Equal(t, token.TypeAccess, f.seenIdentity.Claims.TokenType)
}

func TestMiddlewareTokenSources(t *testing.T) {
	tests := []struct {
		name    string
		setAuth func(r *http.Request, tokenString string)
	}{
		{"bearer header", func(r *http.Request, s string) {
			r.Header.Set("Authorization", "Bearer "+s)
		}},
		{"token scheme header", func(r *http.Request, s string) {
			r.Header.Set("Authorization", "Token "+s)
		}},
		{"custom header", func(r *http.Request, s string) {
			r.Header.Set("X-Auth-Token", s)
		}},
		{"query parameter", func(r *http.Request, s string) {
			q := r.URL.Query()
			q.Set("token", s)
			r.URL.RawQuery = q.Encode()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMiddlewareFixture(t, newTestBlacklist(t))
			tokenString, err := f.tokens.CreateAccessToken(10001, "alice")
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			tt.setAuth(req, tokenString)
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, req)

			assert.True(t, f.reached)
			require.NotNil(t, f.seenIdentity)
			assert.Equal(t, int64(10001), f.seenIdentity.UserID)
		})
	}
}

func TestMiddlewareHeaderBeatsQueryParameter(t *testing.T) {
	f := newMiddlewareFixture(t, newTestBlacklist(t))

	valid, err := f.tokens.CreateAccessToken(10001, "alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users?token="+valid, nil)
	req.Header.Set("X-Auth-Token", "garbage")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	// the header is consulted first, so the garbage wins
	assert.False(t, f.reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func expiredClaims() *token.Claims {
	issued := time.Now().Add(-2 * time.Hour)
	return &token.Claims{
		UserID:    10001,
		Username:  "alice",
		TokenType: token.TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "giftserve-test",
			Subject:   "10001",
			ID:        "expired-token",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	}
}

func TestMiddlewareRejectsExpiredToken(t *testing.T) {
	f := newMiddlewareFixture(t, newTestBlacklist(t))

	codec, err := token.NewCodec(testSecret, "HS256")
	require.NoError(t, err)
	expired, err := codec.Issue(expiredClaims())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.False(t, f.reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token expired", decodeEnvelope(t, rec).Message)
}

func TestMiddlewareRejectsRevokedToken(t *testing.T) {
	f := newMiddlewareFixture(t, newTestBlacklist(t))

	tokenString, err := f.tokens.CreateAccessToken(10001, "alice")
	require.NoError(t, err)
	require.NoError(t, f.tokens.Revoke(context.Background(), tokenString))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.False(t, f.reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token revoked", decodeEnvelope(t, rec).Message)
}

type failingBlacklist struct{}

func (failingBlacklist) Add(context.Context, string, time.Duration) error {
	return errors.New("connection refused")
}

func (failingBlacklist) Contains(context.Context, string) (bool, error) {
	return false, token.ErrStoreUnavailable
}

func TestMiddlewareStoreUnavailableIsServerFault(t *testing.T) {
	f := newMiddlewareFixture(t, failingBlacklist{})

	tokenString, err := f.tokens.CreateAccessToken(10001, "alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.False(t, f.reached)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	resp := decodeEnvelope(t, rec)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.False(t, resp.Success)
	// internal detail must not leak
	assert.Equal(t, "internal server error", resp.Message)
}
