package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/giftlab/giftserve/internal/httpx"
	"github.com/giftlab/giftserve/internal/token"
	"go.uber.org/zap"
)

const authTokenHeader = "X-Auth-Token"

// Middleware authenticates every request whose path is not whitelisted.
// A request either passes through with an Identity in its context or is
// rejected with the error envelope; there is no anonymous fallback.
type Middleware struct {
	logger    *zap.Logger
	tokens    token.Service
	whitelist *Whitelist
}

func NewMiddleware(logger *zap.Logger, tokens token.Service, whitelist *Whitelist) *Middleware {
	return &Middleware{
		logger:    logger,
		tokens:    tokens,
		whitelist: whitelist,
	}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.whitelist.IsExempt(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		tokenString := ExtractToken(r)
		if tokenString == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "authentication token not provided")
			return
		}

		claims, err := m.tokens.Verify(r.Context(), tokenString)
		if err != nil {
			m.reject(w, r, err)
			return
		}

		identity := &Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
			Claims:   claims,
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// reject maps a verification failure to one of a fixed set of user-facing
// messages. Internal error detail never reaches the caller.
func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, token.ErrExpired):
		httpx.WriteError(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, token.ErrRevoked):
		httpx.WriteError(w, http.StatusUnauthorized, "token revoked")
	case errors.Is(err, token.ErrSignatureInvalid), errors.Is(err, token.ErrMalformed):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, token.ErrNoToken):
		httpx.WriteError(w, http.StatusUnauthorized, "authentication token not provided")
	default:
		m.logger.Error("token verification failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ExtractToken pulls the credential from a request. Sources are checked
// in a fixed order and the first hit wins: the Authorization header with
// a Bearer scheme, the Authorization header with a Token scheme, the
// X-Auth-Token header, and finally the token query parameter.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if v, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	if v, ok := strings.CutPrefix(authHeader, "Token "); ok {
		return strings.TrimSpace(v)
	}
	if v := r.Header.Get(authTokenHeader); v != "" {
		return strings.TrimSpace(v)
	}
	return r.URL.Query().Get("token")
}
