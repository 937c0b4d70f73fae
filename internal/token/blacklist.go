package token

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"time"
)

// Blacklist records revoked tokens until their natural expiry. It is read
// on every authenticated request and written on logout, so implementations
// must be safe for concurrent use.
type Blacklist interface {
	// Add records a token as revoked for the given ttl. ttl must be
	// positive: an entry must never outlive the token it blacklists.
	Add(ctx context.Context, tokenString string, ttl time.Duration) error
	// Contains reports whether the token is currently blacklisted.
	Contains(ctx context.Context, tokenString string) (bool, error)
}

// hashToken derives the storage key for a token so raw credentials never
// land in the store.
func hashToken(tokenString string) string {
	h := sha256.Sum256([]byte(tokenString))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
