package auth

import (
	"context"

	"github.com/giftlab/giftserve/internal/token"
)

// Identity is the verified principal attached to a request after the
// middleware accepts it. It lives only for the duration of the request.
//
// UserID is the sole authoritative identity key. Username is denormalized
// from the token for display; authorization-sensitive logic must re-fetch
// user attributes from the database instead of trusting it.
type Identity struct {
	UserID   int64
	Username string
	Claims   *token.Claims
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity set by the middleware, if any.
// Handlers must use this instead of re-decoding tokens.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok
}
