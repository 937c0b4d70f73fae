package token

import "errors"

var (
	ErrNoToken             = errors.New("no token provided")
	ErrMalformed           = errors.New("malformed token")
	ErrSignatureInvalid    = errors.New("invalid token signature")
	ErrExpired             = errors.New("token expired")
	ErrRevoked             = errors.New("token revoked")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrStoreUnavailable    = errors.New("revocation store unavailable")
)
