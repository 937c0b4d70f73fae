package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Codec signs and parses claims with a single process-wide HMAC secret.
// The algorithm and secret come from configuration and never change at
// runtime.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
}

func NewCodec(secret, algorithm string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is not set")
	}
	if algorithm == "" {
		algorithm = "HS256"
	}
	if !strings.HasPrefix(algorithm, "HS") {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	return &Codec{secret: []byte(secret), method: method}, nil
}

func (c *Codec) Issue(claims *Claims) (string, error) {
	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// Decode parses and verifies a token string. It either returns fully
// populated claims or exactly one of ErrMalformed, ErrSignatureInvalid
// and ErrExpired. The signature is verified before any claim is read, so
// an expired but well-signed token yields ErrExpired, never ErrMalformed.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
	)

	var claims Claims
	tkn, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrMalformed
		}
	}
	if !tkn.Valid {
		return nil, ErrMalformed
	}
	return &claims, nil
}
