package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-0123456789abcdef"

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, "HS256")
	require.NoError(t, err)
	return c
}

func testClaims(typ Type, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		UserID:    10001,
		Username:  "alice",
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "giftserve-test",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        "test-jti",
		},
	}
}

func TestNewCodec(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		algorithm string
		wantErr   bool
	}{
		{"valid HS256", testSecret, "HS256", false},
		{"valid HS512", testSecret, "HS512", false},
		{"default algorithm", testSecret, "", false},
		{"empty secret", "", "HS256", true},
		{"asymmetric algorithm rejected", testSecret, "RS256", true},
		{"unknown algorithm", testSecret, "HS999", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCodec(tt.secret, tt.algorithm)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	issued := testClaims(TypeAccess, time.Hour)
	tokenString, err := codec.Issue(issued)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	decoded, err := codec.Decode(tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(10001), decoded.UserID)
	assert.Equal(t, "alice", decoded.Username)
	assert.Equal(t, TypeAccess, decoded.TokenType)
	assert.True(t, decoded.ExpiresAt.After(decoded.IssuedAt.Time))
}

func TestCodecDecodeExpired(t *testing.T) {
	codec := newTestCodec(t)

	tokenString, err := codec.Issue(testClaims(TypeAccess, -time.Minute))
	require.NoError(t, err)

	claims, err := codec.Decode(tokenString)
	assert.Nil(t, claims)
	// well-signed but stale must surface as expired, never malformed
	assert.ErrorIs(t, err, ErrExpired)
}

func TestCodecDecodeWrongKey(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec("another-secret-key-fedcba9876543210", "HS256")
	require.NoError(t, err)

	tokenString, err := other.Issue(testClaims(TypeAccess, time.Hour))
	require.NoError(t, err)

	claims, err := codec.Decode(tokenString)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestCodecDecodeMalformed(t *testing.T) {
	codec := newTestCodec(t)

	tests := []struct {
		name  string
		input string
	}{
		{"garbage", "definitely-not-a-jwt"},
		{"empty", ""},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := codec.Decode(tt.input)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestCodecRejectsAlgorithmSubstitution(t *testing.T) {
	codec := newTestCodec(t)

	hs512, err := NewCodec(testSecret, "HS512")
	require.NoError(t, err)
	tokenString, err := hs512.Issue(testClaims(TypeAccess, time.Hour))
	require.NoError(t, err)

	_, err = codec.Decode(tokenString)
	assert.Error(t, err)
}
