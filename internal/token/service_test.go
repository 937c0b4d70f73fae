package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giftlab/giftserve/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, blacklist Blacklist) Service {
	t.Helper()
	codec, err := NewCodec(testSecret, "HS256")
	require.NoError(t, err)
	return NewService(zap.NewNop(), codec, blacklist, &config.JWTConfig{
		Secret:     testSecret,
		Algorithm:  "HS256",
		Issuer:     "giftserve-test",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	})
}

func newTestBlacklist(t *testing.T) *MemoryBlacklist {
	t.Helper()
	b := NewMemoryBlacklist(time.Minute)
	t.Cleanup(b.Close)
	return b
}

func TestServiceVerifyAfterCreate(t *testing.T) {
	svc := newTestService(t, newTestBlacklist(t))
	ctx := context.Background()

	tokenString, err := svc.CreateAccessToken(10001, "alice")
	require.NoError(t, err)

	claims, err := svc.Verify(ctx, tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(10001), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, TypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
}

func TestServiceVerifyNoToken(t *testing.T) {
	svc := newTestService(t, newTestBlacklist(t))

	_, err := svc.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestServiceRevoke(t *testing.T) {
	svc := newTestService(t, newTestBlacklist(t))
	ctx := context.Background()

	revokedToken, err := svc.CreateAccessToken(10001, "alice")
	require.NoError(t, err)
	untouchedToken, err := svc.CreateAccessToken(10001, "alice")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, revokedToken))

	_, err = svc.Verify(ctx, revokedToken)
	assert.ErrorIs(t, err, ErrRevoked)

	// a different valid token for the same user stays verifiable
	claims, err := svc.Verify(ctx, untouchedToken)
	require.NoError(t, err)
	assert.Equal(t, int64(10001), claims.UserID)
}

func TestServiceRevokeExpiredTokenIsNoop(t *testing.T) {
	blacklist := newTestBlacklist(t)
	svc := newTestService(t, blacklist)
	ctx := context.Background()

	codec, err := NewCodec(testSecret, "HS256")
	require.NoError(t, err)
	expired, err := codec.Issue(testClaims(TypeAccess, -time.Minute))
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, expired))
	assert.Equal(t, 0, blacklist.Len())
}

func TestServiceRevokeUndecodableTokenIsNoop(t *testing.T) {
	blacklist := newTestBlacklist(t)
	svc := newTestService(t, blacklist)

	require.NoError(t, svc.Revoke(context.Background(), "not-a-token"))
	assert.Equal(t, 0, blacklist.Len())
}

func TestServiceRefresh(t *testing.T) {
	svc := newTestService(t, newTestBlacklist(t))
	ctx := context.Background()

	refreshToken, err := svc.CreateRefreshToken(10001, "alice")
	require.NoError(t, err)

	accessToken, err := svc.Refresh(ctx, refreshToken)
	require.NoError(t, err)

	claims, err := svc.Verify(ctx, accessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(10001), claims.UserID)
	assert.Equal(t, TypeAccess, claims.TokenType)
}

func TestServiceRefreshRejectsAccessToken(t *testing.T) {
	svc := newTestService(t, newTestBlacklist(t))
	ctx := context.Background()

	accessToken, err := svc.CreateAccessToken(10001, "alice")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, accessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestServiceRefreshRejectsRevokedRefreshToken(t *testing.T) {
	svc := newTestService(t, newTestBlacklist(t))
	ctx := context.Background()

	refreshToken, err := svc.CreateRefreshToken(10001, "alice")
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(ctx, refreshToken))

	_, err = svc.Refresh(ctx, refreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestServiceRefreshRejectsGarbage(t *testing.T) {
	svc := newTestService(t, newTestBlacklist(t))

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

type failingBlacklist struct{}

func (failingBlacklist) Add(context.Context, string, time.Duration) error {
	return errors.New("connection refused")
}

func (failingBlacklist) Contains(context.Context, string) (bool, error) {
	return false, ErrStoreUnavailable
}

func TestServiceVerifyStoreUnavailable(t *testing.T) {
	svc := newTestService(t, failingBlacklist{})
	ctx := context.Background()

	tokenString, err := svc.CreateAccessToken(10001, "alice")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, tokenString)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestServiceRevokeStoreFailureSurfaces(t *testing.T) {
	svc := newTestService(t, failingBlacklist{})
	ctx := context.Background()

	tokenString, err := svc.CreateAccessToken(10001, "alice")
	require.NoError(t, err)

	assert.Error(t, svc.Revoke(ctx, tokenString))
}

func TestServiceStructurallyInvalidTokensSkipStore(t *testing.T) {
	// cheap checks run before the store is touched: a failing store must
	// not mask malformed or expired errors
	svc := newTestService(t, failingBlacklist{})
	ctx := context.Background()

	_, err := svc.Verify(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrMalformed)

	codec, err := NewCodec(testSecret, "HS256")
	require.NoError(t, err)
	expired, err := codec.Issue(testClaims(TypeAccess, -time.Minute))
	require.NoError(t, err)

	_, err = svc.Verify(ctx, expired)
	assert.ErrorIs(t, err, ErrExpired)
}
