package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giftlab/giftserve/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service issues, verifies, refreshes and revokes tokens. Tokens are
// self-contained: nothing is stored server-side except blacklist entries
// for explicitly revoked tokens.
type Service interface {
	CreateAccessToken(userID int64, username string) (string, error)
	CreateRefreshToken(userID int64, username string) (string, error)
	Verify(ctx context.Context, tokenString string) (*Claims, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Revoke(ctx context.Context, tokenString string) error
}

type tokenService struct {
	logger    *zap.Logger
	codec     *Codec
	blacklist Blacklist
	cfg       *config.JWTConfig
}

func NewService(logger *zap.Logger, codec *Codec, blacklist Blacklist, cfg *config.JWTConfig) Service {
	return &tokenService{
		logger:    logger,
		codec:     codec,
		blacklist: blacklist,
		cfg:       cfg,
	}
}

func (s *tokenService) CreateAccessToken(userID int64, username string) (string, error) {
	return s.create(userID, username, TypeAccess, s.cfg.AccessTTL)
}

func (s *tokenService) CreateRefreshToken(userID int64, username string) (string, error) {
	return s.create(userID, username, TypeRefresh, s.cfg.RefreshTTL)
}

func (s *tokenService) create(userID int64, username string, typ Type, ttl time.Duration) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &Claims{
		UserID:    userID,
		Username:  username,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := s.codec.Issue(claims)
	if err != nil {
		s.logger.Error("failed to sign token", zap.String("token_type", string(typ)), zap.Error(err))
		return "", err
	}
	return signed, nil
}

// Verify runs the cheap structural checks first and touches the
// revocation store only for tokens that are already known to be
// well-signed and unexpired.
func (s *tokenService) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	claims, err := s.codec.Decode(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.Contains(ctx, tokenString)
	if err != nil {
		s.logger.Error("blacklist lookup failed", zap.Error(err))
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if revoked {
		return nil, ErrRevoked
	}

	return claims, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// presented token must verify and carry the refresh type; an access token
// is rejected, never silently accepted.
func (s *tokenService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.Verify(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return "", err
		}
		return "", ErrInvalidRefreshToken
	}
	if claims.TokenType != TypeRefresh {
		return "", ErrInvalidRefreshToken
	}
	return s.CreateAccessToken(claims.UserID, claims.Username)
}

// Revoke blacklists a token for its remaining lifetime. Tokens that no
// longer decode, or have already expired, need no entry: they are invalid
// on their own and recording them would only grow the store.
func (s *tokenService) Revoke(ctx context.Context, tokenString string) error {
	claims, err := s.codec.Decode(tokenString)
	if err != nil {
		s.logger.Debug("revoke skipped for undecodable token", zap.Error(err))
		return nil
	}

	remaining := claims.Remaining(time.Now().UTC())
	if remaining <= 0 {
		s.logger.Debug("revoke skipped for expired token", zap.Int64("user_id", claims.UserID))
		return nil
	}

	if err := s.blacklist.Add(ctx, tokenString, remaining); err != nil {
		s.logger.Warn("failed to blacklist token", zap.Int64("user_id", claims.UserID), zap.Error(err))
		return err
	}
	return nil
}
