package auth

import (
	"context"
	"errors"
	"time"

	"github.com/giftlab/giftserve/internal/token"
	"github.com/giftlab/giftserve/internal/user"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type LoginType string

const (
	LoginByUsername LoginType = "username"
	LoginByPhone    LoginType = "phone"
)

type LoginResult struct {
	User         *user.User
	AccessToken  string
	RefreshToken string
}

type Service interface {
	Register(ctx context.Context, dto RegisterDTO) (*user.User, error)
	Login(ctx context.Context, loginType LoginType, identifier, password string) (*LoginResult, error)
	Logout(ctx context.Context, tokenString string) error
}

type RegisterDTO struct {
	Username    string
	Password    string
	UserIcon    string
	Age         *int16
	Birthday    *time.Time
	Gender      user.Gender
	PhoneNumber string
}

type authService struct {
	logger *zap.Logger
	users  user.Repo
	tokens token.Service
}

func NewService(logger *zap.Logger, users user.Repo, tokens token.Service) Service {
	return &authService{
		logger: logger,
		users:  users,
		tokens: tokens,
	}
}

func (a *authService) Register(ctx context.Context, dto RegisterDTO) (*user.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		a.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	return a.users.Create(ctx, user.CreateDTO{
		Username:    dto.Username,
		Password:    string(hashed),
		UserIcon:    dto.UserIcon,
		Age:         dto.Age,
		Birthday:    dto.Birthday,
		Gender:      dto.Gender,
		PhoneNumber: dto.PhoneNumber,
	})
}

func (a *authService) Login(ctx context.Context, loginType LoginType, identifier, password string) (*LoginResult, error) {
	var u *user.User
	var err error
	switch loginType {
	case LoginByPhone:
		u, err = a.users.GetByPhone(ctx, identifier)
	default:
		u, err = a.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.IsDeleted {
		return nil, ErrUserDisabled
	}

	access, err := a.tokens.CreateAccessToken(u.UserID, u.Username)
	if err != nil {
		return nil, err
	}
	refresh, err := a.tokens.CreateRefreshToken(u.UserID, u.Username)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes the presented token. A failed revoke is logged and
// swallowed: the token still expires on its own, and logout must not
// fail because the revocation store hiccuped.
func (a *authService) Logout(ctx context.Context, tokenString string) error {
	if err := a.tokens.Revoke(ctx, tokenString); err != nil {
		a.logger.Warn("logout revoke failed", zap.Error(err))
	}
	return nil
}
