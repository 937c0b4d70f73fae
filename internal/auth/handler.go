package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/giftlab/giftserve/internal/httpx"
	"github.com/giftlab/giftserve/internal/token"
	"github.com/giftlab/giftserve/internal/user"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const requestTimeout = 3 * time.Second

type Handler interface {
	Register(r chi.Router)
}

type handler struct {
	logger      *zap.Logger
	authService Service
	tokens      token.Service
	validator   *validator.Validate
}

func NewHandler(authService Service, tokens token.Service, l *zap.Logger) Handler {
	return &handler{
		logger:      l,
		authService: authService,
		tokens:      tokens,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *handler) Register(r chi.Router) {
	r.Post("/register", h.RegisterUser)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/refresh", h.Refresh)
}

type registerRequest struct {
	Username    string  `json:"username"     validate:"required,min=1,max=50"`
	Password    string  `json:"password"     validate:"required,min=6,max=72"`
	PhoneNumber string  `json:"phone_number" validate:"required,min=5,max=20"`
	UserIcon    string  `json:"user_icon"    validate:"omitempty"`
	Age         *int16  `json:"age"          validate:"omitempty,gte=0,lte=150"`
	Birthday    *string `json:"birthday"     validate:"omitempty,datetime=2006-01-02"`
	Gender      *int16  `json:"gender"       validate:"omitempty,oneof=0 1 2"`
}

func (h *handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req registerRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteErrorDetails(w, http.StatusBadRequest, "validation failed", httpx.ValidationDetails(err))
		return
	}

	dto := RegisterDTO{
		Username:    req.Username,
		Password:    req.Password,
		UserIcon:    req.UserIcon,
		Age:         req.Age,
		PhoneNumber: req.PhoneNumber,
	}
	if req.Gender != nil {
		dto.Gender = user.Gender(*req.Gender)
	}
	if req.Birthday != nil {
		b, err := time.Parse("2006-01-02", *req.Birthday)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "birthday must be formatted as YYYY-MM-DD")
			return
		}
		dto.Birthday = &b
	}

	created, err := h.authService.Register(ctx, dto)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateUsername):
			httpx.WriteError(w, http.StatusConflict, "username already exists")
		case errors.Is(err, user.ErrDuplicatePhone):
			httpx.WriteError(w, http.StatusConflict, "phone number already registered")
		default:
			h.logger.Error("failed to register user", zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, "registration successful", created)
}

type loginRequest struct {
	LoginType   string `json:"login_type"   validate:"required,oneof=username phone"`
	Username    string `json:"username"     validate:"omitempty,max=50"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
	Password    string `json:"password"     validate:"required"`
}

type loginResponse struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	LoginType    string `json:"login_type"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req loginRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteErrorDetails(w, http.StatusBadRequest, "validation failed", httpx.ValidationDetails(err))
		return
	}

	loginType := LoginType(req.LoginType)
	identifier := req.Username
	if loginType == LoginByPhone {
		identifier = req.PhoneNumber
	}
	if identifier == "" {
		httpx.WriteError(w, http.StatusBadRequest, "login identifier is required for the chosen login_type")
		return
	}

	result, err := h.authService.Login(ctx, loginType, identifier, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, "username/phone number or password incorrect")
		case errors.Is(err, ErrUserDisabled):
			httpx.WriteError(w, http.StatusForbidden, "user account disabled")
		default:
			h.logger.Error("login failed", zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "login successful", loginResponse{
		UserID:       result.User.UserID,
		Username:     result.User.Username,
		LoginType:    req.LoginType,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

// Logout revokes the token the request was authenticated with. The
// response is success even if the token was already invalid: there is
// nothing left for the client to do either way.
func (h *handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	tokenString := ExtractToken(r)
	if tokenString == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication token not provided")
		return
	}

	_ = h.authService.Logout(ctx, tokenString)
	httpx.WriteSuccess(w, http.StatusOK, "logout successful", nil)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req refreshRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteErrorDetails(w, http.StatusBadRequest, "validation failed", httpx.ValidationDetails(err))
		return
	}

	access, err := h.tokens.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrInvalidRefreshToken):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			h.logger.Error("token refresh failed", zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "token refreshed", map[string]string{"access_token": access})
}
