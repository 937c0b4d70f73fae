package user

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/giftlab/giftserve/internal/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const requestTimeout = 3 * time.Second

type Handler interface {
	Register(r chi.Router)
}

type handler struct {
	logger    *zap.Logger
	repo      Repo
	validator *validator.Validate
}

func NewHandler(repo Repo, l *zap.Logger) Handler {
	return &handler{
		logger:    l,
		repo:      repo,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *handler) Register(r chi.Router) {
	r.Get("/users", h.List)
	r.Post("/update", h.Update)
	r.Post("/updatepwd", h.UpdatePassword)
	r.Post("/delete", h.Delete)
	r.Post("/destroy", h.Destroy)
}

func (h *handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	filter := ParseFilter(r)
	params := httpx.ParsePageParams(r)

	users, total, err := h.repo.List(ctx, filter, params)
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "users listed", httpx.NewPageData(users, total, params))
}

type updateUserRequest struct {
	UserID      int64   `json:"user_id"      validate:"required,gt=0"`
	Username    *string `json:"username"     validate:"omitempty,min=1,max=50"`
	UserIcon    *string `json:"user_icon"`
	Age         *int16  `json:"age"          validate:"omitempty,gte=0,lte=150"`
	Birthday    *string `json:"birthday"     validate:"omitempty,datetime=2006-01-02"`
	Gender      *Gender `json:"gender"       validate:"omitempty,oneof=0 1 2"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,min=5,max=20"`
}

func (h *handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req updateUserRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteErrorDetails(w, http.StatusBadRequest, "validation failed", httpx.ValidationDetails(err))
		return
	}

	dto := UpdateDTO{
		Username:    req.Username,
		UserIcon:    req.UserIcon,
		Age:         req.Age,
		Gender:      req.Gender,
		PhoneNumber: req.PhoneNumber,
	}
	if req.Birthday != nil {
		b, err := time.Parse("2006-01-02", *req.Birthday)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "birthday must be formatted as YYYY-MM-DD")
			return
		}
		dto.Birthday = &b
	}
	if dto.Empty() {
		httpx.WriteError(w, http.StatusBadRequest, "at least one updatable field is required")
		return
	}

	updated, err := h.repo.Update(ctx, req.UserID, dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, ErrDuplicateUsername):
			httpx.WriteError(w, http.StatusConflict, "username already exists")
		case errors.Is(err, ErrDuplicatePhone):
			httpx.WriteError(w, http.StatusConflict, "phone number already registered")
		default:
			h.logger.Error("failed to update user", zap.Int64("user_id", req.UserID), zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "user updated", updated)
}

type updatePasswordRequest struct {
	UserID   int64  `json:"user_id"  validate:"required,gt=0"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (h *handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req updatePasswordRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteErrorDetails(w, http.StatusBadRequest, "validation failed", httpx.ValidationDetails(err))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.repo.UpdatePassword(ctx, req.UserID, string(hashed)); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("failed to update password", zap.Int64("user_id", req.UserID), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "password updated", map[string]int64{"user_id": req.UserID})
}

type userIDRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (h *handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.removeUser(w, r, h.repo.SoftDelete, "user deleted")
}

func (h *handler) Destroy(w http.ResponseWriter, r *http.Request) {
	h.removeUser(w, r, h.repo.Destroy, "user destroyed")
}

func (h *handler) removeUser(w http.ResponseWriter, r *http.Request, remove func(context.Context, int64) error, message string) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req userIDRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteErrorDetails(w, http.StatusBadRequest, "validation failed", httpx.ValidationDetails(err))
		return
	}

	if err := remove(ctx, req.UserID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("failed to remove user", zap.Int64("user_id", req.UserID), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, message, map[string]int64{"user_id": req.UserID})
}
