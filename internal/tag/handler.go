package tag

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/giftlab/giftserve/internal/httpx"
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
	logger    *zap.Logger
	tags      Repo
	relations RelationshipRepo
	users     user.Repo
	validator *validator.Validate
}

func NewHandler(tags Repo, relations RelationshipRepo, users user.Repo, l *zap.Logger) Handler {
	return &handler{
		logger:    l,
		tags:      tags,
		relations: relations,
		users:     users,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *handler) Register(r chi.Router) {
	r.Get("/tags", h.ListTags)
	r.Post("/tags", h.CreateTag)
	r.Get("/tags/{tagID}", h.GetTag)
	r.Put("/tags/{tagID}", h.UpdateTag)
	r.Patch("/tags/{tagID}", h.UpdateTag)
	r.Delete("/tags/{tagID}", h.DeleteTag)
	r.Get("/tags/{tagID}/users", h.TagUsers)

	r.Get("/user-tag-relationships", h.ListRelationships)
	r.Post("/user-tag-relationships", h.CreateRelationship)
	r.Get("/user-tag-relationships/{relationID}", h.GetRelationship)
	r.Put("/user-tag-relationships/{relationID}", h.UpdateRelationship)
	r.Delete("/user-tag-relationships/{relationID}", h.DeleteRelationship)

	r.Get("/users/{userID}/tags", h.UserTags)
}

func (h *handler) ListTags(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	filter := ParseFilter(r)
	params := httpx.ParsePageParams(r)

	tags, total, err := h.tags.List(ctx, filter, ParseOrdering(r), params)
	if err != nil {
		h.logger.Error("failed to list tags", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "tags listed", httpx.NewPageData(tags, total, params))
}

type createTagRequest struct {
	TagType     string `json:"tag_type"    validate:"omitempty,oneof=skill interest system custom"`
	TagName     string `json:"tag_name"    validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	IsActive    *bool  `json:"is_active"`
}

func (h *handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req createTagRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteErrorDetails(w, http.StatusBadRequest, "validation failed", httpx.ValidationDetails(err))
		return
	}

	tagType := TypeCustom
	if req.TagType != "" {
		tagType = TagType(req.TagType)
	}

	created, err := h.tags.Create(ctx, CreateTagDTO{
		TagType:     tagType,
		TagName:     req.TagName,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateName) {
			httpx.WriteError(w, http.StatusConflict, "tag name already exists")
			return
		}
		h.logger.Error("failed to create tag", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, "tag created", created)
}

func (h *handler) GetTag(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	tagID, ok := pathID(w, r, "tagID")
	if !ok {
		return
	}

	t, err := h.tags.GetByID(ctx, tagID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "tag not found")
			return
		}
		h.logger.Error("failed to get tag", zap.Int64("tag_id", tagID), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "tag retrieved", t)
}

type updateTagRequest struct {
	TagType     *string `json:"tag_type"    validate:"omitempty,oneof=skill interest system custom"`
	TagName     *string `json:"tag_name"    validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

func (h *handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	tagID, ok := pathID(w, r, "tagID")
	if !ok {
		return
	}

	var req updateTagRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteErrorDetails(w, http.StatusBadRequest, "validation failed", httpx.ValidationDetails(err))
		return
	}

	dto := UpdateTagDTO{
		TagName:     req.TagName,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if req.TagType != nil {
		t := TagType(*req.TagType)
		dto.TagType = &t
	}
	if dto.Empty() {
		httpx.WriteError(w, http.StatusBadRequest, "at least one updatable field is required")
		return
	}

	updated, err := h.tags.Update(ctx, tagID, dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "tag not found")
		case errors.Is(err, ErrDuplicateName):
			httpx.WriteError(w, http.StatusConflict, "tag name already exists")
		default:
			h.logger.Error("failed to update tag", zap.Int64("tag_id", tagID), zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "tag updated", updated)
}

func (h *handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	tagID, ok := pathID(w, r, "tagID")
	if !ok {
		return
	}

	if err := h.tags.Deactivate(ctx, tagID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "tag not found")
		case errors.Is(err, ErrSystemTag):
			httpx.WriteError(w, http.StatusForbidden, "system tags cannot be deleted")
		default:
			h.logger.Error("failed to delete tag", zap.Int64("tag_id", tagID), zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "tag deleted", nil)
}

func (h *handler) ListRelationships(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	filter := ParseRelationshipFilter(r)
	params := httpx.ParsePageParams(r)

	h.writeRelationshipPage(ctx, w, filter, params)
}

type createRelationshipRequest struct {
	UserID      int64    `json:"user_id"              validate:"required,gt=0"`
	TagID       int64    `json:"tag_id"               validate:"required,gt=0"`
	Weight      *float64 `json:"weight"               validate:"omitempty,gte=0,lte=1"`
	Status      *bool    `json:"status"`
	Description string   `json:"relation_description" validate:"omitempty,max=300"`
}

func (h *handler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var req createRelationshipRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteErrorDetails(w, http.StatusBadRequest, "validation failed", httpx.ValidationDetails(err))
		return
	}

	created, err := h.relations.Create(ctx, CreateRelationshipDTO{
		UserID:      req.UserID,
		TagID:       req.TagID,
		Weight:      req.Weight,
		Status:      req.Status,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateRelation):
			httpx.WriteError(w, http.StatusConflict, "user already carries this tag")
		case errors.Is(err, ErrDanglingUser):
			httpx.WriteError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, ErrDanglingTag):
			httpx.WriteError(w, http.StatusNotFound, "tag not found")
		default:
			h.logger.Error("failed to create relationship", zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, "user-tag relationship created", created)
}

func (h *handler) GetRelationship(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	relationID, ok := pathID(w, r, "relationID")
	if !ok {
		return
	}

	v, err := h.relations.GetByID(ctx, relationID)
	if err != nil {
		if errors.Is(err, ErrRelationNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "user-tag relationship not found")
			return
		}
		h.logger.Error("failed to get relationship", zap.Int64("relation_id", relationID), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "user-tag relationship retrieved", v)
}

type updateRelationshipRequest struct {
	Weight      *float64 `json:"weight"               validate:"omitempty,gte=0,lte=1"`
	Status      *bool    `json:"status"`
	Description *string  `json:"relation_description" validate:"omitempty,max=300"`
}

func (h *handler) UpdateRelationship(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	relationID, ok := pathID(w, r, "relationID")
	if !ok {
		return
	}

	var req updateRelationshipRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteErrorDetails(w, http.StatusBadRequest, "validation failed", httpx.ValidationDetails(err))
		return
	}

	dto := UpdateRelationshipDTO{
		Weight:      req.Weight,
		Status:      req.Status,
		Description: req.Description,
	}
	if dto.Empty() {
		httpx.WriteError(w, http.StatusBadRequest, "at least one updatable field is required")
		return
	}

	updated, err := h.relations.Update(ctx, relationID, dto)
	if err != nil {
		if errors.Is(err, ErrRelationNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "user-tag relationship not found")
			return
		}
		h.logger.Error("failed to update relationship", zap.Int64("relation_id", relationID), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "user-tag relationship updated", updated)
}

func (h *handler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	relationID, ok := pathID(w, r, "relationID")
	if !ok {
		return
	}

	if err := h.relations.Delete(ctx, relationID); err != nil {
		if errors.Is(err, ErrRelationNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "user-tag relationship not found")
			return
		}
		h.logger.Error("failed to delete relationship", zap.Int64("relation_id", relationID), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "user-tag relationship deleted", nil)
}

// UserTags lists a user's active tag relationships. The user must exist
// even if they currently carry no tags.
func (h *handler) UserTags(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	if _, err := h.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("failed to check user", zap.Int64("user_id", userID), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	active := true
	filter := ParseRelationshipFilter(r)
	filter.UserID = &userID
	filter.Status = &active

	h.writeRelationshipPage(ctx, w, filter, httpx.ParsePageParams(r))
}

// TagUsers lists the active relationships of one tag.
func (h *handler) TagUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	tagID, ok := pathID(w, r, "tagID")
	if !ok {
		return
	}
	if _, err := h.tags.GetByID(ctx, tagID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "tag not found")
			return
		}
		h.logger.Error("failed to check tag", zap.Int64("tag_id", tagID), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	active := true
	filter := ParseRelationshipFilter(r)
	filter.TagID = &tagID
	filter.Status = &active

	h.writeRelationshipPage(ctx, w, filter, httpx.ParsePageParams(r))
}

func (h *handler) writeRelationshipPage(ctx context.Context, w http.ResponseWriter, f RelationshipFilter, params httpx.PageParams) {
	views, total, err := h.relations.List(ctx, f, params)
	if err != nil {
		h.logger.Error("failed to list relationships", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, "user-tag relationships listed", httpx.NewPageData(views, total, params))
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid "+param)
		return 0, false
	}
	return id, true
}
