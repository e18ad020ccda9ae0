package handlers

import (
	"errors"
	"net/http"

	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
	authsvc "github.com/GarryCodespace/xFood-Web/internal/services/auth"
	circlessvc "github.com/GarryCodespace/xFood-Web/internal/services/circles"
	"github.com/GarryCodespace/xFood-Web/internal/transport/http/dto"
	httperrors "github.com/GarryCodespace/xFood-Web/internal/transport/http/errors"
)

type CircleHandler struct {
	service *circlessvc.Service
}

func NewCircleHandler(service *circlessvc.Service) *CircleHandler {
	return &CircleHandler{service: service}
}

func (h *CircleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CIRCLE_SERVICE_UNAVAILABLE", "circle service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.CreateCircleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	circle, err := h.service.Create(r.Context(), model.Circle{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Location:    req.Location,
		Tags:        req.Tags,
		IsPublic:    req.IsPublic,
		CreatedBy:   identity.UserID,
	})
	if err != nil {
		handleCircleError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, circle)
}

func (h *CircleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CIRCLE_SERVICE_UNAVAILABLE", "circle service is unavailable")
		return
	}
	circleID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid circle id")
		return
	}

	var viewerID int64
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		viewerID = identity.UserID
	}

	circle, err := h.service.Get(r.Context(), viewerID, circleID)
	if err != nil {
		handleCircleError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, circle)
}

func (h *CircleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CIRCLE_SERVICE_UNAVAILABLE", "circle service is unavailable")
		return
	}

	limit, offset := pagination(r)
	circles, err := h.service.ListPublic(r.Context(), limit, offset)
	if err != nil {
		handleCircleError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CircleListResponse{Circles: circles})
}

func (h *CircleHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CIRCLE_SERVICE_UNAVAILABLE", "circle service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	circles, err := h.service.ListMine(r.Context(), identity.UserID)
	if err != nil {
		handleCircleError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CircleListResponse{Circles: circles})
}

func (h *CircleHandler) Join(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CIRCLE_SERVICE_UNAVAILABLE", "circle service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	circleID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid circle id")
		return
	}

	if err := h.service.Join(r.Context(), circleID, identity.UserID); err != nil {
		handleCircleError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MembershipResponse{OK: true})
}

func (h *CircleHandler) Leave(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CIRCLE_SERVICE_UNAVAILABLE", "circle service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	circleID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid circle id")
		return
	}

	if err := h.service.Leave(r.Context(), circleID, identity.UserID); err != nil {
		handleCircleError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MembershipResponse{OK: true})
}

func handleCircleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, circlessvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, circlessvc.ErrCircleNotFound):
		writeNotFound(w, "CIRCLE_NOT_FOUND", "circle not found")
	case errors.Is(err, circlessvc.ErrAlreadyMember):
		writeConflict(w, "ALREADY_MEMBER", "already a member of this circle")
	case errors.Is(err, circlessvc.ErrNotMember):
		writeConflict(w, "NOT_MEMBER", "not a member of this circle")
	case errors.Is(err, circlessvc.ErrPrivateCircle):
		writeForbidden(w, "PRIVATE_CIRCLE", "circle is private")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
