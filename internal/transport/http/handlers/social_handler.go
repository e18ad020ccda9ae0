package handlers

import (
	"errors"
	"net/http"

	socialsvc "github.com/GarryCodespace/xFood-Web/internal/services/social"
	"github.com/GarryCodespace/xFood-Web/internal/transport/http/dto"
	httperrors "github.com/GarryCodespace/xFood-Web/internal/transport/http/errors"
)

// SocialHandler serves the review, like and comment routes that hang off
// /items/{item_type}/{item_id}.
type SocialHandler struct {
	service *socialsvc.Service
}

func NewSocialHandler(service *socialsvc.Service) *SocialHandler {
	return &SocialHandler{service: service}
}

func (h *SocialHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "SOCIAL_SERVICE_UNAVAILABLE", "social service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	itemType, itemID, ok := itemParams(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid item reference")
		return
	}

	var req dto.CreateReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	review, err := h.service.CreateReview(r.Context(), identity.UserID, itemType, itemID, req.Rating, req.Comment)
	if err != nil {
		handleSocialError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, review)
}

func (h *SocialHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "SOCIAL_SERVICE_UNAVAILABLE", "social service is unavailable")
		return
	}
	itemType, itemID, ok := itemParams(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid item reference")
		return
	}

	limit, offset := pagination(r)
	reviews, err := h.service.ListReviews(r.Context(), itemType, itemID, limit, offset)
	if err != nil {
		handleSocialError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ReviewListResponse{Reviews: reviews})
}

func (h *SocialHandler) Like(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "SOCIAL_SERVICE_UNAVAILABLE", "social service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	itemType, itemID, ok := itemParams(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid item reference")
		return
	}

	if err := h.service.Like(r.Context(), identity.UserID, itemType, itemID); err != nil {
		handleSocialError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LikeResponse{Liked: true})
}

func (h *SocialHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "SOCIAL_SERVICE_UNAVAILABLE", "social service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	itemType, itemID, ok := itemParams(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid item reference")
		return
	}

	if err := h.service.Unlike(r.Context(), identity.UserID, itemType, itemID); err != nil {
		handleSocialError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.LikeResponse{Liked: false})
}

func (h *SocialHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "SOCIAL_SERVICE_UNAVAILABLE", "social service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	itemType, itemID, ok := itemParams(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid item reference")
		return
	}

	var req dto.CreateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	comment, err := h.service.CreateComment(r.Context(), identity.UserID, itemType, itemID, req.Content)
	if err != nil {
		handleSocialError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, comment)
}

func (h *SocialHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "SOCIAL_SERVICE_UNAVAILABLE", "social service is unavailable")
		return
	}
	itemType, itemID, ok := itemParams(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid item reference")
		return
	}

	limit, offset := pagination(r)
	comments, err := h.service.ListComments(r.Context(), itemType, itemID, limit, offset)
	if err != nil {
		handleSocialError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.CommentListResponse{Comments: comments})
}

func (h *SocialHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "SOCIAL_SERVICE_UNAVAILABLE", "social service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	commentID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid comment id")
		return
	}

	if err := h.service.DeleteComment(r.Context(), identity.UserID, commentID); err != nil {
		handleSocialError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func handleSocialError(w http.ResponseWriter, err error) {
	var limited *socialsvc.RateLimitedError
	if errors.As(err, &limited) {
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "RATE_LIMITED",
			Message:       "too many requests",
			RetryAfterSec: limited.RetryAfterSec,
		})
		return
	}

	switch {
	case errors.Is(err, socialsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, socialsvc.ErrItemNotFound):
		writeNotFound(w, "ITEM_NOT_FOUND", "item not found")
	case errors.Is(err, socialsvc.ErrAlreadyReviewed):
		writeConflict(w, "ALREADY_REVIEWED", "item already reviewed")
	case errors.Is(err, socialsvc.ErrCommentNotFound):
		writeNotFound(w, "COMMENT_NOT_FOUND", "comment not found")
	case errors.Is(err, socialsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "operation not allowed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
