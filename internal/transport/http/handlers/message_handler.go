package handlers

import (
	"errors"
	"net/http"

	messagessvc "github.com/GarryCodespace/xFood-Web/internal/services/messages"
	"github.com/GarryCodespace/xFood-Web/internal/transport/http/dto"
	httperrors "github.com/GarryCodespace/xFood-Web/internal/transport/http/errors"
)

type MessageHandler struct {
	service *messagessvc.Service
}

func NewMessageHandler(service *messagessvc.Service) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	msg, err := h.service.Send(r.Context(), identity.UserID, req.ReceiverID, req.Content)
	if err != nil {
		handleMessageError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, msg)
}

func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	peerID, ok := urlParamInt64(r, "peer_id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid peer id")
		return
	}

	limit, offset := pagination(r)
	msgs, err := h.service.Conversation(r.Context(), identity.UserID, peerID, limit, offset)
	if err != nil {
		handleMessageError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MessageListResponse{Messages: msgs})
}

func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MESSAGE_SERVICE_UNAVAILABLE", "message service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(r.Context(), identity.UserID)
	if err != nil {
		handleMessageError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UnreadCountResponse{Unread: count})
}

func handleMessageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, messagessvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, messagessvc.ErrSelfMessage):
		writeBadRequest(w, "SELF_MESSAGE", "cannot message yourself")
	case errors.Is(err, messagessvc.ErrUserNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "recipient not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
