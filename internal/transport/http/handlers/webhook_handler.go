package handlers

import (
	"errors"
	"io"
	"net/http"

	billingsvc "github.com/GarryCodespace/xFood-Web/internal/services/billing"
	"github.com/GarryCodespace/xFood-Web/internal/transport/http/dto"
	httperrors "github.com/GarryCodespace/xFood-Web/internal/transport/http/errors"
)

// Stripe caps event payloads well below this; anything larger is junk.
const maxWebhookBodyBytes = 1 << 20

type WebhookHandler struct {
	service *billingsvc.Service
}

func NewWebhookHandler(service *billingsvc.Service) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// Handle acknowledges with 200 whenever the delivery must not be retried,
// including events this platform ignores. Non-2xx responses make the
// provider redeliver, so they are reserved for rejects (bad signature,
// malformed payload) and transient failures.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "unreadable webhook body")
		return
	}

	_, err = h.service.ProcessWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, billingsvc.ErrInvalidSignature):
			writeBadRequest(w, "INVALID_SIGNATURE", "webhook signature verification failed")
		case errors.Is(err, billingsvc.ErrMalformedPayload):
			writeBadRequest(w, "MALFORMED_PAYLOAD", "webhook payload could not be parsed")
		case errors.Is(err, billingsvc.ErrProviderUnavailable):
			httperrors.Write(w, http.StatusBadGateway, httperrors.APIError{
				Code:    "PROVIDER_UNAVAILABLE",
				Message: "upstream fetch failed, delivery will be retried",
			})
		default:
			writeInternal(w, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	httperrors.Write(w, http.StatusOK, dto.WebhookAckResponse{Received: true})
}
