package handlers

import (
	"errors"
	"net/http"

	billingsvc "github.com/GarryCodespace/xFood-Web/internal/services/billing"
	ratesvc "github.com/GarryCodespace/xFood-Web/internal/services/rate"
	"github.com/GarryCodespace/xFood-Web/internal/transport/http/dto"
	httperrors "github.com/GarryCodespace/xFood-Web/internal/transport/http/errors"
)

const checkoutScope = "checkout"

type CheckoutHandler struct {
	service *billingsvc.Service
	limiter *ratesvc.Limiter
}

// The limiter may be nil; checkout then runs unthrottled.
func NewCheckoutHandler(service *billingsvc.Service, limiter *ratesvc.Limiter) *CheckoutHandler {
	return &CheckoutHandler{service: service, limiter: limiter}
}

func (h *CheckoutHandler) allowCheckout(w http.ResponseWriter, r *http.Request, userID int64) bool {
	if h.limiter == nil {
		return true
	}
	retryAfter, ok, err := h.limiter.Allow(r.Context(), checkoutScope, userID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
		return false
	}
	if !ok {
		httperrors.Write(w, http.StatusTooManyRequests, httperrors.RateLimitError{
			Code:          "RATE_LIMITED",
			Message:       "too many checkout attempts",
			RetryAfterSec: retryAfter,
		})
		return false
	}
	return true
}

func (h *CheckoutHandler) CheckoutItem(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if !h.allowCheckout(w, r, identity.UserID) {
		return
	}

	var req dto.ItemCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	checkout, err := h.service.StartItemCheckout(r.Context(), identity.UserID, req.ItemType, req.ItemID)
	if err != nil {
		handleBillingError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.ItemCheckoutResponse{
		PaymentIntentID:     checkout.PaymentIntentID,
		ClientSecret:        checkout.ClientSecret,
		AmountCents:         checkout.AmountCents,
		PlatformFeeCents:    checkout.PlatformFeeCents,
		SellerEarningsCents: checkout.SellerEarningsCents,
	})
}

func (h *CheckoutHandler) CheckoutSubscription(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if !h.allowCheckout(w, r, identity.UserID) {
		return
	}

	checkout, err := h.service.StartSubscriptionCheckout(r.Context(), identity.UserID)
	if err != nil {
		handleBillingError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.SubscriptionCheckoutResponse{
		SessionID:   checkout.SessionID,
		CheckoutURL: checkout.CheckoutURL,
	})
}

func (h *CheckoutHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	sold := r.URL.Query().Get("side") == "sold"

	purchases, err := h.service.PurchaseHistory(r.Context(), identity.UserID, sold, limit, offset)
	if err != nil {
		handleBillingError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PurchaseListResponse{Purchases: purchases})
}

func (h *CheckoutHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "BILLING_SERVICE_UNAVAILABLE", "billing service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	sub, err := h.service.CurrentSubscription(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, billingsvc.ErrNoSubscription) {
			writeNotFound(w, "NO_SUBSCRIPTION", "no active subscription")
			return
		}
		handleBillingError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, sub)
}

func handleBillingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billingsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, billingsvc.ErrUserNotFound):
		writeNotFound(w, "USER_NOT_FOUND", "user not found")
	case errors.Is(err, billingsvc.ErrItemNotFound):
		writeNotFound(w, "ITEM_NOT_FOUND", "item not found")
	case errors.Is(err, billingsvc.ErrItemNotForSale):
		writeConflict(w, "ITEM_NOT_FOR_SALE", "item is not for sale")
	case errors.Is(err, billingsvc.ErrSelfPurchase):
		writeConflict(w, "SELF_PURCHASE", "cannot purchase your own item")
	case errors.Is(err, billingsvc.ErrProviderUnavailable):
		httperrors.Write(w, http.StatusBadGateway, httperrors.APIError{
			Code:    "PROVIDER_UNAVAILABLE",
			Message: "payment provider is unavailable",
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
