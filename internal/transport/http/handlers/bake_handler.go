package handlers

import (
	"net/http"
	"strconv"

	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
	catalogsvc "github.com/GarryCodespace/xFood-Web/internal/services/catalog"
	"github.com/GarryCodespace/xFood-Web/internal/transport/http/dto"
	httperrors "github.com/GarryCodespace/xFood-Web/internal/transport/http/errors"
)

type BakeHandler struct {
	service *catalogsvc.Service
}

func NewBakeHandler(service *catalogsvc.Service) *BakeHandler {
	return &BakeHandler{service: service}
}

func (h *BakeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.CreateBakeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	bake, err := h.service.CreateBake(r.Context(), model.Bake{
		Title:             req.Title,
		Description:       req.Description,
		ImageURL:          req.ImageURL,
		Category:          req.Category,
		Tags:              req.Tags,
		Allergens:         req.Allergens,
		PriceCents:        req.PriceCents,
		AvailableForOrder: req.AvailableForOrder,
		PickupLocation:    req.PickupLocation,
		CircleID:          req.CircleID,
		CreatedBy:         identity.UserID,
	})
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, bake)
}

func (h *BakeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}
	bakeID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid bake id")
		return
	}

	bake, err := h.service.GetBake(r.Context(), bakeID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, bake)
}

func (h *BakeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	limit, offset := pagination(r)
	filter := pgrepo.BakeFilter{
		Category:      r.URL.Query().Get("category"),
		OrderableOnly: r.URL.Query().Get("orderable") == "true",
		Limit:         limit,
		Offset:        offset,
	}
	if raw := r.URL.Query().Get("created_by"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filter.CreatedBy = id
		}
	}
	if raw := r.URL.Query().Get("circle_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filter.CircleID = id
		}
	}

	bakes, err := h.service.ListBakes(r.Context(), filter)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.BakeListResponse{Bakes: bakes})
}

func (h *BakeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	bakeID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid bake id")
		return
	}

	var req dto.UpdateBakeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	bake, err := h.service.UpdateBake(r.Context(), identity.UserID, bakeID, pgrepo.BakeUpdate{
		Title:             req.Title,
		Description:       req.Description,
		ImageURL:          req.ImageURL,
		Category:          req.Category,
		Tags:              req.Tags,
		Allergens:         req.Allergens,
		PriceCents:        req.PriceCents,
		AvailableForOrder: req.AvailableForOrder,
		PickupLocation:    req.PickupLocation,
	})
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, bake)
}

func (h *BakeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	bakeID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid bake id")
		return
	}

	if err := h.service.DeleteBake(r.Context(), identity.UserID, bakeID); err != nil {
		handleCatalogError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
