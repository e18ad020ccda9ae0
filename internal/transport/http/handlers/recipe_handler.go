package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
	authsvc "github.com/GarryCodespace/xFood-Web/internal/services/auth"
	catalogsvc "github.com/GarryCodespace/xFood-Web/internal/services/catalog"
	userssvc "github.com/GarryCodespace/xFood-Web/internal/services/users"
	"github.com/GarryCodespace/xFood-Web/internal/transport/http/dto"
	httperrors "github.com/GarryCodespace/xFood-Web/internal/transport/http/errors"
)

type RecipeHandler struct {
	service *catalogsvc.Service
	users   *userssvc.Service
}

func NewRecipeHandler(service *catalogsvc.Service, users *userssvc.Service) *RecipeHandler {
	return &RecipeHandler{service: service, users: users}
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.CreateRecipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	recipe, err := h.service.CreateRecipe(r.Context(), model.Recipe{
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		PrepTimeMin:  req.PrepTimeMin,
		CookTimeMin:  req.CookTimeMin,
		Servings:     req.Servings,
		Difficulty:   enums.Difficulty(req.Difficulty),
		Category:     req.Category,
		Tags:         req.Tags,
		IsPremium:    req.IsPremium,
		PriceCents:   req.PriceCents,
		CreatedBy:    identity.UserID,
	})
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, recipe)
}

func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}
	recipeID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid recipe id")
		return
	}

	var viewerID int64
	var subscribed bool
	if identity, ok := authsvc.IdentityFromContext(r.Context()); ok {
		viewerID = identity.UserID
		if h.users != nil {
			if viewer, err := h.users.Get(r.Context(), viewerID); err == nil {
				subscribed = viewer.HasActiveSubscription
			}
		}
	}

	recipe, unlocked, err := h.service.GetRecipe(r.Context(), viewerID, subscribed, recipeID)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RecipeResponse{Recipe: recipe, Unlocked: unlocked})
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	limit, offset := pagination(r)
	filter := pgrepo.RecipeFilter{
		Category: r.URL.Query().Get("category"),
		Tag:      r.URL.Query().Get("tag"),
		Search:   r.URL.Query().Get("q"),
		Limit:    limit,
		Offset:   offset,
	}
	if raw := r.URL.Query().Get("created_by"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filter.CreatedBy = id
		}
	}

	recipes, err := h.service.ListRecipes(r.Context(), filter)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.RecipeListResponse{Recipes: recipes})
}

func (h *RecipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	recipeID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid recipe id")
		return
	}

	var req dto.UpdateRecipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	recipe, err := h.service.UpdateRecipe(r.Context(), identity.UserID, recipeID, pgrepo.RecipeUpdate{
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		Category:     req.Category,
		Tags:         req.Tags,
		PriceCents:   req.PriceCents,
	})
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, recipe)
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	recipeID, ok := urlParamInt64(r, "id")
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid recipe id")
		return
	}

	if err := h.service.DeleteRecipe(r.Context(), identity.UserID, recipeID); err != nil {
		handleCatalogError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func handleCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalogsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, catalogsvc.ErrNotFound):
		writeNotFound(w, "ITEM_NOT_FOUND", "item not found")
	case errors.Is(err, catalogsvc.ErrForbidden):
		writeForbidden(w, "FORBIDDEN", "operation not allowed")
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
