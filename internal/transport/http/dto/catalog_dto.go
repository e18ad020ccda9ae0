package dto

import "github.com/GarryCodespace/xFood-Web/internal/domain/model"

type CreateRecipeRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"image_url"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	PrepTimeMin  int      `json:"prep_time"`
	CookTimeMin  int      `json:"cook_time"`
	Servings     int      `json:"servings"`
	Difficulty   string   `json:"difficulty"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	IsPremium    bool     `json:"is_premium"`
	PriceCents   *int64   `json:"price_cents"`
}

type UpdateRecipeRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	ImageURL     *string  `json:"image_url"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Category     *string  `json:"category"`
	Tags         []string `json:"tags"`
	PriceCents   *int64   `json:"price_cents"`
}

type RecipeResponse struct {
	model.Recipe
	Unlocked bool `json:"unlocked"`
}

type RecipeListResponse struct {
	Recipes []model.Recipe `json:"recipes"`
}

type CreateBakeRequest struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	ImageURL          string   `json:"image_url"`
	Category          string   `json:"category"`
	Tags              []string `json:"tags"`
	Allergens         []string `json:"allergens"`
	PriceCents        int64    `json:"price_cents"`
	AvailableForOrder bool     `json:"available_for_order"`
	PickupLocation    string   `json:"pickup_location"`
	CircleID          *int64   `json:"circle_id"`
}

type UpdateBakeRequest struct {
	Title             *string  `json:"title"`
	Description       *string  `json:"description"`
	ImageURL          *string  `json:"image_url"`
	Category          *string  `json:"category"`
	Tags              []string `json:"tags"`
	Allergens         []string `json:"allergens"`
	PriceCents        *int64   `json:"price_cents"`
	AvailableForOrder *bool    `json:"available_for_order"`
	PickupLocation    *string  `json:"pickup_location"`
}

type BakeListResponse struct {
	Bakes []model.Bake `json:"bakes"`
}
