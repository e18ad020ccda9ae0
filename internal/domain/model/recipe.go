package model

import (
	"time"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
)

type Recipe struct {
	ID           int64            `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	ImageURL     string           `json:"image_url,omitempty"`
	Ingredients  []string         `json:"ingredients"`
	Instructions []string         `json:"instructions"`
	PrepTimeMin  int              `json:"prep_time,omitempty"`
	CookTimeMin  int              `json:"cook_time,omitempty"`
	Servings     int              `json:"servings,omitempty"`
	Difficulty   enums.Difficulty `json:"difficulty"`
	Category     string           `json:"category"`
	Tags         []string         `json:"tags"`
	IsPremium    bool             `json:"is_premium"`
	PriceCents   *int64           `json:"price_cents,omitempty"`
	Rating       float64          `json:"rating"`
	ReviewCount  int              `json:"review_count"`
	LikeCount    int              `json:"like_count"`
	CommentCount int              `json:"comment_count"`
	CreatedBy    int64            `json:"created_by"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
