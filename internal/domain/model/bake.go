package model

import "time"

type Bake struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	ImageURL          string    `json:"image_url,omitempty"`
	Category          string    `json:"category"`
	Tags              []string  `json:"tags"`
	Allergens         []string  `json:"allergens"`
	PriceCents        int64     `json:"price_cents"`
	AvailableForOrder bool      `json:"available_for_order"`
	PickupLocation    string    `json:"pickup_location,omitempty"`
	CircleID          *int64    `json:"circle_id,omitempty"`
	Rating            float64   `json:"rating"`
	ReviewCount       int       `json:"review_count"`
	LikeCount         int       `json:"like_count"`
	CommentCount      int       `json:"comment_count"`
	CreatedBy         int64     `json:"created_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
