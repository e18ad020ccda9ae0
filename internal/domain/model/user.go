package model

import (
	"time"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
)

type User struct {
	ID                    int64      `json:"id"`
	Email                 string     `json:"email"`
	FullName              string     `json:"full_name"`
	AvatarURL             string     `json:"avatar_url,omitempty"`
	Location              string     `json:"location,omitempty"`
	Bio                   string     `json:"bio,omitempty"`
	Rating                float64    `json:"rating"`
	ReviewCount           int        `json:"review_count"`
	IsVerified            bool       `json:"is_verified"`
	IsActive              bool       `json:"is_active"`
	Role                  enums.Role `json:"role"`
	DietaryPreferences    []string   `json:"dietary_preferences"`
	StripeCustomerID      string     `json:"-"`
	HasActiveSubscription bool       `json:"has_active_subscription"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}
