package dto

import "github.com/GarryCodespace/xFood-Web/internal/domain/model"

type UserResponse struct {
	ID                    int64    `json:"id"`
	Email                 string   `json:"email,omitempty"`
	FullName              string   `json:"full_name"`
	AvatarURL             string   `json:"avatar_url,omitempty"`
	Location              string   `json:"location,omitempty"`
	Bio                   string   `json:"bio,omitempty"`
	Role                  string   `json:"role"`
	Rating                float64  `json:"rating"`
	ReviewCount           int      `json:"review_count"`
	DietaryPreferences    []string `json:"dietary_preferences,omitempty"`
	HasActiveSubscription bool     `json:"has_active_subscription"`
}

func NewUserResponse(user model.User) UserResponse {
	return UserResponse{
		ID:                    user.ID,
		Email:                 user.Email,
		FullName:              user.FullName,
		AvatarURL:             user.AvatarURL,
		Location:              user.Location,
		Bio:                   user.Bio,
		Role:                  string(user.Role),
		Rating:                user.Rating,
		ReviewCount:           user.ReviewCount,
		DietaryPreferences:    user.DietaryPreferences,
		HasActiveSubscription: user.HasActiveSubscription,
	}
}

type UpdateProfileRequest struct {
	FullName           *string  `json:"full_name"`
	AvatarURL          *string  `json:"avatar_url"`
	Location           *string  `json:"location"`
	Bio                *string  `json:"bio"`
	DietaryPreferences []string `json:"dietary_preferences"`
}
