package dto

import "github.com/GarryCodespace/xFood-Web/internal/domain/model"

type CreateCircleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Location    string   `json:"location"`
	Tags        []string `json:"tags"`
	IsPublic    bool     `json:"is_public"`
}

type CircleListResponse struct {
	Circles []model.Circle `json:"circles"`
}

type MembershipResponse struct {
	OK bool `json:"ok"`
}
