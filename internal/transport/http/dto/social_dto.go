package dto

import "github.com/GarryCodespace/xFood-Web/internal/domain/model"

type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ReviewListResponse struct {
	Reviews []model.Review `json:"reviews"`
}

type LikeResponse struct {
	Liked bool `json:"liked"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

type CommentListResponse struct {
	Comments []model.Comment `json:"comments"`
}
