package dto

import "github.com/GarryCodespace/xFood-Web/internal/domain/model"

type SendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
}

type MessageListResponse struct {
	Messages []model.Message `json:"messages"`
}

type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
