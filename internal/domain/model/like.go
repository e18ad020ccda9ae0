package model

import (
	"time"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
)

type Like struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	ItemType  enums.ItemType `json:"item_type"`
	ItemID    int64          `json:"item_id"`
	CreatedAt time.Time      `json:"created_at"`
}
