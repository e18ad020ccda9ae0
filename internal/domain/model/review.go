package model

import (
	"time"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
)

type Review struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user_id"`
	ItemType  enums.ItemType `json:"item_type"`
	ItemID    int64          `json:"item_id"`
	Rating    int            `json:"rating"`
	Comment   string         `json:"comment,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
