package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
)

type LikeRepo struct {
	pool *pgxpool.Pool
}

func NewLikeRepo(pool *pgxpool.Pool) *LikeRepo {
	return &LikeRepo{pool: pool}
}

// Add records the like and bumps the item's counter; liking twice is a
// no-op and reports added=false.
func (r *LikeRepo) Add(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || itemID <= 0 {
		return false, fmt.Errorf("invalid like payload")
	}

	table, err := itemTable(itemType)
	if err != nil {
		return false, err
	}

	var added bool
	err = WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
INSERT INTO likes (user_id, item_type, item_id, created_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (user_id, item_type, item_id) DO NOTHING
`, userID, string(itemType), itemID)
		if err != nil {
			return fmt.Errorf("insert like: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		added = true

		bumped, err := tx.Exec(ctx, `
UPDATE `+table+` SET like_count = like_count + 1, updated_at = NOW() WHERE id = $1
`, itemID)
		if err != nil {
			return fmt.Errorf("bump like count: %w", err)
		}
		if bumped.RowsAffected() == 0 {
			return itemNotFoundError(itemType)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// Remove deletes the like and decrements the counter; removing an absent
// like reports removed=false.
func (r *LikeRepo) Remove(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	table, err := itemTable(itemType)
	if err != nil {
		return false, err
	}

	var removed bool
	err = WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
DELETE FROM likes WHERE user_id = $1 AND item_type = $2 AND item_id = $3
`, userID, string(itemType), itemID)
		if err != nil {
			return fmt.Errorf("delete like: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		removed = true

		if _, err := tx.Exec(ctx, `
UPDATE `+table+` SET like_count = GREATEST(like_count - 1, 0), updated_at = NOW() WHERE id = $1
`, itemID); err != nil {
			return fmt.Errorf("drop like count: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (r *LikeRepo) Exists(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM likes WHERE user_id = $1 AND item_type = $2 AND item_id = $3
)
`, userID, string(itemType), itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}
