package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("item already reviewed by user")
)

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

const reviewColumns = `id, user_id, item_type, item_id, rating, comment, created_at, updated_at`

func itemTable(itemType enums.ItemType) (string, error) {
	switch itemType {
	case enums.ItemTypeRecipe:
		return "recipes", nil
	case enums.ItemTypeBake:
		return "bakes", nil
	default:
		return "", fmt.Errorf("unknown item type %q", itemType)
	}
}

// Create inserts the review and folds it into the item's denormalized rating
// in one transaction, using the running-average update
// (rating*review_count + new) / (review_count + 1). The item author's own
// aggregate moves the same way.
func (r *ReviewRepo) Create(ctx context.Context, review model.Review) (model.Review, error) {
	if r.pool == nil {
		return model.Review{}, fmt.Errorf("postgres pool is nil")
	}
	if review.UserID <= 0 || review.ItemID <= 0 || review.Rating < 1 || review.Rating > 5 {
		return model.Review{}, fmt.Errorf("invalid review payload")
	}

	table, err := itemTable(review.ItemType)
	if err != nil {
		return model.Review{}, err
	}

	var row model.Review
	err = WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var scanErr error
		row, scanErr = scanReview(tx.QueryRow(ctx, `
INSERT INTO reviews (user_id, item_type, item_id, rating, comment, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
RETURNING `+reviewColumns+`
`, review.UserID, string(review.ItemType), review.ItemID, review.Rating, review.Comment))
		if scanErr != nil {
			var pgErr *pgconn.PgError
			if errors.As(scanErr, &pgErr) && pgErr.Code == "23505" {
				return ErrAlreadyReviewed
			}
			return fmt.Errorf("insert review: %w", scanErr)
		}

		var authorID int64
		if err := tx.QueryRow(ctx, `
UPDATE `+table+` SET
	rating = (rating * review_count + $2) / (review_count + 1),
	review_count = review_count + 1,
	updated_at = NOW()
WHERE id = $1
RETURNING created_by
`, review.ItemID, review.Rating).Scan(&authorID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return itemNotFoundError(review.ItemType)
			}
			return fmt.Errorf("fold review into %s rating: %w", table, err)
		}

		if _, err := tx.Exec(ctx, `
UPDATE users SET
	rating = (rating * review_count + $2) / (review_count + 1),
	review_count = review_count + 1,
	updated_at = NOW()
WHERE id = $1
`, authorID, review.Rating); err != nil {
			return fmt.Errorf("fold review into user rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Review{}, err
	}
	return row, nil
}

func (r *ReviewRepo) ListForItem(ctx context.Context, itemType enums.ItemType, itemID int64, limit, offset int) ([]model.Review, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+reviewColumns+`
FROM reviews
WHERE item_type = $1 AND item_id = $2
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4
`, string(itemType), itemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]model.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

func (r *ReviewRepo) FindByUserAndItem(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64) (model.Review, error) {
	if r.pool == nil {
		return model.Review{}, fmt.Errorf("postgres pool is nil")
	}

	review, err := scanReview(r.pool.QueryRow(ctx, `
SELECT `+reviewColumns+`
FROM reviews
WHERE user_id = $1 AND item_type = $2 AND item_id = $3
`, userID, string(itemType), itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Review{}, ErrReviewNotFound
		}
		return model.Review{}, fmt.Errorf("find review: %w", err)
	}
	return review, nil
}

func itemNotFoundError(itemType enums.ItemType) error {
	if itemType == enums.ItemTypeBake {
		return ErrBakeNotFound
	}
	return ErrRecipeNotFound
}

func scanReview(row pgx.Row) (model.Review, error) {
	var (
		review   model.Review
		itemType string
	)
	err := row.Scan(
		&review.ID,
		&review.UserID,
		&itemType,
		&review.ItemID,
		&review.Rating,
		&review.Comment,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return model.Review{}, err
	}
	review.ItemType = enums.ItemType(itemType)
	return review, nil
}
