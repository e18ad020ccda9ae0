package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

const commentColumns = `id, user_id, item_type, item_id, content, created_at, updated_at`

func (r *CommentRepo) Create(ctx context.Context, comment model.Comment) (model.Comment, error) {
	if r.pool == nil {
		return model.Comment{}, fmt.Errorf("postgres pool is nil")
	}
	if comment.UserID <= 0 || comment.ItemID <= 0 || strings.TrimSpace(comment.Content) == "" {
		return model.Comment{}, fmt.Errorf("invalid comment payload")
	}

	table, err := itemTable(comment.ItemType)
	if err != nil {
		return model.Comment{}, err
	}

	var row model.Comment
	err = WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var scanErr error
		row, scanErr = scanComment(tx.QueryRow(ctx, `
INSERT INTO comments (user_id, item_type, item_id, content, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
RETURNING `+commentColumns+`
`, comment.UserID, string(comment.ItemType), comment.ItemID, strings.TrimSpace(comment.Content)))
		if scanErr != nil {
			return fmt.Errorf("insert comment: %w", scanErr)
		}

		bumped, err := tx.Exec(ctx, `
UPDATE `+table+` SET comment_count = comment_count + 1, updated_at = NOW() WHERE id = $1
`, comment.ItemID)
		if err != nil {
			return fmt.Errorf("bump comment count: %w", err)
		}
		if bumped.RowsAffected() == 0 {
			return itemNotFoundError(comment.ItemType)
		}
		return nil
	})
	if err != nil {
		return model.Comment{}, err
	}
	return row, nil
}

func (r *CommentRepo) ListForItem(ctx context.Context, itemType enums.ItemType, itemID int64, limit, offset int) ([]model.Comment, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+commentColumns+`
FROM comments
WHERE item_type = $1 AND item_id = $2
ORDER BY created_at ASC, id ASC
LIMIT $3 OFFSET $4
`, string(itemType), itemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

func (r *CommentRepo) FindByID(ctx context.Context, commentID int64) (model.Comment, error) {
	if r.pool == nil {
		return model.Comment{}, fmt.Errorf("postgres pool is nil")
	}

	comment, err := scanComment(r.pool.QueryRow(ctx, `
SELECT `+commentColumns+`
FROM comments
WHERE id = $1
`, commentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Comment{}, ErrCommentNotFound
		}
		return model.Comment{}, fmt.Errorf("find comment: %w", err)
	}
	return comment, nil
}

// Delete removes the comment and keeps the item counter in step.
func (r *CommentRepo) Delete(ctx context.Context, commentID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var (
			itemType string
			itemID   int64
		)
		err := tx.QueryRow(ctx, `
DELETE FROM comments WHERE id = $1
RETURNING item_type, item_id
`, commentID).Scan(&itemType, &itemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrCommentNotFound
			}
			return fmt.Errorf("delete comment: %w", err)
		}

		table, err := itemTable(enums.ItemType(itemType))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
UPDATE `+table+` SET comment_count = GREATEST(comment_count - 1, 0), updated_at = NOW() WHERE id = $1
`, itemID); err != nil {
			return fmt.Errorf("drop comment count: %w", err)
		}
		return nil
	})
}

func scanComment(row pgx.Row) (model.Comment, error) {
	var (
		comment  model.Comment
		itemType string
	)
	err := row.Scan(
		&comment.ID,
		&comment.UserID,
		&itemType,
		&comment.ItemID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return model.Comment{}, err
	}
	comment.ItemType = enums.ItemType(itemType)
	return comment, nil
}
