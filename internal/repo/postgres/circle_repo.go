package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
)

var (
	ErrCircleNotFound = errors.New("circle not found")
	ErrAlreadyMember  = errors.New("user is already a member")
	ErrNotMember      = errors.New("user is not a member")
)

type CircleRepo struct {
	pool *pgxpool.Pool
}

func NewCircleRepo(pool *pgxpool.Pool) *CircleRepo {
	return &CircleRepo{pool: pool}
}

const circleColumns = `id, name, description, image_url, location, tags, is_public, member_count, created_by, created_at, updated_at`

// Create inserts the circle with the creator as its first member.
func (r *CircleRepo) Create(ctx context.Context, circle model.Circle) (model.Circle, error) {
	if r.pool == nil {
		return model.Circle{}, fmt.Errorf("postgres pool is nil")
	}
	if circle.CreatedBy <= 0 || strings.TrimSpace(circle.Name) == "" {
		return model.Circle{}, fmt.Errorf("invalid circle create payload")
	}

	var row model.Circle
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var scanErr error
		row, scanErr = scanCircle(tx.QueryRow(ctx, `
INSERT INTO circles (name, description, image_url, location, tags, is_public, member_count, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, 1, $7, NOW(), NOW())
RETURNING `+circleColumns+`
`, strings.TrimSpace(circle.Name), circle.Description, circle.ImageURL, circle.Location, circle.Tags, circle.IsPublic, circle.CreatedBy))
		if scanErr != nil {
			return fmt.Errorf("insert circle: %w", scanErr)
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO circle_members (circle_id, user_id, joined_at)
VALUES ($1, $2, NOW())
`, row.ID, circle.CreatedBy); err != nil {
			return fmt.Errorf("insert creator membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Circle{}, err
	}
	return row, nil
}

func (r *CircleRepo) FindByID(ctx context.Context, circleID int64) (model.Circle, error) {
	if r.pool == nil {
		return model.Circle{}, fmt.Errorf("postgres pool is nil")
	}

	circle, err := scanCircle(r.pool.QueryRow(ctx, `
SELECT `+circleColumns+`
FROM circles
WHERE id = $1
`, circleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Circle{}, ErrCircleNotFound
		}
		return model.Circle{}, fmt.Errorf("find circle: %w", err)
	}
	return circle, nil
}

func (r *CircleRepo) ListPublic(ctx context.Context, limit, offset int) ([]model.Circle, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+circleColumns+`
FROM circles
WHERE is_public = TRUE
ORDER BY member_count DESC, id DESC
LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list circles: %w", err)
	}
	defer rows.Close()

	circles := make([]model.Circle, 0)
	for rows.Next() {
		circle, err := scanCircle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan circle: %w", err)
		}
		circles = append(circles, circle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate circles: %w", err)
	}
	return circles, nil
}

func (r *CircleRepo) ListForUser(ctx context.Context, userID int64) ([]model.Circle, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT c.id, c.name, c.description, c.image_url, c.location, c.tags, c.is_public, c.member_count, c.created_by, c.created_at, c.updated_at
FROM circles c
JOIN circle_members m ON m.circle_id = c.id
WHERE m.user_id = $1
ORDER BY m.joined_at DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user circles: %w", err)
	}
	defer rows.Close()

	circles := make([]model.Circle, 0)
	for rows.Next() {
		circle, err := scanCircle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan circle: %w", err)
		}
		circles = append(circles, circle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user circles: %w", err)
	}
	return circles, nil
}

func (r *CircleRepo) Join(ctx context.Context, circleID, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO circle_members (circle_id, user_id, joined_at)
VALUES ($1, $2, NOW())
`, circleID, userID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				switch pgErr.Code {
				case "23505":
					return ErrAlreadyMember
				case "23503":
					return ErrCircleNotFound
				}
			}
			return fmt.Errorf("insert membership: %w", err)
		}

		if _, err := tx.Exec(ctx, `
UPDATE circles SET member_count = member_count + 1, updated_at = NOW() WHERE id = $1
`, circleID); err != nil {
			return fmt.Errorf("bump member count: %w", err)
		}
		return nil
	})
}

func (r *CircleRepo) Leave(ctx context.Context, circleID, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
DELETE FROM circle_members WHERE circle_id = $1 AND user_id = $2
`, circleID, userID)
		if err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotMember
		}

		if _, err := tx.Exec(ctx, `
UPDATE circles SET member_count = GREATEST(member_count - 1, 0), updated_at = NOW() WHERE id = $1
`, circleID); err != nil {
			return fmt.Errorf("drop member count: %w", err)
		}
		return nil
	})
}

func (r *CircleRepo) IsMember(ctx context.Context, circleID, userID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM circle_members WHERE circle_id = $1 AND user_id = $2
)
`, circleID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

func scanCircle(row pgx.Row) (model.Circle, error) {
	var circle model.Circle
	err := row.Scan(
		&circle.ID,
		&circle.Name,
		&circle.Description,
		&circle.ImageURL,
		&circle.Location,
		&circle.Tags,
		&circle.IsPublic,
		&circle.MemberCount,
		&circle.CreatedBy,
		&circle.CreatedAt,
		&circle.UpdatedAt,
	)
	if err != nil {
		return model.Circle{}, err
	}
	return circle, nil
}
