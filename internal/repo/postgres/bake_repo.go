package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
)

var ErrBakeNotFound = errors.New("bake not found")

type BakeRepo struct {
	pool *pgxpool.Pool
}

func NewBakeRepo(pool *pgxpool.Pool) *BakeRepo {
	return &BakeRepo{pool: pool}
}

const bakeColumns = `id, title, description, image_url, category, tags, allergens, price_cents, available_for_order, pickup_location, circle_id, rating, review_count, like_count, comment_count, created_by, created_at, updated_at`

func (r *BakeRepo) Create(ctx context.Context, bake model.Bake) (model.Bake, error) {
	if r.pool == nil {
		return model.Bake{}, fmt.Errorf("postgres pool is nil")
	}
	if bake.CreatedBy <= 0 || strings.TrimSpace(bake.Title) == "" {
		return model.Bake{}, fmt.Errorf("invalid bake create payload")
	}

	row, err := scanBake(r.pool.QueryRow(ctx, `
INSERT INTO bakes (
	title,
	description,
	image_url,
	category,
	tags,
	allergens,
	price_cents,
	available_for_order,
	pickup_location,
	circle_id,
	created_by,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
RETURNING `+bakeColumns+`
`,
		strings.TrimSpace(bake.Title),
		bake.Description,
		bake.ImageURL,
		bake.Category,
		bake.Tags,
		bake.Allergens,
		bake.PriceCents,
		bake.AvailableForOrder,
		bake.PickupLocation,
		bake.CircleID,
		bake.CreatedBy,
	))
	if err != nil {
		return model.Bake{}, fmt.Errorf("create bake: %w", err)
	}
	return row, nil
}

func (r *BakeRepo) FindByID(ctx context.Context, bakeID int64) (model.Bake, error) {
	if r.pool == nil {
		return model.Bake{}, fmt.Errorf("postgres pool is nil")
	}
	if bakeID <= 0 {
		return model.Bake{}, fmt.Errorf("invalid bake id")
	}

	row, err := scanBake(r.pool.QueryRow(ctx, `
SELECT `+bakeColumns+`
FROM bakes
WHERE id = $1
`, bakeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Bake{}, ErrBakeNotFound
		}
		return model.Bake{}, fmt.Errorf("find bake: %w", err)
	}
	return row, nil
}

type BakeFilter struct {
	Category      string
	CreatedBy     int64
	CircleID      int64
	OrderableOnly bool
	Limit         int
	Offset        int
}

func (r *BakeRepo) List(ctx context.Context, filter BakeFilter) ([]model.Bake, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	where := make([]string, 0, 4)
	args := make([]any, 0, 6)

	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.CreatedBy > 0 {
		args = append(args, filter.CreatedBy)
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if filter.CircleID > 0 {
		args = append(args, filter.CircleID)
		where = append(where, fmt.Sprintf("circle_id = $%d", len(args)))
	}
	if filter.OrderableOnly {
		where = append(where, "available_for_order = TRUE")
	}

	query := `SELECT ` + bakeColumns + ` FROM bakes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bakes: %w", err)
	}
	defer rows.Close()

	bakes := make([]model.Bake, 0)
	for rows.Next() {
		bake, err := scanBake(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bake: %w", err)
		}
		bakes = append(bakes, bake)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bakes: %w", err)
	}
	return bakes, nil
}

type BakeUpdate struct {
	Title             *string
	Description       *string
	ImageURL          *string
	Category          *string
	Tags              []string
	Allergens         []string
	PriceCents        *int64
	AvailableForOrder *bool
	PickupLocation    *string
}

func (r *BakeRepo) Update(ctx context.Context, bakeID int64, update BakeUpdate) (model.Bake, error) {
	if r.pool == nil {
		return model.Bake{}, fmt.Errorf("postgres pool is nil")
	}
	if bakeID <= 0 {
		return model.Bake{}, fmt.Errorf("invalid bake id")
	}

	row, err := scanBake(r.pool.QueryRow(ctx, `
UPDATE bakes SET
	title = COALESCE($2, title),
	description = COALESCE($3, description),
	image_url = COALESCE($4, image_url),
	category = COALESCE($5, category),
	tags = COALESCE($6, tags),
	allergens = COALESCE($7, allergens),
	price_cents = COALESCE($8, price_cents),
	available_for_order = COALESCE($9, available_for_order),
	pickup_location = COALESCE($10, pickup_location),
	updated_at = NOW()
WHERE id = $1
RETURNING `+bakeColumns+`
`,
		bakeID,
		update.Title,
		update.Description,
		update.ImageURL,
		update.Category,
		update.Tags,
		update.Allergens,
		update.PriceCents,
		update.AvailableForOrder,
		update.PickupLocation,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Bake{}, ErrBakeNotFound
		}
		return model.Bake{}, fmt.Errorf("update bake: %w", err)
	}
	return row, nil
}

func (r *BakeRepo) Delete(ctx context.Context, bakeID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM bakes WHERE id = $1`, bakeID)
	if err != nil {
		return fmt.Errorf("delete bake: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBakeNotFound
	}
	return nil
}

func scanBake(row pgx.Row) (model.Bake, error) {
	var bake model.Bake
	err := row.Scan(
		&bake.ID,
		&bake.Title,
		&bake.Description,
		&bake.ImageURL,
		&bake.Category,
		&bake.Tags,
		&bake.Allergens,
		&bake.PriceCents,
		&bake.AvailableForOrder,
		&bake.PickupLocation,
		&bake.CircleID,
		&bake.Rating,
		&bake.ReviewCount,
		&bake.LikeCount,
		&bake.CommentCount,
		&bake.CreatedBy,
		&bake.CreatedAt,
		&bake.UpdatedAt,
	)
	if err != nil {
		return model.Bake{}, err
	}
	return bake, nil
}
