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

var ErrRecipeNotFound = errors.New("recipe not found")

type RecipeRepo struct {
	pool *pgxpool.Pool
}

func NewRecipeRepo(pool *pgxpool.Pool) *RecipeRepo {
	return &RecipeRepo{pool: pool}
}

const recipeColumns = `id, title, description, image_url, ingredients, instructions, prep_time_min, cook_time_min, servings, difficulty, category, tags, is_premium, price_cents, rating, review_count, like_count, comment_count, created_by, created_at, updated_at`

func (r *RecipeRepo) Create(ctx context.Context, recipe model.Recipe) (model.Recipe, error) {
	if r.pool == nil {
		return model.Recipe{}, fmt.Errorf("postgres pool is nil")
	}
	if recipe.CreatedBy <= 0 || strings.TrimSpace(recipe.Title) == "" {
		return model.Recipe{}, fmt.Errorf("invalid recipe create payload")
	}

	row, err := scanRecipe(r.pool.QueryRow(ctx, `
INSERT INTO recipes (
	title,
	description,
	image_url,
	ingredients,
	instructions,
	prep_time_min,
	cook_time_min,
	servings,
	difficulty,
	category,
	tags,
	is_premium,
	price_cents,
	created_by,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
RETURNING `+recipeColumns+`
`,
		strings.TrimSpace(recipe.Title),
		recipe.Description,
		recipe.ImageURL,
		recipe.Ingredients,
		recipe.Instructions,
		recipe.PrepTimeMin,
		recipe.CookTimeMin,
		recipe.Servings,
		string(recipe.Difficulty),
		recipe.Category,
		recipe.Tags,
		recipe.IsPremium,
		recipe.PriceCents,
		recipe.CreatedBy,
	))
	if err != nil {
		return model.Recipe{}, fmt.Errorf("create recipe: %w", err)
	}
	return row, nil
}

func (r *RecipeRepo) FindByID(ctx context.Context, recipeID int64) (model.Recipe, error) {
	if r.pool == nil {
		return model.Recipe{}, fmt.Errorf("postgres pool is nil")
	}
	if recipeID <= 0 {
		return model.Recipe{}, fmt.Errorf("invalid recipe id")
	}

	row, err := scanRecipe(r.pool.QueryRow(ctx, `
SELECT `+recipeColumns+`
FROM recipes
WHERE id = $1
`, recipeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Recipe{}, ErrRecipeNotFound
		}
		return model.Recipe{}, fmt.Errorf("find recipe: %w", err)
	}
	return row, nil
}

type RecipeFilter struct {
	Category  string
	Tag       string
	CreatedBy int64
	Search    string
	Limit     int
	Offset    int
}

func (r *RecipeRepo) List(ctx context.Context, filter RecipeFilter) ([]model.Recipe, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	where := make([]string, 0, 4)
	args := make([]any, 0, 6)

	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		where = append(where, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if filter.CreatedBy > 0 {
		args = append(args, filter.CreatedBy)
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + recipeColumns + ` FROM recipes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	recipes := make([]model.Recipe, 0)
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipes: %w", err)
	}
	return recipes, nil
}

type RecipeUpdate struct {
	Title        *string
	Description  *string
	ImageURL     *string
	Ingredients  []string
	Instructions []string
	PrepTimeMin  *int
	CookTimeMin  *int
	Servings     *int
	Difficulty   *string
	Category     *string
	Tags         []string
	IsPremium    *bool
	PriceCents   *int64
}

func (r *RecipeRepo) Update(ctx context.Context, recipeID int64, update RecipeUpdate) (model.Recipe, error) {
	if r.pool == nil {
		return model.Recipe{}, fmt.Errorf("postgres pool is nil")
	}
	if recipeID <= 0 {
		return model.Recipe{}, fmt.Errorf("invalid recipe id")
	}

	row, err := scanRecipe(r.pool.QueryRow(ctx, `
UPDATE recipes SET
	title = COALESCE($2, title),
	description = COALESCE($3, description),
	image_url = COALESCE($4, image_url),
	ingredients = COALESCE($5, ingredients),
	instructions = COALESCE($6, instructions),
	prep_time_min = COALESCE($7, prep_time_min),
	cook_time_min = COALESCE($8, cook_time_min),
	servings = COALESCE($9, servings),
	difficulty = COALESCE($10, difficulty),
	category = COALESCE($11, category),
	tags = COALESCE($12, tags),
	is_premium = COALESCE($13, is_premium),
	price_cents = COALESCE($14, price_cents),
	updated_at = NOW()
WHERE id = $1
RETURNING `+recipeColumns+`
`,
		recipeID,
		update.Title,
		update.Description,
		update.ImageURL,
		update.Ingredients,
		update.Instructions,
		update.PrepTimeMin,
		update.CookTimeMin,
		update.Servings,
		update.Difficulty,
		update.Category,
		update.Tags,
		update.IsPremium,
		update.PriceCents,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Recipe{}, ErrRecipeNotFound
		}
		return model.Recipe{}, fmt.Errorf("update recipe: %w", err)
	}
	return row, nil
}

func (r *RecipeRepo) Delete(ctx context.Context, recipeID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, recipeID)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

func scanRecipe(row pgx.Row) (model.Recipe, error) {
	var (
		recipe     model.Recipe
		difficulty string
	)
	err := row.Scan(
		&recipe.ID,
		&recipe.Title,
		&recipe.Description,
		&recipe.ImageURL,
		&recipe.Ingredients,
		&recipe.Instructions,
		&recipe.PrepTimeMin,
		&recipe.CookTimeMin,
		&recipe.Servings,
		&difficulty,
		&recipe.Category,
		&recipe.Tags,
		&recipe.IsPremium,
		&recipe.PriceCents,
		&recipe.Rating,
		&recipe.ReviewCount,
		&recipe.LikeCount,
		&recipe.CommentCount,
		&recipe.CreatedBy,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	)
	if err != nil {
		return model.Recipe{}, err
	}
	recipe.Difficulty = enums.Difficulty(difficulty)
	return recipe, nil
}
