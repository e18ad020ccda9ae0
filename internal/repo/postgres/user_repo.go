package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type UserRepo struct {
	pool *pgxpool.Pool
}

// UserAuthRecord carries the credential fields the auth service needs; the
// password hash never leaves this layer otherwise.
type UserAuthRecord struct {
	UserID         int64
	Email          string
	HashedPassword string
	IsActive       bool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, email, full_name, avatar_url, location, bio, rating, review_count, is_verified, is_active, role, dietary_preferences, COALESCE(stripe_customer_id, ''), has_active_subscription, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, email, fullName, hashedPassword string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || hashedPassword == "" {
		return model.User{}, fmt.Errorf("invalid user create payload")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
INSERT INTO users (
	email,
	full_name,
	hashed_password,
	role,
	dietary_preferences,
	is_active,
	created_at,
	updated_at
) VALUES ($1, $2, $3, 'user', '{}', TRUE, NOW(), NOW())
RETURNING `+userColumns+`
`, email, strings.TrimSpace(fullName), hashedPassword))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, userID int64) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = $1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE email = $1
`, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepo) FindAuthByEmail(ctx context.Context, email string) (UserAuthRecord, error) {
	if r.pool == nil {
		return UserAuthRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var record UserAuthRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, email, hashed_password, is_active
FROM users
WHERE email = $1
`, strings.ToLower(strings.TrimSpace(email))).Scan(
		&record.UserID,
		&record.Email,
		&record.HashedPassword,
		&record.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserAuthRecord{}, ErrUserNotFound
		}
		return UserAuthRecord{}, fmt.Errorf("find user credentials: %w", err)
	}
	return record, nil
}

func (r *UserRepo) FindByStripeCustomerID(ctx context.Context, customerID string) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(customerID) == "" {
		return model.User{}, ErrUserNotFound
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE stripe_customer_id = $1
`, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user by customer ref: %w", err)
	}
	return user, nil
}

// SetStripeCustomerIDIfAbsent stores the ref only when the column is still
// NULL and returns whichever ref is on the row afterwards, so concurrent
// provisioning attempts converge on one customer.
func (r *UserRepo) SetStripeCustomerIDIfAbsent(ctx context.Context, userID int64, customerID string) (string, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || strings.TrimSpace(customerID) == "" {
		return "", fmt.Errorf("invalid customer ref payload")
	}

	var winner string
	err := r.pool.QueryRow(ctx, `
UPDATE users SET
	stripe_customer_id = COALESCE(stripe_customer_id, $2),
	updated_at = NOW()
WHERE id = $1
RETURNING stripe_customer_id
`, userID, customerID).Scan(&winner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("set customer ref: %w", err)
	}
	return winner, nil
}

type UserProfileUpdate struct {
	FullName           *string
	AvatarURL          *string
	Location           *string
	Bio                *string
	DietaryPreferences []string
}

func (r *UserRepo) UpdateProfile(ctx context.Context, userID int64, update UserProfileUpdate) (model.User, error) {
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
UPDATE users SET
	full_name = COALESCE($2, full_name),
	avatar_url = COALESCE($3, avatar_url),
	location = COALESCE($4, location),
	bio = COALESCE($5, bio),
	dietary_preferences = COALESCE($6, dietary_preferences),
	updated_at = NOW()
WHERE id = $1
RETURNING `+userColumns+`
`, userID, update.FullName, update.AvatarURL, update.Location, update.Bio, update.DietaryPreferences))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("update user profile: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		user model.User
		role string
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.Location,
		&user.Bio,
		&user.Rating,
		&user.ReviewCount,
		&user.IsVerified,
		&user.IsActive,
		&role,
		&user.DietaryPreferences,
		&user.StripeCustomerID,
		&user.HasActiveSubscription,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	user.Role = enums.Role(role)
	return user, nil
}
