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

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *SubscriptionRepo {
	return &SubscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, stripe_subscription_id, status, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

// UpsertFromProvider applies a provider snapshot under a stale guard: a row
// that is already canceled, or whose period end is ahead of the snapshot,
// wins over the incoming write. ownerID 0 means the caller only knows the
// provider ref; the row must already exist and keeps its owner.
func (r *SubscriptionRepo) UpsertFromProvider(ctx context.Context, ownerID int64, snap model.SubscriptionSnapshot) (model.Subscription, bool, error) {
	if r.pool == nil {
		return model.Subscription{}, false, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(snap.SubscriptionID) == "" {
		return model.Subscription{}, false, fmt.Errorf("invalid subscription id")
	}

	var (
		row     model.Subscription
		applied bool
	)
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		if ownerID > 0 {
			row, applied, err = upsertSubscription(ctx, tx, ownerID, snap)
		} else {
			row, applied, err = updateExistingSubscription(ctx, tx, snap)
		}
		if err != nil {
			return err
		}
		return resyncSubscriptionFlag(ctx, tx, row.UserID)
	})
	if err != nil {
		return model.Subscription{}, false, err
	}
	return row, applied, nil
}

func upsertSubscription(ctx context.Context, tx pgx.Tx, ownerID int64, snap model.SubscriptionSnapshot) (model.Subscription, bool, error) {
	row, err := scanSubscription(tx.QueryRow(ctx, `
INSERT INTO subscriptions (
	user_id,
	stripe_subscription_id,
	status,
	current_period_start,
	current_period_end,
	cancel_at_period_end,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
ON CONFLICT (stripe_subscription_id) DO UPDATE SET
	status = EXCLUDED.status,
	current_period_start = EXCLUDED.current_period_start,
	current_period_end = EXCLUDED.current_period_end,
	cancel_at_period_end = EXCLUDED.cancel_at_period_end,
	updated_at = NOW()
WHERE subscriptions.status <> 'canceled'
  AND subscriptions.current_period_end <= EXCLUDED.current_period_end
RETURNING `+subscriptionColumns+`
`, ownerID, snap.SubscriptionID, string(snap.Status), snap.CurrentPeriodStart, snap.CurrentPeriodEnd, snap.CancelAtPeriodEnd))
	if err == nil {
		return row, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Subscription{}, false, fmt.Errorf("upsert subscription: %w", err)
	}

	// Guard rejected the write; report the row that won.
	existing, err := findSubscriptionTx(ctx, tx, snap.SubscriptionID)
	if err != nil {
		return model.Subscription{}, false, err
	}
	return existing, false, nil
}

func updateExistingSubscription(ctx context.Context, tx pgx.Tx, snap model.SubscriptionSnapshot) (model.Subscription, bool, error) {
	row, err := scanSubscription(tx.QueryRow(ctx, `
UPDATE subscriptions SET
	status = $2,
	current_period_start = $3,
	current_period_end = $4,
	cancel_at_period_end = $5,
	updated_at = NOW()
WHERE stripe_subscription_id = $1
  AND status <> 'canceled'
  AND current_period_end <= $4
RETURNING `+subscriptionColumns+`
`, snap.SubscriptionID, string(snap.Status), snap.CurrentPeriodStart, snap.CurrentPeriodEnd, snap.CancelAtPeriodEnd))
	if err == nil {
		return row, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Subscription{}, false, fmt.Errorf("update subscription: %w", err)
	}

	existing, err := findSubscriptionTx(ctx, tx, snap.SubscriptionID)
	if err != nil {
		return model.Subscription{}, false, err
	}
	return existing, false, nil
}

func (r *SubscriptionRepo) FindByProviderID(ctx context.Context, subscriptionID string) (model.Subscription, error) {
	if r.pool == nil {
		return model.Subscription{}, fmt.Errorf("postgres pool is nil")
	}

	row, err := scanSubscription(r.pool.QueryRow(ctx, `
SELECT `+subscriptionColumns+`
FROM subscriptions
WHERE stripe_subscription_id = $1
`, subscriptionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Subscription{}, ErrSubscriptionNotFound
		}
		return model.Subscription{}, fmt.Errorf("find subscription: %w", err)
	}
	return row, nil
}

func (r *SubscriptionRepo) FindActiveByUser(ctx context.Context, userID int64) (model.Subscription, error) {
	if r.pool == nil {
		return model.Subscription{}, fmt.Errorf("postgres pool is nil")
	}

	row, err := scanSubscription(r.pool.QueryRow(ctx, `
SELECT `+subscriptionColumns+`
FROM subscriptions
WHERE user_id = $1 AND status = 'active'
ORDER BY current_period_end DESC
LIMIT 1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Subscription{}, ErrSubscriptionNotFound
		}
		return model.Subscription{}, fmt.Errorf("find active subscription: %w", err)
	}
	return row, nil
}

// MarkCanceled closes the row unconditionally; cancellation is terminal so
// the stale guard does not apply.
func (r *SubscriptionRepo) MarkCanceled(ctx context.Context, subscriptionID string) (model.Subscription, error) {
	if r.pool == nil {
		return model.Subscription{}, fmt.Errorf("postgres pool is nil")
	}

	var row model.Subscription
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		row, err = scanSubscription(tx.QueryRow(ctx, `
UPDATE subscriptions SET
	status = 'canceled',
	updated_at = NOW()
WHERE stripe_subscription_id = $1
RETURNING `+subscriptionColumns+`
`, subscriptionID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSubscriptionNotFound
			}
			return fmt.Errorf("cancel subscription: %w", err)
		}
		return resyncSubscriptionFlag(ctx, tx, row.UserID)
	})
	if err != nil {
		return model.Subscription{}, err
	}
	return row, nil
}

func findSubscriptionTx(ctx context.Context, tx pgx.Tx, subscriptionID string) (model.Subscription, error) {
	row, err := scanSubscription(tx.QueryRow(ctx, `
SELECT `+subscriptionColumns+`
FROM subscriptions
WHERE stripe_subscription_id = $1
`, subscriptionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Subscription{}, ErrSubscriptionNotFound
		}
		return model.Subscription{}, fmt.Errorf("find subscription: %w", err)
	}
	return row, nil
}

// resyncSubscriptionFlag derives users.has_active_subscription from the
// subscription rows inside the same transaction, so the flag never drifts
// from the rows no matter what order events arrive in.
func resyncSubscriptionFlag(ctx context.Context, tx pgx.Tx, userID int64) error {
	if userID <= 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
UPDATE users SET
	has_active_subscription = EXISTS (
		SELECT 1 FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
	),
	updated_at = NOW()
WHERE id = $1
`, userID)
	if err != nil {
		return fmt.Errorf("resync subscription flag: %w", err)
	}
	return nil
}

func scanSubscription(row pgx.Row) (model.Subscription, error) {
	var (
		sub    model.Subscription
		status string
	)
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.SubscriptionID,
		&status,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.CancelAtPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return model.Subscription{}, err
	}
	sub.Status = enums.SubscriptionStatus(status)
	return sub, nil
}
