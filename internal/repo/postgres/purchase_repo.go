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

var ErrPurchaseNotFound = errors.New("purchase not found")

type PurchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

const purchaseColumns = `id, buyer_id, seller_id, item_type, item_id, amount_cents, platform_fee_cents, seller_earnings_cents, stripe_payment_intent_id, status, created_at, updated_at`

// CreateFromIntent records a confirmed payment keyed by the provider payment
// intent id. A second delivery of the same intent finds the existing row and
// reports created=false; nothing is written twice.
func (r *PurchaseRepo) CreateFromIntent(ctx context.Context, purchase model.Purchase) (model.Purchase, bool, error) {
	if r.pool == nil {
		return model.Purchase{}, false, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(purchase.PaymentIntentID) == "" {
		return model.Purchase{}, false, fmt.Errorf("invalid payment intent id")
	}
	if purchase.BuyerID <= 0 || purchase.SellerID <= 0 || purchase.ItemID <= 0 {
		return model.Purchase{}, false, fmt.Errorf("invalid purchase payload")
	}

	row, err := scanPurchase(r.pool.QueryRow(ctx, `
INSERT INTO purchases (
	buyer_id,
	seller_id,
	item_type,
	item_id,
	amount_cents,
	platform_fee_cents,
	seller_earnings_cents,
	stripe_payment_intent_id,
	status,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
ON CONFLICT (stripe_payment_intent_id) DO NOTHING
RETURNING `+purchaseColumns+`
`,
		purchase.BuyerID,
		purchase.SellerID,
		string(purchase.ItemType),
		purchase.ItemID,
		purchase.AmountCents,
		purchase.PlatformFeeCents,
		purchase.SellerEarningsCents,
		purchase.PaymentIntentID,
		string(purchase.Status),
	))
	if err == nil {
		return row, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Purchase{}, false, fmt.Errorf("create purchase: %w", err)
	}

	existing, err := r.FindByPaymentIntentID(ctx, purchase.PaymentIntentID)
	if err != nil {
		return model.Purchase{}, false, err
	}
	return existing, false, nil
}

func (r *PurchaseRepo) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (model.Purchase, error) {
	if r.pool == nil {
		return model.Purchase{}, fmt.Errorf("postgres pool is nil")
	}

	row, err := scanPurchase(r.pool.QueryRow(ctx, `
SELECT `+purchaseColumns+`
FROM purchases
WHERE stripe_payment_intent_id = $1
`, paymentIntentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Purchase{}, ErrPurchaseNotFound
		}
		return model.Purchase{}, fmt.Errorf("find purchase by intent: %w", err)
	}
	return row, nil
}

func (r *PurchaseRepo) ListByBuyer(ctx context.Context, buyerID int64, limit, offset int) ([]model.Purchase, error) {
	return r.listByUserColumn(ctx, "buyer_id", buyerID, limit, offset)
}

func (r *PurchaseRepo) ListBySeller(ctx context.Context, sellerID int64, limit, offset int) ([]model.Purchase, error) {
	return r.listByUserColumn(ctx, "seller_id", sellerID, limit, offset)
}

func (r *PurchaseRepo) listByUserColumn(ctx context.Context, column string, userID int64, limit, offset int) ([]model.Purchase, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+purchaseColumns+`
FROM purchases
WHERE `+column+` = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	purchases := make([]model.Purchase, 0)
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}
	return purchases, nil
}

// HasPurchased reports whether the buyer holds a completed purchase of the
// item; premium recipe access checks go through this.
func (r *PurchaseRepo) HasPurchased(ctx context.Context, buyerID int64, itemType enums.ItemType, itemID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM purchases
	WHERE buyer_id = $1 AND item_type = $2 AND item_id = $3 AND status = 'completed'
)
`, buyerID, string(itemType), itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}
	return exists, nil
}

func scanPurchase(row pgx.Row) (model.Purchase, error) {
	var (
		purchase model.Purchase
		itemType string
		status   string
	)
	err := row.Scan(
		&purchase.ID,
		&purchase.BuyerID,
		&purchase.SellerID,
		&itemType,
		&purchase.ItemID,
		&purchase.AmountCents,
		&purchase.PlatformFeeCents,
		&purchase.SellerEarningsCents,
		&purchase.PaymentIntentID,
		&status,
		&purchase.CreatedAt,
		&purchase.UpdatedAt,
	)
	if err != nil {
		return model.Purchase{}, err
	}
	purchase.ItemType = enums.ItemType(itemType)
	purchase.Status = enums.PurchaseStatus(status)
	return purchase, nil
}
