package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
	"github.com/GarryCodespace/xFood-Web/internal/domain/rules"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrUserNotFound        = errors.New("user not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrItemNotForSale      = errors.New("item is not for sale")
	ErrSelfPurchase        = errors.New("cannot purchase own item")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrMalformedPayload    = errors.New("malformed webhook payload")
)

type UserStore interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (model.User, error)
	// SetStripeCustomerIDIfAbsent stores the ref only when the user has none
	// yet and returns the ref that won, so concurrent provisioning converges
	// on a single customer.
	SetStripeCustomerIDIfAbsent(ctx context.Context, userID int64, customerID string) (string, error)
}

type RecipeStore interface {
	FindByID(ctx context.Context, recipeID int64) (model.Recipe, error)
}

type BakeStore interface {
	FindByID(ctx context.Context, bakeID int64) (model.Bake, error)
}

type PurchaseStore interface {
	// CreateFromIntent inserts the purchase keyed by the provider payment
	// intent id; created is false when a purchase for that intent already
	// exists.
	CreateFromIntent(ctx context.Context, purchase model.Purchase) (model.Purchase, bool, error)
	ListByBuyer(ctx context.Context, buyerID int64, limit, offset int) ([]model.Purchase, error)
	ListBySeller(ctx context.Context, sellerID int64, limit, offset int) ([]model.Purchase, error)
}

type SubscriptionStore interface {
	// UpsertFromProvider applies the provider snapshot unless the stored row
	// is newer or already canceled; applied reports whether the write took
	// effect. ownerID 0 keeps the existing owner and never creates a row.
	UpsertFromProvider(ctx context.Context, ownerID int64, sub ProviderSubscription) (model.Subscription, bool, error)
	FindByProviderID(ctx context.Context, subscriptionID string) (model.Subscription, error)
	FindActiveByUser(ctx context.Context, userID int64) (model.Subscription, error)
	MarkCanceled(ctx context.Context, subscriptionID string) (model.Subscription, error)
}

type Service struct {
	provider      Provider
	users         UserStore
	recipes       RecipeStore
	bakes         BakeStore
	purchases     PurchaseStore
	subscriptions SubscriptionStore
	log           *zap.Logger

	commissionBPS       int64
	currency            string
	subscriptionPriceID string
	frontendURL         string

	retryMax     uint64
	retryInitial time.Duration

	now func() time.Time
}

type Dependencies struct {
	Provider      Provider
	Users         UserStore
	Recipes       RecipeStore
	Bakes         BakeStore
	Purchases     PurchaseStore
	Subscriptions SubscriptionStore
	Logger        *zap.Logger
}

type Config struct {
	CommissionBPS       int64
	Currency            string
	SubscriptionPriceID string
	FrontendURL         string
}

func NewService(deps Dependencies, cfg Config) *Service {
	commission := cfg.CommissionBPS
	if commission <= 0 {
		commission = rules.DefaultCommissionBPS
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		provider:            deps.Provider,
		users:               deps.Users,
		recipes:             deps.Recipes,
		bakes:               deps.Bakes,
		purchases:           deps.Purchases,
		subscriptions:       deps.Subscriptions,
		log:                 log,
		commissionBPS:       commission,
		currency:            currency,
		subscriptionPriceID: cfg.SubscriptionPriceID,
		frontendURL:         strings.TrimRight(cfg.FrontendURL, "/"),
		retryMax:            3,
		retryInitial:        200 * time.Millisecond,
		now:                 time.Now,
	}
}

type ItemCheckout struct {
	PaymentIntentID     string
	ClientSecret        string
	AmountCents         int64
	PlatformFeeCents    int64
	SellerEarningsCents int64
}

type SubscriptionCheckout struct {
	SessionID   string
	CheckoutURL string
}

type itemListing struct {
	sellerID   int64
	priceCents int64
	forSale    bool
	title      string
}

// StartItemCheckout creates a payment intent for a priced recipe or bake.
// The intent carries typed metadata so the webhook reconciler can later
// record the purchase without guessing.
func (s *Service) StartItemCheckout(ctx context.Context, buyerID int64, rawItemType string, itemID int64) (ItemCheckout, error) {
	if buyerID <= 0 || itemID <= 0 {
		return ItemCheckout{}, fmt.Errorf("%w: bad identifiers", ErrValidation)
	}
	itemType, ok := enums.ParseItemType(rawItemType)
	if !ok {
		return ItemCheckout{}, fmt.Errorf("%w: unknown item type %q", ErrValidation, rawItemType)
	}

	listing, err := s.resolveListing(ctx, itemType, itemID)
	if err != nil {
		return ItemCheckout{}, err
	}
	if !listing.forSale {
		return ItemCheckout{}, ErrItemNotForSale
	}
	if listing.sellerID == buyerID {
		return ItemCheckout{}, ErrSelfPurchase
	}

	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return ItemCheckout{}, ErrUserNotFound
		}
		return ItemCheckout{}, fmt.Errorf("find buyer: %w", err)
	}

	customerID, err := s.ensureCustomer(ctx, buyer)
	if err != nil {
		return ItemCheckout{}, err
	}

	intent, err := s.provider.CreatePaymentIntent(ctx, PaymentIntentInput{
		AmountCents: listing.priceCents,
		Currency:    s.currency,
		CustomerID:  customerID,
		Metadata: IntentMetadata{
			ItemType: itemType,
			ItemID:   itemID,
			SellerID: listing.sellerID,
			BuyerID:  buyerID,
		},
	})
	if err != nil {
		return ItemCheckout{}, fmt.Errorf("%w: create payment intent: %v", ErrProviderUnavailable, err)
	}

	fee := rules.PlatformFee(listing.priceCents, s.commissionBPS)

	s.log.Info("item checkout started",
		zap.Int64("buyer_id", buyerID),
		zap.String("item_type", string(itemType)),
		zap.Int64("item_id", itemID),
		zap.Int64("amount_cents", listing.priceCents),
		zap.Int64("platform_fee_cents", fee),
	)

	return ItemCheckout{
		PaymentIntentID:     intent.ID,
		ClientSecret:        intent.ClientSecret,
		AmountCents:         listing.priceCents,
		PlatformFeeCents:    fee,
		SellerEarningsCents: listing.priceCents - fee,
	}, nil
}

// StartSubscriptionCheckout opens a hosted checkout session for the premium
// subscription price.
func (s *Service) StartSubscriptionCheckout(ctx context.Context, buyerID int64) (SubscriptionCheckout, error) {
	if buyerID <= 0 {
		return SubscriptionCheckout{}, fmt.Errorf("%w: bad user id", ErrValidation)
	}
	if s.subscriptionPriceID == "" {
		return SubscriptionCheckout{}, fmt.Errorf("%w: subscription price is not configured", ErrValidation)
	}

	buyer, err := s.users.FindByID(ctx, buyerID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return SubscriptionCheckout{}, ErrUserNotFound
		}
		return SubscriptionCheckout{}, fmt.Errorf("find buyer: %w", err)
	}

	customerID, err := s.ensureCustomer(ctx, buyer)
	if err != nil {
		return SubscriptionCheckout{}, err
	}

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutSessionInput{
		CustomerID: customerID,
		PriceID:    s.subscriptionPriceID,
		SuccessURL: s.frontendURL + "/subscription/success",
		CancelURL:  s.frontendURL + "/subscription/cancel",
	})
	if err != nil {
		return SubscriptionCheckout{}, fmt.Errorf("%w: create checkout session: %v", ErrProviderUnavailable, err)
	}

	s.log.Info("subscription checkout started",
		zap.Int64("user_id", buyerID),
		zap.String("session_id", session.ID),
	)

	return SubscriptionCheckout{SessionID: session.ID, CheckoutURL: session.URL}, nil
}

func (s *Service) resolveListing(ctx context.Context, itemType enums.ItemType, itemID int64) (itemListing, error) {
	switch itemType {
	case enums.ItemTypeRecipe:
		recipe, err := s.recipes.FindByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrRecipeNotFound) {
				return itemListing{}, ErrItemNotFound
			}
			return itemListing{}, fmt.Errorf("find recipe: %w", err)
		}
		listing := itemListing{sellerID: recipe.CreatedBy, title: recipe.Title}
		if recipe.IsPremium && recipe.PriceCents != nil && *recipe.PriceCents > 0 {
			listing.priceCents = *recipe.PriceCents
			listing.forSale = true
		}
		return listing, nil
	case enums.ItemTypeBake:
		bake, err := s.bakes.FindByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrBakeNotFound) {
				return itemListing{}, ErrItemNotFound
			}
			return itemListing{}, fmt.Errorf("find bake: %w", err)
		}
		listing := itemListing{sellerID: bake.CreatedBy, title: bake.Title}
		if bake.AvailableForOrder && bake.PriceCents > 0 {
			listing.priceCents = bake.PriceCents
			listing.forSale = true
		}
		return listing, nil
	default:
		return itemListing{}, fmt.Errorf("%w: unknown item type", ErrValidation)
	}
}

// ensureCustomer provisions a provider customer at most once per user. The
// provider call uses a per-user idempotency key and the store keeps the first
// stored ref, so a lost race costs one orphaned customer, never a wrong one.
func (s *Service) ensureCustomer(ctx context.Context, user model.User) (string, error) {
	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	customerID, err := s.provider.CreateCustomer(ctx, CustomerInput{
		Email:          user.Email,
		Name:           user.FullName,
		IdempotencyKey: fmt.Sprintf("customer-user-%d", user.ID),
	})
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %v", ErrProviderUnavailable, err)
	}

	winner, err := s.users.SetStripeCustomerIDIfAbsent(ctx, user.ID, customerID)
	if err != nil {
		return "", fmt.Errorf("store customer ref: %w", err)
	}
	return winner, nil
}

var ErrNoSubscription = errors.New("no active subscription")

// PurchaseHistory lists completed purchases from either side of the trade.
func (s *Service) PurchaseHistory(ctx context.Context, userID int64, sold bool, limit, offset int) ([]model.Purchase, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}

	var (
		rows []model.Purchase
		err  error
	)
	if sold {
		rows, err = s.purchases.ListBySeller(ctx, userID, limit, offset)
	} else {
		rows, err = s.purchases.ListByBuyer(ctx, userID, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return rows, nil
}

func (s *Service) CurrentSubscription(ctx context.Context, userID int64) (model.Subscription, error) {
	if userID <= 0 {
		return model.Subscription{}, ErrValidation
	}

	sub, err := s.subscriptions.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrSubscriptionNotFound) {
			return model.Subscription{}, ErrNoSubscription
		}
		return model.Subscription{}, fmt.Errorf("find active subscription: %w", err)
	}
	return sub, nil
}
