package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
)

func sellerAndBuyer() (model.User, model.User) {
	seller := model.User{ID: 1, Email: "seller@example.com", FullName: "Seller", StripeCustomerID: "cus_seller"}
	buyer := model.User{ID: 2, Email: "buyer@example.com", FullName: "Buyer"}
	return seller, buyer
}

func TestStartItemCheckoutComputesFeeSplit(t *testing.T) {
	seller, buyer := sellerAndBuyer()
	fx := newBillingFixture(seller, buyer)
	fx.bakes.bakes[10] = model.Bake{
		ID:                10,
		Title:             "Cinnamon Rolls",
		PriceCents:        2500,
		AvailableForOrder: true,
		CreatedBy:         seller.ID,
	}

	res, err := fx.svc.StartItemCheckout(context.Background(), buyer.ID, "bake", 10)
	if err != nil {
		t.Fatalf("start item checkout: %v", err)
	}

	if res.AmountCents != 2500 {
		t.Fatalf("unexpected amount: %d", res.AmountCents)
	}
	if res.PlatformFeeCents != 250 {
		t.Fatalf("unexpected platform fee: %d", res.PlatformFeeCents)
	}
	if res.SellerEarningsCents != 2250 {
		t.Fatalf("unexpected seller earnings: %d", res.SellerEarningsCents)
	}
	if res.ClientSecret == "" || res.PaymentIntentID == "" {
		t.Fatalf("missing intent refs: %+v", res)
	}

	meta := fx.provider.lastIntentInput.Metadata
	if meta.BuyerID != buyer.ID || meta.SellerID != seller.ID || meta.ItemID != 10 || string(meta.ItemType) != "bake" {
		t.Fatalf("unexpected intent metadata: %+v", meta)
	}
	raw := meta.ToMap()
	if raw["platform"] != "xfood" {
		t.Fatalf("metadata missing platform tag: %v", raw)
	}
}

func TestStartItemCheckoutPremiumRecipe(t *testing.T) {
	seller, buyer := sellerAndBuyer()
	fx := newBillingFixture(seller, buyer)
	price := int64(1000)
	fx.recipes.recipes[5] = model.Recipe{
		ID:         5,
		Title:      "Laminated Croissant",
		IsPremium:  true,
		PriceCents: &price,
		CreatedBy:  seller.ID,
	}

	res, err := fx.svc.StartItemCheckout(context.Background(), buyer.ID, "recipe", 5)
	if err != nil {
		t.Fatalf("start recipe checkout: %v", err)
	}
	if res.PlatformFeeCents != 100 || res.SellerEarningsCents != 900 {
		t.Fatalf("unexpected split: fee=%d earnings=%d", res.PlatformFeeCents, res.SellerEarningsCents)
	}
}

func TestStartItemCheckoutRejectsSelfPurchase(t *testing.T) {
	seller, _ := sellerAndBuyer()
	fx := newBillingFixture(seller)
	fx.bakes.bakes[10] = model.Bake{ID: 10, PriceCents: 2500, AvailableForOrder: true, CreatedBy: seller.ID}

	if _, err := fx.svc.StartItemCheckout(context.Background(), seller.ID, "bake", 10); !errors.Is(err, ErrSelfPurchase) {
		t.Fatalf("expected ErrSelfPurchase, got %v", err)
	}
	if fx.provider.intentsCreated != 0 {
		t.Fatalf("no intent should be created on self purchase")
	}
}

func TestStartItemCheckoutRejectsUnsellableItems(t *testing.T) {
	seller, buyer := sellerAndBuyer()
	fx := newBillingFixture(seller, buyer)
	fx.bakes.bakes[11] = model.Bake{ID: 11, PriceCents: 2500, AvailableForOrder: false, CreatedBy: seller.ID}
	fx.recipes.recipes[6] = model.Recipe{ID: 6, IsPremium: false, CreatedBy: seller.ID}

	ctx := context.Background()
	if _, err := fx.svc.StartItemCheckout(ctx, buyer.ID, "bake", 11); !errors.Is(err, ErrItemNotForSale) {
		t.Fatalf("unavailable bake: expected ErrItemNotForSale, got %v", err)
	}
	if _, err := fx.svc.StartItemCheckout(ctx, buyer.ID, "recipe", 6); !errors.Is(err, ErrItemNotForSale) {
		t.Fatalf("free recipe: expected ErrItemNotForSale, got %v", err)
	}
	if _, err := fx.svc.StartItemCheckout(ctx, buyer.ID, "bake", 999); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("missing bake: expected ErrItemNotFound, got %v", err)
	}
	if _, err := fx.svc.StartItemCheckout(ctx, buyer.ID, "sculpture", 11); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad item type: expected ErrValidation, got %v", err)
	}
}

func TestCustomerProvisionedAtMostOnce(t *testing.T) {
	seller, buyer := sellerAndBuyer()
	fx := newBillingFixture(seller, buyer)
	fx.bakes.bakes[10] = model.Bake{ID: 10, PriceCents: 2500, AvailableForOrder: true, CreatedBy: seller.ID}

	ctx := context.Background()
	if _, err := fx.svc.StartItemCheckout(ctx, buyer.ID, "bake", 10); err != nil {
		t.Fatalf("first checkout: %v", err)
	}
	if fx.provider.customersCreated != 1 {
		t.Fatalf("expected one customer created, got %d", fx.provider.customersCreated)
	}
	stored := fx.users.get(buyer.ID).StripeCustomerID
	if stored == "" {
		t.Fatalf("customer ref was not stored")
	}

	if _, err := fx.svc.StartItemCheckout(ctx, buyer.ID, "bake", 10); err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if fx.provider.customersCreated != 1 {
		t.Fatalf("customer should be reused, created %d", fx.provider.customersCreated)
	}
	if got := fx.users.get(buyer.ID).StripeCustomerID; got != stored {
		t.Fatalf("customer ref changed: %s -> %s", stored, got)
	}
}

func TestStartSubscriptionCheckout(t *testing.T) {
	seller, buyer := sellerAndBuyer()
	fx := newBillingFixture(seller, buyer)

	var captured CheckoutSessionInput
	fx.provider.createCheckoutSession = func(in CheckoutSessionInput) (CheckoutSessionResult, error) {
		captured = in
		return CheckoutSessionResult{ID: "cs_1", URL: "https://checkout.example/cs_1"}, nil
	}

	res, err := fx.svc.StartSubscriptionCheckout(context.Background(), buyer.ID)
	if err != nil {
		t.Fatalf("start subscription checkout: %v", err)
	}
	if res.CheckoutURL == "" || res.SessionID != "cs_1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if captured.PriceID != "price_premium" {
		t.Fatalf("unexpected price id: %s", captured.PriceID)
	}
	if captured.SuccessURL != "https://xfood.example/subscription/success" {
		t.Fatalf("unexpected success url: %s", captured.SuccessURL)
	}
	if captured.CancelURL != "https://xfood.example/subscription/cancel" {
		t.Fatalf("unexpected cancel url: %s", captured.CancelURL)
	}
}

func TestProviderFailureSurfacesAsUnavailable(t *testing.T) {
	seller, buyer := sellerAndBuyer()
	fx := newBillingFixture(seller, buyer)
	fx.bakes.bakes[10] = model.Bake{ID: 10, PriceCents: 2500, AvailableForOrder: true, CreatedBy: seller.ID}
	fx.provider.createPaymentIntent = func(PaymentIntentInput) (PaymentIntentResult, error) {
		return PaymentIntentResult{}, fmt.Errorf("stripe is down")
	}

	if _, err := fx.svc.StartItemCheckout(context.Background(), buyer.ID, "bake", 10); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
