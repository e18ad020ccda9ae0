package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
)

type memRecipeStore struct {
	recipes map[int64]model.Recipe
	nextID  int64
}

func newMemRecipeStore() *memRecipeStore {
	return &memRecipeStore{recipes: make(map[int64]model.Recipe)}
}

func (s *memRecipeStore) Create(_ context.Context, recipe model.Recipe) (model.Recipe, error) {
	s.nextID++
	recipe.ID = s.nextID
	s.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (s *memRecipeStore) FindByID(_ context.Context, id int64) (model.Recipe, error) {
	if r, ok := s.recipes[id]; ok {
		return r, nil
	}
	return model.Recipe{}, pgrepo.ErrRecipeNotFound
}

func (s *memRecipeStore) List(_ context.Context, _ pgrepo.RecipeFilter) ([]model.Recipe, error) {
	var out []model.Recipe
	for _, r := range s.recipes {
		out = append(out, r)
	}
	return out, nil
}

func (s *memRecipeStore) Update(_ context.Context, id int64, update pgrepo.RecipeUpdate) (model.Recipe, error) {
	r, ok := s.recipes[id]
	if !ok {
		return model.Recipe{}, pgrepo.ErrRecipeNotFound
	}
	if update.Title != nil {
		r.Title = *update.Title
	}
	if update.PriceCents != nil {
		r.PriceCents = update.PriceCents
	}
	s.recipes[id] = r
	return r, nil
}

func (s *memRecipeStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.recipes[id]; !ok {
		return pgrepo.ErrRecipeNotFound
	}
	delete(s.recipes, id)
	return nil
}

type memBakeStore struct {
	bakes  map[int64]model.Bake
	nextID int64
}

func newMemBakeStore() *memBakeStore {
	return &memBakeStore{bakes: make(map[int64]model.Bake)}
}

func (s *memBakeStore) Create(_ context.Context, bake model.Bake) (model.Bake, error) {
	s.nextID++
	bake.ID = s.nextID
	s.bakes[bake.ID] = bake
	return bake, nil
}

func (s *memBakeStore) FindByID(_ context.Context, id int64) (model.Bake, error) {
	if b, ok := s.bakes[id]; ok {
		return b, nil
	}
	return model.Bake{}, pgrepo.ErrBakeNotFound
}

func (s *memBakeStore) List(_ context.Context, _ pgrepo.BakeFilter) ([]model.Bake, error) {
	var out []model.Bake
	for _, b := range s.bakes {
		out = append(out, b)
	}
	return out, nil
}

func (s *memBakeStore) Update(_ context.Context, id int64, update pgrepo.BakeUpdate) (model.Bake, error) {
	b, ok := s.bakes[id]
	if !ok {
		return model.Bake{}, pgrepo.ErrBakeNotFound
	}
	if update.Title != nil {
		b.Title = *update.Title
	}
	s.bakes[id] = b
	return b, nil
}

func (s *memBakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.bakes[id]; !ok {
		return pgrepo.ErrBakeNotFound
	}
	delete(s.bakes, id)
	return nil
}

type memAccessStore struct {
	purchased map[int64]bool
}

func (s *memAccessStore) HasPurchased(_ context.Context, buyerID int64, _ enums.ItemType, _ int64) (bool, error) {
	return s.purchased[buyerID], nil
}

type memCircleStore struct {
	members map[int64]map[int64]bool
}

func (s *memCircleStore) IsMember(_ context.Context, circleID, userID int64) (bool, error) {
	return s.members[circleID][userID], nil
}

func newCatalogFixture() (*Service, *memRecipeStore, *memBakeStore, *memAccessStore) {
	recipes := newMemRecipeStore()
	bakes := newMemBakeStore()
	access := &memAccessStore{purchased: make(map[int64]bool)}
	circles := &memCircleStore{members: map[int64]map[int64]bool{5: {1: true}}}
	svc := NewService(Dependencies{
		Recipes: recipes,
		Bakes:   bakes,
		Access:  access,
		Circles: circles,
	})
	return svc, recipes, bakes, access
}

func premiumRecipe(createdBy int64, price int64) model.Recipe {
	return model.Recipe{
		Title:        "Laminated Croissants",
		Ingredients:  []string{"flour", "butter"},
		Instructions: []string{"laminate", "proof", "bake"},
		IsPremium:    true,
		PriceCents:   &price,
		CreatedBy:    createdBy,
	}
}

func TestCreateRecipeValidatesPremiumPricing(t *testing.T) {
	svc, _, _, _ := newCatalogFixture()
	ctx := context.Background()

	if _, err := svc.CreateRecipe(ctx, model.Recipe{Title: "x", CreatedBy: 1, IsPremium: true}); !errors.Is(err, ErrValidation) {
		t.Fatalf("premium without price: expected ErrValidation, got %v", err)
	}

	price := int64(500)
	if _, err := svc.CreateRecipe(ctx, model.Recipe{Title: "x", CreatedBy: 1, PriceCents: &price}); !errors.Is(err, ErrValidation) {
		t.Fatalf("price on free recipe: expected ErrValidation, got %v", err)
	}

	created, err := svc.CreateRecipe(ctx, premiumRecipe(1, 500))
	if err != nil {
		t.Fatalf("create premium recipe: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}
}

func TestGetRecipeRedactsPremiumBody(t *testing.T) {
	svc, _, _, access := newCatalogFixture()
	ctx := context.Background()

	created, err := svc.CreateRecipe(ctx, premiumRecipe(2, 700))
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	// Anonymous viewer sees the listing but not the body.
	got, unlocked, err := svc.GetRecipe(ctx, 0, false, created.ID)
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if unlocked || got.Ingredients != nil || got.Instructions != nil {
		t.Fatalf("premium body must be redacted for anonymous viewers")
	}

	// The author always sees their own content.
	got, unlocked, err = svc.GetRecipe(ctx, 2, false, created.ID)
	if err != nil || !unlocked || len(got.Instructions) == 0 {
		t.Fatalf("author view: unlocked=%v err=%v", unlocked, err)
	}

	// An active subscriber is unlocked without a purchase.
	if _, unlocked, _ = svc.GetRecipe(ctx, 3, true, created.ID); !unlocked {
		t.Fatalf("subscriber should be unlocked")
	}

	// A past buyer stays unlocked.
	access.purchased[4] = true
	if _, unlocked, _ = svc.GetRecipe(ctx, 4, false, created.ID); !unlocked {
		t.Fatalf("buyer should be unlocked")
	}
}

func TestUpdateRecipeRequiresOwner(t *testing.T) {
	svc, _, _, _ := newCatalogFixture()
	ctx := context.Background()

	created, err := svc.CreateRecipe(ctx, premiumRecipe(1, 500))
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	title := "renamed"
	if _, err := svc.UpdateRecipe(ctx, 2, created.ID, pgrepo.RecipeUpdate{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger update: expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteRecipe(ctx, 2, created.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger delete: expected ErrForbidden, got %v", err)
	}

	updated, err := svc.UpdateRecipe(ctx, 1, created.ID, pgrepo.RecipeUpdate{Title: &title})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "renamed" {
		t.Fatalf("title not updated: %q", updated.Title)
	}
}

func TestCreateBakeChecksCircleMembership(t *testing.T) {
	svc, _, _, _ := newCatalogFixture()
	ctx := context.Background()

	circleID := int64(5)
	bake := model.Bake{
		Title:             "Cinnamon Rolls",
		PriceCents:        1200,
		AvailableForOrder: true,
		CircleID:          &circleID,
		CreatedBy:         1,
	}
	if _, err := svc.CreateBake(ctx, bake); err != nil {
		t.Fatalf("member posting to circle: %v", err)
	}

	bake.CreatedBy = 9
	if _, err := svc.CreateBake(ctx, bake); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-member posting to circle: expected ErrForbidden, got %v", err)
	}
}
