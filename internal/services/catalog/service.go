package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GarryCodespace/xFood-Web/internal/domain/enums"
	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("item not found")
	ErrForbidden  = errors.New("not the item owner")
)

const maxPriceCents = 1_000_000

type RecipeStore interface {
	Create(ctx context.Context, recipe model.Recipe) (model.Recipe, error)
	FindByID(ctx context.Context, recipeID int64) (model.Recipe, error)
	List(ctx context.Context, filter pgrepo.RecipeFilter) ([]model.Recipe, error)
	Update(ctx context.Context, recipeID int64, update pgrepo.RecipeUpdate) (model.Recipe, error)
	Delete(ctx context.Context, recipeID int64) error
}

type BakeStore interface {
	Create(ctx context.Context, bake model.Bake) (model.Bake, error)
	FindByID(ctx context.Context, bakeID int64) (model.Bake, error)
	List(ctx context.Context, filter pgrepo.BakeFilter) ([]model.Bake, error)
	Update(ctx context.Context, bakeID int64, update pgrepo.BakeUpdate) (model.Bake, error)
	Delete(ctx context.Context, bakeID int64) error
}

type AccessStore interface {
	HasPurchased(ctx context.Context, buyerID int64, itemType enums.ItemType, itemID int64) (bool, error)
}

type CircleStore interface {
	IsMember(ctx context.Context, circleID, userID int64) (bool, error)
}

type Service struct {
	recipes RecipeStore
	bakes   BakeStore
	access  AccessStore
	circles CircleStore
}

type Dependencies struct {
	Recipes RecipeStore
	Bakes   BakeStore
	Access  AccessStore
	Circles CircleStore
}

func NewService(deps Dependencies) *Service {
	return &Service{
		recipes: deps.Recipes,
		bakes:   deps.Bakes,
		access:  deps.Access,
		circles: deps.Circles,
	}
}

func (s *Service) CreateRecipe(ctx context.Context, recipe model.Recipe) (model.Recipe, error) {
	if recipe.CreatedBy <= 0 || strings.TrimSpace(recipe.Title) == "" {
		return model.Recipe{}, ErrValidation
	}
	if recipe.IsPremium {
		if recipe.PriceCents == nil || *recipe.PriceCents <= 0 || *recipe.PriceCents > maxPriceCents {
			return model.Recipe{}, fmt.Errorf("%w: premium recipe needs a price", ErrValidation)
		}
	} else if recipe.PriceCents != nil {
		return model.Recipe{}, fmt.Errorf("%w: only premium recipes carry a price", ErrValidation)
	}
	if recipe.Difficulty == "" {
		recipe.Difficulty = enums.DifficultyMedium
	}

	created, err := s.recipes.Create(ctx, recipe)
	if err != nil {
		return model.Recipe{}, fmt.Errorf("create recipe: %w", err)
	}
	return created, nil
}

// GetRecipe returns the recipe with premium instructions redacted unless the
// viewer is the author, an active subscriber, or has bought it.
func (s *Service) GetRecipe(ctx context.Context, viewerID int64, viewerSubscribed bool, recipeID int64) (model.Recipe, bool, error) {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRecipeNotFound) {
			return model.Recipe{}, false, ErrNotFound
		}
		return model.Recipe{}, false, fmt.Errorf("find recipe: %w", err)
	}

	unlocked, err := s.recipeUnlocked(ctx, viewerID, viewerSubscribed, recipe)
	if err != nil {
		return model.Recipe{}, false, err
	}
	if !unlocked {
		recipe.Ingredients = nil
		recipe.Instructions = nil
	}
	return recipe, unlocked, nil
}

func (s *Service) recipeUnlocked(ctx context.Context, viewerID int64, viewerSubscribed bool, recipe model.Recipe) (bool, error) {
	if !recipe.IsPremium {
		return true, nil
	}
	if viewerID <= 0 {
		return false, nil
	}
	if viewerID == recipe.CreatedBy || viewerSubscribed {
		return true, nil
	}

	purchased, err := s.access.HasPurchased(ctx, viewerID, enums.ItemTypeRecipe, recipe.ID)
	if err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}
	return purchased, nil
}

func (s *Service) ListRecipes(ctx context.Context, filter pgrepo.RecipeFilter) ([]model.Recipe, error) {
	recipes, err := s.recipes.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

func (s *Service) UpdateRecipe(ctx context.Context, userID, recipeID int64, update pgrepo.RecipeUpdate) (model.Recipe, error) {
	if err := s.requireRecipeOwner(ctx, userID, recipeID); err != nil {
		return model.Recipe{}, err
	}
	if update.PriceCents != nil && (*update.PriceCents <= 0 || *update.PriceCents > maxPriceCents) {
		return model.Recipe{}, fmt.Errorf("%w: bad price", ErrValidation)
	}

	recipe, err := s.recipes.Update(ctx, recipeID, update)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRecipeNotFound) {
			return model.Recipe{}, ErrNotFound
		}
		return model.Recipe{}, fmt.Errorf("update recipe: %w", err)
	}
	return recipe, nil
}

func (s *Service) DeleteRecipe(ctx context.Context, userID, recipeID int64) error {
	if err := s.requireRecipeOwner(ctx, userID, recipeID); err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, recipeID); err != nil {
		if errors.Is(err, pgrepo.ErrRecipeNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete recipe: %w", err)
	}
	return nil
}

func (s *Service) requireRecipeOwner(ctx context.Context, userID, recipeID int64) error {
	recipe, err := s.recipes.FindByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRecipeNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("find recipe: %w", err)
	}
	if recipe.CreatedBy != userID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) CreateBake(ctx context.Context, bake model.Bake) (model.Bake, error) {
	if bake.CreatedBy <= 0 || strings.TrimSpace(bake.Title) == "" {
		return model.Bake{}, ErrValidation
	}
	if bake.AvailableForOrder && (bake.PriceCents <= 0 || bake.PriceCents > maxPriceCents) {
		return model.Bake{}, fmt.Errorf("%w: orderable bake needs a price", ErrValidation)
	}
	if bake.CircleID != nil {
		member, err := s.circles.IsMember(ctx, *bake.CircleID, bake.CreatedBy)
		if err != nil {
			return model.Bake{}, fmt.Errorf("check circle membership: %w", err)
		}
		if !member {
			return model.Bake{}, fmt.Errorf("%w: must join the circle first", ErrForbidden)
		}
	}

	created, err := s.bakes.Create(ctx, bake)
	if err != nil {
		return model.Bake{}, fmt.Errorf("create bake: %w", err)
	}
	return created, nil
}

func (s *Service) GetBake(ctx context.Context, bakeID int64) (model.Bake, error) {
	bake, err := s.bakes.FindByID(ctx, bakeID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBakeNotFound) {
			return model.Bake{}, ErrNotFound
		}
		return model.Bake{}, fmt.Errorf("find bake: %w", err)
	}
	return bake, nil
}

func (s *Service) ListBakes(ctx context.Context, filter pgrepo.BakeFilter) ([]model.Bake, error) {
	bakes, err := s.bakes.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bakes: %w", err)
	}
	return bakes, nil
}

func (s *Service) UpdateBake(ctx context.Context, userID, bakeID int64, update pgrepo.BakeUpdate) (model.Bake, error) {
	if err := s.requireBakeOwner(ctx, userID, bakeID); err != nil {
		return model.Bake{}, err
	}
	if update.PriceCents != nil && (*update.PriceCents <= 0 || *update.PriceCents > maxPriceCents) {
		return model.Bake{}, fmt.Errorf("%w: bad price", ErrValidation)
	}

	bake, err := s.bakes.Update(ctx, bakeID, update)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBakeNotFound) {
			return model.Bake{}, ErrNotFound
		}
		return model.Bake{}, fmt.Errorf("update bake: %w", err)
	}
	return bake, nil
}

func (s *Service) DeleteBake(ctx context.Context, userID, bakeID int64) error {
	if err := s.requireBakeOwner(ctx, userID, bakeID); err != nil {
		return err
	}
	if err := s.bakes.Delete(ctx, bakeID); err != nil {
		if errors.Is(err, pgrepo.ErrBakeNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete bake: %w", err)
	}
	return nil
}

func (s *Service) requireBakeOwner(ctx context.Context, userID, bakeID int64) error {
	bake, err := s.bakes.FindByID(ctx, bakeID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrBakeNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("find bake: %w", err)
	}
	if bake.CreatedBy != userID {
		return ErrForbidden
	}
	return nil
}

// ItemExists reports whether the reviewable/likeable target exists at all.
func (s *Service) ItemExists(ctx context.Context, itemType enums.ItemType, itemID int64) (bool, error) {
	switch itemType {
	case enums.ItemTypeRecipe:
		_, err := s.recipes.FindByID(ctx, itemID)
		if errors.Is(err, pgrepo.ErrRecipeNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("find recipe: %w", err)
		}
		return true, nil
	case enums.ItemTypeBake:
		_, err := s.bakes.FindByID(ctx, itemID)
		if errors.Is(err, pgrepo.ErrBakeNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("find bake: %w", err)
		}
		return true, nil
	default:
		return false, ErrValidation
	}
}
