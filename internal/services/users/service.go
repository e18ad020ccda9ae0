package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUserNotFound = errors.New("user not found")
)

type Store interface {
	FindByID(ctx context.Context, userID int64) (model.User, error)
	UpdateProfile(ctx context.Context, userID int64, update pgrepo.UserProfileUpdate) (model.User, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, ErrValidation
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

type ProfileUpdate struct {
	FullName           *string
	AvatarURL          *string
	Location           *string
	Bio                *string
	DietaryPreferences []string
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (model.User, error) {
	if userID <= 0 {
		return model.User{}, ErrValidation
	}
	if update.FullName != nil && strings.TrimSpace(*update.FullName) == "" {
		return model.User{}, fmt.Errorf("%w: full name cannot be blank", ErrValidation)
	}
	if update.Bio != nil && len(*update.Bio) > 2000 {
		return model.User{}, fmt.Errorf("%w: bio too long", ErrValidation)
	}

	user, err := s.store.UpdateProfile(ctx, userID, pgrepo.UserProfileUpdate{
		FullName:           update.FullName,
		AvatarURL:          update.AvatarURL,
		Location:           update.Location,
		Bio:                update.Bio,
		DietaryPreferences: update.DietaryPreferences,
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// PublicProfile strips fields the owner alone should see.
func PublicProfile(user model.User) model.User {
	user.Email = ""
	user.DietaryPreferences = nil
	return user
}
