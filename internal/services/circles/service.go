package circles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GarryCodespace/xFood-Web/internal/domain/model"
	pgrepo "github.com/GarryCodespace/xFood-Web/internal/repo/postgres"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrCircleNotFound = errors.New("circle not found")
	ErrAlreadyMember  = errors.New("already a member")
	ErrNotMember      = errors.New("not a member")
	ErrPrivateCircle  = errors.New("circle is private")
)

type Store interface {
	Create(ctx context.Context, circle model.Circle) (model.Circle, error)
	FindByID(ctx context.Context, circleID int64) (model.Circle, error)
	ListPublic(ctx context.Context, limit, offset int) ([]model.Circle, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Circle, error)
	Join(ctx context.Context, circleID, userID int64) error
	Leave(ctx context.Context, circleID, userID int64) error
	IsMember(ctx context.Context, circleID, userID int64) (bool, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create opens a new circle; the creator joins it in the same transaction.
func (s *Service) Create(ctx context.Context, circle model.Circle) (model.Circle, error) {
	if circle.CreatedBy <= 0 || strings.TrimSpace(circle.Name) == "" {
		return model.Circle{}, ErrValidation
	}
	if len(circle.Name) > 120 {
		return model.Circle{}, fmt.Errorf("%w: name too long", ErrValidation)
	}

	created, err := s.store.Create(ctx, circle)
	if err != nil {
		return model.Circle{}, fmt.Errorf("create circle: %w", err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, viewerID, circleID int64) (model.Circle, error) {
	circle, err := s.store.FindByID(ctx, circleID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCircleNotFound) {
			return model.Circle{}, ErrCircleNotFound
		}
		return model.Circle{}, fmt.Errorf("find circle: %w", err)
	}

	if !circle.IsPublic && viewerID != circle.CreatedBy {
		member, err := s.store.IsMember(ctx, circleID, viewerID)
		if err != nil {
			return model.Circle{}, fmt.Errorf("check membership: %w", err)
		}
		if !member {
			return model.Circle{}, ErrPrivateCircle
		}
	}
	return circle, nil
}

func (s *Service) ListPublic(ctx context.Context, limit, offset int) ([]model.Circle, error) {
	circles, err := s.store.ListPublic(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list circles: %w", err)
	}
	return circles, nil
}

func (s *Service) ListMine(ctx context.Context, userID int64) ([]model.Circle, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}

	circles, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list joined circles: %w", err)
	}
	return circles, nil
}

func (s *Service) Join(ctx context.Context, circleID, userID int64) error {
	if circleID <= 0 || userID <= 0 {
		return ErrValidation
	}

	circle, err := s.store.FindByID(ctx, circleID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCircleNotFound) {
			return ErrCircleNotFound
		}
		return fmt.Errorf("find circle: %w", err)
	}
	if !circle.IsPublic {
		return ErrPrivateCircle
	}

	if err := s.store.Join(ctx, circleID, userID); err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrAlreadyMember):
			return ErrAlreadyMember
		case errors.Is(err, pgrepo.ErrCircleNotFound):
			return ErrCircleNotFound
		}
		return fmt.Errorf("join circle: %w", err)
	}
	return nil
}

func (s *Service) Leave(ctx context.Context, circleID, userID int64) error {
	if circleID <= 0 || userID <= 0 {
		return ErrValidation
	}

	if err := s.store.Leave(ctx, circleID, userID); err != nil {
		if errors.Is(err, pgrepo.ErrNotMember) {
			return ErrNotMember
		}
		return fmt.Errorf("leave circle: %w", err)
	}
	return nil
}
