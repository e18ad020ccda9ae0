package social

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
	ErrValidation      = errors.New("validation error")
	ErrItemNotFound    = errors.New("item not found")
	ErrAlreadyReviewed = errors.New("item already reviewed by this user")
	ErrCommentNotFound = errors.New("comment not found")
	ErrForbidden       = errors.New("not the comment author")
	ErrRateLimited     = errors.New("too many requests")
)

const (
	maxCommentLength = 2000
	maxReviewLength  = 2000

	reviewScope  = "reviews"
	commentScope = "comments"
)

type ReviewStore interface {
	Create(ctx context.Context, review model.Review) (model.Review, error)
	ListForItem(ctx context.Context, itemType enums.ItemType, itemID int64, limit, offset int) ([]model.Review, error)
	FindByUserAndItem(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64) (model.Review, error)
}

type LikeStore interface {
	Add(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64) (bool, error)
	Remove(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64) (bool, error)
	Exists(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64) (bool, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment model.Comment) (model.Comment, error)
	ListForItem(ctx context.Context, itemType enums.ItemType, itemID int64, limit, offset int) ([]model.Comment, error)
	FindByID(ctx context.Context, commentID int64) (model.Comment, error)
	Delete(ctx context.Context, commentID int64) error
}

type RateLimiter interface {
	Allow(ctx context.Context, scope string, userID int64) (int64, bool, error)
}

type Service struct {
	reviews  ReviewStore
	likes    LikeStore
	comments CommentStore
	limiter  RateLimiter
}

type Dependencies struct {
	Reviews  ReviewStore
	Likes    LikeStore
	Comments CommentStore
	Limiter  RateLimiter
}

func NewService(deps Dependencies) *Service {
	return &Service{
		reviews:  deps.Reviews,
		likes:    deps.Likes,
		comments: deps.Comments,
		limiter:  deps.Limiter,
	}
}

// RateLimitedError carries the wait hint alongside ErrRateLimited.
type RateLimitedError struct {
	RetryAfterSec int64
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many requests, retry after %ds", e.RetryAfterSec)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

func (s *Service) allow(ctx context.Context, scope string, userID int64) error {
	if s.limiter == nil {
		return nil
	}
	retryAfter, ok, err := s.limiter.Allow(ctx, scope, userID)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if !ok {
		return &RateLimitedError{RetryAfterSec: retryAfter}
	}
	return nil
}

// CreateReview records a rating once per user and item. The item's running
// average moves inside the same transaction as the insert.
func (s *Service) CreateReview(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64, rating int, comment string) (model.Review, error) {
	if userID <= 0 || itemID <= 0 {
		return model.Review{}, ErrValidation
	}
	if rating < 1 || rating > 5 {
		return model.Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > maxReviewLength {
		return model.Review{}, fmt.Errorf("%w: comment too long", ErrValidation)
	}
	if err := s.allow(ctx, reviewScope, userID); err != nil {
		return model.Review{}, err
	}

	review, err := s.reviews.Create(ctx, model.Review{
		UserID:   userID,
		ItemType: itemType,
		ItemID:   itemID,
		Rating:   rating,
		Comment:  comment,
	})
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrAlreadyReviewed):
			return model.Review{}, ErrAlreadyReviewed
		case errors.Is(err, pgrepo.ErrRecipeNotFound), errors.Is(err, pgrepo.ErrBakeNotFound):
			return model.Review{}, ErrItemNotFound
		}
		return model.Review{}, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

func (s *Service) ListReviews(ctx context.Context, itemType enums.ItemType, itemID int64, limit, offset int) ([]model.Review, error) {
	if itemID <= 0 {
		return nil, ErrValidation
	}

	reviews, err := s.reviews.ListForItem(ctx, itemType, itemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Like is idempotent: liking twice reports liked=true both times and bumps
// the counter once.
func (s *Service) Like(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64) error {
	if userID <= 0 || itemID <= 0 {
		return ErrValidation
	}

	_, err := s.likes.Add(ctx, userID, itemType, itemID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrRecipeNotFound) || errors.Is(err, pgrepo.ErrBakeNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("add like: %w", err)
	}
	return nil
}

func (s *Service) Unlike(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64) error {
	if userID <= 0 || itemID <= 0 {
		return ErrValidation
	}

	if _, err := s.likes.Remove(ctx, userID, itemType, itemID); err != nil {
		return fmt.Errorf("remove like: %w", err)
	}
	return nil
}

func (s *Service) HasLiked(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64) (bool, error) {
	if userID <= 0 || itemID <= 0 {
		return false, ErrValidation
	}

	liked, err := s.likes.Exists(ctx, userID, itemType, itemID)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return liked, nil
}

func (s *Service) CreateComment(ctx context.Context, userID int64, itemType enums.ItemType, itemID int64, content string) (model.Comment, error) {
	if userID <= 0 || itemID <= 0 {
		return model.Comment{}, ErrValidation
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Comment{}, fmt.Errorf("%w: comment cannot be empty", ErrValidation)
	}
	if len(content) > maxCommentLength {
		return model.Comment{}, fmt.Errorf("%w: comment too long", ErrValidation)
	}
	if err := s.allow(ctx, commentScope, userID); err != nil {
		return model.Comment{}, err
	}

	comment, err := s.comments.Create(ctx, model.Comment{
		UserID:   userID,
		ItemType: itemType,
		ItemID:   itemID,
		Content:  content,
	})
	if err != nil {
		if errors.Is(err, pgrepo.ErrRecipeNotFound) || errors.Is(err, pgrepo.ErrBakeNotFound) {
			return model.Comment{}, ErrItemNotFound
		}
		return model.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func (s *Service) ListComments(ctx context.Context, itemType enums.ItemType, itemID int64, limit, offset int) ([]model.Comment, error) {
	if itemID <= 0 {
		return nil, ErrValidation
	}

	comments, err := s.comments.ListForItem(ctx, itemType, itemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *Service) DeleteComment(ctx context.Context, userID, commentID int64) error {
	if userID <= 0 || commentID <= 0 {
		return ErrValidation
	}

	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("find comment: %w", err)
	}
	if comment.UserID != userID {
		return ErrForbidden
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, pgrepo.ErrCommentNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
