package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrFileTooLarge    = errors.New("file exceeds size limit")
	ErrUnsupportedType = errors.New("unsupported content type")
)

const defaultSignedURLTTL = 15 * time.Minute

// Kinds group uploads under predictable key prefixes.
const (
	KindRecipe = "recipes"
	KindBake   = "bakes"
	KindAvatar = "avatars"
	KindCircle = "circles"
)

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	storage      ObjectStorage
	maxSizeBytes int64
	signedURLTTL time.Duration
}

type Upload struct {
	Key string
	URL string
}

func NewService(storage ObjectStorage, maxSizeBytes int64, signedURLTTL time.Duration) *Service {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 10 << 20
	}
	if signedURLTTL <= 0 {
		signedURLTTL = defaultSignedURLTTL
	}

	return &Service{
		storage:      storage,
		maxSizeBytes: maxSizeBytes,
		signedURLTTL: signedURLTTL,
	}
}

// UploadImage stores one image and returns its object key plus a signed URL.
// The caller attaches the URL to whatever entity it is creating.
func (s *Service) UploadImage(ctx context.Context, userID int64, kind, fileName, contentType string, body io.Reader, size int64) (Upload, error) {
	if userID <= 0 || body == nil || size <= 0 {
		return Upload{}, ErrValidation
	}
	if s.storage == nil {
		return Upload{}, fmt.Errorf("media storage is not configured")
	}
	if !validKind(kind) {
		return Upload{}, fmt.Errorf("%w: unknown upload kind %q", ErrValidation, kind)
	}
	if size > s.maxSizeBytes {
		return Upload{}, ErrFileTooLarge
	}

	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "" {
		contentType = contentTypeFromName(fileName)
	}
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return Upload{}, ErrUnsupportedType
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return Upload{}, fmt.Errorf("ensure bucket: %w", err)
	}

	key := fmt.Sprintf("%s/%d/%s%s", kind, userID, uuid.NewString(), ext)
	if err := s.storage.PutObject(ctx, key, body, size, contentType); err != nil {
		return Upload{}, fmt.Errorf("put object: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, key, s.signedURLTTL)
	if err != nil {
		_ = s.storage.Delete(ctx, key)
		return Upload{}, fmt.Errorf("presign url: %w", err)
	}

	return Upload{Key: key, URL: url}, nil
}

// SignedURL refreshes access to a previously uploaded object.
func (s *Service) SignedURL(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", ErrValidation
	}
	if s.storage == nil {
		return "", fmt.Errorf("media storage is not configured")
	}
	return s.storage.PresignGet(ctx, key, s.signedURLTTL)
}

func contentTypeFromName(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}

func validKind(kind string) bool {
	switch kind {
	case KindRecipe, KindBake, KindAvatar, KindCircle:
		return true
	default:
		return false
	}
}
