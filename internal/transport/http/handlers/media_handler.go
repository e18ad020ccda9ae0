package handlers

import (
	"errors"
	"net/http"

	mediasvc "github.com/GarryCodespace/xFood-Web/internal/services/media"
	"github.com/GarryCodespace/xFood-Web/internal/transport/http/dto"
	httperrors "github.com/GarryCodespace/xFood-Web/internal/transport/http/errors"
)

const uploadFormField = "file"

type MediaHandler struct {
	service      *mediasvc.Service
	maxSizeBytes int64
}

func NewMediaHandler(service *mediasvc.Service, maxSizeBytes int64) *MediaHandler {
	if maxSizeBytes <= 0 {
		maxSizeBytes = 10 << 20
	}
	return &MediaHandler{service: service, maxSizeBytes: maxSizeBytes}
}

// Upload accepts one multipart image under the "file" field; the upload kind
// comes from the "kind" form value.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSizeBytes+1024)
	if err := r.ParseMultipartForm(h.maxSizeBytes); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid multipart body")
		return
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "file field is required")
		return
	}
	defer file.Close()

	kind := r.FormValue("kind")
	if kind == "" {
		kind = mediasvc.KindRecipe
	}

	up, err := h.service.UploadImage(
		r.Context(),
		identity.UserID,
		kind,
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
		header.Size,
	)
	if err != nil {
		handleMediaError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.UploadResponse{Key: up.Key, URL: up.URL})
}

func (h *MediaHandler) SignedURL(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MEDIA_SERVICE_UNAVAILABLE", "media service is unavailable")
		return
	}
	if _, ok := requireIdentity(w, r); !ok {
		return
	}

	key := r.URL.Query().Get("key")
	url, err := h.service.SignedURL(r.Context(), key)
	if err != nil {
		handleMediaError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.UploadResponse{Key: key, URL: url})
}

func handleMediaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mediasvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "request validation failed")
	case errors.Is(err, mediasvc.ErrFileTooLarge):
		httperrors.Write(w, http.StatusRequestEntityTooLarge, httperrors.APIError{
			Code:    "FILE_TOO_LARGE",
			Message: "file exceeds the size limit",
		})
	case errors.Is(err, mediasvc.ErrUnsupportedType):
		httperrors.Write(w, http.StatusUnsupportedMediaType, httperrors.APIError{
			Code:    "UNSUPPORTED_TYPE",
			Message: "only jpeg, png and webp images are accepted",
		})
	default:
		writeInternal(w, "INTERNAL_ERROR", "internal server error")
	}
}
