package handlers

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/nshamaev/instakiller/internal/middleware"
	"github.com/nshamaev/instakiller/internal/models"
	"github.com/nshamaev/instakiller/internal/photoquery"
	"github.com/nshamaev/instakiller/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// maxUploadBytes bounds how much of a multipart body is held in memory.
const maxUploadBytes = 32 << 20

// PhotoHandler handles photo-related HTTP requests
type PhotoHandler struct {
	photoService *services.PhotoService
	defaults     photoquery.Defaults
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photoService *services.PhotoService, defaults photoquery.Defaults) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		defaults:     defaults,
	}
}

// UploadResponse carries the id of a freshly created photo.
type UploadResponse struct {
	ID int64 `json:"id"`
}

// ListResponse is the paginated list envelope.
type ListResponse struct {
	XMLName xml.Name       `json:"-" xml:"photos"`
	Count   int            `json:"count" xml:"count"`
	Results []models.Photo `json:"results" xml:"results>photo"`
}

// updateRequest is the PUT body; any other fields are ignored.
type updateRequest struct {
	Name        string `json:"name"`
	BorderColor string `json:"border_color"`
}

// Upload handles POST /api/v1/photos/upload
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, "Invalid multipart request body", http.StatusBadRequest)
		return
	}

	var filename string
	var data []byte
	if file, header, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		filename = header.Filename
		data, err = io.ReadAll(file)
		if err != nil {
			respondError(w, "Failed to read uploaded file", http.StatusBadRequest)
			return
		}
	}

	photo, verrs, err := h.photoService.Upload(ctx, userID,
		r.FormValue("name"), r.FormValue("border_color"), filename, data)
	if verrs != nil {
		respondFieldErrors(w, verrs)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to upload photo")
		respondError(w, "Failed to upload photo", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("user_id", userID).
		Int64("photo_id", photo.ID).
		Str("file_path", photo.FilePath).
		Msg("Photo uploaded")

	respond(w, r, http.StatusCreated, UploadResponse{ID: photo.ID})
}

// List handles GET /api/v1/photos
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	query := photoquery.Parse(r.URL.Query(), h.defaults)
	photos, total, err := h.photoService.List(ctx, userID, query)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list photos")
		respondError(w, "Failed to list photos", http.StatusInternalServerError)
		return
	}

	respond(w, r, http.StatusOK, ListResponse{Count: total, Results: photos})
}

// Get handles GET /api/v1/photos/{photo_id}
func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	id, ok := photoID(r)
	if !ok {
		respondError(w, "Photo not found", http.StatusNotFound)
		return
	}

	photo, err := h.photoService.Get(ctx, id, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, "Photo not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Int64("photo_id", id).Msg("Failed to get photo")
		respondError(w, "Failed to get photo", http.StatusInternalServerError)
		return
	}

	respond(w, r, http.StatusOK, photo)
}

// Update handles PUT /api/v1/photos/{photo_id}
func (h *PhotoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	id, ok := photoID(r)
	if !ok {
		respondError(w, "Photo not found", http.StatusNotFound)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	photo, verrs, err := h.photoService.Update(ctx, id, userID, req.Name, req.BorderColor)
	if verrs != nil {
		respondFieldErrors(w, verrs)
		return
	}
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, "Photo not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Int64("photo_id", id).Msg("Failed to update photo")
		respondError(w, "Failed to update photo", http.StatusInternalServerError)
		return
	}

	respond(w, r, http.StatusOK, photo)
}

// Destroy handles DELETE /api/v1/photos/{photo_id}
func (h *PhotoHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	id, ok := photoID(r)
	if !ok {
		respondError(w, "Photo not found", http.StatusNotFound)
		return
	}

	if err := h.photoService.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			respondError(w, "Photo not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Int64("photo_id", id).Msg("Failed to delete photo")
		respondError(w, "Failed to delete photo", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", userID).Int64("photo_id", id).Msg("Photo deleted")
	w.WriteHeader(http.StatusNoContent)
}

// photoID parses the id path parameter; a malformed id is treated the
// same as a missing photo.
func photoID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "photo_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
