package services

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/nshamaev/instakiller/internal/models"
	"github.com/nshamaev/instakiller/internal/photoquery"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PhotoStore is the record store for photos.
type PhotoStore interface {
	Create(ctx context.Context, photo *models.Photo) error
	GetByOwner(ctx context.Context, id int64, ownerID string) (*models.Photo, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Photo, error)
	Update(ctx context.Context, id int64, ownerID, name, borderColor string) (*models.Photo, error)
	Delete(ctx context.Context, id int64, ownerID string) (string, error)
	CountByFilePath(ctx context.Context, filePath string) (int, error)
}

// BlobStorage is the durable store for uploaded file content.
type BlobStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// extRe keeps only short alphanumeric extensions from client filenames;
// anything else is dropped rather than sanitized.
var extRe = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)

// PhotoService handles photo-related business logic
type PhotoService struct {
	photos PhotoStore
	blobs  BlobStorage
}

// NewPhotoService creates a new photo service
func NewPhotoService(photos PhotoStore, blobs BlobStorage) *PhotoService {
	return &PhotoService{photos: photos, blobs: blobs}
}

// Upload validates and persists an incoming file with its metadata. The
// owner always comes from the authenticated identity, never from client
// input. The file is written before the record is inserted, so a failed
// insert can leave an orphaned blob but never a record pointing at a
// missing file; orphans are left for out-of-band maintenance.
func (s *PhotoService) Upload(ctx context.Context, ownerID, name, borderColor, filename string, data []byte) (*models.Photo, models.ValidationErrors, error) {
	verrs := models.ValidatePhotoMeta(name, borderColor)
	contentType := ""
	if len(data) == 0 {
		if verrs == nil {
			verrs = models.ValidationErrors{}
		}
		verrs["photo"] = "a readable image file is required"
	} else {
		contentType = http.DetectContentType(data)
		if !strings.HasPrefix(contentType, "image/") {
			if verrs == nil {
				verrs = models.ValidationErrors{}
			}
			verrs["photo"] = "uploaded file must be an image"
		}
	}
	if verrs != nil {
		return nil, verrs, nil
	}

	key := storageKey(ownerID, filename)
	if err := s.blobs.Upload(ctx, key, data, contentType); err != nil {
		return nil, nil, fmt.Errorf("failed to store photo file: %w", err)
	}

	photo := &models.Photo{
		OwnerID:     ownerID,
		FilePath:    key,
		Name:        name,
		BorderColor: borderColor,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.photos.Create(ctx, photo); err != nil {
		log.Warn().Str("file_path", key).Msg("Photo record insert failed after blob write, orphaned blob left behind")
		return nil, nil, fmt.Errorf("failed to create photo record: %w", err)
	}

	return photo, nil, nil
}

// storageKey namespaces stored files by owner and keys them by a fresh
// UUID, so concurrent uploads of identically named files never collide
// and nothing of the client filename survives beyond its extension.
func storageKey(ownerID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !extRe.MatchString(ext) {
		ext = ""
	}
	return fmt.Sprintf("photos/%s/%s%s", ownerID, uuid.New().String(), ext)
}

// List returns one page of the owner's photos along with the total
// number of photos that passed the filters.
func (s *PhotoService) List(ctx context.Context, ownerID string, q photoquery.Query) ([]models.Photo, int, error) {
	photos, err := s.photos.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list photos: %w", err)
	}
	page, total := q.Apply(photos)
	return page, total, nil
}

// Get retrieves a single owned photo.
func (s *PhotoService) Get(ctx context.Context, id int64, ownerID string) (*models.Photo, error) {
	return s.photos.GetByOwner(ctx, id, ownerID)
}

// Update changes the name and border color of an owned photo after
// validating them. All other fields are frozen.
func (s *PhotoService) Update(ctx context.Context, id int64, ownerID, name, borderColor string) (*models.Photo, models.ValidationErrors, error) {
	if verrs := models.ValidatePhotoMeta(name, borderColor); verrs != nil {
		return nil, verrs, nil
	}
	photo, err := s.photos.Update(ctx, id, ownerID, name, borderColor)
	if err != nil {
		return nil, nil, err
	}
	return photo, nil, nil
}

// Delete removes an owned photo record, then deletes the underlying
// blob if no remaining record references the same path. The record
// deletion is committed first and never rolled back: a blob-side
// failure is logged and swallowed, leaving at most an orphaned blob and
// never a record pointing at a deleted file.
func (s *PhotoService) Delete(ctx context.Context, id int64, ownerID string) error {
	filePath, err := s.photos.Delete(ctx, id, ownerID)
	if err != nil {
		return err
	}

	remaining, err := s.photos.CountByFilePath(ctx, filePath)
	if err != nil {
		log.Warn().Err(err).Str("file_path", filePath).Msg("Failed to count file references, skipping blob cleanup")
		return nil
	}
	if remaining == 0 {
		if err := s.blobs.Delete(ctx, filePath); err != nil {
			log.Warn().Err(err).Str("file_path", filePath).Msg("Failed to delete blob, orphaned blob left behind")
		}
	}
	return nil
}
