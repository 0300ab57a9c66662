package mock

import (
	"context"
	"sync"

	"github.com/nshamaev/instakiller/internal/models"
)

// MemoryPhotoStore is an in-memory PhotoStore with the same ownership
// semantics as the Postgres repository. Tests may set CreatedAt on a
// photo before Create to simulate historical data.
type MemoryPhotoStore struct {
	mu     sync.Mutex
	nextID int64
	photos map[int64]models.Photo
}

// NewMemoryPhotoStore creates an empty in-memory photo store.
func NewMemoryPhotoStore() *MemoryPhotoStore {
	return &MemoryPhotoStore{nextID: 1, photos: make(map[int64]models.Photo)}
}

func (s *MemoryPhotoStore) Create(_ context.Context, photo *models.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	photo.ID = s.nextID
	s.nextID++
	s.photos[photo.ID] = *photo
	return nil
}

func (s *MemoryPhotoStore) GetByOwner(_ context.Context, id int64, ownerID string) (*models.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	photo, ok := s.photos[id]
	if !ok || photo.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	return &photo, nil
}

func (s *MemoryPhotoStore) ListByOwner(_ context.Context, ownerID string) ([]models.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var photos []models.Photo
	for id := int64(1); id < s.nextID; id++ {
		if photo, ok := s.photos[id]; ok && photo.OwnerID == ownerID {
			photos = append(photos, photo)
		}
	}
	return photos, nil
}

func (s *MemoryPhotoStore) Update(_ context.Context, id int64, ownerID, name, borderColor string) (*models.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	photo, ok := s.photos[id]
	if !ok || photo.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	photo.Name = name
	photo.BorderColor = borderColor
	s.photos[id] = photo
	return &photo, nil
}

func (s *MemoryPhotoStore) Delete(_ context.Context, id int64, ownerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	photo, ok := s.photos[id]
	if !ok || photo.OwnerID != ownerID {
		return "", models.ErrNotFound
	}
	delete(s.photos, id)
	return photo.FilePath, nil
}

func (s *MemoryPhotoStore) CountByFilePath(_ context.Context, filePath string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, photo := range s.photos {
		if photo.FilePath == filePath {
			count++
		}
	}
	return count, nil
}

// MemoryBlobStore keeps blobs in a map.
type MemoryBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *MemoryBlobStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[key]
	return ok, nil
}

func (s *MemoryBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Len reports how many blobs are currently stored.
func (s *MemoryBlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
