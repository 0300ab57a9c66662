// Package mock provides test doubles for the service-level store
// interfaces: fn-proxy stubs for injecting behavior per test case, and
// in-memory implementations for exercising whole workflows.
package mock

import (
	"context"

	"github.com/nshamaev/instakiller/internal/models"
)

// PhotoStore proxies each call to the function injected for it.
type PhotoStore struct {
	CreateFn          func(ctx context.Context, photo *models.Photo) error
	GetByOwnerFn      func(ctx context.Context, id int64, ownerID string) (*models.Photo, error)
	ListByOwnerFn     func(ctx context.Context, ownerID string) ([]models.Photo, error)
	UpdateFn          func(ctx context.Context, id int64, ownerID, name, borderColor string) (*models.Photo, error)
	DeleteFn          func(ctx context.Context, id int64, ownerID string) (string, error)
	CountByFilePathFn func(ctx context.Context, filePath string) (int, error)
}

func (s *PhotoStore) Create(ctx context.Context, photo *models.Photo) error {
	return s.CreateFn(ctx, photo)
}

func (s *PhotoStore) GetByOwner(ctx context.Context, id int64, ownerID string) (*models.Photo, error) {
	return s.GetByOwnerFn(ctx, id, ownerID)
}

func (s *PhotoStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Photo, error) {
	return s.ListByOwnerFn(ctx, ownerID)
}

func (s *PhotoStore) Update(ctx context.Context, id int64, ownerID, name, borderColor string) (*models.Photo, error) {
	return s.UpdateFn(ctx, id, ownerID, name, borderColor)
}

func (s *PhotoStore) Delete(ctx context.Context, id int64, ownerID string) (string, error) {
	return s.DeleteFn(ctx, id, ownerID)
}

func (s *PhotoStore) CountByFilePath(ctx context.Context, filePath string) (int, error) {
	return s.CountByFilePathFn(ctx, filePath)
}

// UserStore proxies each call to the function injected for it.
type UserStore struct {
	CreateFn     func(ctx context.Context, user *models.User) error
	CodeExistsFn func(ctx context.Context, code string) (bool, error)
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	return s.CreateFn(ctx, user)
}

func (s *UserStore) CodeExists(ctx context.Context, code string) (bool, error) {
	return s.CodeExistsFn(ctx, code)
}

// BlobStore proxies each call to the function injected for it.
type BlobStore struct {
	UploadFn func(ctx context.Context, key string, data []byte, contentType string) error
	ExistsFn func(ctx context.Context, key string) (bool, error)
	DeleteFn func(ctx context.Context, key string) error
}

func (s *BlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return s.UploadFn(ctx, key, data, contentType)
}

func (s *BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.ExistsFn(ctx, key)
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	return s.DeleteFn(ctx, key)
}
