package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/nshamaev/instakiller/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var photoColumns = []string{"id", "owner_id", "file_path", "name", "border_color", "created_at"}

// PhotoRepository handles database operations for photos. Every
// single-row query is scoped by owner, so a photo belonging to another
// user looks exactly like a missing one.
type PhotoRepository struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Create inserts a new photo and fills in the assigned id.
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	query, args, err := psql.
		Insert("photos").
		Columns("owner_id", "file_path", "name", "border_color", "created_at").
		Values(photo.OwnerID, photo.FilePath, photo.Name, photo.BorderColor, photo.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create photo query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&photo.ID); err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// GetByOwner retrieves a photo by id, restricted to the given owner.
func (r *PhotoRepository) GetByOwner(ctx context.Context, id int64, ownerID string) (*models.Photo, error) {
	query, args, err := psql.
		Select(photoColumns...).
		From("photos").
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get photo query: %w", err)
	}

	var photo models.Photo
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&photo.ID, &photo.OwnerID, &photo.FilePath,
		&photo.Name, &photo.BorderColor, &photo.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &photo, nil
}

// ListByOwner retrieves the full photo collection of one owner, in
// insertion order.
func (r *PhotoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Photo, error) {
	query, args, err := psql.
		Select(photoColumns...).
		From("photos").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list photos query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []models.Photo
	for rows.Next() {
		var photo models.Photo
		err := rows.Scan(
			&photo.ID, &photo.OwnerID, &photo.FilePath,
			&photo.Name, &photo.BorderColor, &photo.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}
	return photos, nil
}

// Update changes the name and border color of an owned photo and
// returns the updated row. Owner, file path and creation time are never
// touched.
func (r *PhotoRepository) Update(ctx context.Context, id int64, ownerID, name, borderColor string) (*models.Photo, error) {
	query, args, err := psql.
		Update("photos").
		Set("name", name).
		Set("border_color", borderColor).
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		Suffix("RETURNING id, owner_id, file_path, name, border_color, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update photo query: %w", err)
	}

	var photo models.Photo
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&photo.ID, &photo.OwnerID, &photo.FilePath,
		&photo.Name, &photo.BorderColor, &photo.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update photo: %w", err)
	}
	return &photo, nil
}

// Delete removes an owned photo and returns the file path the row was
// referencing, for the caller's blob cleanup.
func (r *PhotoRepository) Delete(ctx context.Context, id int64, ownerID string) (string, error) {
	query, args, err := psql.
		Delete("photos").
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		Suffix("RETURNING file_path").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build delete photo query: %w", err)
	}

	var filePath string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&filePath); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("failed to delete photo: %w", err)
	}
	return filePath, nil
}

// CountByFilePath counts photos across all users that reference the
// given stored file.
func (r *PhotoRepository) CountByFilePath(ctx context.Context, filePath string) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("photos").
		Where(sq.Eq{"file_path": filePath}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count photos query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return count, nil
}
