package file

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository provides access to the file registry.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new file repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a registry row for a new file.
func (r *Repository) Create(ctx context.Context, meta Metadata) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO files (id, owner_id, name, size_bytes, extension)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, owner_id, name, size_bytes, extension, created_at, updated_at;`

	row := r.pool.QueryRow(ctx, query,
		meta.ID,
		meta.OwnerID,
		meta.Name,
		meta.SizeBytes,
		meta.Extension,
	)

	var stored Metadata
	if err := row.Scan(&stored.ID, &stored.OwnerID, &stored.Name, &stored.SizeBytes, &stored.Extension, &stored.CreatedAt, &stored.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return Metadata{}, ErrDuplicateName
		}
		return Metadata{}, fmt.Errorf("create file metadata: %w", err)
	}
	return stored, nil
}

// Get fetches metadata for a single file.
func (r *Repository) Get(ctx context.Context, fileID uuid.UUID) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, owner_id, name, size_bytes, extension, created_at, updated_at
FROM files
WHERE id = $1;`

	var meta Metadata
	err := r.pool.QueryRow(ctx, query, fileID).Scan(
		&meta.ID,
		&meta.OwnerID,
		&meta.Name,
		&meta.SizeBytes,
		&meta.Extension,
		&meta.CreatedAt,
		&meta.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Metadata{}, ErrFileNotFound
		}
		return Metadata{}, fmt.Errorf("get file metadata: %w", err)
	}
	return meta, nil
}

// ListByOwner returns the files owned by a user, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, owner_id, name, size_bytes, extension, created_at, updated_at
FROM files
WHERE owner_id = $1
ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []Metadata
	for rows.Next() {
		var meta Metadata
		if err := rows.Scan(&meta.ID, &meta.OwnerID, &meta.Name, &meta.SizeBytes, &meta.Extension, &meta.CreatedAt, &meta.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan file metadata: %w", err)
		}
		files = append(files, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

// Rename updates the display name of a file. Uniqueness is enforced against
// the file's current owner by the (owner_id, name) constraint, so a grantee
// renaming a shared file competes with the owner's namespace, not their own.
func (r *Repository) Rename(ctx context.Context, fileID uuid.UUID, newName string) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET name = $2, updated_at = NOW()
WHERE id = $1
RETURNING id, owner_id, name, size_bytes, extension, created_at, updated_at;`

	var meta Metadata
	err := r.pool.QueryRow(ctx, query, fileID, newName).Scan(
		&meta.ID,
		&meta.OwnerID,
		&meta.Name,
		&meta.SizeBytes,
		&meta.Extension,
		&meta.CreatedAt,
		&meta.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Metadata{}, ErrFileNotFound
		}
		if isUniqueViolation(err) {
			return Metadata{}, ErrDuplicateName
		}
		return Metadata{}, fmt.Errorf("rename file: %w", err)
	}
	return meta, nil
}

// Delete removes the registry row.
func (r *Repository) Delete(ctx context.Context, fileID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	commandTag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1;`, fileID)
	if err != nil {
		return fmt.Errorf("delete file metadata: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// NameExists reports whether the owner already has a file with this name.
func (r *Repository) NameExists(ctx context.Context, ownerID uuid.UUID, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM files WHERE owner_id = $1 AND name = $2);`,
		ownerID, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check file name: %w", err)
	}
	return exists, nil
}

// SumSizeByOwner computes the owner's consumed storage. Recomputed per call
// so concurrent deletes never leave a stale counter behind.
func (r *Repository) SumSizeByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(size_bytes), 0) FROM files WHERE owner_id = $1;`,
		ownerID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum storage usage: %w", err)
	}
	return total, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
