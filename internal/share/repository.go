package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository persists grants in the file_shares and file_share_privileges
// tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new sharing repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// OwnerOf resolves the owning user of a file.
func (r *Repository) OwnerOf(ctx context.Context, fileID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var ownerID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT owner_id FROM files WHERE id = $1;`, fileID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrFileNotFound
		}
		return uuid.Nil, fmt.Errorf("resolve file owner: %w", err)
	}
	return ownerID, nil
}

// GrantAll applies the full set of file x privilege grants for one grantee in
// a single transaction. Existing grants gain the new privileges; privileges
// already held are left untouched.
func (r *Repository) GrantAll(ctx context.Context, granteeID uuid.UUID, fileIDs []uuid.UUID, privileges []Privilege) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin share transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, fileID := range fileIDs {
		var shareID uuid.UUID
		err := tx.QueryRow(ctx, `
INSERT INTO file_shares (id, grantee_id, file_id)
VALUES ($1, $2, $3)
ON CONFLICT (grantee_id, file_id)
DO UPDATE SET updated_at = NOW()
RETURNING id;`, uuid.New(), granteeID, fileID).Scan(&shareID)
		if err != nil {
			return fmt.Errorf("upsert share for file %s: %w", fileID, err)
		}

		for _, privilege := range privileges {
			if _, err := tx.Exec(ctx, `
INSERT INTO file_share_privileges (share_id, privilege)
VALUES ($1, $2)
ON CONFLICT (share_id, privilege) DO NOTHING;`, shareID, string(privilege)); err != nil {
				return fmt.Errorf("grant privilege %s on file %s: %w", privilege, fileID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit share transaction: %w", err)
	}
	return nil
}

// Privileges returns the privilege set a grantee holds on a file, or
// ErrNoAccess when no grant exists.
func (r *Repository) Privileges(ctx context.Context, granteeID, fileID uuid.UUID) ([]Privilege, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT p.privilege
FROM file_shares s
LEFT JOIN file_share_privileges p ON p.share_id = s.id
WHERE s.grantee_id = $1 AND s.file_id = $2;`

	rows, err := r.pool.Query(ctx, query, granteeID, fileID)
	if err != nil {
		return nil, fmt.Errorf("load grant privileges: %w", err)
	}
	defer rows.Close()

	found := false
	var privileges []Privilege
	for rows.Next() {
		found = true
		var name *string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan privilege: %w", err)
		}
		if name != nil {
			privileges = append(privileges, Privilege(*name))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate privileges: %w", err)
	}
	if !found {
		return nil, ErrNoAccess
	}
	return privileges, nil
}

// ListSharedWith returns the files visible to a user through grants, joined
// with the owner display name and the aggregated privilege set.
func (r *Repository) ListSharedWith(ctx context.Context, userID uuid.UUID) ([]SharedFile, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT f.id,
       f.name,
       f.size_bytes,
       f.extension,
       f.owner_id,
       COALESCE(u.display_name, u.email) AS owner_name,
       COALESCE(ARRAY_AGG(p.privilege) FILTER (WHERE p.privilege IS NOT NULL), '{}') AS privileges,
       f.updated_at
FROM file_shares s
JOIN files f ON f.id = s.file_id
JOIN users u ON u.id = f.owner_id
LEFT JOIN file_share_privileges p ON p.share_id = s.id
WHERE s.grantee_id = $1
GROUP BY f.id, f.name, f.size_bytes, f.extension, f.owner_id, u.display_name, u.email, f.updated_at
ORDER BY f.updated_at DESC;`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list shared files: %w", err)
	}
	defer rows.Close()

	var shared []SharedFile
	for rows.Next() {
		var sf SharedFile
		var names []string
		if err := rows.Scan(&sf.FileID, &sf.Name, &sf.SizeBytes, &sf.Extension, &sf.OwnerID, &sf.OwnerName, &names, &sf.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan shared file: %w", err)
		}
		for _, name := range names {
			sf.Privileges = append(sf.Privileges, Privilege(name))
		}
		shared = append(shared, sf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shared files: %w", err)
	}
	return shared, nil
}

// RevokeAllForFile removes every grant referencing a file. Invoked by file
// deletion before the registry row goes away so no grant ever points at a
// deleted file.
func (r *Repository) RevokeAllForFile(ctx context.Context, fileID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin revoke transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
DELETE FROM file_share_privileges p
USING file_shares s
WHERE p.share_id = s.id AND s.file_id = $1;`, fileID); err != nil {
		return fmt.Errorf("revoke privileges: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM file_shares WHERE file_id = $1;`, fileID); err != nil {
		return fmt.Errorf("revoke shares: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit revoke transaction: %w", err)
	}
	return nil
}
