// Package media manages uploaded media files: it hands their content to the
// storage provider and keeps a record of every stored file.
package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// File is the stored record of an uploaded media file.
type File struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Hash       string    `json:"hash"`
	Ext        string    `json:"ext"`
	Mime       string    `json:"mime"`
	Size       float64   `json:"size"` // kilobytes
	URL        string    `json:"url"`
	StorageKey string    `json:"storageKey"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ErrNotFound is returned when a file record does not exist.
var ErrNotFound = errors.New("file not found")

// ErrAlreadyExists is returned when a storage key is already recorded.
var ErrAlreadyExists = errors.New("file already exists")

// Repository handles all file record database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const fileColumns = `id, name, hash, ext, mime, size, url, storage_key, created_at`

func scanFile(row pgx.Row) (*File, error) {
	f := &File{}
	err := row.Scan(&f.ID, &f.Name, &f.Hash, &f.Ext, &f.Mime, &f.Size, &f.URL, &f.StorageKey, &f.CreatedAt)
	return f, err
}

// Create inserts a file record and returns it with its generated fields.
func (r *Repository) Create(ctx context.Context, in *File) (*File, error) {
	f, err := scanFile(r.db.QueryRow(ctx,
		`INSERT INTO files (name, hash, ext, mime, size, url, storage_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+fileColumns,
		in.Name, in.Hash, in.Ext, in.Mime, in.Size, in.URL, in.StorageKey,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create file: %w", err)
	}
	return f, nil
}

// GetByID fetches a file record by its UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*File, error) {
	f, err := scanFile(r.db.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if isInvalidText(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get file by id: %w", err)
	}
	return f, nil
}

// List returns file records, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]File, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+fileColumns+` FROM files ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := []File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// Delete removes a file record.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		if isInvalidText(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isInvalidText reports a malformed UUID literal (code 22P02).
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
