package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"bim-viewer/internal/server/models"
)

// ============================================================
// SQLite Catalog
// ============================================================

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned for lookups of unknown model ids.
var ErrNotFound = errors.New("not found")

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init applies the catalog schema.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (r *Repository) Insert(ctx context.Context, rec models.ModelRecord) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO models (id, filename, project_name, total_elements, file_path)
        VALUES (?, ?, ?, ?, ?)
    `, rec.ID, rec.Filename, rec.ProjectName, rec.TotalElements, rec.FilePath)
	if err != nil {
		return fmt.Errorf("insert model: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.ModelRecord, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, filename, project_name, total_elements, file_path, created_at
        FROM models
        WHERE id = ?
    `, id)

	var rec models.ModelRecord
	if err := row.Scan(&rec.ID, &rec.Filename, &rec.ProjectName, &rec.TotalElements, &rec.FilePath, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]models.ModelRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, filename, project_name, total_elements, file_path, created_at
        FROM models
        ORDER BY created_at, id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ModelRecord
	for rows.Next() {
		var rec models.ModelRecord
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.ProjectName, &rec.TotalElements, &rec.FilePath, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// OpenSQLite opens the catalog database at the given path.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
