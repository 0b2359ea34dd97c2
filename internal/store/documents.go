package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/model"
)

// CreateDocument creates a document metadata entry.
func CreateDocument(ctx context.Context, db *sql.DB, title, path, visibilityRole string, uploadedBy int64) (*model.Document, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO documents (title, path, visibility_role, uploaded_by) VALUES (?, ?, ?, ?)`,
		title, path, visibilityRole, uploadedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting document id: %w", err)
	}

	return GetDocument(ctx, db, id)
}

// GetDocument returns a document by ID.
func GetDocument(ctx context.Context, db *sql.DB, id int64) (*model.Document, error) {
	d := &model.Document{}
	err := db.QueryRowContext(ctx,
		`SELECT id, title, path, visibility_role, uploaded_by, uploaded_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Title, &d.Path, &d.VisibilityRole, &d.UploadedBy, &d.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return d, nil
}

// ListDocuments returns documents newest first. If visibilityRole is
// non-empty, only documents with that visibility are returned (how non-admin
// listings are scoped).
func ListDocuments(ctx context.Context, db *sql.DB, visibilityRole string) ([]model.Document, error) {
	query := `SELECT id, title, path, visibility_role, uploaded_by, uploaded_at FROM documents`
	var args []any

	if visibilityRole != "" {
		query += ` WHERE visibility_role = ?`
		args = append(args, visibilityRole)
	}

	query += ` ORDER BY uploaded_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Path, &d.VisibilityRole, &d.UploadedBy, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateDocument updates a document's metadata.
func UpdateDocument(ctx context.Context, db *sql.DB, id int64, title, path, visibilityRole string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE documents SET title = ?, path = ?, visibility_role = ? WHERE id = ?`,
		title, path, visibilityRole, id,
	)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	return nil
}

// DeleteDocument deletes a document metadata entry.
func DeleteDocument(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}
