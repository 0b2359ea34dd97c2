package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/oprema/internal/model"
)

// CreateEquipment creates a new equipment item. The sensitive flag is fixed
// at creation and cannot be changed afterwards.
func CreateEquipment(ctx context.Context, db *sql.DB, name, eqType, serialNumber, location string, sensitive bool) (*model.Equipment, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO equipment (name, type, serial_number, location, sensitive) VALUES (?, ?, ?, ?, ?)`,
		name, eqType, serialNumber, location, sensitive,
	)
	if err != nil {
		return nil, fmt.Errorf("creating equipment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting equipment id: %w", err)
	}

	return GetEquipment(ctx, db, id)
}

// GetEquipment returns an equipment item by ID.
func GetEquipment(ctx context.Context, db *sql.DB, id int64) (*model.Equipment, error) {
	e := &model.Equipment{}
	var eqType, location, photoMime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, type, serial_number, location, sensitive, status, condition,
		        photo_mime, created_at, updated_at, deleted_at
		 FROM equipment WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &eqType, &e.SerialNumber, &location, &e.Sensitive,
		&e.Status, &e.Condition, &photoMime, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment: %w", err)
	}
	e.Type = eqType.String
	e.Location = location.String
	e.PhotoMime = photoMime.String
	return e, nil
}

// ListEquipment returns all non-deleted equipment.
func ListEquipment(ctx context.Context, db *sql.DB) ([]model.Equipment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, type, serial_number, location, sensitive, status, condition,
		        photo_mime, created_at, updated_at, deleted_at
		 FROM equipment WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing equipment: %w", err)
	}
	defer rows.Close()

	return scanEquipment(rows)
}

// SearchEquipment returns non-deleted equipment matching the given filters.
// Name and type match as substrings; status and condition match exactly.
// Empty filters are ignored.
func SearchEquipment(ctx context.Context, db *sql.DB, name, eqType, status, condition string) ([]model.Equipment, error) {
	query := `SELECT id, name, type, serial_number, location, sensitive, status, condition,
	                 photo_mime, created_at, updated_at, deleted_at
	          FROM equipment WHERE deleted_at IS NULL`
	var args []any

	if name != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+name+"%")
	}
	if eqType != "" {
		query += ` AND type LIKE ?`
		args = append(args, "%"+eqType+"%")
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if condition != "" {
		query += ` AND condition = ?`
		args = append(args, condition)
	}

	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching equipment: %w", err)
	}
	defer rows.Close()

	return scanEquipment(rows)
}

func scanEquipment(rows *sql.Rows) ([]model.Equipment, error) {
	var items []model.Equipment
	for rows.Next() {
		var e model.Equipment
		var eqType, location, photoMime sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &eqType, &e.SerialNumber, &location, &e.Sensitive,
			&e.Status, &e.Condition, &photoMime, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning equipment: %w", err)
		}
		e.Type = eqType.String
		e.Location = location.String
		e.PhotoMime = photoMime.String
		items = append(items, e)
	}
	return items, rows.Err()
}

// UpdateEquipment updates an equipment item's descriptive fields and status.
// The sensitive flag is not updatable.
func UpdateEquipment(ctx context.Context, db *sql.DB, id int64, name, eqType, serialNumber, location, status, condition string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE equipment SET name = ?, type = ?, serial_number = ?, location = ?,
		        status = ?, condition = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		name, eqType, serialNumber, location, status, condition, id,
	)
	if err != nil {
		return fmt.Errorf("updating equipment: %w", err)
	}
	return nil
}

// SetEquipmentStatus sets an equipment item's status. No business
// validation: the reservation workflow decides when this is correct.
func SetEquipmentStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE equipment SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("setting equipment status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("setting equipment status: equipment %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetEquipmentCondition sets an equipment item's condition.
func SetEquipmentCondition(ctx context.Context, db *sql.DB, id int64, condition string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE equipment SET condition = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		condition, id,
	)
	if err != nil {
		return fmt.Errorf("setting equipment condition: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("setting equipment condition: equipment %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteEquipment soft-deletes an equipment item.
func DeleteEquipment(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE equipment SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting equipment: %w", err)
	}
	return nil
}

// SetEquipmentPhoto sets an equipment item's photo data.
func SetEquipmentPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE equipment SET photo = ?, photo_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting equipment photo: %w", err)
	}
	return nil
}

// GetEquipmentPhoto returns an equipment item's photo data and MIME type.
func GetEquipmentPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM equipment WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting equipment photo: %w", err)
	}
	return photo, mime.String, nil
}
