package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/oprema/internal/model"
)

// ReturnUpdate carries the optional fields of a return operation. A nil
// Condition leaves the equipment condition unchanged; a nil Status defaults
// the equipment back to available.
type ReturnUpdate struct {
	Condition *string
	Status    *string
	Notes     string
}

// CreateReservation creates a reservation for an equipment item. Sensitive
// equipment yields a pending reservation that needs admin approval;
// everything else is auto-approved with the requester recorded as their own
// approver and the equipment marked checked out.
//
// The overlap check and the insert happen under the per-equipment lock and
// inside one transaction, so two concurrent overlapping requests cannot
// both succeed.
func CreateReservation(ctx context.Context, db *sql.DB, equipmentID, requesterID int64, start, end time.Time, notes string) (*model.Reservation, error) {
	unlock := lockEquipment(equipmentID)
	defer unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var sensitive bool
	err = tx.QueryRowContext(ctx,
		`SELECT sensitive FROM equipment WHERE id = ? AND deleted_at IS NULL`, equipmentID,
	).Scan(&sensitive)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("equipment %d: %w", equipmentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking equipment: %w", err)
	}

	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: start and end times are required", ErrInvalidRange)
	}
	if end.Compare(start) <= 0 {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrInvalidRange)
	}

	overlap, err := hasApprovedOverlap(ctx, tx, equipmentID, 0, start, end)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, fmt.Errorf("%w: equipment already reserved for the specified time window", ErrConflict)
	}

	now := time.Now().UTC()
	status := model.ReservationPending
	action := model.ActionCreate

	var approvedBy *int64
	var approvedAt *time.Time
	if !sensitive {
		// Auto-approve: the requester is recorded as their own approver.
		status = model.ReservationApproved
		action = model.ActionAutoApprove
		approvedBy = &requesterID
		approvedAt = &now
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (equipment_id, requester_id, start_at, end_at, status,
		        requested_at, approved_by, approved_at, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		equipmentID, requesterID, start, end, status, now, approvedBy, approvedAt, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("creating reservation: %w", err)
	}

	if !sensitive {
		if err := setStatusTx(ctx, tx, equipmentID, model.StatusCheckedOut); err != nil {
			return nil, err
		}
	}

	if err := appendActivityTx(ctx, tx, &requesterID, &equipmentID, action, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reservation: %w", err)
	}

	id, _ := result.LastInsertId()
	return GetReservation(ctx, db, id)
}

// ApproveReservation transitions a pending reservation to approved and
// marks the equipment checked out. Approving a reservation that is not
// pending is a conflict; the error includes the current status.
func ApproveReservation(ctx context.Context, db *sql.DB, id, approverID int64) (*model.Reservation, error) {
	res, err := GetReservation(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}

	unlock := lockEquipment(res.EquipmentID)
	defer unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-read under the lock: the reservation may have changed between the
	// lookup above and the lock acquisition.
	var status string
	var equipmentID int64
	var start, end time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT equipment_id, start_at, end_at, status FROM reservations WHERE id = ?`, id,
	).Scan(&equipmentID, &start, &end, &status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}

	if status != model.ReservationPending {
		return nil, fmt.Errorf("%w: cannot approve a request with status %q", ErrConflict, status)
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM equipment WHERE id = ? AND deleted_at IS NULL)`, equipmentID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking equipment: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("equipment %d: %w", equipmentID, ErrNotFound)
	}

	// The reservation itself is still pending, but exclude it by id anyway
	// in case status bookkeeping is ever inconsistent.
	overlap, err := hasApprovedOverlap(ctx, tx, equipmentID, id, start, end)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, fmt.Errorf("%w: equipment not available in the requested time window", ErrConflict)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, approved_by = ?, approved_at = ? WHERE id = ?`,
		model.ReservationApproved, approverID, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("approving reservation: %w", err)
	}

	if err := setStatusTx(ctx, tx, equipmentID, model.StatusCheckedOut); err != nil {
		return nil, err
	}

	if err := appendActivityTx(ctx, tx, &approverID, &equipmentID, model.ActionApprove, res.Notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing approval: %w", err)
	}

	return GetReservation(ctx, db, id)
}

// RejectReservation marks a reservation rejected and overwrites its notes
// with the rejection notes. No state check: rejecting an already approved
// or returned reservation is permitted and simply overwrites the fields.
func RejectReservation(ctx context.Context, db *sql.DB, id, approverID int64, notes string) (*model.Reservation, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var equipmentID int64
	err = tx.QueryRowContext(ctx,
		`SELECT equipment_id FROM reservations WHERE id = ?`, id,
	).Scan(&equipmentID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, approved_by = ?, approved_at = ?, notes = ? WHERE id = ?`,
		model.ReservationRejected, approverID, now, notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("rejecting reservation: %w", err)
	}

	if err := appendActivityTx(ctx, tx, &approverID, &equipmentID, model.ActionReject, notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing rejection: %w", err)
	}

	return GetReservation(ctx, db, id)
}

// ReturnReservation marks a reservation returned and threads the equipment
// back into circulation: condition is updated if provided, status defaults
// to available unless overridden. A condition log entry is written on every
// return, even when the condition is unchanged.
func ReturnReservation(ctx context.Context, db *sql.DB, id int64, ret ReturnUpdate, actorID int64) (*model.Reservation, error) {
	if ret.Condition != nil && !model.ValidCondition(*ret.Condition) {
		return nil, fmt.Errorf("invalid condition %q", *ret.Condition)
	}
	if ret.Status != nil && !model.ValidStatus(*ret.Status) {
		return nil, fmt.Errorf("invalid status %q", *ret.Status)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var equipmentID int64
	err = tx.QueryRowContext(ctx,
		`SELECT equipment_id FROM reservations WHERE id = ?`, id,
	).Scan(&equipmentID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}

	var oldCondition string
	err = tx.QueryRowContext(ctx,
		`SELECT condition FROM equipment WHERE id = ? AND deleted_at IS NULL`, equipmentID,
	).Scan(&oldCondition)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("equipment %d: %w", equipmentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment condition: %w", err)
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, returned_at = ?, return_notes = ? WHERE id = ?`,
		model.ReservationReturned, now, ret.Notes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("returning reservation: %w", err)
	}

	newCondition := oldCondition
	if ret.Condition != nil {
		newCondition = *ret.Condition
	}
	newStatus := model.StatusAvailable
	if ret.Status != nil {
		newStatus = *ret.Status
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE equipment SET status = ?, condition = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newStatus, newCondition, equipmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating equipment on return: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO condition_logs (equipment_id, old_condition, new_condition, changed_at, changed_by, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		equipmentID, oldCondition, newCondition, now, actorID, ret.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("writing condition log: %w", err)
	}

	if err := appendActivityTx(ctx, tx, &actorID, &equipmentID, model.ActionReturn, ret.Notes); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing return: %w", err)
	}

	return GetReservation(ctx, db, id)
}

// GetReservation returns a reservation by ID with the equipment name joined.
func GetReservation(ctx context.Context, db *sql.DB, id int64) (*model.Reservation, error) {
	res := &model.Reservation{}
	var notes, returnNotes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT r.id, r.equipment_id, r.requester_id, r.start_at, r.end_at, r.status,
		        r.requested_at, r.approved_by, r.approved_at, r.notes, r.returned_at, r.return_notes,
		        e.name AS equipment_name
		 FROM reservations r
		 JOIN equipment e ON e.id = r.equipment_id
		 WHERE r.id = ?`, id,
	).Scan(&res.ID, &res.EquipmentID, &res.RequesterID, &res.Start, &res.End, &res.Status,
		&res.RequestedAt, &res.ApprovedBy, &res.ApprovedAt, &notes, &res.ReturnedAt, &returnNotes,
		&res.EquipmentName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting reservation: %w", err)
	}
	res.Notes = notes.String
	res.ReturnNotes = returnNotes.String
	return res, nil
}

// ListReservations returns all reservations, newest request first.
func ListReservations(ctx context.Context, db *sql.DB) ([]model.Reservation, error) {
	return listReservations(ctx, db, 0)
}

// ListReservationsForRequester returns a requester's reservations, newest
// request first.
func ListReservationsForRequester(ctx context.Context, db *sql.DB, requesterID int64) ([]model.Reservation, error) {
	return listReservations(ctx, db, requesterID)
}

func listReservations(ctx context.Context, db *sql.DB, requesterID int64) ([]model.Reservation, error) {
	query := `SELECT r.id, r.equipment_id, r.requester_id, r.start_at, r.end_at, r.status,
	                 r.requested_at, r.approved_by, r.approved_at, r.notes, r.returned_at, r.return_notes,
	                 e.name AS equipment_name
	          FROM reservations r
	          JOIN equipment e ON e.id = r.equipment_id`
	var args []any

	if requesterID > 0 {
		query += ` WHERE r.requester_id = ?`
		args = append(args, requesterID)
	}

	query += ` ORDER BY r.requested_at DESC, r.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		var res model.Reservation
		var notes, returnNotes sql.NullString
		if err := rows.Scan(&res.ID, &res.EquipmentID, &res.RequesterID, &res.Start, &res.End, &res.Status,
			&res.RequestedAt, &res.ApprovedBy, &res.ApprovedAt, &notes, &res.ReturnedAt, &returnNotes,
			&res.EquipmentName); err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		res.Notes = notes.String
		res.ReturnNotes = returnNotes.String
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

// hasApprovedOverlap reports whether an approved reservation for the
// equipment overlaps [start, end). Half-open semantics: a reservation
// ending exactly at start (or starting exactly at end) is not a conflict.
// excludeID skips one reservation, used when re-checking at approval time.
func hasApprovedOverlap(ctx context.Context, tx *sql.Tx, equipmentID, excludeID int64, start, end time.Time) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE equipment_id = ? AND id != ? AND status = ?
		   AND NOT (end_at <= ? OR start_at >= ?)`,
		equipmentID, excludeID, model.ReservationApproved, start, end,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking overlap: %w", err)
	}
	return count > 0, nil
}

// setStatusTx sets equipment status within a transaction.
func setStatusTx(ctx context.Context, tx *sql.Tx, equipmentID int64, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE equipment SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, equipmentID,
	)
	if err != nil {
		return fmt.Errorf("setting equipment status: %w", err)
	}
	return nil
}
