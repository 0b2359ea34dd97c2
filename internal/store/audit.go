package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/oprema/internal/model"
)

// DefaultRecentActivity is the out-of-the-box cap on the history report.
const DefaultRecentActivity = 50

// AppendActivity appends an activity log entry. Fire-and-forget: no
// validation, no read before write.
func AppendActivity(ctx context.Context, db *sql.DB, userID, equipmentID *int64, action, notes string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO activity_logs (user_id, equipment_id, action, timestamp, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, equipmentID, action, time.Now().UTC(), notes,
	)
	if err != nil {
		return fmt.Errorf("appending activity: %w", err)
	}
	return nil
}

// appendActivityTx appends an activity log entry within a transaction, so
// workflow mutations and their audit rows commit as one unit.
func appendActivityTx(ctx context.Context, tx *sql.Tx, userID, equipmentID *int64, action, notes string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO activity_logs (user_id, equipment_id, action, timestamp, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, equipmentID, action, time.Now().UTC(), notes,
	)
	if err != nil {
		return fmt.Errorf("appending activity: %w", err)
	}
	return nil
}

// AppendConditionChange appends a condition log entry for a manual
// condition change outside the return workflow.
func AppendConditionChange(ctx context.Context, db *sql.DB, equipmentID int64, oldCondition, newCondition string, changedBy *int64, notes string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO condition_logs (equipment_id, old_condition, new_condition, changed_at, changed_by, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		equipmentID, oldCondition, newCondition, time.Now().UTC(), changedBy, notes,
	)
	if err != nil {
		return fmt.Errorf("appending condition change: %w", err)
	}
	return nil
}

// RecentActivity returns the most recent activity log entries, newest
// first. Limits outside (0, DefaultRecentActivity] are clamped to the
// default.
func RecentActivity(ctx context.Context, db *sql.DB, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 || limit > DefaultRecentActivity {
		limit = DefaultRecentActivity
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, equipment_id, action, timestamp, notes
		 FROM activity_logs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent activity: %w", err)
	}
	defer rows.Close()

	var logs []model.ActivityLog
	for rows.Next() {
		var l model.ActivityLog
		var notes sql.NullString
		if err := rows.Scan(&l.ID, &l.UserID, &l.EquipmentID, &l.Action, &l.Timestamp, &notes); err != nil {
			return nil, fmt.Errorf("scanning activity log: %w", err)
		}
		l.Notes = notes.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// GetConditionLogs returns the condition history for an equipment item,
// newest change first.
func GetConditionLogs(ctx context.Context, db *sql.DB, equipmentID int64) ([]model.ConditionLog, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, equipment_id, old_condition, new_condition, changed_at, changed_by, notes
		 FROM condition_logs WHERE equipment_id = ?
		 ORDER BY changed_at DESC, id DESC`, equipmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting condition logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ConditionLog
	for rows.Next() {
		var l model.ConditionLog
		var notes sql.NullString
		if err := rows.Scan(&l.ID, &l.EquipmentID, &l.OldCondition, &l.NewCondition, &l.ChangedAt, &l.ChangedBy, &notes); err != nil {
			return nil, fmt.Errorf("scanning condition log: %w", err)
		}
		l.Notes = notes.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// UsageStats holds the counters for the usage report.
type UsageStats struct {
	Total      int `json:"total"`
	Available  int `json:"available"`
	CheckedOut int `json:"checked_out"`
	Pending    int `json:"pending"`
	Approved   int `json:"approved"`
}

// GetUsageStats returns equipment and reservation counters for reporting.
func GetUsageStats(ctx context.Context, db *sql.DB) (*UsageStats, error) {
	stats := &UsageStats{}
	err := db.QueryRowContext(ctx,
		`SELECT
		    (SELECT COUNT(*) FROM equipment WHERE deleted_at IS NULL),
		    (SELECT COUNT(*) FROM equipment WHERE deleted_at IS NULL AND status = ?),
		    (SELECT COUNT(*) FROM equipment WHERE deleted_at IS NULL AND status = ?),
		    (SELECT COUNT(*) FROM reservations WHERE status = ?),
		    (SELECT COUNT(*) FROM reservations WHERE status = ?)`,
		model.StatusAvailable, model.StatusCheckedOut,
		model.ReservationPending, model.ReservationApproved,
	).Scan(&stats.Total, &stats.Available, &stats.CheckedOut, &stats.Pending, &stats.Approved)
	if err != nil {
		return nil, fmt.Errorf("getting usage stats: %w", err)
	}
	return stats, nil
}
