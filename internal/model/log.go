package model

import "time"

// ActivityLog is an append-only record of an equipment-related action,
// used for the history report.
type ActivityLog struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"user_id,omitempty"`
	EquipmentID *int64    `json:"equipment_id,omitempty"`
	Action      string    `json:"action"`
	Timestamp   time.Time `json:"timestamp"`
	Notes       string    `json:"notes,omitempty"`
}

// Activity actions recorded by the reservation workflow.
const (
	ActionCreate      = "request:create"
	ActionAutoApprove = "request:auto-approve"
	ActionApprove     = "request:approve"
	ActionReject      = "request:reject"
	ActionReturn      = "request:return"
)

// ConditionLog records a single equipment condition change. A log entry is
// written on every return, even when the condition is unchanged.
type ConditionLog struct {
	ID           int64     `json:"id"`
	EquipmentID  int64     `json:"equipment_id"`
	OldCondition string    `json:"old_condition"`
	NewCondition string    `json:"new_condition"`
	ChangedAt    time.Time `json:"changed_at"`
	ChangedBy    *int64    `json:"changed_by,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}
