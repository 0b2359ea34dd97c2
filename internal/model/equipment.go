package model

import "time"

// Equipment represents a physical equipment item tracked by the inventory.
// Sensitive items require explicit admin approval before checkout.
type Equipment struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Type         string     `json:"type,omitempty"`
	SerialNumber string     `json:"serial_number"`
	Location     string     `json:"location,omitempty"`
	Sensitive    bool       `json:"sensitive"`
	Status       string     `json:"status"`
	Condition    string     `json:"condition"`
	PhotoMime    string     `json:"photo_mime,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Equipment statuses.
const (
	StatusAvailable   = "available"
	StatusCheckedOut  = "checked_out"
	StatusMaintenance = "maintenance"
	StatusRetired     = "retired"
	StatusUnavailable = "unavailable"
)

// Equipment conditions.
const (
	ConditionExcellent = "excellent"
	ConditionGood      = "good"
	ConditionFair      = "fair"
	ConditionDamaged   = "damaged"
)

// ValidStatus reports whether s is a known equipment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusAvailable, StatusCheckedOut, StatusMaintenance, StatusRetired, StatusUnavailable:
		return true
	}
	return false
}

// ValidCondition reports whether c is a known equipment condition.
func ValidCondition(c string) bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionDamaged:
		return true
	}
	return false
}
