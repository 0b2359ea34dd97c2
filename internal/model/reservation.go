package model

import "time"

// Reservation represents a time-bounded request to hold a piece of
// equipment exclusively. Reservations are never deleted; terminal states
// are kept for history.
type Reservation struct {
	ID          int64      `json:"id"`
	EquipmentID int64      `json:"equipment_id"`
	RequesterID int64      `json:"requester_id"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ApprovedBy  *int64     `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	ReturnNotes string     `json:"return_notes,omitempty"`

	// Joined fields (not always populated).
	EquipmentName string `json:"equipment_name,omitempty"`
}

// Reservation statuses. Transitions: pending -> approved -> returned,
// pending -> rejected. Rejected and returned are terminal.
const (
	ReservationPending  = "pending"
	ReservationApproved = "approved"
	ReservationRejected = "rejected"
	ReservationReturned = "returned"
)

// Overlaps reports whether two [start, end) windows intersect.
// Touching boundaries (one window ending exactly when another starts)
// do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !(aEnd.Compare(bStart) <= 0 || aStart.Compare(bEnd) >= 0)
}
