package store

import "sync"

// equipmentLocks holds one mutex per equipment id. The overlap check and the
// commit that follows it must be serialized per equipment: two concurrent
// reservations for overlapping windows could otherwise both pass the check
// before either commits.
var equipmentLocks sync.Map // int64 -> *sync.Mutex

// lockEquipment acquires the mutex for an equipment id and returns the
// unlock function.
func lockEquipment(id int64) func() {
	v, _ := equipmentLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
