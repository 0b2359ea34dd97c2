package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func newTestUser(t *testing.T, database *sql.DB, username string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, username, "unused-hash", model.RoleUser)
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return u
}

func newTestEquipment(t *testing.T, database *sql.DB, name string, sensitive bool) *model.Equipment {
	t.Helper()
	e, err := CreateEquipment(context.Background(), database, name, "camera", "SN-"+name, "storage", sensitive)
	if err != nil {
		t.Fatalf("creating test equipment: %v", err)
	}
	return e
}

func TestCreateReservationAutoApprove(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	eq := newTestEquipment(t, database, "Projector", false)

	res, err := CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(3), "class demo")
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	if res.Status != model.ReservationApproved {
		t.Errorf("expected status approved, got %q", res.Status)
	}
	if res.ApprovedBy == nil || *res.ApprovedBy != user.ID {
		t.Errorf("expected requester recorded as approver, got %v", res.ApprovedBy)
	}
	if res.ApprovedAt == nil {
		t.Error("expected approved_at to be set")
	}

	eq, _ = GetEquipment(ctx, database, eq.ID)
	if eq.Status != model.StatusCheckedOut {
		t.Errorf("expected equipment checked_out, got %q", eq.Status)
	}
}

func TestCreateReservationSensitivePending(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	eq := newTestEquipment(t, database, "Microscope", true)

	res, err := CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(3), "")
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	if res.Status != model.ReservationPending {
		t.Errorf("expected status pending, got %q", res.Status)
	}
	if res.ApprovedBy != nil {
		t.Errorf("expected no approver, got %v", *res.ApprovedBy)
	}

	// Equipment status must be untouched by a pending request.
	eq, _ = GetEquipment(ctx, database, eq.ID)
	if eq.Status != model.StatusAvailable {
		t.Errorf("expected equipment available, got %q", eq.Status)
	}
}

func TestCreateReservationUnknownEquipment(t *testing.T) {
	database := db.NewTestDB(t)
	user := newTestUser(t, database, "u1")

	_, err := CreateReservation(context.Background(), database, 999, user.ID, day(1), day(3), "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateReservationInvalidRange(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	eq := newTestEquipment(t, database, "Projector", false)

	// End before start.
	_, err := CreateReservation(ctx, database, eq.ID, user.ID, day(3), day(1), "")
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange for end < start, got %v", err)
	}

	// End equal to start.
	_, err = CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(1), "")
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange for end == start, got %v", err)
	}

	// Missing times.
	_, err = CreateReservation(ctx, database, eq.ID, user.ID, time.Time{}, day(1), "")
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange for zero start, got %v", err)
	}
}

func TestCreateReservationOverlapConflict(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u1 := newTestUser(t, database, "u1")
	u2 := newTestUser(t, database, "u2")
	eq := newTestEquipment(t, database, "Projector", false)

	if _, err := CreateReservation(ctx, database, eq.ID, u1.ID, day(1), day(3), ""); err != nil {
		t.Fatalf("first CreateReservation: %v", err)
	}

	_, err := CreateReservation(ctx, database, eq.ID, u2.ID, day(2), day(4), "")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for overlapping window, got %v", err)
	}
}

func TestCreateReservationBoundaryTouchAllowed(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u1 := newTestUser(t, database, "u1")
	u2 := newTestUser(t, database, "u2")
	eq := newTestEquipment(t, database, "Projector", false)

	if _, err := CreateReservation(ctx, database, eq.ID, u1.ID, day(1), day(2), ""); err != nil {
		t.Fatalf("first CreateReservation: %v", err)
	}

	// Half-open windows: starting exactly when the first one ends is fine.
	if _, err := CreateReservation(ctx, database, eq.ID, u2.ID, day(2), day(3), ""); err != nil {
		t.Errorf("expected no conflict at exact boundary, got %v", err)
	}
}

func TestCreateReservationOtherEquipmentUnaffected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u1 := newTestUser(t, database, "u1")
	u2 := newTestUser(t, database, "u2")
	eq1 := newTestEquipment(t, database, "Projector", false)
	eq2 := newTestEquipment(t, database, "Camera", false)

	if _, err := CreateReservation(ctx, database, eq1.ID, u1.ID, day(1), day(3), ""); err != nil {
		t.Fatalf("first CreateReservation: %v", err)
	}

	// Same window, different equipment.
	if _, err := CreateReservation(ctx, database, eq2.ID, u2.ID, day(1), day(3), ""); err != nil {
		t.Errorf("expected no conflict across equipment, got %v", err)
	}
}

func TestApproveSensitiveFlow(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	admin := newTestUser(t, database, "admin")
	eq := newTestEquipment(t, database, "Microscope", true)

	res, err := CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(3), "")
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	approved, err := ApproveReservation(ctx, database, res.ID, admin.ID)
	if err != nil {
		t.Fatalf("ApproveReservation: %v", err)
	}

	if approved.Status != model.ReservationApproved {
		t.Errorf("expected status approved, got %q", approved.Status)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != admin.ID {
		t.Errorf("expected approver %d, got %v", admin.ID, approved.ApprovedBy)
	}

	eq, _ = GetEquipment(ctx, database, eq.ID)
	if eq.Status != model.StatusCheckedOut {
		t.Errorf("expected equipment checked_out, got %q", eq.Status)
	}
}

func TestApproveNonPendingConflict(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	admin := newTestUser(t, database, "admin")
	eq := newTestEquipment(t, database, "Projector", false)

	// Auto-approved at creation, so a second approval must conflict.
	res, err := CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(3), "")
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	_, err = ApproveReservation(ctx, database, res.ID, admin.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	// The current status must appear in the message so callers can tell
	// "already approved" from "already rejected".
	if !strings.Contains(err.Error(), model.ReservationApproved) {
		t.Errorf("expected status in error message, got %q", err.Error())
	}

	// Same check after a rejection.
	eq2 := newTestEquipment(t, database, "Microscope", true)
	res2, _ := CreateReservation(ctx, database, eq2.ID, user.ID, day(1), day(3), "")
	RejectReservation(ctx, database, res2.ID, admin.ID, "no")

	_, err = ApproveReservation(ctx, database, res2.ID, admin.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if !strings.Contains(err.Error(), model.ReservationRejected) {
		t.Errorf("expected status in error message, got %q", err.Error())
	}
}

func TestApproveOverlapConflict(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u1 := newTestUser(t, database, "u1")
	u2 := newTestUser(t, database, "u2")
	admin := newTestUser(t, database, "admin")
	eq := newTestEquipment(t, database, "Microscope", true)

	first, err := CreateReservation(ctx, database, eq.ID, u1.ID, day(1), day(3), "")
	if err != nil {
		t.Fatalf("first CreateReservation: %v", err)
	}
	second, err := CreateReservation(ctx, database, eq.ID, u2.ID, day(2), day(4), "")
	if err != nil {
		t.Fatalf("second CreateReservation: %v", err)
	}

	if _, err := ApproveReservation(ctx, database, first.ID, admin.ID); err != nil {
		t.Fatalf("approving first: %v", err)
	}

	_, err = ApproveReservation(ctx, database, second.ID, admin.ID)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict approving overlapping pending request, got %v", err)
	}
}

func TestApproveMissingReservation(t *testing.T) {
	database := db.NewTestDB(t)
	admin := newTestUser(t, database, "admin")

	_, err := ApproveReservation(context.Background(), database, 999, admin.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectOverwritesNotes(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	admin := newTestUser(t, database, "admin")
	eq := newTestEquipment(t, database, "Microscope", true)

	res, _ := CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(3), "please")

	rejected, err := RejectReservation(ctx, database, res.ID, admin.ID, "not this week")
	if err != nil {
		t.Fatalf("RejectReservation: %v", err)
	}

	if rejected.Status != model.ReservationRejected {
		t.Errorf("expected status rejected, got %q", rejected.Status)
	}
	if rejected.Notes != "not this week" {
		t.Errorf("expected rejection notes to overwrite, got %q", rejected.Notes)
	}
	if rejected.ApprovedBy == nil || *rejected.ApprovedBy != admin.ID {
		t.Errorf("expected rejecting admin recorded, got %v", rejected.ApprovedBy)
	}
}

func TestRejectIsPermissive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	admin := newTestUser(t, database, "admin")
	eq := newTestEquipment(t, database, "Projector", false)

	// Auto-approved reservation can still be rejected; the fields are
	// simply overwritten.
	res, _ := CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(3), "")

	rejected, err := RejectReservation(ctx, database, res.ID, admin.ID, "recalled")
	if err != nil {
		t.Fatalf("RejectReservation: %v", err)
	}
	if rejected.Status != model.ReservationRejected {
		t.Errorf("expected status rejected, got %q", rejected.Status)
	}
}

func TestRejectMissingReservation(t *testing.T) {
	database := db.NewTestDB(t)
	admin := newTestUser(t, database, "admin")

	_, err := RejectReservation(context.Background(), database, 999, admin.ID, "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReturnDefaults(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	admin := newTestUser(t, database, "admin")
	eq := newTestEquipment(t, database, "Projector", false)

	res, _ := CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(3), "")

	returned, err := ReturnReservation(ctx, database, res.ID, ReturnUpdate{}, admin.ID)
	if err != nil {
		t.Fatalf("ReturnReservation: %v", err)
	}

	if returned.Status != model.ReservationReturned {
		t.Errorf("expected status returned, got %q", returned.Status)
	}
	if returned.ReturnedAt == nil {
		t.Error("expected returned_at to be set")
	}

	// Status defaults to available, condition stays untouched.
	eq, _ = GetEquipment(ctx, database, eq.ID)
	if eq.Status != model.StatusAvailable {
		t.Errorf("expected equipment available, got %q", eq.Status)
	}
	if eq.Condition != model.ConditionGood {
		t.Errorf("expected condition unchanged, got %q", eq.Condition)
	}
}

func TestReturnWithConditionAndNotes(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	admin := newTestUser(t, database, "admin")
	eq := newTestEquipment(t, database, "Projector", false)

	res, _ := CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(3), "")

	fair := model.ConditionFair
	returned, err := ReturnReservation(ctx, database, res.ID, ReturnUpdate{
		Condition: &fair,
		Notes:     "wear",
	}, admin.ID)
	if err != nil {
		t.Fatalf("ReturnReservation: %v", err)
	}

	if returned.ReturnNotes != "wear" {
		t.Errorf("expected return notes %q, got %q", "wear", returned.ReturnNotes)
	}

	eq, _ = GetEquipment(ctx, database, eq.ID)
	if eq.Condition != model.ConditionFair {
		t.Errorf("expected condition fair, got %q", eq.Condition)
	}

	logs, err := GetConditionLogs(ctx, database, eq.ID)
	if err != nil {
		t.Fatalf("GetConditionLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 condition log entry, got %d", len(logs))
	}
	if logs[0].OldCondition != model.ConditionGood || logs[0].NewCondition != model.ConditionFair {
		t.Errorf("expected good -> fair, got %q -> %q", logs[0].OldCondition, logs[0].NewCondition)
	}
}

func TestReturnAlwaysWritesConditionLog(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	admin := newTestUser(t, database, "admin")
	eq := newTestEquipment(t, database, "Projector", false)

	res, _ := CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(3), "")

	// No condition in the payload: the log entry is still written, with
	// old and new equal.
	if _, err := ReturnReservation(ctx, database, res.ID, ReturnUpdate{}, admin.ID); err != nil {
		t.Fatalf("ReturnReservation: %v", err)
	}

	logs, _ := GetConditionLogs(ctx, database, eq.ID)
	if len(logs) != 1 {
		t.Fatalf("expected 1 condition log entry, got %d", len(logs))
	}
	if logs[0].OldCondition != logs[0].NewCondition {
		t.Errorf("expected unchanged condition logged, got %q -> %q", logs[0].OldCondition, logs[0].NewCondition)
	}
}

func TestReturnCustomStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	admin := newTestUser(t, database, "admin")
	eq := newTestEquipment(t, database, "Projector", false)

	res, _ := CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(3), "")

	maintenance := model.StatusMaintenance
	damaged := model.ConditionDamaged
	if _, err := ReturnReservation(ctx, database, res.ID, ReturnUpdate{
		Condition: &damaged,
		Status:    &maintenance,
		Notes:     "broken lens",
	}, admin.ID); err != nil {
		t.Fatalf("ReturnReservation: %v", err)
	}

	eq, _ = GetEquipment(ctx, database, eq.ID)
	if eq.Status != model.StatusMaintenance {
		t.Errorf("expected equipment maintenance, got %q", eq.Status)
	}
	if eq.Condition != model.ConditionDamaged {
		t.Errorf("expected condition damaged, got %q", eq.Condition)
	}
}

func TestReturnMissingReservation(t *testing.T) {
	database := db.NewTestDB(t)
	admin := newTestUser(t, database, "admin")

	_, err := ReturnReservation(context.Background(), database, 999, ReturnUpdate{}, admin.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReservationActivityTrail(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	admin := newTestUser(t, database, "admin")
	eq := newTestEquipment(t, database, "Microscope", true)

	res, _ := CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(3), "")
	ApproveReservation(ctx, database, res.ID, admin.ID)
	ReturnReservation(ctx, database, res.ID, ReturnUpdate{}, admin.ID)

	logs, err := RecentActivity(ctx, database, 0)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 activity entries, got %d", len(logs))
	}

	// Newest first.
	want := []string{model.ActionReturn, model.ActionApprove, model.ActionCreate}
	for i, action := range want {
		if logs[i].Action != action {
			t.Errorf("entry %d: expected action %q, got %q", i, action, logs[i].Action)
		}
	}
}

func TestListReservationsOrdering(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	u1 := newTestUser(t, database, "u1")
	u2 := newTestUser(t, database, "u2")
	eq := newTestEquipment(t, database, "Projector", false)

	first, _ := CreateReservation(ctx, database, eq.ID, u1.ID, day(1), day(2), "")
	second, _ := CreateReservation(ctx, database, eq.ID, u2.ID, day(2), day(3), "")

	all, err := ListReservations(ctx, database)
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(all))
	}
	// Newest request first.
	if all[0].ID != second.ID || all[1].ID != first.ID {
		t.Errorf("expected order [%d, %d], got [%d, %d]", second.ID, first.ID, all[0].ID, all[1].ID)
	}
	if all[0].EquipmentName != "Projector" {
		t.Errorf("expected equipment name joined, got %q", all[0].EquipmentName)
	}

	mine, err := ListReservationsForRequester(ctx, database, u1.ID)
	if err != nil {
		t.Fatalf("ListReservationsForRequester: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != first.ID {
		t.Errorf("expected only u1's reservation, got %v", mine)
	}
}

func TestConcurrentOverlappingCreates(t *testing.T) {
	// A shared in-memory database gives each pooled connection its own
	// empty database, so use a file-backed one for real concurrency.
	path := filepath.Join(t.TempDir(), "test.sqlite3")
	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	defer database.Close()
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	ctx := context.Background()
	u1 := newTestUser(t, database, "u1")
	u2 := newTestUser(t, database, "u2")
	eq := newTestEquipment(t, database, "Projector", false)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, user := range []*model.User{u1, u2} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = CreateReservation(ctx, database, eq.ID, user.ID, day(1), day(3), "")
		}()
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Errorf("expected exactly one success and one conflict, got %d/%d", ok, conflicts)
	}
}
