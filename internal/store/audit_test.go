package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
)

func TestRecentActivityCap(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	for i := 0; i < DefaultRecentActivity+10; i++ {
		if err := AppendActivity(ctx, database, &user.ID, nil, model.ActionCreate, fmt.Sprintf("entry %d", i)); err != nil {
			t.Fatalf("AppendActivity: %v", err)
		}
	}

	logs, err := RecentActivity(ctx, database, 0)
	if err != nil {
		t.Fatalf("RecentActivity: %v", err)
	}
	if len(logs) != DefaultRecentActivity {
		t.Errorf("expected %d entries with default limit, got %d", DefaultRecentActivity, len(logs))
	}

	// Oversized limits are clamped too.
	logs, err = RecentActivity(ctx, database, DefaultRecentActivity*2)
	if err != nil {
		t.Fatalf("RecentActivity oversized: %v", err)
	}
	if len(logs) != DefaultRecentActivity {
		t.Errorf("expected clamp to %d entries, got %d", DefaultRecentActivity, len(logs))
	}

	logs, err = RecentActivity(ctx, database, 10)
	if err != nil {
		t.Fatalf("RecentActivity limited: %v", err)
	}
	if len(logs) != 10 {
		t.Errorf("expected 10 entries, got %d", len(logs))
	}
	// Newest first.
	if logs[0].Notes != fmt.Sprintf("entry %d", DefaultRecentActivity+9) {
		t.Errorf("expected newest entry first, got %q", logs[0].Notes)
	}
}

func TestAppendConditionChange(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	admin := newTestUser(t, database, "admin")
	eq := newTestEquipment(t, database, "Camera", false)

	err := AppendConditionChange(ctx, database, eq.ID, model.ConditionGood, model.ConditionDamaged, &admin.ID, "dropped")
	if err != nil {
		t.Fatalf("AppendConditionChange: %v", err)
	}

	logs, err := GetConditionLogs(ctx, database, eq.ID)
	if err != nil {
		t.Fatalf("GetConditionLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(logs))
	}
	l := logs[0]
	if l.OldCondition != model.ConditionGood || l.NewCondition != model.ConditionDamaged {
		t.Errorf("expected good -> damaged, got %q -> %q", l.OldCondition, l.NewCondition)
	}
	if l.ChangedBy == nil || *l.ChangedBy != admin.ID {
		t.Errorf("expected changed_by %d, got %v", admin.ID, l.ChangedBy)
	}
	if l.Notes != "dropped" {
		t.Errorf("expected notes preserved, got %q", l.Notes)
	}
}

func TestGetUsageStats(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user := newTestUser(t, database, "u1")
	eq1 := newTestEquipment(t, database, "Projector", false)
	eq2 := newTestEquipment(t, database, "Microscope", true)
	newTestEquipment(t, database, "Camera", false)

	// One auto-approved (checks out eq1), one pending on eq2.
	if _, err := CreateReservation(ctx, database, eq1.ID, user.ID, day(1), day(3), ""); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if _, err := CreateReservation(ctx, database, eq2.ID, user.ID, day(1), day(3), ""); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	stats, err := GetUsageStats(ctx, database)
	if err != nil {
		t.Fatalf("GetUsageStats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("expected 3 total, got %d", stats.Total)
	}
	if stats.Available != 2 {
		t.Errorf("expected 2 available, got %d", stats.Available)
	}
	if stats.CheckedOut != 1 {
		t.Errorf("expected 1 checked out, got %d", stats.CheckedOut)
	}
	if stats.Pending != 1 {
		t.Errorf("expected 1 pending, got %d", stats.Pending)
	}
	if stats.Approved != 1 {
		t.Errorf("expected 1 approved, got %d", stats.Approved)
	}
}
