package syncx_test

import (
	"context"
	"testing"

	"github.com/skillcert/examengine/internal/db"
	syncx "github.com/skillcert/examengine/internal/sync"
)

func TestEventRepo_RecordAndList(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite,
		"file:eventlog_test?mode=memory&cache=shared&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer dbh.Close()

	repo := syncx.NewEventRepo(dbh)
	if err := repo.Record(ctx, "PartialStarted", "part-1", map[string]any{"exam_id": "exam-1"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := repo.Record(ctx, "PartialCompleted", "part-1", map[string]any{"normalized_score": 8.0}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := repo.Record(ctx, "PartialStarted", "part-2", nil); err != nil {
		t.Fatalf("Record: %v", err)
	}

	events, err := repo.ListByKey(ctx, "part-1")
	if err != nil {
		t.Fatalf("ListByKey: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Type != "PartialStarted" || events[1].Type != "PartialCompleted" {
		t.Fatalf("wrong order: %s then %s", events[0].Type, events[1].Type)
	}
	if events[0].Offset >= events[1].Offset {
		t.Fatalf("offsets not monotonic: %d then %d", events[0].Offset, events[1].Offset)
	}
	if events[1].DataJSON != `{"normalized_score":8}` {
		t.Fatalf("payload round-trip: %s", events[1].DataJSON)
	}

	other, err := repo.ListByKey(ctx, "part-9")
	if err != nil {
		t.Fatalf("ListByKey(empty): %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("unrelated key returned %d events", len(other))
	}
}
