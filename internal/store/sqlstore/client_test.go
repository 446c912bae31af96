// internal/store/sqlstore/client_test.go
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/models"
	_ "modernc.org/sqlite"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	client, err := NewWithDB(db)
	if err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLoadReturnsDefaultsWhenEmpty(t *testing.T) {
	client := newTestClient(t)

	record, err := client.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if record.Status != models.StatusIdle {
		t.Fatalf("expected idle defaults, got %q", record.Status)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	record := models.NewTaskRecord()
	record.Status = models.StatusProcessing
	record.UserIDs = []int64{7, 8}
	record.GroupID = 45
	record.Courses[100] = models.CourseSteps{Topics: []int64{21}}

	if err := client.Save(ctx, record); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := client.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Status != models.StatusProcessing || loaded.GroupID != 45 || len(loaded.UserIDs) != 2 {
		t.Fatalf("round trip lost fields: %+v", loaded)
	}
	if len(loaded.Courses[100].Topics) != 1 {
		t.Fatalf("round trip lost work plan: %+v", loaded.Courses)
	}
}

// TestLastWriteWins documents the persistence contract: saves overwrite
// unconditionally, there is no compare-and-swap. A writer holding a
// stale record silently discards a concurrent writer's update.
func TestLastWriteWins(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first, err := client.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	second := first.Clone()

	first.Status = models.StatusProcessing
	first.UserIDs = []int64{7}
	if err := client.Save(ctx, first); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	second.Status = models.StatusCancelled
	if err := client.Save(ctx, second); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := client.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Status != models.StatusCancelled || len(loaded.UserIDs) != 0 {
		t.Fatalf("expected the later write to win wholesale, got %+v", loaded)
	}
}
