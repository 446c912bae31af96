// internal/store/leveldb/client_test.go
package leveldb

import (
	"context"
	"testing"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/config"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(config.StoreConfig{LevelDBPath: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to open leveldb: %v", err)
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
	if record.UserIDs == nil || record.Courses == nil {
		t.Fatal("defaults must have initialized collections")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	record := models.NewTaskRecord()
	record.Status = models.StatusProcessing
	record.UserIDs = []int64{7, 8}
	record.GroupID = 45
	record.Courses[100] = models.CourseSteps{Lessons: []int64{11}, Quizzes: []int64{31}}
	record.Results = []models.Result{{UserID: 6, Email: "six@example.com", Status: 1, Message: "User Enrolled"}}
	record.AddMessage(models.MessageInfo, "Initiated by admin admin@example.com @ 2026-08-31 10:00:00")

	if err := client.Save(ctx, record); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := client.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Status != models.StatusProcessing || loaded.GroupID != 45 {
		t.Fatalf("round trip lost fields: %+v", loaded)
	}
	if len(loaded.UserIDs) != 2 || len(loaded.Results) != 1 || len(loaded.Messaging) != 1 {
		t.Fatalf("round trip lost collections: %+v", loaded)
	}
	if len(loaded.Courses[100].Quizzes) != 1 {
		t.Fatalf("round trip lost work plan: %+v", loaded.Courses)
	}
}

func TestSaveOverwrites(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	first := models.NewTaskRecord()
	first.Status = models.StatusProcessing
	first.UserIDs = []int64{7}
	if err := client.Save(ctx, first); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	second := models.NewTaskRecord()
	second.Status = models.StatusCompleted
	if err := client.Save(ctx, second); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := client.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Status != models.StatusCompleted || len(loaded.UserIDs) != 0 {
		t.Fatalf("expected the second record, got %+v", loaded)
	}
}
