package tracker

import (
	"reflect"
	"testing"
	"time"

	"github.com/untergeek/es-checkpoint/pkg/storage"
	"github.com/untergeek/es-checkpoint/pkg/timestamp"
)

var testClock = timestamp.Fixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

func TestPruneEmpty(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		keep bool
	}{
		{"nil dropped", "a", nil, false},
		{"empty string dropped", "b", "", false},
		{"empty slice dropped", "c", []string{}, false},
		{"empty any slice dropped", "d", []any{}, false},
		{"empty map dropped", "e", map[string]any{}, false},
		{"false kept", "f", false, true},
		{"zero kept", "g", 0, true},
		{"string kept", "h", "x", true},
		{"slice kept", "i", []string{"x"}, true},
		{"map kept", "j", map[string]any{"x": 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := pruneEmpty(storage.Document{tt.key: tt.val})
			_, ok := doc[tt.key]
			if ok != tt.keep {
				t.Errorf("pruneEmpty(%v) kept=%t, want %t", tt.val, ok, tt.keep)
			}
		})
	}
}

func TestTrackableLifecycle(t *testing.T) {
	backend := storage.NewMemoryBackend(nil)
	tr := newTrackable(backend, "tracking", "doc1", false, nil)
	tr.stub = "test tracker"
	tr.clock = testClock

	if err := tr.Begin(t.Context()); err != nil {
		t.Fatalf("Begin() error: %v", err)
	}
	doc, err := backend.Get(t.Context(), "tracking", "doc1")
	if err != nil {
		t.Fatalf("Get() after Begin error: %v", err)
	}
	if got := doc["start_time"]; got != "2025-06-01T12:00:00Z" {
		t.Errorf("start_time = %v, want 2025-06-01T12:00:00Z", got)
	}
	if got := doc["completed"]; got != false {
		t.Errorf("completed = %v, want false", got)
	}
	if _, ok := doc["end_time"]; ok {
		t.Errorf("end_time present before End()")
	}

	if err := tr.End(t.Context(), true, false, "all done"); err != nil {
		t.Fatalf("End() error: %v", err)
	}
	doc, err = backend.Get(t.Context(), "tracking", "doc1")
	if err != nil {
		t.Fatalf("Get() after End error: %v", err)
	}
	if got := doc["completed"]; got != true {
		t.Errorf("completed = %v, want true", got)
	}
	logs, ok := doc["logs"].([]string)
	if !ok || len(logs) != 1 {
		t.Fatalf("logs = %v, want one entry", doc["logs"])
	}
	if logs[0] != "2025-06-01T12:00:00Z all done" {
		t.Errorf("log line = %q", logs[0])
	}
}

func TestTrackableBeginAssignsGeneratedID(t *testing.T) {
	backend := storage.NewMemoryBackend(nil)
	tr := newTrackable(backend, "tracking", "", false, nil)
	tr.clock = testClock

	if err := tr.Begin(t.Context()); err != nil {
		t.Fatalf("Begin() error: %v", err)
	}
	if tr.DocID() == "" {
		t.Fatal("DocID empty after first Record")
	}
	if _, err := backend.Get(t.Context(), "tracking", tr.DocID()); err != nil {
		t.Errorf("Get(%q) error: %v", tr.DocID(), err)
	}
}

func TestTrackableDryRunLogLine(t *testing.T) {
	backend := storage.NewMemoryBackend(nil)
	tr := newTrackable(backend, "tracking", "doc1", true, nil)
	tr.clock = testClock

	if err := tr.Begin(t.Context()); err != nil {
		t.Fatalf("Begin() error: %v", err)
	}
	doc, err := backend.Get(t.Context(), "tracking", "doc1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got := doc["dry_run"]; got != nil && got != true {
		t.Errorf("dry_run = %v", got)
	}
	logs, _ := doc["logs"].([]string)
	if len(logs) != 1 || logs[0] != "2025-06-01T12:00:00Z DRY-RUN: No changes will be made" {
		t.Errorf("logs = %v, want dry-run notice", logs)
	}
}

func TestFinished(t *testing.T) {
	tests := []struct {
		name      string
		completed bool
		dryRun    bool
		want      bool
	}{
		{"not completed", false, false, false},
		{"completed real run", true, false, true},
		{"completed but dry run now", true, true, false},
		{"fresh dry run", false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTrackable(storage.NewMemoryBackend(nil), "tracking", "d", tt.dryRun, nil)
			tr.completed = tt.completed
			if got := tr.Finished(); got != tt.want {
				t.Errorf("Finished() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestBuildDocIdempotent(t *testing.T) {
	tr := newTrackable(storage.NewMemoryBackend(nil), "tracking", "d", false, nil)
	tr.startTime = "2025-06-01T12:00:00Z"
	tr.AddLog("one line")

	first := tr.BuildDoc()
	second := tr.BuildDoc()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("BuildDoc() not stable: %v vs %v", first, second)
	}
	if _, ok := first["end_time"]; ok {
		t.Error("empty end_time not pruned")
	}
}

func TestSyncStatus(t *testing.T) {
	tr := newTrackable(storage.NewMemoryBackend(nil), "tracking", "d", false, nil)
	tr.startTime = "2025-06-01T12:00:00Z"
	tr.completed = true

	tr.SyncStatus()
	if tr.Status()["start_time"] != "2025-06-01T12:00:00Z" || tr.Status()["completed"] != true {
		t.Errorf("status = %v", tr.Status())
	}
}

func TestAdoptAndClearHistory(t *testing.T) {
	tr := newTrackable(storage.NewMemoryBackend(nil), "tracking", "d", false, nil)
	tr.status = storage.Document{
		"start_time": "2025-06-01T10:00:00Z",
		"end_time":   "2025-06-01T11:00:00Z",
		"completed":  true,
		"errors":     false,
		"logs":       []any{"2025-06-01T10:00:00Z started"},
	}

	tr.AdoptStatus()
	if tr.StartTime() != "2025-06-01T10:00:00Z" || !tr.Completed() {
		t.Errorf("AdoptStatus: start_time=%q completed=%t", tr.StartTime(), tr.Completed())
	}
	if len(tr.Logs()) != 1 {
		t.Errorf("AdoptStatus: logs=%v", tr.Logs())
	}

	tr.ClearHistory()
	if tr.StartTime() != "" || tr.EndTime() != "" || tr.Completed() || tr.Errored() || tr.Logs() != nil {
		t.Error("ClearHistory left state behind")
	}
}
