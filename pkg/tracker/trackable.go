package tracker

import (
	"context"

	"go.uber.org/zap"

	"github.com/untergeek/es-checkpoint/pkg/storage"
	"github.com/untergeek/es-checkpoint/pkg/timestamp"
)

// Trackable is the common core of Job, Task, and Step. It owns the shared
// progress attributes, the status document mirror, and the persistence
// lifecycle. Level-specific fields are contributed through the extra hook.
type Trackable struct {
	backend       storage.Backend
	trackingIndex string
	docID         string

	status storage.Document

	startTime string
	endTime   string
	completed bool
	errored   bool
	logs      []string

	dryRun     bool
	prevDryRun bool
	success    bool

	stub  string
	log   *zap.Logger
	clock timestamp.Clock

	// extra returns the level-specific identity fields merged into every
	// persisted snapshot.
	extra func() storage.Document
}

func newTrackable(backend storage.Backend, trackingIndex, docID string, dryRun bool, log *zap.Logger) Trackable {
	if log == nil {
		log = zap.NewNop()
	}
	return Trackable{
		backend:       backend,
		trackingIndex: trackingIndex,
		docID:         docID,
		status:        storage.Document{},
		dryRun:        dryRun,
		success:       true,
		log:           log,
		clock:         timestamp.Now,
	}
}

// TrackingIndex returns the storage container holding this tracker's
// document.
func (t *Trackable) TrackingIndex() string { return t.trackingIndex }

// DocID returns the storage document ID, empty until the first write when
// the backend assigns one.
func (t *Trackable) DocID() string { return t.docID }

// Stub is the human-readable identity used in logs and error messages.
func (t *Trackable) Stub() string { return t.stub }

func (t *Trackable) StartTime() string { return t.startTime }
func (t *Trackable) EndTime() string   { return t.endTime }
func (t *Trackable) Completed() bool   { return t.completed }
func (t *Trackable) Errored() bool     { return t.errored }
func (t *Trackable) Logs() []string    { return t.logs }

// DryRun reports whether this run is simulated. Dry-run trackers still
// persist snapshots, but their history is never adopted by later runs.
func (t *Trackable) DryRun() bool { return t.dryRun }

// PrevDryRun reports whether the most recent persisted run was a dry run.
func (t *Trackable) PrevDryRun() bool { return t.prevDryRun }

// Successful reports whether the run is still considered successful.
func (t *Trackable) Successful() bool { return t.success }

// MarkFailed flags the run as failed so finalization records an errored
// outcome.
func (t *Trackable) MarkFailed() { t.success = false }

// Status returns the raw status document mirror.
func (t *Trackable) Status() storage.Document { return t.status }

// Meta returns the identity snapshot used by tracker-level errors.
func (t *Trackable) Meta() TrackerMeta {
	return TrackerMeta{
		DryRun:        t.dryRun,
		Stub:          t.stub,
		TrackingIndex: t.trackingIndex,
		DocID:         t.docID,
		StartTime:     t.startTime,
	}
}

// AddLog appends a timestamped line to the tracker's log entries.
func (t *Trackable) AddLog(msg string) {
	t.logs = append(t.logs, t.clock()+" "+msg)
}

// SyncStatus copies the shared progress attributes into the status document.
func (t *Trackable) SyncStatus() {
	t.status["start_time"] = t.startTime
	t.status["completed"] = t.completed
	t.status["end_time"] = t.endTime
	t.status["errors"] = t.errored
	t.status["logs"] = t.logs
}

// AdoptStatus copies the shared progress fields from the status document
// back into the attributes, resuming a prior run's state.
func (t *Trackable) AdoptStatus() {
	t.startTime = stringField(t.status, "start_time")
	t.endTime = stringField(t.status, "end_time")
	t.completed = boolField(t.status, "completed")
	t.errored = boolField(t.status, "errors")
	t.logs = stringsField(t.status, "logs")
}

// ClearHistory resets the shared progress attributes to their empty state.
// Used when the prior persisted run was a dry run and must not be resumed.
func (t *Trackable) ClearHistory() {
	t.startTime = ""
	t.endTime = ""
	t.completed = false
	t.errored = false
	t.logs = nil
}

// BuildDoc assembles the persistable snapshot: shared progress fields plus
// the level-specific extras, with empty values pruned.
func (t *Trackable) BuildDoc() storage.Document {
	doc := storage.Document{
		"start_time": t.startTime,
		"completed":  t.completed,
		"end_time":   t.endTime,
		"errors":     t.errored,
		"logs":       t.logs,
	}
	if t.extra != nil {
		for k, v := range t.extra() {
			doc[k] = v
		}
	}
	return pruneEmpty(doc)
}

// Record persists the current snapshot. On the first write of a tracker
// without an assigned ID, the backend-generated ID is adopted.
func (t *Trackable) Record(ctx context.Context) error {
	doc := t.BuildDoc()
	id, err := t.backend.Save(ctx, t.trackingIndex, t.docID, doc)
	if err != nil {
		return err
	}
	t.docID = id
	t.log.Debug("recorded tracking document",
		zap.String("tracker", t.stub),
		zap.String("index", t.trackingIndex),
		zap.String("doc_id", t.docID))
	return nil
}

// Begin starts (or restarts) the run: stamps a fresh start time, clears the
// completion flag, and persists the snapshot.
func (t *Trackable) Begin(ctx context.Context) error {
	t.log.Info("begin tracking", zap.String("tracker", t.stub))
	if t.dryRun {
		const msg = "DRY-RUN: No changes will be made"
		t.log.Info(msg, zap.String("tracker", t.stub))
		t.AddLog(msg)
	}
	t.startTime = t.clock()
	t.completed = false
	return t.Record(ctx)
}

// End closes the run: stamps the end time, records the outcome flags and an
// optional final log line, and persists the snapshot.
func (t *Trackable) End(ctx context.Context, completed, errored bool, logmsg string) error {
	t.endTime = t.clock()
	t.completed = completed
	t.errored = errored
	if logmsg != "" {
		t.AddLog(logmsg)
	}
	if err := t.Record(ctx); err != nil {
		return err
	}
	t.log.Info("end tracking",
		zap.String("tracker", t.stub),
		zap.Bool("completed", completed),
		zap.Bool("errors", errored))
	return nil
}

// Finished reports whether a prior run of this tracker already completed.
// A dry run always re-executes, so it never reports finished regardless of
// prior completion.
func (t *Trackable) Finished() bool {
	if t.completed {
		if t.dryRun {
			t.log.Info("DRY-RUN: ignoring previous run", zap.String("tracker", t.stub))
		} else {
			t.log.Debug("completed previously", zap.String("tracker", t.stub))
			return true
		}
	}
	if t.startTime != "" {
		t.ReportHistory()
		t.log.Info("not completed in a previous run", zap.String("tracker", t.stub))
	}
	return false
}

// ReportHistory logs a diagnostic summary of the prior run.
func (t *Trackable) ReportHistory() {
	if t.prevDryRun {
		t.log.Debug("prior run was a dry run", zap.String("tracker", t.stub))
	}
	if t.startTime != "" {
		t.log.Debug("prior run started", zap.String("tracker", t.stub),
			zap.String("start_time", t.startTime))
	}
	if t.completed {
		if t.endTime != "" {
			t.log.Debug("prior run completed", zap.String("tracker", t.stub),
				zap.String("end_time", t.endTime))
		} else {
			t.log.Warn("prior run is marked completed but did not record an end time",
				zap.String("tracker", t.stub),
				zap.String("start_time", t.startTime))
		}
	}
	if t.errored {
		t.log.Warn("prior run encountered errors",
			zap.String("tracker", t.stub),
			zap.Strings("logs", t.logs))
	}
}

// pruneEmpty strips entries whose values carry no information: nil, empty
// strings, and empty collections. Boolean false and numeric zero are kept.
func pruneEmpty(doc storage.Document) storage.Document {
	for k, v := range doc {
		switch val := v.(type) {
		case nil:
			delete(doc, k)
		case string:
			if val == "" {
				delete(doc, k)
			}
		case []string:
			if len(val) == 0 {
				delete(doc, k)
			}
		case []any:
			if len(val) == 0 {
				delete(doc, k)
			}
		case map[string]any:
			if len(val) == 0 {
				delete(doc, k)
			}
		}
	}
	return doc
}

func stringField(doc storage.Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

func boolField(doc storage.Document, key string) bool {
	b, _ := doc[key].(bool)
	return b
}

func stringsField(doc storage.Document, key string) []string {
	switch v := doc[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
