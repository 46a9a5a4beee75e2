package tracker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/untergeek/es-checkpoint/pkg/storage"
)

// taskOrStep carries the fields shared by Task and Step: the parent job,
// the target index, the task identifier, and for steps a step name. Unlike
// jobs, these trackers are located by query rather than by document ID.
type taskOrStep struct {
	Trackable

	job      *Job
	index    string
	taskID   string
	stepname string
}

func (t *taskOrStep) baseFields() storage.Document {
	fields := storage.Document{
		"job":     t.job.Name(),
		"dry_run": t.dryRun,
	}
	if t.index != "" {
		fields["index"] = t.index
	}
	if t.taskID != "" {
		fields["task"] = t.taskID
	}
	if t.stepname != "" {
		fields["step"] = t.stepname
	}
	return fields
}

// getHistory resolves the prior tracking document for this task or step, if
// any, and adopts its progress fields. History from a dry run is discarded
// rather than adopted. A missing document simply means a fresh start.
func (t *taskOrStep) getHistory(ctx context.Context) error {
	if t.taskID == "" {
		return nil
	}
	result, err := findProgressDoc(ctx, t.backend, t.trackingIndex, t.job.Name(), t.taskID, t.stepname)
	if err != nil {
		if storage.IsMissingDocument(err) {
			t.log.Debug("no prior history", zap.String("tracker", t.stub))
			return nil
		}
		var fe *FatalError
		if errors.As(err, &fe) {
			return err
		}
		return fatalf(err, "unable to read history for %s", t.stub)
	}

	t.docID = result.ID
	t.status = result.Doc
	t.prevDryRun = boolField(result.Doc, "dry_run")
	if t.prevDryRun {
		t.log.Debug("previous run was a dry run, discarding history",
			zap.String("tracker", t.stub))
		t.ClearHistory()
	} else {
		t.AdoptStatus()
	}
	return nil
}
