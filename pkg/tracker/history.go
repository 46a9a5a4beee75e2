package tracker

import (
	"context"
	"fmt"

	"github.com/untergeek/es-checkpoint/pkg/storage"
)

// findProgressDoc locates the single tracking document identified by job,
// task, and optionally step. A task-level lookup requires that the stored
// document carry no step field at all, so task and step documents for the
// same task never shadow each other.
//
// Exactly one match is expected: zero matches surface as a missing-document
// error, more than one is a fatal integrity violation.
func findProgressDoc(ctx context.Context, backend storage.Backend, trackingIndex, jobID, taskID, stepname string) (storage.Result, error) {
	if jobID == "" || taskID == "" {
		return storage.Result{}, fatalf(nil, "progress document lookup requires both a job and a task identifier")
	}

	stub := fmt.Sprintf("Task: %s of Job: %s", taskID, jobID)
	q := storage.Query{
		Terms: map[string]any{
			"job":  jobID,
			"task": taskID,
		},
	}
	if stepname != "" {
		q.Terms["step"] = stepname
		stub = fmt.Sprintf("Step: %s of %s", stepname, stub)
	} else {
		q.NotExists = []string{"step"}
	}

	results, err := backend.Search(ctx, trackingIndex, q, 0)
	if err != nil {
		return storage.Result{}, err
	}
	switch len(results) {
	case 0:
		return storage.Result{}, fmt.Errorf("tracking document for %s does not exist: %w", stub, storage.ErrMissingDocument)
	case 1:
		return results[0], nil
	}
	return storage.Result{}, fatalf(nil, "tracking document for %s is not unique. This should never happen", stub)
}
