package tracker

import (
	"context"
	"encoding/json"
	"fmt"
)

// Task tracks per-index work within a job. A task's identity is either
// supplied explicitly or derived as "<index>---<suffix>", keeping task IDs
// unique per index within the job.
type Task struct {
	taskOrStep

	// Data is a free-form payload for work-in-progress state, persisted
	// with every snapshot.
	Data map[string]any

	// IsILM marks indices whose lifecycle is managed externally.
	IsILM bool

	// FinalName is the index name after any rename or restore settles.
	FinalName string

	// Result holds the task's outcome payload, if any.
	Result any
}

// NewTask builds a task under job for the given index, resolving its
// identity and any prior run's history. One of idSuffix or taskID must be
// provided; taskID wins when both are set.
func NewTask(ctx context.Context, job *Job, index, idSuffix, taskID string) (*Task, error) {
	if idSuffix == "" && taskID == "" {
		return nil, fatalf(nil, "task for index %q requires either an id suffix or an explicit task id", index)
	}
	if taskID == "" {
		taskID = index + "---" + idSuffix
	}

	t := &Task{
		taskOrStep: taskOrStep{
			Trackable: newTrackable(job.backend, job.trackingIndex, "", job.DryRun(), job.log),
			job:       job,
			index:     index,
			taskID:    taskID,
		},
		Data:      map[string]any{},
		FinalName: index,
	}
	t.stub = fmt.Sprintf("Task: %s of Job: %s", taskID, job.Name())
	t.extra = t.extraFields

	if err := t.getHistory(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.taskID }

// Index returns the index this task operates on.
func (t *Task) Index() string { return t.index }

// Job returns the parent job.
func (t *Task) Job() *Job { return t.job }

func (t *Task) extraFields() map[string]any {
	fields := t.baseFields()
	fields["data"] = t.Data
	fields["is_ilm"] = t.IsILM
	fields["final_name"] = t.FinalName
	fields["result"] = t.Result
	return fields
}

// Dump records the task's current attributes into its log entries, useful
// when finalizing so the stored document carries a self-describing trail.
func (t *Task) Dump() {
	t.AddLog(fmt.Sprintf("index: %s", t.index))
	t.AddLog(fmt.Sprintf("task_id: %s", t.taskID))
	t.AddLog(fmt.Sprintf("final_name: %s", t.FinalName))
	if len(t.Data) > 0 {
		data, err := json.Marshal(t.Data)
		if err != nil {
			t.log.Warn("task data not serializable, skipping dump")
		} else {
			t.AddLog("data: " + string(data))
		}
	}
}
