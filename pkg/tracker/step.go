package tracker

import (
	"context"
	"fmt"

	"github.com/untergeek/es-checkpoint/pkg/storage"
)

// Step tracks a named phase within a task. Steps share the task's identity
// plus a step name, and persist their own tracking document.
type Step struct {
	taskOrStep

	task *Task
}

// NewStep builds a step named stepname under task, resolving any prior
// run's history for that exact step.
func NewStep(ctx context.Context, task *Task, stepname string) (*Step, error) {
	if stepname == "" {
		return nil, fatalf(nil, "step under %s requires a step name", task.Stub())
	}

	s := &Step{
		taskOrStep: taskOrStep{
			Trackable: newTrackable(task.backend, task.trackingIndex, "", task.DryRun(), task.log),
			job:       task.job,
			index:     task.index,
			taskID:    task.taskID,
			stepname:  stepname,
		},
		task: task,
	}
	s.stub = fmt.Sprintf("Step: %s of %s", stepname, task.Stub())
	s.extra = s.baseFields

	if err := s.getHistory(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns the step name.
func (s *Step) Name() string { return s.stepname }

// Task returns the parent task.
func (s *Step) Task() *Task { return s.task }

// SaveToTask records this step's outcome into the parent task's data
// payload so the task document carries a summary of its steps.
func (s *Step) SaveToTask() {
	steps, ok := s.task.Data["steps"].(map[string]any)
	if !ok {
		steps = map[string]any{}
		s.task.Data["steps"] = steps
	}
	steps[s.stepname] = storage.Document{
		"completed": s.completed,
		"errors":    s.errored,
		"end_time":  s.endTime,
	}
}
