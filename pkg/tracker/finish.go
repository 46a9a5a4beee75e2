package tracker

import (
	"context"
)

// Tracker is the finalization surface shared by Job, Task, and Step.
type Tracker interface {
	End(ctx context.Context, completed, errored bool, logmsg string) error
	Successful() bool
	MarkFailed()
	Meta() TrackerMeta
}

// Finish closes out a tracker's run, recording success or failure based on
// the tracker's own state. Tasks dump their attributes first and steps fold
// their outcome into the parent task, so the final snapshot is complete.
// An empty msg selects a default closing log line.
func Finish(ctx context.Context, tr Tracker, msg string) error {
	logmsg := "DONE"
	if !tr.Successful() {
		logmsg = "Check application logs for detailed report"
	}
	if msg != "" {
		logmsg = msg
	}

	switch v := tr.(type) {
	case *Task:
		v.Dump()
	case *Step:
		v.SaveToTask()
	}

	if err := tr.End(ctx, tr.Successful(), !tr.Successful(), logmsg); err != nil {
		return &TrackerError{
			Message: "unable to finalize tracker",
			Kind:    kindOf(tr),
			Meta:    tr.Meta(),
			Err:     err,
		}
	}
	return nil
}

// Fail marks a tracker's run as failed, finalizes it, and returns a
// TrackerError wrapping the original cause. Fatal causes pass through
// untouched so they keep halting execution.
func Fail(ctx context.Context, tr Tracker, cause error) error {
	tr.MarkFailed()
	if err := Finish(ctx, tr, ""); err != nil {
		return err
	}
	if IsFatal(cause) {
		return cause
	}
	return &TrackerError{
		Message: "tracker run failed",
		Kind:    kindOf(tr),
		Meta:    tr.Meta(),
		Err:     cause,
	}
}

func kindOf(tr Tracker) string {
	switch tr.(type) {
	case *Job:
		return "job"
	case *Task:
		return "task"
	case *Step:
		return "step"
	}
	return "tracker"
}
