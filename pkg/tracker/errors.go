package tracker

import (
	"errors"
	"fmt"
)

// TrackerMeta is the identity snapshot attached to tracker-level errors so
// a fatal condition can be traced to the exact run.
type TrackerMeta struct {
	DryRun        bool
	Stub          string
	TrackingIndex string
	DocID         string
	StartTime     string
}

func (m TrackerMeta) String() string {
	return fmt.Sprintf("tracker=%q index=%q doc_id=%q start_time=%q dry_run=%t",
		m.Stub, m.TrackingIndex, m.DocID, m.StartTime, m.DryRun)
}

// FatalError halts execution: an invariant was violated (duplicate tracking
// documents) or required identity inputs were missing or contradictory.
// Never retried, never absorbed.
type FatalError struct {
	Message string
	Err     error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error chain contains a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

func fatalf(err error, format string, args ...any) error {
	return &FatalError{Message: fmt.Sprintf(format, args...), Err: err}
}

// TrackerError reports an unexpected failure mid-lifecycle on a specific
// tracker. The run is marked failed before this error propagates.
type TrackerError struct {
	Message string

	// Kind is the tracker level: "job", "task", or "step".
	Kind string

	Meta TrackerMeta
	Err  error
}

func (e *TrackerError) Error() string {
	msg := fmt.Sprintf("%s (%s %s)", e.Message, e.Kind, e.Meta)
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *TrackerError) Unwrap() error {
	return e.Err
}
