package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTriggerNotFound is returned by Get for an unknown key. Cancel of
// a missing trigger is a no-op, not an error.
var ErrTriggerNotFound = errors.New("reminders: trigger not found")

// SchedulingError wraps a store failure on the synchronous schedule or
// cancel path so callers can decide whether to retry.
type SchedulingError struct {
	Op  string
	Err error
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("reminders: %s failed: %v", e.Op, e.Err)
}

func (e *SchedulingError) Unwrap() error { return e.Err }

// TriggerStore is the durable source of truth for reminder jobs. The
// scheduler keeps no authoritative in-memory state, so recovery after
// a restart is just another Due scan.
type TriggerStore interface {
	// Put atomically creates or replaces the job for its key,
	// retracting any previous trigger in the same commit.
	Put(ctx context.Context, job *ReminderJob) error

	// Remove deletes the job and its trigger. Removing a missing key
	// is not an error.
	Remove(ctx context.Context, key string) error

	// Get returns the stored job, or ErrTriggerNotFound.
	Get(ctx context.Context, key string) (*ReminderJob, error)

	// Due returns jobs whose fire time is at or before now.
	Due(ctx context.Context, now time.Time) ([]*ReminderJob, error)

	// Take claims a due trigger for execution. The claim succeeds only
	// if the stored fire time still matches, so a concurrent
	// reschedule keeps its fresh trigger.
	Take(ctx context.Context, key string, fireAt time.Time) (bool, error)

	// Settle deletes the job document once a claimed execution has
	// finished. If a fresh trigger was installed while the execution
	// was in flight, the fresh job survives untouched.
	Settle(ctx context.Context, key string) error

	// Rearm re-installs a claimed job with an updated fire time for a
	// retry. It reports false without writing when the job was
	// canceled or superseded while the execution was in flight.
	Rearm(ctx context.Context, job *ReminderJob) (bool, error)
}
