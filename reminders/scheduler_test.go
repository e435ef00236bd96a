package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bookly-app/bookly/models"
)

var testConfig = Config{
	LeadTime:     time.Hour,
	MisfireGrace: 5 * time.Minute,
	RetryBackoff: 2 * time.Minute,
	MaxAttempts:  3,
	CronSpec:     "* * * * *",
}

func newTestScheduler(entities EntityStore, notifier Notifier) (*Scheduler, *MemoryStore) {
	store := NewMemoryStore()
	return NewScheduler(store, NewExecutor(entities, notifier), testConfig), store
}

func confirmedAppointment(id uint, start time.Time) *fakeEntities {
	return &fakeEntities{appointments: map[uint]*Appointment{
		id: {ID: id, Status: models.StatusConfirmed, StartTime: start, CustomerEmail: "jo@example.com"},
	}}
}

func TestScheduleSupersedes(t *testing.T) {
	base := time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC)
	scheduler, store := newTestScheduler(confirmedAppointment(42, base.Add(time.Hour)), &fakeNotifier{})
	ctx := context.Background()

	if _, err := scheduler.Schedule(ctx, 42, base, FireImmediately); err != nil {
		t.Fatalf("first Schedule() error = %v", err)
	}
	if _, err := scheduler.Schedule(ctx, 42, base.Add(5*time.Minute), FireImmediately); err != nil {
		t.Fatalf("second Schedule() error = %v", err)
	}

	job, err := scheduler.Lookup(ctx, 42)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !job.FireAt.Equal(base.Add(5 * time.Minute)) {
		t.Errorf("fire time = %v, want the second call's %v", job.FireAt, base.Add(5*time.Minute))
	}

	due, err := store.Due(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Due() error = %v", err)
	}
	if len(due) != 1 {
		t.Errorf("%d active triggers for appointment 42, want exactly 1", len(due))
	}
}

func TestCancelMissingIsNoop(t *testing.T) {
	scheduler, _ := newTestScheduler(&fakeEntities{}, &fakeNotifier{})
	if err := scheduler.Cancel(context.Background(), 42); err != nil {
		t.Errorf("Cancel() without a trigger = %v, want nil", err)
	}
}

func TestLookupMissing(t *testing.T) {
	scheduler, _ := newTestScheduler(&fakeEntities{}, &fakeNotifier{})
	if _, err := scheduler.Lookup(context.Background(), 42); !errors.Is(err, ErrTriggerNotFound) {
		t.Errorf("Lookup() without a trigger = %v, want ErrTriggerNotFound", err)
	}
}

func TestDispatchFires(t *testing.T) {
	base := time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC)
	notifier := &fakeNotifier{}
	scheduler, _ := newTestScheduler(confirmedAppointment(42, base.Add(time.Hour)), notifier)
	ctx := context.Background()

	if _, err := scheduler.Schedule(ctx, 42, base, FireImmediately); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if err := scheduler.dispatchDue(ctx, base.Add(30*time.Second)); err != nil {
		t.Fatalf("dispatchDue() error = %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("notifier called %d times, want 1", len(notifier.calls))
	}
	if _, err := scheduler.Lookup(ctx, 42); !errors.Is(err, ErrTriggerNotFound) {
		t.Errorf("job still present after successful fire: %v", err)
	}

	// A later scan must not fire again.
	if err := scheduler.dispatchDue(ctx, base.Add(time.Minute)); err != nil {
		t.Fatalf("dispatchDue() error = %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Errorf("trigger fired twice")
	}
}

func TestCancelThenFire(t *testing.T) {
	base := time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC)
	notifier := &fakeNotifier{}
	scheduler, _ := newTestScheduler(confirmedAppointment(42, base.Add(time.Hour)), notifier)
	ctx := context.Background()

	if _, err := scheduler.Schedule(ctx, 42, base, FireImmediately); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if err := scheduler.Cancel(ctx, 42); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	if err := scheduler.dispatchDue(ctx, base.Add(time.Minute)); err != nil {
		t.Fatalf("dispatchDue() error = %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("executor ran after the trigger was canceled")
	}
}

func TestMisfireRecovery(t *testing.T) {
	// The fire time elapsed well past the grace period, as after a
	// crash; the recorded policy decides what recovery does.
	base := time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		policy    MisfirePolicy
		wantCalls int
	}{
		{"fire immediately", FireImmediately, 1},
		{"skip if missed", SkipIfMissed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			scheduler, _ := newTestScheduler(confirmedAppointment(42, base.Add(time.Hour)), notifier)
			ctx := context.Background()

			if _, err := scheduler.Schedule(ctx, 42, base, tt.policy); err != nil {
				t.Fatalf("Schedule() error = %v", err)
			}

			if err := scheduler.dispatchDue(ctx, base.Add(2*time.Hour)); err != nil {
				t.Fatalf("dispatchDue() error = %v", err)
			}
			if len(notifier.calls) != tt.wantCalls {
				t.Fatalf("notifier called %d times, want %d", len(notifier.calls), tt.wantCalls)
			}

			// Either way the trigger is settled, not left behind.
			if _, err := scheduler.Lookup(ctx, 42); !errors.Is(err, ErrTriggerNotFound) {
				t.Errorf("job still present after recovery: %v", err)
			}
			if err := scheduler.dispatchDue(ctx, base.Add(3*time.Hour)); err != nil {
				t.Fatalf("dispatchDue() error = %v", err)
			}
			if len(notifier.calls) != tt.wantCalls {
				t.Errorf("recovered trigger fired twice")
			}
		})
	}
}

func TestFailedExecutionReArmsThenDrops(t *testing.T) {
	base := time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC)
	notifier := &fakeNotifier{fail: errors.New("smtp down")}
	scheduler, store := newTestScheduler(confirmedAppointment(42, base.Add(time.Hour)), notifier)
	ctx := context.Background()

	if _, err := scheduler.Schedule(ctx, 42, base, FireImmediately); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	// First failure re-arms with backoff; the invariant of one active
	// trigger per appointment holds through the retry.
	if err := scheduler.dispatchDue(ctx, base); err != nil {
		t.Fatalf("dispatchDue() error = %v", err)
	}
	job, err := scheduler.Lookup(ctx, 42)
	if err != nil {
		t.Fatalf("Lookup() after first failure = %v", err)
	}
	if job.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", job.Attempts)
	}
	if !job.FireAt.Equal(base.Add(testConfig.RetryBackoff)) {
		t.Errorf("retry fire time = %v, want %v", job.FireAt, base.Add(testConfig.RetryBackoff))
	}
	due, _ := store.Due(ctx, base.Add(24*time.Hour))
	if len(due) != 1 {
		t.Fatalf("%d active triggers after a failed execution, want 1", len(due))
	}

	// Second failure re-arms again, third exhausts the budget.
	if err := scheduler.dispatchDue(ctx, job.FireAt); err != nil {
		t.Fatalf("dispatchDue() error = %v", err)
	}
	job, err = scheduler.Lookup(ctx, 42)
	if err != nil {
		t.Fatalf("Lookup() after second failure = %v", err)
	}
	if job.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", job.Attempts)
	}

	if err := scheduler.dispatchDue(ctx, job.FireAt); err != nil {
		t.Fatalf("dispatchDue() error = %v", err)
	}
	if _, err := scheduler.Lookup(ctx, 42); !errors.Is(err, ErrTriggerNotFound) {
		t.Errorf("job still present after the attempt budget was spent: %v", err)
	}
}

func TestDispatchSkipsSupersededTrigger(t *testing.T) {
	base := time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC)
	notifier := &fakeNotifier{}
	scheduler, store := newTestScheduler(confirmedAppointment(42, base.Add(time.Hour)), notifier)
	ctx := context.Background()

	if _, err := scheduler.Schedule(ctx, 42, base, FireImmediately); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	// Reschedule between the due scan and the claim: the stale claim
	// must lose and the fresh trigger must survive.
	stale, err := store.Due(ctx, base)
	if err != nil || len(stale) != 1 {
		t.Fatalf("Due() = %v, %v", stale, err)
	}
	if _, err := scheduler.Schedule(ctx, 42, base.Add(time.Hour), FireImmediately); err != nil {
		t.Fatalf("reschedule error = %v", err)
	}

	claimed, err := store.Take(ctx, stale[0].Key, stale[0].FireAt)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if claimed {
		t.Errorf("stale claim succeeded against a superseded trigger")
	}

	job, err := scheduler.Lookup(ctx, 42)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !job.FireAt.Equal(base.Add(time.Hour)) {
		t.Errorf("fresh trigger lost: fire time = %v", job.FireAt)
	}
}

func TestRescheduleDuringExecutionSurvivesSettle(t *testing.T) {
	base := time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC)
	notifier := &fakeNotifier{}
	scheduler, store := newTestScheduler(confirmedAppointment(42, base.Add(time.Hour)), notifier)
	ctx := context.Background()

	if _, err := scheduler.Schedule(ctx, 42, base, FireImmediately); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	// Reschedule while the notifier is running: the completed
	// execution must not settle away the fresh trigger.
	notifier.onNotify = func() {
		if _, err := scheduler.Schedule(ctx, 42, base.Add(time.Hour), FireImmediately); err != nil {
			t.Fatalf("reschedule during execution error = %v", err)
		}
	}

	if err := scheduler.dispatchDue(ctx, base); err != nil {
		t.Fatalf("dispatchDue() error = %v", err)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("notifier called %d times, want 1", len(notifier.calls))
	}

	job, err := scheduler.Lookup(ctx, 42)
	if err != nil {
		t.Fatalf("fresh trigger gone after the stale execution settled: %v", err)
	}
	if !job.FireAt.Equal(base.Add(time.Hour)) {
		t.Errorf("fire time = %v, want the rescheduled %v", job.FireAt, base.Add(time.Hour))
	}
	due, _ := store.Due(ctx, base.Add(24*time.Hour))
	if len(due) != 1 {
		t.Errorf("%d active triggers, want exactly 1", len(due))
	}
}

func TestRescheduleDuringFailedExecutionKeepsFreshTrigger(t *testing.T) {
	base := time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC)
	notifier := &fakeNotifier{fail: errors.New("smtp down")}
	scheduler, store := newTestScheduler(confirmedAppointment(42, base.Add(time.Hour)), notifier)
	ctx := context.Background()

	if _, err := scheduler.Schedule(ctx, 42, base, FireImmediately); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	notifier.onNotify = func() {
		if _, err := scheduler.Schedule(ctx, 42, base.Add(time.Hour), FireImmediately); err != nil {
			t.Fatalf("reschedule during execution error = %v", err)
		}
	}

	if err := scheduler.dispatchDue(ctx, base); err != nil {
		t.Fatalf("dispatchDue() error = %v", err)
	}

	// The stale retry must not overwrite the fresh fire time or carry
	// its attempt count over.
	job, err := scheduler.Lookup(ctx, 42)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !job.FireAt.Equal(base.Add(time.Hour)) {
		t.Errorf("fire time = %v, want the rescheduled %v", job.FireAt, base.Add(time.Hour))
	}
	if job.Attempts != 0 {
		t.Errorf("attempts = %d, want the fresh trigger's 0", job.Attempts)
	}
	due, _ := store.Due(ctx, base.Add(24*time.Hour))
	if len(due) != 1 {
		t.Errorf("%d active triggers, want exactly 1", len(due))
	}
}

func TestCancelDuringFailedExecutionStaysCanceled(t *testing.T) {
	base := time.Date(2026, 9, 1, 13, 0, 0, 0, time.UTC)
	notifier := &fakeNotifier{fail: errors.New("smtp down")}
	scheduler, _ := newTestScheduler(confirmedAppointment(42, base.Add(time.Hour)), notifier)
	ctx := context.Background()

	if _, err := scheduler.Schedule(ctx, 42, base, FireImmediately); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	notifier.onNotify = func() {
		if err := scheduler.Cancel(ctx, 42); err != nil {
			t.Fatalf("cancel during execution error = %v", err)
		}
	}

	if err := scheduler.dispatchDue(ctx, base); err != nil {
		t.Fatalf("dispatchDue() error = %v", err)
	}

	// The failed execution's retry must not resurrect the canceled job.
	if _, err := scheduler.Lookup(ctx, 42); !errors.Is(err, ErrTriggerNotFound) {
		t.Errorf("canceled trigger came back as a retry: %v", err)
	}
}
