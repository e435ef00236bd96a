package reminders

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Config tunes the scheduler. Every knob has an env override so the
// reminder lead time is configuration, not a constant in the code.
type Config struct {
	LeadTime     time.Duration // how long before the appointment the reminder fires
	MisfireGrace time.Duration // how late a trigger may run before it counts as misfired
	RetryBackoff time.Duration // delay before re-arming a failed execution
	MaxAttempts  int           // total execution attempts per trigger
	CronSpec     string        // dispatch tick driving the due scan
}

// LoadConfig reads scheduler settings from the environment, falling
// back to defaults for anything unset or unparsable.
func LoadConfig() Config {
	cfg := Config{
		LeadTime:     time.Hour,
		MisfireGrace: 5 * time.Minute,
		RetryBackoff: 2 * time.Minute,
		MaxAttempts:  3,
		CronSpec:     "* * * * *",
	}
	if v, err := time.ParseDuration(os.Getenv("REMINDER_LEAD_TIME")); err == nil && v > 0 {
		cfg.LeadTime = v
	}
	if v, err := time.ParseDuration(os.Getenv("REMINDER_MISFIRE_GRACE")); err == nil && v > 0 {
		cfg.MisfireGrace = v
	}
	if v, err := time.ParseDuration(os.Getenv("REMINDER_RETRY_BACKOFF")); err == nil && v > 0 {
		cfg.RetryBackoff = v
	}
	if v, err := strconv.Atoi(os.Getenv("REMINDER_MAX_ATTEMPTS")); err == nil && v > 0 {
		cfg.MaxAttempts = v
	}
	return cfg
}

// Scheduler owns the durable trigger lifecycle. Schedule and Cancel
// are quick synchronous calls against the store; firing happens on the
// cron-driven dispatch loop, independent of the caller's lifetime. The
// store is the single source of truth, so restart recovery is just the
// first due scan.
type Scheduler struct {
	store    TriggerStore
	executor *Executor
	cfg      Config
	cron     *cron.Cron
	now      func() time.Time
}

func NewScheduler(store TriggerStore, executor *Executor, cfg Config) *Scheduler {
	return &Scheduler{
		store:    store,
		executor: executor,
		cfg:      cfg,
		now:      time.Now,
	}
}

// LeadTime exposes the configured reminder lead time so callers can
// compute fire times from appointment start times.
func (s *Scheduler) LeadTime() time.Duration {
	return s.cfg.LeadTime
}

// Schedule installs (or supersedes) the reminder trigger for an
// appointment. The job key is deterministic from the appointment id,
// so calling twice leaves exactly one active trigger with the fire
// time of the second call.
func (s *Scheduler) Schedule(ctx context.Context, appointmentID uint, fireAt time.Time, misfire MisfirePolicy) (*JobHandle, error) {
	if misfire == "" {
		misfire = FireImmediately
	}

	job := &ReminderJob{
		Key:           JobKey(appointmentID),
		AppointmentID: appointmentID,
		FireAt:        fireAt,
		Misfire:       misfire,
		MaxAttempts:   s.cfg.MaxAttempts,
		CreatedAt:     s.now(),
	}
	if err := s.store.Put(ctx, job); err != nil {
		return nil, &SchedulingError{Op: "schedule", Err: err}
	}

	log.Info().
		Uint("appointment_id", appointmentID).
		Time("fire_at", fireAt).
		Str("misfire", string(misfire)).
		Msg("Scheduled reminder")

	return &JobHandle{ID: uuid.NewString(), Key: job.Key, FireAt: fireAt}, nil
}

// Cancel retracts the reminder for an appointment. Cancelling when no
// trigger exists is a no-op. A trigger already claimed by the dispatch
// loop is not recalled; cancel only prevents future fires.
func (s *Scheduler) Cancel(ctx context.Context, appointmentID uint) error {
	if err := s.store.Remove(ctx, JobKey(appointmentID)); err != nil {
		return &SchedulingError{Op: "cancel", Err: err}
	}
	return nil
}

// Lookup returns the stored job for an appointment, or
// ErrTriggerNotFound.
func (s *Scheduler) Lookup(ctx context.Context, appointmentID uint) (*ReminderJob, error) {
	return s.store.Get(ctx, JobKey(appointmentID))
}

// Start begins the dispatch loop and runs one immediate scan so
// triggers that came due while the process was down are recovered
// right away instead of waiting for the first tick.
func (s *Scheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.CronSpec, s.dispatchTick); err != nil {
		return err
	}
	s.cron.Start()
	go s.dispatchTick()
	log.Info().Str("spec", s.cfg.CronSpec).Msg("Reminder scheduler started")
	return nil
}

// Stop halts the dispatch loop and waits for in-flight executions.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Info().Msg("Reminder scheduler stopped")
}

func (s *Scheduler) dispatchTick() {
	if err := s.dispatchDue(context.Background(), s.now()); err != nil {
		log.Error().Err(err).Msg("Reminder dispatch scan failed")
	}
}

// dispatchDue scans the store for due triggers and executes the ones
// it can claim. Claims are conditional on the stored fire time, so a
// reschedule racing the scan keeps its fresh trigger.
func (s *Scheduler) dispatchDue(ctx context.Context, now time.Time) error {
	jobs, err := s.store.Due(ctx, now)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		claimed, err := s.store.Take(ctx, job.Key, job.FireAt)
		if err != nil {
			log.Error().Err(err).Str("key", job.Key).Msg("Failed to claim trigger")
			continue
		}
		if !claimed {
			// Canceled or superseded between scan and claim.
			continue
		}

		if now.Sub(job.FireAt) > s.cfg.MisfireGrace {
			if job.Misfire == SkipIfMissed {
				log.Warn().
					Uint("appointment_id", job.AppointmentID).
					Time("fire_at", job.FireAt).
					Msg("Skipping misfired reminder per policy")
				if err := s.store.Settle(ctx, job.Key); err != nil {
					log.Error().Err(err).Str("key", job.Key).Msg("Failed to settle skipped trigger")
				}
				continue
			}
			log.Warn().
				Uint("appointment_id", job.AppointmentID).
				Time("fire_at", job.FireAt).
				Msg("Firing misfired reminder immediately")
		}

		s.run(ctx, job, now)
	}
	return nil
}

// run executes one claimed trigger and settles its job afterwards:
// success removes it, failure re-arms it with backoff until the
// attempt budget is spent. Settling is conditional, like the claim: a
// reschedule or cancel that lands while the execution is in flight
// (the notifier may be slow) wins, and the stale outcome is dropped.
func (s *Scheduler) run(ctx context.Context, job *ReminderJob, now time.Time) {
	err := s.executor.Execute(ctx, job)
	if err == nil {
		if err := s.store.Settle(ctx, job.Key); err != nil {
			log.Error().Err(err).Str("key", job.Key).Msg("Failed to settle completed trigger")
		}
		return
	}

	job.Attempts++
	if job.Attempts >= job.MaxAttempts {
		log.Error().Err(err).
			Uint("appointment_id", job.AppointmentID).
			Int("attempts", job.Attempts).
			Msg("Reminder failed, attempt budget spent, dropping job")
		if settleErr := s.store.Settle(ctx, job.Key); settleErr != nil {
			log.Error().Err(settleErr).Str("key", job.Key).Msg("Failed to settle exhausted trigger")
		}
		return
	}

	job.FireAt = now.Add(s.cfg.RetryBackoff)
	rearmed, rearmErr := s.store.Rearm(ctx, job)
	if rearmErr != nil {
		log.Error().Err(rearmErr).Str("key", job.Key).Msg("Failed to re-arm failed trigger")
		return
	}
	if !rearmed {
		log.Info().
			Uint("appointment_id", job.AppointmentID).
			Msg("Trigger superseded or canceled during execution, dropping retry")
		return
	}
	log.Warn().Err(err).
		Uint("appointment_id", job.AppointmentID).
		Int("attempts", job.Attempts).
		Time("retry_at", job.FireAt).
		Msg("Reminder failed, re-armed with backoff")
}
