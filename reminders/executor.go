package reminders

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/bookly-app/bookly/models"
)

// Executor runs a fired trigger: it re-reads the appointment, decides
// whether a reminder still makes sense, and hands the notification to
// the Notifier. It never retries on its own; a returned error tells
// the scheduler loop to apply its retry policy.
type Executor struct {
	entities EntityStore
	notifier Notifier
}

func NewExecutor(entities EntityStore, notifier Notifier) *Executor {
	return &Executor{entities: entities, notifier: notifier}
}

// Execute handles one trigger fire. Absent and canceled appointments
// are normal completions, not failures; deletion races with booking
// traffic are expected.
func (e *Executor) Execute(ctx context.Context, job *ReminderJob) error {
	appointment, err := e.entities.FindAppointment(ctx, job.AppointmentID)
	if err != nil {
		return fmt.Errorf("failed to re-read appointment state: %w", err)
	}
	if appointment == nil {
		log.Info().
			Uint("appointment_id", job.AppointmentID).
			Msg("Appointment gone, dropping reminder")
		return nil
	}

	if appointment.Status == models.StatusCanceled {
		log.Info().
			Uint("appointment_id", job.AppointmentID).
			Msg("Appointment canceled, skipping reminder")
		return nil
	}

	if err := e.notifier.Notify(ctx, appointment.CustomerEmail, appointment.StartTime); err != nil {
		return fmt.Errorf("failed to notify %s for appointment %d: %w",
			appointment.CustomerEmail, job.AppointmentID, err)
	}

	log.Info().
		Uint("appointment_id", job.AppointmentID).
		Str("target", appointment.CustomerEmail).
		Msg("Sent appointment reminder")
	return nil
}
