package reminders

import (
	"fmt"
	"time"
)

// MisfirePolicy decides what happens to a trigger whose fire time
// elapsed while the process was down or the dispatcher delayed.
type MisfirePolicy string

const (
	// FireImmediately runs a missed trigger as soon as it is seen.
	FireImmediately MisfirePolicy = "fire_immediately"
	// SkipIfMissed drops a missed trigger without running it.
	SkipIfMissed MisfirePolicy = "skip_if_missed"
)

// ReminderJob is the durable job+trigger pair for one appointment.
// The key is deterministic from the appointment id, so there is at
// most one job per appointment and rescheduling supersedes in place.
type ReminderJob struct {
	Key           string        `json:"key"`
	AppointmentID uint          `json:"appointment_id"`
	FireAt        time.Time     `json:"fire_at"`
	Misfire       MisfirePolicy `json:"misfire"`
	Attempts      int           `json:"attempts"`
	MaxAttempts   int           `json:"max_attempts"`
	CreatedAt     time.Time     `json:"created_at"`
}

// JobKey derives the deterministic store key for an appointment.
func JobKey(appointmentID uint) string {
	return fmt.Sprintf("reminder:appointment:%d", appointmentID)
}

// JobHandle is returned to schedule callers for logging and lookup.
type JobHandle struct {
	ID     string    `json:"id"`
	Key    string    `json:"key"`
	FireAt time.Time `json:"fire_at"`
}
