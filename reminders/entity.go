package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bookly-app/bookly/db"
	"github.com/bookly-app/bookly/models"
)

// Appointment is the executor's snapshot of current appointment state,
// read fresh at fire time. Nothing captured at schedule time is
// trusted; the booking may have moved or been canceled since.
type Appointment struct {
	ID            uint
	Status        models.AppointmentStatus
	StartTime     time.Time
	CustomerEmail string
}

// EntityStore re-reads appointment state for the executor. A nil
// appointment with a nil error means the record is gone.
type EntityStore interface {
	FindAppointment(ctx context.Context, id uint) (*Appointment, error)
}

// GormEntityStore loads appointments through the shared gorm handle.
type GormEntityStore struct{}

func NewGormEntityStore() *GormEntityStore {
	return &GormEntityStore{}
}

func (s *GormEntityStore) FindAppointment(ctx context.Context, id uint) (*Appointment, error) {
	var record models.Appointment
	err := db.DB.WithContext(ctx).Preload("Customer").First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load appointment %d: %w", id, err)
	}

	return &Appointment{
		ID:            record.ID,
		Status:        record.Status,
		StartTime:     record.StartTime,
		CustomerEmail: record.Customer.Email,
	}, nil
}
