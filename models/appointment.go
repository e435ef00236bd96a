package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCanceled  AppointmentStatus = "canceled"
	StatusCompleted AppointmentStatus = "completed"
)

type Appointment struct {
	gorm.Model
	Title       string            `json:"title"`
	Description string            `json:"description"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time"`
	Status      AppointmentStatus `json:"status"`
	BusinessID  uint              `json:"business_id"`
	Business    Business          `json:"business,omitempty" gorm:"foreignKey:BusinessID"`
	ServiceID   uint              `json:"service_id"`
	Service     Service           `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	StaffID     uint              `json:"staff_id"`
	Staff       User              `json:"staff,omitempty" gorm:"foreignKey:StaffID"`
	CustomerID  uint              `json:"customer_id"`
	Customer    User              `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}

// UpdateStatus enforces the appointment status state machine:
// pending -> confirmed | canceled, confirmed -> completed | canceled.
func (a *Appointment) UpdateStatus(tx *gorm.DB, newStatus AppointmentStatus) error {
	switch a.Status {
	case StatusPending:
		if newStatus != StatusConfirmed && newStatus != StatusCanceled {
			return fmt.Errorf("invalid transition from pending to %s", newStatus)
		}
	case StatusConfirmed:
		if newStatus != StatusCompleted && newStatus != StatusCanceled {
			return fmt.Errorf("invalid transition from confirmed to %s", newStatus)
		}
	case StatusCompleted, StatusCanceled:
		return fmt.Errorf("no transitions allowed from %s", a.Status)
	}

	a.Status = newStatus
	if err := tx.Save(a).Error; err != nil {
		return err
	}

	return nil
}
