package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/bookly-app/bookly/db"
	"github.com/bookly-app/bookly/models"
	"github.com/bookly-app/bookly/reminders"
	"github.com/bookly-app/bookly/utils"
)

// Reminders is the shared scheduler instance, wired in main before the
// routes are registered.
var Reminders *reminders.Scheduler

// CreateAppointment books a new appointment inside a business
func CreateAppointment(c *fiber.Ctx) error {
	var appointment models.Appointment
	if err := c.BodyParser(&appointment); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	businessID, err := c.ParamsInt("business_id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid business id",
		})
	}
	appointment.BusinessID = uint(businessID)

	if appointment.StartTime.IsZero() || appointment.EndTime.IsZero() ||
		!appointment.EndTime.After(appointment.StartTime) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid appointment time range",
		})
	}

	if err := db.DB.Create(&appointment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to create appointment",
			Error:   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(appointment)
}

// ConfirmAppointment confirms a pending appointment and schedules its
// reminder at the configured lead time before start
func ConfirmAppointment(c *fiber.Ctx) error {
	appointment, ok := loadAppointment(c)
	if !ok {
		return nil
	}

	if err := appointment.UpdateStatus(db.DB, models.StatusConfirmed); err != nil {
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "Cannot confirm appointment",
			Error:   err.Error(),
		})
	}

	fireAt := appointment.StartTime.Add(-Reminders.LeadTime())
	if _, err := Reminders.Schedule(c.Context(), appointment.ID, fireAt, reminders.FireImmediately); err != nil {
		// The booking is confirmed either way; surface the scheduling
		// failure so the client can retry the reminder.
		log.Error().Err(err).Uint("appointment_id", appointment.ID).
			Msg("Failed to schedule reminder")
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Appointment confirmed but reminder scheduling failed",
			Error:   err.Error(),
		})
	}

	return c.JSON(appointment)
}

// RescheduleAppointment moves an appointment to a new time slot. A
// confirmed appointment gets its reminder superseded, never duplicated
func RescheduleAppointment(c *fiber.Ctx) error {
	type RescheduleInput struct {
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
	}

	input := new(RescheduleInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.StartTime.IsZero() || input.EndTime.IsZero() ||
		!input.EndTime.After(input.StartTime) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid appointment time range",
		})
	}

	appointment, ok := loadAppointment(c)
	if !ok {
		return nil
	}

	if appointment.Status == models.StatusCanceled || appointment.Status == models.StatusCompleted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Cannot reschedule a " + string(appointment.Status) + " appointment",
		})
	}

	appointment.StartTime = input.StartTime
	appointment.EndTime = input.EndTime
	if err := db.DB.Save(appointment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to reschedule appointment",
			Error:   err.Error(),
		})
	}

	if appointment.Status == models.StatusConfirmed {
		fireAt := appointment.StartTime.Add(-Reminders.LeadTime())
		if _, err := Reminders.Schedule(c.Context(), appointment.ID, fireAt, reminders.FireImmediately); err != nil {
			log.Error().Err(err).Uint("appointment_id", appointment.ID).
				Msg("Failed to reschedule reminder")
			return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
				Message: "Appointment moved but reminder scheduling failed",
				Error:   err.Error(),
			})
		}
	}

	return c.JSON(appointment)
}

// CancelAppointment cancels an appointment and retracts its reminder
func CancelAppointment(c *fiber.Ctx) error {
	appointment, ok := loadAppointment(c)
	if !ok {
		return nil
	}

	if err := appointment.UpdateStatus(db.DB, models.StatusCanceled); err != nil {
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "Cannot cancel appointment",
			Error:   err.Error(),
		})
	}

	// Cancel is a durable no-op when no trigger exists
	if err := Reminders.Cancel(c.Context(), appointment.ID); err != nil {
		log.Error().Err(err).Uint("appointment_id", appointment.ID).
			Msg("Failed to cancel reminder")
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Appointment canceled but reminder cancellation failed",
			Error:   err.Error(),
		})
	}

	return c.JSON(appointment)
}

// GetSchedule returns a business's appointments, optionally for one day
func GetSchedule(c *fiber.Ctx) error {
	query := db.DB.Preload("Service").Preload("Staff").Preload("Customer").
		Where("business_id = ?", c.Params("business_id"))

	if day := c.Query("date"); day != "" {
		parsed, err := time.Parse("2006-01-02", day)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid date, expected YYYY-MM-DD",
			})
		}
		query = query.Where("start_time >= ? AND start_time < ?", parsed, parsed.AddDate(0, 0, 1))
	}

	var appointments []models.Appointment
	if err := query.Order("start_time ASC").Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch schedule",
			Error:   err.Error(),
		})
	}

	return c.JSON(appointments)
}

// GetMemberSchedule returns the appointments assigned to one member,
// addressed by membership id (the business is resolved from it)
func GetMemberSchedule(c *fiber.Ctx) error {
	var membership models.Membership
	if err := db.DB.First(&membership, c.Params("membership_id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Membership not found",
		})
	}

	var appointments []models.Appointment
	if err := db.DB.Preload("Service").Preload("Customer").
		Where("business_id = ? AND staff_id = ?", membership.BusinessID, membership.UserID).
		Order("start_time ASC").
		Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch schedule",
			Error:   err.Error(),
		})
	}

	return c.JSON(appointments)
}

// loadAppointment fetches the appointment scoped to the business in
// the route; it writes the error response itself when not found.
func loadAppointment(c *fiber.Ctx) (*models.Appointment, bool) {
	var appointment models.Appointment
	if err := db.DB.
		Where("id = ? AND business_id = ?", c.Params("id"), c.Params("business_id")).
		First(&appointment).Error; err != nil {
		c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Appointment not found",
			Error:   err.Error(),
		})
		return nil, false
	}
	return &appointment, true
}
