package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bookly-app/bookly/authz"
	"github.com/bookly-app/bookly/controllers"
	"github.com/bookly-app/bookly/middleware"
)

// SetupAppointmentRoutes configures all appointment related routes
func SetupAppointmentRoutes(app *fiber.App) {
	appointment := app.Group("/businesses/:business_id/appointments", middleware.Protected())

	appointment.Get("/",
		middleware.Guarded(authz.RequirePermission(authz.PermViewSchedule)),
		controllers.GetSchedule)
	appointment.Post("/",
		middleware.Guarded(authz.RequirePermission(authz.PermEditBookings)),
		controllers.CreateAppointment)
	appointment.Post("/:id/confirm",
		middleware.Guarded(authz.RequirePermission(authz.PermEditBookings)),
		controllers.ConfirmAppointment)
	appointment.Patch("/:id/reschedule",
		middleware.Guarded(authz.RequirePermission(authz.PermEditBookings)),
		controllers.RescheduleAppointment)
	appointment.Delete("/:id",
		middleware.Guarded(authz.RequirePermission(authz.PermEditBookings)),
		controllers.CancelAppointment)

	// A member's own schedule, addressed by membership id; the guard
	// resolves the business through the membership reference.
	app.Get("/schedule/memberships/:membership_id",
		middleware.Protected(),
		middleware.Guarded(authz.RequirePermission(authz.PermViewSchedule).
			TenantParam("membership_id").ViaMembership()),
		controllers.GetMemberSchedule)
}
