package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bookly-app/bookly/authz"
	"github.com/bookly-app/bookly/controllers"
	"github.com/bookly-app/bookly/middleware"
)

// SetupBusinessRoutes configures business and membership routes. The
// authorization requirements live here, declared once at startup.
func SetupBusinessRoutes(app *fiber.App) {
	business := app.Group("/businesses", middleware.Protected())

	business.Post("/", controllers.CreateBusiness)

	// Membership management
	business.Get("/:business_id/members",
		middleware.Guarded(authz.RequirePermission(authz.PermManageEmployees, authz.PermManageBusiness)),
		controllers.GetMembers)
	business.Post("/:business_id/members",
		middleware.Guarded(authz.RequirePermission(authz.PermManageEmployees)),
		controllers.AddMember)
	business.Patch("/:business_id/members/:member_id",
		middleware.Guarded(authz.RequirePermission(authz.PermManageEmployees, authz.PermManageBusiness).MatchAll()),
		controllers.UpdateMember)
	business.Delete("/:business_id/members/:member_id",
		middleware.Guarded(authz.RequireRole(authz.RoleOwner)),
		controllers.RemoveMember)
}
