package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bookly-app/bookly/controllers"
)

// SetupAuthRoutes configures all auth related routes
func SetupAuthRoutes(app *fiber.App) {
	auth := app.Group("/auth")
	auth.Post("/register", controllers.Register)
	auth.Post("/login", controllers.Login)
}
