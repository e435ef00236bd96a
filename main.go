package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bookly-app/bookly/authz"
	"github.com/bookly-app/bookly/controllers"
	"github.com/bookly-app/bookly/db"
	"github.com/bookly-app/bookly/middleware"
	"github.com/bookly-app/bookly/redis"
	"github.com/bookly-app/bookly/reminders"
	"github.com/bookly-app/bookly/routes"
)

func initLogger() {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("LOG_FORMAT") == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

func main() {
	initLogger()

	if os.Getenv("RUN_MIGRATIONS") == "true" {
		db.Migrate()
	} else {
		db.Init()
	}
	redis.InitRedis()

	// Reminder pipeline: durable triggers in Redis, executed against
	// live appointment state, delivered over SMTP.
	scheduler := reminders.NewScheduler(
		reminders.NewRedisStore(redis.Client),
		reminders.NewExecutor(reminders.NewGormEntityStore(), reminders.NewEmailNotifier()),
		reminders.LoadConfig(),
	)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start reminder scheduler")
	}
	controllers.Reminders = scheduler

	// Authorization guard backed by the memberships table, shared by
	// every Guarded route.
	middleware.SetGuard(authz.NewGuard(authz.NewGormMemberships()))

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Hello, World!")
	})
	routes.SetupAuthRoutes(app)
	routes.SetupBusinessRoutes(app)
	routes.SetupAppointmentRoutes(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down...")
		scheduler.Stop()
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	if err := app.Listen(":8000"); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server stopped")
}
