package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"hospital-app-server/internal/booking"
	"hospital-app-server/internal/cache"
	"hospital-app-server/internal/clock"
	"hospital-app-server/internal/config"
	"hospital-app-server/internal/handlers"
	"hospital-app-server/internal/middleware"
	"hospital-app-server/internal/models"
	"hospital-app-server/internal/scheduling"
)

// Dependencies are the shared resources the routes are built on. Redis may
// be nil, which disables the slot cache. Clock defaults to the system clock.
type Dependencies struct {
	DB     *gorm.DB
	Config *config.Config
	Redis  *redis.Client
	Clock  clock.Clock
	Log    zerolog.Logger
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Dependencies) error {
	cfg := deps.Config
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	isolation, err := cfg.Isolation()
	if err != nil {
		return err
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.System{}
	}

	// Booking core
	store := scheduling.NewStore(deps.DB)
	ledger := booking.NewLedger(deps.DB, isolation)
	slotCache := cache.NewSlotCache(deps.Redis, cfg.SlotCacheTTL(), deps.Log)
	resolver := scheduling.NewResolver(store, ledger, slotCache, loc, deps.Log)
	validator := booking.NewValidator(store, ledger, booking.Options{
		Clock:          clk,
		Location:       loc,
		MaxAdvanceDays: cfg.Booking.MaxAdvanceDays,
	}, deps.Log)
	lifecycle := booking.NewLifecycle(ledger, func(ctx context.Context, appt *models.Appointment) {
		resolver.ForgetDay(ctx, appt.DoctorID, appt.Date)
	}, deps.Log)

	// Initialize handlers
	appointmentHandler := handlers.NewAppointmentHandler(validator, lifecycle, ledger, resolver, clk, loc, deps.Log)
	doctorHandler := handlers.NewDoctorHandler(store, resolver, lifecycle, ledger, clk, loc, deps.Log)
	userHandler := handlers.NewUserHandler(deps.DB, deps.Log)

	// Authenticated routes
	private := router.Group("")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("/book", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.BookAppointment)

			// Role scoped inside the ledger
			appointmentRoutes.GET("", appointmentHandler.ListAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointment)

			// Ownership and transition rules are enforced by the lifecycle
			appointmentRoutes.POST("/:id/cancel", appointmentHandler.CancelAppointment)
			appointmentRoutes.POST("/:id/status", appointmentHandler.UpdateAppointmentStatus)

			appointmentRoutes.GET("/doctor/schedule", middleware.RoleAuthMiddleware(models.RoleDoctor), appointmentHandler.DoctorSchedule)
		}

		doctorRoutes := private.Group("/doctors")
		{
			// Directory and availability are open to every signed-in user
			doctorRoutes.GET("", doctorHandler.ListDoctors)
			doctorRoutes.GET("/api/:doctor_id/available-slots", doctorHandler.AvailableSlots)

			doctorOnly := doctorRoutes.Group("")
			doctorOnly.Use(middleware.RoleAuthMiddleware(models.RoleDoctor))
			{
				doctorOnly.POST("/appointments/:id/approve", doctorHandler.ApproveAppointment)
				doctorOnly.POST("/appointments/:id/cancel", doctorHandler.CancelAppointment)
				doctorOnly.POST("/appointments/:id/complete", doctorHandler.CompleteAppointment)

				doctorOnly.GET("/schedule", doctorHandler.GetSchedule)
				doctorOnly.POST("/schedule", doctorHandler.UpsertWindow)
				doctorOnly.DELETE("/schedule/:id", doctorHandler.DeleteWindow)
				doctorOnly.POST("/schedule/time-off", doctorHandler.AddTimeOff)

				doctorOnly.GET("/patients", doctorHandler.ListPatients)
			}
		}

		// Account provisioning
		userRoutes := private.Group("/users")
		userRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			userRoutes.POST("", userHandler.CreateUser)
			userRoutes.GET("", userHandler.GetUsers)
			userRoutes.GET("/:id", userHandler.GetUserByID)
			userRoutes.POST("/:id/doctor-profile", userHandler.CreateDoctorProfile)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "UP", "database": "UP"}
		code := http.StatusOK
		if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["status"], status["database"] = "DOWN", "DOWN"
			code = http.StatusServiceUnavailable
		}
		if deps.Redis != nil {
			status["cache"] = "UP"
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				status["cache"] = "DOWN"
			}
		}
		c.JSON(code, status)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return nil
}
