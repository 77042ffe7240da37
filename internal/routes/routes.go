package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/otoservice/workshop-scheduler/internal/audit"
	"github.com/otoservice/workshop-scheduler/internal/cache"
	"github.com/otoservice/workshop-scheduler/internal/config"
	"github.com/otoservice/workshop-scheduler/internal/domain/schedule"
	"github.com/otoservice/workshop-scheduler/internal/handlers"
	infraRepo "github.com/otoservice/workshop-scheduler/internal/infra/repository"
	"github.com/otoservice/workshop-scheduler/internal/middleware"
	"github.com/otoservice/workshop-scheduler/internal/models"
	"github.com/otoservice/workshop-scheduler/internal/usecase/booking"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, log *logrus.Logger) error {

	r.Use(middleware.CORSMiddleware())

	handlers.SetWorkshopTimezone(cfg.Timezone)

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	directoryCache := cache.New(cfg.RedisURL, 5*time.Minute, log)
	repo := infraRepo.NewWorkshopGormRepository(db, directoryCache)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger, log)

	calendar := schedule.NewCalendar()
	engine := booking.NewEngine(repo, repo, calendar, auditDispatcher, log)
	if err := engine.Restore(context.Background()); err != nil {
		return err
	}

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	bookingHandler := handlers.NewBookingHandler(engine)
	serviceHandler := handlers.NewServiceHandler(db, repo)
	vehicleHandler := handlers.NewVehicleHandler(db)
	mechanicHandler := handlers.NewMechanicHandler(db, repo)
	workingHoursHandler := handlers.NewWorkingHoursHandler(db, repo)
	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/services", serviceHandler.List)

			// ------------------------------
			// CUSTOMER
			// ------------------------------
			customer := secured.Group("/")
			customer.Use(middleware.RequireRole(models.RoleCustomer, models.RoleAdmin))
			{
				customer.POST("/bookings", bookingHandler.Create)
				customer.GET("/bookings", bookingHandler.MyOrders)

				customer.GET("/vehicles", vehicleHandler.List)
				customer.POST("/vehicles", vehicleHandler.Create)
			}

			// ------------------------------
			// WORK ORDERS
			// ------------------------------
			staff := secured.Group("/")
			staff.Use(middleware.RequireRole(models.RoleMechanic, models.RoleAdmin))
			{
				staff.PATCH("/work-orders/:id/status", bookingHandler.AdvanceStatus)
			}

			secured.PATCH("/work-orders/:id/cancel", bookingHandler.Cancel)

			secured.GET("/mechanics/:id/schedule", bookingHandler.MechanicSchedule)
			secured.GET("/mechanics/:id/slots", bookingHandler.MechanicSlots)

			// ------------------------------
			// MECHANIC SELF-SERVICE
			// ------------------------------
			mechanic := secured.Group("/me")
			mechanic.Use(middleware.RequireRole(models.RoleMechanic))
			{
				mechanic.GET("/working-hours", workingHoursHandler.Get)
				mechanic.PUT("/working-hours", workingHoursHandler.Update)
				mechanic.PUT("/skills", mechanicHandler.UpdateSkills)
			}

			// ------------------------------
			// ADMIN
			// ------------------------------
			admin := secured.Group("/")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.POST("/services", serviceHandler.Create)
				admin.PATCH("/services/:id", serviceHandler.Update)

				admin.GET("/mechanics", mechanicHandler.List)
				admin.PATCH("/mechanics/:id/approve", mechanicHandler.Approve)

				admin.PATCH("/work-orders/:id/reassign", bookingHandler.Reassign)

				admin.GET("/audit-logs", auditLogsHandler.List)
			}
		}
	}

	return nil
}
