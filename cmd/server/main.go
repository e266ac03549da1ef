package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"institute_app_echo/internal/handlers"
	"institute_app_echo/internal/middleware"
	"institute_app_echo/internal/models"
	"institute_app_echo/internal/services"
	"institute_app_echo/internal/tasks"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Redis unavailable, caching disabled: %v", err)
			cache = nil
		} else {
			tasks.SetCache(cache)
			defer cache.Close()
		}
	}

	if err := tasks.FeeReminderTask.EnsureScheduled(db); err != nil {
		log.Printf("Failed to seed reminder schedule: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.CustomErrorHandler
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())

	registerRoutes(e, db, cache)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Fatal(e.Start(":" + port))
}

func registerRoutes(e *echo.Echo, db *gorm.DB, cache *services.RedisCache) {
	authHandler := handlers.NewAuthHandler(db)
	studentHandler := handlers.NewStudentHandler(db)
	batchHandler := handlers.NewBatchHandler(db)
	feeHandler := handlers.NewFeeHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db, cache)

	api := e.Group("/api/v1")

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("", middleware.RequireAuth(db))
	staff := middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleTeacher)
	adminOnly := middleware.RequireRoles(models.UserRoleAdmin)

	authed.POST("/auth/register", authHandler.Register, adminOnly)
	authed.GET("/auth/me", authHandler.Me)

	authed.POST("/students", studentHandler.CreateStudent, staff)
	authed.GET("/students", studentHandler.ListStudents, staff)
	authed.GET("/students/:id", studentHandler.GetStudent, staff)
	authed.PATCH("/students/:id", studentHandler.UpdateStudent, staff)
	authed.DELETE("/students/:id", studentHandler.DeleteStudent, adminOnly)

	authed.POST("/batches", batchHandler.CreateBatch, staff)
	authed.GET("/batches", batchHandler.ListBatches, staff)
	authed.GET("/batches/:id", batchHandler.GetBatch, staff)
	authed.PATCH("/batches/:id", batchHandler.UpdateBatch, staff)
	authed.DELETE("/batches/:id", batchHandler.DeleteBatch, adminOnly)
	authed.POST("/batches/:id/students/:student_id", batchHandler.AssignStudent, staff)
	authed.DELETE("/batches/:id/students/:student_id", batchHandler.UnassignStudent, staff)

	authed.POST("/fees/accounts", feeHandler.CreateFeeAccount, staff)
	authed.GET("/fees/accounts", feeHandler.ListFeeAccounts)
	authed.POST("/fees/payments", feeHandler.CreatePayment, staff)
	authed.GET("/fees/payments", feeHandler.ListPayments)
	authed.GET("/fees/dues", feeHandler.ListDues)

	authed.GET("/notifications", notificationHandler.ListNotifications)
	authed.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
	authed.GET("/notifications/:id/whatsapp-template", notificationHandler.WhatsappTemplate, staff)
	authed.POST("/notifications/announcements", notificationHandler.CreateAnnouncement, staff)
	authed.POST("/notifications/run-reminders", notificationHandler.RunReminders, staff)

	authed.POST("/notifications/reminder-rules", notificationHandler.CreateReminderRule, adminOnly)
	authed.GET("/notifications/reminder-rules", notificationHandler.ListReminderRules, staff)
	authed.PATCH("/notifications/reminder-rules/:id", notificationHandler.UpdateReminderRule, adminOnly)
	authed.DELETE("/notifications/reminder-rules/:id", notificationHandler.DeleteReminderRule, adminOnly)

	authed.GET("/dashboard/admin", dashboardHandler.AdminDashboard, staff)
	authed.GET("/dashboard/student", dashboardHandler.StudentDashboard, middleware.RequireRoles(models.UserRoleStudent))
}
