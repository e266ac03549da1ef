package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"institute_app_echo/internal/models"
	"institute_app_echo/internal/services"
	"institute_app_echo/internal/tasks"
)

const tickInterval = 1 * time.Minute

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

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err := services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Redis unavailable, task locks disabled: %v", err)
		} else {
			tasks.SetCache(cache)
			defer cache.Close()
		}
	}

	tasks.DefineTasks()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down worker...")
		cancel()
	}()

	log.Println("Worker started")

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	// run once on start so a freshly seeded task does not wait a full tick
	processScheduledTasks(ctx, db)

	for {
		select {
		case <-ticker.C:
			processScheduledTasks(ctx, db)
		case <-ctx.Done():
			return
		}
	}
}

func processScheduledTasks(ctx context.Context, db *gorm.DB) {
	var pendingTasks []models.ScheduledTask
	now := time.Now()
	if err := db.Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, now).Find(&pendingTasks).Error; err != nil {
		log.Printf("Error fetching pending tasks: %v", err)
		return
	}
	if len(pendingTasks) == 0 {
		return
	}

	log.Printf("Found %d pending tasks", len(pendingTasks))
	for _, task := range pendingTasks {
		if ctx.Err() != nil {
			return
		}
		executeTask(ctx, db, task)
	}
}

func executeTask(ctx context.Context, db *gorm.DB, task models.ScheduledTask) {
	log.Printf("Processing task: %s (ID: %d)", task.TaskName, task.ID)

	handler, found := tasks.GetHandler(task.TaskName)
	if !found {
		log.Printf("Task handler not found for: %s, marking as failure", task.TaskName)
		now := time.Now()
		db.Model(&task).Updates(map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &now,
		})
		db.Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           now,
			Status:          "handler_not_found",
			AttemptNumber:   1,
			Arguments:       task.Arguments,
			Result:          map[string]interface{}{"error": "Handler not found"},
		})
		return
	}

	maxAttempt := task.MaxAttempt
	if maxAttempt < 1 {
		maxAttempt = 1
	}

	var startTime time.Time
	succeeded := false
	for attempt := 1; attempt <= maxAttempt; attempt++ {
		if ctx.Err() != nil {
			return
		}

		startTime = time.Now()
		result, err := handler(ctx, db, task)
		runtimeMS := int(time.Since(startTime).Milliseconds())

		status := "success"
		if err != nil {
			status = "failure"
			result = map[string]interface{}{"error": err.Error()}
			log.Printf("Task %s attempt %d/%d failed: %v", task.TaskName, attempt, maxAttempt, err)
		} else {
			log.Printf("Task %s completed", task.TaskName)
		}

		db.Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           startTime,
			RuntimeMS:       runtimeMS,
			Status:          status,
			AttemptNumber:   attempt,
			Arguments:       task.Arguments,
			Result:          result,
		})

		if err == nil {
			succeeded = true
			break
		}
	}

	taskUpdates := map[string]interface{}{"last_run": &startTime}
	if !succeeded {
		taskUpdates["status"] = models.ScheduledTaskStatusFailure
	} else {
		switch task.TaskType {
		case models.ScheduledTaskTypeOneTime:
			taskUpdates["status"] = models.ScheduledTaskStatusDone
		case models.ScheduledTaskTypeRecurring:
			nextDue := task.NextDue()
			// a stale rrule can return a non-advancing due date; park the
			// task instead of rerunning it every tick
			if nextDue.After(task.Due) {
				taskUpdates["status"] = models.ScheduledTaskStatusActive
				taskUpdates["due"] = nextDue
			} else {
				taskUpdates["status"] = models.ScheduledTaskStatusDone
			}
		}
	}
	db.Model(&task).Updates(taskUpdates)
}
