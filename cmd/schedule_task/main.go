package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"institute_app_echo/internal/models"
	"institute_app_echo/internal/services"
	"institute_app_echo/internal/tasks"
)

func main() {
	taskName := flag.String("task_name", "", "Name of the task (mandatory)")
	argsStr := flag.String("arguments", "{}", "JSON arguments for the task")
	dueStr := flag.String("due", "", "Due date (mandatory, RFC3339 or '2006-01-02 15:04')")
	taskType := flag.String("tasktype", "onetime", "Task type: onetime or recurring")
	recurring := flag.String("recurring", "", "RRULE recurrence for recurring tasks")
	maxAttempt := flag.Int("max_attempt", 3, "Max attempts")
	flag.Parse()

	if *taskName == "" || *dueStr == "" {
		fmt.Println("Usage: schedule_task -task_name <name> -due <when> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

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

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(*argsStr), &args); err != nil {
		log.Fatalf("Invalid JSON arguments: %v", err)
	}

	due, err := time.Parse(time.RFC3339, *dueStr)
	if err != nil {
		due, err = time.ParseInLocation("2006-01-02 15:04", *dueStr, time.Local)
		if err != nil {
			log.Fatalf("Invalid due date, use RFC3339 or '2006-01-02 15:04': %v", err)
		}
	}

	var recurringPtr *string
	if *recurring != "" {
		recurringPtr = recurring
	}

	task, err := tasks.BuildScheduledTask(*taskName, args, due, recurringPtr, models.ScheduledTaskType(*taskType), *maxAttempt)
	if err != nil {
		log.Fatalf("Failed to build task: %v", err)
	}
	if err := db.Create(task).Error; err != nil {
		log.Fatalf("Failed to schedule task: %v", err)
	}

	log.Printf("Scheduled task %s (ID: %d) due %s", task.TaskName, task.ID, task.Due.Format(time.RFC3339))
}
