package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"institute_app_echo/internal/models"
	"institute_app_echo/internal/services"
)

// Cache is the optional shared redis handle for task-level locks. Set once
// at process start; tasks run without locking when it is nil.
var Cache *services.RedisCache

// SetCache wires the redis cache used for run locks
func SetCache(cache *services.RedisCache) {
	Cache = cache
}

// BuildScheduledTask is a helper to build ScheduledTask records generically
func BuildScheduledTask(taskName string, args interface{}, due time.Time, recurringInterval *string, taskType models.ScheduledTaskType, maxAttempt int) (*models.ScheduledTask, error) {
	argsBytes, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var mapArgs map[string]interface{}
	if err := json.Unmarshal(argsBytes, &mapArgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into map: %w", err)
	}

	return &models.ScheduledTask{
		TaskName:          taskName,
		Arguments:         mapArgs,
		Due:               due,
		RecurringInterval: recurringInterval,
		Status:            models.ScheduledTaskStatusActive,
		TaskType:          taskType,
		MaxAttempt:        maxAttempt,
	}, nil
}
