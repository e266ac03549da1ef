package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"institute_app_echo/internal/middleware"
	"institute_app_echo/internal/models"
	"institute_app_echo/internal/tasks"
)

type NotificationHandler struct {
	db *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{db: db}
}

type announcementCreateRequest struct {
	Message   string `json:"message" validate:"required"`
	StudentID *uint  `json:"student_id"`
	BatchID   *uint  `json:"batch_id"`
}

type reminderRuleCreateRequest struct {
	Name               string `json:"name" validate:"required"`
	BatchID            *uint  `json:"batch_id"`
	DaysBefore         int    `json:"days_before" validate:"gte=0"`
	OnDueDate          *bool  `json:"on_due_date"`
	EveryNDaysAfterDue int    `json:"every_n_days_after_due" validate:"gte=0"`
	IsActive           *bool  `json:"is_active"`
}

type reminderRulePatch struct {
	Name               *string `json:"name"`
	DaysBefore         *int    `json:"days_before"`
	OnDueDate          *bool   `json:"on_due_date"`
	EveryNDaysAfterDue *int    `json:"every_n_days_after_due"`
	IsActive           *bool   `json:"is_active"`
}

func (p *reminderRulePatch) apply(rule *models.ReminderRule) error {
	if p.Name != nil {
		rule.Name = *p.Name
	}
	if p.DaysBefore != nil {
		if *p.DaysBefore < 0 {
			return errors.New("days_before must not be negative")
		}
		rule.DaysBefore = *p.DaysBefore
	}
	if p.OnDueDate != nil {
		rule.OnDueDate = *p.OnDueDate
	}
	if p.EveryNDaysAfterDue != nil {
		if *p.EveryNDaysAfterDue < 0 {
			return errors.New("every_n_days_after_due must not be negative")
		}
		rule.EveryNDaysAfterDue = *p.EveryNDaysAfterDue
	}
	if p.IsActive != nil {
		rule.IsActive = *p.IsActive
	}
	return nil
}

// visibleNotifications narrows a notification query to what the current
// user may see. Students see their own rows, rows for batches they are in
// and institute-wide broadcasts; staff see everything in the institute.
func (h *NotificationHandler) visibleNotifications(currentUser *models.User) (*gorm.DB, error) {
	query := h.db.Model(&models.Notification{}).Where("institute_id = ?", currentUser.InstituteID)
	if currentUser.Role != models.UserRoleStudent {
		return query, nil
	}
	if currentUser.StudentID == nil {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Student profile missing")
	}

	batchIDs := h.db.Model(&models.StudentBatch{}).
		Select("batch_id").
		Where("student_id = ?", *currentUser.StudentID)
	return query.Where(
		"student_id = ? OR (student_id IS NULL AND batch_id IN (?)) OR (student_id IS NULL AND batch_id IS NULL)",
		*currentUser.StudentID, batchIDs,
	), nil
}

func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	page, pageSize := pageParams(c)

	query, err := h.visibleNotifications(currentUser)
	if err != nil {
		return err
	}
	if notifType := c.QueryParam("type"); notifType != "" {
		query = query.Where("type = ?", notifType)
	}
	if unread := c.QueryParam("unread"); unread == "true" {
		query = query.Where("read_at IS NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count notifications")
	}

	var notifications []models.Notification
	err = query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&notifications).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch notifications")
	}

	return c.JSON(http.StatusOK, PaginatedResponse{Total: total, Page: page, PageSize: pageSize, Items: notifications})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	query, err := h.visibleNotifications(currentUser)
	if err != nil {
		return err
	}

	var notification models.Notification
	if err := query.Where("notifications.id = ?", id).First(&notification).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}

	if notification.ReadAt == nil {
		now := time.Now().UTC()
		notification.ReadAt = &now
		if err := h.db.Model(&notification).Update("read_at", now).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to mark notification read")
		}
	}
	return c.JSON(http.StatusOK, notification)
}

// WhatsappTemplate serves the pre-rendered outbound message of a fee
// reminder so staff can forward it manually
func (h *NotificationHandler) WhatsappTemplate(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var notification models.Notification
	err = h.db.Where("id = ? AND institute_id = ?", id, currentUser.InstituteID).First(&notification).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	}
	if notification.Type != models.NotificationTypeFeeReminder {
		return echo.NewHTTPError(http.StatusBadRequest, "Notification is not a fee reminder")
	}

	template, _ := notification.Meta["whatsapp_template"].(string)
	return c.JSON(http.StatusOK, map[string]string{"whatsapp_template": template})
}

func (h *NotificationHandler) CreateAnnouncement(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	var req announcementCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.StudentID != nil {
		var student models.Student
		err := h.db.Where("id = ? AND institute_id = ?", *req.StudentID, currentUser.InstituteID).First(&student).Error
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "Student not found")
		}
	}
	if req.BatchID != nil {
		var batch models.Batch
		err := h.db.Where("id = ? AND institute_id = ?", *req.BatchID, currentUser.InstituteID).First(&batch).Error
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "Batch not found")
		}
	}

	notification := models.Notification{
		InstituteID: currentUser.InstituteID,
		StudentID:   req.StudentID,
		BatchID:     req.BatchID,
		Type:        models.NotificationTypeAnnouncement,
		Message:     req.Message,
	}
	if err := h.db.Create(&notification).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create announcement")
	}
	return c.JSON(http.StatusCreated, notification)
}

// RunReminders triggers one reminder generation pass immediately,
// bypassing the recurring schedule
func (h *NotificationHandler) RunReminders(c echo.Context) error {
	created, err := tasks.GenerateFeeReminders(c.Request().Context(), h.db, time.Now().UTC())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Reminder generation failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"created_notifications": created})
}

func (h *NotificationHandler) CreateReminderRule(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	var req reminderRuleCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.BatchID != nil {
		var batch models.Batch
		err := h.db.Where("id = ? AND institute_id = ?", *req.BatchID, currentUser.InstituteID).First(&batch).Error
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "Batch not found")
		}
	}

	rule := models.ReminderRule{
		InstituteID:        currentUser.InstituteID,
		BatchID:            req.BatchID,
		Name:               req.Name,
		DaysBefore:         req.DaysBefore,
		OnDueDate:          true,
		EveryNDaysAfterDue: req.EveryNDaysAfterDue,
		IsActive:           true,
	}
	if req.OnDueDate != nil {
		rule.OnDueDate = *req.OnDueDate
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := h.db.Create(&rule).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create reminder rule")
	}
	return c.JSON(http.StatusCreated, rule)
}

func (h *NotificationHandler) ListReminderRules(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	query := h.db.Where("institute_id = ?", currentUser.InstituteID)
	if batchID := c.QueryParam("batch_id"); batchID != "" {
		query = query.Where("batch_id = ?", batchID)
	}

	var rules []models.ReminderRule
	if err := query.Order("created_at DESC").Find(&rules).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch reminder rules")
	}
	return c.JSON(http.StatusOK, rules)
}

func (h *NotificationHandler) UpdateReminderRule(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var rule models.ReminderRule
	err = h.db.Where("id = ? AND institute_id = ?", id, currentUser.InstituteID).First(&rule).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Reminder rule not found")
	}

	var patch reminderRulePatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := patch.apply(&rule); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.db.Save(&rule).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update reminder rule")
	}
	return c.JSON(http.StatusOK, rule)
}

func (h *NotificationHandler) DeleteReminderRule(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	result := h.db.Where("id = ? AND institute_id = ?", id, currentUser.InstituteID).Delete(&models.ReminderRule{})
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete reminder rule")
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Reminder rule not found")
	}
	return c.NoContent(http.StatusNoContent)
}
