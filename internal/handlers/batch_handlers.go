package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"institute_app_echo/internal/middleware"
	"institute_app_echo/internal/models"
)

type BatchHandler struct {
	db *gorm.DB
}

func NewBatchHandler(db *gorm.DB) *BatchHandler {
	return &BatchHandler{db: db}
}

type batchCreateRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=200"`
	Course    string `json:"course" validate:"required"`
	Schedule  string `json:"schedule" validate:"required"`
	TeacherID *uint  `json:"teacher_id"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type batchPatch struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=200"`
	Course    *string `json:"course"`
	Schedule  *string `json:"schedule"`
	TeacherID *uint   `json:"teacher_id"`
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

func (p batchPatch) apply(batch *models.Batch) {
	if p.Name != nil {
		batch.Name = *p.Name
	}
	if p.Course != nil {
		batch.Course = *p.Course
	}
	if p.Schedule != nil {
		batch.Schedule = *p.Schedule
	}
	if p.TeacherID != nil {
		batch.TeacherID = p.TeacherID
	}
	if p.StartDate != nil {
		batch.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		batch.EndDate = *p.EndDate
	}
}

func (h *BatchHandler) CreateBatch(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	var req batchCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	batch := models.Batch{
		InstituteID: currentUser.InstituteID,
		Name:        req.Name,
		Course:      req.Course,
		Schedule:    req.Schedule,
		TeacherID:   req.TeacherID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := h.db.Create(&batch).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create batch")
	}
	return c.JSON(http.StatusCreated, batch)
}

func (h *BatchHandler) ListBatches(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	page, pageSize := pageParams(c)

	query := h.db.Model(&models.Batch{}).Where("institute_id = ?", currentUser.InstituteID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count batches")
	}

	var batches []models.Batch
	err := query.Preload("Teacher").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&batches).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch batches")
	}

	return c.JSON(http.StatusOK, PaginatedResponse{Total: total, Page: page, PageSize: pageSize, Items: batches})
}

func (h *BatchHandler) GetBatch(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var batch models.Batch
	err = h.db.Preload("Teacher").Preload("StudentLinks.Student").
		Where("id = ? AND institute_id = ?", id, currentUser.InstituteID).
		First(&batch).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Batch not found")
	}
	return c.JSON(http.StatusOK, batch)
}

func (h *BatchHandler) UpdateBatch(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var patch batchPatch
	if err := bindAndValidate(c, &patch); err != nil {
		return err
	}

	var batch models.Batch
	err = h.db.Where("id = ? AND institute_id = ?", id, currentUser.InstituteID).First(&batch).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Batch not found")
	}

	patch.apply(&batch)
	if err := h.db.Save(&batch).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update batch")
	}
	return c.JSON(http.StatusOK, batch)
}

func (h *BatchHandler) DeleteBatch(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var batch models.Batch
	err = h.db.Where("id = ? AND institute_id = ?", id, currentUser.InstituteID).First(&batch).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Batch not found")
	}
	if err := h.db.Delete(&batch).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete batch")
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignStudent links a student to a batch
func (h *BatchHandler) AssignStudent(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	batchID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	studentID, err := paramID(c, "student_id")
	if err != nil {
		return err
	}

	var batch models.Batch
	err = h.db.Where("id = ? AND institute_id = ?", batchID, currentUser.InstituteID).First(&batch).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Batch not found")
	}
	var student models.Student
	err = h.db.Where("id = ? AND institute_id = ?", studentID, currentUser.InstituteID).First(&student).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Student not found")
	}

	link := models.StudentBatch{
		InstituteID: currentUser.InstituteID,
		StudentID:   studentID,
		BatchID:     batchID,
	}
	if err := h.db.Create(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusBadRequest, "Student already assigned to batch")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to assign student")
	}
	return c.JSON(http.StatusCreated, link)
}

// UnassignStudent removes a student from a batch
func (h *BatchHandler) UnassignStudent(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	batchID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	studentID, err := paramID(c, "student_id")
	if err != nil {
		return err
	}

	result := h.db.Where(
		"batch_id = ? AND student_id = ? AND institute_id = ?",
		batchID, studentID, currentUser.InstituteID,
	).Delete(&models.StudentBatch{})
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to unassign student")
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Assignment not found")
	}
	return c.NoContent(http.StatusNoContent)
}
