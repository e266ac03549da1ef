package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"institute_app_echo/internal/middleware"
	"institute_app_echo/internal/models"
)

type StudentHandler struct {
	db *gorm.DB
}

func NewStudentHandler(db *gorm.DB) *StudentHandler {
	return &StudentHandler{db: db}
}

type studentCreateRequest struct {
	FullName      string `json:"full_name" validate:"required,min=2,max=150"`
	Phone         string `json:"phone"`
	Email         string `json:"email" validate:"omitempty,email"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	Address       string `json:"address"`
	JoinDate      string `json:"join_date" validate:"required,datetime=2006-01-02"`
}

// studentPatch carries named optional fields; only non-nil fields are
// applied
type studentPatch struct {
	FullName      *string               `json:"full_name" validate:"omitempty,min=2,max=150"`
	Phone         *string               `json:"phone"`
	Email         *string               `json:"email" validate:"omitempty,email"`
	GuardianName  *string               `json:"guardian_name"`
	GuardianPhone *string               `json:"guardian_phone"`
	Address       *string               `json:"address"`
	Status        *models.StudentStatus `json:"status" validate:"omitempty,oneof=ACTIVE DISABLED"`
}

func (p studentPatch) apply(student *models.Student) {
	if p.FullName != nil {
		student.FullName = *p.FullName
	}
	if p.Phone != nil {
		student.Phone = *p.Phone
	}
	if p.Email != nil {
		student.Email = *p.Email
	}
	if p.GuardianName != nil {
		student.GuardianName = *p.GuardianName
	}
	if p.GuardianPhone != nil {
		student.GuardianPhone = *p.GuardianPhone
	}
	if p.Address != nil {
		student.Address = *p.Address
	}
	if p.Status != nil {
		student.Status = *p.Status
	}
}

func (h *StudentHandler) CreateStudent(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	var req studentCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	student := models.Student{
		InstituteID:   currentUser.InstituteID,
		FullName:      req.FullName,
		Phone:         req.Phone,
		Email:         req.Email,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		Address:       req.Address,
		JoinDate:      req.JoinDate,
		Status:        models.StudentStatusActive,
	}
	if err := h.db.Create(&student).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create student")
	}
	return c.JSON(http.StatusCreated, student)
}

func (h *StudentHandler) ListStudents(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	page, pageSize := pageParams(c)

	query := h.db.Model(&models.Student{}).Where("institute_id = ?", currentUser.InstituteID)
	if search := c.QueryParam("search"); search != "" {
		query = query.Where("full_name ILIKE ?", "%"+search+"%")
	}
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count students")
	}

	var students []models.Student
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&students).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch students")
	}

	return c.JSON(http.StatusOK, PaginatedResponse{Total: total, Page: page, PageSize: pageSize, Items: students})
}

func (h *StudentHandler) GetStudent(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var student models.Student
	err = h.db.Preload("BatchLinks.Batch").
		Where("id = ? AND institute_id = ?", id, currentUser.InstituteID).
		First(&student).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Student not found")
	}
	return c.JSON(http.StatusOK, student)
}

func (h *StudentHandler) UpdateStudent(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var patch studentPatch
	if err := bindAndValidate(c, &patch); err != nil {
		return err
	}

	var student models.Student
	err = h.db.Where("id = ? AND institute_id = ?", id, currentUser.InstituteID).First(&student).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Student not found")
	}

	patch.apply(&student)
	if err := h.db.Save(&student).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update student")
	}
	return c.JSON(http.StatusOK, student)
}

func (h *StudentHandler) DeleteStudent(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var student models.Student
	err = h.db.Where("id = ? AND institute_id = ?", id, currentUser.InstituteID).First(&student).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Student not found")
	}
	if err := h.db.Delete(&student).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete student")
	}
	return c.NoContent(http.StatusNoContent)
}
