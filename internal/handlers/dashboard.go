package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"institute_app_echo/internal/ledger"
	"institute_app_echo/internal/middleware"
	"institute_app_echo/internal/models"
	"institute_app_echo/internal/money"
	"institute_app_echo/internal/services"
)

// dashboardCacheTTL is short on purpose: the figures feed an at-a-glance
// screen, not reports
const dashboardCacheTTL = 30 * time.Second

type DashboardHandler struct {
	db    *gorm.DB
	cache *services.RedisCache // optional
}

func NewDashboardHandler(db *gorm.DB, cache *services.RedisCache) *DashboardHandler {
	return &DashboardHandler{db: db, cache: cache}
}

type adminDashboard struct {
	TotalStudents       int64                 `json:"total_students"`
	ActiveStudents      int64                 `json:"active_students"`
	TotalBatches        int64                 `json:"total_batches"`
	TotalCollected      decimal.Decimal       `json:"total_collected"`
	TotalOutstanding    decimal.Decimal       `json:"total_outstanding"`
	AccountsOwing       int                   `json:"accounts_owing"`
	DueInNextWeek       decimal.Decimal       `json:"due_in_next_week"`
	RecentNotifications []models.Notification `json:"recent_notifications"`
}

type studentDashboard struct {
	Batches             []models.Batch        `json:"batches"`
	FeeAccounts         []feeAccountResponse  `json:"fee_accounts"`
	TotalOutstanding    decimal.Decimal       `json:"total_outstanding"`
	NextDueDate         *string               `json:"next_due_date"`
	NextDueAmount       *decimal.Decimal      `json:"next_due_amount"`
	RecentNotifications []models.Notification `json:"recent_notifications"`
}

func (h *DashboardHandler) AdminDashboard(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	build := func() (adminDashboard, error) {
		return h.buildAdminDashboard(currentUser.InstituteID)
	}

	var dashboard adminDashboard
	var err error
	if h.cache != nil {
		key := fmt.Sprintf("dashboard:admin:%d", currentUser.InstituteID)
		dashboard, err = services.GetOrSet(h.cache, c.Request().Context(), key, dashboardCacheTTL, build)
	} else {
		dashboard, err = build()
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to build dashboard")
	}
	return c.JSON(http.StatusOK, dashboard)
}

func (h *DashboardHandler) buildAdminDashboard(instituteID uint) (adminDashboard, error) {
	dashboard := adminDashboard{
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
		DueInNextWeek:    decimal.Zero,
	}

	err := h.db.Model(&models.Student{}).Where("institute_id = ?", instituteID).Count(&dashboard.TotalStudents).Error
	if err != nil {
		return dashboard, err
	}
	err = h.db.Model(&models.Student{}).
		Where("institute_id = ? AND status = ?", instituteID, models.StudentStatusActive).
		Count(&dashboard.ActiveStudents).Error
	if err != nil {
		return dashboard, err
	}
	err = h.db.Model(&models.Batch{}).Where("institute_id = ?", instituteID).Count(&dashboard.TotalBatches).Error
	if err != nil {
		return dashboard, err
	}

	var accounts []models.FeeAccount
	err = h.db.Preload("Payments").Where("institute_id = ?", instituteID).Find(&accounts).Error
	if err != nil {
		return dashboard, err
	}

	today := time.Now().UTC().Format(money.DateLayout)
	weekOut := time.Now().UTC().AddDate(0, 0, 7).Format(money.DateLayout)
	for i := range accounts {
		account := &accounts[i]
		dashboard.TotalCollected = dashboard.TotalCollected.Add(ledger.PaidAmount(account))

		outstanding := ledger.Outstanding(account)
		if !outstanding.IsPositive() {
			continue
		}
		dashboard.TotalOutstanding = dashboard.TotalOutstanding.Add(outstanding)
		dashboard.AccountsOwing++

		unpaid, err := ledger.Allocate(account)
		if err != nil {
			return dashboard, err
		}
		for _, row := range unpaid {
			dueDate := row.DueDate.Format(money.DateLayout)
			if dueDate >= today && dueDate <= weekOut {
				dashboard.DueInNextWeek = dashboard.DueInNextWeek.Add(row.Amount)
			}
		}
	}

	err = h.db.Where("institute_id = ?", instituteID).
		Order("created_at DESC").Limit(5).
		Find(&dashboard.RecentNotifications).Error
	return dashboard, err
}

func (h *DashboardHandler) StudentDashboard(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	if currentUser.StudentID == nil {
		return echo.NewHTTPError(http.StatusForbidden, "Student profile missing")
	}
	studentID := *currentUser.StudentID

	dashboard := studentDashboard{
		Batches:          []models.Batch{},
		FeeAccounts:      []feeAccountResponse{},
		TotalOutstanding: decimal.Zero,
	}

	batchIDs := h.db.Model(&models.StudentBatch{}).Select("batch_id").Where("student_id = ?", studentID)
	err := h.db.Where("id IN (?)", batchIDs).Find(&dashboard.Batches).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch batches")
	}

	var accounts []models.FeeAccount
	err = h.db.Preload("Batch").Preload("Payments").
		Where("student_id = ?", studentID).
		Find(&accounts).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch fee accounts")
	}

	for i := range accounts {
		account := &accounts[i]
		view := feeAccountView(account)
		dashboard.FeeAccounts = append(dashboard.FeeAccounts, view)
		dashboard.TotalOutstanding = dashboard.TotalOutstanding.Add(view.DueAmount)

		if !view.DueAmount.IsPositive() {
			continue
		}
		next, err := ledger.NextDue(account)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Invalid installment schedule")
		}
		if next == nil {
			continue
		}
		nextDate := next.DueDate.Format(money.DateLayout)
		if dashboard.NextDueDate == nil || nextDate < *dashboard.NextDueDate {
			dashboard.NextDueDate = &nextDate
			amount := next.Amount
			dashboard.NextDueAmount = &amount
		}
	}

	err = h.db.Where(
		"institute_id = ? AND (student_id = ? OR (student_id IS NULL AND batch_id IN (?)) OR (student_id IS NULL AND batch_id IS NULL))",
		currentUser.InstituteID, studentID,
		h.db.Model(&models.StudentBatch{}).Select("batch_id").Where("student_id = ?", studentID),
	).Order("created_at DESC").Limit(5).Find(&dashboard.RecentNotifications).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch notifications")
	}

	return c.JSON(http.StatusOK, dashboard)
}
