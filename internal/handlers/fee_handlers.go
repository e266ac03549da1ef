package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"institute_app_echo/internal/audit"
	"institute_app_echo/internal/ledger"
	"institute_app_echo/internal/middleware"
	"institute_app_echo/internal/models"
	"institute_app_echo/internal/money"
)

type FeeHandler struct {
	db *gorm.DB
}

func NewFeeHandler(db *gorm.DB) *FeeHandler {
	return &FeeHandler{db: db}
}

type installmentInput struct {
	DueDate string          `json:"due_date" validate:"required,datetime=2006-01-02"`
	Amount  decimal.Decimal `json:"amount"`
}

type feeAccountCreateRequest struct {
	StudentID   uint               `json:"student_id" validate:"required"`
	BatchID     uint               `json:"batch_id" validate:"required"`
	TotalFee    decimal.Decimal    `json:"total_fee"`
	Discount    decimal.Decimal    `json:"discount"`
	DueSchedule []installmentInput `json:"due_schedule" validate:"required,min=1,dive"`
}

type paymentCreateRequest struct {
	FeeAccountID uint               `json:"fee_account_id" validate:"required"`
	Amount       decimal.Decimal    `json:"amount"`
	PaidOn       string             `json:"paid_on" validate:"required,datetime=2006-01-02"`
	Mode         models.PaymentMode `json:"mode" validate:"required,oneof=CASH UPI BANK"`
	Remarks      string             `json:"remarks"`
}

// feeAccountResponse decorates a stored account with its derived figures
type feeAccountResponse struct {
	models.FeeAccount
	PaidAmount decimal.Decimal `json:"paid_amount"`
	DueAmount  decimal.Decimal `json:"due_amount"`
}

type dueItemResponse struct {
	FeeAccountID  uint             `json:"fee_account_id"`
	StudentID     uint             `json:"student_id"`
	StudentName   string           `json:"student_name"`
	BatchID       uint             `json:"batch_id"`
	BatchName     string           `json:"batch_name"`
	TotalFee      decimal.Decimal  `json:"total_fee"`
	Discount      decimal.Decimal  `json:"discount"`
	PaidAmount    decimal.Decimal  `json:"paid_amount"`
	DueAmount     decimal.Decimal  `json:"due_amount"`
	NextDueDate   *string          `json:"next_due_date"`
	NextDueAmount *decimal.Decimal `json:"next_due_amount"`
}

func feeAccountView(account *models.FeeAccount) feeAccountResponse {
	return feeAccountResponse{
		FeeAccount: *account,
		PaidAmount: ledger.PaidAmount(account),
		DueAmount:  ledger.Outstanding(account),
	}
}

// CreateFeeAccount maps a student to the fee owed for a batch. The
// installment schedule is validated here and immutable afterwards.
func (h *FeeHandler) CreateFeeAccount(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	var req feeAccountCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.TotalFee.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "Total fee must not be negative")
	}
	if req.Discount.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "Discount must not be negative")
	}
	schedule := make([]money.Installment, 0, len(req.DueSchedule))
	for _, item := range req.DueSchedule {
		if !item.Amount.IsPositive() {
			return echo.NewHTTPError(http.StatusBadRequest, "Installment amounts must be positive")
		}
		schedule = append(schedule, money.Installment{DueDate: item.DueDate, Amount: item.Amount})
	}

	var student models.Student
	err := h.db.Where("id = ? AND institute_id = ?", req.StudentID, currentUser.InstituteID).First(&student).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Student not found")
	}
	var batch models.Batch
	err = h.db.Where("id = ? AND institute_id = ?", req.BatchID, currentUser.InstituteID).First(&batch).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Batch not found")
	}
	var link models.StudentBatch
	err = h.db.Where("student_id = ? AND batch_id = ?", req.StudentID, req.BatchID).First(&link).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Student must be assigned to batch before fee mapping")
	}

	account := models.FeeAccount{
		InstituteID: currentUser.InstituteID,
		StudentID:   req.StudentID,
		BatchID:     req.BatchID,
		TotalFee:    req.TotalFee,
		Discount:    req.Discount,
		DueSchedule: schedule,
	}
	if err := h.db.Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusBadRequest, "Student fee mapping already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create fee account")
	}
	return c.JSON(http.StatusCreated, feeAccountView(&account))
}

func (h *FeeHandler) ListFeeAccounts(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	page, pageSize := pageParams(c)

	query := h.db.Model(&models.FeeAccount{}).Where("institute_id = ?", currentUser.InstituteID)
	if studentID := c.QueryParam("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if batchID := c.QueryParam("batch_id"); batchID != "" {
		query = query.Where("batch_id = ?", batchID)
	}
	if currentUser.Role == models.UserRoleStudent {
		if currentUser.StudentID == nil {
			return echo.NewHTTPError(http.StatusForbidden, "Student profile missing")
		}
		query = query.Where("student_id = ?", *currentUser.StudentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count fee accounts")
	}

	var accounts []models.FeeAccount
	err := query.Preload("Payments").Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&accounts).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch fee accounts")
	}

	items := make([]feeAccountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, feeAccountView(&accounts[i]))
	}
	return c.JSON(http.StatusOK, PaginatedResponse{Total: total, Page: page, PageSize: pageSize, Items: items})
}

// CreatePayment records money received against a fee account. The account
// row is locked for the duration of the transaction so two concurrent
// payments cannot both validate against a stale due amount.
func (h *FeeHandler) CreatePayment(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	var req paymentCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	receiptNo := fmt.Sprintf(
		"RCPT-%s-%s",
		time.Now().UTC().Format("20060102150405"),
		strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6]),
	)

	var payment models.Payment
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var account models.FeeAccount
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND institute_id = ?", req.FeeAccountID, currentUser.InstituteID).
			First(&account).Error
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "Fee account not found")
		}
		if err := tx.Where("fee_account_id = ?", account.ID).Find(&account.Payments).Error; err != nil {
			return err
		}

		if err := ledger.CheckPayment(&account, req.Amount); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}

		payment = models.Payment{
			InstituteID:  currentUser.InstituteID,
			FeeAccountID: account.ID,
			Amount:       req.Amount,
			PaidOn:       req.PaidOn,
			Mode:         req.Mode,
			ReceiptNo:    receiptNo,
			Remarks:      req.Remarks,
			CreatedBy:    currentUser.ID,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		return audit.Log(tx, currentUser.InstituteID, &currentUser.ID,
			"FEE_PAYMENT_CREATED", "payment", fmt.Sprintf("%d", payment.ID),
			nil, map[string]interface{}{
				"fee_account_id": account.ID,
				"amount":         req.Amount.StringFixed(2),
				"mode":           string(req.Mode),
				"receipt_no":     receiptNo,
			})
	})
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to record payment")
	}

	return c.JSON(http.StatusCreated, payment)
}

func (h *FeeHandler) ListPayments(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)
	page, pageSize := pageParams(c)

	query := h.db.Model(&models.Payment{}).
		Joins("JOIN fee_accounts ON fee_accounts.id = payments.fee_account_id").
		Where("payments.institute_id = ?", currentUser.InstituteID)
	if feeAccountID := c.QueryParam("fee_account_id"); feeAccountID != "" {
		query = query.Where("payments.fee_account_id = ?", feeAccountID)
	}
	if currentUser.Role == models.UserRoleStudent {
		if currentUser.StudentID == nil {
			return echo.NewHTTPError(http.StatusForbidden, "Student profile missing")
		}
		query = query.Where("fee_accounts.student_id = ?", *currentUser.StudentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count payments")
	}

	var payments []models.Payment
	err := query.Order("payments.created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&payments).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch payments")
	}

	return c.JSON(http.StatusOK, PaginatedResponse{Total: total, Page: page, PageSize: pageSize, Items: payments})
}

// ListDues reports every account still owing, with its next due
// installment from the allocation waterfall
func (h *FeeHandler) ListDues(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	query := h.db.Preload("Student").Preload("Batch").Preload("Payments").
		Where("institute_id = ?", currentUser.InstituteID)
	if studentID := c.QueryParam("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}
	if batchID := c.QueryParam("batch_id"); batchID != "" {
		query = query.Where("batch_id = ?", batchID)
	}
	if currentUser.Role == models.UserRoleStudent {
		if currentUser.StudentID == nil {
			return echo.NewHTTPError(http.StatusForbidden, "Student profile missing")
		}
		query = query.Where("student_id = ?", *currentUser.StudentID)
	}

	var accounts []models.FeeAccount
	if err := query.Find(&accounts).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch fee accounts")
	}

	dueFrom := c.QueryParam("due_from")
	dueTo := c.QueryParam("due_to")

	results := make([]dueItemResponse, 0)
	for i := range accounts {
		account := &accounts[i]
		dueAmount := ledger.Outstanding(account)
		if !dueAmount.IsPositive() {
			continue
		}

		next, err := ledger.NextDue(account)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Invalid installment schedule")
		}

		item := dueItemResponse{
			FeeAccountID: account.ID,
			StudentID:    account.StudentID,
			StudentName:  account.Student.FullName,
			BatchID:      account.BatchID,
			BatchName:    account.Batch.Name,
			TotalFee:     account.TotalFee,
			Discount:     account.Discount,
			PaidAmount:   ledger.PaidAmount(account),
			DueAmount:    dueAmount,
		}
		if next != nil {
			nextDate := next.DueDate.Format(money.DateLayout)
			item.NextDueDate = &nextDate
			item.NextDueAmount = &next.Amount

			if dueFrom != "" && nextDate < dueFrom {
				continue
			}
			if dueTo != "" && nextDate > dueTo {
				continue
			}
		}
		results = append(results, item)
	}

	return c.JSON(http.StatusOK, results)
}
