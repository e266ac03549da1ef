package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"institute_app_echo/internal/auth"
	"institute_app_echo/internal/middleware"
	"institute_app_echo/internal/models"
)

type AuthHandler struct {
	db *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type registerRequest struct {
	FullName  string          `json:"full_name" validate:"required,min=2,max=150"`
	Email     string          `json:"email" validate:"required,email"`
	Phone     string          `json:"phone"`
	Password  string          `json:"password" validate:"required,min=8"`
	Role      models.UserRole `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
	StudentID *uint           `json:"student_id"`
	IsActive  *bool           `json:"is_active"`
}

// Login exchanges credentials for a token pair
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var user models.User
	err := h.db.Where("email = ?", req.Email).First(&user).Error
	if err != nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if !user.IsActive {
		return echo.NewHTTPError(http.StatusForbidden, "User is disabled")
	}

	pair, err := auth.IssueTokenPair(&user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue tokens")
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh exchanges a refresh token for a fresh token pair
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	claims, err := auth.ParseToken(req.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	var user models.User
	if err := h.db.First(&user, uint(userID)).Error; err != nil || !user.IsActive {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	pair, err := auth.IssueTokenPair(&user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to issue tokens")
	}
	return c.JSON(http.StatusOK, pair)
}

// Register creates a user in the caller's institute (ADMIN only, enforced
// by route middleware)
func (h *AuthHandler) Register(c echo.Context) error {
	currentUser := middleware.CurrentUser(c)

	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var existing models.User
	err := h.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check email")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	user := models.User{
		InstituteID:  currentUser.InstituteID,
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         req.Role,
		StudentID:    req.StudentID,
		IsActive:     isActive,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
	}
	return c.JSON(http.StatusCreated, user)
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}
