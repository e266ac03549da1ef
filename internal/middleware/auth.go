package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"institute_app_echo/internal/auth"
	"institute_app_echo/internal/models"
)

const userContextKey = "currentUser"

// RequireAuth returns a middleware that verifies bearer access tokens and
// loads the authenticated user into the request context
func RequireAuth(db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing bearer token")
			}

			claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "), auth.TokenTypeAccess)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
			}

			userID, err := strconv.ParseUint(claims.Subject, 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
			}

			var user models.User
			if err := db.First(&user, uint(userID)).Error; err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
			}
			if !user.IsActive {
				return echo.NewHTTPError(http.StatusForbidden, "User is disabled")
			}

			c.Set(userContextKey, &user)
			return next(c)
		}
	}
}

// RequireRoles restricts a route to the given roles. Must run after
// RequireAuth.
func RequireRoles(roles ...models.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing bearer token")
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

// CurrentUser returns the authenticated user set by RequireAuth, or nil
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}
