package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ContextKey - тип для ключей контекста.
type ContextKey string

const (
	// StaffIDKey - ключ для хранения ID сотрудника в контексте.
	StaffIDKey ContextKey = "staff_id"
	// StaffNameKey - ключ для хранения имени сотрудника в контексте.
	StaffNameKey ContextKey = "staff_name"
	// IsAdminKey - ключ для хранения признака администратора в контексте.
	IsAdminKey ContextKey = "is_admin"
)

// JWTMiddleware создаёт middleware для проверки JWT токена.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractTokenFromHeader(c)

			if token == "" {
				token = extractTokenFromCookie(c)
			}

			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid token")
			}

			claims, err := ValidateToken(token, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			// Сохранение данных сотрудника в контексте
			c.Set(string(StaffIDKey), claims.StaffID)
			c.Set(string(StaffNameKey), claims.Name)
			c.Set(string(IsAdminKey), claims.IsAdmin)

			return next(c)
		}
	}
}

// AdminMiddleware пропускает только сотрудников с правами администратора.
// Навешивается после JWTMiddleware.
func AdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			isAdmin, ok := c.Get(string(IsAdminKey)).(bool)
			if !ok || !isAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}

// extractTokenFromHeader извлекает токен из заголовка Authorization.
func extractTokenFromHeader(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Проверка формата "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		return parts[1]
	}

	return ""
}

// extractTokenFromCookie извлекает токен из cookie.
func extractTokenFromCookie(c echo.Context) string {
	cookie, err := c.Cookie("Authorization")
	if err != nil {
		return ""
	}
	return cookie.Value
}

// GetStaffIDFromContext извлекает ID сотрудника из контекста.
func GetStaffIDFromContext(c echo.Context) (uuid.UUID, error) {
	staffID, ok := c.Get(string(StaffIDKey)).(uuid.UUID)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "staff not found in context")
	}
	return staffID, nil
}

// GetStaffNameFromContext извлекает имя сотрудника из контекста.
func GetStaffNameFromContext(c echo.Context) (string, error) {
	name, ok := c.Get(string(StaffNameKey)).(string)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "staff not found in context")
	}
	return name, nil
}
