package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/agamariel/poscore/internal/models"
	"github.com/agamariel/poscore/internal/services"
	"github.com/labstack/echo/v4"
)

// StaffHandler обрабатывает HTTP-запросы аутентификации и учёта времени.
// Все операции идут по PIN: терминал общий, персональных сессий на нём нет.
type StaffHandler struct {
	staffService services.StaffService
}

// NewStaffHandler создаёт новый экземпляр StaffHandler.
func NewStaffHandler(staffService services.StaffService) *StaffHandler {
	return &StaffHandler{
		staffService: staffService,
	}
}

// Login обрабатывает POST /api/auth/login.
func (h *StaffHandler) Login(c echo.Context) error {
	var req models.LoginRequest

	// Парсинг JSON body
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	staff, token, err := h.staffService.Login(c.Request().Context(), req.PIN)
	if err != nil {
		return staffHTTPError(c, err)
	}

	// Установка токена в cookie и заголовок
	setAuthToken(c, token)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"staff": newStaffResponse(staff),
	})
}

// ClockIn обрабатывает POST /api/shifts/clock-in.
func (h *StaffHandler) ClockIn(c echo.Context) error {
	return h.timeClock(c, h.staffService.ClockIn)
}

// ClockOut обрабатывает POST /api/shifts/clock-out.
func (h *StaffHandler) ClockOut(c echo.Context) error {
	return h.timeClock(c, h.staffService.ClockOut)
}

// StartBreak обрабатывает POST /api/shifts/break/start.
func (h *StaffHandler) StartBreak(c echo.Context) error {
	return h.timeClock(c, h.staffService.StartBreak)
}

// EndBreak обрабатывает POST /api/shifts/break/end.
func (h *StaffHandler) EndBreak(c echo.Context) error {
	return h.timeClock(c, h.staffService.EndBreak)
}

// ListStaff обрабатывает GET /api/staff.
func (h *StaffHandler) ListStaff(c echo.Context) error {
	staff, err := h.staffService.ListAvailable(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("failed to list staff: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	response := make([]*models.StaffResponse, 0, len(staff))
	for _, s := range staff {
		response = append(response, newStaffResponse(s))
	}
	return c.JSON(http.StatusOK, response)
}

// timeClock - общий каркас операций учёта времени: PIN из тела, операция,
// ответ с сотрудником и сменой.
func (h *StaffHandler) timeClock(c echo.Context, op func(context.Context, string) (*models.Staff, *models.Shift, error)) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	staff, shift, err := op(c.Request().Context(), req.PIN)
	if err != nil {
		return staffHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"staff": newStaffResponse(staff),
		"shift": models.NewShiftResponse(shift, time.Now()),
	})
}

// newStaffResponse преобразует domain модель сотрудника в DTO без PIN-хеша.
func newStaffResponse(s *models.Staff) *models.StaffResponse {
	return &models.StaffResponse{
		ID:      s.ID,
		Name:    s.Name,
		IsAdmin: s.IsAdmin,
		Working: s.Working,
		OnBreak: s.OnBreak,
	}
}

// staffHTTPError переводит ошибки сервиса сотрудников в HTTP-статусы.
func staffHTTPError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrEmptyPIN):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidPIN):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid pin")
	case errors.Is(err, services.ErrAlreadyClockedIn),
		errors.Is(err, services.ErrNotClockedIn),
		errors.Is(err, services.ErrAlreadyOnBreak),
		errors.Is(err, services.ErrNotOnBreak):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		c.Logger().Errorf("staff operation failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// setAuthToken устанавливает токен в cookie и заголовок ответа.
func setAuthToken(c echo.Context, token string) {
	// Установка cookie
	cookie := &http.Cookie{
		Name:     "Authorization",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   43200, // 12 часов
	}
	c.SetCookie(cookie)

	// Также устанавливаем в заголовок для удобства
	c.Response().Header().Set("Authorization", "Bearer "+token)
}
