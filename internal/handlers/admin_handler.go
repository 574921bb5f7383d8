package handlers

import (
	"errors"
	"net/http"

	"github.com/agamariel/poscore/internal/models"
	"github.com/agamariel/poscore/internal/services"
	"github.com/labstack/echo/v4"
)

// AdminHandler обрабатывает административные операции: настройки комиссии
// и сброс нумерации заказов. Все маршруты закрыты admin-middleware.
type AdminHandler struct {
	settingsService services.SettingsService
	ledger          services.LedgerService
}

// NewAdminHandler создаёт новый handler.
func NewAdminHandler(settingsService services.SettingsService, ledger services.LedgerService) *AdminHandler {
	return &AdminHandler{
		settingsService: settingsService,
		ledger:          ledger,
	}
}

// GetCardFee обрабатывает GET /api/admin/card-fee.
func (h *AdminHandler) GetCardFee(c echo.Context) error {
	settings, err := h.settingsService.GetCardFee(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("failed to get card fee settings: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, models.NewCardFeeResponse(settings))
}

// UpdateCardFee обрабатывает PUT /api/admin/card-fee.
func (h *AdminHandler) UpdateCardFee(c echo.Context) error {
	var req models.CardFeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	settings, err := h.settingsService.UpdateCardFee(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFeeSettings) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		c.Logger().Errorf("failed to update card fee settings: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, models.NewCardFeeResponse(settings))
}

// ResetOrderNumbers обрабатывает POST /api/admin/orders/reset.
func (h *AdminHandler) ResetOrderNumbers(c echo.Context) error {
	if err := h.ledger.ResetNumbers(c.Request().Context()); err != nil {
		return ledgerHTTPError(c, err)
	}
	return c.NoContent(http.StatusOK)
}
