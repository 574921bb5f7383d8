package handlers

import (
	"net/http"

	"github.com/agamariel/poscore/internal/models"
	"github.com/agamariel/poscore/internal/services"
	"github.com/labstack/echo/v4"
)

// CatalogHandler отдаёт меню и действующие скидки.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler создаёт новый handler.
func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GetMenu обрабатывает GET /api/menu.
func (h *CatalogHandler) GetMenu(c echo.Context) error {
	menu, err := h.catalogService.Menu(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("failed to load menu: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, models.NewMenuResponse(menu))
}

// GetDiscounts обрабатывает GET /api/discounts.
func (h *CatalogHandler) GetDiscounts(c echo.Context) error {
	groups, err := h.catalogService.Discounts(c.Request().Context())
	if err != nil {
		c.Logger().Errorf("failed to load discounts: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.JSON(http.StatusOK, models.NewDiscountGroupsResponse(groups))
}
