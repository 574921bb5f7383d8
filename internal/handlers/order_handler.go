package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/agamariel/poscore/internal/auth"
	"github.com/agamariel/poscore/internal/models"
	"github.com/agamariel/poscore/internal/numberpool"
	"github.com/agamariel/poscore/internal/services"
	"github.com/agamariel/poscore/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// OrderHandler обрабатывает запросы, связанные с заказами.
type OrderHandler struct {
	ledger services.LedgerService
}

func NewOrderHandler(ledger services.LedgerService) *OrderHandler {
	return &OrderHandler{ledger: ledger}
}

// Create обрабатывает POST /api/orders.
func (h *OrderHandler) Create(c echo.Context) error {
	staffID, err := auth.GetStaffIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	order, err := h.ledger.Create(c.Request().Context(), staffID, &req)
	if err != nil {
		return ledgerHTTPError(c, err)
	}

	return c.JSON(http.StatusCreated, models.NewOrderSnapshot(order))
}

// List обрабатывает GET /api/orders с фильтрами по статусу и дате.
func (h *OrderHandler) List(c echo.Context) error {
	var filter storage.OrderFilter

	if raw := c.QueryParam("status"); raw != "" {
		status := models.OrderStatus(raw)
		switch status {
		case models.OrderStatusOpen, models.OrderStatusClosed, models.OrderStatusCancelled,
			models.OrderStatusRefunded, models.OrderStatusPartiallyRefunded:
			filter.Status = &status
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
		}
	}
	if raw := c.QueryParam("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		filter.Date = &date
	}

	orders, err := h.ledger.List(c.Request().Context(), filter)
	if err != nil {
		return ledgerHTTPError(c, err)
	}

	response := make([]*models.OrderSnapshot, 0, len(orders))
	for _, order := range orders {
		response = append(response, models.NewOrderSnapshot(order))
	}
	return c.JSON(http.StatusOK, response)
}

// Get обрабатывает GET /api/orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.ledger.Get(c.Request().Context(), orderID)
	if err != nil {
		return ledgerHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewOrderSnapshot(order))
}

// AddItem обрабатывает POST /api/orders/:id/items.
func (h *OrderHandler) AddItem(c echo.Context) error {
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req models.OrderItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	order, err := h.ledger.AddItem(c.Request().Context(), orderID, &req)
	if err != nil {
		return ledgerHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewOrderSnapshot(order))
}

// RemoveItem обрабатывает DELETE /api/orders/:id/items/:itemID.
func (h *OrderHandler) RemoveItem(c echo.Context) error {
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	itemID, err := parseID(c, "itemID")
	if err != nil {
		return err
	}

	order, err := h.ledger.RemoveItem(c.Request().Context(), orderID, itemID)
	if err != nil {
		return ledgerHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewOrderSnapshot(order))
}

// ApplyDiscount обрабатывает POST /api/orders/:id/discounts.
func (h *OrderHandler) ApplyDiscount(c echo.Context) error {
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req models.ApplyDiscountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if req.DiscountID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "discount_id is required")
	}

	order, err := h.ledger.ApplyDiscount(c.Request().Context(), orderID, req.DiscountID)
	if err != nil {
		return ledgerHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewOrderSnapshot(order))
}

// RemoveDiscount обрабатывает DELETE /api/orders/:id/discounts/:discountID.
func (h *OrderHandler) RemoveDiscount(c echo.Context) error {
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	discountID, err := parseID(c, "discountID")
	if err != nil {
		return err
	}

	order, err := h.ledger.RemoveDiscount(c.Request().Context(), orderID, discountID)
	if err != nil {
		return ledgerHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewOrderSnapshot(order))
}

// Close обрабатывает POST /api/orders/:id/close.
func (h *OrderHandler) Close(c echo.Context) error {
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req models.CloseOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	order, err := h.ledger.Close(c.Request().Context(), orderID, &req)
	if err != nil {
		return ledgerHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewOrderSnapshot(order))
}

// Cancel обрабатывает POST /api/orders/:id/cancel.
func (h *OrderHandler) Cancel(c echo.Context) error {
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.ledger.Cancel(c.Request().Context(), orderID)
	if err != nil {
		return ledgerHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewOrderSnapshot(order))
}

// Refund обрабатывает POST /api/orders/:id/refund.
func (h *OrderHandler) Refund(c echo.Context) error {
	orderID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req models.RefundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}

	order, err := h.ledger.Refund(c.Request().Context(), orderID, &req)
	if err != nil {
		return ledgerHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, models.NewOrderSnapshot(order))
}

// DailyReport обрабатывает GET /api/reports/daily.
func (h *OrderHandler) DailyReport(c echo.Context) error {
	date := time.Now()
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
		date = parsed
	}

	report, err := h.ledger.DailyReport(c.Request().Context(), date)
	if err != nil {
		return ledgerHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// parseID читает UUID из path-параметра.
func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// ledgerHTTPError переводит ошибки журнала заказов в HTTP-статусы.
func ledgerHTTPError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidPayment),
		errors.Is(err, services.ErrInsufficientCash):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrDuplicateDiscount),
		errors.Is(err, services.ErrDiscountUnavailable),
		errors.Is(err, services.ErrOverRefund):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrOrderNotFound),
		errors.Is(err, storage.ErrDiscountNotFound),
		errors.Is(err, services.ErrUnknownCatalogRef),
		errors.Is(err, services.ErrItemNotInOrder),
		errors.Is(err, services.ErrDiscountNotApplied):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrTerminalState),
		errors.Is(err, services.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, numberpool.ErrExhausted):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no free order numbers")
	case errors.Is(err, services.ErrTimeout):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "storage timeout")
	default:
		c.Logger().Errorf("order operation failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
