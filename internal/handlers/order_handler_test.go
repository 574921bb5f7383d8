package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agamariel/poscore/internal/auth"
	"github.com/agamariel/poscore/internal/models"
	"github.com/agamariel/poscore/internal/numberpool"
	"github.com/agamariel/poscore/internal/services"
	"github.com/agamariel/poscore/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type mockLedgerService struct {
	CreateFunc         func(ctx context.Context, staffID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error)
	AddItemFunc        func(ctx context.Context, orderID uuid.UUID, req *models.OrderItemRequest) (*models.Order, error)
	RemoveItemFunc     func(ctx context.Context, orderID, itemID uuid.UUID) (*models.Order, error)
	ApplyDiscountFunc  func(ctx context.Context, orderID, discountID uuid.UUID) (*models.Order, error)
	RemoveDiscountFunc func(ctx context.Context, orderID, discountID uuid.UUID) (*models.Order, error)
	CloseFunc          func(ctx context.Context, orderID uuid.UUID, req *models.CloseOrderRequest) (*models.Order, error)
	CancelFunc         func(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	RefundFunc         func(ctx context.Context, orderID uuid.UUID, req *models.RefundRequest) (*models.Order, error)
	GetFunc            func(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListFunc           func(ctx context.Context, filter storage.OrderFilter) ([]*models.Order, error)
	DailyReportFunc    func(ctx context.Context, date time.Time) (*models.DailyReport, error)
	ResetNumbersFunc   func(ctx context.Context) error
}

func (m *mockLedgerService) Create(ctx context.Context, staffID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, staffID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockLedgerService) AddItem(ctx context.Context, orderID uuid.UUID, req *models.OrderItemRequest) (*models.Order, error) {
	if m.AddItemFunc != nil {
		return m.AddItemFunc(ctx, orderID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockLedgerService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.Order, error) {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, orderID, itemID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockLedgerService) ApplyDiscount(ctx context.Context, orderID, discountID uuid.UUID) (*models.Order, error) {
	if m.ApplyDiscountFunc != nil {
		return m.ApplyDiscountFunc(ctx, orderID, discountID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockLedgerService) RemoveDiscount(ctx context.Context, orderID, discountID uuid.UUID) (*models.Order, error) {
	if m.RemoveDiscountFunc != nil {
		return m.RemoveDiscountFunc(ctx, orderID, discountID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockLedgerService) Close(ctx context.Context, orderID uuid.UUID, req *models.CloseOrderRequest) (*models.Order, error) {
	if m.CloseFunc != nil {
		return m.CloseFunc(ctx, orderID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockLedgerService) Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, orderID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockLedgerService) Refund(ctx context.Context, orderID uuid.UUID, req *models.RefundRequest) (*models.Order, error) {
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, orderID, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockLedgerService) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, orderID)
	}
	return nil, storage.ErrOrderNotFound
}

func (m *mockLedgerService) List(ctx context.Context, filter storage.OrderFilter) ([]*models.Order, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.Order{}, nil
}

func (m *mockLedgerService) DailyReport(ctx context.Context, date time.Time) (*models.DailyReport, error) {
	if m.DailyReportFunc != nil {
		return m.DailyReportFunc(ctx, date)
	}
	return &models.DailyReport{}, nil
}

func (m *mockLedgerService) ResetNumbers(ctx context.Context) error {
	if m.ResetNumbersFunc != nil {
		return m.ResetNumbersFunc(ctx)
	}
	return nil
}

// testOrder собирает открытый заказ с одной позицией для ответов мока.
func testOrder() *models.Order {
	return &models.Order{
		ID:      uuid.New(),
		Number:  7,
		StaffID: uuid.New(),
		Status:  models.OrderStatusOpen,
		Items: []models.OrderItem{
			{
				ID:        uuid.New(),
				ItemID:    uuid.New(),
				Name:      "Cheeseburger",
				Quantity:  1,
				ItemPrice: decimal.NewFromFloat(9.50),
				LineTotal: decimal.NewFromFloat(9.50),
			},
		},
		Subtotal:  decimal.NewFromFloat(9.50),
		Tax:       decimal.NewFromFloat(0.76),
		Total:     decimal.NewFromFloat(10.26),
		CreatedAt: time.Now(),
	}
}

func checkHandlerStatus(t *testing.T, err error, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if want < 400 {
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.Code != want {
			t.Fatalf("status = %d, want %d", rec.Code, want)
		}
		return
	}
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if he, ok := err.(*echo.HTTPError); ok {
		if he.Code != want {
			t.Fatalf("status = %d, want %d", he.Code, want)
		}
	}
}

func TestOrderHandler_Create(t *testing.T) {
	staffID := uuid.New()

	tests := []struct {
		name           string
		body           string
		setStaff       bool
		mockService    *mockLedgerService
		expectedStatus int
	}{
		{
			name:     "created",
			body:     `{"items":[]}`,
			setStaff: true,
			mockService: &mockLedgerService{
				CreateFunc: func(ctx context.Context, sid uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {
					if sid != staffID {
						t.Errorf("staffID = %v, want %v", sid, staffID)
					}
					return testOrder(), nil
				},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:     "pool exhausted",
			body:     `{"items":[]}`,
			setStaff: true,
			mockService: &mockLedgerService{
				CreateFunc: func(ctx context.Context, sid uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {
					return nil, numberpool.ErrExhausted
				},
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:     "unknown catalog item",
			body:     `{"items":[{"item_id":"a2a54f19-01d2-4f3b-8f5f-111111111111","quantity":1}]}`,
			setStaff: true,
			mockService: &mockLedgerService{
				CreateFunc: func(ctx context.Context, sid uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {
					return nil, services.ErrUnknownCatalogRef
				},
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "missing staff in context",
			body:           `{"items":[]}`,
			setStaff:       false,
			mockService:    &mockLedgerService{},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:     "internal error",
			body:     `{"items":[]}`,
			setStaff: true,
			mockService: &mockLedgerService{
				CreateFunc: func(ctx context.Context, sid uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {
					return nil, errors.New("db error")
				},
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.setStaff {
				c.Set(string(auth.StaffIDKey), staffID)
			}

			handler := NewOrderHandler(tt.mockService)
			err := handler.Create(c)

			checkHandlerStatus(t, err, rec, tt.expectedStatus)
		})
	}
}

func TestOrderHandler_List(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		mockService    *mockLedgerService
		expectedStatus int
		checkBody      string
	}{
		{
			name:  "all orders",
			query: "",
			mockService: &mockLedgerService{
				ListFunc: func(ctx context.Context, filter storage.OrderFilter) ([]*models.Order, error) {
					if filter.Status != nil || filter.Date != nil {
						t.Error("expected empty filter")
					}
					return []*models.Order{testOrder()}, nil
				},
			},
			expectedStatus: http.StatusOK,
			checkBody:      "Cheeseburger",
		},
		{
			name:  "filter by status",
			query: "?status=open",
			mockService: &mockLedgerService{
				ListFunc: func(ctx context.Context, filter storage.OrderFilter) ([]*models.Order, error) {
					if filter.Status == nil || *filter.Status != models.OrderStatusOpen {
						t.Error("expected open status filter")
					}
					return []*models.Order{testOrder()}, nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown status",
			query:          "?status=pending",
			mockService:    &mockLedgerService{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid date",
			query:          "?date=09-12-2025",
			mockService:    &mockLedgerService{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "empty list",
			query: "",
			mockService: &mockLedgerService{
				ListFunc: func(ctx context.Context, filter storage.OrderFilter) ([]*models.Order, error) {
					return []*models.Order{}, nil
				},
			},
			expectedStatus: http.StatusOK,
			checkBody:      "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/orders"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := NewOrderHandler(tt.mockService)
			err := handler.List(c)

			checkHandlerStatus(t, err, rec, tt.expectedStatus)

			if tt.checkBody != "" && !strings.Contains(rec.Body.String(), tt.checkBody) {
				t.Errorf("response body does not contain %q: %s", tt.checkBody, rec.Body.String())
			}
		})
	}
}

func TestOrderHandler_Get(t *testing.T) {
	order := testOrder()

	tests := []struct {
		name           string
		orderID        string
		mockService    *mockLedgerService
		expectedStatus int
	}{
		{
			name:    "found",
			orderID: order.ID.String(),
			mockService: &mockLedgerService{
				GetFunc: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
					return order, nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found",
			orderID:        uuid.New().String(),
			mockService:    &mockLedgerService{},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid id",
			orderID:        "not-a-uuid",
			mockService:    &mockLedgerService{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/orders/"+tt.orderID, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.orderID)

			handler := NewOrderHandler(tt.mockService)
			err := handler.Get(c)

			checkHandlerStatus(t, err, rec, tt.expectedStatus)
		})
	}
}

func TestOrderHandler_AddItem(t *testing.T) {
	orderID := uuid.New()

	tests := []struct {
		name           string
		body           string
		mockService    *mockLedgerService
		expectedStatus int
	}{
		{
			name: "added",
			body: `{"item_id":"a2a54f19-01d2-4f3b-8f5f-111111111111","quantity":2}`,
			mockService: &mockLedgerService{
				AddItemFunc: func(ctx context.Context, id uuid.UUID, req *models.OrderItemRequest) (*models.Order, error) {
					if req.Quantity != 2 {
						t.Errorf("quantity = %d, want 2", req.Quantity)
					}
					return testOrder(), nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "order closed",
			body: `{"item_id":"a2a54f19-01d2-4f3b-8f5f-111111111111","quantity":1}`,
			mockService: &mockLedgerService{
				AddItemFunc: func(ctx context.Context, id uuid.UUID, req *models.OrderItemRequest) (*models.Order, error) {
					return nil, services.ErrInvalidState
				},
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "zero quantity",
			body: `{"item_id":"a2a54f19-01d2-4f3b-8f5f-111111111111","quantity":0}`,
			mockService: &mockLedgerService{
				AddItemFunc: func(ctx context.Context, id uuid.UUID, req *models.OrderItemRequest) (*models.Order, error) {
					return nil, services.ErrInvalidAmount
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "lock conflict",
			body: `{"item_id":"a2a54f19-01d2-4f3b-8f5f-111111111111","quantity":1}`,
			mockService: &mockLedgerService{
				AddItemFunc: func(ctx context.Context, id uuid.UUID, req *models.OrderItemRequest) (*models.Order, error) {
					return nil, services.ErrConflict
				},
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "storage timeout",
			body: `{"item_id":"a2a54f19-01d2-4f3b-8f5f-111111111111","quantity":1}`,
			mockService: &mockLedgerService{
				AddItemFunc: func(ctx context.Context, id uuid.UUID, req *models.OrderItemRequest) (*models.Order, error) {
					return nil, services.ErrTimeout
				},
			},
			expectedStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/orders/"+orderID.String()+"/items", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(orderID.String())

			handler := NewOrderHandler(tt.mockService)
			err := handler.AddItem(c)

			checkHandlerStatus(t, err, rec, tt.expectedStatus)
		})
	}
}

func TestOrderHandler_RemoveItem(t *testing.T) {
	orderID := uuid.New()
	itemID := uuid.New()

	tests := []struct {
		name           string
		itemID         string
		mockService    *mockLedgerService
		expectedStatus int
	}{
		{
			name:   "removed",
			itemID: itemID.String(),
			mockService: &mockLedgerService{
				RemoveItemFunc: func(ctx context.Context, oid, iid uuid.UUID) (*models.Order, error) {
					if iid != itemID {
						t.Errorf("itemID = %v, want %v", iid, itemID)
					}
					return testOrder(), nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "not in order",
			itemID: uuid.New().String(),
			mockService: &mockLedgerService{
				RemoveItemFunc: func(ctx context.Context, oid, iid uuid.UUID) (*models.Order, error) {
					return nil, services.ErrItemNotInOrder
				},
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid item id",
			itemID:         "bogus",
			mockService:    &mockLedgerService{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodDelete, "/api/orders/"+orderID.String()+"/items/"+tt.itemID, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id", "itemID")
			c.SetParamValues(orderID.String(), tt.itemID)

			handler := NewOrderHandler(tt.mockService)
			err := handler.RemoveItem(c)

			checkHandlerStatus(t, err, rec, tt.expectedStatus)
		})
	}
}

func TestOrderHandler_ApplyDiscount(t *testing.T) {
	orderID := uuid.New()
	discountID := uuid.New()

	tests := []struct {
		name           string
		body           string
		mockService    *mockLedgerService
		expectedStatus int
	}{
		{
			name: "applied",
			body: `{"discount_id":"` + discountID.String() + `"}`,
			mockService: &mockLedgerService{
				ApplyDiscountFunc: func(ctx context.Context, oid, did uuid.UUID) (*models.Order, error) {
					if did != discountID {
						t.Errorf("discountID = %v, want %v", did, discountID)
					}
					return testOrder(), nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "duplicate discount",
			body: `{"discount_id":"` + discountID.String() + `"}`,
			mockService: &mockLedgerService{
				ApplyDiscountFunc: func(ctx context.Context, oid, did uuid.UUID) (*models.Order, error) {
					return nil, storage.ErrDuplicateDiscount
				},
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "inactive discount",
			body: `{"discount_id":"` + discountID.String() + `"}`,
			mockService: &mockLedgerService{
				ApplyDiscountFunc: func(ctx context.Context, oid, did uuid.UUID) (*models.Order, error) {
					return nil, services.ErrDiscountUnavailable
				},
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "missing discount id",
			body:           `{}`,
			mockService:    &mockLedgerService{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/orders/"+orderID.String()+"/discounts", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(orderID.String())

			handler := NewOrderHandler(tt.mockService)
			err := handler.ApplyDiscount(c)

			checkHandlerStatus(t, err, rec, tt.expectedStatus)
		})
	}
}

func TestOrderHandler_Close(t *testing.T) {
	orderID := uuid.New()

	closedOrder := testOrder()
	closedOrder.Status = models.OrderStatusClosed
	method := models.PaymentMethodCash
	closedOrder.PaymentMethod = &method

	tests := []struct {
		name           string
		body           string
		mockService    *mockLedgerService
		expectedStatus int
	}{
		{
			name: "closed with cash",
			body: `{"payment_method":"cash","cash_tendered":20.00}`,
			mockService: &mockLedgerService{
				CloseFunc: func(ctx context.Context, oid uuid.UUID, req *models.CloseOrderRequest) (*models.Order, error) {
					if req.PaymentMethod != models.PaymentMethodCash {
						t.Errorf("payment method = %v, want cash", req.PaymentMethod)
					}
					return closedOrder, nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "insufficient cash",
			body: `{"payment_method":"cash","cash_tendered":1.00}`,
			mockService: &mockLedgerService{
				CloseFunc: func(ctx context.Context, oid uuid.UUID, req *models.CloseOrderRequest) (*models.Order, error) {
					return nil, services.ErrInsufficientCash
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "empty order",
			body: `{"payment_method":"card"}`,
			mockService: &mockLedgerService{
				CloseFunc: func(ctx context.Context, oid uuid.UUID, req *models.CloseOrderRequest) (*models.Order, error) {
					return nil, services.ErrEmptyOrder
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "already closed",
			body: `{"payment_method":"card"}`,
			mockService: &mockLedgerService{
				CloseFunc: func(ctx context.Context, oid uuid.UUID, req *models.CloseOrderRequest) (*models.Order, error) {
					return nil, services.ErrTerminalState
				},
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "unknown payment method",
			body: `{"payment_method":"crypto"}`,
			mockService: &mockLedgerService{
				CloseFunc: func(ctx context.Context, oid uuid.UUID, req *models.CloseOrderRequest) (*models.Order, error) {
					return nil, services.ErrInvalidPayment
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/orders/"+orderID.String()+"/close", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(orderID.String())

			handler := NewOrderHandler(tt.mockService)
			err := handler.Close(c)

			checkHandlerStatus(t, err, rec, tt.expectedStatus)
		})
	}
}

func TestOrderHandler_Cancel(t *testing.T) {
	orderID := uuid.New()

	cancelledOrder := testOrder()
	cancelledOrder.Status = models.OrderStatusCancelled

	tests := []struct {
		name           string
		mockService    *mockLedgerService
		expectedStatus int
		checkBody      string
	}{
		{
			name: "cancelled",
			mockService: &mockLedgerService{
				CancelFunc: func(ctx context.Context, oid uuid.UUID) (*models.Order, error) {
					if oid != orderID {
						t.Errorf("order id = %v, want %v", oid, orderID)
					}
					return cancelledOrder, nil
				},
			},
			expectedStatus: http.StatusOK,
			checkBody:      `"cancelled"`,
		},
		{
			name: "already closed",
			mockService: &mockLedgerService{
				CancelFunc: func(ctx context.Context, oid uuid.UUID) (*models.Order, error) {
					return nil, services.ErrInvalidState
				},
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "already cancelled",
			mockService: &mockLedgerService{
				CancelFunc: func(ctx context.Context, oid uuid.UUID) (*models.Order, error) {
					return nil, services.ErrTerminalState
				},
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "not found",
			mockService: &mockLedgerService{
				CancelFunc: func(ctx context.Context, oid uuid.UUID) (*models.Order, error) {
					return nil, storage.ErrOrderNotFound
				},
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/orders/"+orderID.String()+"/cancel", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(orderID.String())

			handler := NewOrderHandler(tt.mockService)
			err := handler.Cancel(c)

			checkHandlerStatus(t, err, rec, tt.expectedStatus)

			if tt.checkBody != "" && !strings.Contains(rec.Body.String(), tt.checkBody) {
				t.Errorf("response body does not contain %q: %s", tt.checkBody, rec.Body.String())
			}
		})
	}
}

func TestOrderHandler_Refund(t *testing.T) {
	orderID := uuid.New()

	refundedOrder := testOrder()
	refundedOrder.Status = models.OrderStatusRefunded
	refundedOrder.RefundedAmount = refundedOrder.Total

	tests := []struct {
		name           string
		body           string
		mockService    *mockLedgerService
		expectedStatus int
	}{
		{
			name: "full refund",
			body: `{"amount":10.26,"reason":"cold food"}`,
			mockService: &mockLedgerService{
				RefundFunc: func(ctx context.Context, oid uuid.UUID, req *models.RefundRequest) (*models.Order, error) {
					if req.Reason != "cold food" {
						t.Errorf("reason = %q, want %q", req.Reason, "cold food")
					}
					return refundedOrder, nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "over refund",
			body: `{"amount":100.00}`,
			mockService: &mockLedgerService{
				RefundFunc: func(ctx context.Context, oid uuid.UUID, req *models.RefundRequest) (*models.Order, error) {
					return nil, services.ErrOverRefund
				},
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "order still open",
			body: `{"amount":5.00}`,
			mockService: &mockLedgerService{
				RefundFunc: func(ctx context.Context, oid uuid.UUID, req *models.RefundRequest) (*models.Order, error) {
					return nil, services.ErrInvalidState
				},
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "non-positive amount",
			body: `{"amount":0}`,
			mockService: &mockLedgerService{
				RefundFunc: func(ctx context.Context, oid uuid.UUID, req *models.RefundRequest) (*models.Order, error) {
					return nil, services.ErrInvalidAmount
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/orders/"+orderID.String()+"/refund", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(orderID.String())

			handler := NewOrderHandler(tt.mockService)
			err := handler.Refund(c)

			checkHandlerStatus(t, err, rec, tt.expectedStatus)
		})
	}
}

func TestOrderHandler_DailyReport(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		mockService    *mockLedgerService
		expectedStatus int
		checkBody      string
	}{
		{
			name:  "explicit date",
			query: "?date=2026-08-25",
			mockService: &mockLedgerService{
				DailyReportFunc: func(ctx context.Context, date time.Time) (*models.DailyReport, error) {
					if date.Format("2006-01-02") != "2026-08-25" {
						t.Errorf("date = %v, want 2026-08-25", date)
					}
					return &models.DailyReport{Date: "2026-08-25", OrderCount: 3, GrossTotal: 120.50}, nil
				},
			},
			expectedStatus: http.StatusOK,
			checkBody:      `"order_count":3`,
		},
		{
			name:  "defaults to today",
			query: "",
			mockService: &mockLedgerService{
				DailyReportFunc: func(ctx context.Context, date time.Time) (*models.DailyReport, error) {
					today := time.Now().Format("2006-01-02")
					if date.Format("2006-01-02") != today {
						t.Errorf("date = %v, want %v", date, today)
					}
					return &models.DailyReport{Date: today}, nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid date",
			query:          "?date=25.08.2026",
			mockService:    &mockLedgerService{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/reports/daily"+tt.query, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := NewOrderHandler(tt.mockService)
			err := handler.DailyReport(c)

			checkHandlerStatus(t, err, rec, tt.expectedStatus)

			if tt.checkBody != "" && !strings.Contains(rec.Body.String(), tt.checkBody) {
				t.Errorf("response body does not contain %q: %s", tt.checkBody, rec.Body.String())
			}
		})
	}
}
