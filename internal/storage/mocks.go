package storage

import (
	"context"
	"time"

	"github.com/agamariel/poscore/internal/models"
	"github.com/google/uuid"
)

// MockOrderStorage - мок для тестирования (экспортируемый для использования в других пакетах)
type MockOrderStorage struct {
	CreateFunc           func(ctx context.Context, order *models.Order, nextNumber int) error
	GetFunc              func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateFunc           func(ctx context.Context, order *models.Order, transition *models.OrderTransition) error
	ListFunc             func(ctx context.Context, filter OrderFilter) ([]*models.Order, error)
	OpenOrdersFunc       func(ctx context.Context) ([]*models.Order, error)
	DailyReportFunc      func(ctx context.Context, date time.Time) (*models.DailyReport, error)
	ArchiveCompletedFunc func(ctx context.Context, olderThan time.Time) (int, error)
}

func (m *MockOrderStorage) Create(ctx context.Context, order *models.Order, nextNumber int) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order, nextNumber)
	}
	return nil
}

func (m *MockOrderStorage) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, ErrOrderNotFound
}

func (m *MockOrderStorage) Update(ctx context.Context, order *models.Order, transition *models.OrderTransition) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, order, transition)
	}
	if transition != nil {
		order.History = append(order.History, *transition)
	}
	return nil
}

func (m *MockOrderStorage) List(ctx context.Context, filter OrderFilter) ([]*models.Order, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.Order{}, nil
}

func (m *MockOrderStorage) OpenOrders(ctx context.Context) ([]*models.Order, error) {
	if m.OpenOrdersFunc != nil {
		return m.OpenOrdersFunc(ctx)
	}
	return []*models.Order{}, nil
}

func (m *MockOrderStorage) DailyReport(ctx context.Context, date time.Time) (*models.DailyReport, error) {
	if m.DailyReportFunc != nil {
		return m.DailyReportFunc(ctx, date)
	}
	return &models.DailyReport{Date: date.Format("2006-01-02")}, nil
}

func (m *MockOrderStorage) ArchiveCompleted(ctx context.Context, olderThan time.Time) (int, error) {
	if m.ArchiveCompletedFunc != nil {
		return m.ArchiveCompletedFunc(ctx, olderThan)
	}
	return 0, nil
}

// MockCatalogStorage - мок каталога.
type MockCatalogStorage struct {
	ResolveItemFunc func(ctx context.Context, id uuid.UUID) (*models.CatalogItemRef, error)
	ResolveModFunc  func(ctx context.Context, id uuid.UUID) (*models.CatalogModRef, error)
	ListMenuFunc    func(ctx context.Context) ([]*models.Category, error)
}

func (m *MockCatalogStorage) ResolveItem(ctx context.Context, id uuid.UUID) (*models.CatalogItemRef, error) {
	if m.ResolveItemFunc != nil {
		return m.ResolveItemFunc(ctx, id)
	}
	return nil, ErrItemNotFound
}

func (m *MockCatalogStorage) ResolveMod(ctx context.Context, id uuid.UUID) (*models.CatalogModRef, error) {
	if m.ResolveModFunc != nil {
		return m.ResolveModFunc(ctx, id)
	}
	return nil, ErrModNotFound
}

func (m *MockCatalogStorage) ListMenu(ctx context.Context) ([]*models.Category, error) {
	if m.ListMenuFunc != nil {
		return m.ListMenuFunc(ctx)
	}
	return []*models.Category{}, nil
}

// MockDiscountStorage - мок определений скидок.
type MockDiscountStorage struct {
	GetFunc        func(ctx context.Context, id uuid.UUID) (*models.Discount, error)
	ListGroupsFunc func(ctx context.Context) ([]*models.DiscountGroup, error)
}

func (m *MockDiscountStorage) Get(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, ErrDiscountNotFound
}

func (m *MockDiscountStorage) ListGroups(ctx context.Context) ([]*models.DiscountGroup, error) {
	if m.ListGroupsFunc != nil {
		return m.ListGroupsFunc(ctx)
	}
	return []*models.DiscountGroup{}, nil
}

// MockSettingsStorage - мок настроек.
type MockSettingsStorage struct {
	GetCardFeeFunc        func(ctx context.Context) (*models.CardFeeSettings, error)
	UpdateCardFeeFunc     func(ctx context.Context, settings *models.CardFeeSettings) error
	GetSystemFunc         func(ctx context.Context) (*models.SystemSettings, error)
	ResetOrderNumbersFunc func(ctx context.Context, at time.Time) error
}

func (m *MockSettingsStorage) GetCardFee(ctx context.Context) (*models.CardFeeSettings, error) {
	if m.GetCardFeeFunc != nil {
		return m.GetCardFeeFunc(ctx)
	}
	return &models.CardFeeSettings{}, nil
}

func (m *MockSettingsStorage) UpdateCardFee(ctx context.Context, settings *models.CardFeeSettings) error {
	if m.UpdateCardFeeFunc != nil {
		return m.UpdateCardFeeFunc(ctx, settings)
	}
	return nil
}

func (m *MockSettingsStorage) GetSystem(ctx context.Context) (*models.SystemSettings, error) {
	if m.GetSystemFunc != nil {
		return m.GetSystemFunc(ctx)
	}
	return &models.SystemSettings{NextOrderNumber: 1}, nil
}

func (m *MockSettingsStorage) ResetOrderNumbers(ctx context.Context, at time.Time) error {
	if m.ResetOrderNumbersFunc != nil {
		return m.ResetOrderNumbersFunc(ctx, at)
	}
	return nil
}

// MockStaffStorage - мок сотрудников и смен.
type MockStaffStorage struct {
	CreateFunc        func(ctx context.Context, staff *models.Staff) error
	GetByIDFunc       func(ctx context.Context, id uuid.UUID) (*models.Staff, error)
	ListAvailableFunc func(ctx context.Context) ([]*models.Staff, error)
	GetOpenShiftFunc  func(ctx context.Context, staffID uuid.UUID) (*models.Shift, error)
	ClockInFunc       func(ctx context.Context, staff *models.Staff) (*models.Shift, error)
	ClockOutFunc      func(ctx context.Context, staffID, shiftID uuid.UUID, at time.Time) error
	StartBreakFunc    func(ctx context.Context, staffID, shiftID uuid.UUID, at time.Time) (*models.ShiftBreak, error)
	EndBreakFunc      func(ctx context.Context, staffID, breakID uuid.UUID, at time.Time) error
}

func (m *MockStaffStorage) Create(ctx context.Context, staff *models.Staff) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, staff)
	}
	return nil
}

func (m *MockStaffStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, ErrStaffNotFound
}

func (m *MockStaffStorage) ListAvailable(ctx context.Context) ([]*models.Staff, error) {
	if m.ListAvailableFunc != nil {
		return m.ListAvailableFunc(ctx)
	}
	return []*models.Staff{}, nil
}

func (m *MockStaffStorage) GetOpenShift(ctx context.Context, staffID uuid.UUID) (*models.Shift, error) {
	if m.GetOpenShiftFunc != nil {
		return m.GetOpenShiftFunc(ctx, staffID)
	}
	return nil, ErrNoOpenShift
}

func (m *MockStaffStorage) ClockIn(ctx context.Context, staff *models.Staff) (*models.Shift, error) {
	if m.ClockInFunc != nil {
		return m.ClockInFunc(ctx, staff)
	}
	return &models.Shift{ID: uuid.New(), StaffID: staff.ID, ClockIn: time.Now(), HourlyRate: staff.HourlyRate}, nil
}

func (m *MockStaffStorage) ClockOut(ctx context.Context, staffID, shiftID uuid.UUID, at time.Time) error {
	if m.ClockOutFunc != nil {
		return m.ClockOutFunc(ctx, staffID, shiftID, at)
	}
	return nil
}

func (m *MockStaffStorage) StartBreak(ctx context.Context, staffID, shiftID uuid.UUID, at time.Time) (*models.ShiftBreak, error) {
	if m.StartBreakFunc != nil {
		return m.StartBreakFunc(ctx, staffID, shiftID, at)
	}
	return &models.ShiftBreak{ID: uuid.New(), ShiftID: shiftID, Start: at}, nil
}

func (m *MockStaffStorage) EndBreak(ctx context.Context, staffID, breakID uuid.UUID, at time.Time) error {
	if m.EndBreakFunc != nil {
		return m.EndBreakFunc(ctx, staffID, breakID, at)
	}
	return nil
}
