package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/agamariel/poscore/internal/broadcast"
	"github.com/agamariel/poscore/internal/models"
	"github.com/agamariel/poscore/internal/numberpool"
	"github.com/agamariel/poscore/internal/pricing"
	"github.com/agamariel/poscore/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyOrder          = errors.New("order has no items")
	ErrInvalidState        = errors.New("operation not allowed in current order status")
	ErrTerminalState       = errors.New("order is in a terminal status")
	ErrOverRefund          = errors.New("refund exceeds remaining refundable amount")
	ErrConflict            = errors.New("order is busy, try again")
	ErrTimeout             = errors.New("storage operation timed out")
	ErrUnknownCatalogRef   = errors.New("unknown or unavailable catalog reference")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidPayment      = errors.New("unknown payment method")
	ErrInsufficientCash    = errors.New("cash tendered is less than order total")
	ErrDiscountUnavailable = errors.New("discount is not available")
	ErrItemNotInOrder      = errors.New("item is not part of the order")
	ErrDiscountNotApplied  = errors.New("discount is not applied to the order")
)

const (
	defaultLockWait       = 3 * time.Second
	defaultStorageTimeout = 5 * time.Second
)

// LedgerService определяет операции над журналом заказов. Каждая мутация
// атомарна: валидация статуса, пересчёт итогов и запись выполняются под
// эксклюзивной блокировкой заказа.
type LedgerService interface {
	Create(ctx context.Context, staffID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error)
	AddItem(ctx context.Context, orderID uuid.UUID, req *models.OrderItemRequest) (*models.Order, error)
	RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.Order, error)
	ApplyDiscount(ctx context.Context, orderID, discountID uuid.UUID) (*models.Order, error)
	RemoveDiscount(ctx context.Context, orderID, discountID uuid.UUID) (*models.Order, error)
	Close(ctx context.Context, orderID uuid.UUID, req *models.CloseOrderRequest) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Refund(ctx context.Context, orderID uuid.UUID, req *models.RefundRequest) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter storage.OrderFilter) ([]*models.Order, error)
	DailyReport(ctx context.Context, date time.Time) (*models.DailyReport, error)
	ResetNumbers(ctx context.Context) error
}

// LedgerServiceImpl реализует LedgerService.
type LedgerServiceImpl struct {
	orders      storage.OrderStorage
	catalog     storage.CatalogStorage
	discounts   storage.DiscountStorage
	settings    storage.SettingsStorage
	pool        *numberpool.Pool
	broadcaster *broadcast.Broadcaster
	taxRate     decimal.Decimal

	lockWait       time.Duration
	storageTimeout time.Duration
	locks          *lockTable
	// resetMu упорядочивает сброс нумерации относительно создания заказов:
	// пока хоть один Create фиксирует транзакцию со старым значением
	// счётчика, сброс ждёт, и наоборот.
	resetMu sync.RWMutex
	logger  *log.Logger
}

// NewLedgerService создаёт сервис журнала заказов.
func NewLedgerService(
	orders storage.OrderStorage,
	catalog storage.CatalogStorage,
	discounts storage.DiscountStorage,
	settings storage.SettingsStorage,
	pool *numberpool.Pool,
	broadcaster *broadcast.Broadcaster,
	taxRate decimal.Decimal,
	lockWait, storageTimeout time.Duration,
	logger *log.Logger,
) *LedgerServiceImpl {
	if lockWait <= 0 {
		lockWait = defaultLockWait
	}
	if storageTimeout <= 0 {
		storageTimeout = defaultStorageTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &LedgerServiceImpl{
		orders:         orders,
		catalog:        catalog,
		discounts:      discounts,
		settings:       settings,
		pool:           pool,
		broadcaster:    broadcaster,
		taxRate:        taxRate,
		lockWait:       lockWait,
		storageTimeout: storageTimeout,
		locks:          newLockTable(),
		logger:         logger,
	}
}

// RestoreNumbers восстанавливает распределитель номеров после рестарта:
// занятые номера берутся из открытых заказов, указатель - из настроек.
func (s *LedgerServiceImpl) RestoreNumbers(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	sys, err := s.settings.GetSystem(opCtx)
	if err != nil {
		return storageErr("load system settings", err)
	}
	open, err := s.orders.OpenOrders(opCtx)
	if err != nil {
		return storageErr("load open orders", err)
	}

	inFlight := make([]int, 0, len(open))
	for _, o := range open {
		inFlight = append(inFlight, o.Number)
	}
	s.pool.Restore(sys.NextOrderNumber, inFlight)
	s.logger.Printf("number pool restored: next=%d, in flight=%d", sys.NextOrderNumber, len(inFlight))
	return nil
}

// Create открывает новый заказ, выделяя ему номер и снимая позиции каталога.
func (s *LedgerServiceImpl) Create(ctx context.Context, staffID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {
	s.resetMu.RLock()
	defer s.resetMu.RUnlock()

	number, err := s.pool.Allocate()
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:      uuid.New(),
		Number:  number,
		StaffID: staffID,
		Status:  models.OrderStatusOpen,
		Notes:   req.Notes,
	}
	for i := range req.Items {
		item, err := s.buildItem(ctx, order.ID, &req.Items[i])
		if err != nil {
			s.pool.Release(number)
			return nil, err
		}
		order.Items = append(order.Items, *item)
	}

	if err := s.reprice(ctx, order, decimal.Zero, nil); err != nil {
		s.pool.Release(number)
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	if err := s.orders.Create(opCtx, order, s.pool.Next()); err != nil {
		s.pool.Release(number)
		return nil, storageErr("create order", err)
	}

	s.publish(order)
	s.logger.Printf("order %s opened with number %d", order.ID, order.Number)
	return order, nil
}

// AddItem добавляет позицию в открытый заказ и пересчитывает итоги.
func (s *LedgerServiceImpl) AddItem(ctx context.Context, orderID uuid.UUID, req *models.OrderItemRequest) (*models.Order, error) {
	return s.mutate(ctx, orderID, func(order *models.Order) (*models.OrderTransition, error) {
		if err := requireMutable(order); err != nil {
			return nil, err
		}
		item, err := s.buildItem(ctx, order.ID, req)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, *item)
		return nil, s.reprice(ctx, order, decimal.Zero, nil)
	})
}

// RemoveItem удаляет позицию из открытого заказа и пересчитывает итоги.
func (s *LedgerServiceImpl) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.Order, error) {
	return s.mutate(ctx, orderID, func(order *models.Order) (*models.OrderTransition, error) {
		if err := requireMutable(order); err != nil {
			return nil, err
		}
		idx := -1
		for i := range order.Items {
			if order.Items[i].ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, ErrItemNotInOrder
		}
		order.Items = append(order.Items[:idx], order.Items[idx+1:]...)
		return nil, s.reprice(ctx, order, decimal.Zero, nil)
	})
}

// ApplyDiscount применяет скидку к открытому заказу. Повторное применение
// той же скидки отклоняется.
func (s *LedgerServiceImpl) ApplyDiscount(ctx context.Context, orderID, discountID uuid.UUID) (*models.Order, error) {
	return s.mutate(ctx, orderID, func(order *models.Order) (*models.OrderTransition, error) {
		if err := requireMutable(order); err != nil {
			return nil, err
		}
		if order.HasDiscount(discountID) {
			return nil, storage.ErrDuplicateDiscount
		}

		opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
		defer cancel()
		def, err := s.discounts.Get(opCtx, discountID)
		if err != nil {
			return nil, storageErr("resolve discount", err)
		}
		if !def.IsActive() {
			return nil, ErrDiscountUnavailable
		}

		order.Discounts = append(order.Discounts, models.OrderDiscount{
			ID:           uuid.New(),
			OrderID:      order.ID,
			DiscountID:   def.ID,
			Name:         def.Name,
			IsPercentage: def.IsPercentage,
			Value:        def.Value,
		})
		return nil, s.reprice(ctx, order, decimal.Zero, nil)
	})
}

// RemoveDiscount снимает ранее применённую скидку.
func (s *LedgerServiceImpl) RemoveDiscount(ctx context.Context, orderID, discountID uuid.UUID) (*models.Order, error) {
	return s.mutate(ctx, orderID, func(order *models.Order) (*models.OrderTransition, error) {
		if err := requireMutable(order); err != nil {
			return nil, err
		}
		idx := -1
		for i := range order.Discounts {
			if order.Discounts[i].DiscountID == discountID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, ErrDiscountNotApplied
		}
		order.Discounts = append(order.Discounts[:idx], order.Discounts[idx+1:]...)
		return nil, s.reprice(ctx, order, decimal.Zero, nil)
	})
}

// Close закрывает заказ с итогом оплаты, полученным от кассы. Номер заказа
// возвращается в пул после фиксации.
func (s *LedgerServiceImpl) Close(ctx context.Context, orderID uuid.UUID, req *models.CloseOrderRequest) (*models.Order, error) {
	order, err := s.mutate(ctx, orderID, func(order *models.Order) (*models.OrderTransition, error) {
		if order.Status.IsTerminal() {
			return nil, ErrTerminalState
		}
		if order.Status != models.OrderStatusOpen {
			return nil, ErrInvalidState
		}
		if len(order.Items) == 0 {
			return nil, ErrEmptyOrder
		}

		method := req.PaymentMethod
		if method != models.PaymentMethodCash && method != models.PaymentMethodCard {
			return nil, ErrInvalidPayment
		}

		tip := decimal.NewFromFloat(req.Tip)
		if tip.IsNegative() {
			return nil, ErrInvalidAmount
		}
		if err := s.reprice(ctx, order, tip, &method); err != nil {
			return nil, err
		}

		if method == models.PaymentMethodCash {
			if req.CashTendered == nil {
				return nil, ErrInsufficientCash
			}
			tendered := decimal.NewFromFloat(*req.CashTendered)
			if tendered.LessThan(order.Total) {
				return nil, ErrInsufficientCash
			}
			change := tendered.Sub(order.Total)
			order.CashTendered = &tendered
			order.CashChange = &change
		}

		now := time.Now()
		order.Status = models.OrderStatusClosed
		order.PaymentMethod = &method
		order.PaymentRef = req.PaymentReference
		order.ClosedAt = &now
		return &models.OrderTransition{Status: models.OrderStatusClosed, At: now}, nil
	})
	if err != nil {
		return nil, err
	}

	s.pool.Release(order.Number)
	s.logger.Printf("order %s closed, number %d released", order.ID, order.Number)
	return order, nil
}

// Cancel отменяет открытый заказ до оплаты. Номер заказа сразу
// возвращается в пул, отменённый заказ переходов не допускает.
func (s *LedgerServiceImpl) Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.mutate(ctx, orderID, func(order *models.Order) (*models.OrderTransition, error) {
		if order.Status.IsTerminal() {
			return nil, ErrTerminalState
		}
		if order.Status != models.OrderStatusOpen {
			return nil, ErrInvalidState
		}
		order.Status = models.OrderStatusCancelled
		return &models.OrderTransition{Status: models.OrderStatusCancelled, At: time.Now()}, nil
	})
	if err != nil {
		return nil, err
	}

	s.pool.Release(order.Number)
	s.logger.Printf("order %s cancelled, number %d released", order.ID, order.Number)
	return order, nil
}

// Refund проводит полный или частичный возврат по закрытому заказу.
// Возвраты накапливаются; выход за остаток отклоняется.
func (s *LedgerServiceImpl) Refund(ctx context.Context, orderID uuid.UUID, req *models.RefundRequest) (*models.Order, error) {
	return s.mutate(ctx, orderID, func(order *models.Order) (*models.OrderTransition, error) {
		if order.Status.IsTerminal() {
			return nil, ErrTerminalState
		}
		if !order.Status.CanRefund() {
			return nil, ErrInvalidState
		}

		amount := decimal.NewFromFloat(req.Amount).Round(2)
		if !amount.IsPositive() {
			return nil, ErrInvalidAmount
		}
		if amount.GreaterThan(order.RemainingRefundable()) {
			return nil, ErrOverRefund
		}

		now := time.Now()
		order.RefundedAmount = order.RefundedAmount.Add(amount)
		order.RefundRef = req.RefundReference
		order.RefundReason = req.Reason
		if order.RemainingRefundable().IsZero() {
			order.Status = models.OrderStatusRefunded
			order.RefundedAt = &now
		} else {
			order.Status = models.OrderStatusPartiallyRefunded
		}
		return &models.OrderTransition{Status: order.Status, At: now}, nil
	})
}

// Get возвращает заказ со всеми позициями, скидками и историей статусов.
func (s *LedgerServiceImpl) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	order, err := s.orders.Get(opCtx, orderID)
	if err != nil {
		return nil, storageErr("get order", err)
	}
	return order, nil
}

// List возвращает заказы по фильтру статуса и даты.
func (s *LedgerServiceImpl) List(ctx context.Context, filter storage.OrderFilter) ([]*models.Order, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	orders, err := s.orders.List(opCtx, filter)
	if err != nil {
		return nil, storageErr("list orders", err)
	}
	return orders, nil
}

// DailyReport возвращает агрегат по завершённым заказам за день, включая
// уже заархивированные.
func (s *LedgerServiceImpl) DailyReport(ctx context.Context, date time.Time) (*models.DailyReport, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	report, err := s.orders.DailyReport(opCtx, date)
	if err != nil {
		return nil, storageErr("daily report", err)
	}
	return report, nil
}

// ResetNumbers архивирует завершённые заказы и начинает нумерацию с 1.
// Номера открытых заказов остаются занятыми. Выполняется под эксклюзивной
// resetMu: никакой Create не зафиксирует старое значение счётчика поверх
// сброшенного.
func (s *LedgerServiceImpl) ResetNumbers(ctx context.Context) error {
	s.resetMu.Lock()
	defer s.resetMu.Unlock()

	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	now := time.Now()
	archived, err := s.orders.ArchiveCompleted(opCtx, now)
	if err != nil {
		return storageErr("archive completed orders", err)
	}
	if err := s.settings.ResetOrderNumbers(opCtx, now); err != nil {
		return storageErr("persist number reset", err)
	}
	s.pool.Reset()
	s.logger.Printf("order numbers reset, %d orders archived", archived)
	return nil
}

// mutate выполняет изменение заказа под его блокировкой: загрузка,
// применение, запись и публикация снимка до снятия блокировки, чтобы
// снимки одного заказа уходили подписчикам в порядке фиксации.
func (s *LedgerServiceImpl) mutate(ctx context.Context, orderID uuid.UUID, apply func(*models.Order) (*models.OrderTransition, error)) (*models.Order, error) {
	unlock, err := s.locks.acquire(ctx, orderID, s.lockWait)
	if err != nil {
		return nil, err
	}
	defer unlock()

	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	order, err := s.orders.Get(opCtx, orderID)
	if err != nil {
		return nil, storageErr("load order", err)
	}

	transition, err := apply(order)
	if err != nil {
		return nil, err
	}

	if err := s.orders.Update(opCtx, order, transition); err != nil {
		return nil, storageErr("persist order", err)
	}

	s.publish(order)
	return order, nil
}

// buildItem разрешает ссылки на каталог и снимает текущие название и цены
// в позицию заказа.
func (s *LedgerServiceImpl) buildItem(ctx context.Context, orderID uuid.UUID, req *models.OrderItemRequest) (*models.OrderItem, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidAmount
	}

	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	ref, err := s.catalog.ResolveItem(opCtx, req.ItemID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil, ErrUnknownCatalogRef
		}
		return nil, storageErr("resolve item", err)
	}
	if !ref.Available {
		return nil, ErrUnknownCatalogRef
	}

	item := &models.OrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		ItemID:    ref.ID,
		Name:      ref.Name,
		Quantity:  req.Quantity,
		ItemPrice: ref.Price,
		ModsPrice: decimal.Zero,
		Notes:     req.Notes,
	}
	for _, modID := range req.ModIDs {
		mod, err := s.catalog.ResolveMod(opCtx, modID)
		if err != nil {
			if errors.Is(err, storage.ErrModNotFound) {
				return nil, ErrUnknownCatalogRef
			}
			return nil, storageErr("resolve mod", err)
		}
		if !mod.Available {
			return nil, ErrUnknownCatalogRef
		}
		item.Mods = append(item.Mods, models.OrderItemMod{
			ID:    uuid.New(),
			ModID: mod.ID,
			Name:  mod.Name,
			Price: mod.Price,
		})
		item.ModsPrice = item.ModsPrice.Add(mod.Price)
	}

	item.LineTotal = pricing.LineTotal(item)
	return item, nil
}

// reprice пересчитывает денежные поля заказа из текущего состава.
func (s *LedgerServiceImpl) reprice(ctx context.Context, order *models.Order, tip decimal.Decimal, method *models.PaymentMethod) error {
	fee, err := s.feeConfig(ctx)
	if err != nil {
		return err
	}

	res := pricing.Price(order.Items, order.Discounts, fee, tip, s.taxRate, method)
	for i := range order.Discounts {
		order.Discounts[i].AmountApplied = res.DiscountAmounts[i]
	}
	order.Subtotal = res.Subtotal
	order.DiscountTotal = res.DiscountTotal
	order.Tax = res.Tax
	order.CardFee = res.CardFee
	order.Tip = res.Tip
	order.Total = res.Total
	return nil
}

// feeConfig читает настройки комиссии. Процент хранится в процентах
// (2.5 для 2.5%) и переводится в долю.
func (s *LedgerServiceImpl) feeConfig(ctx context.Context) (pricing.FeeConfig, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	settings, err := s.settings.GetCardFee(opCtx)
	if err != nil {
		return pricing.FeeConfig{}, storageErr("load card fee settings", err)
	}
	return pricing.FeeConfig{
		Enabled:    settings.Enabled,
		Percentage: settings.Percentage.Div(decimal.NewFromInt(100)),
		MinFee:     settings.MinFee,
	}, nil
}

// publish отдаёт снимок заказа подписчикам. Вызывается только после
// успешной фиксации.
func (s *LedgerServiceImpl) publish(order *models.Order) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(models.NewOrderSnapshot(order))
}

// requireMutable проверяет, что состав заказа ещё можно менять.
func requireMutable(order *models.Order) error {
	if order.Status.IsTerminal() {
		return ErrTerminalState
	}
	if !order.Status.CanMutateItems() {
		return ErrInvalidState
	}
	return nil
}

// storageErr переводит истёкший дедлайн хранилища в ErrTimeout, остальные
// ошибки оборачивает с контекстом операции.
func storageErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return fmt.Errorf("%s: %w", op, err)
}
