package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus описывает статус жизненного цикла заказа.
type OrderStatus string

const (
	OrderStatusOpen              OrderStatus = "open"
	OrderStatusClosed            OrderStatus = "closed"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusRefunded          OrderStatus = "refunded"
	OrderStatusPartiallyRefunded OrderStatus = "partially_refunded"
)

// PaymentMethod описывает способ оплаты заказа.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

// CanMutateItems сообщает, допустимы ли изменения состава заказа в этом статусе.
func (s OrderStatus) CanMutateItems() bool {
	return s == OrderStatusOpen
}

// CanRefund сообщает, допустим ли возврат из этого статуса.
func (s OrderStatus) CanRefund() bool {
	return s == OrderStatusClosed || s == OrderStatusPartiallyRefunded
}

// IsTerminal сообщает, что из статуса нет ни одного допустимого перехода.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusRefunded || s == OrderStatusCancelled
}

// IsCompleted сообщает, что заказ завершён и подлежит архивированию.
func (s OrderStatus) IsCompleted() bool {
	return s != OrderStatusOpen
}

// Order представляет один заказ (транзакцию) ресторана.
type Order struct {
	ID             uuid.UUID         `db:"id"`
	Number         int               `db:"order_number"`
	StaffID        uuid.UUID         `db:"staff_id"`
	Status         OrderStatus       `db:"status"`
	Items          []OrderItem       `db:"-"`
	Discounts      []OrderDiscount   `db:"-"`
	Subtotal       decimal.Decimal   `db:"subtotal"`
	DiscountTotal  decimal.Decimal   `db:"discount_total"`
	Tax            decimal.Decimal   `db:"tax"`
	CardFee        decimal.Decimal   `db:"card_fee"`
	Tip            decimal.Decimal   `db:"tip"`
	Total          decimal.Decimal   `db:"total"`
	PaymentMethod  *PaymentMethod    `db:"payment_method"`
	PaymentRef     string            `db:"payment_ref"`
	RefundRef      string            `db:"refund_ref"`
	RefundReason   string            `db:"refund_reason"`
	RefundedAmount decimal.Decimal   `db:"refunded_amount"`
	CashTendered   *decimal.Decimal  `db:"cash_tendered"`
	CashChange     *decimal.Decimal  `db:"cash_change"`
	Notes          string            `db:"notes"`
	CreatedAt      time.Time         `db:"created_at"`
	ClosedAt       *time.Time        `db:"closed_at"`
	RefundedAt     *time.Time        `db:"refunded_at"`
	History        []OrderTransition `db:"-"`
}

// OrderItem - снимок позиции каталога на момент добавления в заказ.
// Цена и название копируются, а не читаются из каталога повторно.
type OrderItem struct {
	ID        uuid.UUID       `db:"id"`
	OrderID   uuid.UUID       `db:"order_id"`
	ItemID    uuid.UUID       `db:"item_id"`
	Name      string          `db:"name"`
	Quantity  int             `db:"quantity"`
	ItemPrice decimal.Decimal `db:"item_price"`
	ModsPrice decimal.Decimal `db:"mods_price"`
	LineTotal decimal.Decimal `db:"line_total"`
	Notes     string          `db:"notes"`
	Mods      []OrderItemMod  `db:"-"`
}

// OrderItemMod - снимок выбранного модификатора на момент добавления.
type OrderItemMod struct {
	ID    uuid.UUID       `db:"id"`
	ModID uuid.UUID       `db:"mod_id"`
	Name  string          `db:"name"`
	Price decimal.Decimal `db:"price"`
}

// OrderDiscount - применённая скидка: снимок определения плюс фактическая
// сумма, пересчитываемая при каждом изменении состава заказа.
type OrderDiscount struct {
	ID            uuid.UUID       `db:"id"`
	OrderID       uuid.UUID       `db:"order_id"`
	DiscountID    uuid.UUID       `db:"discount_id"`
	Name          string          `db:"name"`
	IsPercentage  bool            `db:"is_percentage"`
	Value         decimal.Decimal `db:"value"`
	AmountApplied decimal.Decimal `db:"amount_applied"`
}

// OrderTransition - неизменяемая запись о смене статуса заказа.
type OrderTransition struct {
	Status OrderStatus `db:"status"`
	At     time.Time   `db:"occurred_at"`
}

// RemainingRefundable возвращает сумму, которую ещё можно вернуть по заказу.
func (o *Order) RemainingRefundable() decimal.Decimal {
	return o.Total.Sub(o.RefundedAmount)
}

// HasDiscount проверяет, применена ли уже скидка с данным идентификатором.
func (o *Order) HasDiscount(discountID uuid.UUID) bool {
	for _, d := range o.Discounts {
		if d.DiscountID == discountID {
			return true
		}
	}
	return false
}
