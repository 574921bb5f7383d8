package models

import "github.com/google/uuid"

// CreateOrderRequest - запрос на открытие заказа. Позиции можно добавить
// сразу или позже отдельными запросами.
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items"`
	Notes string             `json:"notes"`
}

// OrderItemRequest - добавляемая позиция: ссылки на каталог и количество.
type OrderItemRequest struct {
	ItemID   uuid.UUID   `json:"item_id"`
	Quantity int         `json:"quantity"`
	ModIDs   []uuid.UUID `json:"mod_ids"`
	Notes    string      `json:"notes"`
}

// ApplyDiscountRequest - запрос на применение скидки к заказу.
type ApplyDiscountRequest struct {
	DiscountID uuid.UUID `json:"discount_id"`
}

// CloseOrderRequest - результат оплаты, полученный кассой. Движок сам
// платежи не проводит, он только фиксирует их итог.
type CloseOrderRequest struct {
	PaymentMethod    PaymentMethod `json:"payment_method"`
	Tip              float64       `json:"tip"`
	CashTendered     *float64      `json:"cash_tendered"`
	PaymentReference string        `json:"payment_reference"`
}

// RefundRequest - запрос на возврат по закрытому заказу.
type RefundRequest struct {
	Amount          float64 `json:"amount"`
	Reason          string  `json:"reason"`
	RefundReference string  `json:"refund_reference"`
}

// CardFeeRequest - запрос на изменение настроек комиссии.
type CardFeeRequest struct {
	Enabled    bool    `json:"enabled"`
	Percentage float64 `json:"percentage"`
	MinFee     float64 `json:"min_fee"`
}
