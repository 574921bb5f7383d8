package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderSnapshot - неизменяемый снимок заказа для ответов API и рассылки
// подписчикам. Содержит полное состояние, а не дельту.
type OrderSnapshot struct {
	OrderID        uuid.UUID            `json:"order_id"`
	Number         int                  `json:"order_number"`
	StaffID        uuid.UUID            `json:"staff_id"`
	Status         string               `json:"status"`
	Items          []ItemSnapshot       `json:"items"`
	Discounts      []DiscountSnapshot   `json:"discounts"`
	Subtotal       float64              `json:"subtotal"`
	DiscountTotal  float64              `json:"discount_total"`
	Tax            float64              `json:"tax"`
	CardFee        float64              `json:"card_fee"`
	Tip            float64              `json:"tip"`
	Total          float64              `json:"total"`
	PaymentMethod  *string              `json:"payment_method,omitempty"`
	RefundedAmount float64              `json:"refunded_amount"`
	Notes          string               `json:"notes,omitempty"`
	CreatedAt      string               `json:"created_at"`
	ClosedAt       *string              `json:"closed_at,omitempty"`
	RefundedAt     *string              `json:"refunded_at,omitempty"`
	History        []TransitionSnapshot `json:"history"`
}

// ItemSnapshot - позиция заказа в снимке.
type ItemSnapshot struct {
	ItemID    uuid.UUID     `json:"item_id"`
	Name      string        `json:"name"`
	Quantity  int           `json:"quantity"`
	ItemPrice float64       `json:"item_price"`
	ModsPrice float64       `json:"mods_price"`
	LineTotal float64       `json:"line_total"`
	Notes     string        `json:"notes,omitempty"`
	Mods      []ModSnapshot `json:"mods"`
}

// ModSnapshot - модификатор позиции в снимке.
type ModSnapshot struct {
	ModID uuid.UUID `json:"mod_id"`
	Name  string    `json:"name"`
	Price float64   `json:"price"`
}

// DiscountSnapshot - применённая скидка в снимке.
type DiscountSnapshot struct {
	DiscountID    uuid.UUID `json:"discount_id"`
	Name          string    `json:"name"`
	AmountApplied float64   `json:"amount_applied"`
}

// TransitionSnapshot - запись истории переходов в снимке.
type TransitionSnapshot struct {
	Status string `json:"status"`
	At     string `json:"at"`
}

// NewOrderSnapshot строит снимок из заказа. Вызывается только после
// успешной фиксации изменений в хранилище.
func NewOrderSnapshot(o *Order) *OrderSnapshot {
	snap := &OrderSnapshot{
		OrderID:        o.ID,
		Number:         o.Number,
		StaffID:        o.StaffID,
		Status:         string(o.Status),
		Items:          make([]ItemSnapshot, 0, len(o.Items)),
		Discounts:      make([]DiscountSnapshot, 0, len(o.Discounts)),
		Subtotal:       decToFloat(o.Subtotal),
		DiscountTotal:  decToFloat(o.DiscountTotal),
		Tax:            decToFloat(o.Tax),
		CardFee:        decToFloat(o.CardFee),
		Tip:            decToFloat(o.Tip),
		Total:          decToFloat(o.Total),
		RefundedAmount: decToFloat(o.RefundedAmount),
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
		History:        make([]TransitionSnapshot, 0, len(o.History)),
	}

	if o.PaymentMethod != nil {
		method := string(*o.PaymentMethod)
		snap.PaymentMethod = &method
	}
	if o.ClosedAt != nil {
		closedAt := o.ClosedAt.Format(time.RFC3339)
		snap.ClosedAt = &closedAt
	}
	if o.RefundedAt != nil {
		refundedAt := o.RefundedAt.Format(time.RFC3339)
		snap.RefundedAt = &refundedAt
	}

	for _, item := range o.Items {
		itemSnap := ItemSnapshot{
			ItemID:    item.ItemID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			ItemPrice: decToFloat(item.ItemPrice),
			ModsPrice: decToFloat(item.ModsPrice),
			LineTotal: decToFloat(item.LineTotal),
			Notes:     item.Notes,
			Mods:      make([]ModSnapshot, 0, len(item.Mods)),
		}
		for _, mod := range item.Mods {
			itemSnap.Mods = append(itemSnap.Mods, ModSnapshot{
				ModID: mod.ModID,
				Name:  mod.Name,
				Price: decToFloat(mod.Price),
			})
		}
		snap.Items = append(snap.Items, itemSnap)
	}

	for _, d := range o.Discounts {
		snap.Discounts = append(snap.Discounts, DiscountSnapshot{
			DiscountID:    d.DiscountID,
			Name:          d.Name,
			AmountApplied: decToFloat(d.AmountApplied),
		})
	}

	for _, tr := range o.History {
		snap.History = append(snap.History, TransitionSnapshot{
			Status: string(tr.Status),
			At:     tr.At.Format(time.RFC3339),
		})
	}

	return snap
}

// decToFloat переводит decimal в float64 для JSON-ответов.
func decToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
