package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CardFeeSettings - настройки комиссии за оплату картой.
type CardFeeSettings struct {
	Enabled    bool            `db:"enabled"`
	Percentage decimal.Decimal `db:"percentage"`
	MinFee     decimal.Decimal `db:"min_fee"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// SystemSettings - служебное состояние: счётчик номеров заказов
// и отметка последнего сброса.
type SystemSettings struct {
	NextOrderNumber int        `db:"next_order_number"`
	LastNumberReset *time.Time `db:"last_number_reset"`
}

// CardFeeResponse - настройки комиссии в HTTP-ответе.
type CardFeeResponse struct {
	Enabled    bool    `json:"enabled"`
	Percentage float64 `json:"percentage"`
	MinFee     float64 `json:"min_fee"`
	UpdatedAt  string  `json:"updated_at"`
}

// NewCardFeeResponse преобразует настройки комиссии в DTO для HTTP-ответа.
func NewCardFeeResponse(s *CardFeeSettings) *CardFeeResponse {
	return &CardFeeResponse{
		Enabled:    s.Enabled,
		Percentage: decToFloat(s.Percentage),
		MinFee:     decToFloat(s.MinFee),
		UpdatedAt:  s.UpdatedAt.Format(time.RFC3339),
	}
}

// DailyReport - агрегат по заказам за один день. Считается запросом
// по сохранённым заказам, отдельно не хранится.
type DailyReport struct {
	Date          string  `json:"date"`
	OrderCount    int     `json:"order_count"`
	GrossTotal    float64 `json:"gross_total"`
	CashTotal     float64 `json:"cash_total"`
	CardTotal     float64 `json:"card_total"`
	SubtotalSum   float64 `json:"subtotal_sum"`
	DiscountTotal float64 `json:"discount_total"`
	TaxTotal      float64 `json:"tax_total"`
	CardFeeTotal  float64 `json:"card_fee_total"`
	TipTotal      float64 `json:"tip_total"`
	RefundedTotal float64 `json:"refunded_total"`
}
