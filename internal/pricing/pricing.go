// Package pricing считает денежные итоги заказа. Все вычисления ведутся в
// decimal без побочных эффектов: движок можно вызывать повторно при каждом
// изменении состава заказа и получать тот же результат из тех же входов.
package pricing

import (
	"github.com/agamariel/poscore/internal/models"
	"github.com/shopspring/decimal"
)

// FeeConfig - настройки комиссии за оплату картой.
type FeeConfig struct {
	Enabled    bool
	Percentage decimal.Decimal // доля, например 0.05 для 5%
	MinFee     decimal.Decimal
}

// Result - результат расчёта заказа. DiscountAmounts идёт в том же порядке,
// что и переданные скидки: пересчитанная сумма каждой применённой скидки.
type Result struct {
	Subtotal        decimal.Decimal
	DiscountTotal   decimal.Decimal
	DiscountAmounts []decimal.Decimal
	Tax             decimal.Decimal
	CardFee         decimal.Decimal
	Tip             decimal.Decimal
	Total           decimal.Decimal
}

// LineTotal возвращает стоимость одной позиции:
// (цена позиции + сумма модификаторов) * количество. Без округления:
// произведение величин с точностью до цента остаётся точным.
func LineTotal(item *models.OrderItem) decimal.Decimal {
	return item.ItemPrice.Add(item.ModsPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// Price пересчитывает итоги заказа из текущего состава.
//
// Порядок применения скидок фиксирован и влияет на результат:
// сначала все фиксированные, затем процентные - каждая от остатка после
// уже применённых. Остаток не опускается ниже нуля.
//
// Налог берётся с суммы после скидок, до комиссии; комиссия и чаевые
// налогом не облагаются. Комиссия картой - max(минимум, остаток * процент),
// для наличных или выключенной настройки равна нулю.
func Price(items []models.OrderItem, discounts []models.OrderDiscount, fee FeeConfig, tip, taxRate decimal.Decimal, method *models.PaymentMethod) Result {
	subtotal := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(LineTotal(&items[i]))
	}

	remainder := subtotal
	amounts := make([]decimal.Decimal, len(discounts))

	// Фиксированные скидки.
	for i := range discounts {
		if discounts[i].IsPercentage {
			continue
		}
		amounts[i] = capAmount(discounts[i].Value.Abs().Round(2), remainder)
		remainder = remainder.Sub(amounts[i])
	}
	// Процентные скидки от остатка.
	for i := range discounts {
		if !discounts[i].IsPercentage {
			continue
		}
		raw := remainder.Mul(discounts[i].Value).Div(decimal.NewFromInt(100))
		amounts[i] = capAmount(raw.Round(2), remainder)
		remainder = remainder.Sub(amounts[i])
	}

	discountTotal := subtotal.Sub(remainder)
	tax := remainder.Mul(taxRate).Round(2)

	cardFee := decimal.Zero
	if fee.Enabled && method != nil && *method == models.PaymentMethodCard {
		calculated := remainder.Mul(fee.Percentage)
		if calculated.LessThan(fee.MinFee) {
			calculated = fee.MinFee
		}
		cardFee = calculated.Round(2)
	}

	if tip.IsNegative() {
		tip = decimal.Zero
	}

	total := subtotal.Sub(discountTotal).Add(tax).Add(cardFee).Add(tip).Round(2)

	return Result{
		Subtotal:        subtotal,
		DiscountTotal:   discountTotal,
		DiscountAmounts: amounts,
		Tax:             tax,
		CardFee:         cardFee,
		Tip:             tip,
		Total:           total,
	}
}

// capAmount не даёт скидке увести остаток в минус.
func capAmount(amount, remainder decimal.Decimal) decimal.Decimal {
	if amount.GreaterThan(remainder) {
		return remainder
	}
	return amount
}
