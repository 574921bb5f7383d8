package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountGroup - группа скидок. Выключенная группа деактивирует все
// входящие в неё скидки независимо от их собственного флага.
type DiscountGroup struct {
	ID        uuid.UUID  `db:"id"`
	Name      string     `db:"name"`
	Available bool       `db:"available"`
	SortOrder int        `db:"sort_order"`
	Discounts []Discount `db:"-"`
}

// Discount - определение скидки. Для процентной скидки Value - процент
// (например, 10 для 10%), для фиксированной - сумма в валюте.
type Discount struct {
	ID             uuid.UUID       `db:"id"`
	GroupID        uuid.UUID       `db:"group_id"`
	Name           string          `db:"name"`
	IsPercentage   bool            `db:"is_percentage"`
	Value          decimal.Decimal `db:"value"`
	SortOrder      int             `db:"sort_order"`
	Available      bool            `db:"available"`
	GroupAvailable bool            `db:"-"`
}

// IsActive учитывает и собственный флаг скидки, и флаг её группы.
func (d *Discount) IsActive() bool {
	return d.Available && d.GroupAvailable
}

// DiscountGroupResponse - группа скидок в HTTP-ответе.
type DiscountGroupResponse struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Available bool               `json:"available"`
	Discounts []DiscountResponse `json:"discounts"`
}

// DiscountResponse - скидка в HTTP-ответе.
type DiscountResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	IsPercentage bool      `json:"is_percentage"`
	Value        float64   `json:"value"`
	Available    bool      `json:"available"`
}

// NewDiscountGroupsResponse преобразует группы скидок в DTO для HTTP-ответа.
func NewDiscountGroupsResponse(groups []*DiscountGroup) []DiscountGroupResponse {
	response := make([]DiscountGroupResponse, 0, len(groups))
	for _, g := range groups {
		groupResp := DiscountGroupResponse{
			ID:        g.ID,
			Name:      g.Name,
			Available: g.Available,
			Discounts: make([]DiscountResponse, 0, len(g.Discounts)),
		}
		for _, d := range g.Discounts {
			groupResp.Discounts = append(groupResp.Discounts, DiscountResponse{
				ID:           d.ID,
				Name:         d.Name,
				IsPercentage: d.IsPercentage,
				Value:        decToFloat(d.Value),
				Available:    d.Available,
			})
		}
		response = append(response, groupResp)
	}
	return response
}
