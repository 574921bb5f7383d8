package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category - категория меню.
type Category struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	SortOrder int       `db:"sort_order"`
	Available bool      `db:"available"`
	Items     []Item    `db:"-"`
}

// Item - позиция каталога.
type Item struct {
	ID         uuid.UUID       `db:"id"`
	CategoryID uuid.UUID       `db:"category_id"`
	Name       string          `db:"name"`
	Price      decimal.Decimal `db:"price"`
	SortOrder  int             `db:"sort_order"`
	Available  bool            `db:"available"`
	ModLists   []ModList       `db:"-"`
}

// ModList - группа модификаторов позиции (например, "добавки").
type ModList struct {
	ID            uuid.UUID `db:"id"`
	Name          string    `db:"name"`
	MinSelections int       `db:"min_selections"`
	MaxSelections *int      `db:"max_selections"`
	SortOrder     int       `db:"sort_order"`
	Available     bool      `db:"available"`
	Mods          []Mod     `db:"-"`
}

// Mod - модификатор позиции.
type Mod struct {
	ID        uuid.UUID       `db:"id"`
	ModListID uuid.UUID       `db:"mod_list_id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	SortOrder int             `db:"sort_order"`
	Available bool            `db:"available"`
}

// CatalogItemRef - разрешённая ссылка на позицию каталога: цена и название
// на текущий момент. Используется для снимка при добавлении в заказ.
type CatalogItemRef struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	Available bool
}

// CatalogModRef - разрешённая ссылка на модификатор каталога.
type CatalogModRef struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	Available bool
}

// MenuCategoryResponse - категория меню в HTTP-ответе.
type MenuCategoryResponse struct {
	ID    uuid.UUID          `json:"id"`
	Name  string             `json:"name"`
	Items []MenuItemResponse `json:"items"`
}

// MenuItemResponse - позиция меню в HTTP-ответе.
type MenuItemResponse struct {
	ID        uuid.UUID             `json:"id"`
	Name      string                `json:"name"`
	Price     float64               `json:"price"`
	Available bool                  `json:"available"`
	ModLists  []MenuModListResponse `json:"mod_lists"`
}

// MenuModListResponse - группа модификаторов в HTTP-ответе.
type MenuModListResponse struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	MinSelections int               `json:"min_selections"`
	MaxSelections *int              `json:"max_selections,omitempty"`
	Mods          []MenuModResponse `json:"mods"`
}

// MenuModResponse - модификатор в HTTP-ответе.
type MenuModResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Available bool      `json:"available"`
}

// NewMenuResponse преобразует категории каталога в DTO для HTTP-ответа.
func NewMenuResponse(categories []*Category) []MenuCategoryResponse {
	response := make([]MenuCategoryResponse, 0, len(categories))
	for _, cat := range categories {
		catResp := MenuCategoryResponse{
			ID:    cat.ID,
			Name:  cat.Name,
			Items: make([]MenuItemResponse, 0, len(cat.Items)),
		}
		for _, item := range cat.Items {
			itemResp := MenuItemResponse{
				ID:        item.ID,
				Name:      item.Name,
				Price:     decToFloat(item.Price),
				Available: item.Available,
				ModLists:  make([]MenuModListResponse, 0, len(item.ModLists)),
			}
			for _, list := range item.ModLists {
				listResp := MenuModListResponse{
					ID:            list.ID,
					Name:          list.Name,
					MinSelections: list.MinSelections,
					MaxSelections: list.MaxSelections,
					Mods:          make([]MenuModResponse, 0, len(list.Mods)),
				}
				for _, mod := range list.Mods {
					listResp.Mods = append(listResp.Mods, MenuModResponse{
						ID:        mod.ID,
						Name:      mod.Name,
						Price:     decToFloat(mod.Price),
						Available: mod.Available,
					})
				}
				itemResp.ModLists = append(itemResp.ModLists, listResp)
			}
			catResp.Items = append(catResp.Items, itemResp)
		}
		response = append(response, catResp)
	}
	return response
}
