package services

import (
	"context"
	"fmt"

	"github.com/agamariel/poscore/internal/models"
	"github.com/agamariel/poscore/internal/storage"
)

// CatalogService отдаёт меню и действующие скидки для клиентов кассы.
// Каталог здесь только читается: его ведение - отдельная система.
type CatalogService interface {
	Menu(ctx context.Context) ([]*models.Category, error)
	Discounts(ctx context.Context) ([]*models.DiscountGroup, error)
}

// CatalogServiceImpl реализует CatalogService.
type CatalogServiceImpl struct {
	catalogStorage  storage.CatalogStorage
	discountStorage storage.DiscountStorage
}

// NewCatalogService создаёт новый экземпляр CatalogService.
func NewCatalogService(catalogStorage storage.CatalogStorage, discountStorage storage.DiscountStorage) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		catalogStorage:  catalogStorage,
		discountStorage: discountStorage,
	}
}

// Menu возвращает доступные категории с позициями и модификаторами.
func (s *CatalogServiceImpl) Menu(ctx context.Context) ([]*models.Category, error) {
	menu, err := s.catalogStorage.ListMenu(ctx)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return menu, nil
}

// Discounts возвращает группы скидок с их скидками.
func (s *CatalogServiceImpl) Discounts(ctx context.Context) ([]*models.DiscountGroup, error) {
	groups, err := s.discountStorage.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list discount groups: %w", err)
	}
	return groups, nil
}
