package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/agamariel/poscore/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrItemNotFound = errors.New("catalog item not found")
	ErrModNotFound  = errors.New("catalog mod not found")
)

// CatalogStorage - граница с каталогом: разрешение ссылок при создании
// заказа и чтение меню. Управление каталогом лежит вне движка заказов.
type CatalogStorage interface {
	ResolveItem(ctx context.Context, id uuid.UUID) (*models.CatalogItemRef, error)
	ResolveMod(ctx context.Context, id uuid.UUID) (*models.CatalogModRef, error)
	ListMenu(ctx context.Context) ([]*models.Category, error)
}

// PostgresCatalogStorage реализует CatalogStorage для PostgreSQL.
type PostgresCatalogStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresCatalogStorage создаёт новый экземпляр PostgresCatalogStorage.
func NewPostgresCatalogStorage(pool *pgxpool.Pool) *PostgresCatalogStorage {
	return &PostgresCatalogStorage{pool: pool}
}

// ResolveItem возвращает текущую цену и название позиции каталога.
func (s *PostgresCatalogStorage) ResolveItem(ctx context.Context, id uuid.UUID) (*models.CatalogItemRef, error) {
	ref := &models.CatalogItemRef{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, price, available FROM items WHERE id = $1
	`, id).Scan(&ref.ID, &ref.Name, &ref.Price, &ref.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("resolve item: %w", err)
	}
	return ref, nil
}

// ResolveMod возвращает текущую цену и название модификатора.
func (s *PostgresCatalogStorage) ResolveMod(ctx context.Context, id uuid.UUID) (*models.CatalogModRef, error) {
	ref := &models.CatalogModRef{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, price, available FROM mods WHERE id = $1
	`, id).Scan(&ref.ID, &ref.Name, &ref.Price, &ref.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrModNotFound
		}
		return nil, fmt.Errorf("resolve mod: %w", err)
	}
	return ref, nil
}

// ListMenu возвращает категории с позициями, группами модификаторов и
// модификаторами для выдачи клиентам.
func (s *PostgresCatalogStorage) ListMenu(ctx context.Context) ([]*models.Category, error) {
	catRows, err := s.pool.Query(ctx, `
		SELECT id, name, sort_order, available
		FROM categories
		ORDER BY sort_order ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer catRows.Close()

	var categories []*models.Category
	index := make(map[uuid.UUID]*models.Category)
	for catRows.Next() {
		cat := &models.Category{}
		if err := catRows.Scan(&cat.ID, &cat.Name, &cat.SortOrder, &cat.Available); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, cat)
		index[cat.ID] = cat
	}
	if catRows.Err() != nil {
		return nil, fmt.Errorf("category rows error: %w", catRows.Err())
	}

	itemRows, err := s.pool.Query(ctx, `
		SELECT id, category_id, name, price, sort_order, available
		FROM items
		ORDER BY sort_order ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.Item
		if err := itemRows.Scan(&item.ID, &item.CategoryID, &item.Name, &item.Price, &item.SortOrder, &item.Available); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if cat, ok := index[item.CategoryID]; ok {
			cat.Items = append(cat.Items, item)
		}
	}
	if itemRows.Err() != nil {
		return nil, fmt.Errorf("item rows error: %w", itemRows.Err())
	}

	if err := s.attachModLists(ctx, indexItems(categories)); err != nil {
		return nil, err
	}

	return categories, nil
}

// indexItems строит индекс позиций по ID. Указатели берутся только после
// того, как состав всех категорий собран: append во время индексации
// переаллоцирует срез и оставляет указатели на старый массив.
func indexItems(categories []*models.Category) map[uuid.UUID]*models.Item {
	items := make(map[uuid.UUID]*models.Item)
	for _, cat := range categories {
		for i := range cat.Items {
			items[cat.Items[i].ID] = &cat.Items[i]
		}
	}
	return items
}

// attachModLists дочитывает группы модификаторов и раскладывает их по позициям.
func (s *PostgresCatalogStorage) attachModLists(ctx context.Context, items map[uuid.UUID]*models.Item) error {
	if len(items) == 0 {
		return nil
	}

	listRows, err := s.pool.Query(ctx, `
		SELECT id, name, min_selections, max_selections, sort_order, available
		FROM mod_lists
		ORDER BY sort_order ASC, name ASC
	`)
	if err != nil {
		return fmt.Errorf("query mod lists: %w", err)
	}
	defer listRows.Close()

	lists := make(map[uuid.UUID]*models.ModList)
	for listRows.Next() {
		ml := &models.ModList{}
		if err := listRows.Scan(&ml.ID, &ml.Name, &ml.MinSelections, &ml.MaxSelections, &ml.SortOrder, &ml.Available); err != nil {
			return fmt.Errorf("scan mod list: %w", err)
		}
		lists[ml.ID] = ml
	}
	if listRows.Err() != nil {
		return fmt.Errorf("mod list rows error: %w", listRows.Err())
	}

	modRows, err := s.pool.Query(ctx, `
		SELECT id, mod_list_id, name, price, sort_order, available
		FROM mods
		ORDER BY sort_order ASC, name ASC
	`)
	if err != nil {
		return fmt.Errorf("query mods: %w", err)
	}
	defer modRows.Close()

	for modRows.Next() {
		var mod models.Mod
		if err := modRows.Scan(&mod.ID, &mod.ModListID, &mod.Name, &mod.Price, &mod.SortOrder, &mod.Available); err != nil {
			return fmt.Errorf("scan mod: %w", err)
		}
		if ml, ok := lists[mod.ModListID]; ok {
			ml.Mods = append(ml.Mods, mod)
		}
	}
	if modRows.Err() != nil {
		return fmt.Errorf("mod rows error: %w", modRows.Err())
	}

	linkRows, err := s.pool.Query(ctx, `
		SELECT item_id, mod_list_id FROM item_mod_lists
	`)
	if err != nil {
		return fmt.Errorf("query item mod lists: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var itemID, listID uuid.UUID
		if err := linkRows.Scan(&itemID, &listID); err != nil {
			return fmt.Errorf("scan item mod list link: %w", err)
		}
		item, okItem := items[itemID]
		ml, okList := lists[listID]
		if okItem && okList {
			item.ModLists = append(item.ModLists, *ml)
		}
	}
	if linkRows.Err() != nil {
		return fmt.Errorf("link rows error: %w", linkRows.Err())
	}

	return nil
}
