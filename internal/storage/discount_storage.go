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
	ErrDiscountNotFound = errors.New("discount not found")
)

// DiscountStorage определяет интерфейс для чтения определений скидок.
type DiscountStorage interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Discount, error)
	ListGroups(ctx context.Context) ([]*models.DiscountGroup, error)
}

// PostgresDiscountStorage реализует DiscountStorage для PostgreSQL.
type PostgresDiscountStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresDiscountStorage создаёт новый экземпляр PostgresDiscountStorage.
func NewPostgresDiscountStorage(pool *pgxpool.Pool) *PostgresDiscountStorage {
	return &PostgresDiscountStorage{pool: pool}
}

// Get возвращает скидку вместе с флагом доступности её группы.
func (s *PostgresDiscountStorage) Get(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	query := `
		SELECT d.id, d.group_id, d.name, d.is_percentage, d.value, d.sort_order, d.available,
		       g.available
		FROM discounts d
		JOIN discount_groups g ON g.id = d.group_id
		WHERE d.id = $1
	`

	d := &models.Discount{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.GroupID, &d.Name, &d.IsPercentage, &d.Value, &d.SortOrder, &d.Available,
		&d.GroupAvailable,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDiscountNotFound
		}
		return nil, fmt.Errorf("query discount: %w", err)
	}

	return d, nil
}

// ListGroups возвращает группы скидок со входящими скидками.
func (s *PostgresDiscountStorage) ListGroups(ctx context.Context) ([]*models.DiscountGroup, error) {
	groupRows, err := s.pool.Query(ctx, `
		SELECT id, name, available, sort_order
		FROM discount_groups
		ORDER BY sort_order ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query discount groups: %w", err)
	}
	defer groupRows.Close()

	var groups []*models.DiscountGroup
	index := make(map[uuid.UUID]*models.DiscountGroup)
	for groupRows.Next() {
		g := &models.DiscountGroup{}
		if err := groupRows.Scan(&g.ID, &g.Name, &g.Available, &g.SortOrder); err != nil {
			return nil, fmt.Errorf("scan discount group: %w", err)
		}
		groups = append(groups, g)
		index[g.ID] = g
	}
	if groupRows.Err() != nil {
		return nil, fmt.Errorf("group rows error: %w", groupRows.Err())
	}

	discountRows, err := s.pool.Query(ctx, `
		SELECT id, group_id, name, is_percentage, value, sort_order, available
		FROM discounts
		ORDER BY sort_order ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query discounts: %w", err)
	}
	defer discountRows.Close()

	for discountRows.Next() {
		var d models.Discount
		if err := discountRows.Scan(&d.ID, &d.GroupID, &d.Name, &d.IsPercentage, &d.Value, &d.SortOrder, &d.Available); err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		if g, ok := index[d.GroupID]; ok {
			d.GroupAvailable = g.Available
			g.Discounts = append(g.Discounts, d)
		}
	}
	if discountRows.Err() != nil {
		return nil, fmt.Errorf("discount rows error: %w", discountRows.Err())
	}

	return groups, nil
}
