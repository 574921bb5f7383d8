package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agamariel/poscore/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateDiscount = errors.New("discount already applied to order")
)

// OrderFilter - фильтр списка заказов.
type OrderFilter struct {
	Status *models.OrderStatus
	Date   *time.Time
}

// OrderStorage определяет интерфейс для работы с заказами.
type OrderStorage interface {
	Create(ctx context.Context, order *models.Order, nextNumber int) error
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, order *models.Order, transition *models.OrderTransition) error
	List(ctx context.Context, filter OrderFilter) ([]*models.Order, error)
	OpenOrders(ctx context.Context) ([]*models.Order, error)
	DailyReport(ctx context.Context, date time.Time) (*models.DailyReport, error)
	ArchiveCompleted(ctx context.Context, olderThan time.Time) (int, error)
}

// PostgresOrderStorage реализует OrderStorage для PostgreSQL.
type PostgresOrderStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresOrderStorage создаёт новый экземпляр PostgresOrderStorage.
func NewPostgresOrderStorage(pool *pgxpool.Pool) *PostgresOrderStorage {
	return &PostgresOrderStorage{pool: pool}
}

// Create сохраняет новый заказ вместе с позициями, записью истории и новым
// значением счётчика номеров в одной транзакции. Снимок заказа становится
// видимым (и рассылаемым) только после фиксации.
func (s *PostgresOrderStorage) Create(ctx context.Context, order *models.Order, nextNumber int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	query := `
		INSERT INTO orders (
			id, order_number, staff_id, status,
			subtotal, discount_total, tax, card_fee, tip, total,
			refunded_amount, notes, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		RETURNING created_at
	`
	err = tx.QueryRow(ctx, query,
		order.ID,
		order.Number,
		order.StaffID,
		order.Status,
		order.Subtotal,
		order.DiscountTotal,
		order.Tax,
		order.CardFee,
		order.Tip,
		order.Total,
		order.RefundedAmount,
		order.Notes,
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if err := insertItems(ctx, tx, order); err != nil {
		return err
	}

	transition := models.OrderTransition{Status: order.Status, At: order.CreatedAt}
	if err := insertTransition(ctx, tx, order.ID, transition); err != nil {
		return err
	}

	// Счётчик номеров сохраняется той же транзакцией: после рестарта
	// процесс продолжит нумерацию с того же места.
	if _, err := tx.Exec(ctx, `UPDATE system_settings SET next_order_number = $1 WHERE id = 1`, nextNumber); err != nil {
		return fmt.Errorf("persist next order number: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	order.History = append(order.History, transition)
	return nil
}

// Update перезаписывает денежные поля и состав заказа и, если передан
// переход, добавляет запись истории. Всё в одной транзакции: либо мутация
// фиксируется целиком, либо заказ остаётся в прежнем состоянии.
func (s *PostgresOrderStorage) Update(ctx context.Context, order *models.Order, transition *models.OrderTransition) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders SET
			status = $2,
			subtotal = $3, discount_total = $4, tax = $5, card_fee = $6,
			tip = $7, total = $8,
			payment_method = $9, payment_ref = $10,
			refund_ref = $11, refund_reason = $12, refunded_amount = $13,
			cash_tendered = $14, cash_change = $15,
			notes = $16, closed_at = $17, refunded_at = $18
		WHERE id = $1
	`
	result, err := tx.Exec(ctx, query,
		order.ID,
		order.Status,
		order.Subtotal,
		order.DiscountTotal,
		order.Tax,
		order.CardFee,
		order.Tip,
		order.Total,
		order.PaymentMethod,
		order.PaymentRef,
		order.RefundRef,
		order.RefundReason,
		order.RefundedAmount,
		order.CashTendered,
		order.CashChange,
		order.Notes,
		order.ClosedAt,
		order.RefundedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	// Состав заменяется целиком: позиции и скидки - снимки. История
	// только дописывается.
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("clear order items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_discounts WHERE order_id = $1`, order.ID); err != nil {
		return fmt.Errorf("clear order discounts: %w", err)
	}
	if err := insertItems(ctx, tx, order); err != nil {
		return err
	}

	if transition != nil {
		if err := insertTransition(ctx, tx, order.ID, *transition); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	if transition != nil {
		order.History = append(order.History, *transition)
	}

	return nil
}

// Get возвращает заказ целиком: позиции, модификаторы, скидки и историю.
func (s *PostgresOrderStorage) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := orderColumns + ` FROM orders WHERE id = $1`
	order, err := scanOrder(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := s.loadOrderDetails(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// List возвращает заказы по фильтру статуса и даты создания.
func (s *PostgresOrderStorage) List(ctx context.Context, filter OrderFilter) ([]*models.Order, error) {
	query := orderColumns + ` FROM orders WHERE 1=1`
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Date != nil {
		day := filter.Date.Truncate(24 * time.Hour)
		args = append(args, day, day.Add(24*time.Hour))
		query += fmt.Sprintf(" AND created_at >= $%d AND created_at < $%d", len(args)-1, len(args))
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	for _, order := range orders {
		if err := s.loadOrderDetails(ctx, order); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// OpenOrders возвращает открытые заказы; используется при старте для
// восстановления множества занятых номеров.
func (s *PostgresOrderStorage) OpenOrders(ctx context.Context) ([]*models.Order, error) {
	open := models.OrderStatusOpen
	return s.List(ctx, OrderFilter{Status: &open})
}

// DailyReport агрегирует заказы за день, включая уже заархивированные.
// Отчёт считается запросом по журналу и потому всегда согласован с ним.
// Отменённые заказы в выручку не входят: оплата по ним не проводилась.
func (s *PostgresOrderStorage) DailyReport(ctx context.Context, date time.Time) (*models.DailyReport, error) {
	day := date.Truncate(24 * time.Hour)

	query := `
		WITH day_orders AS (
			SELECT status, payment_method, subtotal, discount_total, tax,
			       card_fee, tip, total, refunded_amount
			FROM orders
			WHERE created_at >= $1 AND created_at < $2
			  AND status NOT IN ('open', 'cancelled')
			UNION ALL
			SELECT status, payment_method, subtotal, discount_total, tax,
			       card_fee, tip, total, refunded_amount
			FROM order_history
			WHERE created_at >= $1 AND created_at < $2
			  AND status <> 'cancelled'
		)
		SELECT
			COUNT(*),
			COALESCE(SUM(total), 0)::float8,
			COALESCE(SUM(total) FILTER (WHERE payment_method = 'cash'), 0)::float8,
			COALESCE(SUM(total) FILTER (WHERE payment_method = 'card'), 0)::float8,
			COALESCE(SUM(subtotal), 0)::float8,
			COALESCE(SUM(discount_total), 0)::float8,
			COALESCE(SUM(tax), 0)::float8,
			COALESCE(SUM(card_fee), 0)::float8,
			COALESCE(SUM(tip), 0)::float8,
			COALESCE(SUM(refunded_amount), 0)::float8
		FROM day_orders
	`

	report := &models.DailyReport{Date: day.Format("2006-01-02")}
	err := s.pool.QueryRow(ctx, query, day, day.Add(24*time.Hour)).Scan(
		&report.OrderCount,
		&report.GrossTotal,
		&report.CashTotal,
		&report.CardTotal,
		&report.SubtotalSum,
		&report.DiscountTotal,
		&report.TaxTotal,
		&report.CardFeeTotal,
		&report.TipTotal,
		&report.RefundedTotal,
	)
	if err != nil {
		return nil, fmt.Errorf("daily report query: %w", err)
	}

	return report, nil
}

// ArchiveCompleted переносит завершённые заказы старше cutoff в таблицу
// order_history со снимками позиций и скидок в JSON и удаляет их из
// оперативной таблицы. Возвращает число перенесённых заказов.
func (s *PostgresOrderStorage) ArchiveCompleted(ctx context.Context, olderThan time.Time) (int, error) {
	completed, err := s.listCompletedBefore(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if len(completed) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, order := range completed {
		snap := models.NewOrderSnapshot(order)
		itemsData, err := json.Marshal(snap.Items)
		if err != nil {
			return 0, fmt.Errorf("marshal items for order %s: %w", order.ID, err)
		}
		discountsData, err := json.Marshal(snap.Discounts)
		if err != nil {
			return 0, fmt.Errorf("marshal discounts for order %s: %w", order.ID, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO order_history (
				order_id, order_number, staff_id, status,
				subtotal, discount_total, tax, card_fee, tip, total,
				payment_method, refunded_amount, notes,
				created_at, closed_at, refunded_at,
				items_data, discounts_data
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`,
			order.ID, order.Number, order.StaffID, order.Status,
			order.Subtotal, order.DiscountTotal, order.Tax, order.CardFee, order.Tip, order.Total,
			order.PaymentMethod, order.RefundedAmount, order.Notes,
			order.CreatedAt, order.ClosedAt, order.RefundedAt,
			itemsData, discountsData,
		)
		if err != nil {
			return 0, fmt.Errorf("archive order %s: %w", order.ID, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, order.ID); err != nil {
			return 0, fmt.Errorf("delete archived order %s: %w", order.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return len(completed), nil
}

func (s *PostgresOrderStorage) listCompletedBefore(ctx context.Context, cutoff time.Time) ([]*models.Order, error) {
	query := orderColumns + `
		FROM orders
		WHERE status <> 'open' AND created_at < $1
		ORDER BY created_at ASC
	`
	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query completed orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	for _, order := range orders {
		if err := s.loadOrderDetails(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

const orderColumns = `
	SELECT id, order_number, staff_id, status,
	       subtotal, discount_total, tax, card_fee, tip, total,
	       payment_method, payment_ref, refund_ref, refund_reason, refunded_amount,
	       cash_tendered, cash_change, notes, created_at, closed_at, refunded_at
`

// scanOrder помогает читать заказ из строки результата.
func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID,
		&order.Number,
		&order.StaffID,
		&order.Status,
		&order.Subtotal,
		&order.DiscountTotal,
		&order.Tax,
		&order.CardFee,
		&order.Tip,
		&order.Total,
		&order.PaymentMethod,
		&order.PaymentRef,
		&order.RefundRef,
		&order.RefundReason,
		&order.RefundedAmount,
		&order.CashTendered,
		&order.CashChange,
		&order.Notes,
		&order.CreatedAt,
		&order.ClosedAt,
		&order.RefundedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &order, nil
}

// loadOrderDetails дочитывает позиции, модификаторы, скидки и историю.
func (s *PostgresOrderStorage) loadOrderDetails(ctx context.Context, order *models.Order) error {
	itemRows, err := s.pool.Query(ctx, `
		SELECT id, order_id, item_id, name, quantity, item_price, mods_price, line_total, notes
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, order.ID)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer itemRows.Close()

	order.Items = nil
	for itemRows.Next() {
		var item models.OrderItem
		if err := itemRows.Scan(
			&item.ID, &item.OrderID, &item.ItemID, &item.Name, &item.Quantity,
			&item.ItemPrice, &item.ModsPrice, &item.LineTotal, &item.Notes,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if itemRows.Err() != nil {
		return fmt.Errorf("item rows error: %w", itemRows.Err())
	}

	for i := range order.Items {
		if err := s.loadItemMods(ctx, &order.Items[i]); err != nil {
			return err
		}
	}

	discountRows, err := s.pool.Query(ctx, `
		SELECT id, order_id, discount_id, name, is_percentage, value, amount_applied
		FROM order_discounts
		WHERE order_id = $1
		ORDER BY position ASC
	`, order.ID)
	if err != nil {
		return fmt.Errorf("query order discounts: %w", err)
	}
	defer discountRows.Close()

	order.Discounts = nil
	for discountRows.Next() {
		var d models.OrderDiscount
		if err := discountRows.Scan(
			&d.ID, &d.OrderID, &d.DiscountID, &d.Name, &d.IsPercentage, &d.Value, &d.AmountApplied,
		); err != nil {
			return fmt.Errorf("scan order discount: %w", err)
		}
		order.Discounts = append(order.Discounts, d)
	}
	if discountRows.Err() != nil {
		return fmt.Errorf("discount rows error: %w", discountRows.Err())
	}

	historyRows, err := s.pool.Query(ctx, `
		SELECT status, occurred_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id ASC
	`, order.ID)
	if err != nil {
		return fmt.Errorf("query order history: %w", err)
	}
	defer historyRows.Close()

	order.History = nil
	for historyRows.Next() {
		var tr models.OrderTransition
		if err := historyRows.Scan(&tr.Status, &tr.At); err != nil {
			return fmt.Errorf("scan history row: %w", err)
		}
		order.History = append(order.History, tr)
	}
	if historyRows.Err() != nil {
		return fmt.Errorf("history rows error: %w", historyRows.Err())
	}

	return nil
}

func (s *PostgresOrderStorage) loadItemMods(ctx context.Context, item *models.OrderItem) error {
	modRows, err := s.pool.Query(ctx, `
		SELECT id, mod_id, name, price
		FROM order_item_mods
		WHERE order_item_id = $1
		ORDER BY name ASC
	`, item.ID)
	if err != nil {
		return fmt.Errorf("query item mods: %w", err)
	}
	defer modRows.Close()

	for modRows.Next() {
		var mod models.OrderItemMod
		if err := modRows.Scan(&mod.ID, &mod.ModID, &mod.Name, &mod.Price); err != nil {
			return fmt.Errorf("scan item mod: %w", err)
		}
		item.Mods = append(item.Mods, mod)
	}
	if modRows.Err() != nil {
		return fmt.Errorf("mod rows error: %w", modRows.Err())
	}
	return nil
}

// insertItems вставляет позиции с модификаторами и скидки заказа.
func insertItems(ctx context.Context, tx pgx.Tx, order *models.Order) error {
	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID

		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, item_id, name, quantity, item_price, mods_price, line_total, notes, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, item.ID, item.OrderID, item.ItemID, item.Name, item.Quantity,
			item.ItemPrice, item.ModsPrice, item.LineTotal, item.Notes, i)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}

		for j := range item.Mods {
			mod := &item.Mods[j]
			if mod.ID == uuid.Nil {
				mod.ID = uuid.New()
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO order_item_mods (id, order_item_id, mod_id, name, price)
				VALUES ($1, $2, $3, $4, $5)
			`, mod.ID, item.ID, mod.ModID, mod.Name, mod.Price)
			if err != nil {
				return fmt.Errorf("insert item mod: %w", err)
			}
		}
	}

	for i := range order.Discounts {
		d := &order.Discounts[i]
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		d.OrderID = order.ID

		_, err := tx.Exec(ctx, `
			INSERT INTO order_discounts (id, order_id, discount_id, name, is_percentage, value, amount_applied, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, d.ID, d.OrderID, d.DiscountID, d.Name, d.IsPercentage, d.Value, d.AmountApplied, i)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
				return ErrDuplicateDiscount
			}
			return fmt.Errorf("insert order discount: %w", err)
		}
	}

	return nil
}

func insertTransition(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, tr models.OrderTransition) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO order_status_history (order_id, status, occurred_at)
		VALUES ($1, $2, $3)
	`, orderID, tr.Status, tr.At)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}
