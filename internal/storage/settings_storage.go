package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/agamariel/poscore/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsStorage определяет интерфейс для системных настроек: комиссия
// картой и состояние счётчика номеров заказов.
type SettingsStorage interface {
	GetCardFee(ctx context.Context) (*models.CardFeeSettings, error)
	UpdateCardFee(ctx context.Context, settings *models.CardFeeSettings) error
	GetSystem(ctx context.Context) (*models.SystemSettings, error)
	ResetOrderNumbers(ctx context.Context, at time.Time) error
}

// PostgresSettingsStorage реализует SettingsStorage для PostgreSQL.
// Обе таблицы настроек содержат единственную строку с id = 1.
type PostgresSettingsStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresSettingsStorage создаёт новый экземпляр PostgresSettingsStorage.
func NewPostgresSettingsStorage(pool *pgxpool.Pool) *PostgresSettingsStorage {
	return &PostgresSettingsStorage{pool: pool}
}

// GetCardFee возвращает настройки комиссии за оплату картой.
func (s *PostgresSettingsStorage) GetCardFee(ctx context.Context) (*models.CardFeeSettings, error) {
	settings := &models.CardFeeSettings{}
	err := s.pool.QueryRow(ctx, `
		SELECT enabled, percentage, min_fee, updated_at
		FROM card_fee_settings
		WHERE id = 1
	`).Scan(&settings.Enabled, &settings.Percentage, &settings.MinFee, &settings.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("query card fee settings: %w", err)
	}
	return settings, nil
}

// UpdateCardFee обновляет настройки комиссии.
func (s *PostgresSettingsStorage) UpdateCardFee(ctx context.Context, settings *models.CardFeeSettings) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE card_fee_settings
		SET enabled = $1, percentage = $2, min_fee = $3, updated_at = NOW()
		WHERE id = 1
		RETURNING updated_at
	`, settings.Enabled, settings.Percentage, settings.MinFee).Scan(&settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update card fee settings: %w", err)
	}
	return nil
}

// GetSystem возвращает состояние счётчика номеров заказов.
func (s *PostgresSettingsStorage) GetSystem(ctx context.Context) (*models.SystemSettings, error) {
	settings := &models.SystemSettings{}
	err := s.pool.QueryRow(ctx, `
		SELECT next_order_number, last_number_reset
		FROM system_settings
		WHERE id = 1
	`).Scan(&settings.NextOrderNumber, &settings.LastNumberReset)
	if err != nil {
		return nil, fmt.Errorf("query system settings: %w", err)
	}
	return settings, nil
}

// ResetOrderNumbers сохраняет сброс счётчика на 1 с отметкой времени.
func (s *PostgresSettingsStorage) ResetOrderNumbers(ctx context.Context, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE system_settings
		SET next_order_number = 1, last_number_reset = $1
		WHERE id = 1
	`, at)
	if err != nil {
		return fmt.Errorf("reset order numbers: %w", err)
	}
	return nil
}
