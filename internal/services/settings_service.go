package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agamariel/poscore/internal/models"
	"github.com/agamariel/poscore/internal/storage"
	"github.com/shopspring/decimal"
)

var ErrInvalidFeeSettings = errors.New("card fee settings are invalid")

// SettingsService определяет управление настройками комиссии за карту.
type SettingsService interface {
	GetCardFee(ctx context.Context) (*models.CardFeeSettings, error)
	UpdateCardFee(ctx context.Context, req *models.CardFeeRequest) (*models.CardFeeSettings, error)
}

// SettingsServiceImpl реализует SettingsService.
type SettingsServiceImpl struct {
	settingsStorage storage.SettingsStorage
}

// NewSettingsService создаёт новый экземпляр SettingsService.
func NewSettingsService(settingsStorage storage.SettingsStorage) *SettingsServiceImpl {
	return &SettingsServiceImpl{settingsStorage: settingsStorage}
}

// GetCardFee возвращает текущие настройки комиссии.
func (s *SettingsServiceImpl) GetCardFee(ctx context.Context) (*models.CardFeeSettings, error) {
	settings, err := s.settingsStorage.GetCardFee(ctx)
	if err != nil {
		return nil, fmt.Errorf("get card fee settings: %w", err)
	}
	return settings, nil
}

// UpdateCardFee сохраняет новые настройки комиссии. Процент и минимум
// не могут быть отрицательными.
func (s *SettingsServiceImpl) UpdateCardFee(ctx context.Context, req *models.CardFeeRequest) (*models.CardFeeSettings, error) {
	if req.Percentage < 0 || req.Percentage > 100 || req.MinFee < 0 {
		return nil, ErrInvalidFeeSettings
	}

	settings := &models.CardFeeSettings{
		Enabled:    req.Enabled,
		Percentage: decimal.NewFromFloat(req.Percentage),
		MinFee:     decimal.NewFromFloat(req.MinFee).Round(2),
		UpdatedAt:  time.Now(),
	}
	if err := s.settingsStorage.UpdateCardFee(ctx, settings); err != nil {
		return nil, fmt.Errorf("update card fee settings: %w", err)
	}
	return settings, nil
}
