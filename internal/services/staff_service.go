package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agamariel/poscore/internal/auth"
	"github.com/agamariel/poscore/internal/models"
	"github.com/agamariel/poscore/internal/storage"
)

var (
	ErrInvalidPIN       = errors.New("invalid pin")
	ErrEmptyPIN         = errors.New("pin is required")
	ErrAlreadyClockedIn = errors.New("staff already has an open shift")
	ErrNotClockedIn     = errors.New("staff has no open shift")
	ErrAlreadyOnBreak   = errors.New("staff is already on break")
	ErrNotOnBreak       = errors.New("staff is not on break")
)

// StaffService определяет аутентификацию по PIN и учёт рабочего времени.
type StaffService interface {
	Login(ctx context.Context, pin string) (*models.Staff, string, error)
	ClockIn(ctx context.Context, pin string) (*models.Staff, *models.Shift, error)
	ClockOut(ctx context.Context, pin string) (*models.Staff, *models.Shift, error)
	StartBreak(ctx context.Context, pin string) (*models.Staff, *models.Shift, error)
	EndBreak(ctx context.Context, pin string) (*models.Staff, *models.Shift, error)
	ListAvailable(ctx context.Context) ([]*models.Staff, error)
}

// StaffServiceImpl реализует StaffService.
type StaffServiceImpl struct {
	staffStorage    storage.StaffStorage
	jwtSecret       string
	tokenExpiration time.Duration
}

// NewStaffService создаёт новый экземпляр StaffService.
func NewStaffService(staffStorage storage.StaffStorage, jwtSecret string, tokenExpiration time.Duration) *StaffServiceImpl {
	return &StaffServiceImpl{
		staffStorage:    staffStorage,
		jwtSecret:       jwtSecret,
		tokenExpiration: tokenExpiration,
	}
}

// Login аутентифицирует сотрудника по PIN и выдаёт JWT.
func (s *StaffServiceImpl) Login(ctx context.Context, pin string) (*models.Staff, string, error) {
	staff, err := s.authenticate(ctx, pin)
	if err != nil {
		return nil, "", err
	}

	token, err := s.generateToken(staff)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return staff, token, nil
}

// ClockIn открывает смену сотрудника. Ставка снимается на момент входа.
func (s *StaffServiceImpl) ClockIn(ctx context.Context, pin string) (*models.Staff, *models.Shift, error) {
	staff, err := s.authenticate(ctx, pin)
	if err != nil {
		return nil, nil, err
	}

	_, err = s.staffStorage.GetOpenShift(ctx, staff.ID)
	if err == nil {
		return nil, nil, ErrAlreadyClockedIn
	}
	if !errors.Is(err, storage.ErrNoOpenShift) {
		return nil, nil, fmt.Errorf("check open shift: %w", err)
	}

	shift, err := s.staffStorage.ClockIn(ctx, staff)
	if err != nil {
		return nil, nil, fmt.Errorf("clock in: %w", err)
	}
	staff.Working = true
	staff.OnBreak = false
	return staff, shift, nil
}

// ClockOut закрывает смену; незакрытый перерыв завершается той же отметкой.
func (s *StaffServiceImpl) ClockOut(ctx context.Context, pin string) (*models.Staff, *models.Shift, error) {
	staff, shift, err := s.openShift(ctx, pin)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	if open := shift.OpenBreak(); open != nil {
		if err := s.staffStorage.EndBreak(ctx, staff.ID, open.ID, now); err != nil {
			return nil, nil, fmt.Errorf("end break: %w", err)
		}
		open.End = &now
	}

	if err := s.staffStorage.ClockOut(ctx, staff.ID, shift.ID, now); err != nil {
		return nil, nil, fmt.Errorf("clock out: %w", err)
	}
	shift.ClockOut = &now
	staff.Working = false
	staff.OnBreak = false
	return staff, shift, nil
}

// StartBreak открывает перерыв внутри смены. Перерывов за смену может быть
// несколько, но одновременно открыт только один.
func (s *StaffServiceImpl) StartBreak(ctx context.Context, pin string) (*models.Staff, *models.Shift, error) {
	staff, shift, err := s.openShift(ctx, pin)
	if err != nil {
		return nil, nil, err
	}
	if shift.OpenBreak() != nil {
		return nil, nil, ErrAlreadyOnBreak
	}

	brk, err := s.staffStorage.StartBreak(ctx, staff.ID, shift.ID, time.Now())
	if err != nil {
		return nil, nil, fmt.Errorf("start break: %w", err)
	}
	shift.Breaks = append(shift.Breaks, *brk)
	staff.OnBreak = true
	return staff, shift, nil
}

// EndBreak закрывает текущий перерыв.
func (s *StaffServiceImpl) EndBreak(ctx context.Context, pin string) (*models.Staff, *models.Shift, error) {
	staff, shift, err := s.openShift(ctx, pin)
	if err != nil {
		return nil, nil, err
	}
	open := shift.OpenBreak()
	if open == nil {
		return nil, nil, ErrNotOnBreak
	}

	now := time.Now()
	if err := s.staffStorage.EndBreak(ctx, staff.ID, open.ID, now); err != nil {
		return nil, nil, fmt.Errorf("end break: %w", err)
	}
	open.End = &now
	staff.OnBreak = false
	return staff, shift, nil
}

// ListAvailable возвращает активных сотрудников.
func (s *StaffServiceImpl) ListAvailable(ctx context.Context) ([]*models.Staff, error) {
	staff, err := s.staffStorage.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

// authenticate находит сотрудника по PIN среди активных. PIN не хранится
// в открытом виде, поэтому сверка идёт по bcrypt-хешу каждого кандидата.
func (s *StaffServiceImpl) authenticate(ctx context.Context, pin string) (*models.Staff, error) {
	if pin == "" {
		return nil, ErrEmptyPIN
	}

	candidates, err := s.staffStorage.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}

	for _, staff := range candidates {
		if auth.CheckPIN(pin, staff.PINHash) {
			return staff, nil
		}
	}
	return nil, ErrInvalidPIN
}

// openShift аутентифицирует сотрудника и возвращает его открытую смену.
func (s *StaffServiceImpl) openShift(ctx context.Context, pin string) (*models.Staff, *models.Shift, error) {
	staff, err := s.authenticate(ctx, pin)
	if err != nil {
		return nil, nil, err
	}

	shift, err := s.staffStorage.GetOpenShift(ctx, staff.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNoOpenShift) {
			return nil, nil, ErrNotClockedIn
		}
		return nil, nil, fmt.Errorf("get open shift: %w", err)
	}
	return staff, shift, nil
}

// generateToken генерирует JWT токен для сотрудника.
func (s *StaffServiceImpl) generateToken(staff *models.Staff) (string, error) {
	exp := s.tokenExpiration
	if exp <= 0 {
		exp = 12 * time.Hour
	}
	token, err := auth.GenerateToken(staff, s.jwtSecret, exp)
	if err != nil {
		return "", err
	}
	return token, nil
}
