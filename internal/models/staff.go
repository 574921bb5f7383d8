package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Staff представляет сотрудника. Флаги Working/OnBreak - производный кэш
// состояния последней открытой смены и обновляются вместе с ней.
type Staff struct {
	ID         uuid.UUID       `db:"id"`
	Name       string          `db:"name"`
	PINHash    string          `db:"pin_hash"`
	HourlyRate decimal.Decimal `db:"hourly_rate"`
	IsAdmin    bool            `db:"is_admin"`
	Working    bool            `db:"working"`
	OnBreak    bool            `db:"on_break"`
	Available  bool            `db:"available"`
	CreatedAt  time.Time       `db:"created_at"`
}

// Shift - долговременная запись смены: время входа/выхода, перерывы и
// ставка на момент смены.
type Shift struct {
	ID         uuid.UUID       `db:"id"`
	StaffID    uuid.UUID       `db:"staff_id"`
	ClockIn    time.Time       `db:"clock_in"`
	ClockOut   *time.Time      `db:"clock_out"`
	HourlyRate decimal.Decimal `db:"hourly_rate"`
	Breaks     []ShiftBreak    `db:"-"`
}

// ShiftBreak - один интервал перерыва внутри смены.
type ShiftBreak struct {
	ID      uuid.UUID  `db:"id"`
	ShiftID uuid.UUID  `db:"shift_id"`
	Start   time.Time  `db:"break_start"`
	End     *time.Time `db:"break_end"`
}

// BreakHours возвращает суммарную длительность перерывов в часах.
// Незавершённый перерыв считается до текущего момента.
func (s *Shift) BreakHours(now time.Time) float64 {
	var total time.Duration
	for _, b := range s.Breaks {
		end := now
		if b.End != nil {
			end = *b.End
		}
		total += end.Sub(b.Start)
	}
	return total.Hours()
}

// HoursWorked возвращает отработанные часы за вычетом перерывов.
func (s *Shift) HoursWorked(now time.Time) float64 {
	end := now
	if s.ClockOut != nil {
		end = *s.ClockOut
	}
	hours := end.Sub(s.ClockIn).Hours() - s.BreakHours(now)
	if hours < 0 {
		return 0
	}
	return hours
}

// Earnings возвращает заработок за смену по ставке на момент смены.
func (s *Shift) Earnings(now time.Time) decimal.Decimal {
	hours := decimal.NewFromFloat(s.HoursWorked(now))
	return s.HourlyRate.Mul(hours).Round(2)
}

// OpenBreak возвращает незакрытый перерыв или nil.
func (s *Shift) OpenBreak() *ShiftBreak {
	for i := range s.Breaks {
		if s.Breaks[i].End == nil {
			return &s.Breaks[i]
		}
	}
	return nil
}

// LoginRequest - запрос аутентификации по PIN.
type LoginRequest struct {
	PIN string `json:"pin"`
}

// StaffResponse - сотрудник в HTTP-ответах (без PIN).
type StaffResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	IsAdmin bool      `json:"is_admin"`
	Working bool      `json:"working"`
	OnBreak bool      `json:"on_break"`
}

// ShiftResponse - смена в HTTP-ответах с вычисленными показателями.
type ShiftResponse struct {
	ShiftID     uuid.UUID `json:"shift_id"`
	ClockIn     string    `json:"clock_in"`
	ClockOut    *string   `json:"clock_out,omitempty"`
	HoursWorked float64   `json:"hours_worked"`
	BreakHours  float64   `json:"break_hours"`
	Earnings    float64   `json:"earnings"`
}

// NewShiftResponse строит DTO смены на момент времени now.
func NewShiftResponse(s *Shift, now time.Time) *ShiftResponse {
	resp := &ShiftResponse{
		ShiftID:     s.ID,
		ClockIn:     s.ClockIn.Format(time.RFC3339),
		HoursWorked: s.HoursWorked(now),
		BreakHours:  s.BreakHours(now),
		Earnings:    decToFloat(s.Earnings(now)),
	}
	if s.ClockOut != nil {
		out := s.ClockOut.Format(time.RFC3339)
		resp.ClockOut = &out
	}
	return resp
}
