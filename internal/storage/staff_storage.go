package storage

import (
	"context"
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
	ErrStaffNotFound = errors.New("staff not found")
	ErrStaffExists   = errors.New("staff already exists")
	ErrNoOpenShift   = errors.New("no open shift")
	ErrShiftNotFound = errors.New("shift not found")
)

// StaffStorage определяет интерфейс для работы с сотрудниками и сменами.
type StaffStorage interface {
	Create(ctx context.Context, staff *models.Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Staff, error)
	ListAvailable(ctx context.Context) ([]*models.Staff, error)
	GetOpenShift(ctx context.Context, staffID uuid.UUID) (*models.Shift, error)
	ClockIn(ctx context.Context, staff *models.Staff) (*models.Shift, error)
	ClockOut(ctx context.Context, staffID, shiftID uuid.UUID, at time.Time) error
	StartBreak(ctx context.Context, staffID, shiftID uuid.UUID, at time.Time) (*models.ShiftBreak, error)
	EndBreak(ctx context.Context, staffID, breakID uuid.UUID, at time.Time) error
}

// PostgresStaffStorage реализует StaffStorage для PostgreSQL.
type PostgresStaffStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStaffStorage создаёт новый экземпляр PostgresStaffStorage.
func NewPostgresStaffStorage(pool *pgxpool.Pool) *PostgresStaffStorage {
	return &PostgresStaffStorage{pool: pool}
}

// Create создаёт нового сотрудника.
func (s *PostgresStaffStorage) Create(ctx context.Context, staff *models.Staff) error {
	if staff.ID == uuid.Nil {
		staff.ID = uuid.New()
	}

	query := `
		INSERT INTO staff (id, name, pin_hash, hourly_rate, is_admin, working, on_break, available, created_at)
		VALUES ($1, $2, $3, $4, $5, false, false, $6, NOW())
		RETURNING created_at
	`
	err := s.pool.QueryRow(ctx, query,
		staff.ID,
		staff.Name,
		staff.PINHash,
		staff.HourlyRate,
		staff.IsAdmin,
		staff.Available,
	).Scan(&staff.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrStaffExists
		}
		return fmt.Errorf("insert staff: %w", err)
	}

	return nil
}

// GetByID ищет сотрудника по идентификатору.
func (s *PostgresStaffStorage) GetByID(ctx context.Context, id uuid.UUID) (*models.Staff, error) {
	query := staffColumns + ` FROM staff WHERE id = $1`
	return scanStaff(s.pool.QueryRow(ctx, query, id))
}

// ListAvailable возвращает активных сотрудников; по этому списку идёт
// проверка PIN при входе.
func (s *PostgresStaffStorage) ListAvailable(ctx context.Context) ([]*models.Staff, error) {
	query := staffColumns + ` FROM staff WHERE available = true ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query staff: %w", err)
	}
	defer rows.Close()

	var list []*models.Staff
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, staff)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows error: %w", rows.Err())
	}

	return list, nil
}

// GetOpenShift возвращает незакрытую смену сотрудника вместе с перерывами.
func (s *PostgresStaffStorage) GetOpenShift(ctx context.Context, staffID uuid.UUID) (*models.Shift, error) {
	query := `
		SELECT id, staff_id, clock_in, clock_out, hourly_rate
		FROM shifts
		WHERE staff_id = $1 AND clock_out IS NULL
		ORDER BY clock_in DESC
		LIMIT 1
	`

	shift := &models.Shift{}
	err := s.pool.QueryRow(ctx, query, staffID).Scan(
		&shift.ID, &shift.StaffID, &shift.ClockIn, &shift.ClockOut, &shift.HourlyRate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoOpenShift
		}
		return nil, fmt.Errorf("query open shift: %w", err)
	}

	breakRows, err := s.pool.Query(ctx, `
		SELECT id, shift_id, break_start, break_end
		FROM shift_breaks
		WHERE shift_id = $1
		ORDER BY break_start ASC
	`, shift.ID)
	if err != nil {
		return nil, fmt.Errorf("query shift breaks: %w", err)
	}
	defer breakRows.Close()

	for breakRows.Next() {
		var b models.ShiftBreak
		if err := breakRows.Scan(&b.ID, &b.ShiftID, &b.Start, &b.End); err != nil {
			return nil, fmt.Errorf("scan shift break: %w", err)
		}
		shift.Breaks = append(shift.Breaks, b)
	}
	if breakRows.Err() != nil {
		return nil, fmt.Errorf("break rows error: %w", breakRows.Err())
	}

	return shift, nil
}

// ClockIn открывает смену и выставляет флаг working одной транзакцией,
// чтобы кэш на сотруднике не разъезжался со сменами.
func (s *PostgresStaffStorage) ClockIn(ctx context.Context, staff *models.Staff) (*models.Shift, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	shift := &models.Shift{
		ID:         uuid.New(),
		StaffID:    staff.ID,
		HourlyRate: staff.HourlyRate,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO shifts (id, staff_id, clock_in, hourly_rate)
		VALUES ($1, $2, NOW(), $3)
		RETURNING clock_in
	`, shift.ID, shift.StaffID, shift.HourlyRate).Scan(&shift.ClockIn)
	if err != nil {
		return nil, fmt.Errorf("insert shift: %w", err)
	}

	if err := setStaffFlags(ctx, tx, staff.ID, true, false); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return shift, nil
}

// ClockOut закрывает смену и сбрасывает флаг working.
func (s *PostgresStaffStorage) ClockOut(ctx context.Context, staffID, shiftID uuid.UUID, at time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE shifts SET clock_out = $2 WHERE id = $1 AND clock_out IS NULL
	`, shiftID, at)
	if err != nil {
		return fmt.Errorf("close shift: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrShiftNotFound
	}

	if err := setStaffFlags(ctx, tx, staffID, false, false); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// StartBreak открывает интервал перерыва и выставляет флаг on_break.
func (s *PostgresStaffStorage) StartBreak(ctx context.Context, staffID, shiftID uuid.UUID, at time.Time) (*models.ShiftBreak, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	b := &models.ShiftBreak{ID: uuid.New(), ShiftID: shiftID, Start: at}
	if _, err := tx.Exec(ctx, `
		INSERT INTO shift_breaks (id, shift_id, break_start)
		VALUES ($1, $2, $3)
	`, b.ID, b.ShiftID, b.Start); err != nil {
		return nil, fmt.Errorf("insert shift break: %w", err)
	}

	if err := setStaffFlags(ctx, tx, staffID, true, true); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return b, nil
}

// EndBreak закрывает интервал перерыва и сбрасывает флаг on_break.
func (s *PostgresStaffStorage) EndBreak(ctx context.Context, staffID, breakID uuid.UUID, at time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE shift_breaks SET break_end = $2 WHERE id = $1 AND break_end IS NULL
	`, breakID, at)
	if err != nil {
		return fmt.Errorf("close shift break: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrShiftNotFound
	}

	if err := setStaffFlags(ctx, tx, staffID, true, false); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

const staffColumns = `
	SELECT id, name, pin_hash, hourly_rate, is_admin, working, on_break, available, created_at
`

func scanStaff(row pgx.Row) (*models.Staff, error) {
	staff := &models.Staff{}
	err := row.Scan(
		&staff.ID,
		&staff.Name,
		&staff.PINHash,
		&staff.HourlyRate,
		&staff.IsAdmin,
		&staff.Working,
		&staff.OnBreak,
		&staff.Available,
		&staff.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("scan staff: %w", err)
	}
	return staff, nil
}

func setStaffFlags(ctx context.Context, tx pgx.Tx, staffID uuid.UUID, working, onBreak bool) error {
	result, err := tx.Exec(ctx, `
		UPDATE staff SET working = $2, on_break = $3 WHERE id = $1
	`, staffID, working, onBreak)
	if err != nil {
		return fmt.Errorf("update staff flags: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrStaffNotFound
	}
	return nil
}
