package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
)

var (
	_ repository.FiscalRepository = (*FiscalRepo)(nil)
	_ repository.AuditRepository  = (*AuditRepo)(nil)
)

// FiscalRepo ejercicios (fiscal_exercises) con sus periodos (fiscal_periods).
type FiscalRepo struct {
	q Querier
}

// NewFiscalRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFiscalRepository(q Querier) *FiscalRepo {
	return &FiscalRepo{q: q}
}

// GetExercise ejercicio con sus 12 periodos; nil, nil si no existe.
func (r *FiscalRepo) GetExercise(ctx context.Context, year int) (*entity.FiscalExercise, error) {
	ex := entity.NewFiscalExercise(year, time.Time{})
	err := r.q.QueryRow(ctx,
		`SELECT is_closed, closing_date, created_at, updated_at FROM fiscal_exercises WHERE year = $1`,
		year,
	).Scan(&ex.IsClosed, &ex.ClosingDate, &ex.CreatedAt, &ex.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get exercise: %w", err)
	}
	if err := r.loadPeriods(ctx, map[int]*entity.FiscalExercise{year: ex}); err != nil {
		return nil, err
	}
	return ex, nil
}

func (r *FiscalRepo) loadPeriods(ctx context.Context, byYear map[int]*entity.FiscalExercise) error {
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	rows, err := r.q.Query(ctx,
		`SELECT exercise, number, is_closed, closed_at, closed_by FROM fiscal_periods WHERE exercise = ANY($1)`,
		years,
	)
	if err != nil {
		return fmt.Errorf("get periods: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var year, number int
		var p entity.FiscalPeriod
		var closedBy *string
		if err := rows.Scan(&year, &number, &p.IsClosed, &p.ClosedAt, &closedBy); err != nil {
			return fmt.Errorf("scan period: %w", err)
		}
		ex := byYear[year]
		if period := ex.Period(number); period != nil {
			p.Number = number
			p.ClosedBy = fromNull(closedBy)
			*period = p
		}
	}
	return rows.Err()
}

// SaveExercise inserta o actualiza el ejercicio y sus 12 periodos.
func (r *FiscalRepo) SaveExercise(ctx context.Context, ex *entity.FiscalExercise) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO fiscal_exercises (year, is_closed, closing_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (year) DO UPDATE
		SET is_closed = EXCLUDED.is_closed, closing_date = EXCLUDED.closing_date, updated_at = EXCLUDED.updated_at`,
		ex.Year, ex.IsClosed, ex.ClosingDate, ex.CreatedAt, ex.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save exercise: %w", err)
	}
	for _, p := range ex.Periods {
		_, err := r.q.Exec(ctx, `
			INSERT INTO fiscal_periods (exercise, number, is_closed, closed_at, closed_by)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (exercise, number) DO UPDATE
			SET is_closed = EXCLUDED.is_closed, closed_at = EXCLUDED.closed_at, closed_by = EXCLUDED.closed_by`,
			ex.Year, p.Number, p.IsClosed, p.ClosedAt, nullString(p.ClosedBy),
		)
		if err != nil {
			return fmt.Errorf("save period %d/%d: %w", p.Number, ex.Year, err)
		}
	}
	return nil
}

// ListExercises ejercicios ordenados por año.
func (r *FiscalRepo) ListExercises(ctx context.Context) ([]*entity.FiscalExercise, error) {
	rows, err := r.q.Query(ctx,
		`SELECT year, is_closed, closing_date, created_at, updated_at FROM fiscal_exercises ORDER BY year`)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	var list []*entity.FiscalExercise
	byYear := make(map[int]*entity.FiscalExercise)
	for rows.Next() {
		var year int
		var ex entity.FiscalExercise
		if err := rows.Scan(&year, &ex.IsClosed, &ex.ClosingDate, &ex.CreatedAt, &ex.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		full := entity.NewFiscalExercise(year, ex.CreatedAt)
		full.IsClosed, full.ClosingDate, full.UpdatedAt = ex.IsClosed, ex.ClosingDate, ex.UpdatedAt
		list = append(list, full)
		byYear[year] = full
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}
	if err := r.loadPeriods(ctx, byYear); err != nil {
		return nil, err
	}
	return list, nil
}

// AuditRepo auditoría de reaperturas (period_audit).
type AuditRepo struct {
	q Querier
}

// NewAuditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

// Create registra una reapertura.
func (r *AuditRepo) Create(ctx context.Context, rec *entity.PeriodAuditRecord) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO period_audit (id, exercise, period, action, user_id, reason, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Exercise, rec.Period, rec.Action, rec.UserID, rec.Reason, rec.At,
	)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// ListByExercise registros del ejercicio en orden cronológico.
func (r *AuditRepo) ListByExercise(ctx context.Context, year int) ([]*entity.PeriodAuditRecord, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id::text, exercise, period, action, user_id, reason, at
		FROM period_audit WHERE exercise = $1 ORDER BY at`, year)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()
	var list []*entity.PeriodAuditRecord
	for rows.Next() {
		var rec entity.PeriodAuditRecord
		if err := rows.Scan(&rec.ID, &rec.Exercise, &rec.Period, &rec.Action, &rec.UserID, &rec.Reason, &rec.At); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		list = append(list, &rec)
	}
	return list, rows.Err()
}
