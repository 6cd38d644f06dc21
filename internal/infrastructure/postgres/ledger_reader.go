package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/contabilidad-core/internal/domain/accounting"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
)

var _ repository.LedgerReader = (*LedgerReader)(nil)

// Rango de cuentas por prefijo: los extremos vacíos no limitan.
const accountRange = `($1 = '' OR code >= $1 OR starts_with($1, code))
	AND ($2 = '' OR code <= $2 OR starts_with(code, $2))`

const lineRange = `($1 = '' OR l.account_code >= $1 OR starts_with($1, l.account_code))
	AND ($2 = '' OR l.account_code <= $2 OR starts_with(l.account_code, $2))`

// LedgerReader consultas del Libro Mayor en una transacción REPEATABLE READ de solo
// lectura: las tres consultas ven la misma foto del diario.
type LedgerReader struct {
	pool *pgxpool.Pool
}

// NewLedgerReader construye el lector.
func NewLedgerReader(pool *pgxpool.Pool) *LedgerReader {
	return &LedgerReader{pool: pool}
}

// Snapshot cuentas del rango, saldos anteriores a DateFrom y movimientos del periodo.
func (r *LedgerReader) Snapshot(ctx context.Context, f repository.LedgerFilter) (*entity.LedgerSnapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	snap := &entity.LedgerSnapshot{Openings: make(map[string]entity.SideTotals)}

	rows, err := tx.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE `+accountRange+` ORDER BY code`,
		f.AccountFrom, f.AccountTo,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger accounts: %w", err)
	}
	if snap.Accounts, err = collectAccounts(rows); err != nil {
		return nil, fmt.Errorf("scan ledger accounts: %w", err)
	}

	if !f.DateFrom.IsZero() {
		rows, err := tx.Query(ctx, `
			SELECT l.account_code, COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
			FROM journal_lines l
			JOIN journal_entries e ON e.id = l.entry_id
			WHERE `+lineRange+` AND e.entry_date < $3
			GROUP BY l.account_code`,
			f.AccountFrom, f.AccountTo, f.DateFrom,
		)
		if err != nil {
			return nil, fmt.Errorf("ledger openings: %w", err)
		}
		for rows.Next() {
			var code string
			var debit, credit decimal.Decimal
			if err := rows.Scan(&code, &debit, &credit); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan opening: %w", err)
			}
			snap.Openings[code] = entity.SideTotals{Debit: debit, Credit: credit}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	rows, err = tx.Query(ctx, `
		SELECT l.account_code, e.exercise, e.number, l.line_no, e.entry_date,
			COALESCE(NULLIF(l.concept, ''), e.concept), l.debit, l.credit
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		WHERE `+lineRange+` AND e.entry_date >= $3 AND e.entry_date <= $4
		ORDER BY e.entry_date, e.exercise, e.number, l.line_no`,
		f.AccountFrom, f.AccountTo, f.DateFrom, f.DateTo,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger movements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m entity.LedgerMovement
		if err := rows.Scan(&m.AccountCode, &m.Exercise, &m.Number, &m.LineNo, &m.Date, &m.Concept, &m.Debit, &m.Credit); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		snap.Movements = append(snap.Movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	accounting.SortMovements(snap.Movements)
	return snap, nil
}
