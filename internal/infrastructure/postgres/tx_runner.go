package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/contabilidad-core/internal/application/chart"
	"github.com/jhoicas/contabilidad-core/internal/application/fiscal"
	"github.com/jhoicas/contabilidad-core/internal/application/posting"
	"github.com/jhoicas/contabilidad-core/internal/application/subledger"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
)

var (
	_ chart.TxRunner     = (*TxRunner)(nil)
	_ fiscal.TxRunner    = (*TxRunner)(nil)
	_ subledger.TxRunner = (*TxRunner)(nil)
	_ posting.TxRunner   = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. Las secciones
// críticas son advisory locks de transacción: se liberan solos en commit o rollback.
// Orden de toma: prefijo o ejercicio, contador global, plan.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

type lockSpec struct {
	class  int32
	key    int32
	shared bool
}

func (r *TxRunner) run(ctx context.Context, locks []lockSpec, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, l := range locks {
		stmt := `SELECT pg_advisory_xact_lock($1, $2)`
		if l.shared {
			stmt = `SELECT pg_advisory_xact_lock_shared($1, $2)`
		}
		if _, err := tx.Exec(ctx, stmt, l.class, l.key); err != nil {
			return fmt.Errorf("advisory lock %d/%d: %w", l.class, l.key, err)
		}
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunChart toma el plan en exclusiva.
func (r *TxRunner) RunChart(ctx context.Context, fn func(
	accountRepo repository.AccountRepository,
	journalRepo repository.JournalRepository,
) error) error {
	return r.run(ctx, []lockSpec{{class: lockChart}}, func(tx pgx.Tx) error {
		return fn(NewAccountRepository(tx), NewJournalRepository(tx))
	})
}

// RunCalendar sección crítica del ejercicio.
func (r *TxRunner) RunCalendar(ctx context.Context, exercise int, fn func(
	fiscalRepo repository.FiscalRepository,
	auditRepo repository.AuditRepository,
) error) error {
	return r.run(ctx, []lockSpec{{class: lockExercise, key: int32(exercise)}}, func(tx pgx.Tx) error {
		return fn(NewFiscalRepository(tx), NewAuditRepository(tx))
	})
}

// RunProvisioning serializa altas bajo el mismo prefijo; plan en modo compartido.
func (r *TxRunner) RunProvisioning(ctx context.Context, prefix string, fn func(
	accountRepo repository.AccountRepository,
	subledgerRepo repository.SubledgerRepository,
) error) error {
	locks := []lockSpec{
		{class: lockPrefix, key: prefixLockKey(prefix)},
		{class: lockChart, shared: true},
	}
	return r.run(ctx, locks, func(tx pgx.Tx) error {
		return fn(NewAccountRepository(tx), NewSubledgerRepository(tx))
	})
}

// RunPosting sección crítica del ejercicio; con sequenceScope 0 también el contador global.
func (r *TxRunner) RunPosting(ctx context.Context, exercise, sequenceScope int, fn func(
	accountRepo repository.AccountRepository,
	fiscalRepo repository.FiscalRepository,
	journalRepo repository.JournalRepository,
) error) error {
	locks := []lockSpec{{class: lockExercise, key: int32(exercise)}}
	if sequenceScope == 0 {
		locks = append(locks, lockSpec{class: lockSequence})
	}
	locks = append(locks, lockSpec{class: lockChart, shared: true})
	return r.run(ctx, locks, func(tx pgx.Tx) error {
		return fn(NewAccountRepository(tx), NewFiscalRepository(tx), NewJournalRepository(tx))
	})
}
