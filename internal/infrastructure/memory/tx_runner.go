package memory

import (
	"context"

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

// TxRunner unidades de trabajo sobre el Store. Orden de bloqueo: prefijo o
// ejercicio, después contador global, después plan.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{store: s}
}

func (r *TxRunner) run(ctx context.Context, fn func(t *tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTx(r.store)
	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}

// RunChart plan en exclusiva: ninguna contabilización ni alta de subcuenta en curso.
func (r *TxRunner) RunChart(ctx context.Context, fn func(
	accountRepo repository.AccountRepository,
	journalRepo repository.JournalRepository,
) error) error {
	r.store.chartMu.Lock()
	defer r.store.chartMu.Unlock()
	return r.run(ctx, func(t *tx) error {
		b := binding{store: r.store, tx: t}
		return fn(&AccountRepo{b}, &JournalRepo{b})
	})
}

// RunCalendar sección crítica del ejercicio.
func (r *TxRunner) RunCalendar(ctx context.Context, exercise int, fn func(
	fiscalRepo repository.FiscalRepository,
	auditRepo repository.AuditRepository,
) error) error {
	mu := r.store.exerciseLock(exercise)
	mu.Lock()
	defer mu.Unlock()
	return r.run(ctx, func(t *tx) error {
		b := binding{store: r.store, tx: t}
		return fn(&FiscalRepo{b}, &AuditRepo{b})
	})
}

// RunProvisioning serializa altas bajo el mismo prefijo; el plan queda en modo compartido.
func (r *TxRunner) RunProvisioning(ctx context.Context, prefix string, fn func(
	accountRepo repository.AccountRepository,
	subledgerRepo repository.SubledgerRepository,
) error) error {
	mu := r.store.prefixLock(prefix)
	mu.Lock()
	defer mu.Unlock()
	r.store.chartMu.RLock()
	defer r.store.chartMu.RUnlock()
	return r.run(ctx, func(t *tx) error {
		b := binding{store: r.store, tx: t}
		return fn(&AccountRepo{b}, &SubledgerRepo{b})
	})
}

// RunPosting sección crítica del ejercicio; con sequenceScope 0 también el contador global.
func (r *TxRunner) RunPosting(ctx context.Context, exercise, sequenceScope int, fn func(
	accountRepo repository.AccountRepository,
	fiscalRepo repository.FiscalRepository,
	journalRepo repository.JournalRepository,
) error) error {
	mu := r.store.exerciseLock(exercise)
	mu.Lock()
	defer mu.Unlock()
	if sequenceScope == 0 {
		r.store.sequenceMu.Lock()
		defer r.store.sequenceMu.Unlock()
	}
	r.store.chartMu.RLock()
	defer r.store.chartMu.RUnlock()
	return r.run(ctx, func(t *tx) error {
		b := binding{store: r.store, tx: t}
		return fn(&AccountRepo{b}, &FiscalRepo{b}, &JournalRepo{b})
	})
}
