package memory

import (
	"context"

	"github.com/jhoicas/contabilidad-core/internal/domain/accounting"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
)

var _ repository.LedgerReader = (*LedgerReader)(nil)

// LedgerReader lee el diario bajo el bloqueo de lectura: la foto incluye cada
// asiento completo o no lo incluye.
type LedgerReader struct {
	store *Store
}

// NewLedgerReader construye el lector.
func NewLedgerReader(s *Store) *LedgerReader {
	return &LedgerReader{store: s}
}

// Snapshot cuentas del rango, saldos anteriores a DateFrom y movimientos del periodo.
func (r *LedgerReader) Snapshot(ctx context.Context, f repository.LedgerFilter) (*entity.LedgerSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &entity.LedgerSnapshot{Openings: make(map[string]entity.SideTotals)}
	for code, a := range s.accounts {
		if accounting.InRange(code, f.AccountFrom, f.AccountTo) {
			c := *a
			snap.Accounts = append(snap.Accounts, &c)
		}
	}
	for _, e := range s.entries {
		if e.Date.After(f.DateTo) {
			continue
		}
		before := !f.DateFrom.IsZero() && e.Date.Before(f.DateFrom)
		for _, l := range e.Lines {
			if !accounting.InRange(l.AccountCode, f.AccountFrom, f.AccountTo) {
				continue
			}
			if before {
				snap.Openings[l.AccountCode] = snap.Openings[l.AccountCode].Add(l.Debit, l.Credit)
				continue
			}
			snap.Movements = append(snap.Movements, entity.LedgerMovement{
				AccountCode: l.AccountCode,
				Exercise:    e.Exercise,
				Number:      e.Number,
				LineNo:      l.LineNo,
				Date:        e.Date,
				Concept:     lineConcept(e, l),
				Debit:       l.Debit,
				Credit:      l.Credit,
			})
		}
	}
	accounting.SortMovements(snap.Movements)
	return snap, nil
}

// lineConcept concepto de la línea o, si falta, el del asiento.
func lineConcept(e *entity.JournalEntry, l entity.JournalLine) string {
	if l.Concept != "" {
		return l.Concept
	}
	return e.Concept
}
