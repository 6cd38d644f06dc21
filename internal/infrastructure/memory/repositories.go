package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
)

var (
	_ repository.AccountRepository   = (*AccountRepo)(nil)
	_ repository.FiscalRepository    = (*FiscalRepo)(nil)
	_ repository.AuditRepository     = (*AuditRepo)(nil)
	_ repository.JournalRepository   = (*JournalRepo)(nil)
	_ repository.SubledgerRepository = (*SubledgerRepo)(nil)
)

// binding une un repo al almacén y, si va dentro de un TxRunner, a su tx.
// Sin tx cada escritura es su propia transacción.
type binding struct {
	store *Store
	tx    *tx
}

func (b binding) view() *tx {
	if b.tx != nil {
		return b.tx
	}
	return newTx(b.store)
}

func (b binding) write(fn func(t *tx) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	t := newTx(b.store)
	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}

// AccountRepo plan de cuentas en memoria.
type AccountRepo struct{ binding }

// NewAccountRepository repo fuera de transacción.
func NewAccountRepository(s *Store) *AccountRepo {
	return &AccountRepo{binding{store: s}}
}

// Create falla con ErrDuplicateAccountCode si el código existe.
func (r *AccountRepo) Create(ctx context.Context, account *entity.Account) error {
	return r.write(func(t *tx) error {
		if t.account(account.Code) != nil {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountCode, account.Code)
		}
		c := *account
		t.accounts[account.Code] = &c
		t.created[account.Code] = true
		return nil
	})
}

// GetByCode nil, nil si no existe.
func (r *AccountRepo) GetByCode(ctx context.Context, code string) (*entity.Account, error) {
	return r.view().account(code), nil
}

// GetMany cuentas existentes de entre los códigos pedidos.
func (r *AccountRepo) GetMany(ctx context.Context, codes []string) (map[string]*entity.Account, error) {
	t := r.view()
	out := make(map[string]*entity.Account, len(codes))
	for _, code := range codes {
		if a := t.account(code); a != nil {
			out[code] = a
		}
	}
	return out, nil
}

// Update reemplaza la cuenta; debe existir.
func (r *AccountRepo) Update(ctx context.Context, account *entity.Account) error {
	return r.write(func(t *tx) error {
		if t.account(account.Code) == nil {
			return fmt.Errorf("%w: cuenta %s", domain.ErrNotFound, account.Code)
		}
		c := *account
		t.accounts[account.Code] = &c
		return nil
	})
}

// ListByPrefix rama del plan ordenada por código.
func (r *AccountRepo) ListByPrefix(ctx context.Context, prefix string, activeOnly bool) ([]*entity.Account, error) {
	return r.view().allAccounts(func(a *entity.Account) bool {
		return strings.HasPrefix(a.Code, prefix) && (!activeOnly || a.Active)
	}), nil
}

// ListAll plan completo ordenado por código.
func (r *AccountRepo) ListAll(ctx context.Context, activeOnly bool) ([]*entity.Account, error) {
	return r.view().allAccounts(func(a *entity.Account) bool {
		return !activeOnly || a.Active
	}), nil
}

// HasChildren indica si hay cuentas más largas bajo code.
func (r *AccountRepo) HasChildren(ctx context.Context, code string) (bool, error) {
	children := r.view().allAccounts(func(a *entity.Account) bool {
		return len(a.Code) > len(code) && strings.HasPrefix(a.Code, code)
	})
	return len(children) > 0, nil
}

// CountByPrefix cuentas de la longitud dada bajo prefix.
func (r *AccountRepo) CountByPrefix(ctx context.Context, prefix string, length int) (int, error) {
	n := len(r.view().allAccounts(func(a *entity.Account) bool {
		return len(a.Code) == length && strings.HasPrefix(a.Code, prefix)
	}))
	return n, nil
}

// FiscalRepo ejercicios y periodos en memoria.
type FiscalRepo struct{ binding }

// NewFiscalRepository repo fuera de transacción.
func NewFiscalRepository(s *Store) *FiscalRepo {
	return &FiscalRepo{binding{store: s}}
}

// GetExercise nil, nil si no existe.
func (r *FiscalRepo) GetExercise(ctx context.Context, year int) (*entity.FiscalExercise, error) {
	return r.view().exercise(year), nil
}

// SaveExercise inserta o reemplaza el ejercicio.
func (r *FiscalRepo) SaveExercise(ctx context.Context, exercise *entity.FiscalExercise) error {
	return r.write(func(t *tx) error {
		t.exercises[exercise.Year] = exercise.Clone()
		return nil
	})
}

// ListExercises ejercicios ordenados por año.
func (r *FiscalRepo) ListExercises(ctx context.Context) ([]*entity.FiscalExercise, error) {
	t := r.view()
	merged := make(map[int]*entity.FiscalExercise)
	t.store.mu.RLock()
	for y, ex := range t.store.exercises {
		merged[y] = ex.Clone()
	}
	t.store.mu.RUnlock()
	for y, ex := range t.exercises {
		merged[y] = ex.Clone()
	}
	out := make([]*entity.FiscalExercise, 0, len(merged))
	for _, ex := range merged {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

// AuditRepo registro de reaperturas en memoria.
type AuditRepo struct{ binding }

// NewAuditRepository repo fuera de transacción.
func NewAuditRepository(s *Store) *AuditRepo {
	return &AuditRepo{binding{store: s}}
}

// Create añade un registro.
func (r *AuditRepo) Create(ctx context.Context, record *entity.PeriodAuditRecord) error {
	return r.write(func(t *tx) error {
		c := *record
		t.audit = append(t.audit, &c)
		return nil
	})
}

// ListByExercise registros del ejercicio en orden cronológico.
func (r *AuditRepo) ListByExercise(ctx context.Context, year int) ([]*entity.PeriodAuditRecord, error) {
	t := r.view()
	var out []*entity.PeriodAuditRecord
	t.store.mu.RLock()
	all := append(append([]*entity.PeriodAuditRecord(nil), t.store.audit...), t.audit...)
	t.store.mu.RUnlock()
	for _, rec := range all {
		if rec.Exercise == year {
			c := *rec
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

// JournalRepo diario en memoria.
type JournalRepo struct{ binding }

// NewJournalRepository repo fuera de transacción.
func NewJournalRepository(s *Store) *JournalRepo {
	return &JournalRepo{binding{store: s}}
}

// NextNumber incrementa el contador scope. Solo es seguro dentro de RunPosting,
// que serializa el ejercicio (o la numeración global).
func (r *JournalRepo) NextNumber(ctx context.Context, scope int) (int64, error) {
	var next int64
	err := r.write(func(t *tx) error {
		current, ok := t.sequences[scope]
		if !ok {
			t.store.mu.RLock()
			current = t.store.sequences[scope]
			t.store.mu.RUnlock()
		}
		next = current + 1
		t.sequences[scope] = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Create añade el asiento completo.
func (r *JournalRepo) Create(ctx context.Context, entry *entity.JournalEntry) error {
	return r.write(func(t *tx) error {
		if t.entry(entry.Exercise, entry.Number) != nil {
			return fmt.Errorf("%w: asiento %d/%d", domain.ErrDuplicate, entry.Number, entry.Exercise)
		}
		t.entries = append(t.entries, cloneEntry(entry))
		return nil
	})
}

// GetByNumber nil, nil si no existe.
func (r *JournalRepo) GetByNumber(ctx context.Context, exercise int, number int64) (*entity.JournalEntry, error) {
	return r.view().entry(exercise, number), nil
}

// ListByExercise asientos del ejercicio por número.
func (r *JournalRepo) ListByExercise(ctx context.Context, exercise int, limit, offset int) ([]*entity.JournalEntry, error) {
	t := r.view()
	var out []*entity.JournalEntry
	t.store.mu.RLock()
	for k, e := range t.store.entries {
		if k.exercise == exercise {
			out = append(out, cloneEntry(e))
		}
	}
	t.store.mu.RUnlock()
	for _, e := range t.entries {
		if e.Exercise == exercise {
			out = append(out, cloneEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	if offset >= len(out) {
		return []*entity.JournalEntry{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// HasPostings indica si alguna línea usa la cuenta.
func (r *JournalRepo) HasPostings(ctx context.Context, accountCode string) (bool, error) {
	t := r.view()
	for _, e := range t.entries {
		for _, l := range e.Lines {
			if l.AccountCode == accountCode {
				return true, nil
			}
		}
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.store.postings[accountCode] > 0, nil
}

// SubledgerRepo asignaciones tercero -> subcuenta en memoria.
type SubledgerRepo struct{ binding }

// NewSubledgerRepository repo fuera de transacción.
func NewSubledgerRepository(s *Store) *SubledgerRepo {
	return &SubledgerRepo{binding{store: s}}
}

// Get nil, nil si el tercero no tiene subcuenta.
func (r *SubledgerRepo) Get(ctx context.Context, cpType entity.CounterpartyType, counterpartyID string) (*entity.SubledgerAccount, error) {
	return r.view().sub(subKey{cpType, counterpartyID}), nil
}

// Create falla con ErrDuplicate si el par ya tiene subcuenta.
func (r *SubledgerRepo) Create(ctx context.Context, sub *entity.SubledgerAccount) error {
	return r.write(func(t *tx) error {
		k := subKey{sub.CounterpartyType, sub.CounterpartyID}
		if t.sub(k) != nil {
			return fmt.Errorf("%w: subcuenta de %s %s", domain.ErrDuplicate, k.cpType, k.id)
		}
		c := *sub
		t.subs[k] = &c
		return nil
	})
}
