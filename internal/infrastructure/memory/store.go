// Package memory almacén contable en memoria: mismo contrato que el adaptador
// PostgreSQL, para tests, demos y LEDGER_STORE=memory.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
)

type entryKey struct {
	exercise int
	number   int64
}

type subKey struct {
	cpType entity.CounterpartyType
	id     string
}

// Store estado compartido. Los datos se protegen con mu; las escrituras de una
// transacción se aplican todas juntas en commit, así que un lector nunca ve un
// asiento a medias.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]*entity.Account
	exercises map[int]*entity.FiscalExercise
	audit     []*entity.PeriodAuditRecord
	sequences map[int]int64
	entries   map[entryKey]*entity.JournalEntry
	postings  map[string]int
	subs      map[subKey]*entity.SubledgerAccount

	// Bloqueos de sección crítica (equivalentes a los advisory locks de PostgreSQL).
	locksMu    sync.Mutex
	exerciseMu map[int]*sync.Mutex
	prefixMu   map[string]*sync.Mutex
	sequenceMu sync.Mutex
	chartMu    sync.RWMutex
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]*entity.Account),
		exercises:  make(map[int]*entity.FiscalExercise),
		sequences:  make(map[int]int64),
		entries:    make(map[entryKey]*entity.JournalEntry),
		postings:   make(map[string]int),
		subs:       make(map[subKey]*entity.SubledgerAccount),
		exerciseMu: make(map[int]*sync.Mutex),
		prefixMu:   make(map[string]*sync.Mutex),
	}
}

func (s *Store) exerciseLock(year int) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.exerciseMu[year]
	if !ok {
		m = &sync.Mutex{}
		s.exerciseMu[year] = m
	}
	return m
}

func (s *Store) prefixLock(prefix string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.prefixMu[prefix]
	if !ok {
		m = &sync.Mutex{}
		s.prefixMu[prefix] = m
	}
	return m
}

// tx escrituras pendientes de una unidad de trabajo. Las lecturas hechas a través
// de la tx ven primero lo pendiente y después el almacén.
type tx struct {
	store     *Store
	accounts  map[string]*entity.Account
	created   map[string]bool
	exercises map[int]*entity.FiscalExercise
	audit     []*entity.PeriodAuditRecord
	sequences map[int]int64
	entries   []*entity.JournalEntry
	subs      map[subKey]*entity.SubledgerAccount
}

func newTx(s *Store) *tx {
	return &tx{
		store:     s,
		accounts:  make(map[string]*entity.Account),
		created:   make(map[string]bool),
		exercises: make(map[int]*entity.FiscalExercise),
		sequences: make(map[int]int64),
		subs:      make(map[subKey]*entity.SubledgerAccount),
	}
}

// commit vuelve a comprobar las claves únicas bajo el bloqueo de escritura y
// publica todo o nada.
func (t *tx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for code := range t.accounts {
		_, exists := s.accounts[code]
		if t.created[code] && exists {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountCode, code)
		}
		if !t.created[code] && !exists {
			return fmt.Errorf("%w: cuenta %s", domain.ErrNotFound, code)
		}
	}
	for _, e := range t.entries {
		if _, exists := s.entries[entryKey{e.Exercise, e.Number}]; exists {
			return fmt.Errorf("%w: asiento %d/%d", domain.ErrDuplicate, e.Number, e.Exercise)
		}
	}
	for k := range t.subs {
		if _, exists := s.subs[k]; exists {
			return fmt.Errorf("%w: subcuenta de %s %s", domain.ErrDuplicate, k.cpType, k.id)
		}
	}

	for code, a := range t.accounts {
		s.accounts[code] = a
	}
	for year, ex := range t.exercises {
		s.exercises[year] = ex
	}
	s.audit = append(s.audit, t.audit...)
	for scope, n := range t.sequences {
		if n > s.sequences[scope] {
			s.sequences[scope] = n
		}
	}
	for _, e := range t.entries {
		s.entries[entryKey{e.Exercise, e.Number}] = e
		for _, l := range e.Lines {
			s.postings[l.AccountCode]++
		}
	}
	for k, sub := range t.subs {
		s.subs[k] = sub
	}
	return nil
}

// account lectura con superposición de lo pendiente. Devuelve una copia.
func (t *tx) account(code string) *entity.Account {
	if a, ok := t.accounts[code]; ok {
		c := *a
		return &c
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	if a, ok := t.store.accounts[code]; ok {
		c := *a
		return &c
	}
	return nil
}

// allAccounts plan completo (almacén + pendientes) ordenado por código, en copias.
func (t *tx) allAccounts(filter func(*entity.Account) bool) []*entity.Account {
	merged := make(map[string]*entity.Account)
	t.store.mu.RLock()
	for code, a := range t.store.accounts {
		merged[code] = a
	}
	t.store.mu.RUnlock()
	for code, a := range t.accounts {
		merged[code] = a
	}
	out := make([]*entity.Account, 0, len(merged))
	for _, a := range merged {
		if filter != nil && !filter(a) {
			continue
		}
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (t *tx) exercise(year int) *entity.FiscalExercise {
	if ex, ok := t.exercises[year]; ok {
		return ex.Clone()
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	if ex, ok := t.store.exercises[year]; ok {
		return ex.Clone()
	}
	return nil
}

func (t *tx) entry(exercise int, number int64) *entity.JournalEntry {
	for _, e := range t.entries {
		if e.Exercise == exercise && e.Number == number {
			return cloneEntry(e)
		}
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	if e, ok := t.store.entries[entryKey{exercise, number}]; ok {
		return cloneEntry(e)
	}
	return nil
}

func (t *tx) sub(k subKey) *entity.SubledgerAccount {
	if s, ok := t.subs[k]; ok {
		c := *s
		return &c
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	if s, ok := t.store.subs[k]; ok {
		c := *s
		return &c
	}
	return nil
}

func cloneEntry(e *entity.JournalEntry) *entity.JournalEntry {
	c := *e
	c.Lines = append([]entity.JournalLine(nil), e.Lines...)
	if e.Reverses != nil {
		ref := *e.Reverses
		c.Reverses = &ref
	}
	return &c
}
