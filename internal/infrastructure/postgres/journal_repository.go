package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
)

var _ repository.JournalRepository = (*JournalRepo)(nil)

const entryColumns = `id::text, exercise, number, entry_date, concept, source, source_ref, reverses_exercise, reverses_number, created_by, created_at`

// JournalRepo diario (journal_entries + journal_lines). Solo inserta.
type JournalRepo struct {
	q Querier
}

// NewJournalRepository construye el adaptador. Pasar pool o tx (Querier).
func NewJournalRepository(q Querier) *JournalRepo {
	return &JournalRepo{q: q}
}

// NextNumber reserva el siguiente número del contador. La fila del contador queda
// bloqueada (FOR UPDATE) hasta el commit; un rollback no consume número.
func (r *JournalRepo) NextNumber(ctx context.Context, scope int) (int64, error) {
	if _, err := r.q.Exec(ctx,
		`INSERT INTO journal_sequences (scope, last_number) VALUES ($1, 0) ON CONFLICT (scope) DO NOTHING`,
		scope,
	); err != nil {
		return 0, fmt.Errorf("init sequence: %w", err)
	}
	var last int64
	if err := r.q.QueryRow(ctx,
		`SELECT last_number FROM journal_sequences WHERE scope = $1 FOR UPDATE`, scope,
	).Scan(&last); err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	next := last + 1
	if _, err := r.q.Exec(ctx,
		`UPDATE journal_sequences SET last_number = $2 WHERE scope = $1`, scope, next,
	); err != nil {
		return 0, fmt.Errorf("advance sequence: %w", err)
	}
	return next, nil
}

// Create inserta cabecera y líneas. Debe ir dentro de una tx para ser atómico.
func (r *JournalRepo) Create(ctx context.Context, e *entity.JournalEntry) error {
	var revEx *int
	var revNum *int64
	if e.Reverses != nil {
		revEx, revNum = &e.Reverses.Exercise, &e.Reverses.Number
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO journal_entries (id, exercise, number, entry_date, concept, source, source_ref,
			reverses_exercise, reverses_number, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.Exercise, e.Number, e.Date, e.Concept, e.Source, nullString(e.SourceRef),
		revEx, revNum, e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: asiento %d/%d", domain.ErrDuplicate, e.Number, e.Exercise)
		}
		return fmt.Errorf("insert journal entry: %w", err)
	}
	for _, l := range e.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO journal_lines (entry_id, line_no, account_code, debit, credit, concept)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, l.LineNo, l.AccountCode, l.Debit, l.Credit, l.Concept,
		)
		if err != nil {
			return fmt.Errorf("insert journal line %d: %w", l.LineNo, err)
		}
	}
	return nil
}

func scanEntry(row pgx.Row) (*entity.JournalEntry, error) {
	var e entity.JournalEntry
	var sourceRef *string
	var revEx *int
	var revNum *int64
	if err := row.Scan(&e.ID, &e.Exercise, &e.Number, &e.Date, &e.Concept, &e.Source, &sourceRef,
		&revEx, &revNum, &e.CreatedBy, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.SourceRef = fromNull(sourceRef)
	if revEx != nil && revNum != nil {
		e.Reverses = &entity.EntryRef{Exercise: *revEx, Number: *revNum}
	}
	return &e, nil
}

// loadLines rellena las líneas de los asientos dados (por id).
func (r *JournalRepo) loadLines(ctx context.Context, entries []*entity.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	byID := make(map[string]*entity.JournalEntry, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT entry_id::text, line_no, account_code, debit, credit, concept
		FROM journal_lines WHERE entry_id = ANY($1::uuid[])
		ORDER BY entry_id, line_no`, ids)
	if err != nil {
		return fmt.Errorf("get journal lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var l entity.JournalLine
		if err := rows.Scan(&id, &l.LineNo, &l.AccountCode, &l.Debit, &l.Credit, &l.Concept); err != nil {
			return fmt.Errorf("scan journal line: %w", err)
		}
		if e, ok := byID[id]; ok {
			e.Lines = append(e.Lines, l)
		}
	}
	return rows.Err()
}

// GetByNumber asiento con sus líneas; nil, nil si no existe.
func (r *JournalRepo) GetByNumber(ctx context.Context, exercise int, number int64) (*entity.JournalEntry, error) {
	e, err := scanEntry(r.q.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE exercise = $1 AND number = $2`,
		exercise, number,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get journal entry: %w", err)
	}
	if err := r.loadLines(ctx, []*entity.JournalEntry{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// ListByExercise asientos del ejercicio por número, con paginación.
func (r *JournalRepo) ListByExercise(ctx context.Context, exercise int, limit, offset int) ([]*entity.JournalEntry, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+entryColumns+` FROM journal_entries WHERE exercise = $1 ORDER BY number LIMIT $2 OFFSET $3`,
		exercise, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	list := []*entity.JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		list = append(list, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// HasPostings indica si alguna línea usa la cuenta.
func (r *JournalRepo) HasPostings(ctx context.Context, accountCode string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM journal_lines WHERE account_code = $1)`, accountCode,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has postings: %w", err)
	}
	return exists, nil
}
