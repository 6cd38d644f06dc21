package posting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/accounting"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

// PostingEngine valida y contabiliza asientos. Es el único punto de escritura del diario.
type PostingEngine struct {
	txRunner    TxRunner
	journalRepo repository.JournalRepository
	gate        PostingGate
	settings    accounting.Settings
	log         *logger.Logger
	now         func() time.Time
}

// NewPostingEngine construye el motor con una configuración inmutable.
func NewPostingEngine(
	txRunner TxRunner,
	journalRepo repository.JournalRepository,
	gate PostingGate,
	settings accounting.Settings,
	log *logger.Logger,
) *PostingEngine {
	return &PostingEngine{
		txRunner:    txRunner,
		journalRepo: journalRepo,
		gate:        gate,
		settings:    settings,
		log:         log.Component("posting"),
		now:         time.Now,
	}
}

// DateOnly normaliza a fecha de calendario (medianoche UTC).
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Commit valida el borrador y lo convierte en asiento inmutable:
//  1. forma de las líneas y cuadre (salvo AllowUnbalanced);
//  2. dentro de la sección crítica del ejercicio: cuentas existentes, de movimiento
//     y activas; periodo abierto; siguiente número; persistencia.
func (e *PostingEngine) Commit(ctx context.Context, draft *entity.DraftEntry, userID string) (*entity.JournalEntry, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: borrador vacío", domain.ErrInvalidInput)
	}
	if draft.Date.IsZero() {
		return nil, fmt.Errorf("%w: fecha del asiento requerida", domain.ErrInvalidInput)
	}
	if err := accounting.ValidateLines(draft.Lines); err != nil {
		return nil, err
	}
	if err := accounting.CheckBalance(draft.Lines); err != nil {
		if !e.settings.AllowUnbalanced {
			return nil, err
		}
		var ub *domain.UnbalancedError
		if errors.As(err, &ub) {
			e.log.Warn().Str("difference", ub.Difference().StringFixed(2)).Msg("asiento descuadrado admitido por configuración")
		}
	}

	date := DateOnly(draft.Date)
	year := date.Year()
	scope := e.settings.SequenceScope(year)
	lines := make([]entity.JournalLine, len(draft.Lines))
	for i, l := range draft.Lines {
		lines[i] = entity.JournalLine{
			LineNo:      i + 1,
			AccountCode: strings.TrimSpace(l.AccountCode),
			Debit:       l.Debit,
			Credit:      l.Credit,
			Concept:     l.Concept,
		}
	}
	source := draft.Source
	if source == "" {
		source = entity.SourceManual
	}

	var entry *entity.JournalEntry
	err := e.txRunner.RunPosting(ctx, year, scope, func(
		accountRepo repository.AccountRepository,
		fiscalRepo repository.FiscalRepository,
		journalRepo repository.JournalRepository,
	) error {
		if err := checkAccounts(ctx, accountRepo, lines); err != nil {
			return err
		}
		if err := e.gate.EnsurePostingAllowedInTx(ctx, fiscalRepo, date); err != nil {
			return err
		}
		number, err := journalRepo.NextNumber(ctx, scope)
		if err != nil {
			return err
		}
		entry = &entity.JournalEntry{
			ID:        uuid.New().String(),
			Exercise:  year,
			Number:    number,
			Date:      date,
			Concept:   draft.Concept,
			Lines:     lines,
			Source:    source,
			SourceRef: draft.SourceRef,
			Reverses:  draft.Reverses,
			CreatedBy: userID,
			CreatedAt: e.now(),
		}
		return journalRepo.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().
		Int("exercise", entry.Exercise).
		Int64("number", entry.Number).
		Str("source", entry.Source).
		Str("user_id", userID).
		Int("lines", len(entry.Lines)).
		Msg("asiento contabilizado")
	return entry, nil
}

// checkAccounts exige que cada cuenta exista, sea de movimiento y esté activa.
func checkAccounts(ctx context.Context, accountRepo repository.AccountRepository, lines []entity.JournalLine) error {
	codes := make([]string, 0, len(lines))
	for _, l := range lines {
		codes = append(codes, l.AccountCode)
	}
	accounts, err := accountRepo.GetMany(ctx, codes)
	if err != nil {
		return err
	}
	for _, l := range lines {
		acc, ok := accounts[l.AccountCode]
		switch {
		case !ok || acc == nil:
			return &domain.AccountError{Code: l.AccountCode, LineNo: l.LineNo, Err: domain.ErrUnknownAccount}
		case !acc.IsLeaf:
			return &domain.AccountError{Code: l.AccountCode, LineNo: l.LineNo, Err: domain.ErrPostingToAggregator}
		case !acc.Active:
			return &domain.AccountError{Code: l.AccountCode, LineNo: l.LineNo, Err: domain.ErrAccountInactive}
		}
	}
	return nil
}

// ManualEntryInput asiento manual (postManualEntry).
type ManualEntryInput struct {
	Date    time.Time
	Concept string
	Lines   []entity.DraftLine
	UserID  string
}

// PostManualEntry contabiliza un asiento introducido por el usuario.
func (e *PostingEngine) PostManualEntry(ctx context.Context, in ManualEntryInput) (*entity.JournalEntry, error) {
	return e.Commit(ctx, &entity.DraftEntry{
		Date:    in.Date,
		Concept: in.Concept,
		Lines:   in.Lines,
		Source:  entity.SourceManual,
	}, in.UserID)
}

// ReverseInput anulación de un asiento. Date cero = hoy.
type ReverseInput struct {
	Exercise int
	Number   int64
	Date     time.Time
	Concept  string
	UserID   string
}

// Reverse contabiliza el asiento inverso (debe y haber intercambiados) con referencia
// al original. El original no se modifica.
func (e *PostingEngine) Reverse(ctx context.Context, in ReverseInput) (*entity.JournalEntry, error) {
	original, err := e.Get(ctx, in.Exercise, in.Number)
	if err != nil {
		return nil, err
	}
	date := in.Date
	if date.IsZero() {
		date = e.now()
	}
	concept := in.Concept
	if concept == "" {
		concept = fmt.Sprintf("Anulación del asiento %d/%d", original.Number, original.Exercise)
	}
	ref := original.Ref()
	return e.Commit(ctx, &entity.DraftEntry{
		Date:      date,
		Concept:   concept,
		Lines:     accounting.ReverseLines(original.Lines),
		Source:    entity.SourceReversal,
		SourceRef: original.ID,
		Reverses:  &ref,
	}, in.UserID)
}

// Get asiento por ejercicio y número.
func (e *PostingEngine) Get(ctx context.Context, exercise int, number int64) (*entity.JournalEntry, error) {
	entry, err := e.journalRepo.GetByNumber(ctx, exercise, number)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: asiento %d/%d", domain.ErrNotFound, number, exercise)
	}
	return entry, nil
}

// List asientos de un ejercicio por número.
func (e *PostingEngine) List(ctx context.Context, exercise, limit, offset int) ([]*entity.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return e.journalRepo.ListByExercise(ctx, exercise, limit, offset)
}
