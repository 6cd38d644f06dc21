package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/contabilidad-core/internal/application/dto"
	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/accounting"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
)

// openEnd fecha usada cuando no se indica fecha final.
var openEnd = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// LedgerUseCase Libro Mayor y balance de sumas y saldos. Solo lectura: nunca modifica estado.
type LedgerUseCase struct {
	reader repository.LedgerReader
	codes  accounting.CodeStructure
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(reader repository.LedgerReader, settings accounting.Settings) *LedgerUseCase {
	return &LedgerUseCase{reader: reader, codes: settings.Codes}
}

// LedgerQuery rango de cuentas (por código, extremos inclusivos por prefijo) y fechas.
// Fechas cero: sin límite.
type LedgerQuery struct {
	AccountFrom string
	AccountTo   string
	DateFrom    time.Time
	DateTo      time.Time
}

func (uc *LedgerUseCase) filter(q LedgerQuery) (repository.LedgerFilter, error) {
	from, to := strings.TrimSpace(q.AccountFrom), strings.TrimSpace(q.AccountTo)
	for _, c := range []string{from, to} {
		if c != "" && !accounting.IsDigits(c) {
			return repository.LedgerFilter{}, fmt.Errorf("%w: código %q", domain.ErrInvalidInput, c)
		}
	}
	if from != "" && to != "" && from > to && !strings.HasPrefix(from, to) {
		return repository.LedgerFilter{}, fmt.Errorf("%w: rango de cuentas %s-%s invertido", domain.ErrInvalidInput, from, to)
	}
	dateTo := q.DateTo
	if dateTo.IsZero() {
		dateTo = openEnd
	}
	if !q.DateFrom.IsZero() && q.DateFrom.After(dateTo) {
		return repository.LedgerFilter{}, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	return repository.LedgerFilter{
		AccountFrom: from,
		AccountTo:   to,
		DateFrom:    q.DateFrom,
		DateTo:      dateTo,
	}, nil
}

// Query calcula el Libro Mayor (getLedger) sobre una foto consistente del diario.
func (uc *LedgerUseCase) Query(ctx context.Context, q LedgerQuery) ([]entity.AccountLedger, error) {
	f, err := uc.filter(q)
	if err != nil {
		return nil, err
	}
	snap, err := uc.reader.Snapshot(ctx, f)
	if err != nil {
		return nil, err
	}
	return accounting.BuildLedgers(snap), nil
}

// TrialBalance balance de sumas y saldos agregado al nivel dado (longitud de código;
// 0 = cuentas de movimiento).
func (uc *LedgerUseCase) TrialBalance(ctx context.Context, dateFrom, dateTo time.Time, level int) ([]entity.TrialBalanceRow, error) {
	if level == 0 {
		level = uc.codes.LeafLength()
	}
	if !uc.codes.IsLevelLength(level) {
		return nil, fmt.Errorf("%w: nivel %d no existe en el plan", domain.ErrInvalidInput, level)
	}
	f, err := uc.filter(LedgerQuery{DateFrom: dateFrom, DateTo: dateTo})
	if err != nil {
		return nil, err
	}
	snap, err := uc.reader.Snapshot(ctx, f)
	if err != nil {
		return nil, err
	}
	return accounting.BuildTrialBalance(snap, uc.codes, level), nil
}

// QueryFromRequest adapta los parámetros HTTP (fechas YYYY-MM-DD) a Query.
func (uc *LedgerUseCase) QueryFromRequest(ctx context.Context, accountFrom, accountTo, dateFrom, dateTo string) ([]entity.AccountLedger, error) {
	from, err := dto.ParseDate(dateFrom)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	to, err := dto.ParseDate(dateTo)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	return uc.Query(ctx, LedgerQuery{AccountFrom: accountFrom, AccountTo: accountTo, DateFrom: from, DateTo: to})
}
