package fiscal

import (
	"context"
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

// CalendarUseCase gestiona ejercicios y periodos y es la única autoridad sobre si
// una fecha admite apuntes.
type CalendarUseCase struct {
	txRunner   TxRunner
	fiscalRepo repository.FiscalRepository
	auditRepo  repository.AuditRepository
	settings   accounting.Settings
	log        *logger.Logger
	now        func() time.Time
}

// NewCalendarUseCase construye el caso de uso.
func NewCalendarUseCase(
	txRunner TxRunner,
	fiscalRepo repository.FiscalRepository,
	auditRepo repository.AuditRepository,
	settings accounting.Settings,
	log *logger.Logger,
) *CalendarUseCase {
	return &CalendarUseCase{
		txRunner:   txRunner,
		fiscalRepo: fiscalRepo,
		auditRepo:  auditRepo,
		settings:   settings,
		log:        log.Component("fiscal"),
		now:        time.Now,
	}
}

func validateMonth(year, month int) error {
	if month < 1 || month > entity.PeriodsPerExercise {
		return fmt.Errorf("%w: periodo %d/%d fuera de rango", domain.ErrInvalidInput, year, month)
	}
	return nil
}

// loadOrCreate obtiene el ejercicio; si no existe lo crea cuando la configuración lo permite.
func (uc *CalendarUseCase) loadOrCreate(ctx context.Context, fiscalRepo repository.FiscalRepository, year int) (*entity.FiscalExercise, error) {
	ex, err := fiscalRepo.GetExercise(ctx, year)
	if err != nil {
		return nil, err
	}
	if ex != nil {
		return ex, nil
	}
	if !uc.settings.AutoCreateExercises {
		return nil, &domain.PeriodError{Year: year, Err: domain.ErrExerciseNotFound}
	}
	ex = entity.NewFiscalExercise(year, uc.now())
	if err := fiscalRepo.SaveExercise(ctx, ex); err != nil {
		return nil, err
	}
	uc.log.Info().Int("exercise", year).Msg("ejercicio abierto")
	return ex, nil
}

func loadRequired(ctx context.Context, fiscalRepo repository.FiscalRepository, year int) (*entity.FiscalExercise, error) {
	ex, err := fiscalRepo.GetExercise(ctx, year)
	if err != nil {
		return nil, err
	}
	if ex == nil {
		return nil, &domain.PeriodError{Year: year, Err: domain.ErrExerciseNotFound}
	}
	return ex, nil
}

// GetExercise estado de un ejercicio y sus periodos.
func (uc *CalendarUseCase) GetExercise(ctx context.Context, year int) (*entity.FiscalExercise, error) {
	return loadRequired(ctx, uc.fiscalRepo, year)
}

// ListExercises todos los ejercicios conocidos.
func (uc *CalendarUseCase) ListExercises(ctx context.Context) ([]*entity.FiscalExercise, error) {
	return uc.fiscalRepo.ListExercises(ctx)
}

// OpenExercise crea el ejercicio con sus 12 periodos abiertos. Idempotente.
func (uc *CalendarUseCase) OpenExercise(ctx context.Context, year int) (*entity.FiscalExercise, error) {
	var out *entity.FiscalExercise
	err := uc.txRunner.RunCalendar(ctx, year, func(fiscalRepo repository.FiscalRepository, _ repository.AuditRepository) error {
		ex, err := fiscalRepo.GetExercise(ctx, year)
		if err != nil {
			return err
		}
		if ex == nil {
			ex = entity.NewFiscalExercise(year, uc.now())
			if err := fiscalRepo.SaveExercise(ctx, ex); err != nil {
				return err
			}
			uc.log.Info().Int("exercise", year).Msg("ejercicio abierto")
		}
		out = ex
		return nil
	})
	return out, err
}

// ClosePeriod cierra un periodo. Con orden estricto, todos los anteriores deben estar cerrados.
func (uc *CalendarUseCase) ClosePeriod(ctx context.Context, year, month int, userID string) error {
	if err := validateMonth(year, month); err != nil {
		return err
	}
	return uc.txRunner.RunCalendar(ctx, year, func(fiscalRepo repository.FiscalRepository, _ repository.AuditRepository) error {
		ex, err := uc.loadOrCreate(ctx, fiscalRepo, year)
		if err != nil {
			return err
		}
		if ex.IsClosed {
			return &domain.PeriodError{Year: year, Err: domain.ErrExerciseClosed}
		}
		p := ex.Period(month)
		if p.IsClosed {
			return &domain.PeriodError{Year: year, Month: month, Err: domain.ErrPeriodAlreadyClosed}
		}
		if uc.settings.StrictPeriodOrder {
			for m := 1; m < month; m++ {
				if !ex.Period(m).IsClosed {
					return &domain.PriorPeriodOpenError{Year: year, Month: month, OpenFrom: m}
				}
			}
		}
		now := uc.now()
		p.IsClosed = true
		p.ClosedAt = &now
		p.ClosedBy = userID
		ex.UpdatedAt = now
		if err := fiscalRepo.SaveExercise(ctx, ex); err != nil {
			return err
		}
		uc.log.Info().Int("exercise", year).Int("period", month).Str("user_id", userID).Msg("periodo cerrado")
		return nil
	})
}

// CloseExercise cierra el ejercicio; exige los 12 periodos cerrados.
func (uc *CalendarUseCase) CloseExercise(ctx context.Context, year int, userID string) error {
	return uc.txRunner.RunCalendar(ctx, year, func(fiscalRepo repository.FiscalRepository, _ repository.AuditRepository) error {
		ex, err := loadRequired(ctx, fiscalRepo, year)
		if err != nil {
			return err
		}
		if ex.IsClosed {
			return &domain.PeriodError{Year: year, Err: domain.ErrExerciseClosed}
		}
		if open := ex.OpenPeriods(); len(open) > 0 {
			return &domain.PeriodsStillOpenError{Year: year, Open: open}
		}
		now := uc.now()
		ex.IsClosed = true
		ex.ClosingDate = &now
		ex.UpdatedAt = now
		if err := fiscalRepo.SaveExercise(ctx, ex); err != nil {
			return err
		}
		uc.log.Info().Int("exercise", year).Str("user_id", userID).Msg("ejercicio cerrado")
		return nil
	})
}

// ReopenPeriod reabre un periodo cerrado. Operación privilegiada: siempre deja
// registro de auditoría con usuario y fecha.
func (uc *CalendarUseCase) ReopenPeriod(ctx context.Context, year, month int, userID, reason string) error {
	if err := validateMonth(year, month); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return domain.ErrUnauthorized
	}
	return uc.txRunner.RunCalendar(ctx, year, func(fiscalRepo repository.FiscalRepository, auditRepo repository.AuditRepository) error {
		ex, err := loadRequired(ctx, fiscalRepo, year)
		if err != nil {
			return err
		}
		if ex.IsClosed {
			return &domain.PeriodError{Year: year, Err: domain.ErrExerciseClosed}
		}
		p := ex.Period(month)
		if !p.IsClosed {
			return &domain.PeriodError{Year: year, Month: month, Err: domain.ErrPeriodNotClosed}
		}
		now := uc.now()
		p.IsClosed = false
		p.ClosedAt = nil
		p.ClosedBy = ""
		ex.UpdatedAt = now
		if err := fiscalRepo.SaveExercise(ctx, ex); err != nil {
			return err
		}
		if err := auditRepo.Create(ctx, &entity.PeriodAuditRecord{
			ID:       uuid.New().String(),
			Exercise: year,
			Period:   month,
			Action:   entity.AuditReopenPeriod,
			UserID:   userID,
			Reason:   reason,
			At:       now,
		}); err != nil {
			return err
		}
		uc.log.Warn().Int("exercise", year).Int("period", month).Str("user_id", userID).Str("reason", reason).Msg("periodo reabierto")
		return nil
	})
}

// ReopenExercise reabre un ejercicio cerrado (los periodos siguen cerrados). Privilegiada y auditada.
func (uc *CalendarUseCase) ReopenExercise(ctx context.Context, year int, userID, reason string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrUnauthorized
	}
	return uc.txRunner.RunCalendar(ctx, year, func(fiscalRepo repository.FiscalRepository, auditRepo repository.AuditRepository) error {
		ex, err := loadRequired(ctx, fiscalRepo, year)
		if err != nil {
			return err
		}
		if !ex.IsClosed {
			return &domain.PeriodError{Year: year, Err: domain.ErrExerciseNotClosed}
		}
		now := uc.now()
		ex.IsClosed = false
		ex.ClosingDate = nil
		ex.UpdatedAt = now
		if err := fiscalRepo.SaveExercise(ctx, ex); err != nil {
			return err
		}
		if err := auditRepo.Create(ctx, &entity.PeriodAuditRecord{
			ID:       uuid.New().String(),
			Exercise: year,
			Action:   entity.AuditReopenExercise,
			UserID:   userID,
			Reason:   reason,
			At:       now,
		}); err != nil {
			return err
		}
		uc.log.Warn().Int("exercise", year).Str("user_id", userID).Str("reason", reason).Msg("ejercicio reabierto")
		return nil
	})
}

// AuditTrail reaperturas registradas de un ejercicio.
func (uc *CalendarUseCase) AuditTrail(ctx context.Context, year int) ([]*entity.PeriodAuditRecord, error) {
	return uc.auditRepo.ListByExercise(ctx, year)
}

// IsPostingAllowed indica si la fecha cae en un periodo abierto de un ejercicio abierto.
// Un ejercicio inexistente se considera abierto si se crean en el primer uso.
func (uc *CalendarUseCase) IsPostingAllowed(ctx context.Context, date time.Time) (bool, error) {
	ex, err := uc.fiscalRepo.GetExercise(ctx, date.Year())
	if err != nil {
		return false, err
	}
	if ex == nil {
		return uc.settings.AutoCreateExercises, nil
	}
	return ex.AllowsPosting(int(date.Month())), nil
}

// EnsurePostingAllowedInTx comprueba la fecha con los repos de la transacción del
// llamador (motor de contabilización) y crea el ejercicio si procede.
// Devuelve *domain.PeriodError con domain.ErrPeriodClosed si el periodo o el ejercicio están cerrados.
func (uc *CalendarUseCase) EnsurePostingAllowedInTx(ctx context.Context, fiscalRepo repository.FiscalRepository, date time.Time) error {
	year, month := date.Year(), int(date.Month())
	ex, err := uc.loadOrCreate(ctx, fiscalRepo, year)
	if err != nil {
		return err
	}
	if !ex.AllowsPosting(month) {
		return &domain.PeriodError{Year: year, Month: month, Err: domain.ErrPeriodClosed}
	}
	return nil
}
