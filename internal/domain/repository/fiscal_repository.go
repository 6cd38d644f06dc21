package repository

import (
	"context"

	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
)

// FiscalRepository puerto de persistencia de ejercicios y periodos.
type FiscalRepository interface {
	// GetExercise devuelve nil, nil si el ejercicio no existe.
	GetExercise(ctx context.Context, year int) (*entity.FiscalExercise, error)
	// SaveExercise inserta o actualiza el ejercicio con sus 12 periodos.
	SaveExercise(ctx context.Context, exercise *entity.FiscalExercise) error
	ListExercises(ctx context.Context) ([]*entity.FiscalExercise, error)
}

// AuditRepository registro de reaperturas de calendario.
type AuditRepository interface {
	Create(ctx context.Context, record *entity.PeriodAuditRecord) error
	ListByExercise(ctx context.Context, year int) ([]*entity.PeriodAuditRecord, error)
}
