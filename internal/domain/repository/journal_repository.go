package repository

import (
	"context"
	"time"

	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
)

// JournalRepository puerto del diario: almacén de asientos solo de inserción,
// indexado por (ejercicio, número).
type JournalRepository interface {
	// NextNumber reserva el siguiente número del contador scope (año, o 0 si la
	// numeración es global). Debe llamarse dentro de la sección crítica del ejercicio.
	NextNumber(ctx context.Context, scope int) (int64, error)
	// Create persiste el asiento completo (cabecera y líneas) de forma atómica.
	Create(ctx context.Context, entry *entity.JournalEntry) error
	// GetByNumber devuelve nil, nil si no existe.
	GetByNumber(ctx context.Context, exercise int, number int64) (*entity.JournalEntry, error)
	ListByExercise(ctx context.Context, exercise int, limit, offset int) ([]*entity.JournalEntry, error)
	// HasPostings indica si alguna línea referencia la cuenta.
	HasPostings(ctx context.Context, accountCode string) (bool, error)
}

// LedgerFilter rango de cuentas y fechas para el Libro Mayor. Fechas inclusivas.
type LedgerFilter struct {
	AccountFrom string
	AccountTo   string
	DateFrom    time.Time
	DateTo      time.Time
}

// LedgerReader lectura de solo consulta para el Libro Mayor. Snapshot devuelve una
// foto consistente: nunca incluye solo parte de las líneas de un asiento.
type LedgerReader interface {
	Snapshot(ctx context.Context, filter LedgerFilter) (*entity.LedgerSnapshot, error)
}
