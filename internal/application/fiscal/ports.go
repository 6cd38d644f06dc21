package fiscal

import (
	"context"

	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
)

// TxRunner ejecuta cambios de calendario dentro de la sección crítica del ejercicio,
// la misma que usan las contabilizaciones: un cierre y un asiento del mismo ejercicio
// nunca se entrelazan.
type TxRunner interface {
	RunCalendar(ctx context.Context, exercise int, fn func(
		fiscalRepo repository.FiscalRepository,
		auditRepo repository.AuditRepository,
	) error) error
}
