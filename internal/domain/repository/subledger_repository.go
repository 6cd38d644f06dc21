package repository

import (
	"context"

	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
)

// SubledgerRepository asignaciones (tipo de tercero, tercero) -> subcuenta.
type SubledgerRepository interface {
	// Get devuelve nil, nil si el tercero aún no tiene subcuenta.
	Get(ctx context.Context, counterpartyType entity.CounterpartyType, counterpartyID string) (*entity.SubledgerAccount, error)
	// Create falla con domain.ErrDuplicate si el par ya tiene subcuenta.
	Create(ctx context.Context, sub *entity.SubledgerAccount) error
}
