package repository

import (
	"context"

	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
)

// AccountRepository puerto de persistencia del plan de cuentas.
// El plan se guarda como tabla ordenada por código; las consultas por rama son
// rangos de prefijo, sin punteros padre/hijo.
type AccountRepository interface {
	// Create falla con domain.ErrDuplicateAccountCode si el código ya existe.
	Create(ctx context.Context, account *entity.Account) error
	// GetByCode devuelve nil, nil si no existe.
	GetByCode(ctx context.Context, code string) (*entity.Account, error)
	// GetMany devuelve las cuentas existentes de entre los códigos pedidos.
	GetMany(ctx context.Context, codes []string) (map[string]*entity.Account, error)
	Update(ctx context.Context, account *entity.Account) error
	// ListByPrefix cuentas cuyo código empieza por prefix (incluida la propia), ordenadas por código.
	ListByPrefix(ctx context.Context, prefix string, activeOnly bool) ([]*entity.Account, error)
	// ListAll todo el plan ordenado por código.
	ListAll(ctx context.Context, activeOnly bool) ([]*entity.Account, error)
	// HasChildren indica si hay cuentas más largas con ese prefijo.
	HasChildren(ctx context.Context, code string) (bool, error)
	// CountByPrefix número de cuentas con la longitud dada que empiezan por prefix.
	CountByPrefix(ctx context.Context, prefix string, length int) (int, error)
}
