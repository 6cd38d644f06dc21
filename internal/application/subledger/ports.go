package subledger

import (
	"context"

	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
)

// TxRunner serializa el aprovisionamiento de subcuentas por prefijo.
type TxRunner interface {
	RunProvisioning(ctx context.Context, prefix string, fn func(
		accountRepo repository.AccountRepository,
		subledgerRepo repository.SubledgerRepository,
	) error) error
}
