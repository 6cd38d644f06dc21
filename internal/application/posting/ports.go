package posting

import (
	"context"
	"time"

	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de la sección crítica del ejercicio: una transacción
// con el ejercicio bloqueado y, si la numeración es global (sequenceScope 0), también
// el contador global. Todo lo que fn escribe se publica a la vez o nada.
type TxRunner interface {
	RunPosting(ctx context.Context, exercise, sequenceScope int, fn func(
		accountRepo repository.AccountRepository,
		fiscalRepo repository.FiscalRepository,
		journalRepo repository.JournalRepository,
	) error) error
}

// PostingGate consulta al calendario con los repos de la transacción del motor.
// Lo implementa *fiscal.CalendarUseCase.
type PostingGate interface {
	EnsurePostingAllowedInTx(ctx context.Context, fiscalRepo repository.FiscalRepository, date time.Time) error
}
