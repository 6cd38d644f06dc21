package chart

import (
	"context"

	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
)

// TxRunner ejecuta mutaciones del plan en exclusión mutua con las contabilizaciones:
// comprobar "sin apuntes" y cambiar la cuenta ocurre sin que entre un asiento entre medias.
type TxRunner interface {
	RunChart(ctx context.Context, fn func(
		accountRepo repository.AccountRepository,
		journalRepo repository.JournalRepository,
	) error) error
}
