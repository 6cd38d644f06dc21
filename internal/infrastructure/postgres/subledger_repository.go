package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
)

var _ repository.SubledgerRepository = (*SubledgerRepo)(nil)

// SubledgerRepo asignaciones tercero -> subcuenta (subledger_accounts).
type SubledgerRepo struct {
	q Querier
}

// NewSubledgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSubledgerRepository(q Querier) *SubledgerRepo {
	return &SubledgerRepo{q: q}
}

// Get subcuenta del tercero; nil, nil si aún no tiene.
func (r *SubledgerRepo) Get(ctx context.Context, cpType entity.CounterpartyType, counterpartyID string) (*entity.SubledgerAccount, error) {
	s := entity.SubledgerAccount{CounterpartyType: cpType, CounterpartyID: counterpartyID}
	err := r.q.QueryRow(ctx, `
		SELECT account_code, created_at FROM subledger_accounts
		WHERE counterparty_type = $1 AND counterparty_id = $2`,
		string(cpType), counterpartyID,
	).Scan(&s.AccountCode, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subledger account: %w", err)
	}
	return &s, nil
}

// Create registra la asignación.
func (r *SubledgerRepo) Create(ctx context.Context, s *entity.SubledgerAccount) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO subledger_accounts (counterparty_type, counterparty_id, account_code, created_at)
		VALUES ($1, $2, $3, $4)`,
		string(s.CounterpartyType), s.CounterpartyID, s.AccountCode, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: subcuenta de %s %s", domain.ErrDuplicate, s.CounterpartyType, s.CounterpartyID)
		}
		return fmt.Errorf("insert subledger account: %w", err)
	}
	return nil
}
