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

var _ repository.AccountRepository = (*AccountRepo)(nil)

const accountColumns = `code, name, type, is_leaf, is_system_protected, natural_side, active, created_at, updated_at`

// AccountRepo implementación de AccountRepository (usable con pool o tx).
type AccountRepo struct {
	q Querier
}

// NewAccountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var a entity.Account
	var typ, side string
	if err := row.Scan(&a.Code, &a.Name, &typ, &a.IsLeaf, &a.IsSystemProtected, &side, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Type = entity.AccountType(typ)
	a.NaturalSide = entity.NaturalSide(side)
	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]*entity.Account, error) {
	defer rows.Close()
	var list []*entity.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Create persiste una cuenta nueva.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		a.Code, a.Name, string(a.Type), a.IsLeaf, a.IsSystemProtected, string(a.NaturalSide), a.Active,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateAccountCode, a.Code)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByCode obtiene una cuenta por código.
func (r *AccountRepo) GetByCode(ctx context.Context, code string) (*entity.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = $1`
	a, err := scanAccount(r.q.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// GetMany cuentas existentes de entre los códigos pedidos.
func (r *AccountRepo) GetMany(ctx context.Context, codes []string) (map[string]*entity.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE code = ANY($1)`
	rows, err := r.q.Query(ctx, query, codes)
	if err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}
	list, err := collectAccounts(rows)
	if err != nil {
		return nil, fmt.Errorf("scan accounts: %w", err)
	}
	out := make(map[string]*entity.Account, len(list))
	for _, a := range list {
		out[a.Code] = a
	}
	return out, nil
}

// Update actualiza los atributos mutables de la cuenta.
func (r *AccountRepo) Update(ctx context.Context, a *entity.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, type = $3, is_leaf = $4, is_system_protected = $5, natural_side = $6, active = $7, updated_at = $8
		WHERE code = $1`
	tag, err := r.q.Exec(ctx, query,
		a.Code, a.Name, string(a.Type), a.IsLeaf, a.IsSystemProtected, string(a.NaturalSide), a.Active, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cuenta %s", domain.ErrNotFound, a.Code)
	}
	return nil
}

// ListByPrefix rama del plan (incluida la propia cuenta) ordenada por código.
func (r *AccountRepo) ListByPrefix(ctx context.Context, prefix string, activeOnly bool) ([]*entity.Account, error) {
	query := `
		SELECT ` + accountColumns + ` FROM accounts
		WHERE starts_with(code, $1) AND (NOT $2 OR active)
		ORDER BY code`
	rows, err := r.q.Query(ctx, query, prefix, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list accounts by prefix: %w", err)
	}
	return collectAccounts(rows)
}

// ListAll plan completo ordenado por código.
func (r *AccountRepo) ListAll(ctx context.Context, activeOnly bool) ([]*entity.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE (NOT $1 OR active) ORDER BY code`
	rows, err := r.q.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return collectAccounts(rows)
}

// HasChildren indica si hay cuentas más largas bajo code.
func (r *AccountRepo) HasChildren(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE starts_with(code, $1) AND length(code) > length($1))`,
		code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has children: %w", err)
	}
	return exists, nil
}

// CountByPrefix cuentas de la longitud dada bajo prefix.
func (r *AccountRepo) CountByPrefix(ctx context.Context, prefix string, length int) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM accounts WHERE starts_with(code, $1) AND length(code) = $2`,
		prefix, length,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}
