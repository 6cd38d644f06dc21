package chart

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/accounting"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

// ChartUseCase casos de uso del plan de cuentas.
type ChartUseCase struct {
	txRunner    TxRunner
	accountRepo repository.AccountRepository
	codes       accounting.CodeStructure
	log         *logger.Logger
	now         func() time.Time
}

// NewChartUseCase construye el caso de uso.
func NewChartUseCase(
	txRunner TxRunner,
	accountRepo repository.AccountRepository,
	settings accounting.Settings,
	log *logger.Logger,
) *ChartUseCase {
	return &ChartUseCase{
		txRunner:    txRunner,
		accountRepo: accountRepo,
		codes:       settings.Codes,
		log:         log.Component("chart"),
		now:         time.Now,
	}
}

// CreateAccountInput datos de alta de una cuenta.
// IsLeaf nil: movimiento si el código es del último nivel, agrupación en otro caso.
// NaturalSide vacío: la habitual del tipo.
type CreateAccountInput struct {
	Code            string
	Name            string
	Type            entity.AccountType
	ParentCode      string
	IsLeaf          *bool
	NaturalSide     entity.NaturalSide
	SystemProtected bool
}

// CreateAccount da de alta una cuenta respetando la jerarquía estricta por prefijos.
func (uc *ChartUseCase) CreateAccount(ctx context.Context, in CreateAccountInput) (*entity.Account, error) {
	acc, err := uc.buildAccount(in)
	if err != nil {
		return nil, err
	}
	err = uc.txRunner.RunChart(ctx, func(accountRepo repository.AccountRepository, _ repository.JournalRepository) error {
		return uc.createInTx(ctx, accountRepo, acc)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("account", acc.Code).Bool("leaf", acc.IsLeaf).Msg("cuenta creada")
	return acc, nil
}

func (uc *ChartUseCase) buildAccount(in CreateAccountInput) (*entity.Account, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: nombre de cuenta requerido", domain.ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: tipo de cuenta %q", domain.ErrInvalidInput, in.Type)
	}
	if in.NaturalSide != "" && !in.NaturalSide.Valid() {
		return nil, fmt.Errorf("%w: naturaleza %q", domain.ErrInvalidInput, in.NaturalSide)
	}
	if err := uc.codes.Validate(code); err != nil {
		return nil, &domain.HierarchyError{Code: code, Reason: err.Error()}
	}
	expected, hasParent := uc.codes.ParentOf(code)
	parent := strings.TrimSpace(in.ParentCode)
	if parent != "" && (!hasParent || parent != expected) {
		return nil, &domain.HierarchyError{Code: code, Reason: fmt.Sprintf("el padre debe ser %q, no %q", expected, parent)}
	}

	isLeaf := uc.codes.IsLastLevel(code)
	if in.IsLeaf != nil {
		isLeaf = *in.IsLeaf
	}
	if !isLeaf && uc.codes.IsLastLevel(code) {
		return nil, &domain.HierarchyError{Code: code, Reason: "el último nivel solo admite cuentas de movimiento"}
	}
	side := in.NaturalSide
	if side == "" {
		side = in.Type.DefaultSide()
	}
	now := uc.now()
	return &entity.Account{
		Code:              code,
		Name:              name,
		Type:              in.Type,
		IsLeaf:            isLeaf,
		IsSystemProtected: in.SystemProtected,
		NaturalSide:       side,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// createInTx valida unicidad y padre dentro de la transacción y persiste.
func (uc *ChartUseCase) createInTx(ctx context.Context, accountRepo repository.AccountRepository, acc *entity.Account) error {
	existing, err := accountRepo.GetByCode(ctx, acc.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		return &domain.AccountError{Code: acc.Code, Err: domain.ErrDuplicateAccountCode}
	}
	if parentCode, ok := uc.codes.ParentOf(acc.Code); ok {
		parent, err := accountRepo.GetByCode(ctx, parentCode)
		if err != nil {
			return err
		}
		switch {
		case parent == nil:
			return &domain.HierarchyError{Code: acc.Code, Reason: fmt.Sprintf("no existe la cuenta padre %s", parentCode)}
		case parent.IsLeaf:
			return &domain.HierarchyError{Code: acc.Code, Reason: fmt.Sprintf("la cuenta padre %s es de movimiento", parentCode)}
		case !parent.Active:
			return &domain.HierarchyError{Code: acc.Code, Reason: fmt.Sprintf("la cuenta padre %s está dada de baja", parentCode)}
		}
	}
	return accountRepo.Create(ctx, acc)
}

// ChartSeed cuenta de un plan base (fichero YAML o importación).
type ChartSeed struct {
	Code            string
	Name            string
	Type            entity.AccountType
	IsLeaf          *bool
	NaturalSide     entity.NaturalSide
	SystemProtected bool
}

// SeedChart carga un plan base en una sola transacción. Es idempotente: las cuentas
// existentes se respetan. Devuelve cuántas se crearon.
func (uc *ChartUseCase) SeedChart(ctx context.Context, seeds []ChartSeed) (int, error) {
	sorted := make([]ChartSeed, len(seeds))
	copy(sorted, seeds)
	// Padres antes que hijos: primero por longitud, luego por código.
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].Code) != len(sorted[j].Code) {
			return len(sorted[i].Code) < len(sorted[j].Code)
		}
		return sorted[i].Code < sorted[j].Code
	})

	accounts := make([]*entity.Account, 0, len(sorted))
	for _, s := range sorted {
		acc, err := uc.buildAccount(CreateAccountInput{
			Code:            s.Code,
			Name:            s.Name,
			Type:            s.Type,
			IsLeaf:          s.IsLeaf,
			NaturalSide:     s.NaturalSide,
			SystemProtected: s.SystemProtected,
		})
		if err != nil {
			return 0, err
		}
		accounts = append(accounts, acc)
	}

	created := 0
	err := uc.txRunner.RunChart(ctx, func(accountRepo repository.AccountRepository, _ repository.JournalRepository) error {
		created = 0
		for _, acc := range accounts {
			existing, err := accountRepo.GetByCode(ctx, acc.Code)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := uc.createInTx(ctx, accountRepo, acc); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	uc.log.Info().Int("created", created).Int("total", len(seeds)).Msg("plan de cuentas cargado")
	return created, nil
}

// MarkAsLeaf convierte una cuenta en cuenta de movimiento. No puede tener subcuentas.
func (uc *ChartUseCase) MarkAsLeaf(ctx context.Context, code string) (*entity.Account, error) {
	var out *entity.Account
	err := uc.txRunner.RunChart(ctx, func(accountRepo repository.AccountRepository, _ repository.JournalRepository) error {
		acc, err := getRequired(ctx, accountRepo, code)
		if err != nil {
			return err
		}
		out = acc
		if acc.IsLeaf {
			return nil
		}
		hasChildren, err := accountRepo.HasChildren(ctx, code)
		if err != nil {
			return err
		}
		if hasChildren {
			return &domain.HierarchyError{Code: code, Reason: "tiene subcuentas"}
		}
		acc.IsLeaf = true
		acc.UpdatedAt = uc.now()
		return accountRepo.Update(ctx, acc)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkAsAggregator convierte una cuenta en cuenta de agrupación. Solo si no tiene apuntes.
func (uc *ChartUseCase) MarkAsAggregator(ctx context.Context, code string) (*entity.Account, error) {
	var out *entity.Account
	err := uc.txRunner.RunChart(ctx, func(accountRepo repository.AccountRepository, journalRepo repository.JournalRepository) error {
		acc, err := getRequired(ctx, accountRepo, code)
		if err != nil {
			return err
		}
		out = acc
		if !acc.IsLeaf {
			return nil
		}
		if uc.codes.IsLastLevel(code) {
			return &domain.HierarchyError{Code: code, Reason: "el último nivel solo admite cuentas de movimiento"}
		}
		has, err := journalRepo.HasPostings(ctx, code)
		if err != nil {
			return err
		}
		if has {
			return &domain.AccountError{Code: code, Err: domain.ErrHasPostings}
		}
		acc.IsLeaf = false
		acc.UpdatedAt = uc.now()
		return accountRepo.Update(ctx, acc)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve devuelve la cuenta o un AccountError con domain.ErrNotFound.
func (uc *ChartUseCase) Resolve(ctx context.Context, code string) (*entity.Account, error) {
	return getRequired(ctx, uc.accountRepo, code)
}

// Deactivate da de baja una cuenta (nunca se borra). Una cuenta de movimiento con
// apuntes no puede darse de baja; una de agrupación exige que sus hijas estén de baja.
func (uc *ChartUseCase) Deactivate(ctx context.Context, code string) error {
	return uc.txRunner.RunChart(ctx, func(accountRepo repository.AccountRepository, journalRepo repository.JournalRepository) error {
		acc, err := getRequired(ctx, accountRepo, code)
		if err != nil {
			return err
		}
		if acc.IsSystemProtected {
			return &domain.AccountError{Code: code, Err: domain.ErrSystemProtected}
		}
		if !acc.Active {
			return nil
		}
		if acc.IsLeaf {
			has, err := journalRepo.HasPostings(ctx, code)
			if err != nil {
				return err
			}
			if has {
				return &domain.AccountError{Code: code, Err: domain.ErrHasPostings}
			}
		} else {
			children, err := accountRepo.ListByPrefix(ctx, code, true)
			if err != nil {
				return err
			}
			for _, ch := range children {
				if ch.Code != code {
					return &domain.HierarchyError{Code: code, Reason: fmt.Sprintf("la subcuenta %s sigue activa", ch.Code)}
				}
			}
		}
		acc.Active = false
		acc.UpdatedAt = uc.now()
		if err := accountRepo.Update(ctx, acc); err != nil {
			return err
		}
		uc.log.Info().Str("account", code).Msg("cuenta dada de baja")
		return nil
	})
}

// Tree devuelve el plan completo ordenado por código (getAccountTree).
func (uc *ChartUseCase) Tree(ctx context.Context, activeOnly bool) ([]*entity.Account, error) {
	return uc.accountRepo.ListAll(ctx, activeOnly)
}

// ListByPrefix cuentas de una rama ("todas las del grupo 4").
func (uc *ChartUseCase) ListByPrefix(ctx context.Context, prefix string, activeOnly bool) ([]*entity.Account, error) {
	if prefix != "" && !accounting.IsDigits(prefix) {
		return nil, fmt.Errorf("%w: prefijo %q", domain.ErrInvalidInput, prefix)
	}
	return uc.accountRepo.ListByPrefix(ctx, prefix, activeOnly)
}

func getRequired(ctx context.Context, accountRepo repository.AccountRepository, code string) (*entity.Account, error) {
	acc, err := accountRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, &domain.AccountError{Code: code, Err: domain.ErrNotFound}
	}
	return acc, nil
}
