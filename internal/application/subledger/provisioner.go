package subledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/accounting"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

// ProvisionerUseCase genera las subcuentas de clientes y proveedores.
//
// Estrategia: el sufijo se deriva del identificador del tercero (numérico si cabe,
// FNV-1a en otro caso) con sondeo lineal si el hueco está ocupado por otro tercero.
// La unicidad la garantizan la clave única del código de cuenta y la del par
// (tipo, tercero); además el alta se serializa por prefijo.
type ProvisionerUseCase struct {
	txRunner      TxRunner
	subledgerRepo repository.SubledgerRepository
	mappings      map[entity.CounterpartyType]entity.SubledgerMapping
	log           *logger.Logger
	now           func() time.Time
}

// NewProvisionerUseCase construye el caso de uso con los prefijos configurados.
func NewProvisionerUseCase(
	txRunner TxRunner,
	subledgerRepo repository.SubledgerRepository,
	mappings []entity.SubledgerMapping,
	log *logger.Logger,
) *ProvisionerUseCase {
	m := make(map[entity.CounterpartyType]entity.SubledgerMapping, len(mappings))
	for _, mp := range mappings {
		m[mp.Type] = mp
	}
	return &ProvisionerUseCase{
		txRunner:      txRunner,
		subledgerRepo: subledgerRepo,
		mappings:      m,
		log:           log.Component("subledger"),
		now:           time.Now,
	}
}

// ValidateMappings comprueba que cada prefijo sea del penúltimo nivel y produzca
// códigos del último nivel del plan.
func ValidateMappings(mappings []entity.SubledgerMapping, codes accounting.CodeStructure) error {
	levels := codes.Levels()
	if len(levels) < 2 {
		return fmt.Errorf("el plan necesita al menos dos niveles para generar subcuentas")
	}
	parentLen := levels[len(levels)-2]
	for _, m := range mappings {
		if !m.Type.Valid() {
			return fmt.Errorf("tipo de tercero %q no soportado", m.Type)
		}
		if !accounting.IsDigits(m.Prefix) || len(m.Prefix) != parentLen {
			return fmt.Errorf("prefijo %q de %s debe ser un código de %d dígitos", m.Prefix, m.Type, parentLen)
		}
		if m.Length != codes.LeafLength() {
			return fmt.Errorf("longitud de subcuenta %d de %s distinta del último nivel %d", m.Length, m.Type, codes.LeafLength())
		}
		if accounting.SuffixCapacity(m.SuffixWidth()) == 0 {
			return fmt.Errorf("prefijo %q de %s sin espacio para sufijos", m.Prefix, m.Type)
		}
	}
	return nil
}

// Provision devuelve la subcuenta del tercero, creándola la primera vez.
// Idempotente: la misma pareja (tercero, tipo) siempre devuelve el mismo código.
func (uc *ProvisionerUseCase) Provision(ctx context.Context, counterpartyID string, cpType entity.CounterpartyType) (string, error) {
	id := strings.TrimSpace(counterpartyID)
	if id == "" || !cpType.Valid() {
		return "", fmt.Errorf("%w: tercero %q de tipo %q", domain.ErrInvalidInput, counterpartyID, cpType)
	}
	existing, err := uc.subledgerRepo.Get(ctx, cpType, id)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.AccountCode, nil
	}
	mapping, ok := uc.mappings[cpType]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrMissingSubledger, cpType)
	}
	width := mapping.SuffixWidth()
	capacity := accounting.SuffixCapacity(width)
	if capacity == 0 {
		return "", &domain.PrefixExhaustedError{Prefix: mapping.Prefix, Width: width}
	}

	var code string
	created := false
	err = uc.txRunner.RunProvisioning(ctx, mapping.Prefix, func(accountRepo repository.AccountRepository, subledgerRepo repository.SubledgerRepository) error {
		// Otro proceso pudo crearla mientras esperábamos el bloqueo.
		sub, err := subledgerRepo.Get(ctx, cpType, id)
		if err != nil {
			return err
		}
		if sub != nil {
			code = sub.AccountCode
			return nil
		}
		parent, err := accountRepo.GetByCode(ctx, mapping.Prefix)
		if err != nil {
			return err
		}
		if parent == nil || parent.IsLeaf || !parent.Active {
			return &domain.HierarchyError{Code: mapping.Prefix, Reason: "el prefijo de subcuentas debe ser una cuenta de agrupación activa"}
		}
		used, err := accountRepo.CountByPrefix(ctx, mapping.Prefix, mapping.Length)
		if err != nil {
			return err
		}
		if uint64(used) >= capacity {
			return &domain.PrefixExhaustedError{Prefix: mapping.Prefix, Width: width}
		}

		suffix := accounting.BaseSuffix(id, width)
		for probes := uint64(0); probes < capacity; probes++ {
			candidate := accounting.SubaccountCode(mapping.Prefix, width, suffix)
			acc, err := accountRepo.GetByCode(ctx, candidate)
			if err != nil {
				return err
			}
			if acc == nil {
				code = candidate
				break
			}
			suffix = accounting.NextSuffix(suffix, width)
		}
		if code == "" {
			return &domain.PrefixExhaustedError{Prefix: mapping.Prefix, Width: width}
		}

		now := uc.now()
		if err := accountRepo.Create(ctx, &entity.Account{
			Code:        code,
			Name:        fmt.Sprintf("%s %s", parent.Name, id),
			Type:        parent.Type,
			IsLeaf:      true,
			NaturalSide: parent.NaturalSide,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return err
		}
		created = true
		return subledgerRepo.Create(ctx, &entity.SubledgerAccount{
			CounterpartyType: cpType,
			CounterpartyID:   id,
			AccountCode:      code,
			CreatedAt:        now,
		})
	})
	if err != nil {
		return "", err
	}
	if created {
		uc.log.Info().Str("counterparty_id", id).Str("type", string(cpType)).Str("account", code).Msg("subcuenta creada")
	}
	return code, nil
}

// Mapping devuelve el prefijo configurado para un tipo de tercero.
func (uc *ProvisionerUseCase) Mapping(cpType entity.CounterpartyType) (entity.SubledgerMapping, bool) {
	m, ok := uc.mappings[cpType]
	return m, ok
}
