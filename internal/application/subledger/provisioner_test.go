package subledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/contabilidad-core/internal/application/chart"
	"github.com/jhoicas/contabilidad-core/internal/application/subledger"
	"github.com/jhoicas/contabilidad-core/internal/bootstrap"
	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/accounting"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/pkg/config"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

func newServices(t *testing.T) *bootstrap.Services {
	t.Helper()
	svc, err := bootstrap.NewServices(config.DefaultLedgerConfig(), bootstrap.NewMemoryStorage(), logger.Nop())
	require.NoError(t, err)
	_, err = bootstrap.LoadChart(context.Background(), svc.Chart, svc.Settings.Codes, "default")
	require.NoError(t, err)
	return svc
}

// ──────────────────────────────────────────────────────────────────────────────
// Provision
// ──────────────────────────────────────────────────────────────────────────────

func TestProvision_IdNumericoSeUsaTalCual(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	code, err := svc.Provisioner.Provision(ctx, "1", entity.CounterpartyCustomer)
	require.NoError(t, err)
	assert.Equal(t, "430001", code)

	code, err = svc.Provisioner.Provision(ctx, "25", entity.CounterpartySupplier)
	require.NoError(t, err)
	assert.Equal(t, "400025", code)

	acc, err := svc.Chart.Resolve(ctx, "430001")
	require.NoError(t, err)
	assert.True(t, acc.IsLeaf)
	assert.True(t, acc.Active)
	assert.Equal(t, "Clientes 1", acc.Name)
	assert.Equal(t, entity.AccountTypeAsset, acc.Type, "hereda el tipo del prefijo")
}

func TestProvision_Idempotente(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	first, err := svc.Provisioner.Provision(ctx, "cliente-acme", entity.CounterpartyCustomer)
	require.NoError(t, err)
	second, err := svc.Provisioner.Provision(ctx, "cliente-acme", entity.CounterpartyCustomer)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	accs, err := svc.Chart.ListByPrefix(ctx, "430", false)
	require.NoError(t, err)
	assert.Len(t, accs, 2, "el prefijo y una sola subcuenta")
}

func TestProvision_MismoIdDistintoTipo(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	cust, err := svc.Provisioner.Provision(ctx, "7", entity.CounterpartyCustomer)
	require.NoError(t, err)
	supp, err := svc.Provisioner.Provision(ctx, "7", entity.CounterpartySupplier)
	require.NoError(t, err)
	assert.NotEqual(t, cust, supp)
}

func TestProvision_ColisionSondeaSiguienteHueco(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	_, err := svc.Chart.CreateAccount(ctx, chart.CreateAccountInput{Code: "430005", Name: "Manual", Type: entity.AccountTypeAsset})
	require.NoError(t, err)

	code, err := svc.Provisioner.Provision(ctx, "5", entity.CounterpartyCustomer)
	require.NoError(t, err)
	assert.Equal(t, "430006", code, "el hueco ocupado se salta")
}

func TestProvision_EntradaInvalida(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	_, err := svc.Provisioner.Provision(ctx, "", entity.CounterpartyCustomer)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Provisioner.Provision(ctx, "1", "employee")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProvision_PrefijoInexistente(t *testing.T) {
	cfg := config.DefaultLedgerConfig()
	cfg.CustomerPrefix = "431"
	svc, err := bootstrap.NewServices(cfg, bootstrap.NewMemoryStorage(), logger.Nop())
	require.NoError(t, err)
	_, err = bootstrap.LoadChart(context.Background(), svc.Chart, svc.Settings.Codes, "default")
	require.NoError(t, err)

	_, err = svc.Provisioner.Provision(context.Background(), "1", entity.CounterpartyCustomer)
	require.ErrorIs(t, err, domain.ErrInvalidHierarchy)
}

func TestProvision_TipoSinPrefijo(t *testing.T) {
	store := bootstrap.NewMemoryStorage()
	uc := subledger.NewProvisionerUseCase(store.TxRunner, store.Subledger, []entity.SubledgerMapping{
		{Type: entity.CounterpartyCustomer, Prefix: "430", Length: 6},
	}, logger.Nop())

	_, err := uc.Provision(context.Background(), "1", entity.CounterpartySupplier)
	require.ErrorIs(t, err, domain.ErrMissingSubledger)
}

func TestProvision_PrefijoAgotado(t *testing.T) {
	cfg := config.DefaultLedgerConfig()
	cfg.CodeLevels = []int{1, 2, 3, 4}
	svc, err := bootstrap.NewServices(cfg, bootstrap.NewMemoryStorage(), logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	for _, in := range []chart.CreateAccountInput{
		{Code: "4", Name: "Acreedores y deudores", Type: entity.AccountTypeAsset},
		{Code: "43", Name: "Clientes", Type: entity.AccountTypeAsset},
		{Code: "430", Name: "Clientes", Type: entity.AccountTypeAsset},
	} {
		_, err := svc.Chart.CreateAccount(ctx, in)
		require.NoError(t, err)
	}

	// Sufijo de un dígito: caben 9 terceros.
	for i := 1; i <= 9; i++ {
		_, err := svc.Provisioner.Provision(ctx, fmt.Sprintf("c-%d", i), entity.CounterpartyCustomer)
		require.NoError(t, err)
	}
	_, err = svc.Provisioner.Provision(ctx, "c-10", entity.CounterpartyCustomer)
	require.ErrorIs(t, err, domain.ErrPrefixExhausted)
	var pe *domain.PrefixExhaustedError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "430", pe.Prefix)
	assert.Equal(t, 1, pe.Width)
}

func TestProvision_ConcurrenteDevuelveElMismoCodigo(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	const n = 16
	codes := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], errs[i] = svc.Provisioner.Provision(ctx, "cliente-concurrente", entity.CounterpartyCustomer)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, codes[0], codes[i])
	}
	accs, err := svc.Chart.ListByPrefix(ctx, "430", false)
	require.NoError(t, err)
	assert.Len(t, accs, 2, "una sola subcuenta creada")
}

func TestProvision_TercerosDistintosConcurrentes(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()

	const n = 20
	codes := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code, err := svc.Provisioner.Provision(ctx, fmt.Sprintf("tercero-%d", i), entity.CounterpartyCustomer)
			assert.NoError(t, err)
			codes[i] = code
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, c := range codes {
		assert.False(t, seen[c], "código %s repetido", c)
		seen[c] = true
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ValidateMappings
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateMappings(t *testing.T) {
	codes := accounting.MustCodeStructure(1, 2, 3, 6)

	ok := []entity.SubledgerMapping{{Type: entity.CounterpartyCustomer, Prefix: "430", Length: 6}}
	require.NoError(t, subledger.ValidateMappings(ok, codes))

	bad := [][]entity.SubledgerMapping{
		{{Type: entity.CounterpartyCustomer, Prefix: "43", Length: 6}},
		{{Type: entity.CounterpartyCustomer, Prefix: "430", Length: 5}},
		{{Type: "employee", Prefix: "430", Length: 6}},
		{{Type: entity.CounterpartyCustomer, Prefix: "4A0", Length: 6}},
	}
	for i, m := range bad {
		assert.Error(t, subledger.ValidateMappings(m, codes), "caso %d", i)
	}
}
