package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/contabilidad-core/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("LEDGER_STORE", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Ledger.Store)
	assert.Equal(t, []int{1, 2, 3, 6}, cfg.Ledger.CodeLevels)
	assert.True(t, cfg.Ledger.ResetNumberingAnnually)
	assert.True(t, cfg.Ledger.StrictPeriodOrder)
	assert.False(t, cfg.Ledger.AllowUnbalanced)
	assert.Equal(t, "700000", cfg.Ledger.Accounts.Sales)
	assert.Equal(t, "430", cfg.Ledger.CustomerPrefix)
	assert.Equal(t, "400", cfg.Ledger.SupplierPrefix)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Setenv("LEDGER_STORE", "memory")
	t.Setenv("LEDGER_CODE_LEVELS", "1, 2, 4, 8")
	t.Setenv("LEDGER_ALLOW_UNBALANCED", "true")
	t.Setenv("LEDGER_ACCOUNT_BANK", "57200001")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4, 8}, cfg.Ledger.CodeLevels)
	assert.True(t, cfg.Ledger.AllowUnbalanced)
	assert.Equal(t, "57200001", cfg.Ledger.Accounts.Bank)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_AlmacenNoSoportado(t *testing.T) {
	t.Setenv("LEDGER_STORE", "mongo")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_NivelesInvalidos(t *testing.T) {
	t.Setenv("LEDGER_STORE", "memory")
	t.Setenv("LEDGER_CODE_LEVELS", "1,dos,3")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "conta", Password: "p@ss", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://conta:p%40ss@db:5432/ledger?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgresql://otro"
	assert.Equal(t, "postgresql://otro", c.ConnectionString())
}
