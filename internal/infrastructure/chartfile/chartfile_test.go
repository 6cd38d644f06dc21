package chartfile_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/infrastructure/chartfile"
)

func TestDefault_PlanEmbebido(t *testing.T) {
	f, err := chartfile.Default()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 6}, f.Levels)

	seeds, err := f.Seeds()
	require.NoError(t, err)
	byCode := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		byCode[s.Code] = s.SystemProtected
	}
	for _, code := range []string{"400", "430", "472000", "477000", "570000", "572000", "600000", "700000"} {
		protected, ok := byCode[code]
		assert.True(t, ok, "falta la cuenta %s", code)
		assert.True(t, protected, "%s debe estar protegida", code)
	}
}

func TestDecode_CampoDesconocido(t *testing.T) {
	_, err := chartfile.Decode(strings.NewReader("levels: [1, 2]\nextra: 1\n"))
	assert.Error(t, err)
}

func TestDecode_Vacio(t *testing.T) {
	f, err := chartfile.Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Accounts)
}

func TestSeeds_TipoInvalido(t *testing.T) {
	f := &chartfile.File{Accounts: []chartfile.Entry{{Code: "1", Name: "X", Type: "otro"}}}
	_, err := f.Seeds()
	assert.Error(t, err)

	f = &chartfile.File{Accounts: []chartfile.Entry{{Code: "1", Name: "X", Type: "asset", Side: "izquierda"}}}
	_, err = f.Seeds()
	assert.Error(t, err)
}

func TestEncodeDecode_ExportacionDelPlan(t *testing.T) {
	accounts := []*entity.Account{
		{Code: "5", Name: "Cuentas financieras", Type: entity.AccountTypeAsset, NaturalSide: entity.SideDebtor, IsSystemProtected: true},
		{Code: "572000", Name: "Bancos", Type: entity.AccountTypeAsset, NaturalSide: entity.SideDebtor, IsLeaf: true},
	}
	var buf bytes.Buffer
	require.NoError(t, chartfile.Encode(&buf, chartfile.FromAccounts([]int{1, 2, 3, 6}, accounts)))
	assert.Contains(t, buf.String(), "levels: [1, 2, 3, 6]")

	f, err := chartfile.Decode(&buf)
	require.NoError(t, err)
	require.Len(t, f.Accounts, 2)
	assert.Equal(t, "572000", f.Accounts[1].Code)
	require.NotNil(t, f.Accounts[1].Leaf)
	assert.True(t, *f.Accounts[1].Leaf)
	assert.True(t, f.Accounts[0].Protected)
	assert.Equal(t, "debtor", f.Accounts[0].Side)
}

// ──────────────────────────────────────────────────────────────────────────────
// Importación CSV
// ──────────────────────────────────────────────────────────────────────────────

func TestImportCSV_Latin1ConCabecera(t *testing.T) {
	// "Compras de mercaderías" en ISO-8859-1 (í = 0xED).
	raw := "codigo;nombre;tipo;hoja\n" +
		"6;Compras y gastos;expense\n" +
		"\n" +
		"600000;Compras de mercader\xedas;expense;true\n"

	f, err := chartfile.ImportCSV(strings.NewReader(raw), chartfile.ImportOptions{Latin1: true, HasHeader: true})
	require.NoError(t, err)
	require.Len(t, f.Accounts, 2, "cabecera y filas en blanco se ignoran")
	assert.Equal(t, "Compras de mercaderías", f.Accounts[1].Name)
	assert.Nil(t, f.Accounts[0].Leaf)
	require.NotNil(t, f.Accounts[1].Leaf)
	assert.True(t, *f.Accounts[1].Leaf)
}

func TestImportCSV_SeparadorComa(t *testing.T) {
	f, err := chartfile.ImportCSV(strings.NewReader("7,Ventas,income\n"), chartfile.ImportOptions{Separator: ','})
	require.NoError(t, err)
	require.Len(t, f.Accounts, 1)
	assert.Equal(t, "income", f.Accounts[0].Type)
}

func TestImportCSV_FilasInvalidas(t *testing.T) {
	_, err := chartfile.ImportCSV(strings.NewReader("7;Ventas\n"), chartfile.ImportOptions{})
	assert.Error(t, err, "faltan columnas")

	_, err = chartfile.ImportCSV(strings.NewReader("7;Ventas;income;quizá\n"), chartfile.ImportOptions{})
	assert.Error(t, err, "hoja no booleana")
}
