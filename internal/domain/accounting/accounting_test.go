package accounting_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/accounting"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Estructura de códigos
// ──────────────────────────────────────────────────────────────────────────────

func TestCodeStructure_NivelesNoCrecientes(t *testing.T) {
	_, err := accounting.NewCodeStructure(1, 3, 2)
	assert.Error(t, err)

	_, err = accounting.NewCodeStructure()
	assert.Error(t, err, "una estructura vacía no es válida")
}

func TestCodeStructure_PadreYAscendientes(t *testing.T) {
	codes := accounting.MustCodeStructure(1, 2, 3, 6)

	parent, ok := codes.ParentOf("430001")
	require.True(t, ok)
	assert.Equal(t, "430", parent)

	_, ok = codes.ParentOf("4")
	assert.False(t, ok, "la raíz no tiene padre")

	_, ok = codes.ParentOf("4300")
	assert.False(t, ok, "una longitud fuera de nivel no tiene padre")

	assert.Equal(t, []string{"430", "43", "4"}, codes.Ancestors("430001"))
	assert.Equal(t, 6, codes.LeafLength())
	assert.True(t, codes.IsLastLevel("700000"))
	assert.True(t, codes.IsRoot("7"))
}

func TestCodeStructure_Validate(t *testing.T) {
	codes := accounting.MustCodeStructure(1, 2, 3, 6)

	assert.NoError(t, codes.Validate("572000"))
	assert.Error(t, codes.Validate("57A"), "solo dígitos")
	assert.Error(t, codes.Validate("5720"), "longitud sin nivel")
	assert.Error(t, codes.Validate(""))
}

func TestCodeStructure_RollupCode(t *testing.T) {
	codes := accounting.MustCodeStructure(1, 2, 3, 6)

	assert.Equal(t, "430", codes.RollupCode("430001", 3))
	assert.Equal(t, "4", codes.RollupCode("430001", 1))
	assert.Equal(t, "43", codes.RollupCode("43", 3), "un código más corto que el nivel se deja igual")
	assert.Equal(t, "430001", codes.RollupCode("430001", 0))
}

func TestInRange_ComparaPorPrefijo(t *testing.T) {
	assert.True(t, accounting.InRange("430001", "4", "4"), "el grupo 4 incluye toda su rama")
	assert.True(t, accounting.InRange("430001", "430", "430999"))
	assert.False(t, accounting.InRange("572000", "430", "430999"))
	assert.False(t, accounting.InRange("400001", "430", ""))
	assert.True(t, accounting.InRange("700000", "", ""), "extremos vacíos no limitan")
}

// ──────────────────────────────────────────────────────────────────────────────
// Líneas y cuadre
// ──────────────────────────────────────────────────────────────────────────────

func TestValidateLines(t *testing.T) {
	ok := []entity.DraftLine{
		{AccountCode: "572000", Debit: d("100.00"), Credit: decimal.Zero},
		{AccountCode: "700000", Debit: decimal.Zero, Credit: d("100.00")},
	}
	require.NoError(t, accounting.ValidateLines(ok))

	cases := []struct {
		name  string
		lines []entity.DraftLine
		line  int
	}{
		{"sin líneas", nil, 0},
		{"cuenta vacía", []entity.DraftLine{{Debit: d("1")}}, 1},
		{"ambos lados", []entity.DraftLine{ok[0], {AccountCode: "700000", Debit: d("1"), Credit: d("1")}}, 2},
		{"ningún lado", []entity.DraftLine{{AccountCode: "700000"}}, 1},
		{"negativo", []entity.DraftLine{{AccountCode: "700000", Debit: d("-5")}}, 1},
		{"tres decimales", []entity.DraftLine{{AccountCode: "700000", Debit: d("0.001")}}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := accounting.ValidateLines(tc.lines)
			require.ErrorIs(t, err, domain.ErrInvalidLine)
			var le *domain.LineError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tc.line, le.LineNo)
		})
	}
}

func TestCheckBalance_Descuadre(t *testing.T) {
	lines := []entity.DraftLine{
		{AccountCode: "572000", Debit: d("100.00")},
		{AccountCode: "700000", Credit: d("99.99")},
	}
	err := accounting.CheckBalance(lines)
	require.ErrorIs(t, err, domain.ErrUnbalanced)

	var ue *domain.UnbalancedError
	require.True(t, errors.As(err, &ue))
	assert.True(t, ue.Difference().Equal(d("0.01")), "la diferencia debe ser 0.01, fue %s", ue.Difference())
}

func TestSigned_SegunNaturaleza(t *testing.T) {
	assert.True(t, accounting.Signed(entity.SideDebtor, d("100"), d("30")).Equal(d("70")))
	assert.True(t, accounting.Signed(entity.SideCreditor, d("100"), d("30")).Equal(d("-70")))
}

func TestReverseLines_InvierteLados(t *testing.T) {
	out := accounting.ReverseLines([]entity.JournalLine{
		{LineNo: 1, AccountCode: "430001", Debit: d("121"), Credit: decimal.Zero},
		{LineNo: 2, AccountCode: "700000", Debit: decimal.Zero, Credit: d("121")},
	})
	require.Len(t, out, 2)
	assert.True(t, out[0].Credit.Equal(d("121")))
	assert.True(t, out[0].Debit.IsZero())
	assert.True(t, out[1].Debit.Equal(d("121")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Sufijos de subcuentas
// ──────────────────────────────────────────────────────────────────────────────

func TestBaseSuffix(t *testing.T) {
	assert.Equal(t, uint64(999), accounting.SuffixCapacity(3))
	assert.Equal(t, uint64(42), accounting.BaseSuffix("42", 3), "un id numérico que cabe se usa tal cual")

	h := accounting.BaseSuffix("cliente-abc", 3)
	assert.GreaterOrEqual(t, h, uint64(1))
	assert.LessOrEqual(t, h, uint64(999))
	assert.Equal(t, h, accounting.BaseSuffix("cliente-abc", 3), "debe ser determinista")

	assert.Equal(t, uint64(1), accounting.NextSuffix(999, 3), "el sondeo vuelve a 1")
	assert.Equal(t, "430042", accounting.SubaccountCode("430", 3, 42))
}

// ──────────────────────────────────────────────────────────────────────────────
// Libro Mayor y balance
// ──────────────────────────────────────────────────────────────────────────────

func day(y int, m time.Month, dd int) time.Time { return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC) }

func snapshot() *entity.LedgerSnapshot {
	return &entity.LedgerSnapshot{
		Accounts: []*entity.Account{
			{Code: "430", Name: "Clientes", IsLeaf: false, NaturalSide: entity.SideDebtor},
			{Code: "430001", Name: "Cliente 1", IsLeaf: true, NaturalSide: entity.SideDebtor},
			{Code: "700000", Name: "Ventas", IsLeaf: true, NaturalSide: entity.SideCreditor},
			{Code: "572000", Name: "Bancos", IsLeaf: true, NaturalSide: entity.SideDebtor},
		},
		Openings: map[string]entity.SideTotals{
			"430001": {Debit: d("50"), Credit: decimal.Zero},
			"700000": {Debit: decimal.Zero, Credit: d("50")},
		},
		Movements: []entity.LedgerMovement{
			{AccountCode: "430001", Exercise: 2024, Number: 3, LineNo: 1, Date: day(2024, 2, 10), Debit: d("121"), Credit: decimal.Zero},
			{AccountCode: "430001", Exercise: 2024, Number: 2, LineNo: 2, Date: day(2024, 2, 1), Debit: decimal.Zero, Credit: d("20")},
			{AccountCode: "700000", Exercise: 2024, Number: 3, LineNo: 2, Date: day(2024, 2, 10), Debit: decimal.Zero, Credit: d("121")},
			{AccountCode: "572000", Exercise: 2024, Number: 2, LineNo: 1, Date: day(2024, 2, 1), Debit: d("20"), Credit: decimal.Zero},
		},
	}
}

func TestBuildLedgers_SaldosAcumulados(t *testing.T) {
	ledgers := accounting.BuildLedgers(snapshot())
	require.Len(t, ledgers, 3, "solo cuentas de movimiento con saldo o apuntes")

	cust := ledgers[0]
	assert.Equal(t, "430001", cust.AccountCode)
	assert.True(t, cust.OpeningBalance.Equal(d("50")))
	require.Len(t, cust.Lines, 2)
	assert.Equal(t, int64(2), cust.Lines[0].Number, "ordenado por fecha")
	assert.True(t, cust.Lines[0].RunningBalance.Equal(d("30")))
	assert.True(t, cust.Lines[1].RunningBalance.Equal(d("151")))
	assert.True(t, cust.ClosingBalance.Equal(d("151")))
	assert.True(t, cust.TotalDebit.Equal(d("121")))
	assert.True(t, cust.TotalCredit.Equal(d("20")))

	sales := ledgers[2]
	assert.Equal(t, "700000", sales.AccountCode)
	assert.True(t, sales.ClosingBalance.Equal(d("171")), "saldo acreedor en positivo")
}

func TestBuildTrialBalance_AgregaPorNivel(t *testing.T) {
	snap := snapshot()
	rows := accounting.BuildTrialBalance(snap, accounting.MustCodeStructure(1, 2, 3, 6), 3)
	require.Len(t, rows, 3)

	assert.Equal(t, "430", rows[0].AccountCode)
	assert.Equal(t, "Clientes", rows[0].AccountName)
	assert.True(t, rows[0].OpeningBalance.Equal(d("50")))
	assert.True(t, rows[0].ClosingBalance.Equal(d("151")))

	assert.Equal(t, "572", rows[1].AccountCode)
	assert.Equal(t, "700", rows[2].AccountCode)

	debit, credit := decimal.Zero, decimal.Zero
	for _, r := range rows {
		debit = debit.Add(r.TotalDebit)
		credit = credit.Add(r.TotalCredit)
	}
	assert.True(t, debit.Equal(credit), "las sumas del periodo deben cuadrar")
}

func TestSortMovements_DesempataPorAsientoYLinea(t *testing.T) {
	movs := []entity.LedgerMovement{
		{Date: day(2024, 1, 5), Exercise: 2024, Number: 2, LineNo: 1},
		{Date: day(2024, 1, 5), Exercise: 2024, Number: 1, LineNo: 2},
		{Date: day(2024, 1, 5), Exercise: 2024, Number: 1, LineNo: 1},
		{Date: day(2024, 1, 4), Exercise: 2024, Number: 9, LineNo: 1},
	}
	accounting.SortMovements(movs)
	assert.Equal(t, int64(9), movs[0].Number)
	assert.Equal(t, int64(1), movs[1].Number)
	assert.Equal(t, 1, movs[1].LineNo)
	assert.Equal(t, 2, movs[2].LineNo)
	assert.Equal(t, int64(2), movs[3].Number)
}
