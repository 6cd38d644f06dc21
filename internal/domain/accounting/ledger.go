package accounting

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
)

// SortMovements ordena por fecha y, a igual fecha, por ejercicio, número de asiento y línea.
func SortMovements(movs []entity.LedgerMovement) {
	sort.SliceStable(movs, func(i, j int) bool {
		a, b := movs[i], movs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Exercise != b.Exercise {
			return a.Exercise < b.Exercise
		}
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return a.LineNo < b.LineNo
	})
}

// BuildLedgers calcula el Libro Mayor de las cuentas de movimiento del snapshot.
// Se omiten las cuentas sin saldo inicial ni movimientos en el rango.
// Función pura: no modifica el snapshot.
func BuildLedgers(snap *entity.LedgerSnapshot) []entity.AccountLedger {
	byAccount := make(map[string][]entity.LedgerMovement)
	for _, m := range snap.Movements {
		byAccount[m.AccountCode] = append(byAccount[m.AccountCode], m)
	}

	accounts := make([]*entity.Account, 0, len(snap.Accounts))
	for _, a := range snap.Accounts {
		if a.IsLeaf {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })

	var out []entity.AccountLedger
	for _, acc := range accounts {
		movs := byAccount[acc.Code]
		open := snap.Openings[acc.Code]
		opening := Signed(acc.NaturalSide, open.Debit, open.Credit)
		if len(movs) == 0 && opening.IsZero() {
			continue
		}
		SortMovements(movs)

		al := entity.AccountLedger{
			AccountCode:    acc.Code,
			AccountName:    acc.Name,
			NaturalSide:    acc.NaturalSide,
			OpeningBalance: opening,
			Lines:          make([]entity.LedgerLine, 0, len(movs)),
			TotalDebit:     decimal.Zero,
			TotalCredit:    decimal.Zero,
		}
		running := opening
		for _, m := range movs {
			running = running.Add(Signed(acc.NaturalSide, m.Debit, m.Credit))
			al.TotalDebit = al.TotalDebit.Add(m.Debit)
			al.TotalCredit = al.TotalCredit.Add(m.Credit)
			al.Lines = append(al.Lines, entity.LedgerLine{
				Date:           m.Date,
				Exercise:       m.Exercise,
				Number:         m.Number,
				LineNo:         m.LineNo,
				Concept:        m.Concept,
				Debit:          m.Debit,
				Credit:         m.Credit,
				RunningBalance: running,
			})
		}
		al.ClosingBalance = running
		out = append(out, al)
	}
	return out
}

// BuildTrialBalance agrega saldos de cuentas de movimiento al nivel indicado
// (longitud de código) y devuelve el balance de sumas y saldos ordenado por código.
// Cada fila usa la naturaleza de la cuenta agregada.
func BuildTrialBalance(snap *entity.LedgerSnapshot, codes CodeStructure, level int) []entity.TrialBalanceRow {
	byCode := make(map[string]*entity.Account, len(snap.Accounts))
	for _, a := range snap.Accounts {
		byCode[a.Code] = a
	}

	opening := make(map[string]entity.SideTotals)
	period := make(map[string]entity.SideTotals)
	for code, t := range snap.Openings {
		key := codes.RollupCode(code, level)
		opening[key] = opening[key].Add(t.Debit, t.Credit)
	}
	for _, m := range snap.Movements {
		key := codes.RollupCode(m.AccountCode, level)
		period[key] = period[key].Add(m.Debit, m.Credit)
	}

	keys := make(map[string]struct{})
	for k := range opening {
		keys[k] = struct{}{}
	}
	for k := range period {
		keys[k] = struct{}{}
	}

	rows := make([]entity.TrialBalanceRow, 0, len(keys))
	for code := range keys {
		side := entity.SideDebtor
		name := ""
		if acc, ok := byCode[code]; ok {
			side = acc.NaturalSide
			name = acc.Name
		}
		o, p := opening[code], period[code]
		openBal := Signed(side, orZero(o.Debit), orZero(o.Credit))
		row := entity.TrialBalanceRow{
			AccountCode:    code,
			AccountName:    name,
			Level:          len(code),
			OpeningBalance: openBal,
			TotalDebit:     orZero(p.Debit),
			TotalCredit:    orZero(p.Credit),
		}
		row.ClosingBalance = openBal.Add(Signed(side, row.TotalDebit, row.TotalCredit))
		if row.OpeningBalance.IsZero() && row.TotalDebit.IsZero() && row.TotalCredit.IsZero() {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].AccountCode < rows[j].AccountCode })
	return rows
}

// orZero normaliza el valor cero de decimal.Decimal.
func orZero(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	return d
}
