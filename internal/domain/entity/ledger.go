package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerMovement apunte tal como lo lee el Libro Mayor (línea + cabecera del asiento).
type LedgerMovement struct {
	AccountCode string
	Exercise    int
	Number      int64
	LineNo      int
	Date        time.Time
	Concept     string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// SideTotals sumas de debe y haber de una cuenta.
type SideTotals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Add acumula un apunte.
func (t SideTotals) Add(debit, credit decimal.Decimal) SideTotals {
	return SideTotals{Debit: t.Debit.Add(debit), Credit: t.Credit.Add(credit)}
}

// LedgerSnapshot lectura consistente del diario para un rango de cuentas y fechas.
// Openings acumula por cuenta todo lo anterior a la fecha inicial.
type LedgerSnapshot struct {
	Accounts  []*Account
	Openings  map[string]SideTotals
	Movements []LedgerMovement
}

// LedgerLine línea del Libro Mayor con saldo acumulado.
type LedgerLine struct {
	Date           time.Time       `json:"date"`
	Exercise       int             `json:"exercise"`
	Number         int64           `json:"number"`
	LineNo         int             `json:"line_no"`
	Concept        string          `json:"concept"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// AccountLedger Libro Mayor de una cuenta. Los saldos van con el signo de su naturaleza.
type AccountLedger struct {
	AccountCode    string          `json:"account_code"`
	AccountName    string          `json:"account_name"`
	NaturalSide    NaturalSide     `json:"natural_side"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Lines          []LedgerLine    `json:"lines"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// TrialBalanceRow fila del balance de sumas y saldos.
type TrialBalanceRow struct {
	AccountCode    string          `json:"account_code"`
	AccountName    string          `json:"account_name"`
	Level          int             `json:"level"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}
