package accounting

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
)

// CurrencyDecimals decimales de la unidad monetaria mínima (céntimos).
const CurrencyDecimals = 2

// Round redondea a la unidad monetaria mínima.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyDecimals)
}

// hasValidScale indica si el importe no tiene fracciones por debajo del céntimo.
func hasValidScale(d decimal.Decimal) bool {
	return d.Equal(Round(d))
}

// ValidateLines comprueba la forma de cada línea: cuenta informada, importes no
// negativos con como mucho dos decimales y exactamente un lado distinto de cero.
func ValidateLines(lines []entity.DraftLine) error {
	if len(lines) == 0 {
		return &domain.LineError{LineNo: 0, Reason: "el asiento no tiene líneas"}
	}
	for i, l := range lines {
		n := i + 1
		switch {
		case l.AccountCode == "":
			return &domain.LineError{LineNo: n, Reason: "cuenta vacía"}
		case l.Debit.IsNegative() || l.Credit.IsNegative():
			return &domain.LineError{LineNo: n, Reason: "importe negativo"}
		case l.Debit.IsZero() == l.Credit.IsZero():
			return &domain.LineError{LineNo: n, Reason: "debe informarse exactamente uno de debe o haber"}
		case !hasValidScale(l.Debit) || !hasValidScale(l.Credit):
			return &domain.LineError{LineNo: n, Reason: "importe con más de dos decimales"}
		}
	}
	return nil
}

// Totals suma debe y haber de las líneas.
func Totals(lines []entity.DraftLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// CheckBalance devuelve *domain.UnbalancedError si Σdebe != Σhaber.
func CheckBalance(lines []entity.DraftLine) error {
	debit, credit := Totals(lines)
	if !debit.Equal(credit) {
		return &domain.UnbalancedError{Debit: debit, Credit: credit}
	}
	return nil
}

// Signed saldo con el signo de la naturaleza: deudora debe-haber, acreedora haber-debe.
func Signed(side entity.NaturalSide, debit, credit decimal.Decimal) decimal.Decimal {
	if side == entity.SideCreditor {
		return credit.Sub(debit)
	}
	return debit.Sub(credit)
}

// ReverseLines invierte debe y haber de cada línea (asiento de anulación).
func ReverseLines(lines []entity.JournalLine) []entity.DraftLine {
	out := make([]entity.DraftLine, len(lines))
	for i, l := range lines {
		out[i] = entity.DraftLine{
			AccountCode: l.AccountCode,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Concept:     l.Concept,
		}
	}
	return out
}
