package entity

import "time"

// AccountType clasificación contable de una cuenta.
type AccountType string

// Tipos de cuenta.
const (
	AccountTypeAsset     AccountType = "asset"     // activo
	AccountTypeLiability AccountType = "liability" // pasivo
	AccountTypeEquity    AccountType = "equity"    // patrimonio neto
	AccountTypeIncome    AccountType = "income"    // ingresos
	AccountTypeExpense   AccountType = "expense"   // gastos
)

// Valid indica si el tipo es uno de los admitidos.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// NaturalSide naturaleza del saldo: deudora o acreedora.
type NaturalSide string

// Naturalezas de saldo.
const (
	SideDebtor   NaturalSide = "debtor"
	SideCreditor NaturalSide = "creditor"
)

// Valid indica si la naturaleza es una de las admitidas.
func (s NaturalSide) Valid() bool {
	return s == SideDebtor || s == SideCreditor
}

// DefaultSide devuelve la naturaleza habitual del tipo: activo y gasto deudoras, el resto acreedoras.
func (t AccountType) DefaultSide() NaturalSide {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return SideDebtor
	default:
		return SideCreditor
	}
}

// Account cuenta del plan contable. El nivel es la longitud del código.
// Solo las cuentas de movimiento (IsLeaf) admiten apuntes; las de agrupación se calculan.
type Account struct {
	Code              string
	Name              string
	Type              AccountType
	IsLeaf            bool
	IsSystemProtected bool
	NaturalSide       NaturalSide
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Level nivel jerárquico (= longitud del código).
func (a *Account) Level() int {
	return len(a.Code)
}
