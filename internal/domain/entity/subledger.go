package entity

import "time"

// CounterpartyType tipo de tercero con subcuenta propia.
type CounterpartyType string

// Tipos de tercero.
const (
	CounterpartyCustomer CounterpartyType = "customer"
	CounterpartySupplier CounterpartyType = "supplier"
)

// Valid indica si el tipo de tercero es conocido.
func (t CounterpartyType) Valid() bool {
	return t == CounterpartyCustomer || t == CounterpartySupplier
}

// SubledgerMapping prefijo y longitud de las subcuentas de un tipo de tercero.
type SubledgerMapping struct {
	Type   CounterpartyType
	Prefix string
	Length int
}

// SuffixWidth dígitos disponibles para el sufijo por tercero.
func (m SubledgerMapping) SuffixWidth() int {
	return m.Length - len(m.Prefix)
}

// SubledgerAccount asignación (tipo, tercero) -> subcuenta. Única por par.
type SubledgerAccount struct {
	CounterpartyType CounterpartyType
	CounterpartyID   string
	AccountCode      string
	CreatedAt        time.Time
}
