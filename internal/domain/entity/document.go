package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de documento que generan asientos automáticos.
const (
	DocumentSale     = "sale"
	DocumentPurchase = "purchase"
	DocumentPayment  = "payment"
)

// VatBreakdownEntry desglose de IVA por tipo impositivo. Si Tax es cero y Rate no,
// se calcula como Base × Rate / 100 redondeado a céntimos.
type VatBreakdownEntry struct {
	Rate decimal.Decimal
	Base decimal.Decimal
	Tax  decimal.Decimal
}

// InvoiceDocument factura emitida (venta) o recibida (compra).
type InvoiceDocument struct {
	ID             string
	Number         string
	Date           time.Time
	CounterpartyID string
	Net            decimal.Decimal
	Vat            []VatBreakdownEntry
	IsCreditNote   bool
	Concept        string
}

// Sentido y medio de un cobro/pago.
const (
	PaymentIncoming = "incoming"
	PaymentOutgoing = "outgoing"

	PaymentMethodBank = "bank"
	PaymentMethodCash = "cash"
)

// PaymentDocument cobro de cliente (incoming) o pago a proveedor (outgoing).
type PaymentDocument struct {
	ID             string
	Date           time.Time
	CounterpartyID string
	Direction      string
	Method         string
	Amount         decimal.Decimal
	Concept        string
}
