package dto

import "github.com/shopspring/decimal"

// DraftLineRequest línea de un asiento manual.
type DraftLineRequest struct {
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Concept     string          `json:"concept,omitempty"`
}

// ManualEntryRequest body para POST /api/entries.
type ManualEntryRequest struct {
	Date    string             `json:"date"` // YYYY-MM-DD
	Concept string             `json:"concept"`
	Lines   []DraftLineRequest `json:"lines"`
}

// ReverseEntryRequest body para POST /api/entries/:year/:number/reverse.
type ReverseEntryRequest struct {
	Date    string `json:"date,omitempty"` // vacío = hoy
	Concept string `json:"concept,omitempty"`
}

// EntryRefResponse referencia a otro asiento.
type EntryRefResponse struct {
	Exercise int   `json:"exercise"`
	Number   int64 `json:"number"`
}

// JournalLineResponse apunte en respuestas.
type JournalLineResponse struct {
	LineNo      int             `json:"line_no"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Concept     string          `json:"concept,omitempty"`
}

// JournalEntryResponse asiento contabilizado.
type JournalEntryResponse struct {
	ID          string                `json:"id"`
	Exercise    int                   `json:"exercise"`
	Number      int64                 `json:"number"`
	Date        string                `json:"date"`
	Concept     string                `json:"concept"`
	Source      string                `json:"source"`
	SourceRef   string                `json:"source_ref,omitempty"`
	Reverses    *EntryRefResponse     `json:"reverses,omitempty"`
	TotalDebit  decimal.Decimal       `json:"total_debit"`
	TotalCredit decimal.Decimal       `json:"total_credit"`
	Lines       []JournalLineResponse `json:"lines"`
	CreatedBy   string                `json:"created_by,omitempty"`
}

// VatBreakdownRequest desglose de IVA de una factura.
type VatBreakdownRequest struct {
	Rate decimal.Decimal `json:"rate"`
	Base decimal.Decimal `json:"base"`
	Tax  decimal.Decimal `json:"tax"`
}

// InvoiceDocumentRequest payload de POST /api/documents/sale y /purchase.
type InvoiceDocumentRequest struct {
	ID             string                `json:"id"`
	Number         string                `json:"number"`
	Date           string                `json:"date"`
	CounterpartyID string                `json:"counterparty_id"`
	Net            decimal.Decimal       `json:"net"`
	Vat            []VatBreakdownRequest `json:"vat"`
	IsCreditNote   bool                  `json:"is_credit_note"`
	Concept        string                `json:"concept,omitempty"`
}

// PaymentDocumentRequest payload de POST /api/documents/payment.
type PaymentDocumentRequest struct {
	ID             string          `json:"id"`
	Date           string          `json:"date"`
	CounterpartyID string          `json:"counterparty_id"`
	Direction      string          `json:"direction"` // incoming | outgoing
	Method         string          `json:"method"`    // bank | cash
	Amount         decimal.Decimal `json:"amount"`
	Concept        string          `json:"concept,omitempty"`
}
