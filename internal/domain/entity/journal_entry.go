package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Origen de un asiento.
const (
	SourceManual   = "manual"
	SourceSale     = "sale"
	SourcePurchase = "purchase"
	SourcePayment  = "payment"
	SourceReversal = "reversal"
)

// JournalLine apunte de un asiento: exactamente uno de Debit/Credit es distinto de cero.
type JournalLine struct {
	LineNo      int
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Concept     string
}

// EntryRef referencia a un asiento por (ejercicio, número).
type EntryRef struct {
	Exercise int   `json:"exercise"`
	Number   int64 `json:"number"`
}

// JournalEntry asiento contabilizado. Inmutable: las correcciones se hacen con un asiento inverso.
type JournalEntry struct {
	ID        string
	Exercise  int
	Number    int64
	Date      time.Time
	Concept   string
	Lines     []JournalLine
	Source    string
	SourceRef string
	Reverses  *EntryRef
	CreatedBy string
	CreatedAt time.Time
}

// Ref devuelve la referencia (ejercicio, número) del asiento.
func (e *JournalEntry) Ref() EntryRef {
	return EntryRef{Exercise: e.Exercise, Number: e.Number}
}

// TotalDebit suma del debe.
func (e *JournalEntry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit suma del haber.
func (e *JournalEntry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// DraftLine línea editable de un borrador.
type DraftLine struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Concept     string
}

// DraftEntry borrador de asiento. Es mutable y no tiene número; solo el motor de
// contabilización lo convierte en JournalEntry.
type DraftEntry struct {
	Date      time.Time
	Concept   string
	Lines     []DraftLine
	Source    string
	SourceRef string
	Reverses  *EntryRef
}

// AddDebit añade una línea al debe.
func (d *DraftEntry) AddDebit(account string, amount decimal.Decimal, concept string) {
	d.Lines = append(d.Lines, DraftLine{AccountCode: account, Debit: amount, Credit: decimal.Zero, Concept: concept})
}

// AddCredit añade una línea al haber.
func (d *DraftEntry) AddCredit(account string, amount decimal.Decimal, concept string) {
	d.Lines = append(d.Lines, DraftLine{AccountCode: account, Debit: decimal.Zero, Credit: amount, Concept: concept})
}

// AccountCodes códigos distintos referenciados por el borrador, en orden de aparición.
func (d *DraftEntry) AccountCodes() []string {
	seen := make(map[string]struct{}, len(d.Lines))
	var codes []string
	for _, l := range d.Lines {
		if _, ok := seen[l.AccountCode]; ok {
			continue
		}
		seen[l.AccountCode] = struct{}{}
		codes = append(codes, l.AccountCode)
	}
	return codes
}
