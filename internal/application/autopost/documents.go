package autopost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/contabilidad-core/internal/application/dto"
	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
)

// PostFromDocument decodifica el payload JSON según el tipo de documento y lo contabiliza
// con la regla correspondiente (postFromDocument).
func (uc *RulesUseCase) PostFromDocument(ctx context.Context, documentType string, payload []byte, userID string) (*entity.JournalEntry, error) {
	switch documentType {
	case entity.DocumentSale, entity.DocumentPurchase:
		var in dto.InvoiceDocumentRequest
		if err := decodeStrict(payload, &in); err != nil {
			return nil, err
		}
		doc, err := InvoiceFromRequest(in)
		if err != nil {
			return nil, err
		}
		if documentType == entity.DocumentSale {
			return uc.PostSale(ctx, doc, userID)
		}
		return uc.PostPurchase(ctx, doc, userID)
	case entity.DocumentPayment:
		var in dto.PaymentDocumentRequest
		if err := decodeStrict(payload, &in); err != nil {
			return nil, err
		}
		doc, err := PaymentFromRequest(in)
		if err != nil {
			return nil, err
		}
		return uc.PostPayment(ctx, doc, userID)
	default:
		return nil, &domain.DocumentError{Field: "type", Reason: fmt.Sprintf("tipo de documento %q no soportado", documentType)}
	}
}

func decodeStrict(payload []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &domain.DocumentError{Field: "payload", Reason: err.Error()}
	}
	return nil
}

// InvoiceFromRequest adapta el payload HTTP de una factura al documento de dominio.
func InvoiceFromRequest(in dto.InvoiceDocumentRequest) (entity.InvoiceDocument, error) {
	date, err := dto.ParseDate(in.Date)
	if err != nil {
		return entity.InvoiceDocument{}, &domain.DocumentError{Field: "date", Reason: err.Error()}
	}
	vat := make([]entity.VatBreakdownEntry, len(in.Vat))
	for i, v := range in.Vat {
		vat[i] = entity.VatBreakdownEntry{Rate: v.Rate, Base: v.Base, Tax: v.Tax}
	}
	return entity.InvoiceDocument{
		ID:             in.ID,
		Number:         in.Number,
		Date:           date,
		CounterpartyID: in.CounterpartyID,
		Net:            in.Net,
		Vat:            vat,
		IsCreditNote:   in.IsCreditNote,
		Concept:        in.Concept,
	}, nil
}

// PaymentFromRequest adapta el payload HTTP de un cobro/pago al documento de dominio.
func PaymentFromRequest(in dto.PaymentDocumentRequest) (entity.PaymentDocument, error) {
	date, err := dto.ParseDate(in.Date)
	if err != nil {
		return entity.PaymentDocument{}, &domain.DocumentError{Field: "date", Reason: err.Error()}
	}
	return entity.PaymentDocument{
		ID:             in.ID,
		Date:           date,
		CounterpartyID: in.CounterpartyID,
		Direction:      in.Direction,
		Method:         in.Method,
		Amount:         in.Amount,
		Concept:        in.Concept,
	}, nil
}
