package autopost

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/accounting"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

// Roles de cuenta por defecto.
const (
	RoleSales     = "sales"
	RolePurchases = "purchases"
	RoleVATOutput = "vat_output"
	RoleVATInput  = "vat_input"
	RoleBank      = "bank"
	RoleCash      = "cash"
)

// DefaultAccounts cuentas por defecto de los asientos automáticos. Vacío = sin configurar.
type DefaultAccounts struct {
	Sales     string
	Purchases string
	VATOutput string
	VATInput  string
	Bank      string
	Cash      string
}

// Provisioner obtiene la subcuenta de un tercero. Lo implementa *subledger.ProvisionerUseCase.
type Provisioner interface {
	Provision(ctx context.Context, counterpartyID string, cpType entity.CounterpartyType) (string, error)
}

// Committer contabiliza un borrador. Lo implementa *posting.PostingEngine.
type Committer interface {
	Commit(ctx context.Context, draft *entity.DraftEntry, userID string) (*entity.JournalEntry, error)
}

// RulesUseCase traduce documentos (ventas, compras, cobros y pagos) a asientos cuadrados.
type RulesUseCase struct {
	accounts    DefaultAccounts
	provisioner Provisioner
	engine      Committer
	log         *logger.Logger
}

// NewRulesUseCase construye el caso de uso.
func NewRulesUseCase(accounts DefaultAccounts, provisioner Provisioner, engine Committer, log *logger.Logger) *RulesUseCase {
	return &RulesUseCase{
		accounts:    accounts,
		provisioner: provisioner,
		engine:      engine,
		log:         log.Component("autopost"),
	}
}

func required(role, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", &domain.MissingDefaultAccountError{Role: role}
	}
	return code, nil
}

// vatGroup acumulado de un tipo impositivo.
type vatGroup struct {
	rate decimal.Decimal
	tax  decimal.Decimal
}

// groupVat agrupa el desglose por tipo en orden de aparición y calcula la cuota si falta.
func groupVat(entries []entity.VatBreakdownEntry) ([]vatGroup, error) {
	var groups []vatGroup
	index := make(map[string]int)
	for i, v := range entries {
		if v.Rate.IsNegative() || v.Base.IsNegative() || v.Tax.IsNegative() {
			return nil, &domain.DocumentError{Field: fmt.Sprintf("vat[%d]", i), Reason: "importes negativos"}
		}
		tax := v.Tax
		if tax.IsZero() && !v.Rate.IsZero() && !v.Base.IsZero() {
			tax = accounting.Round(v.Base.Mul(v.Rate).Div(decimal.NewFromInt(100)))
		}
		if !tax.Equal(accounting.Round(tax)) {
			return nil, &domain.DocumentError{Field: fmt.Sprintf("vat[%d].tax", i), Reason: "más de dos decimales"}
		}
		key := v.Rate.String()
		if j, ok := index[key]; ok {
			groups[j].tax = groups[j].tax.Add(tax)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, vatGroup{rate: v.Rate, tax: tax})
	}
	return groups, nil
}

func validateInvoice(doc entity.InvoiceDocument) error {
	switch {
	case strings.TrimSpace(doc.CounterpartyID) == "":
		return &domain.DocumentError{Field: "counterparty_id", Reason: "requerido"}
	case doc.Date.IsZero():
		return &domain.DocumentError{Field: "date", Reason: "requerida"}
	case doc.Net.IsNegative():
		return &domain.DocumentError{Field: "net", Reason: "no puede ser negativo"}
	case !doc.Net.Equal(accounting.Round(doc.Net)):
		return &domain.DocumentError{Field: "net", Reason: "más de dos decimales"}
	}
	return nil
}

func invoiceConcept(doc entity.InvoiceDocument, kind string) string {
	if doc.Concept != "" {
		return doc.Concept
	}
	label := "Factura"
	if doc.IsCreditNote {
		label = "Factura rectificativa"
	}
	if doc.Number != "" {
		return fmt.Sprintf("%s de %s %s", label, kind, doc.Number)
	}
	return fmt.Sprintf("%s de %s", label, kind)
}

// invoiceLines arma el asiento de una factura: la contrapartida del tercero por el total,
// la cuenta de ingreso/gasto por la base y una línea por tipo de IVA.
// thirdPartyDebit indica si el tercero va al debe (venta) o al haber (compra);
// las rectificativas invierten el lado.
func invoiceLines(draft *entity.DraftEntry, thirdParty, mainAccount, vatAccount string, net decimal.Decimal, groups []vatGroup, thirdPartyDebit bool, mainConcept string) {
	total := net
	for _, g := range groups {
		total = total.Add(g.tax)
	}
	add := func(debit bool, code string, amount decimal.Decimal, concept string) {
		if amount.IsZero() {
			return
		}
		if debit {
			draft.AddDebit(code, amount, concept)
		} else {
			draft.AddCredit(code, amount, concept)
		}
	}
	add(thirdPartyDebit, thirdParty, total, draft.Concept)
	add(!thirdPartyDebit, mainAccount, net, mainConcept)
	for _, g := range groups {
		add(!thirdPartyDebit, vatAccount, g.tax, fmt.Sprintf("IVA %s%%", g.rate.String()))
	}
}

func hasTax(groups []vatGroup) bool {
	for _, g := range groups {
		if !g.tax.IsZero() {
			return true
		}
	}
	return false
}

// BuildSale borrador de una factura emitida:
// debe cliente N+ΣIVA, haber ventas N, haber IVA repercutido por tipo.
func (uc *RulesUseCase) BuildSale(ctx context.Context, doc entity.InvoiceDocument) (*entity.DraftEntry, error) {
	return uc.buildInvoice(ctx, doc, entity.CounterpartyCustomer)
}

// BuildPurchase borrador de una factura recibida:
// debe compras N, debe IVA soportado por tipo, haber proveedor N+ΣIVA.
func (uc *RulesUseCase) BuildPurchase(ctx context.Context, doc entity.InvoiceDocument) (*entity.DraftEntry, error) {
	return uc.buildInvoice(ctx, doc, entity.CounterpartySupplier)
}

func (uc *RulesUseCase) buildInvoice(ctx context.Context, doc entity.InvoiceDocument, cpType entity.CounterpartyType) (*entity.DraftEntry, error) {
	if err := validateInvoice(doc); err != nil {
		return nil, err
	}
	groups, err := groupVat(doc.Vat)
	if err != nil {
		return nil, err
	}
	if doc.Net.IsZero() && !hasTax(groups) {
		return nil, &domain.DocumentError{Field: "net", Reason: "la factura no tiene importe"}
	}

	sale := cpType == entity.CounterpartyCustomer
	mainRole, mainCode, vatRole, vatCode := RolePurchases, uc.accounts.Purchases, RoleVATInput, uc.accounts.VATInput
	source, kind, mainConcept := entity.SourcePurchase, "compra", "Compras"
	if sale {
		mainRole, mainCode, vatRole, vatCode = RoleSales, uc.accounts.Sales, RoleVATOutput, uc.accounts.VATOutput
		source, kind, mainConcept = entity.SourceSale, "venta", "Ventas"
	}
	if !doc.Net.IsZero() {
		if mainCode, err = required(mainRole, mainCode); err != nil {
			return nil, err
		}
	}
	if hasTax(groups) {
		if vatCode, err = required(vatRole, vatCode); err != nil {
			return nil, err
		}
	}

	thirdParty, err := uc.provisioner.Provision(ctx, doc.CounterpartyID, cpType)
	if err != nil {
		return nil, err
	}

	draft := &entity.DraftEntry{
		Date:      doc.Date,
		Concept:   invoiceConcept(doc, kind),
		Source:    source,
		SourceRef: doc.ID,
	}
	// Venta: tercero al debe. Compra: al haber. La rectificativa invierte.
	thirdPartyDebit := sale != doc.IsCreditNote
	invoiceLines(draft, thirdParty, mainCode, vatCode, doc.Net, groups, thirdPartyDebit, mainConcept)
	return draft, nil
}

// BuildPayment borrador de un cobro (debe banco/caja, haber cliente) o de un pago
// (debe proveedor, haber banco/caja).
func (uc *RulesUseCase) BuildPayment(ctx context.Context, doc entity.PaymentDocument) (*entity.DraftEntry, error) {
	switch {
	case strings.TrimSpace(doc.CounterpartyID) == "":
		return nil, &domain.DocumentError{Field: "counterparty_id", Reason: "requerido"}
	case doc.Date.IsZero():
		return nil, &domain.DocumentError{Field: "date", Reason: "requerida"}
	case !doc.Amount.IsPositive():
		return nil, &domain.DocumentError{Field: "amount", Reason: "debe ser positivo"}
	case !doc.Amount.Equal(accounting.Round(doc.Amount)):
		return nil, &domain.DocumentError{Field: "amount", Reason: "más de dos decimales"}
	}

	var (
		treasury string
		err      error
	)
	switch doc.Method {
	case entity.PaymentMethodBank, "":
		treasury, err = required(RoleBank, uc.accounts.Bank)
	case entity.PaymentMethodCash:
		treasury, err = required(RoleCash, uc.accounts.Cash)
	default:
		return nil, &domain.DocumentError{Field: "method", Reason: fmt.Sprintf("medio %q no soportado", doc.Method)}
	}
	if err != nil {
		return nil, err
	}

	var cpType entity.CounterpartyType
	switch doc.Direction {
	case entity.PaymentIncoming:
		cpType = entity.CounterpartyCustomer
	case entity.PaymentOutgoing:
		cpType = entity.CounterpartySupplier
	default:
		return nil, &domain.DocumentError{Field: "direction", Reason: fmt.Sprintf("sentido %q no soportado", doc.Direction)}
	}
	thirdParty, err := uc.provisioner.Provision(ctx, doc.CounterpartyID, cpType)
	if err != nil {
		return nil, err
	}

	concept := doc.Concept
	if concept == "" {
		if cpType == entity.CounterpartyCustomer {
			concept = "Cobro de cliente " + doc.CounterpartyID
		} else {
			concept = "Pago a proveedor " + doc.CounterpartyID
		}
	}
	draft := &entity.DraftEntry{
		Date:      doc.Date,
		Concept:   concept,
		Source:    entity.SourcePayment,
		SourceRef: doc.ID,
	}
	if cpType == entity.CounterpartyCustomer {
		draft.AddDebit(treasury, doc.Amount, concept)
		draft.AddCredit(thirdParty, doc.Amount, concept)
	} else {
		draft.AddDebit(thirdParty, doc.Amount, concept)
		draft.AddCredit(treasury, doc.Amount, concept)
	}
	return draft, nil
}

// PostSale contabiliza una factura emitida.
func (uc *RulesUseCase) PostSale(ctx context.Context, doc entity.InvoiceDocument, userID string) (*entity.JournalEntry, error) {
	draft, err := uc.BuildSale(ctx, doc)
	if err != nil {
		return nil, err
	}
	return uc.commit(ctx, draft, userID)
}

// PostPurchase contabiliza una factura recibida.
func (uc *RulesUseCase) PostPurchase(ctx context.Context, doc entity.InvoiceDocument, userID string) (*entity.JournalEntry, error) {
	draft, err := uc.BuildPurchase(ctx, doc)
	if err != nil {
		return nil, err
	}
	return uc.commit(ctx, draft, userID)
}

// PostPayment contabiliza un cobro o un pago.
func (uc *RulesUseCase) PostPayment(ctx context.Context, doc entity.PaymentDocument, userID string) (*entity.JournalEntry, error) {
	draft, err := uc.BuildPayment(ctx, doc)
	if err != nil {
		return nil, err
	}
	return uc.commit(ctx, draft, userID)
}

func (uc *RulesUseCase) commit(ctx context.Context, draft *entity.DraftEntry, userID string) (*entity.JournalEntry, error) {
	// Las reglas siempre producen asientos cuadrados; si no, es un defecto de la regla.
	if err := accounting.CheckBalance(draft.Lines); err != nil {
		uc.log.Error().Err(err).Str("source", draft.Source).Str("source_ref", draft.SourceRef).Msg("regla automática descuadrada")
		return nil, err
	}
	entry, err := uc.engine.Commit(ctx, draft, userID)
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("source", draft.Source).Str("source_ref", draft.SourceRef).
		Int64("number", entry.Number).Msg("documento contabilizado")
	return entry, nil
}
