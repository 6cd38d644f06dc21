package dto

// CreateAccountRequest body para POST /api/accounts.
type CreateAccountRequest struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	Type            string `json:"type"` // asset | liability | equity | income | expense
	ParentCode      string `json:"parent_code,omitempty"`
	IsLeaf          *bool  `json:"is_leaf,omitempty"`
	NaturalSide     string `json:"natural_side,omitempty"` // debtor | creditor
	SystemProtected bool   `json:"system_protected,omitempty"`
}

// AccountResponse cuenta del plan.
type AccountResponse struct {
	Code              string `json:"code"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	Level             int    `json:"level"`
	ParentCode        string `json:"parent_code,omitempty"`
	IsLeaf            bool   `json:"is_leaf"`
	IsSystemProtected bool   `json:"is_system_protected"`
	NaturalSide       string `json:"natural_side"`
	Active            bool   `json:"active"`
}

// ProvisionSubaccountRequest body para POST /api/subaccounts.
type ProvisionSubaccountRequest struct {
	CounterpartyID string `json:"counterparty_id"`
	Type           string `json:"type"` // customer | supplier
}

// ProvisionSubaccountResponse subcuenta asignada.
type ProvisionSubaccountResponse struct {
	CounterpartyID string `json:"counterparty_id"`
	Type           string `json:"type"`
	AccountCode    string `json:"account_code"`
}

// ReopenRequest body de las reaperturas (motivo obligatorio en auditoría).
type ReopenRequest struct {
	Reason string `json:"reason"`
}

// FiscalPeriodResponse estado de un periodo.
type FiscalPeriodResponse struct {
	Number   int    `json:"number"`
	IsClosed bool   `json:"is_closed"`
	ClosedAt string `json:"closed_at,omitempty"`
	ClosedBy string `json:"closed_by,omitempty"`
}

// FiscalExerciseResponse estado de un ejercicio.
type FiscalExerciseResponse struct {
	Year        int                    `json:"year"`
	IsClosed    bool                   `json:"is_closed"`
	ClosingDate string                 `json:"closing_date,omitempty"`
	Periods     []FiscalPeriodResponse `json:"periods"`
}

// AuditRecordResponse reapertura registrada.
type AuditRecordResponse struct {
	ID       string `json:"id"`
	Exercise int    `json:"exercise"`
	Period   int    `json:"period,omitempty"`
	Action   string `json:"action"`
	UserID   string `json:"user_id"`
	Reason   string `json:"reason,omitempty"`
	At       string `json:"at"`
}
