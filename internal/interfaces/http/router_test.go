package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/contabilidad-core/internal/application/dto"
	"github.com/jhoicas/contabilidad-core/internal/bootstrap"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	apphttp "github.com/jhoicas/contabilidad-core/internal/interfaces/http"
	"github.com/jhoicas/contabilidad-core/pkg/config"
	pkgjwt "github.com/jhoicas/contabilidad-core/pkg/jwt"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildRouterApp monta la API completa sobre almacenamiento en memoria con el plan por defecto.
func buildRouterApp(t *testing.T) *fiber.App {
	t.Helper()
	svc, err := bootstrap.NewServices(config.DefaultLedgerConfig(), bootstrap.NewMemoryStorage(), logger.Nop())
	require.NoError(t, err)
	_, err = bootstrap.LoadChart(context.Background(), svc.Chart, svc.Settings.Codes, "default")
	require.NoError(t, err)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Chart:       svc.Chart,
		Calendar:    svc.Calendar,
		Provisioner: svc.Provisioner,
		Engine:      svc.Engine,
		Rules:       svc.Rules,
		Ledger:      svc.Ledger,
		Codes:       svc.Settings.Codes,
		JWTSecret:   testJWTSecret,
		Log:         logger.Nop(),
	})
	return app
}

// call lanza la petición con el rol indicado y un body JSON opcional.
func call(t *testing.T, app *fiber.App, method, path, role string, body any) *http.Response {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func manualEntry(debitAccount, creditAccount, debit, credit string) dto.ManualEntryRequest {
	return dto.ManualEntryRequest{
		Date:    "2024-05-10",
		Concept: "Ingreso en banco",
		Lines: []dto.DraftLineRequest{
			{AccountCode: debitAccount, Debit: decimal.RequireFromString(debit), Credit: decimal.Zero},
			{AccountCode: creditAccount, Debit: decimal.Zero, Credit: decimal.RequireFromString(credit)},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Diario
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_ContableContabilizaAsiento(t *testing.T) {
	app := buildRouterApp(t)

	resp := call(t, app, http.MethodPost, "/api/entries", pkgjwt.RoleAccountant, manualEntry("572000", "700000", "10.00", "10.00"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, "el contable puede contabilizar")

	var entry dto.JournalEntryResponse
	decodeBody(t, resp, &entry)
	assert.Equal(t, 2024, entry.Exercise)
	assert.Equal(t, int64(1), entry.Number)
	assert.Equal(t, "2024-05-10", entry.Date)
	assert.Equal(t, testUserID, entry.CreatedBy, "el autor sale del token")
	require.Len(t, entry.Lines, 2)

	resp = call(t, app, http.MethodGet, "/api/entries/2024/1", pkgjwt.RoleAuditor, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "el auditor puede consultar")
}

func TestRouter_AuditorNoContabiliza(t *testing.T) {
	app := buildRouterApp(t)

	resp := call(t, app, http.MethodPost, "/api/entries", pkgjwt.RoleAuditor, manualEntry("572000", "700000", "10", "10"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_AsientoDescuadrado_Retorna422(t *testing.T) {
	app := buildRouterApp(t)

	resp := call(t, app, http.MethodPost, "/api/entries", pkgjwt.RoleAdmin, manualEntry("572000", "700000", "10.00", "9.99"))
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body dto.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "UNBALANCED", body.Code)
	assert.Equal(t, "0.01", body.Details["difference"], "la respuesta incluye el descuadre")
}

func TestRouter_CuentaAgregadora_Retorna422(t *testing.T) {
	app := buildRouterApp(t)

	resp := call(t, app, http.MethodPost, "/api/entries", pkgjwt.RoleAdmin, manualEntry("430", "700000", "10", "10"))
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body dto.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "POSTING_TO_AGGREGATOR", body.Code)
	assert.Equal(t, "430", body.Details["account"])
	assert.EqualValues(t, 1, body.Details["line"])
}

func TestRouter_ReferenciaInvalida_Retorna400(t *testing.T) {
	app := buildRouterApp(t)

	resp := call(t, app, http.MethodGet, "/api/entries/dos-mil/1", pkgjwt.RoleAdmin, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/entries/2024/7", pkgjwt.RoleAdmin, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_ListadoAcotaLimite(t *testing.T) {
	app := buildRouterApp(t)

	resp := call(t, app, http.MethodGet, "/api/entries?year=2024&limit=500", pkgjwt.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Entries []dto.JournalEntryResponse `json:"entries"`
		Page    dto.PageResponse           `json:"page"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, dto.MaxPageLimit, body.Page.Limit)
	assert.Empty(t, body.Entries)
}

// ──────────────────────────────────────────────────────────────────────────────
// Calendario
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_ReaperturaSoloAdmin(t *testing.T) {
	app := buildRouterApp(t)

	resp := call(t, app, http.MethodPost, "/api/exercises/2024/periods/1/close", pkgjwt.RoleAccountant, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ex dto.FiscalExerciseResponse
	decodeBody(t, resp, &ex)
	require.Len(t, ex.Periods, 12)
	assert.True(t, ex.Periods[0].IsClosed)
	assert.Equal(t, testUserID, ex.Periods[0].ClosedBy)

	reopen := dto.ReopenRequest{Reason: "ajuste de amortizaciones"}
	resp = call(t, app, http.MethodPost, "/api/exercises/2024/periods/1/reopen", pkgjwt.RoleAccountant, reopen)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "el contable no puede reabrir")

	resp = call(t, app, http.MethodPost, "/api/exercises/2024/periods/1/reopen", pkgjwt.RoleAdmin, reopen)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &ex)
	assert.False(t, ex.Periods[0].IsClosed)
}

func TestRouter_PeriodoCerradoRechazaAsiento(t *testing.T) {
	app := buildRouterApp(t)

	for _, month := range []string{"1", "2", "3", "4", "5"} {
		resp := call(t, app, http.MethodPost, "/api/exercises/2024/periods/"+month+"/close", pkgjwt.RoleAdmin, nil)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := call(t, app, http.MethodPost, "/api/entries", pkgjwt.RoleAdmin, manualEntry("572000", "700000", "10", "10"))
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body dto.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "PERIOD_CLOSED", body.Code)
	assert.EqualValues(t, 5, body.Details["month"])
}

func TestRouter_CierreFueraDeOrden_Retorna409(t *testing.T) {
	app := buildRouterApp(t)

	resp := call(t, app, http.MethodPost, "/api/exercises/2024/periods/3/close", pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var body dto.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "PRIOR_PERIOD_OPEN", body.Code)
	assert.EqualValues(t, 1, body.Details["open_period"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Plan de cuentas, documentos y consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_ListadoPorPrefijo(t *testing.T) {
	app := buildRouterApp(t)

	resp := call(t, app, http.MethodGet, "/api/accounts?prefix=57", pkgjwt.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var accounts []dto.AccountResponse
	decodeBody(t, resp, &accounts)
	codes := make([]string, len(accounts))
	for i, a := range accounts {
		codes[i] = a.Code
	}
	assert.Equal(t, []string{"57", "570", "570000", "572", "572000"}, codes)
}

func TestRouter_PlanOmiteCuentasDeBajaPorDefecto(t *testing.T) {
	app := buildRouterApp(t)

	create := dto.CreateAccountRequest{Code: "430777", Name: "Cliente dado de baja", Type: string(entity.AccountTypeAsset), ParentCode: "430"}
	resp := call(t, app, http.MethodPost, "/api/accounts", pkgjwt.RoleAccountant, create)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/accounts/430777/deactivate", pkgjwt.RoleAccountant, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	codesOf := func(path string) map[string]bool {
		resp := call(t, app, http.MethodGet, path, pkgjwt.RoleAuditor, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var accounts []dto.AccountResponse
		decodeBody(t, resp, &accounts)
		out := make(map[string]bool, len(accounts))
		for _, a := range accounts {
			out[a.Code] = a.Active
		}
		return out
	}

	tree := codesOf("/api/accounts")
	assert.NotContains(t, tree, "430777", "sin parámetros solo se listan cuentas activas")
	assert.Contains(t, tree, "430")

	assert.NotContains(t, codesOf("/api/accounts?prefix=430"), "430777")

	all := codesOf("/api/accounts?active_only=false")
	require.Contains(t, all, "430777", "active_only=false incluye las cuentas de baja")
	assert.False(t, all["430777"])
}

func TestRouter_SubcuentaDeCliente(t *testing.T) {
	app := buildRouterApp(t)

	req := dto.ProvisionSubaccountRequest{CounterpartyID: "1", Type: string(entity.CounterpartyCustomer)}
	resp := call(t, app, http.MethodPost, "/api/subaccounts", pkgjwt.RoleAccountant, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.ProvisionSubaccountResponse
	decodeBody(t, resp, &out)
	assert.Equal(t, "430001", out.AccountCode)
}

func TestRouter_VentaYBalance(t *testing.T) {
	app := buildRouterApp(t)

	sale := map[string]any{
		"id":              "fac-1",
		"number":          "A-001",
		"date":            "2024-03-12",
		"counterparty_id": "1",
		"net":             "100",
		"vat":             []map[string]any{{"rate": "21", "base": "100"}},
	}
	resp := call(t, app, http.MethodPost, "/api/documents/sale", pkgjwt.RoleAccountant, sale)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var entry dto.JournalEntryResponse
	decodeBody(t, resp, &entry)
	assert.True(t, entry.TotalDebit.Equal(decimal.NewFromInt(121)))

	resp = call(t, app, http.MethodGet, "/api/trial-balance?level=1", pkgjwt.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rows []entity.TrialBalanceRow
	decodeBody(t, resp, &rows)
	debit, credit := decimal.Zero, decimal.Zero
	for _, r := range rows {
		debit = debit.Add(r.TotalDebit)
		credit = credit.Add(r.TotalCredit)
	}
	assert.True(t, debit.Equal(credit), "el balance cuadra")
	assert.True(t, debit.Equal(decimal.NewFromInt(121)))

	resp = call(t, app, http.MethodGet, "/api/ledger?account_from=430001&account_to=430001", pkgjwt.RoleAuditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ledgers []entity.AccountLedger
	decodeBody(t, resp, &ledgers)
	require.Len(t, ledgers, 1)
	assert.True(t, ledgers[0].ClosingBalance.Equal(decimal.NewFromInt(121)))

	resp = call(t, app, http.MethodGet, "/api/trial-balance?level=4", pkgjwt.RoleAuditor, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "nivel inexistente")
}
