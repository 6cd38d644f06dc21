package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/contabilidad-core/internal/application/autopost"
	"github.com/jhoicas/contabilidad-core/internal/application/chart"
	"github.com/jhoicas/contabilidad-core/internal/application/fiscal"
	"github.com/jhoicas/contabilidad-core/internal/application/ledger"
	"github.com/jhoicas/contabilidad-core/internal/application/posting"
	"github.com/jhoicas/contabilidad-core/internal/application/subledger"
	"github.com/jhoicas/contabilidad-core/internal/domain/accounting"
	"github.com/jhoicas/contabilidad-core/pkg/jwt"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Chart       *chart.ChartUseCase
	Calendar    *fiscal.CalendarUseCase
	Provisioner *subledger.ProvisionerUseCase
	Engine      *posting.PostingEngine
	Rules       *autopost.RulesUseCase
	Ledger      *ledger.LedgerUseCase
	Codes       accounting.CodeStructure
	JWTSecret   string
	Log         *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token:
// lectura para cualquier rol, escritura para admin y contable,
// reaperturas solo admin.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	read := RequireRole(jwt.RoleAdmin, jwt.RoleAccountant, jwt.RoleAuditor)
	write := RequireRole(jwt.RoleAdmin, jwt.RoleAccountant)
	admin := RequireRole(jwt.RoleAdmin)

	// Plan de cuentas
	accountHandler := NewAccountHandler(deps.Chart, deps.Provisioner, deps.Codes, log)
	accounts := api.Group("/accounts")
	accounts.Get("/", read, accountHandler.List)
	accounts.Get("/:code", read, accountHandler.Get)
	accounts.Post("/", write, accountHandler.Create)
	accounts.Post("/:code/leaf", write, accountHandler.MarkLeaf)
	accounts.Post("/:code/aggregator", write, accountHandler.MarkAggregator)
	accounts.Post("/:code/deactivate", write, accountHandler.Deactivate)
	api.Post("/subaccounts", write, accountHandler.Provision)

	// Calendario
	fiscalHandler := NewFiscalHandler(deps.Calendar, log)
	exercises := api.Group("/exercises")
	exercises.Get("/", read, fiscalHandler.List)
	exercises.Get("/:year", read, fiscalHandler.Get)
	exercises.Get("/:year/audit", read, fiscalHandler.Audit)
	exercises.Post("/:year/close", write, fiscalHandler.CloseExercise)
	exercises.Post("/:year/reopen", admin, fiscalHandler.ReopenExercise)
	exercises.Post("/:year/periods/:month/close", write, fiscalHandler.ClosePeriod)
	exercises.Post("/:year/periods/:month/reopen", admin, fiscalHandler.ReopenPeriod)

	// Diario
	journalHandler := NewJournalHandler(deps.Engine, deps.Rules, log)
	entries := api.Group("/entries")
	entries.Get("/", read, journalHandler.List)
	entries.Get("/:year/:number", read, journalHandler.Get)
	entries.Post("/", write, journalHandler.PostManual)
	entries.Post("/:year/:number/reverse", write, journalHandler.Reverse)
	api.Post("/documents/:type", write, journalHandler.PostDocument)

	// Mayor y balance
	ledgerHandler := NewLedgerHandler(deps.Ledger, log)
	api.Get("/ledger", read, ledgerHandler.Ledger)
	api.Get("/trial-balance", read, ledgerHandler.TrialBalance)
}
