package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/contabilidad-core/internal/application/dto"
	"github.com/jhoicas/contabilidad-core/internal/application/ledger"
	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

// LedgerHandler Libro Mayor y balance de sumas y saldos (solo lectura).
type LedgerHandler struct {
	uc  *ledger.LedgerUseCase
	log *logger.Logger
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(uc *ledger.LedgerUseCase, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{uc: uc, log: log}
}

// Ledger GET /api/ledger?account_from=430&account_to=430999&date_from=2024-01-01&date_to=2024-12-31
func (h *LedgerHandler) Ledger(c *fiber.Ctx) error {
	out, err := h.uc.QueryFromRequest(c.UserContext(),
		c.Query("account_from"), c.Query("account_to"),
		c.Query("date_from"), c.Query("date_to"),
	)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// TrialBalance GET /api/trial-balance?date_from=&date_to=&level=3
func (h *LedgerHandler) TrialBalance(c *fiber.Ctx) error {
	from, err := dto.ParseDate(c.Query("date_from"))
	if err != nil {
		return writeError(c, h.log, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error()))
	}
	to, err := dto.ParseDate(c.Query("date_to"))
	if err != nil {
		return writeError(c, h.log, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error()))
	}
	rows, err := h.uc.TrialBalance(c.UserContext(), from, to, c.QueryInt("level", 0))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(rows)
}
