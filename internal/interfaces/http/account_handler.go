package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/contabilidad-core/internal/application/chart"
	"github.com/jhoicas/contabilidad-core/internal/application/dto"
	"github.com/jhoicas/contabilidad-core/internal/application/subledger"
	"github.com/jhoicas/contabilidad-core/internal/domain/accounting"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

// AccountHandler plan de cuentas y subcuentas de terceros.
type AccountHandler struct {
	chart       *chart.ChartUseCase
	provisioner *subledger.ProvisionerUseCase
	codes       accounting.CodeStructure
	log         *logger.Logger
}

// NewAccountHandler construye el handler.
func NewAccountHandler(chartUC *chart.ChartUseCase, provisioner *subledger.ProvisionerUseCase, codes accounting.CodeStructure, log *logger.Logger) *AccountHandler {
	return &AccountHandler{chart: chartUC, provisioner: provisioner, codes: codes, log: log}
}

func (h *AccountHandler) toResponse(a *entity.Account) dto.AccountResponse {
	parent, _ := h.codes.ParentOf(a.Code)
	return dto.AccountResponse{
		Code:              a.Code,
		Name:              a.Name,
		Type:              string(a.Type),
		Level:             a.Level(),
		ParentCode:        parent,
		IsLeaf:            a.IsLeaf,
		IsSystemProtected: a.IsSystemProtected,
		NaturalSide:       string(a.NaturalSide),
		Active:            a.Active,
	}
}

// List GET /api/accounts?prefix=43&active_only=false (por defecto solo cuentas activas)
func (h *AccountHandler) List(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active_only", true)
	var (
		list []*entity.Account
		err  error
	)
	if prefix := c.Query("prefix"); prefix != "" {
		list, err = h.chart.ListByPrefix(c.UserContext(), prefix, activeOnly)
	} else {
		list, err = h.chart.Tree(c.UserContext(), activeOnly)
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.AccountResponse, len(list))
	for i, a := range list {
		out[i] = h.toResponse(a)
	}
	return c.JSON(out)
}

// Create POST /api/accounts
func (h *AccountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAccountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	acc, err := h.chart.CreateAccount(c.UserContext(), chart.CreateAccountInput{
		Code:            in.Code,
		Name:            in.Name,
		Type:            entity.AccountType(in.Type),
		ParentCode:      in.ParentCode,
		IsLeaf:          in.IsLeaf,
		NaturalSide:     entity.NaturalSide(in.NaturalSide),
		SystemProtected: in.SystemProtected,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h.toResponse(acc))
}

// Get GET /api/accounts/:code
func (h *AccountHandler) Get(c *fiber.Ctx) error {
	acc, err := h.chart.Resolve(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(h.toResponse(acc))
}

// MarkLeaf POST /api/accounts/:code/leaf
func (h *AccountHandler) MarkLeaf(c *fiber.Ctx) error {
	acc, err := h.chart.MarkAsLeaf(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(h.toResponse(acc))
}

// MarkAggregator POST /api/accounts/:code/aggregator
func (h *AccountHandler) MarkAggregator(c *fiber.Ctx) error {
	acc, err := h.chart.MarkAsAggregator(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(h.toResponse(acc))
}

// Deactivate POST /api/accounts/:code/deactivate
func (h *AccountHandler) Deactivate(c *fiber.Ctx) error {
	if err := h.chart.Deactivate(c.UserContext(), c.Params("code")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Provision POST /api/subaccounts
func (h *AccountHandler) Provision(c *fiber.Ctx) error {
	var in dto.ProvisionSubaccountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	code, err := h.provisioner.Provision(c.UserContext(), in.CounterpartyID, entity.CounterpartyType(in.Type))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ProvisionSubaccountResponse{
		CounterpartyID: in.CounterpartyID,
		Type:           in.Type,
		AccountCode:    code,
	})
}
