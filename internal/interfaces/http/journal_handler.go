package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/contabilidad-core/internal/application/autopost"
	"github.com/jhoicas/contabilidad-core/internal/application/dto"
	"github.com/jhoicas/contabilidad-core/internal/application/posting"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

// JournalHandler asientos manuales, anulaciones, consultas del diario y documentos.
type JournalHandler struct {
	engine *posting.PostingEngine
	rules  *autopost.RulesUseCase
	log    *logger.Logger
}

// NewJournalHandler construye el handler.
func NewJournalHandler(engine *posting.PostingEngine, rules *autopost.RulesUseCase, log *logger.Logger) *JournalHandler {
	return &JournalHandler{engine: engine, rules: rules, log: log}
}

// PostManual POST /api/entries
func (h *JournalHandler) PostManual(c *fiber.Ctx) error {
	var in dto.ManualEntryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	entry, err := h.engine.PostManualEntryFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(posting.ToEntryResponse(entry))
}

// Reverse POST /api/entries/:year/:number/reverse
func (h *JournalHandler) Reverse(c *fiber.Ctx) error {
	year, number, ok := entryRef(c)
	if !ok {
		return badParam(c, "year/number")
	}
	var in dto.ReverseEntryRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	entry, err := h.engine.ReverseFromRequest(c.UserContext(), GetUserID(c), year, number, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(posting.ToEntryResponse(entry))
}

// Get GET /api/entries/:year/:number
func (h *JournalHandler) Get(c *fiber.Ctx) error {
	year, number, ok := entryRef(c)
	if !ok {
		return badParam(c, "year/number")
	}
	entry, err := h.engine.Get(c.UserContext(), year, number)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(posting.ToEntryResponse(entry))
}

// List GET /api/entries?year=2024&limit=50&offset=0
func (h *JournalHandler) List(c *fiber.Ctx) error {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		return badParam(c, "year")
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 50), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()
	entries, err := h.engine.List(c.UserContext(), year, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.JournalEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = posting.ToEntryResponse(e)
	}
	return c.JSON(fiber.Map{
		"entries": out,
		"page":    dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// PostDocument POST /api/documents/:type (sale | purchase | payment)
func (h *JournalHandler) PostDocument(c *fiber.Ctx) error {
	entry, err := h.rules.PostFromDocument(c.UserContext(), c.Params("type"), c.Body(), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(posting.ToEntryResponse(entry))
}

func entryRef(c *fiber.Ctx) (int, int64, bool) {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		return 0, 0, false
	}
	number, err := strconv.ParseInt(c.Params("number"), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return year, number, true
}
