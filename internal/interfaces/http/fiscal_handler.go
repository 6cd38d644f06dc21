package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/contabilidad-core/internal/application/dto"
	"github.com/jhoicas/contabilidad-core/internal/application/fiscal"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

// FiscalHandler calendario contable: ejercicios, cierres y reaperturas.
type FiscalHandler struct {
	calendar *fiscal.CalendarUseCase
	log      *logger.Logger
}

// NewFiscalHandler construye el handler.
func NewFiscalHandler(calendar *fiscal.CalendarUseCase, log *logger.Logger) *FiscalHandler {
	return &FiscalHandler{calendar: calendar, log: log}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toExerciseResponse(ex *entity.FiscalExercise) dto.FiscalExerciseResponse {
	out := dto.FiscalExerciseResponse{
		Year:        ex.Year,
		IsClosed:    ex.IsClosed,
		ClosingDate: formatTime(ex.ClosingDate),
		Periods:     make([]dto.FiscalPeriodResponse, 0, len(ex.Periods)),
	}
	for _, p := range ex.Periods {
		out.Periods = append(out.Periods, dto.FiscalPeriodResponse{
			Number:   p.Number,
			IsClosed: p.IsClosed,
			ClosedAt: formatTime(p.ClosedAt),
			ClosedBy: p.ClosedBy,
		})
	}
	return out
}

func yearMonth(c *fiber.Ctx) (int, int, bool) {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		return 0, 0, false
	}
	month := 0
	if m := c.Params("month"); m != "" {
		if month, err = strconv.Atoi(m); err != nil {
			return 0, 0, false
		}
	}
	return year, month, true
}

// List GET /api/exercises
func (h *FiscalHandler) List(c *fiber.Ctx) error {
	list, err := h.calendar.ListExercises(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.FiscalExerciseResponse, len(list))
	for i, ex := range list {
		out[i] = toExerciseResponse(ex)
	}
	return c.JSON(out)
}

// Get GET /api/exercises/:year
func (h *FiscalHandler) Get(c *fiber.Ctx) error {
	year, _, ok := yearMonth(c)
	if !ok {
		return badParam(c, "year")
	}
	ex, err := h.calendar.GetExercise(c.UserContext(), year)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toExerciseResponse(ex))
}

// ClosePeriod POST /api/exercises/:year/periods/:month/close
func (h *FiscalHandler) ClosePeriod(c *fiber.Ctx) error {
	year, month, ok := yearMonth(c)
	if !ok {
		return badParam(c, "year/month")
	}
	if err := h.calendar.ClosePeriod(c.UserContext(), year, month, GetUserID(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return h.Get(c)
}

// ReopenPeriod POST /api/exercises/:year/periods/:month/reopen
func (h *FiscalHandler) ReopenPeriod(c *fiber.Ctx) error {
	year, month, ok := yearMonth(c)
	if !ok {
		return badParam(c, "year/month")
	}
	var in dto.ReopenRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.calendar.ReopenPeriod(c.UserContext(), year, month, GetUserID(c), in.Reason); err != nil {
		return writeError(c, h.log, err)
	}
	return h.Get(c)
}

// CloseExercise POST /api/exercises/:year/close
func (h *FiscalHandler) CloseExercise(c *fiber.Ctx) error {
	year, _, ok := yearMonth(c)
	if !ok {
		return badParam(c, "year")
	}
	if err := h.calendar.CloseExercise(c.UserContext(), year, GetUserID(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return h.Get(c)
}

// ReopenExercise POST /api/exercises/:year/reopen
func (h *FiscalHandler) ReopenExercise(c *fiber.Ctx) error {
	year, _, ok := yearMonth(c)
	if !ok {
		return badParam(c, "year")
	}
	var in dto.ReopenRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.calendar.ReopenExercise(c.UserContext(), year, GetUserID(c), in.Reason); err != nil {
		return writeError(c, h.log, err)
	}
	return h.Get(c)
}

// Audit GET /api/exercises/:year/audit
func (h *FiscalHandler) Audit(c *fiber.Ctx) error {
	year, _, ok := yearMonth(c)
	if !ok {
		return badParam(c, "year")
	}
	records, err := h.calendar.AuditTrail(c.UserContext(), year)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.AuditRecordResponse, len(records))
	for i, r := range records {
		out[i] = dto.AuditRecordResponse{
			ID:       r.ID,
			Exercise: r.Exercise,
			Period:   r.Period,
			Action:   r.Action,
			UserID:   r.UserID,
			Reason:   r.Reason,
			At:       r.At.UTC().Format(time.RFC3339),
		}
	}
	return c.JSON(out)
}
