package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/contabilidad-core/internal/application/dto"
	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

// errorMapping estado HTTP y código estable de cada error de dominio.
// El orden importa: los errores específicos antes que los genéricos.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrUnbalanced, fiber.StatusUnprocessableEntity, "UNBALANCED"},
	{domain.ErrInvalidLine, fiber.StatusUnprocessableEntity, "INVALID_LINE"},
	{domain.ErrPeriodClosed, fiber.StatusUnprocessableEntity, "PERIOD_CLOSED"},
	{domain.ErrUnknownAccount, fiber.StatusUnprocessableEntity, "UNKNOWN_ACCOUNT"},
	{domain.ErrPostingToAggregator, fiber.StatusUnprocessableEntity, "POSTING_TO_AGGREGATOR"},
	{domain.ErrAccountInactive, fiber.StatusUnprocessableEntity, "ACCOUNT_INACTIVE"},
	{domain.ErrMissingDefaultAccount, fiber.StatusUnprocessableEntity, "MISSING_DEFAULT_ACCOUNT"},
	{domain.ErrMissingSubledger, fiber.StatusUnprocessableEntity, "MISSING_SUBLEDGER"},
	{domain.ErrInvalidHierarchy, fiber.StatusUnprocessableEntity, "INVALID_HIERARCHY"},
	{domain.ErrInvalidDocument, fiber.StatusBadRequest, "INVALID_DOCUMENT"},
	{domain.ErrDuplicateAccountCode, fiber.StatusConflict, "DUPLICATE_ACCOUNT_CODE"},
	{domain.ErrHasPostings, fiber.StatusConflict, "HAS_POSTINGS"},
	{domain.ErrSystemProtected, fiber.StatusConflict, "SYSTEM_PROTECTED"},
	{domain.ErrPrefixExhausted, fiber.StatusConflict, "PREFIX_EXHAUSTED"},
	{domain.ErrPriorPeriodOpen, fiber.StatusConflict, "PRIOR_PERIOD_OPEN"},
	{domain.ErrPeriodAlreadyClosed, fiber.StatusConflict, "PERIOD_ALREADY_CLOSED"},
	{domain.ErrPeriodNotClosed, fiber.StatusConflict, "PERIOD_NOT_CLOSED"},
	{domain.ErrPeriodsStillOpen, fiber.StatusConflict, "PERIODS_STILL_OPEN"},
	{domain.ErrExerciseClosed, fiber.StatusConflict, "EXERCISE_CLOSED"},
	{domain.ErrExerciseNotClosed, fiber.StatusConflict, "EXERCISE_NOT_CLOSED"},
	{domain.ErrExerciseNotFound, fiber.StatusNotFound, "EXERCISE_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
}

// errorResponse traduce un error a estado HTTP y cuerpo con los datos para corregir.
func errorResponse(err error) (int, dto.ErrorResponse) {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			status, code = m.status, m.code
			break
		}
	}
	return status, dto.ErrorResponse{Code: code, Message: err.Error(), Details: errorDetails(err)}
}

func errorDetails(err error) map[string]any {
	var (
		unbalanced *domain.UnbalancedError
		account    *domain.AccountError
		hierarchy  *domain.HierarchyError
		prior      *domain.PriorPeriodOpenError
		stillOpen  *domain.PeriodsStillOpenError
		period     *domain.PeriodError
		missing    *domain.MissingDefaultAccountError
		exhausted  *domain.PrefixExhaustedError
		line       *domain.LineError
		document   *domain.DocumentError
	)
	switch {
	case errors.As(err, &unbalanced):
		return map[string]any{
			"debit":      unbalanced.Debit.StringFixed(2),
			"credit":     unbalanced.Credit.StringFixed(2),
			"difference": unbalanced.Difference().StringFixed(2),
		}
	case errors.As(err, &account):
		d := map[string]any{"account": account.Code}
		if account.LineNo > 0 {
			d["line"] = account.LineNo
		}
		return d
	case errors.As(err, &hierarchy):
		return map[string]any{"account": hierarchy.Code, "reason": hierarchy.Reason}
	case errors.As(err, &prior):
		return map[string]any{"year": prior.Year, "month": prior.Month, "open_period": prior.OpenFrom}
	case errors.As(err, &stillOpen):
		return map[string]any{"year": stillOpen.Year, "open_periods": stillOpen.Open}
	case errors.As(err, &period):
		d := map[string]any{"year": period.Year}
		if period.Month > 0 {
			d["month"] = period.Month
		}
		return d
	case errors.As(err, &missing):
		return map[string]any{"role": missing.Role}
	case errors.As(err, &exhausted):
		return map[string]any{"prefix": exhausted.Prefix, "suffix_width": exhausted.Width}
	case errors.As(err, &line):
		return map[string]any{"line": line.LineNo, "reason": line.Reason}
	case errors.As(err, &document):
		return map[string]any{"field": document.Field, "reason": document.Reason}
	}
	return nil
}

// writeError responde con el error traducido. Los 500 se registran.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, body := errorResponse(err)
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error interno")
		body.Message = "error interno"
	}
	return c.Status(status).JSON(body)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func badParam(c *fiber.Ctx, name string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetro inválido: " + name})
}
