package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio genéricos.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del núcleo contable. Todos son recuperables: el llamador corrige y reenvía.
var (
	ErrUnbalanced            = errors.New("asiento descuadrado")
	ErrPeriodClosed          = errors.New("periodo contable cerrado")
	ErrUnknownAccount        = errors.New("cuenta inexistente")
	ErrPostingToAggregator   = errors.New("no se admiten apuntes en cuentas de agrupación")
	ErrAccountInactive       = errors.New("cuenta dada de baja")
	ErrDuplicateAccountCode  = errors.New("código de cuenta duplicado")
	ErrInvalidHierarchy      = errors.New("jerarquía de cuentas inválida")
	ErrHasPostings           = errors.New("la cuenta tiene apuntes")
	ErrSystemProtected       = errors.New("cuenta protegida por el sistema")
	ErrMissingDefaultAccount = errors.New("cuenta por defecto no configurada")
	ErrPrefixExhausted       = errors.New("prefijo de subcuentas agotado")
	ErrMissingSubledger      = errors.New("tipo de tercero sin prefijo de subcuentas")
	ErrPriorPeriodOpen       = errors.New("hay un periodo anterior abierto")
	ErrPeriodAlreadyClosed   = errors.New("el periodo ya está cerrado")
	ErrPeriodNotClosed       = errors.New("el periodo no está cerrado")
	ErrPeriodsStillOpen      = errors.New("el ejercicio tiene periodos abiertos")
	ErrExerciseClosed        = errors.New("ejercicio cerrado")
	ErrExerciseNotClosed     = errors.New("el ejercicio no está cerrado")
	ErrExerciseNotFound      = errors.New("ejercicio inexistente")
	ErrInvalidLine           = errors.New("línea de asiento inválida")
	ErrInvalidDocument       = errors.New("documento inválido")
)

// UnbalancedError detalla el descuadre de un asiento.
type UnbalancedError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Difference devuelve debe - haber.
func (e *UnbalancedError) Difference() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("%s: debe %s, haber %s, diferencia %s",
		ErrUnbalanced, e.Debit.StringFixed(2), e.Credit.StringFixed(2), e.Difference().StringFixed(2))
}

func (e *UnbalancedError) Unwrap() error { return ErrUnbalanced }

// AccountError asocia un error de cuenta (inexistente, de agrupación, baja...) con su código.
type AccountError struct {
	Code   string
	LineNo int // 0 si no aplica a una línea concreta
	Err    error
}

func (e *AccountError) Error() string {
	if e.LineNo > 0 {
		return fmt.Sprintf("%s: %s (línea %d)", e.Err, e.Code, e.LineNo)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Code)
}

func (e *AccountError) Unwrap() error { return e.Err }

// HierarchyError detalla por qué un código no encaja en el plan.
type HierarchyError struct {
	Code   string
	Reason string
}

func (e *HierarchyError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidHierarchy, e.Code, e.Reason)
}

func (e *HierarchyError) Unwrap() error { return ErrInvalidHierarchy }

// PeriodError asocia un error de calendario con ejercicio y periodo (Month 0 = ejercicio completo).
type PeriodError struct {
	Year  int
	Month int
	Err   error
}

func (e *PeriodError) Error() string {
	if e.Month == 0 {
		return fmt.Sprintf("%s: ejercicio %d", e.Err, e.Year)
	}
	return fmt.Sprintf("%s: %d/%02d", e.Err, e.Year, e.Month)
}

func (e *PeriodError) Unwrap() error { return e.Err }

// PriorPeriodOpenError indica qué periodo anterior impide el cierre.
type PriorPeriodOpenError struct {
	Year     int
	Month    int
	OpenFrom int
}

func (e *PriorPeriodOpenError) Error() string {
	return fmt.Sprintf("%s: no se puede cerrar %d/%02d con %d/%02d abierto",
		ErrPriorPeriodOpen, e.Year, e.Month, e.Year, e.OpenFrom)
}

func (e *PriorPeriodOpenError) Unwrap() error { return ErrPriorPeriodOpen }

// PeriodsStillOpenError lista los periodos abiertos de un ejercicio.
type PeriodsStillOpenError struct {
	Year int
	Open []int
}

func (e *PeriodsStillOpenError) Error() string {
	parts := make([]string, len(e.Open))
	for i, m := range e.Open {
		parts[i] = fmt.Sprintf("%02d", m)
	}
	return fmt.Sprintf("%s: ejercicio %d, periodos %s", ErrPeriodsStillOpen, e.Year, strings.Join(parts, ","))
}

func (e *PeriodsStillOpenError) Unwrap() error { return ErrPeriodsStillOpen }

// MissingDefaultAccountError indica el rol contable sin cuenta asignada.
type MissingDefaultAccountError struct {
	Role string
}

func (e *MissingDefaultAccountError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingDefaultAccount, e.Role)
}

func (e *MissingDefaultAccountError) Unwrap() error { return ErrMissingDefaultAccount }

// PrefixExhaustedError indica que el sufijo configurado no admite más terceros.
type PrefixExhaustedError struct {
	Prefix string
	Width  int
}

func (e *PrefixExhaustedError) Error() string {
	return fmt.Sprintf("%s: prefijo %s con sufijo de %d dígitos", ErrPrefixExhausted, e.Prefix, e.Width)
}

func (e *PrefixExhaustedError) Unwrap() error { return ErrPrefixExhausted }

// LineError detalla una línea mal formada.
type LineError struct {
	LineNo int
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s: línea %d: %s", ErrInvalidLine, e.LineNo, e.Reason)
}

func (e *LineError) Unwrap() error { return ErrInvalidLine }

// DocumentError detalla un documento que no se puede contabilizar.
type DocumentError struct {
	Field  string
	Reason string
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidDocument, e.Field, e.Reason)
}

func (e *DocumentError) Unwrap() error { return ErrInvalidDocument }
