package entity

import "time"

// PeriodsPerExercise número de periodos (meses) de un ejercicio.
const PeriodsPerExercise = 12

// FiscalPeriod periodo mensual de un ejercicio.
type FiscalPeriod struct {
	Number   int // 1..12
	IsClosed bool
	ClosedAt *time.Time
	ClosedBy string
}

// FiscalExercise ejercicio contable (año natural) con sus 12 periodos.
type FiscalExercise struct {
	Year        int
	IsClosed    bool
	ClosingDate *time.Time
	Periods     [PeriodsPerExercise]FiscalPeriod
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewFiscalExercise crea un ejercicio con todos los periodos abiertos.
func NewFiscalExercise(year int, now time.Time) *FiscalExercise {
	ex := &FiscalExercise{Year: year, CreatedAt: now, UpdatedAt: now}
	for i := range ex.Periods {
		ex.Periods[i].Number = i + 1
	}
	return ex
}

// Period devuelve el periodo del mes indicado (1..12) o nil si está fuera de rango.
func (e *FiscalExercise) Period(month int) *FiscalPeriod {
	if month < 1 || month > PeriodsPerExercise {
		return nil
	}
	return &e.Periods[month-1]
}

// OpenPeriods números de periodo abiertos, en orden.
func (e *FiscalExercise) OpenPeriods() []int {
	var open []int
	for _, p := range e.Periods {
		if !p.IsClosed {
			open = append(open, p.Number)
		}
	}
	return open
}

// AllowsPosting indica si se puede contabilizar en el mes dado.
// Un ejercicio cerrado bloquea todos sus periodos.
func (e *FiscalExercise) AllowsPosting(month int) bool {
	if e.IsClosed {
		return false
	}
	p := e.Period(month)
	return p != nil && !p.IsClosed
}

// Clone copia profunda (los punteros de fecha se comparten, son inmutables).
func (e *FiscalExercise) Clone() *FiscalExercise {
	c := *e
	return &c
}

// Acciones registradas en la auditoría de calendario.
const (
	AuditReopenPeriod   = "reopen_period"
	AuditReopenExercise = "reopen_exercise"
)

// PeriodAuditRecord registro de una reapertura (siempre atribuible y fechada).
type PeriodAuditRecord struct {
	ID       string
	Exercise int
	Period   int // 0 = ejercicio completo
	Action   string
	UserID   string
	Reason   string
	At       time.Time
}
