package fiscal_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/contabilidad-core/internal/bootstrap"
	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/pkg/config"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

func newServices(t *testing.T, mutate func(*config.LedgerConfig)) *bootstrap.Services {
	t.Helper()
	cfg := config.DefaultLedgerConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := bootstrap.NewServices(cfg, bootstrap.NewMemoryStorage(), logger.Nop())
	require.NoError(t, err)
	return svc
}

func closeUpTo(t *testing.T, svc *bootstrap.Services, year, month int) {
	t.Helper()
	for m := 1; m <= month; m++ {
		require.NoError(t, svc.Calendar.ClosePeriod(context.Background(), year, m, "u1"), "cerrar %d/%d", m, year)
	}
}

func closeMonths(t *testing.T, svc *bootstrap.Services, year int, months ...int) {
	t.Helper()
	for _, m := range months {
		require.NoError(t, svc.Calendar.ClosePeriod(context.Background(), year, m, "u1"))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Cierre de periodos
// ──────────────────────────────────────────────────────────────────────────────

func TestClosePeriod_CreaElEjercicio(t *testing.T) {
	svc := newServices(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.Calendar.ClosePeriod(ctx, 2024, 1, "u1"))

	ex, err := svc.Calendar.GetExercise(ctx, 2024)
	require.NoError(t, err)
	assert.True(t, ex.Period(1).IsClosed)
	assert.Equal(t, "u1", ex.Period(1).ClosedBy)
	require.NotNil(t, ex.Period(1).ClosedAt)
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, ex.OpenPeriods())
}

func TestClosePeriod_OrdenEstricto(t *testing.T) {
	svc := newServices(t, nil)

	err := svc.Calendar.ClosePeriod(context.Background(), 2024, 3, "u1")
	require.ErrorIs(t, err, domain.ErrPriorPeriodOpen)

	var pe *domain.PriorPeriodOpenError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, pe.OpenFrom, "el primer periodo abierto es enero")
}

func TestClosePeriod_SinOrdenEstricto(t *testing.T) {
	svc := newServices(t, func(c *config.LedgerConfig) { c.StrictPeriodOrder = false })

	require.NoError(t, svc.Calendar.ClosePeriod(context.Background(), 2024, 3, "u1"))
}

func TestClosePeriod_YaCerrado(t *testing.T) {
	svc := newServices(t, nil)
	closeUpTo(t, svc, 2024, 1)

	err := svc.Calendar.ClosePeriod(context.Background(), 2024, 1, "u1")
	require.ErrorIs(t, err, domain.ErrPeriodAlreadyClosed)
}

func TestClosePeriod_MesFueraDeRango(t *testing.T) {
	svc := newServices(t, nil)

	assert.ErrorIs(t, svc.Calendar.ClosePeriod(context.Background(), 2024, 0, "u1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Calendar.ClosePeriod(context.Background(), 2024, 13, "u1"), domain.ErrInvalidInput)
}

func TestClosePeriod_SinAutoCreacion(t *testing.T) {
	svc := newServices(t, func(c *config.LedgerConfig) { c.AutoCreateExercises = false })
	ctx := context.Background()

	err := svc.Calendar.ClosePeriod(ctx, 2024, 1, "u1")
	require.ErrorIs(t, err, domain.ErrExerciseNotFound)

	_, err = svc.Calendar.OpenExercise(ctx, 2024)
	require.NoError(t, err)
	require.NoError(t, svc.Calendar.ClosePeriod(ctx, 2024, 1, "u1"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Cierre de ejercicio
// ──────────────────────────────────────────────────────────────────────────────

func TestCloseExercise_ExigePeriodosCerrados(t *testing.T) {
	svc := newServices(t, nil)
	ctx := context.Background()
	closeUpTo(t, svc, 2024, 10)

	err := svc.Calendar.CloseExercise(ctx, 2024, "u1")
	require.ErrorIs(t, err, domain.ErrPeriodsStillOpen)
	var pe *domain.PeriodsStillOpenError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []int{11, 12}, pe.Open)

	closeMonths(t, svc, 2024, 11, 12)
	require.NoError(t, svc.Calendar.CloseExercise(ctx, 2024, "u1"))

	ex, err := svc.Calendar.GetExercise(ctx, 2024)
	require.NoError(t, err)
	assert.True(t, ex.IsClosed)
	require.NotNil(t, ex.ClosingDate)

	err = svc.Calendar.ClosePeriod(ctx, 2024, 12, "u1")
	assert.ErrorIs(t, err, domain.ErrExerciseClosed)
}

func TestCloseExercise_Inexistente(t *testing.T) {
	svc := newServices(t, nil)

	err := svc.Calendar.CloseExercise(context.Background(), 2030, "u1")
	require.ErrorIs(t, err, domain.ErrExerciseNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reaperturas y auditoría
// ──────────────────────────────────────────────────────────────────────────────

func TestReopenPeriod_DejaAuditoria(t *testing.T) {
	svc := newServices(t, nil)
	ctx := context.Background()
	closeUpTo(t, svc, 2024, 2)

	require.NoError(t, svc.Calendar.ReopenPeriod(ctx, 2024, 2, "admin-1", "ajuste de amortización"))

	ex, err := svc.Calendar.GetExercise(ctx, 2024)
	require.NoError(t, err)
	assert.False(t, ex.Period(2).IsClosed)
	assert.Empty(t, ex.Period(2).ClosedBy)
	assert.True(t, ex.Period(1).IsClosed, "los demás periodos no cambian")

	trail, err := svc.Calendar.AuditTrail(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, entity.AuditReopenPeriod, trail[0].Action)
	assert.Equal(t, 2, trail[0].Period)
	assert.Equal(t, "admin-1", trail[0].UserID)
	assert.Equal(t, "ajuste de amortización", trail[0].Reason)
	assert.False(t, trail[0].At.IsZero())
}

func TestReopenPeriod_SinUsuario(t *testing.T) {
	svc := newServices(t, nil)
	closeUpTo(t, svc, 2024, 1)

	err := svc.Calendar.ReopenPeriod(context.Background(), 2024, 1, " ", "x")
	require.ErrorIs(t, err, domain.ErrUnauthorized, "una reapertura siempre es atribuible")
}

func TestReopenPeriod_PeriodoAbierto(t *testing.T) {
	svc := newServices(t, nil)
	closeUpTo(t, svc, 2024, 1)

	err := svc.Calendar.ReopenPeriod(context.Background(), 2024, 5, "admin-1", "x")
	require.ErrorIs(t, err, domain.ErrPeriodNotClosed)
}

func TestReopenExercise(t *testing.T) {
	svc := newServices(t, nil)
	ctx := context.Background()
	closeUpTo(t, svc, 2024, 12)

	err := svc.Calendar.ReopenExercise(ctx, 2024, "admin-1", "x")
	require.ErrorIs(t, err, domain.ErrExerciseNotClosed)

	require.NoError(t, svc.Calendar.CloseExercise(ctx, 2024, "u1"))
	require.NoError(t, svc.Calendar.ReopenExercise(ctx, 2024, "admin-1", "auditoría externa"))

	ex, err := svc.Calendar.GetExercise(ctx, 2024)
	require.NoError(t, err)
	assert.False(t, ex.IsClosed)
	assert.Empty(t, ex.OpenPeriods(), "los periodos siguen cerrados")

	trail, err := svc.Calendar.AuditTrail(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, entity.AuditReopenExercise, trail[0].Action)
	assert.Equal(t, 0, trail[0].Period)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestIsPostingAllowed(t *testing.T) {
	svc := newServices(t, nil)
	ctx := context.Background()
	closeUpTo(t, svc, 2024, 3)

	ok, err := svc.Calendar.IsPostingAllowed(ctx, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok, "marzo está cerrado")

	ok, err = svc.Calendar.IsPostingAllowed(ctx, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Calendar.IsPostingAllowed(ctx, time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok, "un ejercicio sin crear se abre en el primer uso")
}

func TestGetExercise_Inexistente(t *testing.T) {
	svc := newServices(t, nil)

	_, err := svc.Calendar.GetExercise(context.Background(), 1999)
	require.ErrorIs(t, err, domain.ErrExerciseNotFound)
	var pe *domain.PeriodError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 1999, pe.Year)
}

func TestListExercises_Ordenados(t *testing.T) {
	svc := newServices(t, nil)
	ctx := context.Background()

	for _, y := range []int{2025, 2023, 2024} {
		_, err := svc.Calendar.OpenExercise(ctx, y)
		require.NoError(t, err)
	}
	list, err := svc.Calendar.ListExercises(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 2023, list[0].Year)
	assert.Equal(t, 2025, list[2].Year)
}

func TestClosePeriod_Concurrente(t *testing.T) {
	svc := newServices(t, nil)
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		closed int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Calendar.ClosePeriod(ctx, 2024, 1, "u1"); err == nil {
				mu.Lock()
				closed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, closed, "solo un cierre gana")
}
