package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/contabilidad-core/internal/domain"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
	"github.com/jhoicas/contabilidad-core/internal/infrastructure/memory"
)

var errAbort = errors.New("abort")

func leaf(code string) *entity.Account {
	return &entity.Account{Code: code, Name: code, Type: entity.AccountTypeAsset, IsLeaf: true, NaturalSide: entity.SideDebtor, Active: true}
}

func entry(exercise int, number int64, date time.Time) *entity.JournalEntry {
	return &entity.JournalEntry{
		ID: "e", Exercise: exercise, Number: number, Date: date,
		Lines: []entity.JournalLine{
			{LineNo: 1, AccountCode: "572000", Debit: decimal.NewFromInt(10), Credit: decimal.Zero},
			{LineNo: 2, AccountCode: "700000", Debit: decimal.Zero, Credit: decimal.NewFromInt(10)},
		},
	}
}

func TestRunPosting_RollbackNoDejaRastro(t *testing.T) {
	store := memory.NewStore()
	runner := memory.NewTxRunner(store)
	ctx := context.Background()

	err := runner.RunPosting(ctx, 2024, 2024, func(_ repository.AccountRepository, fiscalRepo repository.FiscalRepository, journalRepo repository.JournalRepository) error {
		n, err := journalRepo.NextNumber(ctx, 2024)
		require.NoError(t, err)
		require.NoError(t, journalRepo.Create(ctx, entry(2024, n, time.Now())))
		require.NoError(t, fiscalRepo.SaveExercise(ctx, entity.NewFiscalExercise(2024, time.Now())))

		got, err := journalRepo.GetByNumber(ctx, 2024, n)
		require.NoError(t, err)
		assert.NotNil(t, got, "la tx ve sus propias escrituras")
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	journal := memory.NewJournalRepository(store)
	got, err := journal.GetByNumber(ctx, 2024, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
	has, err := journal.HasPostings(ctx, "572000")
	require.NoError(t, err)
	assert.False(t, has)

	ex, err := memory.NewFiscalRepository(store).GetExercise(ctx, 2024)
	require.NoError(t, err)
	assert.Nil(t, ex)

	// El contador tampoco avanzó.
	err = runner.RunPosting(ctx, 2024, 2024, func(_ repository.AccountRepository, _ repository.FiscalRepository, journalRepo repository.JournalRepository) error {
		n, err := journalRepo.NextNumber(ctx, 2024)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return nil
	})
	require.NoError(t, err)
}

func TestAccountRepo_DuplicadoYCopias(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewAccountRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, leaf("572000")))
	err := repo.Create(ctx, leaf("572000"))
	require.ErrorIs(t, err, domain.ErrDuplicateAccountCode)

	got, err := repo.GetByCode(ctx, "572000")
	require.NoError(t, err)
	got.Name = "modificada"
	again, err := repo.GetByCode(ctx, "572000")
	require.NoError(t, err)
	assert.Equal(t, "572000", again.Name, "las lecturas devuelven copias")

	missing, err := repo.GetByCode(ctx, "999999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Update(ctx, leaf("999999"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepo_PrefijosEHijos(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewAccountRepository(store)
	ctx := context.Background()

	for _, code := range []string{"430", "430001", "430002", "431000"} {
		require.NoError(t, repo.Create(ctx, leaf(code)))
	}
	n, err := repo.CountByPrefix(ctx, "430", 6)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	has, err := repo.HasChildren(ctx, "430")
	require.NoError(t, err)
	assert.True(t, has)
	has, err = repo.HasChildren(ctx, "430001")
	require.NoError(t, err)
	assert.False(t, has)

	many, err := repo.GetMany(ctx, []string{"430001", "nope"})
	require.NoError(t, err)
	assert.Len(t, many, 1)
}

func TestLedgerReader_SaldosInicialesYRango(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	accounts := memory.NewAccountRepository(store)
	require.NoError(t, accounts.Create(ctx, leaf("572000")))
	require.NoError(t, accounts.Create(ctx, leaf("700000")))

	journal := memory.NewJournalRepository(store)
	require.NoError(t, journal.Create(ctx, entry(2024, 1, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, journal.Create(ctx, entry(2024, 2, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))))
	require.NoError(t, journal.Create(ctx, entry(2024, 3, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))))

	snap, err := memory.NewLedgerReader(store).Snapshot(ctx, repository.LedgerFilter{
		AccountFrom: "572000",
		AccountTo:   "572000",
		DateFrom:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		DateTo:      time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, snap.Accounts, 1)
	assert.True(t, snap.Openings["572000"].Debit.Equal(decimal.NewFromInt(10)), "enero va al saldo inicial")
	require.Len(t, snap.Movements, 1, "la fecha final es inclusiva y marzo queda fuera")
	assert.Equal(t, int64(2), snap.Movements[0].Number)
}

func TestRun_ContextoCancelado(t *testing.T) {
	runner := memory.NewTxRunner(memory.NewStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := runner.RunCalendar(ctx, 2024, func(repository.FiscalRepository, repository.AuditRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
