// Package bootstrap construye los casos de uso contables a partir de la configuración.
// Lo comparten la API y la herramienta de línea de comandos.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/contabilidad-core/internal/application/autopost"
	"github.com/jhoicas/contabilidad-core/internal/application/chart"
	"github.com/jhoicas/contabilidad-core/internal/application/fiscal"
	"github.com/jhoicas/contabilidad-core/internal/application/ledger"
	"github.com/jhoicas/contabilidad-core/internal/application/posting"
	"github.com/jhoicas/contabilidad-core/internal/application/subledger"
	"github.com/jhoicas/contabilidad-core/internal/domain/accounting"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
	"github.com/jhoicas/contabilidad-core/internal/domain/repository"
	"github.com/jhoicas/contabilidad-core/internal/infrastructure/chartfile"
	"github.com/jhoicas/contabilidad-core/internal/infrastructure/memory"
	"github.com/jhoicas/contabilidad-core/internal/infrastructure/postgres"
	"github.com/jhoicas/contabilidad-core/pkg/config"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

// TxRunner secciones críticas de todos los casos de uso. Lo implementan
// *postgres.TxRunner y *memory.TxRunner.
type TxRunner interface {
	chart.TxRunner
	fiscal.TxRunner
	subledger.TxRunner
	posting.TxRunner
}

// Storage repositorios y lector del almacén elegido.
type Storage struct {
	TxRunner     TxRunner
	Accounts     repository.AccountRepository
	Fiscal       repository.FiscalRepository
	Audit        repository.AuditRepository
	Journal      repository.JournalRepository
	Subledger    repository.SubledgerRepository
	LedgerReader repository.LedgerReader
	close        func()
}

// Close libera las conexiones del almacén (no-op en memoria).
func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// Services casos de uso listos para servir.
type Services struct {
	Settings    accounting.Settings
	Chart       *chart.ChartUseCase
	Calendar    *fiscal.CalendarUseCase
	Provisioner *subledger.ProvisionerUseCase
	Engine      *posting.PostingEngine
	Rules       *autopost.RulesUseCase
	Ledger      *ledger.LedgerUseCase
	Storage     *Storage
}

// Settings traduce la configuración del núcleo contable.
func Settings(cfg config.LedgerConfig) (accounting.Settings, error) {
	codes, err := accounting.NewCodeStructure(cfg.CodeLevels...)
	if err != nil {
		return accounting.Settings{}, fmt.Errorf("LEDGER_CODE_LEVELS: %w", err)
	}
	return accounting.Settings{
		Codes:                  codes,
		AllowUnbalanced:        cfg.AllowUnbalanced,
		ResetNumberingAnnually: cfg.ResetNumberingAnnually,
		StrictPeriodOrder:      cfg.StrictPeriodOrder,
		AutoCreateExercises:    cfg.AutoCreateExercises,
	}, nil
}

// Mappings prefijos de subcuentas de clientes y proveedores.
func Mappings(cfg config.LedgerConfig, codes accounting.CodeStructure) []entity.SubledgerMapping {
	leaf := codes.LeafLength()
	return []entity.SubledgerMapping{
		{Type: entity.CounterpartyCustomer, Prefix: cfg.CustomerPrefix, Length: leaf},
		{Type: entity.CounterpartySupplier, Prefix: cfg.SupplierPrefix, Length: leaf},
	}
}

// DefaultAccounts cuentas por defecto de las reglas automáticas.
func DefaultAccounts(cfg config.LedgerConfig) autopost.DefaultAccounts {
	return autopost.DefaultAccounts{
		Sales:     cfg.Accounts.Sales,
		Purchases: cfg.Accounts.Purchases,
		VATOutput: cfg.Accounts.VATOutput,
		VATInput:  cfg.Accounts.VATInput,
		Bank:      cfg.Accounts.Bank,
		Cash:      cfg.Accounts.Cash,
	}
}

// NewMemoryStorage almacén en memoria (desarrollo y pruebas).
func NewMemoryStorage() *Storage {
	store := memory.NewStore()
	return &Storage{
		TxRunner:     memory.NewTxRunner(store),
		Accounts:     memory.NewAccountRepository(store),
		Fiscal:       memory.NewFiscalRepository(store),
		Audit:        memory.NewAuditRepository(store),
		Journal:      memory.NewJournalRepository(store),
		Subledger:    memory.NewSubledgerRepository(store),
		LedgerReader: memory.NewLedgerReader(store),
	}
}

// NewPostgresStorage almacén PostgreSQL sobre un pool ya abierto.
func NewPostgresStorage(pool *pgxpool.Pool) *Storage {
	return &Storage{
		TxRunner:     postgres.NewTxRunner(pool),
		Accounts:     postgres.NewAccountRepository(pool),
		Fiscal:       postgres.NewFiscalRepository(pool),
		Audit:        postgres.NewAuditRepository(pool),
		Journal:      postgres.NewJournalRepository(pool),
		Subledger:    postgres.NewSubledgerRepository(pool),
		LedgerReader: postgres.NewLedgerReader(pool),
		close:        pool.Close,
	}
}

// OpenStorage abre el almacén configurado. En PostgreSQL aplica las migraciones pendientes.
func OpenStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Storage, error) {
	if cfg.Ledger.Store == "memory" {
		log.Warn().Msg("almacén en memoria: los datos se pierden al parar")
		return NewMemoryStorage(), nil
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	version, err := postgres.Migrate(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migraciones: %w", err)
	}
	log.Info().Int("schema_version", version).Msg("esquema al día")
	return NewPostgresStorage(pool), nil
}

// NewServices construye los casos de uso sobre un almacén.
func NewServices(cfg config.LedgerConfig, storage *Storage, log *logger.Logger) (*Services, error) {
	settings, err := Settings(cfg)
	if err != nil {
		return nil, err
	}
	mappings := Mappings(cfg, settings.Codes)
	if err := subledger.ValidateMappings(mappings, settings.Codes); err != nil {
		return nil, err
	}

	chartUC := chart.NewChartUseCase(storage.TxRunner, storage.Accounts, settings, log)
	calendarUC := fiscal.NewCalendarUseCase(storage.TxRunner, storage.Fiscal, storage.Audit, settings, log)
	provisioner := subledger.NewProvisionerUseCase(storage.TxRunner, storage.Subledger, mappings, log)
	engine := posting.NewPostingEngine(storage.TxRunner, storage.Journal, calendarUC, settings, log)
	rules := autopost.NewRulesUseCase(DefaultAccounts(cfg), provisioner, engine, log)

	return &Services{
		Settings:    settings,
		Chart:       chartUC,
		Calendar:    calendarUC,
		Provisioner: provisioner,
		Engine:      engine,
		Rules:       rules,
		Ledger:      ledger.NewLedgerUseCase(storage.LedgerReader, settings),
		Storage:     storage,
	}, nil
}

// LoadChart lee el plan de path ("default" = plan embebido) y lo carga. Idempotente.
func LoadChart(ctx context.Context, chartUC *chart.ChartUseCase, codes accounting.CodeStructure, path string) (int, error) {
	var (
		f   *chartfile.File
		err error
	)
	if path == "default" {
		f, err = chartfile.Default()
	} else {
		f, err = chartfile.Load(path)
	}
	if err != nil {
		return 0, fmt.Errorf("plan %s: %w", path, err)
	}
	if err := checkLevels(f.Levels, codes.Levels()); err != nil {
		return 0, fmt.Errorf("plan %s: %w", path, err)
	}
	seeds, err := f.Seeds()
	if err != nil {
		return 0, fmt.Errorf("plan %s: %w", path, err)
	}
	return chartUC.SeedChart(ctx, seeds)
}

func checkLevels(file, configured []int) error {
	if len(file) == 0 {
		return nil
	}
	if len(file) != len(configured) {
		return fmt.Errorf("niveles del fichero %v distintos de los configurados %v", file, configured)
	}
	for i := range file {
		if file[i] != configured[i] {
			return fmt.Errorf("niveles del fichero %v distintos de los configurados %v", file, configured)
		}
	}
	return nil
}
