// ledgerctl tareas de administración del núcleo contable: migraciones, carga e
// importación del plan de cuentas, cierres y reaperturas, y emisión de tokens.
//
// Uso: go run ./cmd/ledgerctl <comando> [flags]
// Lee la misma configuración que la API (variables de entorno, .env o config.*).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/contabilidad-core/internal/bootstrap"
	"github.com/jhoicas/contabilidad-core/pkg/config"
	"github.com/jhoicas/contabilidad-core/pkg/logger"
)

var flagUser string

var rootCmd = &cobra.Command{
	Use:           "ledgerctl",
	Short:         "Administración del núcleo contable",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagUser, "usuario", "ledgerctl", "Usuario que firma cierres y reaperturas")
	rootCmd.AddCommand(migrateCmd, chartCmd, periodCmd, exerciseCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// services abre el almacén configurado y construye los casos de uso.
// El llamador debe cerrar el almacén con svc.Storage.Close().
func services(ctx context.Context) (*bootstrap.Services, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
	storage, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	svc, err := bootstrap.NewServices(cfg.Ledger, storage, log)
	if err != nil {
		storage.Close()
		return nil, nil, err
	}
	return svc, cfg, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrar",
	Short: "Aplica las migraciones pendientes del esquema",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cfg, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Storage.Close()
		fmt.Printf("Esquema al día (almacén %s)\n", cfg.Ledger.Store)
		return nil
	},
}
