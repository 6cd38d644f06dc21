package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jhoicas/contabilidad-core/pkg/config"
	"github.com/jhoicas/contabilidad-core/pkg/jwt"
)

func parseYearMonth(args []string) (int, int, error) {
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("año %q no válido", args[0])
	}
	if len(args) < 2 {
		return year, 0, nil
	}
	month, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("mes %q no válido", args[1])
	}
	return year, month, nil
}

var periodCmd = &cobra.Command{
	Use:   "periodo",
	Short: "Cierre y reapertura de periodos mensuales",
}

var periodCloseCmd = &cobra.Command{
	Use:   "cerrar [año] [mes]",
	Short: "Cierra un periodo",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, month, err := parseYearMonth(args)
		if err != nil {
			return err
		}
		svc, _, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Storage.Close()

		if err := svc.Calendar.ClosePeriod(cmd.Context(), year, month, flagUser); err != nil {
			return err
		}
		fmt.Printf("Periodo %02d/%d cerrado\n", month, year)
		return nil
	},
}

var reopenReason string

var periodReopenCmd = &cobra.Command{
	Use:   "reabrir [año] [mes]",
	Short: "Reabre un periodo cerrado (queda registrado en auditoría)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, month, err := parseYearMonth(args)
		if err != nil {
			return err
		}
		svc, _, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Storage.Close()

		if err := svc.Calendar.ReopenPeriod(cmd.Context(), year, month, flagUser, reopenReason); err != nil {
			return err
		}
		fmt.Printf("Periodo %02d/%d reabierto\n", month, year)
		return nil
	},
}

var exerciseCmd = &cobra.Command{
	Use:   "ejercicio",
	Short: "Apertura, cierre y estado de ejercicios",
}

var exerciseOpenCmd = &cobra.Command{
	Use:   "abrir [año]",
	Short: "Crea el ejercicio con sus 12 periodos abiertos",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _, err := parseYearMonth(args)
		if err != nil {
			return err
		}
		svc, _, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Storage.Close()

		if _, err := svc.Calendar.OpenExercise(cmd.Context(), year); err != nil {
			return err
		}
		fmt.Printf("Ejercicio %d abierto\n", year)
		return nil
	},
}

var exerciseCloseCmd = &cobra.Command{
	Use:   "cerrar [año]",
	Short: "Cierra el ejercicio (todos sus periodos deben estar cerrados)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _, err := parseYearMonth(args)
		if err != nil {
			return err
		}
		svc, _, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Storage.Close()

		if err := svc.Calendar.CloseExercise(cmd.Context(), year, flagUser); err != nil {
			return err
		}
		fmt.Printf("Ejercicio %d cerrado\n", year)
		return nil
	},
}

var exerciseStatusCmd = &cobra.Command{
	Use:   "estado [año]",
	Short: "Muestra el estado de los periodos",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _, err := parseYearMonth(args)
		if err != nil {
			return err
		}
		svc, _, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Storage.Close()

		ex, err := svc.Calendar.GetExercise(cmd.Context(), year)
		if err != nil {
			return err
		}
		state := "abierto"
		if ex.IsClosed {
			state = "cerrado"
		}
		fmt.Printf("Ejercicio %d: %s\n", ex.Year, state)
		fmt.Printf("%-8s %-8s %s\n", "PERIODO", "ESTADO", "CERRADO POR")
		for _, p := range ex.Periods {
			st := "abierto"
			if p.IsClosed {
				st = "cerrado"
			}
			fmt.Printf("%-8d %-8s %s\n", p.Number, st, p.ClosedBy)
		}
		return nil
	},
}

// token
var tokenRole string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Emite un token JWT para la API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		switch tokenRole {
		case jwt.RoleAdmin, jwt.RoleAccountant, jwt.RoleAuditor:
		default:
			return fmt.Errorf("rol %q no válido (%s | %s | %s)", tokenRole, jwt.RoleAdmin, jwt.RoleAccountant, jwt.RoleAuditor)
		}
		tok, err := jwt.Generate(cfg.JWT.Secret, flagUser, tokenRole, cfg.JWT.Issuer, cfg.JWT.Expiration)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	periodReopenCmd.Flags().StringVar(&reopenReason, "motivo", "", "Motivo de la reapertura")
	_ = periodReopenCmd.MarkFlagRequired("motivo")
	periodCmd.AddCommand(periodCloseCmd, periodReopenCmd)

	exerciseCmd.AddCommand(exerciseOpenCmd, exerciseCloseCmd, exerciseStatusCmd)

	tokenCmd.Flags().StringVar(&tokenRole, "rol", jwt.RoleAccountant, "Rol del token (admin | contable | auditor)")
}
