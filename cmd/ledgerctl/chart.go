package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/contabilidad-core/internal/bootstrap"
	"github.com/jhoicas/contabilidad-core/internal/infrastructure/chartfile"
)

var chartCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan de cuentas",
}

// plan importar
var (
	importLatin1 bool
	importSep    string
	importHeader bool
	importLevels []int
	importOut    string
)

var chartImportCmd = &cobra.Command{
	Use:   "importar [fichero.csv]",
	Short: "Convierte un listado CSV (código;nombre;tipo[;hoja]) a YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		opts := chartfile.ImportOptions{Latin1: importLatin1, HasHeader: importHeader}
		if importSep != "" {
			opts.Separator = []rune(importSep)[0]
		}
		f, err := chartfile.ImportCSV(in, opts)
		if err != nil {
			return err
		}
		f.Levels = importLevels

		var out io.Writer = os.Stdout
		if importOut != "" {
			fh, err := os.Create(importOut)
			if err != nil {
				return err
			}
			defer fh.Close()
			out = fh
		}
		if err := chartfile.Encode(out, f); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d cuentas importadas\n", len(f.Accounts))
		return nil
	},
}

var chartLoadCmd = &cobra.Command{
	Use:   "cargar [fichero.yaml | default]",
	Short: "Carga un plan de cuentas (las cuentas existentes se respetan)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "default"
		if len(args) == 1 {
			path = args[0]
		}
		svc, _, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Storage.Close()

		created, err := bootstrap.LoadChart(cmd.Context(), svc.Chart, svc.Settings.Codes, path)
		if err != nil {
			return err
		}
		fmt.Printf("Plan cargado: %d cuentas nuevas\n", created)
		return nil
	},
}

var exportOut string

var chartExportCmd = &cobra.Command{
	Use:   "exportar",
	Short: "Escribe el plan actual en YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := services(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Storage.Close()

		accounts, err := svc.Chart.Tree(cmd.Context(), false)
		if err != nil {
			return err
		}
		var out io.Writer = os.Stdout
		if exportOut != "" {
			fh, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			defer fh.Close()
			out = fh
		}
		return chartfile.Encode(out, chartfile.FromAccounts(svc.Settings.Codes.Levels(), accounts))
	},
}

func init() {
	chartImportCmd.Flags().BoolVar(&importLatin1, "latin1", false, "El CSV está en ISO-8859-1")
	chartImportCmd.Flags().StringVar(&importSep, "sep", ";", "Separador de campos")
	chartImportCmd.Flags().BoolVar(&importHeader, "cabecera", false, "La primera fila es cabecera")
	chartImportCmd.Flags().IntSliceVar(&importLevels, "niveles", nil, "Niveles de código del plan (ej. 1,2,3,6)")
	chartImportCmd.Flags().StringVarP(&importOut, "salida", "o", "", "Fichero YAML de salida (por defecto stdout)")

	chartExportCmd.Flags().StringVarP(&exportOut, "salida", "o", "", "Fichero YAML de salida (por defecto stdout)")

	chartCmd.AddCommand(chartImportCmd, chartLoadCmd, chartExportCmd)
}
