// Package chartfile lee y escribe planes de cuentas en YAML e importa listados CSV
// exportados por otros programas de contabilidad.
package chartfile

import (
	"bytes"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/contabilidad-core/internal/application/chart"
	"github.com/jhoicas/contabilidad-core/internal/domain/entity"
)

//go:embed defaults/pgc.yaml
var defaults embed.FS

// File plan de cuentas serializado.
type File struct {
	Levels   []int   `yaml:"levels,flow,omitempty"`
	Accounts []Entry `yaml:"accounts"`
}

// Entry cuenta del fichero. Leaf ausente: se decide por el nivel.
type Entry struct {
	Code      string `yaml:"code"`
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Leaf      *bool  `yaml:"leaf,omitempty"`
	Side      string `yaml:"side,omitempty"`
	Protected bool   `yaml:"protected,omitempty"`
}

// Decode lee un plan en YAML.
func Decode(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("plan yaml: %w", err)
	}
	return &f, nil
}

// Encode escribe el plan en YAML.
func Encode(w io.Writer, f *File) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("plan yaml: %w", err)
	}
	return enc.Close()
}

// Load lee un plan desde disco.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Decode(fh)
}

// Default plan base embebido (extracto del PGC con niveles 1,2,3,6).
func Default() (*File, error) {
	data, err := defaults.ReadFile("defaults/pgc.yaml")
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(data))
}

// Seeds convierte el fichero a las semillas de chart.SeedChart.
func (f *File) Seeds() ([]chart.ChartSeed, error) {
	seeds := make([]chart.ChartSeed, 0, len(f.Accounts))
	for i, e := range f.Accounts {
		t := entity.AccountType(strings.TrimSpace(e.Type))
		if !t.Valid() {
			return nil, fmt.Errorf("cuenta %d (%s): tipo %q no válido", i+1, e.Code, e.Type)
		}
		side := entity.NaturalSide(strings.TrimSpace(e.Side))
		if side != "" && !side.Valid() {
			return nil, fmt.Errorf("cuenta %d (%s): naturaleza %q no válida", i+1, e.Code, e.Side)
		}
		seeds = append(seeds, chart.ChartSeed{
			Code:            strings.TrimSpace(e.Code),
			Name:            strings.TrimSpace(e.Name),
			Type:            t,
			IsLeaf:          e.Leaf,
			NaturalSide:     side,
			SystemProtected: e.Protected,
		})
	}
	return seeds, nil
}

// FromAccounts fichero con el plan actual, para exportarlo.
func FromAccounts(levels []int, accounts []*entity.Account) *File {
	f := &File{Levels: levels, Accounts: make([]Entry, 0, len(accounts))}
	for _, a := range accounts {
		leaf := a.IsLeaf
		f.Accounts = append(f.Accounts, Entry{
			Code:      a.Code,
			Name:      a.Name,
			Type:      string(a.Type),
			Leaf:      &leaf,
			Side:      string(a.NaturalSide),
			Protected: a.IsSystemProtected,
		})
	}
	return f
}

// ImportOptions formato del CSV de origen.
type ImportOptions struct {
	Latin1    bool // ISO-8859-1 en lugar de UTF-8
	Separator rune // ';' por defecto
	HasHeader bool
}

// ImportCSV lee un listado "código;nombre;tipo[;hoja]" y lo convierte en fichero de plan.
// Las filas en blanco se ignoran.
func ImportCSV(r io.Reader, opts ImportOptions) (*File, error) {
	if opts.Latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	if opts.Separator != 0 {
		cr.Comma = opts.Separator
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	f := &File{}
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		line++
		if line == 1 && opts.HasHeader {
			continue
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("csv línea %d: se esperan al menos código, nombre y tipo", line)
		}
		e := Entry{
			Code: strings.TrimSpace(rec[0]),
			Name: strings.TrimSpace(rec[1]),
			Type: strings.TrimSpace(rec[2]),
		}
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			leaf, err := strconv.ParseBool(strings.TrimSpace(rec[3]))
			if err != nil {
				return nil, fmt.Errorf("csv línea %d: hoja %q no es booleano", line, rec[3])
			}
			e.Leaf = &leaf
		}
		f.Accounts = append(f.Accounts, e)
	}
	return f, nil
}
