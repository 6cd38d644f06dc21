package accounting

import (
	"fmt"
	"strings"
)

// CodeStructure niveles del plan expresados como longitudes acumuladas de código.
// Con [1 2 3 6]: grupo "4", subgrupo "43", cuenta "430", subcuenta "430001".
type CodeStructure struct {
	levels []int
}

// NewCodeStructure valida que las longitudes sean positivas y estrictamente crecientes.
func NewCodeStructure(levels ...int) (CodeStructure, error) {
	if len(levels) == 0 {
		return CodeStructure{}, fmt.Errorf("estructura de códigos vacía")
	}
	prev := 0
	for _, l := range levels {
		if l <= prev {
			return CodeStructure{}, fmt.Errorf("niveles de código no crecientes: %v", levels)
		}
		prev = l
	}
	cp := make([]int, len(levels))
	copy(cp, levels)
	return CodeStructure{levels: cp}, nil
}

// MustCodeStructure como NewCodeStructure pero con panic; solo para constantes.
func MustCodeStructure(levels ...int) CodeStructure {
	s, err := NewCodeStructure(levels...)
	if err != nil {
		panic(err)
	}
	return s
}

// Levels devuelve una copia de las longitudes por nivel.
func (s CodeStructure) Levels() []int {
	cp := make([]int, len(s.levels))
	copy(cp, s.levels)
	return cp
}

// LeafLength longitud del último nivel (subcuentas).
func (s CodeStructure) LeafLength() int {
	if len(s.levels) == 0 {
		return 0
	}
	return s.levels[len(s.levels)-1]
}

// levelIndex posición del nivel con esa longitud o -1.
func (s CodeStructure) levelIndex(length int) int {
	for i, l := range s.levels {
		if l == length {
			return i
		}
	}
	return -1
}

// IsLevelLength indica si length es la longitud de algún nivel.
func (s CodeStructure) IsLevelLength(length int) bool {
	return s.levelIndex(length) >= 0
}

// IsRoot indica si el código pertenece al primer nivel.
func (s CodeStructure) IsRoot(code string) bool {
	return s.levelIndex(len(code)) == 0
}

// IsLastLevel indica si el código pertenece al último nivel.
func (s CodeStructure) IsLastLevel(code string) bool {
	return len(s.levels) > 0 && len(code) == s.LeafLength()
}

// Validate comprueba que el código sea numérico y tenga la longitud de un nivel.
func (s CodeStructure) Validate(code string) error {
	if code == "" || !IsDigits(code) {
		return fmt.Errorf("el código debe contener solo dígitos")
	}
	if s.levelIndex(len(code)) < 0 {
		return fmt.Errorf("longitud %d no corresponde a ningún nivel %v", len(code), s.levels)
	}
	return nil
}

// ParentOf devuelve el código padre (truncado al nivel anterior). ok=false en la raíz
// o si el código no tiene longitud de nivel.
func (s CodeStructure) ParentOf(code string) (parent string, ok bool) {
	i := s.levelIndex(len(code))
	if i <= 0 {
		return "", false
	}
	return code[:s.levels[i-1]], true
}

// Ancestors códigos de todos los ascendientes, del más cercano a la raíz.
func (s CodeStructure) Ancestors(code string) []string {
	var out []string
	for p, ok := s.ParentOf(code); ok; p, ok = s.ParentOf(p) {
		out = append(out, p)
	}
	return out
}

// RollupCode trunca el código al nivel de longitud level (si es más largo).
func (s CodeStructure) RollupCode(code string, level int) string {
	if level <= 0 || len(code) <= level {
		return code
	}
	return code[:level]
}

// InRange indica si code está en [from, to] comparando por prefijo: "4" a "4"
// incluye toda la rama del grupo 4. Extremos vacíos = sin límite.
func InRange(code, from, to string) bool {
	if from != "" && code < from && !strings.HasPrefix(from, code) {
		return false
	}
	if to != "" && code > to && !strings.HasPrefix(code, to) {
		return false
	}
	return true
}

// IsDigits indica si s contiene solo dígitos ASCII.
func IsDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
