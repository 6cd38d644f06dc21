package accounting

// Settings configuración inmutable del motor contable. Se construye una vez al
// arrancar y se pasa por valor a los casos de uso.
type Settings struct {
	Codes CodeStructure
	// AllowUnbalanced permite asientos descuadrados. Desaconsejado; se registra cada uso.
	AllowUnbalanced bool
	// ResetNumberingAnnually reinicia la numeración en cada ejercicio; si es false la numeración es global.
	ResetNumberingAnnually bool
	// StrictPeriodOrder obliga a cerrar los periodos en orden de calendario.
	StrictPeriodOrder bool
	// AutoCreateExercises crea el ejercicio en el primer uso; si es false debe abrirse explícitamente.
	AutoCreateExercises bool
}

// DefaultSettings valores por defecto: niveles 1,2,3,6, numeración anual, cierre en orden.
func DefaultSettings() Settings {
	return Settings{
		Codes:                  MustCodeStructure(1, 2, 3, 6),
		ResetNumberingAnnually: true,
		StrictPeriodOrder:      true,
		AutoCreateExercises:    true,
	}
}

// SequenceScope clave del contador de numeración para un ejercicio: el propio año
// si la numeración es anual, 0 (global) en otro caso.
func (s Settings) SequenceScope(year int) int {
	if s.ResetNumberingAnnually {
		return year
	}
	return 0
}
