package accounting

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// maxSuffixWidth dígitos máximos representables en uint64 sin desbordar 10^width.
const maxSuffixWidth = 18

// SuffixCapacity número de sufijos utilizables (1 .. 10^width-1). El sufijo 0 se reserva.
func SuffixCapacity(width int) uint64 {
	if width <= 0 || width > maxSuffixWidth {
		return 0
	}
	c := uint64(1)
	for i := 0; i < width; i++ {
		c *= 10
	}
	return c - 1
}

// BaseSuffix sufijo derivado del identificador del tercero. Un identificador numérico
// que cabe en el ancho se usa tal cual; cualquier otro se reduce con FNV-1a.
// Devuelve 0 si la capacidad es nula.
func BaseSuffix(counterpartyID string, width int) uint64 {
	capacity := SuffixCapacity(width)
	if capacity == 0 {
		return 0
	}
	id := strings.TrimSpace(counterpartyID)
	if IsDigits(id) {
		if n, err := strconv.ParseUint(id, 10, 64); err == nil && n >= 1 && n <= capacity {
			return n
		}
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()%capacity + 1
}

// NextSuffix siguiente sufijo en sondeo lineal, con vuelta a 1.
func NextSuffix(suffix uint64, width int) uint64 {
	suffix++
	if suffix > SuffixCapacity(width) {
		return 1
	}
	return suffix
}

// SubaccountCode compone prefijo + sufijo rellenado con ceros hasta width dígitos.
func SubaccountCode(prefix string, width int, suffix uint64) string {
	return prefix + fmt.Sprintf("%0*d", width, suffix)
}
