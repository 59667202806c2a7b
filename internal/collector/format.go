package collector

import (
	"fmt"
	"strconv"
)

var byteUnits = []struct {
	divider float64
	name    string
}{
	{1 << 50, "PB"},
	{1 << 40, "TB"},
	{1 << 30, "GB"},
	{1 << 20, "MB"},
	{1 << 10, "kB"},
}

// FormatBytes renders n in the largest binary unit it exceeds, truncated to
// an integer.
func FormatBytes(n int64) string {
	for _, unit := range byteUnits {
		if q := float64(n) / unit.divider; q > 1 {
			return fmt.Sprintf("%d %s", int64(q), unit.name)
		}
	}
	return fmt.Sprintf("%d B", n)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
