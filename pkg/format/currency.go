// Package format renders money and energy quantities for display.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/jj82931/Cost-of-Living-saver/pkg/constants"
)

// Currency returns a dollar amount with thousands separators (e.g. "-$1,234.56").
func Currency(amount float64) string {
	if amount < 0 {
		return "-$" + grouped(math.Abs(amount))
	}
	return "$" + grouped(amount)
}

// PerDay renders a daily charge, e.g. "$1.10/day".
func PerDay(amount float64) string {
	return Currency(amount) + "/day"
}

// CentsPerKWh renders a dollar-per-kWh rate in cents, the way bills print
// them (0.28 becomes "28.00 c/kWh").
func CentsPerKWh(rate float64) string {
	return fmt.Sprintf("%.2f c/kWh", rate*constants.CentsPerDollar)
}

// OptionalCentsPerKWh renders rate or "-" when absent.
func OptionalCentsPerKWh(rate *float64) string {
	if rate == nil {
		return "-"
	}
	return CentsPerKWh(*rate)
}

// KWh renders an energy quantity with up to two decimals.
func KWh(v float64) string {
	s := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	return s + " kWh"
}

// Percent renders a 0..1 ratio as a whole percentage.
func Percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}

func grouped(value float64) string {
	whole, frac, _ := strings.Cut(fmt.Sprintf("%.2f", value), ".")
	if len(whole) <= 3 {
		return whole + "." + frac
	}

	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}
	return b.String() + "." + frac
}
