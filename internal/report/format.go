package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats integers with English thousand separators.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// FormatNumber formats an integer with thousand separators.
// Example: FormatNumber(18248) returns "18,248".
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatFloat rounds f half away from zero to precision decimals and adds
// thousand separators. Example: FormatFloat(1234.567, 2) returns "1,234.57".
func FormatFloat(f float64, precision int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Sprintf("%v", f)
	}
	precision = max(0, min(precision, MaxPrecision))

	d := decimal.NewFromFloat(f).Round(int32(precision))
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(int32(precision))
	intPart := FormatNumber(d.IntPart())
	if precision == 0 {
		return sign + intPart
	}
	_, frac, _ := strings.Cut(fixed, ".")
	return sign + intPart + "." + frac
}

// FormatLarge formats large values with abbreviated notation.
// Example: FormatLarge(1500000000) returns "~1.5 billion".
func FormatLarge(n float64) string {
	if n >= BillionThreshold {
		return fmt.Sprintf("~%.1f billion", n/BillionThreshold)
	}
	if n >= LargeNumberThreshold {
		return fmt.Sprintf("~%.1f million", n/LargeNumberThreshold)
	}
	return FormatNumber(int64(math.Round(n)))
}

// FormatAmount formats v in unit with precision decimals, e.g. "1.2346 kg CO2e".
func FormatAmount(v float64, unit Unit, precision int) string {
	return FormatFloat(v, precision) + " " + unit.Label()
}

// FormatInterval formats the closed range [lo, hi].
func FormatInterval(lo, hi float64, precision int) string {
	return "[" + FormatFloat(lo, precision) + ", " + FormatFloat(hi, precision) + "]"
}
