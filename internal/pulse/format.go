package pulse

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var grouping = message.NewPrinter(language.English)

// FormatPrice renders d with thousands separators and at least two
// fractional digits. Longer fractions are kept as they are:
//
//	67234.5   -> "67,234.50"
//	67234.567 -> "67,234.567"
//	0.1       -> "0.10"
//	42        -> "42.00"
func FormatPrice(d decimal.Decimal) string {
	s := d.String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	for len(frac) < 2 {
		frac += "0"
	}

	return sign + groupThousands(whole) + "." + frac
}

// FormatFloat is FormatPrice for a float using its shortest representation.
func FormatFloat(v float64) string {
	return FormatPrice(decimal.NewFromFloat(v))
}

// groupThousands inserts separators into an unsigned digit string. Values
// beyond int64 are returned ungrouped.
func groupThousands(digits string) string {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return digits
	}
	return grouping.Sprintf("%d", n)
}
