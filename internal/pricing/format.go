package pricing

import "github.com/dustin/go-humanize"

const currencySuffix = " грн"

// FormatPrice renders a price as whole hryvnias with space-separated thousands,
// e.g. "10 516 грн".
func FormatPrice(v float64) string {
	return humanize.FormatFloat("# ###.", v) + currencySuffix
}
