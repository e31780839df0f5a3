// Package format renders dashboard numbers for display.
package format

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Money formats amount in the given ISO currency using locale's separators,
// e.g. "R$ 1.234,56" for BRL in es-CO. Unknown codes or locales fall back to
// BRL and es-CO.
func Money(amount float64, code, locale string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.BRL
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse("es-CO")
	}

	p := message.NewPrinter(tag)
	symbol := p.Sprint(currency.NarrowSymbol(unit))
	return p.Sprintf("%s %v", symbol, number.Decimal(amount, number.Scale(2)))
}

// Count formats n with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

func Hours(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f hours", *v)
}

func Days(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f days", *v)
}
