package pdf

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var itPrinter = message.NewPrinter(language.Italian)

// FormatEuro formato italiano con dos decimales: 1.234,56 €.
func FormatEuro(d decimal.Decimal) string {
	return itPrinter.Sprintf("%.2f €", d.Round(2).InexactFloat64())
}
