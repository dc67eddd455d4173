package plantilla

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.MustParse("es-CO"))

// Moneda formats an amount in Colombian pesos with es-CO separators.
func Moneda(d decimal.Decimal) string {
	return "$ " + printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// Fecha formats t as dd/mm/yyyy, or "" for the zero time.
func Fecha(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}
