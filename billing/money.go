package billing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// =============================================================================
// AMOUNT - money with a currency code
// =============================================================================

// Amount is a monetary quantity in a specific currency. Arithmetic keeps the
// receiver's currency; the engine never mixes currencies inside one client.
type Amount struct {
	Value    decimal.Decimal
	Currency string
}

func NewAmount(value float64, code string) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Currency: code}
}

func ZeroAmount(code string) Amount {
	return Amount{Value: decimal.Zero, Currency: code}
}

func (a Amount) Zero() Amount                     { return Amount{Value: decimal.Zero, Currency: a.Currency} }
func (a Amount) Add(b Amount) Amount              { return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency} }
func (a Amount) Sub(b Amount) Amount              { return Amount{Value: a.Value.Sub(b.Value), Currency: a.Currency} }
func (a Amount) AddValue(v decimal.Decimal) Amount { return Amount{Value: a.Value.Add(v), Currency: a.Currency} }
func (a Amount) Mul(s decimal.Decimal) Amount     { return Amount{Value: a.Value.Mul(s), Currency: a.Currency} }
func (a Amount) Div(s decimal.Decimal) Amount     { return Amount{Value: a.Value.Div(s), Currency: a.Currency} }
func (a Amount) Neg() Amount                      { return Amount{Value: a.Value.Neg(), Currency: a.Currency} }
func (a Amount) IsZero() bool                     { return a.Value.IsZero() }
func (a Amount) IsNegative() bool                 { return a.Value.IsNegative() }
func (a Amount) Round2() Amount                   { return Amount{Value: a.Value.Round(2), Currency: a.Currency} }

// String renders the formatted display form, e.g. "ZAR 1,234.56".
func (a Amount) String() string {
	return FormatCurrency(a.Currency, a.Value)
}

// =============================================================================
// CURRENCY FORMATTING
// =============================================================================

var displayPrinter = message.NewPrinter(language.English)

// FormatCurrency renders a decimal with its ISO-4217 code, grouped thousands
// and two decimal places, e.g. "ZAR 1,234.56". Unknown codes fall back to a
// plain "CODE 1,234.56" rendering.
func FormatCurrency(code string, v decimal.Decimal) string {
	f, _ := v.Round(2).Float64()
	unit, err := currency.ParseISO(code)
	if err != nil {
		if code == "" {
			return displayPrinter.Sprintf("%.2f", f)
		}
		return displayPrinter.Sprintf("%s %.2f", code, f)
	}
	return displayPrinter.Sprintf("%v", currency.Symbol(unit.Amount(f)))
}

// logCurrency always renders "CODE 1,234.56". The comment-log parser keys on
// the ISO code, so log lines never use locale symbols.
func logCurrency(code string, v decimal.Decimal) string {
	f, _ := v.Round(2).Float64()
	return displayPrinter.Sprintf("%s %.2f", code, f)
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	decimalOne     = decimal.NewFromInt(1)
	decimalTwelve  = decimal.NewFromInt(12)
	decimalHundred = decimal.NewFromInt(100)
)

// twelfth returns v/12 without rounding; rounding happens at display time.
func twelfth(v decimal.Decimal) decimal.Decimal {
	return v.Div(decimalTwelve)
}
