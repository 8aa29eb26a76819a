// Package format renders amounts and dates for display and CSV export.
package format

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencyCode prefixes every formatted amount.
const CurrencyCode = "LKR"

// DateLayout is the display layout for calendar dates, e.g. "03 Feb 2024".
const DateLayout = "02 Jan 2006"

var printer = message.NewPrinter(language.English)

// LKR formats amount as "LKR 1,250.00" with English digit grouping and
// exactly fractionDigits decimals. Only 0 and 2 are meaningful for rupees;
// anything else is treated as 2.
func LKR(amount decimal.Decimal, fractionDigits int) string {
	if fractionDigits != 0 {
		fractionDigits = 2
	}
	v, _ := amount.Round(int32(fractionDigits)).Float64()
	return CurrencyCode + " " + printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(fractionDigits),
		number.MaxFractionDigits(fractionDigits),
	))
}

// Date formats t as a display date in loc. A nil loc keeps t's location.
func Date(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// Percent formats a percentage with one decimal, e.g. "33.3%".
func Percent(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MinFractionDigits(1), number.MaxFractionDigits(1))) + "%"
}
