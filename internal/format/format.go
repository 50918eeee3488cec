// Package format converts raw metric values to display strings.
// Every function is total: non-finite input degrades to "N/A" rather
// than propagating an error.
package format

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NotAvailable is the placeholder rendered for missing or non-finite values.
const NotAvailable = "N/A"

var printer = message.NewPrinter(language.AmericanEnglish)

// Percent renders a 0–1 ratio as a percentage with the given number of
// decimal places: Percent(0.5, 1) == "50.0%".
func Percent(v float64, decimals int) string {
	if !finite(v) {
		return NotAvailable
	}
	return strconv.FormatFloat(v*100, 'f', decimals, 64) + "%"
}

// Currency renders a dollar amount rounded to whole dollars with
// thousands separators: Currency(1234.5) == "$1,235".
func Currency(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return printer.Sprintf("$%d", int64(math.Round(v)))
}

// Count renders a whole quantity with thousands separators:
// Count(1628701) == "1,628,701".
func Count(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// Score renders a 0–1 composite score to two decimal places.
func Score(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Ratio renders a value with one decimal place (e.g. housing units per
// square mile).
func Ratio(v float64) string {
	if !finite(v) {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
