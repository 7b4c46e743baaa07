// Package extraction finds the amount due in text produced by OCR or PDF
// text extraction.
package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// labelPatterns are tried in order. The first label that matches anywhere in
// the text wins, regardless of where later labels appear.
//
// The amount must have exactly two decimal digits and may use commas as
// thousands separators. A trailing digit (e.g. "12.345") rejects the match.
var labelPatterns = []*regexp.Regexp{
	amountAfter(`total`),
	amountAfter(`amount due`),
	amountAfter(`balance`),
	amountAfter(`grand total`),
	amountAfter(`sum`),
}

func amountAfter(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + label + `[:\s]*\$?\s*([\d,]+\.\d{2})(?:\D|$)`)
}

// ExtractTotal returns the most likely total in text. The boolean is false
// when no label pattern matched; the amount is zero in that case.
func ExtractTotal(text string) (decimal.Decimal, bool) {
	for _, pattern := range labelPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		amount, err := decimal.NewFromString(strings.ReplaceAll(match[1], ",", ""))
		if err != nil {
			continue
		}
		return amount.Round(2), true
	}
	return decimal.Zero, false
}
