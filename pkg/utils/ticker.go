package utils

import (
	"strings"
)

// cikWidth is the fixed width EDGAR expects for CIKs embedded in URLs.
const cikWidth = 10

// NormalizeTicker normalizes a user-input ticker to its canonical upper-case form.
// It trims whitespace and a leading $ (common in chat and CLI input).
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	ticker = strings.TrimPrefix(ticker, "$")
	return strings.TrimSpace(ticker)
}

// ToYFinanceTicker converts a ticker to Yahoo Finance format.
// Share classes are written with a dot by most users (BRK.B) but with a
// dash by Yahoo (BRK-B). Index symbols (^GSPC) pass through unchanged.
func ToYFinanceTicker(ticker string) string {
	ticker = NormalizeTicker(ticker)
	if strings.HasPrefix(ticker, "^") {
		return ticker
	}
	return strings.ReplaceAll(ticker, ".", "-")
}

// ToEDGARTicker converts a ticker to the spelling used by the SEC
// company_tickers.json directory, which also uses a dash for share classes.
func ToEDGARTicker(ticker string) string {
	return strings.ReplaceAll(NormalizeTicker(ticker), ".", "-")
}

// PadCIK pads a CIK number to 10 digits with leading zeros.
// Leading zeros already present are kept; longer inputs are returned as-is.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= cikWidth {
		return cik
	}
	return strings.Repeat("0", cikWidth-len(cik)) + cik
}

// IsNumeric reports whether s is a non-empty run of ASCII digits.
func IsNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
