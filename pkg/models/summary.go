package models

import (
	"fmt"
	"strings"
)

// EmptySummaryText is the digest of an empty filing list.
const EmptySummaryText = "No filings available to summarize."

// FilingSummary is the digest derived from a filing list. It is never persisted.
type FilingSummary struct {
	Total        int         `json:"total"`
	InsiderCount int         `json:"insider_count"`
	Earnings     []Filing    `json:"recent_earnings"`
	Significant  []Filing    `json:"recent_significant"`
	Counts       []TypeCount `json:"counts"`
}

// TypeCount is one row of the form type histogram.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// InsiderActivity reports whether any insider-trading (Form 4) filing was seen.
func (s FilingSummary) InsiderActivity() bool { return s.InsiderCount > 0 }

// String renders the digest as plain text.
func (s FilingSummary) String() string {
	if s.Total == 0 {
		return EmptySummaryText
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summary of %d filings.\n", s.Total)
	if s.InsiderActivity() {
		fmt.Fprintf(&b, "Insider trading activity detected: %d Form 4 filing(s).\n", s.InsiderCount)
	}

	writeSection(&b, "Recent earnings reports (10-K/10-Q)", s.Earnings)
	writeSection(&b, "Recent significant events (8-K)", s.Significant)

	b.WriteString("Filing counts by type:\n")
	for _, c := range s.Counts {
		fmt.Fprintf(&b, "  %s: %d\n", c.Type, c.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeSection(b *strings.Builder, title string, filings []Filing) {
	if len(filings) == 0 {
		fmt.Fprintf(b, "%s: none.\n", title)
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, f := range filings {
		fmt.Fprintf(b, "  - %s %s %s\n", f.Date, f.Type, f.Link)
	}
}
