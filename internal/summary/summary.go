// Package summary derives a short digest from a normalized filing list:
// insider trading activity, the latest earnings reports and significant
// events, and a form type histogram.
package summary

import (
	"sort"
	"strings"

	"github.com/seenimoa/finny/pkg/models"
	"github.com/seenimoa/finny/pkg/utils"
)

// MaxRecent is how many filings each highlighted category keeps.
const MaxRecent = 3

// InsiderFormType is the form filed for changes in insider ownership.
const InsiderFormType = "4"

// Summarize builds the digest of filings. The input is not modified.
func Summarize(filings models.FilingList) models.FilingSummary {
	s := models.FilingSummary{Total: len(filings)}
	if len(filings) == 0 {
		return s
	}

	for _, f := range filings {
		if strings.TrimSpace(f.Type) == InsiderFormType {
			s.InsiderCount++
		}
	}

	newest := newestFirst(filings)
	s.Earnings = pick(newest, IsEarnings)
	s.Significant = pick(newest, IsSignificant)
	s.Counts = countTypes(filings)
	return s
}

// IsEarnings reports whether a form type is an annual or quarterly report.
func IsEarnings(formType string) bool {
	return strings.Contains(formType, "10-K") || strings.Contains(formType, "10-Q")
}

// IsSignificant reports whether a form type is a current report.
func IsSignificant(formType string) bool {
	return strings.Contains(formType, "8-K")
}

// newestFirst returns a copy sorted by filing date, newest first. Filings
// whose date does not parse keep their relative order after the dated ones.
func newestFirst(filings models.FilingList) models.FilingList {
	sorted := make(models.FilingList, len(filings))
	copy(sorted, filings)

	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := utils.ParseDate(sorted[i].Date), utils.ParseDate(sorted[j].Date)
		switch {
		case di.IsZero():
			return false
		case dj.IsZero():
			return true
		default:
			return di.After(dj)
		}
	})
	return sorted
}

func pick(filings models.FilingList, match func(string) bool) []models.Filing {
	var out []models.Filing
	for _, f := range filings {
		if !match(f.Type) {
			continue
		}
		out = append(out, f)
		if len(out) == MaxRecent {
			break
		}
	}
	return out
}

func countTypes(filings models.FilingList) []models.TypeCount {
	idx := make(map[string]int)
	var counts []models.TypeCount
	for _, f := range filings {
		i, ok := idx[f.Type]
		if !ok {
			i = len(counts)
			idx[f.Type] = i
			counts = append(counts, models.TypeCount{Type: f.Type})
		}
		counts[i].Count++
	}
	return counts
}
