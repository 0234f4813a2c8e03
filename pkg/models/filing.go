package models

// NotApplicable is the marker used for missing cells, unavailable metrics,
// and anything else the upstream did not provide.
const NotApplicable = "N/A"

// NoLink is the placeholder link of a filing row that carried no anchor.
const NoLink = "#"

// Filing is one normalized SEC filing entry.
type Filing struct {
	Date string `json:"date"` // ISO calendar date, or N/A
	Type string `json:"type"` // form type: "10-K", "8-K", "4", ...
	Link string `json:"link"` // absolute URL of the primary document, or #
}

// FilingList is an ordered list of filings in upstream order
// (EDGAR serves these newest first).
type FilingList []Filing
