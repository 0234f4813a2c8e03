package sec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// --- Company tickers directory (www.sec.gov/files/company_tickers.json) ---
// The document is an object keyed by row index: {"0": {cik_str, ticker, title}, ...}.

// edgarTickerEntry is a row from the CIK<->ticker mapping file.
type edgarTickerEntry struct {
	CIKStr cikNumber `json:"cik_str"`
	Ticker string    `json:"ticker"`
	Title  string    `json:"title"`
}

// cikNumber is a CIK in its unpadded decimal form. The live file sends a
// number; mirrors send strings, sometimes zero-padded ("0000320193").
type cikNumber string

func (c *cikNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*c = ""
		return nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid cik_str %s", data)
	}
	*c = cikNumber(strconv.FormatUint(n, 10))
	return nil
}

// --- EDGAR Submissions (data.sec.gov/submissions) ---

// edgarSubmissionsResponse is the response from company submissions endpoint.
type edgarSubmissionsResponse struct {
	CIK        string       `json:"cik"`
	EntityType string       `json:"entityType"`
	Name       string       `json:"name"`
	Tickers    []string     `json:"tickers"`
	Exchanges  []string     `json:"exchanges"`
	Filings    edgarFilings `json:"filings"`
}

type edgarFilings struct {
	Recent edgarFilingSet `json:"recent"`
}

// edgarFilingSet holds parallel arrays indexed by filing position.
type edgarFilingSet struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// len returns the number of complete filings: the shortest of the arrays.
func (s edgarFilingSet) len() int {
	n := len(s.AccessionNumber)
	for _, l := range []int{len(s.FilingDate), len(s.Form), len(s.PrimaryDocument)} {
		if l < n {
			n = l
		}
	}
	return n
}
