package sec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed/atom"

	"github.com/seenimoa/finny/internal/provider"
	"github.com/seenimoa/finny/pkg/models"
	"github.com/seenimoa/finny/pkg/utils"
)

// NormalizeSubmissions builds a filing list from the submissions API's
// parallel arrays. Links point at the primary document under Archives.
func NormalizeSubmissions(set edgarFilingSet, cik, host string) (models.FilingList, error) {
	n := set.len()
	if n == 0 {
		return nil, provider.Errorf(provider.KindNoData, "sec submissions", "no recent filings for CIK %s", cik)
	}

	padded := utils.PadCIK(cik)
	filings := make(models.FilingList, 0, n)
	for i := 0; i < n; i++ {
		accession := strings.ReplaceAll(set.AccessionNumber[i], "-", "")
		filings = append(filings, models.Filing{
			Date: orNA(set.FilingDate[i]),
			Type: orNA(set.Form[i]),
			Link: fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s", host, padded, accession, set.PrimaryDocument[i]),
		})
	}
	return filings, nil
}

// ParseFilingsHTML reads the browse-edgar filings table. The first row of
// the page is a header; every later row with more than three cells is a
// filing: cell 0 form type, cell 1 the document link, cell 3 filing date.
func ParseFilingsHTML(body []byte, host string) (models.FilingList, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &provider.Error{Kind: provider.KindParse, Op: "sec browse", Err: fmt.Errorf("parse SEC HTML: %w", err)}
	}

	var filings models.FilingList
	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cols := row.Find("td")
		if cols.Length() <= 3 {
			return
		}
		filings = append(filings, models.Filing{
			Date: orNA(cols.Eq(3).Text()),
			Type: orNA(cols.Eq(0).Text()),
			Link: filingLink(cols.Eq(1), host),
		})
	})

	if len(filings) == 0 {
		return nil, provider.Errorf(provider.KindNoData, "sec browse", "no filing rows in table")
	}
	return filings, nil
}

// filingLink resolves the first anchor in cell against host; no anchor
// yields the placeholder link.
func filingLink(cell *goquery.Selection, host string) string {
	href, ok := cell.Find("a").First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return models.NoLink
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return host + href
}

// ParseFilingsFeed reads the browse-edgar Atom feed. Each entry's first
// category term is its form type and its updated (or published) date is
// the filing date. EDGAR labels every category "form type", so the raw
// Atom entry is read rather than the translated item.
func ParseFilingsFeed(text string) (models.FilingList, error) {
	fp := &atom.Parser{}
	feed, err := fp.Parse(strings.NewReader(text))
	if err != nil {
		return nil, &provider.Error{Kind: provider.KindParse, Op: "sec atom", Err: fmt.Errorf("parse SEC feed: %w", err)}
	}

	filings := make(models.FilingList, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		f := models.Filing{
			Date: models.NotApplicable,
			Type: models.NotApplicable,
			Link: entryLink(entry),
		}
		if len(entry.Categories) > 0 && entry.Categories[0] != nil {
			f.Type = orNA(entry.Categories[0].Term)
		}
		switch {
		case entry.UpdatedParsed != nil:
			f.Date = entry.UpdatedParsed.Format(utils.DateLayout)
		case entry.PublishedParsed != nil:
			f.Date = entry.PublishedParsed.Format(utils.DateLayout)
		}
		filings = append(filings, f)
	}

	if len(filings) == 0 {
		return nil, provider.Errorf(provider.KindNoData, "sec atom", "feed has no entries")
	}
	return filings, nil
}

// entryLink prefers the alternate link, then any link with an href.
func entryLink(entry *atom.Entry) string {
	var first string
	for _, l := range entry.Links {
		if l == nil {
			continue
		}
		href := strings.TrimSpace(l.Href)
		if href == "" {
			continue
		}
		if l.Rel == "" || l.Rel == "alternate" {
			return href
		}
		if first == "" {
			first = href
		}
	}
	if first == "" {
		return models.NoLink
	}
	return first
}

func orNA(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.NotApplicable
	}
	return s
}
