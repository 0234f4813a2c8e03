package sec

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/k3a/html2text"

	"github.com/seenimoa/finny/internal/provider"
)

// NoDocumentText is returned by DocumentText when a filing has no
// <document> element.
const NoDocumentText = "No detailed information available for this filing."

// Document fetches one filing document and returns its raw text. Only
// EDGAR hosts are fetched: sec.gov and its subdomains plus the configured
// Host and DataHost.
func (p *Provider) Document(ctx context.Context, rawURL string) (string, error) {
	if err := p.validateDocumentURL(rawURL); err != nil {
		return "", err
	}
	payload, err := p.Get(ctx, "sec document", rawURL)
	if err != nil {
		return "", err
	}
	return payload.Text(), nil
}

// DocumentText fetches one filing document and returns the plain text of
// its <document> element.
func (p *Provider) DocumentText(ctx context.Context, rawURL string) (string, error) {
	raw, err := p.Document(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return ExtractDocumentText(raw)
}

// ExtractDocumentText converts the first <document> element of an EDGAR
// submission to plain text.
func ExtractDocumentText(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", &provider.Error{Kind: provider.KindParse, Op: "sec document", Err: err}
	}

	sel := doc.Find("document").First()
	if sel.Length() == 0 {
		return NoDocumentText, nil
	}
	html, err := sel.Html()
	if err != nil {
		return "", &provider.Error{Kind: provider.KindParse, Op: "sec document", Err: err}
	}
	return strings.TrimSpace(html2text.HTML2Text(html)), nil
}

func (p *Provider) validateDocumentURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return provider.Errorf(provider.KindBadInput, "sec document", "invalid filing URL %q", rawURL)
	}
	if !p.documentHostAllowed(u) {
		return provider.Errorf(provider.KindBadInput, "sec document", "filing URL host %q is not an EDGAR host", u.Host)
	}
	return nil
}

func (p *Provider) documentHostAllowed(u *url.URL) bool {
	name := strings.ToLower(u.Hostname())
	if name == "sec.gov" || strings.HasSuffix(name, ".sec.gov") {
		return true
	}
	for _, h := range []string{p.cfg.Host, p.cfg.DataHost} {
		if cu, err := url.Parse(h); err == nil && cu.Host != "" && strings.EqualFold(cu.Host, u.Host) {
			return true
		}
	}
	return false
}
