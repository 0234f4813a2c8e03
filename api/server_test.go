package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seenimoa/finny/internal/config"
	"github.com/seenimoa/finny/internal/infra"
	"github.com/seenimoa/finny/internal/provider"
	"github.com/seenimoa/finny/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

// stubBackend answers from canned values. An error field, when set, is
// returned by the matching operation.
type stubBackend struct {
	filings    models.FilingList
	filingsErr error
	docErr     error
	market     *models.MarketData
	marketErr  error
	health     []provider.Health

	gotTicker string
	gotURL    string
	gotText   bool
}

func (b *stubBackend) GetFilings(ctx context.Context, ticker string) (models.FilingList, error) {
	b.gotTicker = ticker
	if b.filingsErr != nil {
		return nil, b.filingsErr
	}
	return b.filings, nil
}

func (b *stubBackend) GetFilingDocument(ctx context.Context, url string) (string, error) {
	b.gotURL = url
	if b.docErr != nil {
		return "", b.docErr
	}
	return "<document>raw</document>", nil
}

func (b *stubBackend) GetFilingText(ctx context.Context, url string) (string, error) {
	b.gotURL = url
	b.gotText = true
	if b.docErr != nil {
		return "", b.docErr
	}
	return "plain text", nil
}

func (b *stubBackend) GetMarketData(ctx context.Context, ticker string) (*models.MarketData, error) {
	b.gotTicker = ticker
	if b.marketErr != nil {
		return nil, b.marketErr
	}
	return b.market, nil
}

func (b *stubBackend) GetFilingSummary(ctx context.Context, ticker string) (models.FilingSummary, error) {
	filings, err := b.GetFilings(ctx, ticker)
	if err != nil {
		return models.FilingSummary{}, err
	}
	return models.FilingSummary{
		Total:        len(filings),
		InsiderCount: 1,
		Earnings:     filings[:1],
		Counts:       []models.TypeCount{{Type: "10-K", Count: 1}, {Type: "4", Count: 1}},
	}, nil
}

func (b *stubBackend) Providers() []provider.ProviderInfo {
	return []provider.ProviderInfo{
		{Name: "sec", Models: []provider.ModelType{provider.ModelFilings}},
		{Name: "yfinance", Models: []provider.ModelType{provider.ModelQuoteSnapshot}},
	}
}

func (b *stubBackend) Health(ctx context.Context) []provider.Health {
	return b.health
}

func sampleFilings() models.FilingList {
	return models.FilingList{
		{Date: "2024-11-01", Type: "10-K", Link: "https://www.sec.gov/Archives/edgar/data/0000320193/000032019324000123/aapl-20240928.htm"},
		{Date: "2024-10-15", Type: "4", Link: "https://www.sec.gov/Archives/edgar/data/0000320193/000032019324000120/wk-form4.xml"},
	}
}

func testServer(t *testing.T, b *stubBackend) *Server {
	t.Helper()
	cfg := &config.Config{
		Logging: config.LoggingConfig{Level: "error"},
	}
	return NewServer(cfg, b)
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// ════════════════════════════════════════════════════════════════════
// APIResponse / status mapping
// ════════════════════════════════════════════════════════════════════

func TestAPIResponseJSON(t *testing.T) {
	b, err := json.Marshal(APIResponse{Success: false, Error: "Ticker not found.", Kind: "not_found"})
	if err != nil {
		t.Fatal(err)
	}
	got := string(b)
	if strings.Contains(got, `"data"`) {
		t.Errorf("data should be omitted: %s", got)
	}
	if !strings.Contains(got, `"kind":"not_found"`) {
		t.Errorf("missing kind: %s", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"connection", provider.Errorf(provider.KindConnection, "op", "refused"), http.StatusServiceUnavailable},
		{"protocol", provider.Errorf(provider.KindProtocol, "op", "HTTP 500"), http.StatusServiceUnavailable},
		{"request", provider.Errorf(provider.KindRequest, "op", "bad scheme"), http.StatusServiceUnavailable},
		{"parse", provider.Errorf(provider.KindParse, "op", "bad json"), http.StatusServiceUnavailable},
		{"not found", provider.Errorf(provider.KindNotFound, "op", "ZZZZ"), http.StatusNotFound},
		{"no data", provider.Errorf(provider.KindNoData, "op", "empty"), http.StatusNotFound},
		{"bad input", provider.Errorf(provider.KindBadInput, "op", "empty ticker"), http.StatusBadRequest},
		{"wrapped", fmt.Errorf("outer: %w", provider.Errorf(provider.KindNotFound, "op", "x")), http.StatusNotFound},
		{"raw failure", &infra.Failure{Kind: infra.FailureConnection, URL: "https://x"}, http.StatusServiceUnavailable},
		{"unclassified", errors.New("boom"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor = %d, want %d", got, tt.want)
			}
		})
	}
}

// ════════════════════════════════════════════════════════════════════
// Health / providers / config
// ════════════════════════════════════════════════════════════════════

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name   string
		health []provider.Health
		want   string
	}{
		{"all ok", []provider.Health{{Name: "sec", OK: true}, {Name: "yfinance", OK: true}}, "ok"},
		{"one down", []provider.Health{{Name: "sec", OK: true}, {Name: "yfinance", Error: "HTTP 503"}}, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, &stubBackend{health: tt.health})
			for _, path := range []string{"/health", "/api/v1/health"} {
				rec := do(t, srv, "GET", path, "")
				if rec.Code != http.StatusOK {
					t.Fatalf("%s status: got %d", path, rec.Code)
				}
				resp := decodeResponse(t, rec)
				data, ok := resp.Data.(map[string]interface{})
				if !ok {
					t.Fatal("data should be a map")
				}
				if data["status"] != tt.want {
					t.Errorf("%s status = %v, want %s", path, data["status"], tt.want)
				}
				if _, ok := data["version"]; !ok {
					t.Error("missing version")
				}
			}
		})
	}
}

func TestHandleProviders(t *testing.T) {
	rec := do(t, testServer(t, &stubBackend{}), "GET", "/api/v1/providers", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	list, ok := resp.Data.([]interface{})
	if !ok || len(list) != 2 {
		t.Fatalf("providers = %v", resp.Data)
	}
}

func TestHandleConfigStatus(t *testing.T) {
	rec := do(t, testServer(t, &stubBackend{}), "GET", "/api/v1/config/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp struct {
		Data ConfigStatusResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data.Settings) == 0 {
		t.Fatal("no settings reported")
	}
	// An empty config has neither a contact User-Agent nor a fallback file.
	if resp.Data.Warnings < 2 {
		t.Errorf("warnings = %d, want >= 2", resp.Data.Warnings)
	}
}

// ════════════════════════════════════════════════════════════════════
// Filings
// ════════════════════════════════════════════════════════════════════

func TestHandleFilings(t *testing.T) {
	b := &stubBackend{filings: sampleFilings()}
	rec := do(t, testServer(t, b), "GET", "/api/v1/filings/aapl", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if b.gotTicker != "aapl" {
		t.Errorf("backend got ticker %q, normalization belongs to the provider", b.gotTicker)
	}

	var resp struct {
		Success bool            `json:"success"`
		Data    FilingsResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Ticker != "AAPL" || resp.Data.Count != 2 {
		t.Errorf("data = %+v", resp.Data)
	}
	if resp.Data.Filings[1].Type != "4" {
		t.Errorf("upstream order not kept: %+v", resp.Data.Filings)
	}
}

func TestHandleFilingsErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind provider.Kind
	}{
		{"unknown ticker", provider.Errorf(provider.KindNotFound, "resolve", "ZZZZ"), http.StatusNotFound, provider.KindNotFound},
		{"no filings", provider.Errorf(provider.KindNoData, "filings", "empty"), http.StatusNotFound, provider.KindNoData},
		{"upstream down", provider.Errorf(provider.KindConnection, "filings", "refused"), http.StatusServiceUnavailable, provider.KindConnection},
		{"bad payload", provider.Errorf(provider.KindParse, "filings", "bad json"), http.StatusServiceUnavailable, provider.KindParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, testServer(t, &stubBackend{filingsErr: tt.err}), "GET", "/api/v1/filings/ZZZZ", "")
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			resp := decodeResponse(t, rec)
			if resp.Success {
				t.Error("expected success=false")
			}
			if resp.Kind != string(tt.wantKind) {
				t.Errorf("kind = %q, want %q", resp.Kind, tt.wantKind)
			}
			if resp.Error != tt.wantKind.Message() {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantKind.Message())
			}
		})
	}
}

func TestHandleFilingSummary(t *testing.T) {
	rec := do(t, testServer(t, &stubBackend{filings: sampleFilings()}), "GET", "/api/v1/filings/AAPL/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp struct {
		Data SummaryResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Summary.Total != 2 || resp.Data.Summary.InsiderCount != 1 {
		t.Errorf("summary = %+v", resp.Data.Summary)
	}
	if !strings.Contains(resp.Data.Text, "Summary of 2 filings.") {
		t.Errorf("text = %q", resp.Data.Text)
	}
}

func TestHandleFilingSummaryNotFound(t *testing.T) {
	b := &stubBackend{filingsErr: provider.Errorf(provider.KindNotFound, "resolve", "ZZZZ")}
	rec := do(t, testServer(t, b), "GET", "/api/v1/filings/ZZZZ/summary", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// Documents
// ════════════════════════════════════════════════════════════════════

func TestHandleFilingDocument(t *testing.T) {
	const docURL = "https://www.sec.gov/Archives/edgar/data/0000320193/x.htm"
	tests := []struct {
		name       string
		body       string
		wantFormat string
		wantText   bool
		wantBody   string
	}{
		{"default raw", `{"url":"` + docURL + `"}`, "raw", false, "<document>raw</document>"},
		{"explicit raw", `{"url":"` + docURL + `","format":"raw"}`, "raw", false, "<document>raw</document>"},
		{"text", `{"url":"` + docURL + `","format":"TEXT"}`, "text", true, "plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &stubBackend{}
			rec := do(t, testServer(t, b), "POST", "/api/v1/filings/document", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d", rec.Code)
			}
			var resp struct {
				Data DocumentResponse `json:"data"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Data.Format != tt.wantFormat || resp.Data.Content != tt.wantBody {
				t.Errorf("data = %+v", resp.Data)
			}
			if b.gotText != tt.wantText || b.gotURL != docURL {
				t.Errorf("backend call: text=%v url=%q", b.gotText, b.gotURL)
			}
		})
	}
}

func TestHandleFilingDocumentValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"missing url", `{"format":"raw"}`},
		{"bad format", `{"url":"https://www.sec.gov/x","format":"pdf"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &stubBackend{}
			rec := do(t, testServer(t, b), "POST", "/api/v1/filings/document", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if b.gotURL != "" {
				t.Error("backend should not be called")
			}
		})
	}
}

func TestHandleFilingDocumentBadURL(t *testing.T) {
	b := &stubBackend{docErr: provider.Errorf(provider.KindBadInput, "filing document", "unsupported scheme")}
	rec := do(t, testServer(t, b), "POST", "/api/v1/filings/document", `{"url":"ftp://x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Error != provider.KindBadInput.Message() {
		t.Errorf("error = %q", resp.Error)
	}
}

// ════════════════════════════════════════════════════════════════════
// Market data
// ════════════════════════════════════════════════════════════════════

func TestHandleMarketData(t *testing.T) {
	md := &models.MarketData{
		Symbol:   "AAPL",
		Name:     "Apple Inc.",
		Currency: "USD",
	}
	b := &stubBackend{market: md}
	rec := do(t, testServer(t, b), "GET", "/api/v1/market/AAPL", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp struct {
		Data models.MarketData `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Symbol != "AAPL" || resp.Data.Currency != "USD" {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestHandleMarketDataErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown symbol", provider.Errorf(provider.KindNotFound, "market data", "ZZZZ"), http.StatusNotFound},
		{"empty result", provider.Errorf(provider.KindNoData, "market data", "empty"), http.StatusNotFound},
		{"yahoo error body", provider.Errorf(provider.KindProtocol, "market data", "Internal"), http.StatusServiceUnavailable},
		{"empty ticker", provider.Errorf(provider.KindBadInput, "market data", "empty ticker"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, testServer(t, &stubBackend{marketErr: tt.err}), "GET", "/api/v1/market/ZZZZ", "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, testServer(t, &stubBackend{}), "GET", "/api/v1/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(t, &stubBackend{})
	req := httptest.NewRequest("OPTIONS", "/api/v1/providers", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}
