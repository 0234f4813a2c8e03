package yfinance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seenimoa/finny/internal/infra"
	"github.com/seenimoa/finny/internal/provider"
	"github.com/seenimoa/finny/pkg/models"
	"github.com/seenimoa/finny/pkg/utils"
)

const quoteSummaryJSON = `{"quoteSummary": {"result": [{
	"summaryDetail": {
		"previousClose": {"raw": 227.55, "fmt": "227.55"},
		"open": {"raw": 228.1, "fmt": "228.10"},
		"trailingPE": {"raw": 37.4, "fmt": "37.40"},
		"forwardPE": {},
		"marketCap": {"raw": 3.45e12, "fmt": "3.45T"},
		"beta": {"raw": 1.24, "fmt": "1.24"}
	},
	"price": {
		"regularMarketPrice": {"raw": 229.87, "fmt": "229.87"},
		"regularMarketVolume": 41235500,
		"longName": "Apple Inc.",
		"currency": "USD"
	},
	"defaultKeyStatistics": {
		"sharesOutstanding": {"raw": 15115800000, "fmt": "15.12B"}
	},
	"financialData": {
		"currentPrice": {"raw": 1, "fmt": "1.00"}
	}
}], "error": null}}`

// chartJSON returns two daily candles; the second has a null open.
func chartJSON(window string) string {
	return fmt.Sprintf(`{"chart": {"result": [{
		"meta": {"symbol": "AAPL", "currency": "USD", "exchangeTimezoneName": "America/New_York", "range": %q},
		"timestamp": [1730467800, 1730727000],
		"indicators": {"quote": [{
			"open": [220.97, null],
			"high": [225.35, 222.79],
			"low": [220.27, 219.71],
			"close": [222.91, 222.01]
		}]}
	}], "error": null}}`, window)
}

func quiet() infra.Option {
	return infra.WithLogger(log.New(io.Discard, "", 0))
}

func testConfig(srv *httptest.Server) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.MaxRetries = 2
	cfg.RetryDelay = time.Millisecond
	return cfg
}

type yahooServer struct {
	*httptest.Server
	mu        sync.Mutex
	ranges    []string
	inFlight  atomic.Int32
	peak      atomic.Int32
	failRange string
}

func newYahooServer(t *testing.T) *yahooServer {
	t.Helper()
	ys := &yahooServer{}
	ys.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v10/finance/quoteSummary/AAPL":
			if r.URL.Query().Get("modules") != quoteModules {
				http.Error(w, "bad modules", http.StatusBadRequest)
				return
			}
			io.WriteString(w, quoteSummaryJSON)
		case r.URL.Path == "/v8/finance/chart/AAPL":
			n := ys.inFlight.Add(1)
			defer ys.inFlight.Add(-1)
			for {
				p := ys.peak.Load()
				if n <= p || ys.peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)

			rng := r.URL.Query().Get("range")
			ys.mu.Lock()
			ys.ranges = append(ys.ranges, rng)
			ys.mu.Unlock()
			if rng == ys.failRange {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			io.WriteString(w, chartJSON(rng))
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"quoteSummary": {"result": null, "error": {"code": "Not Found", "description": "Quote not found for symbol"}}}`)
		}
	}))
	t.Cleanup(ys.Close)
	return ys
}

func TestProviderInfo(t *testing.T) {
	p := New(DefaultConfig())
	if p.Info().Name != "yfinance" {
		t.Errorf("expected name yfinance, got %s", p.Info().Name)
	}
}

func TestMarketData(t *testing.T) {
	srv := newYahooServer(t)
	p := New(testConfig(srv.Server), quiet())

	md, err := p.MarketData(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("MarketData: %v", err)
	}
	if md.Symbol != "AAPL" || md.Name != "Apple Inc." || md.Currency != "USD" {
		t.Errorf("header = %s %q %s", md.Symbol, md.Name, md.Currency)
	}
	if md.Timezone != "America/New_York" {
		t.Errorf("timezone = %s", md.Timezone)
	}

	// Every field present, missing ones as N/A.
	if len(md.Quote) != len(QuoteFields) {
		t.Errorf("quote has %d fields, want %d", len(md.Quote), len(QuoteFields))
	}
	for _, name := range QuoteFieldNames() {
		if _, ok := md.Quote[name]; !ok {
			t.Errorf("missing quote field %s", name)
		}
	}
	if md.Quote["ForwardPE"].Available {
		t.Error("ForwardPE should be N/A")
	}
	if got := md.Quote["CurrentPrice"]; !got.Available || got.Value != 229.87 {
		t.Errorf("CurrentPrice = %v, price module should win", got)
	}
	if got := md.Quote["Volume"]; got.Value != 41235500 {
		t.Errorf("Volume = %v, bare numbers should be read", got)
	}
	if got := md.Quote["PreviousClose"]; got.Value != 227.55 {
		t.Errorf("PreviousClose = %v", got)
	}

	if len(md.History) != len(models.Windows) {
		t.Fatalf("history has %d windows", len(md.History))
	}
	ny := utils.LoadLocation("America/New_York")
	for _, w := range models.Windows {
		wh := md.History[w]
		if len(wh) != 4 {
			t.Errorf("%s: %d components", w, len(wh))
		}
		if len(wh[models.ComponentOpen]) != 1 {
			t.Errorf("%s: null open should be skipped, got %v", w, wh[models.ComponentOpen])
		}
		if len(wh[models.ComponentClose]) != 2 {
			t.Errorf("%s: close series = %v", w, wh[models.ComponentClose])
		}
		for key := range wh[models.ComponentClose] {
			ts, err := utils.ParseTimestamp(key, ny)
			if err != nil {
				t.Errorf("%s: key %q not in fixed format: %v", w, key, err)
				continue
			}
			if ts.Unix() != 1730467800 && ts.Unix() != 1730727000 {
				t.Errorf("%s: key %q does not round-trip (%d)", w, key, ts.Unix())
			}
		}
	}
	if got := md.History[models.Window1Month][models.ComponentClose]["2024-11-01 09:30:00"]; got != 222.91 {
		t.Errorf("1mo close at open bell = %v", got)
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if strings.Join(srv.ranges, ",") != "5d,1mo,3mo,6mo,1y" {
		t.Errorf("windows fetched in order %v", srv.ranges)
	}
	if srv.peak.Load() != 1 {
		t.Errorf("default config must serialize chart calls, peak = %d", srv.peak.Load())
	}
}

func TestMarketDataConcurrentHistory(t *testing.T) {
	srv := newYahooServer(t)
	cfg := testConfig(srv.Server)
	cfg.HistoryConcurrency = 5
	p := New(cfg, quiet())

	md, err := p.MarketData(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("MarketData: %v", err)
	}
	if len(md.History) != 5 {
		t.Errorf("history has %d windows", len(md.History))
	}
	for _, w := range models.Windows {
		if len(md.History[w][models.ComponentHigh]) != 2 {
			t.Errorf("%s: high series = %v", w, md.History[w][models.ComponentHigh])
		}
	}
}

func TestMarketDataUnknownSymbol(t *testing.T) {
	srv := newYahooServer(t)
	p := New(testConfig(srv.Server), quiet())

	md, err := p.MarketData(context.Background(), "NOPE")
	if !errors.Is(err, provider.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if md != nil {
		t.Error("expected no partial result")
	}
}

func TestMarketDataWindowFailureFailsCall(t *testing.T) {
	srv := newYahooServer(t)
	srv.failRange = "6mo"
	p := New(testConfig(srv.Server), quiet())

	md, err := p.MarketData(context.Background(), "AAPL")
	if !errors.Is(err, provider.ErrProtocol) {
		t.Errorf("expected protocol error, got %v", err)
	}
	if md != nil {
		t.Error("expected no partial result")
	}
}

func TestMarketDataEmptyTicker(t *testing.T) {
	p := New(DefaultConfig(), quiet())
	if _, err := p.MarketData(context.Background(), " "); !errors.Is(err, provider.ErrBadInput) {
		t.Errorf("expected bad input, got %v", err)
	}
}

func TestQuoteErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"quoteSummary": {"result": null, "error": {"code": "Not Found", "description": "No fundamentals data found"}}}`)
	}))
	defer srv.Close()

	p := New(testConfig(srv), quiet())
	if _, err := p.Quote(context.Background(), "XYZ"); !errors.Is(err, provider.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestBuildSnapshotDefaults(t *testing.T) {
	snap := BuildSnapshot(nil)
	if len(snap) != len(QuoteFields) {
		t.Fatalf("snapshot has %d fields", len(snap))
	}
	for name, m := range snap {
		if m.Available {
			t.Errorf("%s should be N/A", name)
		}
	}

	out, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(out), `"ForwardPE":"N/A"`) {
		t.Errorf("ForwardPE should marshal as N/A: %s", out)
	}
}

func TestLookupNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{`1.5`, 1.5, true},
		{`{"raw": 2, "fmt": "2.00"}`, 2, true},
		{`{}`, 0, false},
		{`"Infinity"`, 0, false},
		{``, 0, false},
		{`null`, 0, false},
	}
	for _, tt := range tests {
		got, ok := lookupNumber(json.RawMessage(tt.raw))
		if ok != tt.ok || got != tt.want {
			t.Errorf("lookupNumber(%s) = %v, %v", tt.raw, got, ok)
		}
	}
}
