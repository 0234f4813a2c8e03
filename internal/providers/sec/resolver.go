package sec

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/seenimoa/finny/internal/infra"
	"github.com/seenimoa/finny/internal/provider"
	"github.com/seenimoa/finny/pkg/utils"
)

const directoryCacheKey = "sec:directory"

// Directory maps upper-case tickers to unpadded CIKs.
type Directory map[string]string

// Lookup returns the CIK for symbol, normalizing case and whitespace.
// Share classes match in either spelling (BRK.B or BRK-B).
func (d Directory) Lookup(symbol string) (string, bool) {
	if cik, ok := d[utils.NormalizeTicker(symbol)]; ok {
		return cik, true
	}
	cik, ok := d[utils.ToEDGARTicker(symbol)]
	return cik, ok
}

// ParseDirectory decodes the company tickers document. Rows without a
// ticker or CIK are skipped; a later duplicate ticker keeps the first CIK.
func ParseDirectory(data []byte) (Directory, error) {
	var rows map[string]edgarTickerEntry
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse company tickers: %w", err)
	}

	// Map iteration is unordered; walk keys by row index so duplicates
	// resolve the same way every time.
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sortRowKeys(keys)

	dir := make(Directory, len(rows))
	for _, k := range keys {
		e := rows[k]
		ticker := utils.NormalizeTicker(e.Ticker)
		cik := string(e.CIKStr)
		if ticker == "" || cik == "" {
			continue
		}
		if _, dup := dir[ticker]; !dup {
			dir[ticker] = cik
		}
	}
	return dir, nil
}

// Resolver maps ticker symbols to zero-padded CIKs using the remote
// company tickers directory, falling back to a local snapshot when the
// remote directory cannot be fetched.
type Resolver struct {
	base     *provider.BaseProvider
	url      string
	fallback string
	retry    provider.RetryPolicy
	cache    *infra.Cache[Directory]
}

func newResolver(base *provider.BaseProvider, cfg Config) *Resolver {
	return &Resolver{
		base:     base,
		url:      cfg.DirectoryURL,
		fallback: cfg.FallbackPath,
		retry:    provider.RetryPolicy{MaxRetries: cfg.DirectoryRetries, Delay: cfg.DirectoryDelay},
		cache:    infra.NewCache[Directory](cfg.DirectoryTTL),
	}
}

// Resolve returns the 10-digit zero-padded CIK for symbol.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (string, error) {
	sym := utils.NormalizeTicker(symbol)
	if sym == "" {
		return "", provider.Errorf(provider.KindBadInput, "sec resolve", "empty ticker")
	}

	dir, err := r.Directory(ctx)
	if err != nil {
		return "", err
	}

	cik, ok := dir.Lookup(sym)
	if !ok {
		return "", provider.Errorf(provider.KindNotFound, "sec resolve", "ticker %q not in directory", sym)
	}
	return utils.PadCIK(cik), nil
}

// Directory returns the ticker directory, from cache when fresh.
func (r *Resolver) Directory(ctx context.Context) (Directory, error) {
	if cached, ok := r.cache.Get(directoryCacheKey); ok {
		return cached, nil
	}

	dir, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.Set(directoryCacheKey, dir)
	return dir, nil
}


func (r *Resolver) load(ctx context.Context) (Directory, error) {
	payload, fetchErr := r.base.GetWith(ctx, "sec directory", r.url, r.retry)
	if fetchErr != nil {
		log.Printf("providers/sec: directory fetch failed, loading %s: %v", r.fallback, fetchErr)
		return r.loadFallback(fetchErr)
	}

	dir, err := ParseDirectory(payload.Body)
	if err != nil {
		return nil, &provider.Error{Kind: provider.KindParse, Op: "sec directory", Err: err}
	}
	log.Printf("providers/sec: loaded %d tickers from %s", len(dir), r.url)
	return dir, nil
}

// loadFallback reads the local snapshot. A read failure keeps the kind of
// the fetch failure that sent us here; a parse failure is KindParse.
func (r *Resolver) loadFallback(fetchErr error) (Directory, error) {
	if r.fallback == "" {
		return nil, fetchErr
	}

	data, err := os.ReadFile(r.fallback)
	if err != nil {
		return nil, &provider.Error{
			Kind:   provider.KindOf(fetchErr),
			Op:     "sec directory fallback",
			Status: provider.UpstreamStatus(fetchErr),
			Err:    fmt.Errorf("read %s: %w (after %v)", r.fallback, err, fetchErr),
		}
	}

	dir, err := ParseDirectory(data)
	if err != nil {
		return nil, &provider.Error{Kind: provider.KindParse, Op: "sec directory fallback", Err: fmt.Errorf("%s: %w", r.fallback, err)}
	}
	log.Printf("providers/sec: loaded %d tickers from fallback %s", len(dir), r.fallback)
	return dir, nil
}

// sortRowKeys orders directory row keys numerically, non-numeric keys last.
func sortRowKeys(keys []string) {
	less := func(a, b string) bool {
		an, bn := utils.IsNumeric(a), utils.IsNumeric(b)
		switch {
		case an && bn:
			if len(a) != len(b) {
				return len(a) < len(b)
			}
			return a < b
		case an != bn:
			return an
		default:
			return a < b
		}
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
}
