package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent on every request unless the caller overrides it.
const DefaultUserAgent = "finny/1.0 (github.com/seenimoa/finny)"

// DefaultHTTPClient is a pre-configured HTTP client with reasonable timeouts.
var DefaultHTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// HTTPDoer performs HTTP requests. *http.Client implements it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request describes one logical fetch. It is not modified by Fetch.
type Request struct {
	URL        string
	Headers    map[string]string
	MaxRetries int           // total attempts; values below 1 mean a single attempt
	RetryDelay time.Duration // input to the fetcher's Backoff; negative means 0
}

// FailureKind classifies why a fetch failed after all attempts.
type FailureKind string

const (
	// FailureConnection covers refused connections, timeouts, DNS errors and
	// connections dropped mid-body.
	FailureConnection FailureKind = "connection"
	// FailureProtocol means the server answered with a non-2xx status.
	FailureProtocol FailureKind = "protocol"
	// FailureRequest covers everything else: malformed URLs, unsupported
	// schemes, cancelled contexts.
	FailureRequest FailureKind = "request"
)

// Failure is the error returned by Fetch. It describes the last attempt.
type Failure struct {
	Kind       FailureKind
	URL        string
	Attempts   int
	LastStatus int // set for FailureProtocol
	LastErr    error
}

func (f *Failure) Error() string {
	switch {
	case f.Kind == FailureProtocol:
		return fmt.Sprintf("fetch %s: HTTP %d after %d attempt(s)", f.URL, f.LastStatus, f.Attempts)
	case f.LastErr != nil:
		return fmt.Sprintf("fetch %s: %s error after %d attempt(s): %v", f.URL, f.Kind, f.Attempts, f.LastErr)
	default:
		return fmt.Sprintf("fetch %s: %s error after %d attempt(s)", f.URL, f.Kind, f.Attempts)
	}
}

func (f *Failure) Unwrap() error { return f.LastErr }

// Payload is a successful response body. Data is populated only when the
// response declared a JSON content type and the body parsed.
type Payload struct {
	URL         string
	Status      int
	ContentType string
	Body        []byte
	JSON        bool
	Data        any
}

// Text returns the body as a string.
func (p *Payload) Text() string { return string(p.Body) }

// Decode unmarshals the body into dest regardless of the declared content type.
func (p *Payload) Decode(dest any) error {
	return json.Unmarshal(p.Body, dest)
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithRateLimiter makes every attempt wait for a token from l.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithBackoff replaces the retry delay policy (FixedDelay by default).
func WithBackoff(b Backoff) Option {
	return func(f *Fetcher) { f.backoff = b }
}

// WithDefaultHeaders sets headers applied before each request's own headers.
func WithDefaultHeaders(h map[string]string) Option {
	return func(f *Fetcher) {
		for k, v := range h {
			f.headers[k] = v
		}
	}
}

// WithLogger sets the logger used for per-attempt trace lines.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// Fetcher performs HTTP GETs with bounded retries. It is safe for
// concurrent use and holds no per-call state.
type Fetcher struct {
	client  HTTPDoer
	limiter *rate.Limiter
	backoff Backoff
	headers map[string]string
	logger  *log.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a fetcher with a fixed-delay retry policy.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  DefaultHTTPClient,
		backoff: FixedDelay,
		headers: map[string]string{
			"User-Agent": DefaultUserAgent,
			"Accept":     "application/json, text/html, */*",
		},
		logger: log.Default(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs req.URL up to req.MaxRetries times. It returns exactly one
// of a payload or a *Failure.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*Payload, error) {
	attempts := req.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := req.RetryDelay
	if delay < 0 {
		delay = 0
	}
	trace := uuid.NewString()[:8]

	var last *Failure
	for attempt := 1; attempt <= attempts; attempt++ {
		payload, fail := f.attempt(ctx, req)
		if fail == nil {
			f.negotiate(trace, payload)
			f.logger.Printf("infra/fetch[%s]: attempt %d/%d %s: HTTP %d", trace, attempt, attempts, req.URL, payload.Status)
			return payload, nil
		}

		fail.Attempts = attempt
		last = fail
		f.logger.Printf("infra/fetch[%s]: attempt %d/%d %s failed: %v", trace, attempt, attempts, req.URL, outcome(fail))

		if !retryable(ctx, fail) || attempt == attempts {
			break
		}
		if err := f.sleep(ctx, f.backoff(attempt, delay)); err != nil {
			last = &Failure{Kind: FailureRequest, URL: req.URL, Attempts: attempt, LastErr: err}
			break
		}
	}
	return nil, last
}

// attempt performs a single GET.
func (f *Fetcher) attempt(ctx context.Context, req Request) (*Payload, *Failure) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &Failure{Kind: FailureRequest, URL: req.URL, LastErr: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, &Failure{Kind: FailureRequest, URL: req.URL, LastErr: fmt.Errorf("create request: %w", err)}
	}
	for k, v := range f.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &Failure{Kind: classify(ctx, err), URL: req.URL, LastErr: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &Failure{
			Kind:       FailureProtocol,
			URL:        req.URL,
			LastStatus: resp.StatusCode,
			LastErr:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Failure{Kind: classify(ctx, err), URL: req.URL, LastErr: fmt.Errorf("read body: %w", err)}
	}

	return &Payload{
		URL:         req.URL,
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// negotiate parses the body when the response declared JSON. A body that
// claims to be JSON but does not parse stays as text.
func (f *Fetcher) negotiate(trace string, p *Payload) {
	if !IsJSONContentType(p.ContentType) {
		return
	}
	var data any
	if err := json.Unmarshal(p.Body, &data); err != nil {
		f.logger.Printf("infra/fetch[%s]: %s declared %q but did not parse: %v", trace, p.URL, p.ContentType, err)
		return
	}
	p.JSON = true
	p.Data = data
}

// IsJSONContentType reports whether a Content-Type header denotes JSON.
func IsJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	return mt == "application/json" || mt == "text/json" || strings.HasSuffix(mt, "+json")
}

// classify maps a transport error to a failure kind.
func classify(ctx context.Context, err error) FailureKind {
	if ctx.Err() != nil {
		return FailureRequest
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return FailureConnection
		}
		err = urlErr.Err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureConnection
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return FailureConnection
	}
	return FailureRequest
}

// retryable reports whether another attempt could change the outcome.
func retryable(ctx context.Context, f *Failure) bool {
	if ctx.Err() != nil {
		return false
	}
	return f.Kind != FailureRequest
}

func outcome(f *Failure) string {
	if f.Kind == FailureProtocol {
		return fmt.Sprintf("status code %d", f.LastStatus)
	}
	return fmt.Sprintf("%s error: %v", f.Kind, f.LastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
