package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	maxAttempts = 3

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/132.0.0.0 Safari/537.36"

	origin = "https://web.slowly.app"
)

// Session owns the single authenticated HTTP connection to the Slowly
// API. It is created unauthenticated; Login builds the underlying
// client lazily and Close tears it down. Recreate rebuilds a closed
// session with the same transport.
type Session struct {
	baseURL    string
	token      string
	device     Device
	proxy      *url.URL
	transport  http.RoundTripper
	httpClient *http.Client
	timeout    time.Duration

	// Process-wide rate-limit gate. Open by default; nothing in the
	// library closes it, but requests wait on it before sending.
	gate *gate

	// Retry backoff unit, shortened in tests.
	backoffUnit time.Duration

	logger zerolog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithBaseURL overrides the default API host.
func WithBaseURL(base string) Option {
	return func(s *Session) {
		s.baseURL = strings.TrimRight(base, "/") + "/"
	}
}

// WithProxy routes all requests through the given proxy URL.
func WithProxy(proxy *url.URL) Option {
	return func(s *Session) {
		s.proxy = proxy
	}
}

// WithTransport sets a custom transport, reused across Recreate.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Session) {
		s.transport = rt
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		s.timeout = timeout
	}
}

// NewSession creates an unauthenticated session. Call Login before
// issuing requests.
func NewSession(logger zerolog.Logger, opts ...Option) *Session {
	s := &Session{
		baseURL:     DefaultBaseURL,
		device:      newDevice(),
		timeout:     30 * time.Second,
		gate:        newGate(),
		backoffUnit: time.Second,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the bearer token currently attached to the session.
func (s *Session) Token() string {
	return s.token
}

// Login stores the bearer token and builds the underlying HTTP client.
func (s *Session) Login(token string) {
	s.token = strings.TrimSpace(token)
	s.httpClient = s.newHTTPClient()
	s.logger.Debug().Msg("session opened")
}

// Close tears down the HTTP client. The session can be reopened with
// Recreate.
func (s *Session) Close() {
	if s.httpClient != nil {
		s.httpClient.CloseIdleConnections()
		s.httpClient = nil
		s.logger.Debug().Msg("session closed")
	}
}

// Recreate rebuilds the HTTP client after a Close, reusing the same
// transport and token.
func (s *Session) Recreate() {
	if s.httpClient == nil {
		s.httpClient = s.newHTTPClient()
		s.logger.Debug().Msg("session recreated")
	}
}

func (s *Session) newHTTPClient() *http.Client {
	transport := s.transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if s.proxy != nil {
			t.Proxy = http.ProxyURL(s.proxy)
		}
		transport = t
	}
	return &http.Client{
		Transport: transport,
		Timeout:   s.timeout,
	}
}

// requestOptions collects per-request overrides.
type requestOptions struct {
	headers http.Header
	query   url.Values
	body    any
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

// WithJSON attaches a JSON-encoded request body.
func WithJSON(body any) RequestOption {
	return func(o *requestOptions) {
		o.body = body
	}
}

// WithQuery attaches query parameters to the request URL.
func WithQuery(query url.Values) RequestOption {
	return func(o *requestOptions) {
		o.query = query
	}
}

// WithHeader sets a request header, overriding the default.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = http.Header{}
		}
		o.headers.Set(key, value)
	}
}

// Request executes a route with up to three attempts and returns the
// response body. 500 and 502 responses are retried after a linear
// backoff; 403, 404 and any other non-2xx status fail immediately
// with a typed error.
func (s *Session) Request(ctx context.Context, route Route, opts ...RequestOption) ([]byte, error) {
	if s.httpClient == nil {
		return nil, ErrSessionClosed
	}

	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	var payload []byte
	if ro.body != nil {
		var err error
		payload, err = json.Marshal(ro.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	requestURL := route.URL
	if len(ro.query) > 0 {
		requestURL += "?" + ro.query.Encode()
	}

	// The global gate is open unless a rate limit is in effect.
	if err := s.gate.wait(ctx); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		body, status, err := s.do(ctx, route.Method, requestURL, payload, ro.headers)
		if err != nil {
			return nil, err
		}

		switch {
		case status >= 200 && status < 300:
			return body, nil

		case status == http.StatusInternalServerError || status == http.StatusBadGateway:
			delay := time.Duration(1+attempt*2) * s.backoffUnit
			s.logger.Warn().
				Int("status", status).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Str("url", requestURL).
				Msg("Server error, retrying")
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}

		default:
			return nil, newHTTPError(status, body)
		}
	}

	// Only retryable statuses can fall through the loop, so landing
	// here after the attempt budget is a programming fault.
	return nil, fmt.Errorf("unreachable state after %d attempts for %s %s", maxAttempts, route.Method, route.Path)
}

func (s *Session) do(ctx context.Context, method, requestURL string, payload []byte, headers http.Header) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", origin)
	req.Header.Set("User-Agent", userAgent)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	for key, values := range headers {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	s.logger.Debug().
		Str("method", method).
		Str("url", requestURL).
		Msg("Making Slowly API request")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, resp.StatusCode, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
