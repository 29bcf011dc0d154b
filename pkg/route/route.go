// Package route builds and dispatches requests against a fixed HTTP API.
//
// A Route is an immutable value: every chaining method returns a copy, so a
// configured base route can be shared and extended concurrently without the
// builders interfering with each other.
package route

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// ErrUnknownMethod is returned when a terminal dispatch is invoked with a
// string that is not a standard HTTP verb.
var ErrUnknownMethod = errors.New("unknown http method")

var standardMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodConnect: {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

// Doer performs a single HTTP round trip. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer receives dispatch events, e.g. for metrics collection.
type Observer interface {
	ObserveDispatch(method string, status int)
	ObserveRetry(method string, wait time.Duration)
}

// Response is the raw outcome of a dispatched request. Body is fully read
// and the underlying connection released before Response is returned.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode/100 == 2
}

// Options carries per-call request parameters. Headers set here are
// overridden by the base headers of the route on key conflicts.
type Options struct {
	Body    []byte
	Headers map[string]string
}

type settings struct {
	client   Doer
	headers  map[string]string
	limiter  *rate.Limiter
	observer Observer
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a base route at construction time.
type Option func(*settings)

// WithClient replaces the default HTTP client.
func WithClient(d Doer) Option {
	return func(s *settings) { s.client = d }
}

// WithHeaders sets base headers applied to every dispatched request.
// They take precedence over per-call headers.
func WithHeaders(headers map[string]string) Option {
	return func(s *settings) {
		s.headers = make(map[string]string, len(headers))
		for k, v := range headers {
			s.headers[k] = v
		}
	}
}

// WithLimiter gates every dispatch (including the rate-limit retry) behind
// a client-side limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *settings) { s.limiter = l }
}

// WithObserver registers a dispatch observer.
func WithObserver(o Observer) Option {
	return func(s *settings) { s.observer = o }
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// withSleep replaces the retry wait, used by tests.
func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *settings) { s.sleep = fn }
}

type param struct {
	name  string
	value string
}

// Route is an immutable request builder rooted at a base URL.
type Route struct {
	base     string
	cfg      *settings
	segments []string
	params   []param
	fragment string
	inQuery  bool
	queryEnd bool
}

// New creates a base route. A trailing slash on base is trimmed.
func New(base string, opts ...Option) Route {
	cfg := &settings{
		client:  &http.Client{Timeout: 30 * time.Second},
		headers: map[string]string{},
		logger:  slog.Default(),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return Route{
		base: strings.TrimSuffix(base, "/"),
		cfg:  cfg,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r Route) clone() Route {
	r.segments = append([]string(nil), r.segments...)
	r.params = append([]param(nil), r.params...)
	return r
}

// Path appends path segments.
func (r Route) Path(segments ...string) Route {
	next := r.clone()
	next.segments = append(next.segments, segments...)
	return next
}

// Query enters query mode: subsequent Param calls stage query parameters
// until End is called.
func (r Route) Query() Route {
	next := r.clone()
	next.inQuery = true
	next.queryEnd = false
	return next
}

// Param stages a query parameter while query mode is open. Outside query
// mode the name and value are appended as path segments, so a resource
// lookup like bills/{id} reads Param("bills", id).
func (r Route) Param(name string, values ...string) Route {
	next := r.clone()
	if next.inQuery && !next.queryEnd {
		value := "true"
		if len(values) > 0 {
			value = values[0]
		}
		next.params = append(next.params, param{name: name, value: value})
		return next
	}
	next.segments = append(next.segments, name)
	next.segments = append(next.segments, values...)
	return next
}

// End closes query mode. Further Param calls extend the path again.
func (r Route) End() Route {
	next := r.clone()
	next.queryEnd = true
	return next
}

// Hash sets the fragment. A later call replaces an earlier one.
func (r Route) Hash(fragment string) Route {
	next := r.clone()
	next.fragment = fragment
	return next
}

// URL assembles the final request URL: path segments joined by slashes,
// query values percent-encoded, fragment last.
func (r Route) URL() string {
	var b strings.Builder
	b.WriteString(r.base)
	if len(r.segments) > 0 {
		b.WriteString("/")
		b.WriteString(strings.Join(r.segments, "/"))
	}
	for i, p := range r.params {
		if i == 0 {
			b.WriteString("?")
		} else {
			b.WriteString("&")
		}
		b.WriteString(url.QueryEscape(p.name))
		b.WriteString("=")
		b.WriteString(url.QueryEscape(p.value))
	}
	if r.fragment != "" {
		b.WriteString("#")
		b.WriteString(r.fragment)
	}
	return b.String()
}

// Get dispatches the built request with the GET method.
func (r Route) Get(ctx context.Context, opts ...Options) (*Response, error) {
	return r.Do(ctx, http.MethodGet, opts...)
}

// Put dispatches the built request with the PUT method.
func (r Route) Put(ctx context.Context, opts ...Options) (*Response, error) {
	return r.Do(ctx, http.MethodPut, opts...)
}

// Post dispatches the built request with the POST method.
func (r Route) Post(ctx context.Context, opts ...Options) (*Response, error) {
	return r.Do(ctx, http.MethodPost, opts...)
}

// Patch dispatches the built request with the PATCH method.
func (r Route) Patch(ctx context.Context, opts ...Options) (*Response, error) {
	return r.Do(ctx, http.MethodPatch, opts...)
}

// Delete dispatches the built request with the DELETE method.
func (r Route) Delete(ctx context.Context, opts ...Options) (*Response, error) {
	return r.Do(ctx, http.MethodDelete, opts...)
}

// Do dispatches the built request with an arbitrary standard HTTP verb,
// matched case-insensitively.
//
// A 429 response carrying a numeric Retry-After header (seconds) is
// re-dispatched exactly once after the indicated wait. A missing or
// non-numeric header, or a second consecutive 429, is returned as-is.
func (r Route) Do(ctx context.Context, method string, opts ...Options) (*Response, error) {
	method = strings.ToUpper(method)
	if _, ok := standardMethods[method]; !ok {
		return nil, errors.Wrap(ErrUnknownMethod, method)
	}

	var call Options
	if len(opts) > 0 {
		call = opts[0]
	}

	// Per-call headers first, base headers reasserted last so they win
	// on key conflicts.
	headers := make(map[string]string, len(call.Headers)+len(r.cfg.headers))
	for k, v := range call.Headers {
		headers[k] = v
	}
	for k, v := range r.cfg.headers {
		headers[k] = v
	}

	target := r.URL()
	res, err := r.dispatch(ctx, method, target, call.Body, headers)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusTooManyRequests {
		return res, nil
	}

	seconds, convErr := strconv.ParseFloat(strings.TrimSpace(res.Header.Get("Retry-After")), 64)
	if convErr != nil || seconds < 0 {
		return res, nil
	}
	wait := time.Duration(seconds * float64(time.Second))

	if r.cfg.observer != nil {
		r.cfg.observer.ObserveRetry(method, wait)
	}
	r.cfg.logger.Warn("rate limited, retrying once",
		slog.String("method", method),
		slog.String("url", target),
		slog.Duration("wait", wait))

	if err := r.cfg.sleep(ctx, wait); err != nil {
		return nil, errors.Wrap(err, "retry wait")
	}
	return r.dispatch(ctx, method, target, call.Body, headers)
}

func (r Route) dispatch(ctx context.Context, method, target string, body []byte, headers map[string]string) (*Response, error) {
	if r.cfg.limiter != nil {
		if err := r.cfg.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limiting")
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	httpRes, err := r.cfg.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, target)
	}
	defer httpRes.Body.Close()

	payload, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	if r.cfg.observer != nil {
		r.cfg.observer.ObserveDispatch(method, httpRes.StatusCode)
	}
	r.cfg.logger.Debug("dispatched request",
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("status", httpRes.StatusCode))

	return &Response{
		StatusCode: httpRes.StatusCode,
		Header:     httpRes.Header,
		Body:       payload,
	}, nil
}
