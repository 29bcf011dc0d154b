package route

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoer struct {
	requests  []*http.Request
	bodies    []string
	responses []*http.Response
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	f.requests = append(f.requests, req)
	f.bodies = append(f.bodies, string(body))

	res := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return res, nil
}

func response(status int, headers map[string]string, body string) *http.Response {
	header := http.Header{}
	for k, v := range headers {
		header.Set(k, v)
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		name     string
		build    func(r Route) Route
		expected string
	}{
		{
			name:     "bare base",
			build:    func(r Route) Route { return r },
			expected: "https://api.example.com",
		},
		{
			name:     "path segments joined by slashes",
			build:    func(r Route) Route { return r.Path("partner", "bill", "v1").Param("bills", "abc123") },
			expected: "https://api.example.com/partner/bill/v1/bills/abc123",
		},
		{
			name: "single query param",
			build: func(r Route) Route {
				return r.Param("bills", "abc123").Query().Param("name", "value").End()
			},
			expected: "https://api.example.com/bills/abc123?name=value",
		},
		{
			name: "multiple params and hash",
			build: func(r Route) Route {
				return r.Path("search").Query().Param("a", "1").Param("b", "2").End().Hash("frag")
			},
			expected: "https://api.example.com/search?a=1&b=2#frag",
		},
		{
			name: "query values escaped",
			build: func(r Route) Route {
				return r.Path("search").Query().Param("q", "x&y=z").End()
			},
			expected: "https://api.example.com/search?q=x%26y%3Dz",
		},
		{
			name: "param without value defaults to true",
			build: func(r Route) Route {
				return r.Path("bills").Query().Param("verbose").End()
			},
			expected: "https://api.example.com/bills?verbose=true",
		},
		{
			name: "param after end extends the path again",
			build: func(r Route) Route {
				return r.Query().Param("a", "1").End().Param("bills", "x")
			},
			expected: "https://api.example.com/bills/x?a=1",
		},
	}

	base := New("https://api.example.com/")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.build(base).URL())
		})
	}
}

func TestImmutableSnapshots(t *testing.T) {
	base := New("https://api.example.com").Path("partner")

	first := base.Path("bills").Query().Param("a", "1").End()
	second := base.Path("reject")

	assert.Equal(t, "https://api.example.com/partner/bills?a=1", first.URL())
	assert.Equal(t, "https://api.example.com/partner/reject", second.URL())
	assert.Equal(t, "https://api.example.com/partner", base.URL())
}

func TestHeaderPrecedence(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{response(200, nil, "{}")}}
	r := New("https://api.example.com",
		WithClient(doer),
		WithHeaders(map[string]string{
			"Authorization": "Bearer base-secret",
			"Content-Type":  "application/json",
		}),
	)

	_, err := r.Path("bills").Get(context.Background(), Options{Headers: map[string]string{
		"Authorization":   "Bearer per-call",
		"X-Custom-Header": "kept",
	}})
	require.NoError(t, err)
	require.Len(t, doer.requests, 1)

	req := doer.requests[0]
	assert.Equal(t, "Bearer base-secret", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "kept", req.Header.Get("X-Custom-Header"))
}

func TestRetryAfterRateLimit(t *testing.T) {
	var waits []time.Duration
	doer := &fakeDoer{responses: []*http.Response{
		response(429, map[string]string{"Retry-After": "2"}, ""),
		response(200, nil, `{"ok":true}`),
	}}
	r := New("https://api.example.com",
		WithClient(doer),
		withSleep(func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}),
	)

	res, err := r.Path("bills").Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 200, res.StatusCode)
	assert.Len(t, doer.requests, 2)
	require.Len(t, waits, 1)
	assert.Equal(t, 2*time.Second, waits[0])
}

func TestSecondRateLimitNotRetried(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{
		response(429, map[string]string{"Retry-After": "1"}, "slow down"),
		response(429, map[string]string{"Retry-After": "1"}, "still too fast"),
	}}
	r := New("https://api.example.com",
		WithClient(doer),
		withSleep(func(context.Context, time.Duration) error { return nil }),
	)

	res, err := r.Path("bills").Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 429, res.StatusCode)
	assert.Equal(t, []byte("still too fast"), res.Body)
	assert.Len(t, doer.requests, 2)
}

func TestRateLimitWithoutNumericHeaderNotRetried(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter map[string]string
	}{
		{name: "missing header", retryAfter: nil},
		{name: "non-numeric header", retryAfter: map[string]string{"Retry-After": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &fakeDoer{responses: []*http.Response{response(429, tt.retryAfter, "limited")}}
			r := New("https://api.example.com", WithClient(doer))

			res, err := r.Path("bills").Get(context.Background())
			require.NoError(t, err)

			assert.Equal(t, 429, res.StatusCode)
			assert.Len(t, doer.requests, 1)
		})
	}
}

func TestDoMatchesVerbsCaseInsensitively(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{response(200, nil, "")}}
	r := New("https://api.example.com", WithClient(doer))

	_, err := r.Path("bills").Do(context.Background(), "pUt")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, doer.requests[0].Method)

	_, err = r.Path("bills").Do(context.Background(), "frobnicate")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestDispatchSendsBody(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{response(200, nil, "")}}
	r := New("https://api.example.com", WithClient(doer))

	_, err := r.Path("bills", "42").Put(context.Background(), Options{Body: []byte(`{"amount":1}`)})
	require.NoError(t, err)
	assert.Equal(t, `{"amount":1}`, doer.bodies[0])
	assert.Equal(t, "https://api.example.com/bills/42", doer.requests[0].URL.String())
}
