// Package qiwi is a client for the QIWI-style P2P bill payments API. It
// models bills through their lifecycle (waiting, paid, rejected, expired)
// and keeps a single identity per bill id across repeated fetches.
package qiwi

import (
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"billpay/pkg/route"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.qiwi.com"

// Keys is the public/secret credential pair. The secret never leaves the
// package: it is stored in an unexported field with no accessor and only
// ever flows into the Authorization header of the base route.
type Keys struct {
	Public string
	secret string
}

// NewKeys builds a credential pair.
func NewKeys(public, secret string) Keys {
	return Keys{Public: public, secret: secret}
}

// Config configures a Client. Zero values fall back to sensible
// defaults; only the keys are mandatory.
type Config struct {
	Keys     Keys
	BaseURL  string
	Client   route.Doer
	Limiter  *rate.Limiter
	Observer route.Observer
	Logger   *slog.Logger
}

// Client is the top-level facade: it holds the credentials, the
// configured base route, and the bill manager.
type Client struct {
	Keys  Keys
	Bills *Manager

	route  route.Route
	logger *slog.Logger
}

// NewClient builds a client from the config.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []route.Option{
		route.WithHeaders(map[string]string{
			"Authorization": "Bearer " + cfg.Keys.secret,
			"Content-Type":  "application/json",
			"Accept":        "application/json",
		}),
		route.WithLogger(logger),
	}
	if cfg.Client != nil {
		opts = append(opts, route.WithClient(cfg.Client))
	}
	if cfg.Limiter != nil {
		opts = append(opts, route.WithLimiter(cfg.Limiter))
	}
	if cfg.Observer != nil {
		opts = append(opts, route.WithObserver(cfg.Observer))
	}

	c := &Client{
		Keys:   cfg.Keys,
		route:  route.New(base, opts...),
		logger: logger,
	}
	c.Bills = newManager(c)
	return c
}

// Route returns the configured base route; extensions of it never
// interfere with each other or with the client's own requests.
func (c *Client) Route() route.Route {
	return c.route
}

// handleResponse is the single point separating wire errors from domain
// results: any non-2xx response becomes an *APIError carrying the raw,
// unparsed body; a 2xx body is decoded into the bill payload.
func (c *Client) handleResponse(res *route.Response, err error) (BillPayload, error) {
	if err != nil {
		return BillPayload{}, err
	}
	if !res.OK() {
		return BillPayload{}, &APIError{StatusCode: res.StatusCode, Body: res.Body}
	}

	var payload BillPayload
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return BillPayload{}, errors.Wrap(err, "decode bill payload")
	}
	return payload, nil
}
