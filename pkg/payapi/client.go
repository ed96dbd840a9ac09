// Package payapi talks to the Ludens payment backend: the premium plan
// catalog, premium checkout creation and the token checkout handoff URL.
package payapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ludens-school/paywidget/pkg/logger"
)

const (
	PlansPath         = "/premium/plans"
	PremiumCreatePath = "/premium/create"
	TokenCreatePath   = "/pay/api/create"

	DefaultCurrency = "UAH"
)

// Client calls the backend anonymously. It never sends cookies or
// credentials and asks intermediaries not to cache. Requests are bounded
// only by the caller's context.
type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its Jar is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			cp.Jar = nil
			c.http = &cp
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidBaseURL
	}
	c := &Client{
		base: u,
		http: &http.Client{},
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: path})
	u.RawQuery = query.Encode()
	return u.String()
}

// PlansURL is the catalog endpoint for currency.
func (c *Client) PlansURL(currency string) string {
	return c.endpoint(PlansPath, url.Values{"currency": {orDefault(currency)}})
}

// PremiumCreateURL is the premium checkout creation endpoint.
func (c *Client) PremiumCreateURL(account, plan, currency string) string {
	return c.endpoint(PremiumCreatePath, url.Values{
		"account":  {account},
		"plan":     {plan},
		"currency": {orDefault(currency)},
	})
}

// TokenCheckoutURL is where the visitor is sent to pay for tokens.
func (c *Client) TokenCheckoutURL(account string, tokens int, currency string) string {
	return c.endpoint(TokenCreatePath, url.Values{
		"account":  {account},
		"tokens":   {strconv.Itoa(tokens)},
		"currency": {orDefault(currency)},
	})
}

// Plans fetches the raw catalog document. The shape is not assumed; see
// plans.Normalize.
func (c *Client) Plans(ctx context.Context, currency string) (any, error) {
	var doc any
	if err := c.getJSON(ctx, "plans", c.PlansURL(currency), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

type createResponse struct {
	PageURL any `json:"page_url"`
}

// CreatePremium asks the backend for a premium checkout page and returns
// its URL.
func (c *Client) CreatePremium(ctx context.Context, account, plan, currency string) (string, error) {
	var resp createResponse
	if err := c.getJSON(ctx, "premium create", c.PremiumCreateURL(account, plan, currency), &resp); err != nil {
		return "", err
	}
	s, _ := resp.PageURL.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrMissingPageURL
	}
	return s, nil
}

func (c *Client) getJSON(ctx context.Context, name, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	c.log.DebugContext(ctx, "payment backend call",
		logger.Component("payapi"),
		logger.Upstream(name),
		logger.StatusCode(resp.StatusCode),
		logger.Duration(time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Endpoint: name, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Join(ErrDecodeResponse, err)
	}
	return nil
}

func orDefault(currency string) string {
	if currency == "" {
		return DefaultCurrency
	}
	return currency
}
