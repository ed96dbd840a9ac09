package checkout_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ludens-school/paywidget/modules/checkout"
	"github.com/ludens-school/paywidget/pkg/cookie"
	"github.com/ludens-school/paywidget/pkg/plans"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	doc   any
	err   error
	// gate, when set, holds every call until it is closed.
	gate    chan struct{}
	entered chan struct{}
}

func (s *fakeSource) Plans(ctx context.Context, _ string) (any, error) {
	s.mu.Lock()
	s.calls++
	doc, err, gate, entered := s.doc, s.err, s.gate, s.entered
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return doc, err
}

func (s *fakeSource) set(doc any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc, s.err = doc, err
}

func (s *fakeSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	pageURL  string
	err      error
	account  string
	plan     string
	currency string
}

func (g *fakeGateway) CreatePremium(_ context.Context, account, plan, currency string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.account, g.plan, g.currency = account, plan, currency
	return g.pageURL, g.err
}

func (g *fakeGateway) TokenCheckoutURL(account string, tokens int, currency string) string {
	q := url.Values{"account": {account}, "tokens": {fmt.Sprint(tokens)}, "currency": {currency}}
	return "https://pay.test/pay/api/create?" + q.Encode()
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func catalogDoc() any {
	return map[string]any{"plans": []any{
		map[string]any{"code": "PREM_30", "amount_minor": 9900.0, "days": 30.0},
	}}
}

func newService(t *testing.T, src *fakeSource, gw *fakeGateway, opts ...checkout.ServiceOption) *checkout.Service {
	t.Helper()

	f, err := plans.NewFetcher(src, "UAH")
	require.NoError(t, err)
	opts = append([]checkout.ServiceOption{checkout.WithCurrencies("UAH", "USD", "EUR")}, opts...)
	svc, err := checkout.NewService(checkout.NewMemoryStore(100, time.Hour), f, gw, opts...)
	require.NoError(t, err)
	return svc
}

// openPage starts a page in session and returns its state key.
func openPage(t *testing.T, svc *checkout.Service, session string, q checkout.PageQuery) string {
	t.Helper()

	st, err := svc.Start(context.Background(), session, q, "")
	require.NoError(t, err)
	return checkout.PageKey(session, st.PageID)
}

func newCookies(t *testing.T) *cookie.Manager {
	t.Helper()

	m, err := cookie.New([]string{strings.Repeat("k", 32)})
	require.NoError(t, err)
	return m
}

// browser replays the cookies the widget sets, like a real visitor. Actions
// carry the page id of the last page opened unless actionOn names another.
type browser struct {
	t  *testing.T
	h  http.Handler
	mu sync.Mutex
	// guarded by mu
	cookies map[string]*http.Cookie
	page    string
}

var pageIDPattern = regexp.MustCompile(`&#34;pageId&#34;:&#34;([0-9a-f-]{36})&#34;`)

func newBrowser(t *testing.T, src *fakeSource, gw *fakeGateway) *browser {
	t.Helper()

	svc := newService(t, src, gw)
	tr, err := checkout.LoadTranslations("ru", nil)
	require.NoError(t, err)
	cookies := newCookies(t)
	views := checkout.NewViews(tr)

	h := checkout.Router(checkout.RouterOptions{
		Widget: checkout.NewHandlers(svc, views, checkout.NewSessions(cookies, time.Hour), checkout.NewCookieAccountStore(cookies)),
		API:    checkout.NewPlansAPI(svc, nil),
	})
	return &browser{t: t, h: h, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(r *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()

	b.mu.Lock()
	for _, c := range b.cookies {
		r.AddCookie(c)
	}
	b.mu.Unlock()

	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, r)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

// get opens target; a rendered checkout page becomes the current page.
func (b *browser) get(target string) *httptest.ResponseRecorder {
	rec := b.do(httptest.NewRequest(http.MethodGet, target, nil))
	if m := pageIDPattern.FindStringSubmatch(rec.Body.String()); m != nil {
		b.mu.Lock()
		b.page = m[1]
		b.mu.Unlock()
	}
	return rec
}

// open renders a page and returns its id, like opening a new tab.
func (b *browser) open(target string) string {
	b.t.Helper()

	rec := b.get(target)
	require.Equal(b.t, http.StatusOK, rec.Code)
	m := pageIDPattern.FindStringSubmatch(rec.Body.String())
	require.NotNil(b.t, m, "page carries its id in the signals")
	return m[1]
}

// action posts signals the way the datastar client does.
func (b *browser) action(path, signals string) string {
	b.t.Helper()

	b.mu.Lock()
	page := b.page
	b.mu.Unlock()
	return b.actionOn(page, path, signals)
}

// actionOn posts signals from the page with the given id.
func (b *browser) actionOn(page, path, signals string) string {
	b.t.Helper()

	fields := map[string]any{}
	require.NoError(b.t, json.Unmarshal([]byte(signals), &fields))
	if _, ok := fields["pageId"]; !ok && page != "" {
		fields["pageId"] = page
	}
	payload, err := json.Marshal(fields)
	require.NoError(b.t, err)

	rec := b.do(datastarPost(path, string(payload)))
	require.Equal(b.t, http.StatusOK, rec.Code, rec.Body.String())
	body, err := io.ReadAll(rec.Body)
	require.NoError(b.t, err)
	return string(body)
}

func datastarPost(path, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	r.Header.Set("Datastar-Request", "true")
	r.Header.Set("Content-Type", "application/json")
	return r
}

func newPlainPost(target string) *http.Request {
	return httptest.NewRequest(http.MethodPost, target, nil)
}
