package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/starfederation/datastar-go/datastar"
)

// Context carries the request, its writer and, for datastar requests, the
// event stream.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	// SSE opens the datastar stream on first use. It returns nil for
	// requests that did not come from datastar.
	SSE() *datastar.ServerSentEventGenerator
}

func NewContext(w http.ResponseWriter, r *http.Request) Context {
	rw, ok := w.(*responseWriter)
	if !ok {
		rw = &responseWriter{ResponseWriter: w, r: r}
	}
	return &httpContext{w: rw, r: r}
}

type httpContext struct {
	w *responseWriter
	r *http.Request
}

func (c *httpContext) Request() *http.Request              { return c.r }
func (c *httpContext) ResponseWriter() http.ResponseWriter { return c.w }

func (c *httpContext) SSE() *datastar.ServerSentEventGenerator {
	if !IsDataStar(c.r) {
		return nil
	}
	return c.w.stream()
}

func (c *httpContext) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }
func (c *httpContext) Done() <-chan struct{}       { return c.r.Context().Done() }
func (c *httpContext) Err() error                  { return c.r.Context().Err() }
func (c *httpContext) Value(key any) any           { return c.r.Context().Value(key) }

// responseWriter remembers the request's event stream so every response
// rendered for the request shares one stream.
type responseWriter struct {
	http.ResponseWriter
	r   *http.Request
	sse *datastar.ServerSentEventGenerator
}

func (rw *responseWriter) stream() *datastar.ServerSentEventGenerator {
	if rw.sse == nil {
		rw.sse = datastar.NewSSE(rw.ResponseWriter, rw.r)
	}
	return rw.sse
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

func (rw *responseWriter) Flush() {
	_ = http.NewResponseController(rw.ResponseWriter).Flush()
}

func sseFor(w http.ResponseWriter, r *http.Request) *datastar.ServerSentEventGenerator {
	if rw, ok := w.(*responseWriter); ok {
		return rw.stream()
	}
	return datastar.NewSSE(w, r)
}

// ContextKey is a typed key for context values.
type ContextKey struct{ name string }

func (c *ContextKey) String() string { return c.name }

func NewContextKey(name string) *ContextKey { return &ContextKey{name} }

// ContextValue returns the value stored under key, or the zero T.
func ContextValue[T any](ctx context.Context, key any) T {
	val, _ := ctx.Value(key).(T)
	return val
}

func ContextValueOK[T any](ctx context.Context, key any) (T, bool) {
	val, ok := ctx.Value(key).(T)
	return val, ok
}
