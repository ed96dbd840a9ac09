package clientip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ludens-school/paywidget/pkg/clientip"
)

func TestFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "203.0.113.7:5123", want: "203.0.113.7"},
		{name: "remote addr without port", remote: "203.0.113.7", want: "203.0.113.7"},
		{name: "cloudflare first", headers: map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "198.51.100.2"}, remote: "10.0.0.1:1", want: "198.51.100.1"},
		{name: "first valid forwarded entry", headers: map[string]string{"X-Forwarded-For": "junk, 198.51.100.9, 10.0.0.2"}, remote: "10.0.0.1:1", want: "198.51.100.9"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": " 2001:db8::1 "}, remote: "10.0.0.1:1", want: "2001:db8::1"},
		{name: "garbage everywhere", headers: map[string]string{"X-Real-IP": "nope"}, remote: "nope", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.FromRequest(r))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var seen, key string
	h := clientip.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = clientip.FromContext(r.Context())
		key = clientip.Key(r)
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "198.51.100.4")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "198.51.100.4", seen)
	assert.Equal(t, "198.51.100.4", key)

	attr, ok := clientip.LoggerExtractor()(clientip.WithContext(context.Background(), seen))
	assert.True(t, ok)
	assert.Equal(t, "client_ip", attr.Key)

	_, ok = clientip.LoggerExtractor()(context.Background())
	assert.False(t, ok)
}
