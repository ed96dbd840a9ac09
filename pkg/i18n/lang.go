package i18n

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

const (
	QueryParam = "lang"
	CookieName = "lang"
)

type langKey struct{}

func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LanguageFromContext returns the negotiated language or fallback.
func LanguageFromContext(ctx context.Context, fallback string) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok && lang != "" {
		return lang
	}
	return fallback
}

// Negotiator picks one of the supported languages for a request.
type Negotiator struct {
	supported []string
	matcher   language.Matcher
}

// NewNegotiator builds a negotiator; the first language is the fallback.
func NewNegotiator(supported ...string) *Negotiator {
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		tags = append(tags, language.Make(s))
	}
	return &Negotiator{supported: supported, matcher: language.NewMatcher(tags)}
}

// Negotiate checks the lang query parameter, then the lang cookie, then
// Accept-Language.
func (n *Negotiator) Negotiate(r *http.Request) string {
	if len(n.supported) == 0 {
		return DefaultLanguage
	}

	var prefs []language.Tag
	if q := r.URL.Query().Get(QueryParam); q != "" {
		if tag, err := language.Parse(q); err == nil {
			prefs = append(prefs, tag)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if tag, err := language.Parse(c.Value); err == nil {
			prefs = append(prefs, tag)
		}
	}
	if header := r.Header.Get("Accept-Language"); header != "" {
		if tags, _, err := language.ParseAcceptLanguage(header); err == nil {
			prefs = append(prefs, tags...)
		}
	}
	if len(prefs) == 0 {
		return n.supported[0]
	}

	_, idx, conf := n.matcher.Match(prefs...)
	if conf == language.No {
		return n.supported[0]
	}
	return n.supported[idx]
}

// Middleware stores the negotiated language in the request context.
func Middleware(n *Negotiator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := n.Negotiate(r)
			w.Header().Set("Content-Language", lang)
			next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), lang)))
		})
	}
}
