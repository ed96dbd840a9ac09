// Package binder fills request structs from query strings, route parameters
// and datastar signals, for use with handler.Wrap.
package binder

import "net/http"

// Query binds `query:"name"` fields from the URL query. Alternatives can be
// listed as `query:"acc|account"`. Present-but-empty values count as present.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		values := r.URL.Query()
		return bindStruct(v, "query", func(name string) (string, bool) {
			vs, ok := values[name]
			if !ok || len(vs) == 0 {
				return "", false
			}
			return vs[0], true
		}, ErrFailedToParseQuery)
	}
}

// Path binds `path:"name"` fields using extractor, typically chi.URLParam.
// Empty values are treated as absent.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindStruct(v, "path", func(name string) (string, bool) {
			s := extractor(r, name)
			return s, s != ""
		}, ErrFailedToParsePath)
	}
}
