package binder

import (
	"errors"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"
)

// Signals decodes datastar signals into v using its json tags. Requests
// that did not come from datastar are reported as not applicable.
func Signals() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if !fromDatastar(r) {
			return ErrBinderNotApplicable
		}
		if err := datastar.ReadSignals(r, v); err != nil {
			return errors.Join(ErrFailedToReadSignals, err)
		}
		return nil
	}
}

func fromDatastar(r *http.Request) bool {
	if r.Header.Get("Datastar-Request") == "true" {
		return true
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Has("datastar")
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
