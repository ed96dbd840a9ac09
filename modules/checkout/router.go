package checkout

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions selects the parts of the checkout module to mount. Each is
// optional.
type RouterOptions struct {
	// Widget serves the page at / and its actions under /checkout.
	Widget Mountable
	// API serves JSON endpoints under /api.
	API Mountable
	// APIMiddlewares wrap the API only.
	APIMiddlewares []func(http.Handler) http.Handler
}

// Router builds the checkout module router.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/", checkout.Router(checkout.RouterOptions{
//	    Widget: checkout.NewHandlers(svc, views, sessions, accounts),
//	    API:    checkout.NewPlansAPI(svc, log),
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	if opts.API != nil {
		r.With(opts.APIMiddlewares...).Mount("/api", opts.API.Handle())
	}
	if opts.Widget != nil {
		r.Mount("/", opts.Widget.Handle())
	}
	return r
}
