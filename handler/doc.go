// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a bound request value and returns a
// Response. Wrap turns it into an http.HandlerFunc, running binders and
// decorators and routing failures to an ErrorHandler:
//
//	type selectRequest struct {
//		Days int `path:"days"`
//	}
//
//	func selectPlan(ctx handler.Context, req selectRequest) handler.Response {
//		return handler.Templ(views.PlanCards(state), handler.WithTarget("#plans"))
//	}
//
//	r.Post("/plans/select/{days}", handler.Wrap(selectPlan,
//		handler.WithBinders[handler.Context, selectRequest](binder.Path(chi.URLParam)),
//	))
//
// Responses render as plain HTML or JSON for ordinary requests and as
// datastar Server-Sent Events for datastar actions: Templ and TemplMulti
// patch elements, Redirect navigates the browser, SSE streams several
// updates over one request.
//
// The datastar stream of a request is opened lazily, on the first call to
// Context.SSE or the first SSE-rendered Response. Until then handlers may
// still set headers and cookies.
package handler
