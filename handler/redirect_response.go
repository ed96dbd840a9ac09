package handler

import (
	"net/http"
)

type redirectResponse struct {
	url  string
	code int
}

func (r redirectResponse) Render(w http.ResponseWriter, req *http.Request) error {
	if IsDataStar(req) {
		return sseFor(w, req).Redirect(r.url)
	}
	http.Redirect(w, req, r.url, r.code)
	return nil
}

// Redirect sends the browser to url with 303 See Other. For datastar
// requests the navigation is performed by the page. url may point to
// another origin.
func Redirect(url string) Response {
	return redirectResponse{url: url, code: http.StatusSeeOther}
}
