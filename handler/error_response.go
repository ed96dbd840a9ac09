package handler

import "net/http"

type errorResponse struct {
	err error
}

func (e errorResponse) Render(http.ResponseWriter, *http.Request) error {
	if e.err == nil {
		return ErrNilResponse
	}
	return e.err
}

// Error hands err to the ErrorHandler configured for the route.
func Error(err error) Response {
	return errorResponse{err: err}
}

type noContentResponse struct{}

func (noContentResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// NoContent answers 204, which datastar treats as "nothing to patch".
func NoContent() Response {
	return noContentResponse{}
}
