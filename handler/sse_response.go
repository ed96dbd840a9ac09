package handler

import (
	"net/http"
)

// SSEHandler drives one datastar stream. The stream ends when it returns.
type SSEHandler func(ctx StreamContext) error

type sseResponse struct {
	handler SSEHandler
}

func (s sseResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if !IsDataStar(r) {
		return ErrDataStarRequired
	}
	base := NewContext(w, r)
	sse := base.SSE()
	if sse == nil {
		return ErrSSENotInitialized
	}
	return s.handler(&streamContext{Context: base, sse: sse})
}

// SSE returns a Response that hands the open stream to h. Use it when a
// handler must send patches before and after slow work.
func SSE(h SSEHandler) Response {
	return sseResponse{handler: h}
}
