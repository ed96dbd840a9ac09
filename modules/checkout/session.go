package checkout

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ludens-school/paywidget/pkg/cookie"
)

const SessionCookie = "paywidget_sid"

// Sessions issues the signed cookie that identifies a visitor's state.
type Sessions struct {
	cookies *cookie.Manager
	maxAge  int
}

func NewSessions(cookies *cookie.Manager, ttl time.Duration) *Sessions {
	return &Sessions{cookies: cookies, maxAge: int(ttl / time.Second)}
}

// ID returns the session id of r, issuing a new one when r has none or its
// cookie does not verify. The cookie is refreshed on every call.
func (s *Sessions) ID(w http.ResponseWriter, r *http.Request) string {
	id, err := s.cookies.GetSigned(r, SessionCookie)
	if err != nil || uuid.Validate(id) != nil {
		id = uuid.NewString()
	}
	s.cookies.SetSigned(w, SessionCookie, id, cookie.WithMaxAge(s.maxAge))
	return id
}
