package checkout

import (
	"net/http"

	"github.com/ludens-school/paywidget/pkg/cookie"
)

// AccountKey is the key the last used account name is stored under.
const AccountKey = "ludens_pay_account"

const accountMaxAge = 365 * 24 * 60 * 60

// AccountStore remembers the visitor's account name between visits. Reads
// of missing or damaged values return "" and writes never fail loudly.
type AccountStore interface {
	Get(r *http.Request) string
	Set(w http.ResponseWriter, value string)
}

// CookieAccountStore keeps the account in a signed cookie. The value is
// encoded, so any text can be stored.
type CookieAccountStore struct {
	cookies *cookie.Manager
}

func NewCookieAccountStore(cookies *cookie.Manager) *CookieAccountStore {
	return &CookieAccountStore{cookies: cookies}
}

func (s *CookieAccountStore) Get(r *http.Request) string {
	v, err := s.cookies.GetSigned(r, AccountKey)
	if err != nil {
		return ""
	}
	return v
}

// Set forgets the account when value is empty.
func (s *CookieAccountStore) Set(w http.ResponseWriter, value string) {
	if value == "" {
		s.cookies.Delete(w, AccountKey)
		return
	}
	s.cookies.SetSigned(w, AccountKey, value, cookie.WithMaxAge(accountMaxAge))
}
