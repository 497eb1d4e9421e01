package flowzz

import (
	"net/http"
	"sort"
)

// Credentials decorates outgoing requests with session state. Implementations
// own refresh and rotation; the client only calls Apply.
type Credentials interface {
	Apply(req *http.Request)
}

// Anonymous sends no credentials.
type Anonymous struct{}

func (Anonymous) Apply(*http.Request) {}

// SessionCookies attaches a fixed cookie jar copied from a browser session,
// e.g. the next-auth csrf and session tokens.
type SessionCookies map[string]string

func (s SessionCookies) Apply(req *http.Request) {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		req.AddCookie(&http.Cookie{Name: name, Value: s[name]})
	}
}
