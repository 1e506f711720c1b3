package router

import "net/http"

// Single is a degenerate Router with exactly one route: it recognizes
// every request and always dispatches to the same Handler. Useful for a
// proxy direction that fronts a single backend and has no use for a
// cache, retention policy, or Factory at all.
type Single struct {
	handler Handler
}

// NewSingle wraps handler as a one-route Router.
func NewSingle(handler Handler) *Single {
	return &Single{handler: handler}
}

func (s *Single) RoundTrip(req *http.Request) (*http.Response, error) {
	return s.handler.RoundTrip(req)
}
