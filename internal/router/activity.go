package router

import (
	"io"
	"net/http"

	"github.com/FairForge/meshrouter/internal/activity"
)

// Handler is a route's dispatch target: an http.RoundTripper that also
// reports whether it currently has request or response bodies still
// in flight. Router's retention policies use Idle to decide whether a
// cached entry may be evicted.
type Handler interface {
	http.RoundTripper
	Idle() bool
}

// Wrap adapts a bare http.RoundTripper into a Handler by attaching an
// activity token to the request body for its full lifetime, and a second,
// independent token to the response body for its full lifetime. The two
// are tracked separately because request and response bodies are
// streamed independently and may outlive one another; a route is idle
// only once both directions have drained.
func Wrap(inner http.RoundTripper) Handler {
	return &activityWrap{inner: inner, tracker: activity.NewTracker()}
}

type activityWrap struct {
	inner   http.RoundTripper
	tracker *activity.Tracker
}

func (w *activityWrap) Idle() bool { return w.tracker.IsIdle() }

func (w *activityWrap) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody {
		req.Body = &activityBody{ReadCloser: req.Body, token: w.tracker.Acquire()}
	}

	resp, err := w.inner.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Body != nil && resp.Body != http.NoBody {
		resp.Body = &activityBody{ReadCloser: resp.Body, token: w.tracker.Acquire()}
	}

	return resp, nil
}

// activityBody releases its activity token when closed, whether or not
// it was fully read. A token never released leaves the route pinned
// active forever, same as a leaked AccessGuard in routecache — a caller
// bug, not something this wrapper can guard against.
type activityBody struct {
	io.ReadCloser
	token *activity.Token
}

func (b *activityBody) Close() error {
	err := b.ReadCloser.Close()
	b.token.Release()
	return err
}
