package router

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/FairForge/meshrouter/internal/activity"
	"github.com/FairForge/meshrouter/internal/clock"
	"github.com/FairForge/meshrouter/internal/routecache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mulHandler is a test handler with state v = 1: on request n it sets
// v := v*n and returns v. It remains non-idle for as long as the caller
// holds the response body open.
type mulHandler struct {
	v       int
	tracker *activity.Tracker
}

func newMulHandler() *mulHandler {
	return &mulHandler{v: 1, tracker: activity.NewTracker()}
}

func (h *mulHandler) Idle() bool { return h.tracker.IsIdle() }

func (h *mulHandler) RoundTrip(req *http.Request) (*http.Response, error) {
	n, err := strconv.Atoi(req.Header.Get("X-N"))
	if err != nil {
		return nil, err
	}
	h.v *= n

	header := make(http.Header)
	header.Set("X-V", strconv.Itoa(h.v))
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       &tokenBody{token: h.tracker.Acquire()},
	}, nil
}

// tokenBody carries an activity token for the lifetime of a response
// body: the handler is non-idle until the caller closes it.
type tokenBody struct {
	token *activity.Token
}

func (b *tokenBody) Read([]byte) (int, error) { return 0, io.EOF }
func (b *tokenBody) Close() error             { b.token.Release(); return nil }

func responseValue(t *testing.T, resp *http.Response) int {
	t.Helper()
	v, err := strconv.Atoi(resp.Header.Get("X-V"))
	require.NoError(t, err)
	return v
}

// mulFactory recognizes requests carrying an X-Route header and binds a
// fresh mulHandler per key, counting binds so tests can assert reuse.
type mulFactory struct {
	binds int
}

func (f *mulFactory) Recognize(req *http.Request) (string, bool) {
	key := req.Header.Get("X-Route")
	if key == "" {
		return "", false
	}
	return key, true
}

func (f *mulFactory) Bind(string) (Handler, error) {
	f.binds++
	return newMulHandler(), nil
}

func mulRequest(route string, n int) *http.Request {
	req := &http.Request{Header: make(http.Header)}
	if route != "" {
		req.Header.Set("X-Route", route)
	}
	req.Header.Set("X-N", strconv.Itoa(n))
	return req
}

func newTestRouter(t *testing.T, capacity int, policy routecache.Policy[Handler], clk clock.Clock, factory *mulFactory) *Router[string] {
	t.Helper()
	cache, err := routecache.New[string, Handler](capacity, policy, clk)
	require.NoError(t, err)
	return New[string](factory, cache)
}

func TestScenario1_RecognitionFailure(t *testing.T) {
	factory := &mulFactory{}
	r := newTestRouter(t, 1, routecache.Always[Handler](), clock.SystemClock{}, factory)

	_, err := r.RoundTrip(mulRequest("", 1))
	assert.ErrorIs(t, err, ErrNotRecognized)
	assert.Equal(t, 0, r.Stats().Items)
}

func TestScenario2_Reuse(t *testing.T) {
	factory := &mulFactory{}
	r := newTestRouter(t, 1, routecache.Always[Handler](), clock.SystemClock{}, factory)

	resp, err := r.RoundTrip(mulRequest("r", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, responseValue(t, resp))
	require.NoError(t, resp.Body.Close())

	resp, err = r.RoundTrip(mulRequest("r", 2))
	require.NoError(t, err)
	assert.Equal(t, 4, responseValue(t, resp))
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, 1, factory.binds, "P7: two calls on the same key resolve via one bind")
}

func TestScenario3_CapacityExhaustion(t *testing.T) {
	factory := &mulFactory{}
	r := newTestRouter(t, 1, routecache.Always[Handler](), clock.SystemClock{}, factory)

	resp, err := r.RoundTrip(mulRequest("r1", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, responseValue(t, resp))
	// response held open: do not close it.

	_, err = r.RoundTrip(mulRequest("r2", 3))
	var noCapacity *NoCapacityError
	require.ErrorAs(t, err, &noCapacity)
	assert.Equal(t, 1, noCapacity.Capacity)
	assert.Equal(t, 1, factory.binds, "P6: bind is not invoked when capacity is exhausted")
}

func TestScenario4_IdleReclamation(t *testing.T) {
	factory := &mulFactory{}
	r := newTestRouter(t, 1, routecache.Never[Handler](), clock.SystemClock{}, factory)

	resp, err := r.RoundTrip(mulRequest("r1", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, responseValue(t, resp))
	require.NoError(t, resp.Body.Close())

	resp, err = r.RoundTrip(mulRequest("r2", 3))
	require.NoError(t, err)
	assert.Equal(t, 3, responseValue(t, resp))
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, 2, factory.binds, "r2 required a new binding once r1 was reclaimed")
}

func TestScenario5_IdleAndAgePolicy(t *testing.T) {
	vc := clock.NewVirtualClock(time.Unix(0, 0))
	policy := routecache.RetainWhileActive[Handler]().Or(routecache.MaxAccessAge[Handler](10*time.Second, vc))
	factory := &mulFactory{}
	r := newTestRouter(t, 1, policy, vc, factory)

	resp, err := r.RoundTrip(mulRequest("r1", 1))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	vc.Set(time.Unix(5, 0))
	_, err = r.RoundTrip(mulRequest("r2", 1))
	var noCapacity *NoCapacityError
	require.ErrorAs(t, err, &noCapacity, "age 5s <= 10s: still retained")

	vc.Set(time.Unix(11, 0))
	resp, err = r.RoundTrip(mulRequest("r2", 1))
	require.NoError(t, err, "age > 10s: evicted, r2 can bind")
	require.NoError(t, resp.Body.Close())
}

func TestScenario6_ActivePin(t *testing.T) {
	vc := clock.NewVirtualClock(time.Unix(0, 0))
	policy := routecache.RetainWhileActive[Handler]().Or(routecache.MaxAccessAge[Handler](10*time.Second, vc))
	factory := &mulFactory{}
	r := newTestRouter(t, 1, policy, vc, factory)

	resp, err := r.RoundTrip(mulRequest("r1", 1))
	require.NoError(t, err)
	// response held open past its age threshold.

	vc.Set(time.Unix(100, 0))
	_, err = r.RoundTrip(mulRequest("r2", 1))
	var noCapacity *NoCapacityError
	require.ErrorAs(t, err, &noCapacity, "age exceeded but still active: retained")

	require.NoError(t, resp.Body.Close())

	resp, err = r.RoundTrip(mulRequest("r2", 1))
	require.NoError(t, err, "now idle: evicted, r2 can bind")
	require.NoError(t, resp.Body.Close())
}

func TestRoundTrip_BindFailure(t *testing.T) {
	bindErr := errors.New("no backend for key")
	factory := &failingBindFactory{err: bindErr}
	r := newTestRouter(t, 1, routecache.Always[Handler](), clock.SystemClock{}, &mulFactory{})
	r.factory = factory

	_, err := r.RoundTrip(mulRequest("r", 1))
	var routeErr *RouteError
	require.ErrorAs(t, err, &routeErr)
	assert.ErrorIs(t, routeErr.Err, bindErr)
	assert.Equal(t, "route recognition failed: no backend for key", err.Error())
}

type failingBindFactory struct {
	err error
}

func (f *failingBindFactory) Recognize(req *http.Request) (string, bool) {
	return req.Header.Get("X-Route"), req.Header.Get("X-Route") != ""
}

func (f *failingBindFactory) Bind(string) (Handler, error) {
	return nil, f.err
}

func TestRoundTrip_InnerErrorSurfacedVerbatim(t *testing.T) {
	innerErr := errors.New("connection refused")
	factory := &erroringHandlerFactory{err: innerErr}
	r := newTestRouter(t, 1, routecache.Always[Handler](), clock.SystemClock{}, &mulFactory{})
	r.factory = factory

	_, err := r.RoundTrip(mulRequest("r", 1))
	assert.Same(t, innerErr, err)
}

type erroringHandlerFactory struct {
	err error
}

func (f *erroringHandlerFactory) Recognize(req *http.Request) (string, bool) {
	return req.Header.Get("X-Route"), req.Header.Get("X-Route") != ""
}

func (f *erroringHandlerFactory) Bind(string) (Handler, error) {
	return &erroringHandler{err: f.err}, nil
}

type erroringHandler struct{ err error }

func (h *erroringHandler) Idle() bool { return true }
func (h *erroringHandler) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, h.err
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 200, StatusCode(nil))
	assert.Equal(t, 503, StatusCode(&NoCapacityError{Capacity: 4}))
	assert.Equal(t, 500, StatusCode(ErrNotRecognized))
	assert.Equal(t, 500, StatusCode(&RouteError{Err: errors.New("x")}))
	assert.Equal(t, 500, StatusCode(errors.New("some inner failure")))
}

func TestSingle(t *testing.T) {
	handler := newMulHandler()
	s := NewSingle(handler)

	resp, err := s.RoundTrip(mulRequest("ignored", 3))
	require.NoError(t, err)
	assert.Equal(t, 3, responseValue(t, resp))
}
