package router

import (
	"errors"
	"fmt"
)

// ErrNotRecognized is returned when the Factory's Recognize step finds no
// key for the request.
var ErrNotRecognized = errors.New("route not recognized")

// RouteError wraps a failure from Factory.Bind.
type RouteError struct {
	Err error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("route recognition failed: %s", e.Err)
}

func (e *RouteError) Unwrap() error { return e.Err }

// NoCapacityError reports that the route cache had no free slot and the
// retention sweep freed nothing.
type NoCapacityError struct {
	Capacity int
}

func (e *NoCapacityError) Error() string {
	return fmt.Sprintf("router capacity reached (%d)", e.Capacity)
}

// StatusCode maps a Router error to the HTTP status an edge should return
// for it. Inner errors (returned verbatim from a bound Handler) and
// recognition/binding failures are treated as server errors; NoCapacity is
// the router's sole form of backpressure and maps to 503.
func StatusCode(err error) int {
	if err == nil {
		return 200
	}

	var noCapacity *NoCapacityError
	if errors.As(err, &noCapacity) {
		return 503
	}

	return 500
}
