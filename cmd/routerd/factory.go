package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/FairForge/meshrouter/internal/config"
	"github.com/FairForge/meshrouter/internal/router"
)

// hostFactory recognizes a route by the request's Host header and binds
// a Handler from the matching entry in the static backend table loaded
// from RouterConfig. A real sidecar would recognize by whatever the mesh
// control plane hands it (SNI, a discovered service name, ...) and bind
// through its discovery client instead of a config map; this is the
// minimal concrete stand-in the example binary needs to exercise Router.
// Any backend without a specific Type binds a rate-limited passthrough
// to http.DefaultTransport, so admission control lives at the handler
// the Factory binds, not inside the router itself.
type hostFactory struct {
	backends map[string]config.BackendConfig
	logger   *zap.Logger
}

func newHostFactory(backends map[string]config.BackendConfig, logger *zap.Logger) *hostFactory {
	return &hostFactory{backends: backends, logger: logger}
}

func (f *hostFactory) Recognize(req *http.Request) (string, bool) {
	host := req.Host
	if _, known := f.backends[host]; !known {
		return "", false
	}
	return host, true
}

func (f *hostFactory) Bind(key string) (router.Handler, error) {
	backend, ok := f.backends[key]
	if !ok {
		return nil, fmt.Errorf("hostfactory: no backend configured for %q", key)
	}

	switch backend.Type {
	case "s3":
		return newS3Backend(context.Background(),
			backend.Endpoint,
			backend.Options["bucket"],
			backend.Options["access_key"],
			backend.Options["secret_key"],
			f.logger.With(zap.String("route", key)),
		)
	default:
		return newRateLimitedHandler(router.Wrap(http.DefaultTransport), backend.Options), nil
	}
}
