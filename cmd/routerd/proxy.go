package main

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/FairForge/meshrouter/internal/router"
)

// proxyHandler adapts a *router.Router[string] (an http.RoundTripper) into
// an http.Handler for direct use with http.Server, translating Router's
// typed errors into the status codes router.StatusCode assigns them.
type proxyHandler struct {
	router *router.Router[string]
	logger *zap.Logger
}

func (p *proxyHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp, err := p.router.RoundTrip(req)
	if err != nil {
		p.logger.Warn("proxy: dispatch failed", zap.Error(err), zap.String("host", req.Host))
		http.Error(w, err.Error(), router.StatusCode(err))
		return
	}
	defer resp.Body.Close()

	for k, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		p.logger.Warn("proxy: response copy failed", zap.Error(err))
	}
}
