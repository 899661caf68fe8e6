/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package streamserver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/yomguy/servestream-sub001/pkg/auth"
	"github.com/yomguy/servestream-sub001/pkg/config"
	"github.com/yomguy/servestream-sub001/pkg/logger"
	"github.com/yomguy/servestream-sub001/pkg/metadata"
	"github.com/yomguy/servestream-sub001/pkg/metrics"
	"github.com/yomguy/servestream-sub001/pkg/resolver"
	"github.com/yomguy/servestream-sub001/pkg/streamdb"
	"github.com/yomguy/servestream-sub001/pkg/transport"
)

// Server exposes the resolver and the stream list over HTTP.
type Server struct {
	cfg       *config.ServerConfig
	store     *streamdb.Store
	registry  *transport.Registry
	resolver  *resolver.Resolver
	enricher  *metadata.Enricher
	authority *auth.Authority
	metrics   *metrics.Metrics
	geo       *geoFilter
	jobs      *jobTracker

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRegistry builds the transports from the server configuration.
func NewRegistry(cfg *config.ServerConfig) *transport.Registry {
	data := cfg.Get()
	return transport.NewRegistry(transport.Options{
		Timeout:     cfg.GetTimeout(),
		UserAgent:   data.UserAgent,
		InsecureTLS: data.InsecureTLS,
	})
}

// NewEnricher builds the metadata enricher from the server configuration.
func NewEnricher(cfg *config.ServerConfig, store *streamdb.Store, registry *transport.Registry, m *metrics.Metrics) *metadata.Enricher {
	data := cfg.Get()
	return metadata.New(store, metadata.NewRegistryFetcher(registry), m, metadata.Options{
		Interval:      cfg.GetEnrichInterval(),
		Burst:         data.Enrich.Burst,
		Workers:       data.Enrich.Workers,
		MaxProbeBytes: data.Enrich.MaxProbeBytes,
	})
}

func New(cfg *config.ServerConfig, store *streamdb.Store, m *metrics.Metrics) (*Server, error) {
	authority, err := auth.New(cfg.GetAuth(), auth.NewConfigUserStore(cfg))
	if err != nil {
		return nil, err
	}

	geo, err := newGeoFilter(cfg.GetSecurity().GeoIP)
	if err != nil {
		return nil, fmt.Errorf("geoip: %w", err)
	}

	registry := NewRegistry(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:      cfg,
		store:    store,
		registry: registry,
		resolver: resolver.New(store, registry, m, resolver.Options{
			CacheTTL:        cfg.GetCacheTTL(),
			MaxPlaylistSize: cfg.Get().MaxPlaylistSize,
		}),
		enricher:  NewEnricher(cfg, store, registry, m),
		authority: authority,
		metrics:   m,
		geo:       geo,
		jobs:      newJobTracker(),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	registerHealthCheckRoutes(r)
	s.registerMetricsRoutes(r)
	s.registerAPIRoutes(r)
	r.Use(s.instrument)
	return s.geo.middleware(r)
}

// Close stops background jobs and releases the GeoIP database. The store is
// owned by the caller.
func (s *Server) Close() {
	s.cancel()
	s.jobs.wait()
	s.geo.Close()
}

// Start serves until SIGINT, SIGTERM or SIGQUIT, then shuts down gracefully.
func (s *Server) Start() error {

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Get().Port),
		Handler: s.Handler(),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	failed := make(chan error, 1)
	go func() {
		logger.Infof("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			failed <- err
		}
	}()

	var serveErr error
	select {
	case <-quit:
	case serveErr = <-failed:
		logger.Errorf("Server failed: %v", serveErr)
	}

	logger.Info("Shutting down server...")
	s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warnf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server shutdown.")
	return serveErr
}
