package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/stakeledger/internal/logging"
)

// Handler serves the gatherer at /metrics with gzip when the client asks.
func Handler(g prometheus.Gatherer) http.Handler {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(promhttp.HandlerFor(g, promhttp.HandlerOpts{DisableCompression: true}))
	return handlers.CompressHandler(router)
}

type Server struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewServer(addr string, g prometheus.Gatherer, l logging.Logger) *Server {
	return &Server{address: addr, handler: Handler(g), logger: l.With("module", "metrics_server")}
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping metrics server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting metrics server", "address", "http://"+listener.Addr().String()+"/metrics")

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
