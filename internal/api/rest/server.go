package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server hosts the API HTTP surface and lifecycle.
type Server struct {
	httpServer *http.Server
}

// NewServer wraps the handler in an HTTP server on addr. The handler is
// instrumented for tracing; spans are dropped unless a tracer provider
// was installed at startup.
func NewServer(addr string, handler http.Handler) (*Server, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("http address is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           otelhttp.NewHandler(handler, "freshcart.api"),
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return errors.New("server is not configured")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close force-closes open connections.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
}
