// Package health exposes the /healthz, /readyz, and /metrics HTTP
// surface for cmd/mrtdecode, adapted from internal/http/server.go: the
// decoder's store/publish sinks are both optional, so readiness only
// checks whichever ones are actually configured.
package health

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger abstracts a health check for testability, matching
// internal/http/server.go's DBChecker interface, generalized to any
// optional sink.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	srv     *http.Server
	store   Pinger
	publish Pinger
	logger  *zap.Logger
}

// NewServer builds the health HTTP server. store and publish may be nil
// when the corresponding sink is not configured; a nil sink is treated
// as trivially ready rather than as a failing check.
func NewServer(addr string, store, publish Pinger, logger *zap.Logger) *Server {
	s := &Server{store: store, publish: publish, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.Handle("/metrics", promhttp.Handler())

	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("health server listening", zap.String("addr", s.srv.Addr))
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("health server error", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	allOK := true

	checkOne := func(name string, p Pinger) {
		if p == nil {
			checks[name] = "disabled"
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			checks[name] = "error"
			allOK = false
		} else {
			checks[name] = "ok"
		}
	}

	checkOne("postgres", s.store)
	checkOne("kafka", s.publish)

	status := "ready"
	httpStatus := http.StatusOK
	if !allOK {
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": checks,
	})
}
