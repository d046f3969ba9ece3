package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feli-codes/Door2Dock/internal/repository"
	"github.com/feli-codes/Door2Dock/pkg/logging"
)

// OpsServer exposes the operational endpoints (/metrics, /healthz)
// while the collector runs continuously
type OpsServer struct {
	server *http.Server
	logger *logging.StructuredLogger
}

// New creates the operational HTTP server
func New(addr string, repo repository.BikeRepository, logger *logging.StructuredLogger) *OpsServer {
	router := mux.NewRouter()

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := repo.HealthCheck(r.Context()); err != nil {
			http.Error(w, "unhealthy: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return &OpsServer{
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start runs the server in the background. Collection never depends on
// it, so a bind failure is logged and otherwise ignored.
func (s *OpsServer) Start() {
	go func() {
		s.logger.Info(context.Background(), "[OPS_START] Operational endpoint listening", logging.Fields{
			"addr": s.server.Addr,
		})

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error(context.Background(), "[OPS_ERROR] Operational endpoint failed", logging.Fields{
				"addr": s.server.Addr,
			}, err)
		}
	}()
}

// Shutdown stops the server gracefully
func (s *OpsServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
