package metrics

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

var (
	initOnce    sync.Once
	serverMutex sync.Mutex
	currentSrv  *http.Server

	outcomeMutex sync.RWMutex
	lastOutcome  string
)

// Init initializes all metrics and registers them with Prometheus
// This function is safe to call multiple times (uses sync.Once)
func Init() {
	initOnce.Do(func() {
		initBootstrapMetrics()
		registerBootstrapMetrics()

		// Visible in /metrics before the first run
		LastRunTimestamp.Set(0)
	})
}

func setLastOutcome(outcome string) {
	outcomeMutex.Lock()
	defer outcomeMutex.Unlock()
	lastOutcome = outcome
}

// LastOutcome returns the outcome of the most recent run, or "" before any run
func LastOutcome() string {
	outcomeMutex.RLock()
	defer outcomeMutex.RUnlock()
	return lastOutcome
}

// Handler returns the mux served by StartServer
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch LastOutcome() {
		case OutcomeFailed:
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"failed","loaded":false}`))
		case OutcomeSuccess:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok","loaded":true}`))
		default:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"starting","loaded":false}`))
		}
	})

	return mux
}

// StartServer starts the metrics HTTP server on the specified address
// Exposes /metrics (Prometheus) and /health
func StartServer(addr string, logger *log.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv != nil {
		logger.Printf("metrics server already running on %s", currentSrv.Addr)
		return
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	currentSrv = srv

	go func() {
		logger.Printf("metrics server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server error: %v", err)
			ErrorsTotal.Inc()
		}
	}()
}

// Shutdown gracefully shuts down the metrics server
func Shutdown(ctx context.Context, logger *log.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv == nil {
		return
	}

	if err := currentSrv.Shutdown(ctx); err != nil {
		logger.Printf("metrics server shutdown error: %v", err)
		ErrorsTotal.Inc()
	}
	currentSrv = nil
}
