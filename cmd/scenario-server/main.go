// Command scenario-server is an example long-running process hosting the
// Engine Façade behind a Postgres-backed Catalog, a RabbitMQ Broadcaster,
// and Prometheus metrics, in the shape of the teacher's
// cmd/automata-orchestrator — a signal-driven main with an HTTP mux for
// /healthz and /metrics, and every optional collaborator wired opt-in
// rather than compiled into the core engine.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arsava/scenarios/internal/broadcast"
	"github.com/arsava/scenarios/internal/catalog"
	"github.com/arsava/scenarios/internal/facade"
	"github.com/arsava/scenarios/internal/requester"
	"github.com/arsava/scenarios/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting scenario-server")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := catalog.NewPostgresPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	cat := catalog.NewPostgres(pool)

	eng := facade.New(cat, requester.NewHTTPRequester(), facade.Config{Logger: logger})
	defer eng.Destroy()

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	metrics.Subscribe(eng.Events())

	mqURL := os.Getenv("SCENARIOS_MQ_URL")
	if mqURL == "" {
		mqURL = broadcast.DefaultURL()
	}
	conn, err := broadcast.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running without event broadcast", "error", err)
	} else {
		defer conn.Close()
		b, err := broadcast.New(conn, logger)
		if err != nil {
			logger.Warn("failed to set up broadcaster", "error", err)
		} else {
			b.Subscribe(eng.Events())
			logger.Info("broadcasting events to rabbitmq")
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	port := ":8084"
	if v := os.Getenv("SCENARIOS_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("scenario-server stopped")
}
