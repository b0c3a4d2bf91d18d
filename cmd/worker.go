package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/worker"
)

const shutdownTimeout = 5 * time.Second

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume recommendation jobs from Redis and serve metrics",
	Run: func(_ *cobra.Command, _ []string) {
		log := newLogger()
		if err := runWorker(log); err != nil {
			log.Fatal("running the worker", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}
	if config.RedisURL == "" {
		return errors.New("redis-url (REDIS_URL) is required for the worker")
	}

	env, err := setup(ctx, config, log, false)
	if err != nil {
		return fmt.Errorf("preparing the pipeline: %w", err)
	}
	defer env.Close()

	var sink worker.Sink
	if env.store != nil {
		sink = env.store
	}

	w, err := worker.New(config.Worker, env.redis, env.service, sink, log)
	if err != nil {
		return fmt.Errorf("creating a worker: %w", err)
	}

	server := serveMetrics(config.MetricsAddr, log)

	log.Info("starting the job-recommender worker", zap.String("version", version), zap.String("queue", config.Worker.Queue))
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", zap.Error(err))
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("stopping the metrics server", zap.Error(err))
		}
	}
	log.Info("worker stopped")
	return nil
}

// serveMetrics exposes Prometheus metrics on addr. An empty addr disables it.
func serveMetrics(addr string, log *zap.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))

	return server
}
