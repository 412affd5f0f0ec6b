package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/UkralStul/blog-publication-service/internal/config"
	"github.com/UkralStul/blog-publication-service/internal/notify"
)

func workerCmd(g *globalFlags) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Execute notification jobs from NATS JetStream",
		Long: `Worker reads notification jobs from the JetStream stream and sends mail.
It needs a shared database (postgres or sqlite) and the nats queue.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), g, metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9091", "Address for /metrics (empty disables)")
	return cmd
}

func runWorker(parent context.Context, g *globalFlags, metricsAddr string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig(g)
	if err != nil {
		return err
	}
	if cfg.Queue.Type != config.QueueNATS {
		return errors.New("worker requires queue type nats")
	}
	if cfg.Storage.Type == config.StorageMemory {
		return errors.New("worker requires a shared database (postgres or sqlite)")
	}

	st, err := openStorage(cfg.Storage, log)
	if err != nil {
		return err
	}
	defer st.close()

	queue, err := openQueue(ctx, cfg.Queue, log)
	if err != nil {
		return err
	}
	defer queue.Close()

	registry := prometheus.NewRegistry()
	metrics := notify.NewMetrics(registry)

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
	}

	log.Info("Notification worker started", "stream", cfg.Queue.NATS.Stream, "consumer", cfg.Queue.NATS.Consumer)
	worker := newWorker(cfg, st, log, metrics)
	if err := queue.Consume(ctx, worker.Execute); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consume: %w", err)
	}
	log.Info("Notification worker stopped")
	return nil
}
