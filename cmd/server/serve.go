package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/UkralStul/blog-publication-service/internal/auth"
	"github.com/UkralStul/blog-publication-service/internal/blog"
	"github.com/UkralStul/blog-publication-service/internal/cache"
	"github.com/UkralStul/blog-publication-service/internal/config"
	"github.com/UkralStul/blog-publication-service/internal/feed"
	"github.com/UkralStul/blog-publication-service/internal/httpapi"
	"github.com/UkralStul/blog-publication-service/internal/notify"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var embeddedWorker bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), g, embeddedWorker)
		},
	}
	cmd.Flags().BoolVar(&embeddedWorker, "embedded-worker", true,
		"Execute notification jobs in this process (always on for the memory queue)")
	return cmd
}

func serve(parent context.Context, g *globalFlags, embeddedWorker bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig(g)
	if err != nil {
		return err
	}

	st, err := openStorage(cfg.Storage, log)
	if err != nil {
		return err
	}
	defer st.close()

	if cfg.Storage.Seed {
		if err := seed(ctx, st, log); err != nil {
			return fmt.Errorf("seed storage: %w", err)
		}
	}

	queue, err := openQueue(ctx, cfg.Queue, log)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := notify.NewMetrics(registry)

	observer := feed.NewObserver()
	svc := blog.NewService(st, notify.NewDispatcher(queue, log, metrics), blog.Options{
		Feed:   observer,
		Logger: log,
	})

	sessions := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	sessions.Secure = cfg.Auth.CookieSecure

	handler := httpapi.NewServer(httpapi.Deps{
		Service:     svc,
		Store:       st,
		Sessions:    sessions,
		Pages:       cache.NewLRU(cfg.Cache.Size, cfg.Cache.TTL),
		Feed:        observer,
		Logger:      log,
		Registry:    registry,
		CORSOrigins: httpapi.NormalizeOrigins(cfg.HTTP.CORSOrigins),
		Health:      st.ping,
	})

	// Очередь в памяти некому читать, кроме этого процесса
	if cfg.Queue.Type == config.QueueMemory {
		embeddedWorker = true
	}

	consumeCtx, cancelConsume := context.WithCancel(context.Background())
	var consumers sync.WaitGroup
	if embeddedWorker {
		worker := newWorker(cfg, st, log, metrics)
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			if err := queue.Consume(consumeCtx, worker.Execute); err != nil {
				log.Error("Notification consumer stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening",
			"addr", srv.Addr,
			"storage", cfg.Storage.Type,
			"queue", cfg.Queue.Type,
			"embedded_worker", embeddedWorker)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		cancelConsume()
		consumers.Wait()
		_ = queue.Close()
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}

	// Сначала останавливаем потребителей, потом закрываем очередь
	cancelConsume()
	consumers.Wait()
	if err := queue.Close(); err != nil {
		log.Warn("Queue close failed", "error", err)
	}
	return nil
}
