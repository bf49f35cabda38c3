package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"RallyScan/internal/usecase"
	pkgch "RallyScan/pkg/clickhouse"
	"RallyScan/pkg/config"
	xhttp "RallyScan/pkg/http"
	pkgkafka "RallyScan/pkg/kafka"
	applogger "RallyScan/pkg/logger"
	"RallyScan/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	scheduler   *usecase.ScanScheduler
	workers     *queue.RedisQueue
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	EventProc   *usecase.EventProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	scheduler *usecase.ScanScheduler,
	workers *queue.RedisQueue,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		scheduler: scheduler,
		workers:   workers,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithHealthCheck(a.chClient.Health),
	)

	// Start the redis-backed scan workers, then the sweep scheduler
	if a.workers != nil {
		if err := a.workers.Start(); err != nil {
			l.Error("scan workers start error", applogger.Error(err))
			return err
		}
		a.workers.StartRetryProcessor()
		l.Info("scan workers started")
	}
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
		l.Info("scan scheduler started", applogger.Strings("symbols", a.cfg.Scan.Symbols))
	}

	// Start on-demand scan consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// best-effort logging via stdout
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop enqueueing first so workers drain cleanly
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.workers != nil {
		if err := a.workers.Stop(ctx); err != nil {
			l.Warn("scan workers stop error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close event processor resources (publisher/storage)
	if a.EventProc != nil {
		a.EventProc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
