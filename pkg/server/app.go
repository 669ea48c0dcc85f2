package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"PriceWise/pkg/config"
	xhttp "PriceWise/pkg/http"
	pkgkafka "PriceWise/pkg/kafka"
	applogger "PriceWise/pkg/logger"
	"PriceWise/pkg/queue"

	"github.com/prometheus/client_golang/prometheus"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg      *config.Config
	logger   *applogger.Logger
	handlers []xhttp.Handler
	registry *prometheus.Registry
	consumer *pkgkafka.Consumer
	queue    *queue.RedisQueue
	closers  []io.Closer

	httpServer *xhttp.Server
}

type Option func(*App)

// WithConsumer runs c alongside the HTTP server. A nil consumer is ignored.
func WithConsumer(c *pkgkafka.Consumer) Option {
	return func(a *App) {
		a.consumer = c
	}
}

// WithQueue runs the job queue workers. A nil queue is ignored.
func WithQueue(q *queue.RedisQueue) Option {
	return func(a *App) {
		a.queue = q
	}
}

// WithRegistry exposes reg on the configured metrics path.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) {
		a.registry = reg
	}
}

// WithClosers adds resources closed on shutdown, in the given order.
func WithClosers(closers ...io.Closer) Option {
	return func(a *App) {
		a.closers = append(a.closers, closers...)
	}
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, logger *applogger.Logger, handlers []xhttp.Handler, opts ...Option) *App {
	a := &App{cfg: cfg, logger: logger, handlers: handlers}
	for _, opt := range opts {
		opt(a)
	}

	metricsPath := ""
	if a.registry != nil {
		metricsPath = cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(logger, handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true, cfg.Server.CORSOrigins...),
		xhttp.WithMetrics(metricsPath, a.registry),
	)
	return a
}

// HTTP returns the HTTP server.
func (a *App) HTTP() *xhttp.Server { return a.httpServer }

// Run starts every component and blocks until ctx is cancelled or the HTTP server fails.
func (a *App) Run(ctx context.Context) error {
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			a.shutdown()
			return fmt.Errorf("start queue: %w", err)
		}
		a.logger.Info("job queue started", applogger.String("name", a.cfg.Queue.Name), applogger.Int("workers", a.cfg.Queue.Workers))
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.shutdown()
			return fmt.Errorf("start kafka consumer: %w", err)
		}
		a.logger.Info("kafka consumer started", applogger.String("topic", a.cfg.Kafka.Topics.Competitors))
	}

	if err := a.httpServer.Start(); err != nil {
		a.shutdown()
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-a.httpServer.Errors():
		a.logger.Error("http server stopped unexpectedly", applogger.Error(runErr))
	}

	a.shutdown()
	return runErr
}

// shutdown stops intake first, then workers, then closes shared clients.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			a.logger.Warn("job queue stop error", applogger.Error(err))
		}
	}

	// flush aggregated logs while the producer is still open
	a.logger.RemoveCollector()

	var errs []error
	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("resource close error", applogger.Error(err))
	}

	a.logger.Info("shutdown complete")
}
