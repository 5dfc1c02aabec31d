package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"SocialPulse/internal/middleware"
	"SocialPulse/internal/usecase"
	pkgch "SocialPulse/pkg/clickhouse"
	"SocialPulse/pkg/config"
	xhttp "SocialPulse/pkg/http"
	pkgkafka "SocialPulse/pkg/kafka"
	"SocialPulse/pkg/logger"
	"SocialPulse/pkg/queue"
)

// App owns the process lifecycle: ingest, engine, queue and HTTP.
type App struct {
	cfg      *config.Config
	logger   *logger.Logger
	engine   *usecase.SignalEngine
	pipeline *middleware.IngestPipeline
	consumer *pkgkafka.Consumer
	posts    pkgkafka.MessageHandler
	jobQueue *queue.RedisQueue
	chClient *pkgch.Client

	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

// New assembles the application. Consumer, queue and clickhouse client
// may be nil when the corresponding subsystem is disabled.
func New(
	cfg *config.Config,
	lgr *logger.Logger,
	engine *usecase.SignalEngine,
	pipeline *middleware.IngestPipeline,
	consumer *pkgkafka.Consumer,
	posts pkgkafka.MessageHandler,
	jobQueue *queue.RedisQueue,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:      cfg,
		logger:   lgr,
		engine:   engine,
		pipeline: pipeline,
		consumer: consumer,
		posts:    posts,
		jobQueue: jobQueue,
		chClient: chClient,
	}
}

// SetHTTPHandler injects the route handler before Run.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts every subsystem and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.engine.Init()
	a.pipeline.Start(ctx)

	if a.consumer != nil && a.posts != nil {
		if err := a.consumer.RegisterHandler(a.posts); err != nil {
			return err
		}
		if err := a.consumer.Start(ctx); err != nil {
			return err
		}
		a.logger.Info("kafka consumer started", logger.String("topic", a.posts.Topic()))
	}

	if a.jobQueue != nil {
		if err := a.jobQueue.Start(); err != nil {
			a.logger.Error("job queue start failed", logger.Error(err))
		}
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithServerTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	)
	if err := a.httpServer.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// stop intake first so the engine drains cleanly
	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("kafka consumer stop", logger.Error(err))
		}
	}
	a.pipeline.Stop()

	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			a.logger.Warn("job queue stop", logger.Error(err))
		}
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Warn("http server stop", logger.Error(err))
	}

	a.engine.Close()

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close", logger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
