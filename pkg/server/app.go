package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mid "barflow/internal/middleware"
	"barflow/internal/usecase"
	pkgch "barflow/pkg/clickhouse"
	"barflow/pkg/config"
	xhttp "barflow/pkg/http"
	pkgkafka "barflow/pkg/kafka"
	applogger "barflow/pkg/logger"
)

// App encapsulates the entire application lifecycle: tick consumer, the
// consolidation run, and the HTTP/websocket surface.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	consumer    *pkgkafka.Consumer
	ticks       pkgkafka.MessageHandler
	pipeline    *mid.TickPipeline
	run         *usecase.ConsolidatorRun
	proc        *usecase.BarProcessor
	broker      *usecase.BarBroker
	chClient    *pkgch.Client
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	consumer *pkgkafka.Consumer,
	ticks pkgkafka.MessageHandler,
	pipeline *mid.TickPipeline,
	run *usecase.ConsolidatorRun,
	proc *usecase.BarProcessor,
	broker *usecase.BarBroker,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		consumer:    consumer,
		ticks:       ticks,
		pipeline:    pipeline,
		run:         run,
		proc:        proc,
		broker:      broker,
		chClient:    chClient,
		httpHandler: httpHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.run.Start(ctx)
	a.pipeline.Start(ctx)

	a.consumer.RegisterHandler(a.ticks)
	go func() {
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer error", applogger.Error(err))
		}
	}()
	a.log.Info("tick consumer started",
		applogger.String("topic", a.ticks.Topic()),
		applogger.Strings("symbols", a.cfg.Consolidation.Symbols),
		applogger.Strings("timeframes", a.cfg.Consolidation.Timeframes),
		applogger.String("venue", a.cfg.Venue))

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops ingestion first, then flushes open buckets so partial bars
// are routed before the backends close.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	a.pipeline.Stop()

	a.run.Flush()
	a.log.Info("open buckets flushed")

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}
	if a.broker != nil {
		a.broker.Close()
	}
	if a.proc != nil {
		a.proc.Close()
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
