package di

import (
	"context"
	"fmt"
	"time"

	"barflow/internal/calendar"
	domrepo "barflow/internal/domain/repository"
	"barflow/internal/handler/api"
	mid "barflow/internal/middleware"
	internalrepo "barflow/internal/repository"
	"barflow/internal/usecase"
	"barflow/pkg/cache"
	pkgch "barflow/pkg/clickhouse"
	"barflow/pkg/config"
	xhttp "barflow/pkg/http"
	pkgkafka "barflow/pkg/kafka"
	applogger "barflow/pkg/logger"
	"barflow/pkg/metrics"
	"barflow/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{Level: "info", Format: "json", Output: "stdout"}
	if cfg.Environment == "development" {
		lc.Level = "debug"
		lc.Format = "console"
	}
	return applogger.New(lc)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideHours resolves the venue calendar from config.
func ProvideHours(cfg *config.Config) (calendar.Hours, error) {
	return calendar.ForVenue(calendar.Venue(cfg.Venue))
}

// ProvideTimeframes parses and orders the configured consolidation timeframes.
func ProvideTimeframes(cfg *config.Config) ([]domrepo.Timeframe, error) {
	tfs := make([]domrepo.Timeframe, 0, len(cfg.Consolidation.Timeframes))
	for _, s := range cfg.Consolidation.Timeframes {
		tf := domrepo.Timeframe(s)
		if !domrepo.IsValidTimeframe(tf) {
			return nil, fmt.Errorf("unsupported timeframe %q", s)
		}
		tfs = append(tfs, tf)
	}
	return tfs, nil
}

// ProvideClickHouseClient creates a ClickHouse client and applies the candle
// schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	schema := internalrepo.NewClickHouseCandleStore(client.DB(), cfg.ClickHouse.Database).SchemaStatements()
	if err := client.InitSchema(ctx, schema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideCandleStore creates ClickHouse candle storage.
func ProvideCandleStore(chClient *pkgch.Client, log *applogger.Logger, cfg *config.Config) domrepo.CandleStore {
	store := internalrepo.NewClickHouseCandleStore(chClient.DB(), cfg.ClickHouse.Database)
	store.SetLogger(log)
	return store
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideBarPublisher creates the Kafka bar publisher.
func ProvideBarPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.CandlePublisher {
	return internalrepo.NewKafkaBarPublisher(producer, cfg.Kafka.BarsTopic)
}

// ProvideLatestCache creates the latest-bar cache, Redis-backed when enabled.
func ProvideLatestCache(cfg *config.Config) (domrepo.LatestCache, error) {
	var svc cache.Service
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Redis.Host, cfg.Redis.Port),
			cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = rc
	} else {
		svc = cache.NewMemoryCache(cache.WithMaxSize(4096))
	}
	return internalrepo.NewCachedLatestBars(svc, time.Hour), nil
}

// ProvideKafkaConsumer creates the tick consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideBarBroker creates the live bar broker.
func ProvideBarBroker() *usecase.BarBroker {
	return usecase.NewBarBroker()
}

// ProvideBarProcessor creates the bar routing use case.
func ProvideBarProcessor(
	pub domrepo.CandlePublisher,
	store domrepo.CandleStore,
	latest domrepo.LatestCache,
	m domrepo.Metrics,
	cfg *config.Config,
) *usecase.BarProcessor {
	return usecase.NewBarProcessor(pub, store, latest, m, cfg.Backend.Type)
}

// ProvideConsolidatorRun creates the per-symbol consolidation runner.
func ProvideConsolidatorRun(
	log *applogger.Logger,
	hours calendar.Hours,
	tfs []domrepo.Timeframe,
	proc *usecase.BarProcessor,
	broker *usecase.BarBroker,
	m domrepo.Metrics,
) (*usecase.ConsolidatorRun, error) {
	return usecase.NewConsolidatorRun(log, hours, tfs, proc, broker, m)
}

// ProvideTickPipeline creates the validation/throttle pipeline in front of
// the consolidation run.
func ProvideTickPipeline(run *usecase.ConsolidatorRun, m domrepo.Metrics, cfg *config.Config) *mid.TickPipeline {
	return mid.NewTickPipeline(run, m,
		mid.WithSymbols(cfg.Consolidation.Symbols),
		mid.WithBufferSize(2000),
	)
}

// ProvideKafkaTicksHandler decodes the ticks topic into the pipeline.
func ProvideKafkaTicksHandler(log *applogger.Logger, pipe *mid.TickPipeline, m domrepo.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(log, cfg.Kafka.TicksTopic, pipe, m)
}

// ProvideHTTPHandler combines the REST and websocket surfaces.
func ProvideHTTPHandler(
	log *applogger.Logger,
	store domrepo.CandleStore,
	latest domrepo.LatestCache,
	m domrepo.Metrics,
	hours calendar.Hours,
	broker *usecase.BarBroker,
) xhttp.Handler {
	candles := usecase.NewCandlesUseCase(store, latest, m)
	session := usecase.NewSessionUseCase()
	vol := usecase.NewRealizedVolEstimator(store, hours)
	return xhttp.Handlers{
		api.NewCandlesHandler(log, candles, session, vol, store.Health),
		api.NewBarStreamHandler(log, broker),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	consumer *pkgkafka.Consumer,
	ticks *usecase.KafkaTicksHandler,
	pipe *mid.TickPipeline,
	run *usecase.ConsolidatorRun,
	proc *usecase.BarProcessor,
	broker *usecase.BarBroker,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *server.App {
	return server.New(cfg, log, consumer, ticks, pipe, run, proc, broker, chClient, httpHandler)
}
