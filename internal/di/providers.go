package di

import (
    "context"
    "fmt"
    "net"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/segmentio/kafka-go"

    "RallyScan/internal/domain/repository"
    domsvc "RallyScan/internal/domain/service"
    "RallyScan/internal/handler/api"
    internalrepo "RallyScan/internal/repository"
    icache "RallyScan/internal/service/cache"
    "RallyScan/internal/services/detect"
    "RallyScan/internal/usecase"
    pkgcache "RallyScan/pkg/cache"
    pkgch "RallyScan/pkg/clickhouse"
    "RallyScan/pkg/config"
    xhttp "RallyScan/pkg/http"
    pkgkafka "RallyScan/pkg/kafka"
    applogger "RallyScan/pkg/logger"
    "RallyScan/pkg/metrics"
    "RallyScan/pkg/queue"
    "RallyScan/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Bar tables are written by the upstream feature stage; create them
	// idempotently so a fresh environment comes up queryable.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	barDDL := func(table string) string {
		return `CREATE TABLE IF NOT EXISTS ` + table + ` (
            bucket  DateTime64(3),
            symbol  LowCardinality(String),
            open    Float64,
            high    Float64,
            low     Float64,
            close   Float64,
            vol     Float64,
            atr     Nullable(Float64),
            vol_rel Nullable(Float64),
            rsi     Nullable(Float64)
        ) ENGINE = ReplacingMergeTree ORDER BY (symbol, bucket)`
	}
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS rallyscan",
		barDDL("rallyscan.bars_15m"),
		barDDL("rallyscan.bars_1h"),
		barDDL("rallyscan.bars_4h"),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
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

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
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

// ProvideRedisClient creates the shared Redis client for queue and cache.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCacheService builds the shared cache: layered (memory over Redis)
// when Redis is enabled so scan locks work across processes, in-process
// otherwise.
func ProvideCacheService(cfg *config.Config, l *applogger.Logger) pkgcache.Service {
	if cfg.Redis.Enabled {
		host, port := splitHostPort(cfg.Redis.Addr, 6379)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Redis.Password),
			pkgcache.WithRedisDB(cfg.Redis.DB),
			pkgcache.WithRedisPrefix("rallyscan"),
		)
		if err == nil {
			return pkgcache.NewLayeredCache(rc)
		}
		l.Warn("redis cache unavailable, falling back to memory", applogger.Error(err))
	}
	return pkgcache.NewMemoryCache()
}

func splitHostPort(addr string, defPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, defPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defPort
	}
	return host, port
}

// ProvideCachedFeatureStore creates the ClickHouse bar reader behind the cache.
func ProvideCachedFeatureStore(chClient *pkgch.Client, l *applogger.Logger, cache pkgcache.Service, cfg *config.Config) *internalrepo.CachedFeatureStore {
	store := internalrepo.NewCHFeatureStore(chClient)
	store.SetLogger(l)
	return internalrepo.NewCachedFeatureStore(store, cache, cfg.Scan.CacheTTL.Candles)
}

// ProvideFeatureStore exposes the cached store through the domain interface.
func ProvideFeatureStore(store *internalrepo.CachedFeatureStore) repository.FeatureStore {
	return store
}

// ProvideEventStore creates ClickHouse event storage and ensures its schema.
func ProvideEventStore(chClient *pkgch.Client) (repository.EventStore, error) {
	store := internalrepo.NewCHEventStore(chClient)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// ProvideEventPublisher creates the Kafka rally-event publisher.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideDetector builds the rally detector from scan config.
func ProvideDetector(cfg *config.Config, l *applogger.Logger) domsvc.RallyDetector {
	return detect.NewDetector(detect.Params{
		WindowRadius: cfg.Scan.WindowRadius,
		MinGain:      cfg.Scan.MinGainPct,
		MaxLookahead: cfg.Scan.MaxLookahead,
		EventGap:     cfg.Scan.EventGap,
		Thresholds:   cfg.Scan.Buckets,
		Validator: detect.ValidatorParams{
			VolumeThreshold: cfg.Scan.Validator.VolumeThreshold,
			MinRetention:    cfg.Scan.Validator.MinRetention,
			RetentionBars:   cfg.Scan.Validator.RetentionBars,
			Lookforward:     cfg.Scan.Validator.Lookforward,
		},
	}, l)
}

// ProvideScanPipeline creates the per-symbol detection pipeline.
func ProvideScanPipeline(
	store repository.FeatureStore,
	detector domsvc.RallyDetector,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.ScanPipeline {
	return usecase.NewScanPipeline(store, detector, m, l, cfg.Scan.BarsPerScan, cfg.Scan.Mode)
}

// ProvideEventProcessor routes events to the configured backend.
func ProvideEventProcessor(
	pub repository.Publisher,
	store repository.EventStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.EventProcessor {
	return usecase.NewEventProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideScanQueue creates the Redis-backed scan job queue with its worker pool.
func ProvideScanQueue(
	l *applogger.Logger,
	client *redis.Client,
	pipeline *usecase.ScanPipeline,
	proc *usecase.EventProcessor,
	cache pkgcache.Service,
	cachedStore *internalrepo.CachedFeatureStore,
	cfg *config.Config,
) *queue.RedisQueue {
	qcfg := &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  cfg.Queue.QueueSize,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}
	prefix := cfg.Queue.KeyPrefix
	if prefix == "" {
		prefix = "rallyscan"
	}
	q := queue.NewRedisQueue(l, qcfg, client, queue.ModeProducerConsumer, queue.WithKeyPrefix(prefix))
	q.RegisterJob(usecase.NewScanJob(pipeline, proc, cache, cachedStore, l))
	return q
}

// ProvideScanScheduler creates the periodic symbol sweep.
func ProvideScanScheduler(
	q *queue.RedisQueue,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.ScanScheduler {
	return usecase.NewScanScheduler(q, cfg.Scan.Symbols, cfg.Scan.Interval, m, l)
}

// ProvideKafkaScanHandler registers the handler for on-demand scan requests.
func ProvideKafkaScanHandler(
	pipeline *usecase.ScanPipeline,
	proc *usecase.EventProcessor,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.KafkaScanHandler {
	return usecase.NewKafkaScanHandler(cfg.Kafka.ScanTopic, pipeline, proc, m)
}

// ProvideCandlesUseCase creates the candle retrieval use case.
func ProvideCandlesUseCase(store repository.FeatureStore) *usecase.CandlesUseCase {
	return usecase.NewCandlesUseCase(store)
}

// ProvideSimRunner creates the backtest runner.
func ProvideSimRunner(
	store repository.FeatureStore,
	events repository.EventStore,
	m repository.Metrics,
) *usecase.SimRunner {
	return usecase.NewSimRunner(store, events, m)
}

// ProvideHTTPHandler assembles the API handler, with cached read variants
// backed by Redis when enabled, an in-process TTL cache otherwise.
func ProvideHTTPHandler(
	l *applogger.Logger,
	events repository.EventStore,
	candles *usecase.CandlesUseCase,
	pipeline *usecase.ScanPipeline,
	proc *usecase.EventProcessor,
	simRunner *usecase.SimRunner,
	cfg *config.Config,
) xhttp.Handler {
	h := api.NewRalliesEchoHandler(l, events, candles, pipeline, proc, simRunner)

	cached := api.NewRalliesHandler(events, candles)
	cached.SetLogger(l)
	if cfg.Redis.Enabled {
		cached.SetCache(icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	} else {
		cached.SetCache(icache.NewTTLCache())
	}
	h.SetCachedHandler(cached)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	scheduler *usecase.ScanScheduler,
	workers *queue.RedisQueue,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaScanHandler,
	proc *usecase.EventProcessor,
	handler xhttp.Handler,
	chClient *pkgch.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NewHookChain(
			pkgkafka.NewMetricsHook(),
			pkgkafka.HookFuncs{
				Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
					return pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km)), km, data, nil
				},
			},
		))
	}
	app := server.New(cfg, scheduler, workers, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	app.EventProc = proc
	return app
}
