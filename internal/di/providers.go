package di

import (
	"context"
	"fmt"
	"time"

	"PriceWise/internal/domain/repository"
	"PriceWise/internal/handler/api"
	"PriceWise/internal/middleware"
	internalrepo "PriceWise/internal/repository"
	icache "PriceWise/internal/service/cache"
	"PriceWise/internal/service/competitors"
	"PriceWise/internal/service/ratelimit"
	"PriceWise/internal/services/pricing"
	"PriceWise/internal/usecase"
	pkgcache "PriceWise/pkg/cache"
	pkgch "PriceWise/pkg/clickhouse"
	"PriceWise/pkg/config"
	xhttp "PriceWise/pkg/http"
	pkgkafka "PriceWise/pkg/kafka"
	applogger "PriceWise/pkg/logger"
	"PriceWise/pkg/metrics"
	"PriceWise/pkg/queue"
	"PriceWise/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const (
	analysesTable = "pricing_analyses"
	userAgent     = "PriceWise/1.0"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: "pricewise",
	})
}

// ProvideRegistry creates the Prometheus registry served on the metrics path.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideRedisClient connects to Redis, or returns nil when Redis is disabled.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// ProvideCacheService layers an in-process cache over Redis, or uses memory alone.
func ProvideCacheService(cfg *config.Config, client *redis.Client) pkgcache.Service {
	if client == nil {
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Cache.MemoryItems))
	}
	return pkgcache.NewLayeredCache(
		pkgcache.NewRedisCacheFromClient(client, cfg.Cache.Prefix),
		pkgcache.WithLayeredMemorySize(cfg.Cache.MemoryItems),
		pkgcache.WithLayeredMemoryTTL(5*time.Minute),
	)
}

// ProvideCompetitorCache stores merged competitor listings.
func ProvideCompetitorCache(svc pkgcache.Service) repository.CompetitorCache {
	return icache.NewCompetitorCache(svc)
}

// ProvideSources builds the enabled marketplace sources.
func ProvideSources(cfg *config.Config) []repository.CompetitorSource {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Sources.Timeout), xhttp.WithUserAgent(userAgent))
	common := []competitors.Option{competitors.WithClient(client), competitors.WithLimit(cfg.Sources.MaxResults)}

	var sources []repository.CompetitorSource
	if s := cfg.Sources.Etsy; s.Enabled {
		sources = append(sources, competitors.NewEtsy(s.APIKey, append(common, competitors.WithBaseURL(s.BaseURL))...))
	}
	if s := cfg.Sources.Ebay; s.Enabled {
		sources = append(sources, competitors.NewEbay(s.ClientID, s.ClientSecret, append(common, competitors.WithBaseURL(s.BaseURL))...))
	}
	if s := cfg.Sources.Amazon; s.Enabled {
		sources = append(sources, competitors.NewAmazon(s.APIKey, s.Host, append(common, competitors.WithBaseURL(s.BaseURL))...))
	}
	return sources
}

// ProvideSupplier creates the cached fan-out supplier.
func ProvideSupplier(
	cfg *config.Config,
	sources []repository.CompetitorSource,
	cache repository.CompetitorCache,
	m repository.Metrics,
	l *applogger.Logger,
) *competitors.Supplier {
	opts := []competitors.SupplierOption{
		competitors.WithCache(cache),
		competitors.WithTTL(cfg.Cache.TTL),
		competitors.WithSourceTimeout(cfg.Sources.Timeout),
		competitors.WithMetrics(m),
		competitors.WithLogger(l),
	}
	if cfg.Sources.RequestsPerSecond > 0 {
		opts = append(opts, competitors.WithRateLimiter(ratelimit.New(cfg.Sources.RequestsPerSecond, cfg.Sources.Burst)))
	}
	return competitors.NewSupplier(sources, opts...)
}

// ProvideEngine creates the pricing engine.
func ProvideEngine(cfg *config.Config, l *applogger.Logger) *pricing.Engine {
	return pricing.NewEngine(
		pricing.WithScenarioCount(cfg.Pricing.ScenarioCount),
		pricing.WithLogger(l),
	)
}

// chStore closes the ClickHouse pool together with the store.
type chStore struct {
	*internalrepo.ClickHouseStore
	client *pkgch.Client
}

func (s chStore) Close() error { return s.client.Close() }

// ProvideAnalysisStore opens the configured analysis store and makes sure its schema exists.
func ProvideAnalysisStore(cfg *config.Config) (repository.AnalysisStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch cfg.Storage.Backend {
	case config.StorageClickHouse:
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store := internalrepo.NewClickHouseStore(client.DB(), cfg.ClickHouse.Database+"."+analysesTable)
		stmts := append([]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database}, store.Schema()...)
		if err := client.InitSchema(ctx, stmts); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return chStore{ClickHouseStore: store, client: client}, nil

	case config.StoragePostgres:
		store, err := internalrepo.NewPostgresStore(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.ConnectTimeout)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.MigrateOnStart {
			if err := store.Init(ctx); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
		return store, nil

	default:
		return internalrepo.NewMemoryStore(), nil
	}
}

// ProvideAnalysisPublisher publishes analysis events to Kafka through a redelivery buffer,
// or drops them without Kafka.
func ProvideAnalysisPublisher(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	m repository.Metrics,
	l *applogger.Logger,
) repository.AnalysisPublisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return middleware.NewEventBuffer(
		internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Analyses),
		middleware.WithBufferSize(cfg.Kafka.Producer.EventBuffer),
		middleware.WithBufferMetrics(m),
		middleware.WithBufferLogger(l),
	)
}

// ProvideJobQueue creates the Redis job queue, or nil when it is disabled.
func ProvideJobQueue(cfg *config.Config, client *redis.Client, l *applogger.Logger) *queue.RedisQueue {
	if !cfg.Queue.Enabled || client == nil {
		return nil
	}
	return queue.NewRedisQueue(l, queue.Config{
		Workers:     cfg.Queue.Workers,
		RetryLimit:  cfg.Queue.MaxRetries,
		PollTimeout: cfg.Queue.PollTimeout,
	}, client, queue.WithKeyPrefix(cfg.Queue.Name))
}

// ProvidePricingService creates the pricing use case.
func ProvidePricingService(
	engine *pricing.Engine,
	supplier *competitors.Supplier,
	store repository.AnalysisStore,
	publisher repository.AnalysisPublisher,
	q *queue.RedisQueue,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.PricingService {
	opts := []usecase.ServiceOption{
		usecase.WithPublisher(publisher),
		usecase.WithServiceMetrics(m),
		usecase.WithServiceLogger(l),
	}
	if q != nil {
		opts = append(opts, usecase.WithJobQueue(q))
	}
	return usecase.NewPricingService(engine, supplier, store, opts...)
}

// ProvideAnalysisJob creates the queued-analysis job.
func ProvideAnalysisJob(svc *usecase.PricingService) *usecase.AnalysisJob {
	return usecase.NewAnalysisJob(svc)
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, reg *prometheus.Registry) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCompetitorFeedHandler handles the competitor listings topic.
func ProvideCompetitorFeedHandler(
	cfg *config.Config,
	supplier *competitors.Supplier,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.CompetitorFeedHandler {
	return usecase.NewCompetitorFeedHandler(cfg.Kafka.Topics.Competitors, supplier, m, l)
}

// ProvideHTTPHandler creates the pricing API handler.
func ProvideHTTPHandler(l *applogger.Logger, svc *usecase.PricingService) *api.PricingEchoHandler {
	return api.NewPricingEchoHandler(l, svc)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	reg *prometheus.Registry,
	handler *api.PricingEchoHandler,
	consumer *pkgkafka.Consumer,
	feed *usecase.CompetitorFeedHandler,
	q *queue.RedisQueue,
	job *usecase.AnalysisJob,
	store repository.AnalysisStore,
	publisher repository.AnalysisPublisher,
	producer *pkgkafka.Producer,
	cacheSvc pkgcache.Service,
) *server.App {
	if producer != nil && cfg.Logging.Collector.Enabled {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collector.TimeInterval,
			CountThreshold: cfg.Logging.Collector.CountThreshold,
			Topic:          cfg.Logging.Collector.Topic,
			Levels:         []string{"warn", "error"},
			Publisher:      producer,
		})
	}
	if consumer != nil {
		consumer.RegisterHandler(feed)
		consumer.SetHook(pkgkafka.NewHookChain(pkgkafka.TracingHook{Log: l, Slow: time.Second}))
	}
	if q != nil {
		q.RegisterJob(job)
	}

	opts := []server.Option{
		server.WithConsumer(consumer),
		server.WithQueue(q),
		server.WithClosers(publisher, cacheSvc, store),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, server.WithRegistry(reg))
	}
	return server.New(cfg, l, []xhttp.Handler{handler}, opts...)
}
