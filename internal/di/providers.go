package di

import (
	"context"
	"fmt"
	"time"

	"SocialPulse/internal/domain/models"
	domrepo "SocialPulse/internal/domain/repository"
	domsvc "SocialPulse/internal/domain/service"
	"SocialPulse/internal/handler/api"
	mid "SocialPulse/internal/middleware"
	internalrepo "SocialPulse/internal/repository"
	"SocialPulse/internal/services/analyzers"
	"SocialPulse/internal/services/sentiment"
	"SocialPulse/internal/usecase"
	"SocialPulse/pkg/cache"
	pkgch "SocialPulse/pkg/clickhouse"
	"SocialPulse/pkg/config"
	xhttp "SocialPulse/pkg/http"
	pkgkafka "SocialPulse/pkg/kafka"
	"SocialPulse/pkg/logger"
	"SocialPulse/pkg/metrics"
	"SocialPulse/pkg/queue"
	"SocialPulse/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideRegistry registers every built-in analyzer.
func ProvideRegistry(cfg *config.Config, lgr *logger.Logger, m domrepo.Metrics) *usecase.Registry {
	opts := []usecase.RegistryOption{}
	if cfg.Engine.DetectTimeout > 0 {
		opts = append(opts, usecase.WithDetectTimeout(cfg.Engine.DetectTimeout))
	}
	if cfg.Engine.BatchWorkers > 0 {
		opts = append(opts, usecase.WithBatchWorkers(cfg.Engine.BatchWorkers))
	}

	r := usecase.NewRegistry(lgr, m, opts...)
	r.Register(analyzers.NewSmartMoney())
	r.Register(analyzers.NewInfluencerNetwork())
	r.Register(analyzers.NewVolumeHype())
	r.Register(analyzers.NewUrgency())
	r.Register(analyzers.NewWhaleAlert())
	r.Register(analyzers.NewRugPull())
	r.Register(analyzers.NewCommunityMomentum())
	r.Register(analyzers.NewInsiderLeak())
	return r
}

// ProvideClickHouseClient connects and prepares the activity schema.
// Returns nil when clickhouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithAsyncInsert(true, false),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideRecorder builds the verdict/alert store over clickhouse, or
// nil when persistence is disabled.
func ProvideRecorder(chClient *pkgch.Client, cfg *config.Config) (domrepo.ActivityRecorder, error) {
	if chClient == nil {
		return nil, nil
	}
	rec := internalrepo.NewClickHouseRecorder(chClient.DB(), cfg.ClickHouse.Database)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rec.Init(ctx); err != nil {
		return nil, fmt.Errorf("recorder schema: %w", err)
	}
	return rec, nil
}

// ProvideKafkaProducer creates the shared producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	return pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
}

// ProvideOrderPublisher routes verdicts to the trading pipeline topic.
func ProvideOrderPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.OrderPublisher {
	return internalrepo.NewKafkaOrderPublisher(producer, cfg.Kafka.OrdersTopic)
}

// ProvideKafkaConsumer builds the posts consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithDLQTopic(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NoopHook{})
	return consumer, nil
}

// ProvideCache builds the sentiment cache: layered memory-over-redis
// when redis is enabled, plain memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc), nil
}

// ProvideSentiment builds the HTTP classifier, or nil when no service
// is configured.
func ProvideSentiment(cfg *config.Config, c cache.Service, lgr *logger.Logger) domsvc.SentimentProvider {
	if cfg.Sentiment.ServiceURL == "" {
		return nil
	}
	return sentiment.NewHTTPClassifier(cfg, c, lgr)
}

// ProvideEngine assembles the facade from config.
func ProvideEngine(
	cfg *config.Config,
	registry *usecase.Registry,
	sp domsvc.SentimentProvider,
	orders domrepo.OrderPublisher,
	recorder domrepo.ActivityRecorder,
	lgr *logger.Logger,
	m domrepo.Metrics,
) *usecase.SignalEngine {
	ec := usecase.DefaultEngineConfig()
	if cfg.Engine.AggregationMethod != "" {
		ec.AggregationMethod = models.AggregationMethod(cfg.Engine.AggregationMethod)
	}
	if cfg.Engine.MinSignalStrength > 0 {
		ec.MinSignalStrength = cfg.Engine.MinSignalStrength
	}
	if cfg.Engine.MinConfidence > 0 {
		ec.MinConfidence = cfg.Engine.MinConfidence
	}
	for _, t := range cfg.Engine.RequiredTypes {
		ec.RequiredTypes = append(ec.RequiredTypes, models.SignalType(t))
	}
	if cfg.Engine.HistoryCap > 0 {
		ec.HistoryCap = cfg.Engine.HistoryCap
	}
	ec.EnableStreaming = cfg.Engine.EnableStreaming
	if cfg.Engine.StreamingInterval > 0 {
		ec.StreamingInterval = cfg.Engine.StreamingInterval
	}
	if cfg.Engine.Alerts.CriticalStrength > 0 {
		ec.AlertThresholds.CriticalStrength = cfg.Engine.Alerts.CriticalStrength
	}
	if cfg.Engine.Alerts.CriticalConfidence > 0 {
		ec.AlertThresholds.CriticalConfidence = cfg.Engine.Alerts.CriticalConfidence
	}
	if cfg.Engine.Alerts.CombinationThreshold > 0 {
		ec.AlertThresholds.CombinationThreshold = cfg.Engine.Alerts.CombinationThreshold
	}
	if len(cfg.Engine.Detectors) > 0 {
		ec.DetectorConfig = make(map[models.SignalType]domsvc.AnalyzerConfigPatch, len(cfg.Engine.Detectors))
		for name, dc := range cfg.Engine.Detectors {
			ec.DetectorConfig[models.SignalType(name)] = domsvc.AnalyzerConfigPatch{
				Enabled:       dc.Enabled,
				Sensitivity:   dc.Sensitivity,
				MinConfidence: dc.MinConfidence,
			}
		}
	}
	return usecase.NewSignalEngine(ec, registry, sp, orders, recorder, lgr, m)
}

// ProvidePipeline builds the throttled ingest front of the engine.
func ProvidePipeline(engine *usecase.SignalEngine, m domrepo.Metrics, cfg *config.Config) *mid.IngestPipeline {
	opts := []mid.PipelineOption{}
	if cfg.Pipeline.MaxRPS > 0 {
		opts = append(opts, mid.WithMaxRPS(cfg.Pipeline.MaxRPS))
	}
	if cfg.Pipeline.BufferSize > 0 {
		opts = append(opts, mid.WithBufferSize(cfg.Pipeline.BufferSize))
	}
	return mid.NewIngestPipeline(engine, m, opts...)
}

// ProvidePostsHandler decodes posts off kafka into the pipeline.
func ProvidePostsHandler(pipeline *mid.IngestPipeline, m domrepo.Metrics, cfg *config.Config) *usecase.KafkaPostsHandler {
	return usecase.NewKafkaPostsHandler(cfg.Kafka.PostsTopic, pipeline, m)
}

// ProvideJobQueue builds the redis-backed async batch queue, or nil
// when redis is disabled.
func ProvideJobQueue(cfg *config.Config, lgr *logger.Logger, engine *usecase.SignalEngine) *queue.RedisQueue {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	q := queue.NewRedisQueue(lgr, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client, queue.ModeProducerConsumer,
		queue.WithKeyPrefix("socialpulse:queue"),
	)
	q.RegisterJob(usecase.NewAnalyzeBatchJob(engine, lgr))
	return q
}

// ProvideApp assembles the process with its HTTP surface.
func ProvideApp(
	cfg *config.Config,
	lgr *logger.Logger,
	engine *usecase.SignalEngine,
	pipeline *mid.IngestPipeline,
	consumer *pkgkafka.Consumer,
	posts *usecase.KafkaPostsHandler,
	jobQueue *queue.RedisQueue,
	recorder domrepo.ActivityRecorder,
	chClient *pkgch.Client,
) *server.App {
	app := server.New(cfg, lgr, engine, pipeline, consumer, posts, jobQueue, chClient)

	var qs queue.QueueService
	if jobQueue != nil {
		qs = jobQueue
	}
	var handler xhttp.Handler = api.NewEngineEchoHandler(lgr, engine, qs, recorder)
	app.SetHTTPHandler(handler)
	return app
}
