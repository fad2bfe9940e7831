package di

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/domain/repository"
	domsvc "MarketPulse/internal/domain/service"
	"MarketPulse/internal/handler/api"
	"MarketPulse/internal/handler/stream"
	internalrepo "MarketPulse/internal/repository"
	"MarketPulse/internal/service/ratelimit"
	"MarketPulse/internal/service/yahoo"
	"MarketPulse/internal/services/decision"
	"MarketPulse/internal/services/features"
	"MarketPulse/internal/usecase"
	"MarketPulse/pkg/cache"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	pkgkafka "MarketPulse/pkg/kafka"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/metrics"
	"MarketPulse/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the app logger. With Kafka and a log topic configured, repeated
// error logs are aggregated and shipped to that topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: "marketpulse",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			Topic:     cfg.Kafka.LogTopic,
			Publisher: producer,
		})
	}
	return l, nil
}

// ProvideMetrics registers the domain recorder on the default registry scraped at /metrics.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideMarketData creates the Yahoo chart client.
func ProvideMarketData(cfg *config.Config) repository.MarketData {
	hc := xhttp.NewClient(
		xhttp.WithTimeout(cfg.MarketData.Timeout),
		xhttp.WithUserAgent(cfg.MarketData.UserAgent),
	)
	return yahoo.NewClient(hc,
		yahoo.WithBaseURL(cfg.MarketData.BaseURL),
		yahoo.WithWindow(cfg.MarketData.Range, cfg.MarketData.Interval),
	)
}

// ProvideGroups converts the configured groups into domain groups, preserving order.
func ProvideGroups(cfg *config.Config) []models.Group {
	groups := make([]models.Group, 0, len(cfg.Groups))
	for _, g := range cfg.Groups {
		groups = append(groups, models.Group{Name: g.Name, Tickers: append([]string(nil), g.Tickers...)})
	}
	return groups
}

func ProvideSeriesSource(cfg *config.Config, md repository.MarketData, m repository.Metrics, l *applogger.Logger) domsvc.SeriesSource {
	return usecase.NewPriceSeriesSource(md, l.With("series_source"),
		usecase.WithCandidateTimeout(cfg.MarketData.Timeout),
		usecase.WithSourceMetrics(m),
	)
}

func ProvideIndicatorEngine() domsvc.IndicatorEngine {
	return features.NewEngine()
}

func ProvideDecisionEngine() domsvc.DecisionEngine {
	return decision.NewScorer()
}

func ProvideGroupPipeline(
	source domsvc.SeriesSource,
	indicators domsvc.IndicatorEngine,
	decisions domsvc.DecisionEngine,
	l *applogger.Logger,
) domsvc.GroupRunner {
	return usecase.NewGroupPipeline(source, indicators, decisions, l.With("pipeline"))
}

func ProvideHistory(cfg *config.Config) *usecase.HistoryBuffer {
	return usecase.NewHistoryBuffer(cfg.Snapshot.HistoryCapacity)
}

// ProvideSnapshotPublisher publishes snapshot events to Kafka, or discards them when disabled.
func ProvideSnapshotPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.SnapshotPublisher {
	if producer == nil {
		return internalrepo.NopSnapshotPublisher{}
	}
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic)
}

func ProvideSnapshotAggregator(
	cfg *config.Config,
	runner domsvc.GroupRunner,
	history *usecase.HistoryBuffer,
	pub repository.SnapshotPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.SnapshotAggregator {
	return usecase.NewSnapshotAggregator(runner, history, l.With("aggregator"),
		usecase.WithParallelGroups(cfg.Snapshot.Parallel),
		usecase.WithPublisher(pub),
		usecase.WithAggregatorMetrics(m),
	)
}

// ProvideStreamHub creates the websocket hub and subscribes it to new snapshots.
func ProvideStreamHub(agg *usecase.SnapshotAggregator, l *applogger.Logger) *stream.Hub {
	hub := stream.NewHub(api.EncodeSnapshot, l.With("stream"))
	agg.Subscribe(hub.Publish)
	return hub
}

// ProvideResponseCache returns the snapshot response cache. The redis backend is
// fronted by a small in-process layer.
func ProvideResponseCache(cfg *config.Config) (cache.Service, error) {
	mem := []cache.MemoryOption{
		cache.WithMemoryMaxSize(cfg.Cache.Memory.MaxEntries),
		cache.WithMemoryCleanup(cfg.Cache.Memory.CleanupInterval),
	}
	if cfg.Cache.Backend != "redis" {
		return cache.NewMemoryCache(mem...), nil
	}
	rcfg := cfg.Cache.Redis
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(rcfg.Addr),
		cache.WithRedisAuth(rcfg.Password, rcfg.DB),
		cache.WithRedisPool(rcfg.PoolSize, rcfg.MinIdleConns, rcfg.PoolTimeout),
		cache.WithRedisTimeouts(rcfg.DialTimeout, rcfg.OpTimeout),
		cache.WithRedisPrefix(rcfg.KeyPrefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc, cfg.Snapshot.CacheTTL, mem...), nil
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.Refill)
}

func ProvideSnapshotHandler(
	cfg *config.Config,
	l *applogger.Logger,
	agg *usecase.SnapshotAggregator,
	groups []models.Group,
	c cache.Service,
	limiter *ratelimit.Limiter,
) *api.SnapshotEchoHandler {
	opts := []api.HandlerOption{api.WithRateLimiter(limiter)}
	if cfg.Snapshot.CacheTTL > 0 {
		opts = append(opts, api.WithResponseCache(c, cfg.Snapshot.CacheTTL))
	}
	return api.NewSnapshotEchoHandler(l.With("api"), agg, groups, opts...)
}

func ProvideStreamHandler(hub *stream.Hub, l *applogger.Logger) *stream.EchoHandler {
	return stream.NewEchoHandler(hub, l.With("stream"))
}

// ProvideHTTPServer mounts the API and websocket routes on one echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	snapshots *api.SnapshotEchoHandler,
	ws *stream.EchoHandler,
) *xhttp.Server {
	return xhttp.NewServer(xhttp.Handlers{snapshots, ws},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
		xhttp.WithLogger(l.With("http")),
	)
}

func ProvideRefresher(cfg *config.Config, agg *usecase.SnapshotAggregator, groups []models.Group, l *applogger.Logger) *usecase.Refresher {
	return usecase.NewRefresher(agg, groups, cfg.Snapshot.RefreshInterval, l.With("refresher"))
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	hub *stream.Hub,
	refresher *usecase.Refresher,
	httpServer *xhttp.Server,
	pub repository.SnapshotPublisher,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, hub, refresher, httpServer, pub, c)
}
