package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	"FinCast/internal/forecast"
	"FinCast/internal/handler/api"
	"FinCast/internal/handler/ws"
	internalrepo "FinCast/internal/repository"
	"FinCast/internal/services/analytics"
	"FinCast/internal/signal"
	"FinCast/internal/usecase"
	"FinCast/pkg/cache"
	pkgch "FinCast/pkg/clickhouse"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
	pkgkafka "FinCast/pkg/kafka"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/metrics"
	"FinCast/pkg/postgres"
	"FinCast/pkg/server"
)

const schemaTimeout = 10 * time.Second

// Catalogue is the resolved asset table.
type Catalogue map[string]models.AssetProfile

// ProvideLogCollector aggregates warnings for Kafka. It returns nil unless
// both log aggregation and Kafka are enabled.
func ProvideLogCollector(cfg *config.Config) (*applogger.LogCollector, func()) {
	agg := cfg.Logging.Aggregate
	if !agg.Enabled || !cfg.Kafka.Enabled {
		return nil, func() {}
	}
	c := applogger.NewLogCollector(applogger.CollectionConfig{
		TimeInterval:   agg.Interval,
		CountThreshold: agg.Threshold,
		Topic:          agg.Topic,
	})
	return c, c.Close
}

// ProvideLogger builds the root logger from the logging section.
func ProvideLogger(cfg *config.Config, collector *applogger.LogCollector) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if collector != nil {
		l = l.WithHook(collector)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideCatalogue merges configured assets into the built-in catalogue.
func ProvideCatalogue(cfg *config.Config) (Catalogue, error) {
	c, err := usecase.BuildCatalogue(models.DefaultCatalogue(), cfg.Assets)
	if err != nil {
		return nil, fmt.Errorf("asset catalogue: %w", err)
	}
	return c, nil
}

// ProvidePromRegistry creates the registry every collector and /metrics share.
func ProvidePromRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.NewWithRegistry(reg)
}

// ProvideClickHouseClient connects and applies the schema. It returns nil
// when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, true),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.ClickHouseSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse ready", applogger.String("database", cfg.ClickHouse.Database))

	return client, func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}, nil
}

// ProvideSeriesStore picks the history source named by data.source.
func ProvideSeriesStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (domrepo.SeriesStore, error) {
	switch cfg.Data.Source {
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("data.source=clickhouse but clickhouse is disabled")
		}
		return internalrepo.NewCHSeriesStore(ch.DB(), cfg.ClickHouse.Database, l), nil
	default:
		return internalrepo.NewCSVSeriesStore(cfg.Data.Dir, l), nil
	}
}

// ProvideForecastStore persists paths to ClickHouse when it is enabled.
func ProvideForecastStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) domrepo.ForecastStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHSeriesStore(ch.DB(), cfg.ClickHouse.Database, l)
}

// ProvideRegistry loads model artifacts lazily; the ONNX runtime is
// initialized up front when that backend is selected.
func ProvideRegistry(cfg *config.Config, catalogue Catalogue, l *applogger.Logger) (*analytics.Registry, func(), error) {
	if cfg.Model.Backend == "onnx" {
		if err := analytics.InitializeORT(cfg.Model.ONNXLibrary); err != nil {
			return nil, nil, fmt.Errorf("onnx runtime: %w", err)
		}
	}
	reg := analytics.NewRegistry(cfg, catalogue, l)
	return reg, reg.Close, nil
}

// ProvideEngine maps the forecast section onto engine constants.
func ProvideEngine(cfg *config.Config, l *applogger.Logger) (*forecast.Engine, error) {
	fc := cfg.Forecast
	decay := make(map[models.AssetClass]float64, len(fc.VolatileClasses))
	for _, c := range fc.VolatileClasses {
		decay[models.ParseAssetClass(c)] = fc.VolatileDecay
	}
	engine, err := forecast.NewEngine(forecast.Config{
		MaxStepDelta: fc.MaxStepDelta,
		TrustHorizon: fc.TrustHorizon,
		TrustFloor:   fc.TrustFloor,
		AnchorPull:   fc.AnchorPull,
		DriftRate:    fc.DriftRate,
		FloorRatio:   fc.FloorRatio,
		Decay:        decay,
		DefaultDecay: fc.DefaultDecay,
		MaxSteps:     fc.MaxSteps,
	}, forecast.WithLogger(l.With(applogger.String("component", "engine"))))
	if err != nil {
		return nil, fmt.Errorf("forecast engine: %w", err)
	}
	return engine, nil
}

// ProvideCache layers a small in-process cache over Redis, or uses memory alone.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	var svc cache.Service
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = cache.NewLayeredCache(rc, cache.WithLayeredMemory(cfg.Redis.LocalSize, cfg.Redis.LocalTTL))
	} else {
		svc = cache.NewMemoryCache(cache.WithMemoryMaxSize(1024))
	}
	return svc, func() {
		if err := svc.Close(); err != nil {
			l.Warn("cache close error", applogger.Error(err))
		}
	}, nil
}

// ProvidePostgresClient connects and applies the journal schema. It returns
// nil when Postgres is disabled.
func ProvidePostgresClient(cfg *config.Config, l *applogger.Logger) (*postgres.Client, func(), error) {
	if !cfg.Postgres.Enabled {
		return nil, func() {}, nil
	}
	pc := cfg.Postgres
	client, err := postgres.NewClient(
		postgres.WithDSN(pc.DSN),
		postgres.WithPool(pc.MaxOpenConns, pc.MaxIdleConns, pc.ConnMaxLifetime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SignalJournalSchema); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("postgres schema: %w", err)
	}
	l.Info("postgres ready")

	return client, func() {
		if err := client.Close(); err != nil {
			l.Warn("postgres close error", applogger.Error(err))
		}
	}, nil
}

// ProvideSignalJournal records signals in Postgres when it is enabled.
func ProvideSignalJournal(cfg *config.Config, pg *postgres.Client, l *applogger.Logger) domrepo.SignalJournal {
	if pg == nil {
		return nil
	}
	return internalrepo.NewPGSignalJournal(pg.DB(), cfg.Postgres.QueryTimeout, l)
}

// ProvideKafkaProducer creates a Kafka producer and attaches it to the log
// collector. It returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger, collector *applogger.LogCollector) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	if collector != nil {
		collector.SetPublisher(producer)
	}
	return producer, func() {
		if collector != nil {
			collector.Close()
		}
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

// ProvideSignalPublisher publishes signals to Kafka when it is enabled.
func ProvideSignalPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideHub creates the websocket signal feed.
func ProvideHub(l *applogger.Logger) (*ws.Hub, func()) {
	hub := ws.NewHub(l.With(applogger.String("component", "ws")))
	return hub, hub.Close
}

// ProvideForecastUseCase assembles forecasting with its optional stores.
func ProvideForecastUseCase(
	cfg *config.Config,
	catalogue Catalogue,
	series domrepo.SeriesStore,
	registry *analytics.Registry,
	engine *forecast.Engine,
	store domrepo.ForecastStore,
	c cache.Service,
	m *metrics.Recorder,
	l *applogger.Logger,
) *usecase.ForecastUseCase {
	fc := usecase.ForecastConfig{
		Anchor:       cfg.Correlation.Anchor,
		Lookback:     cfg.Correlation.Lookback,
		MinOverlap:   cfg.Correlation.MinOverlap,
		Strength:     cfg.Correlation.Strength,
		BatchTimeout: cfg.Forecast.BatchTimeout,
		CacheTTL:     cfg.Forecast.CacheTTL,
	}
	opts := []usecase.ForecastOption{
		usecase.WithForecastCache(c),
		usecase.WithForecastMetrics(m),
		usecase.WithForecastLogger(l.With(applogger.String("component", "forecast"))),
	}
	if store != nil {
		opts = append(opts, usecase.WithForecastStore(store))
	}
	return usecase.NewForecastUseCase(fc, catalogue, series, registry, engine, opts...)
}

// ProvideSignalGenerator maps the signal section onto the factor table.
func ProvideSignalGenerator(cfg *config.Config, l *applogger.Logger) (*signal.Generator, error) {
	sc := signal.DefaultConfig()
	sc.DecisionThreshold = cfg.Signal.DecisionThreshold
	sc.StopLossPct = cfg.Signal.StopLossPct
	sc.ForecastWeight = cfg.Signal.ForecastWeight
	sc.SentimentWeight = cfg.Signal.SentimentWeight
	sc.TechnicalWeight = cfg.Signal.TechnicalWeight
	for asset, conf := range cfg.Signal.Confidence {
		sc.ForecastConfidence[asset] = conf
	}
	gen, err := signal.NewGenerator(sc, signal.WithLogger(l.With(applogger.String("component", "signal"))))
	if err != nil {
		return nil, fmt.Errorf("signal generator: %w", err)
	}
	return gen, nil
}

// ProvideSignalUseCase wires signal fan-out to the journal, Kafka and the websocket feed.
func ProvideSignalUseCase(
	cfg *config.Config,
	forecasts *usecase.ForecastUseCase,
	gen *signal.Generator,
	journal domrepo.SignalJournal,
	publisher domrepo.SignalPublisher,
	hub *ws.Hub,
	m *metrics.Recorder,
	l *applogger.Logger,
) *usecase.SignalUseCase {
	opts := []usecase.SignalOption{
		usecase.WithSignalNotifier(hub),
		usecase.WithSignalMetrics(m),
		usecase.WithSignalLogger(l.With(applogger.String("component", "signals"))),
	}
	if journal != nil {
		opts = append(opts, usecase.WithSignalJournal(journal))
	}
	if publisher != nil {
		opts = append(opts, usecase.WithSignalPublisher(publisher))
	}
	return usecase.NewSignalUseCase(usecase.SignalConfig{WeekSteps: cfg.Signal.WeekSteps}, forecasts, gen, opts...)
}

// ProvideHandlers lists every route group.
func ProvideHandlers(
	l *applogger.Logger,
	forecasts *usecase.ForecastUseCase,
	insights *usecase.InsightUseCase,
	signals *usecase.SignalUseCase,
	hub *ws.Hub,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewForecastHandler(l, forecasts, insights),
		api.NewSignalsHandler(l, signals),
		hub,
	}
}

// ProvideHTTPServer builds the Echo server from the server and metrics sections.
func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, reg *prometheus.Registry, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		xhttp.WithMetrics(metricsPath, reg),
		xhttp.WithLogger(l.With(applogger.String("component", "http"))),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, srv *xhttp.Server, forecasts *usecase.ForecastUseCase, l *applogger.Logger) *server.App {
	return server.New(cfg, srv, forecasts, l)
}
