package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		RateLimit       float64       `yaml:"rate_limit" default:"20"`
		RateBurst       int           `yaml:"rate_burst" default:"40"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
		// Aggregate ships deduplicated warnings and errors to Kafka.
		Aggregate struct {
			Enabled   bool          `yaml:"enabled"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100" validate:"gte=0"`
			Topic     string        `yaml:"topic" default:"fincast.logs"`
		} `yaml:"aggregate"`
	} `yaml:"logging"`
	Model struct {
		// Backend selects the regressor implementation: "http" calls a model
		// server, "onnx" runs exported graphs in-process.
		Backend       string        `yaml:"backend" default:"http" validate:"oneof=http onnx"`
		ServiceURL    string        `yaml:"service_url"`
		Timeout       time.Duration `yaml:"timeout" default:"3s"`
		RetryMaxTime  time.Duration `yaml:"retry_max_time" default:"10s"`
		ONNXLibrary   string        `yaml:"onnx_library"`
		ArtifactDir   string        `yaml:"artifact_dir" default:"models"`
		BreakerWindow time.Duration `yaml:"breaker_window" default:"60s"`
	} `yaml:"model"`
	Data struct {
		// Source selects where historical series come from: "csv" or "clickhouse".
		Source string `yaml:"source" default:"csv" validate:"oneof=csv clickhouse"`
		Dir    string `yaml:"dir" default:"data"`
	} `yaml:"data"`
	Assets   []AssetConfig `yaml:"assets" validate:"dive"`
	Forecast struct {
		MaxStepDelta   float64       `yaml:"max_step_delta" default:"0.008" validate:"gt=0"`
		TrustHorizon   float64       `yaml:"trust_horizon" default:"365" validate:"gt=0"`
		TrustFloor     float64       `yaml:"trust_floor" default:"0.05" validate:"gte=0,lte=1"`
		AnchorPull     float64       `yaml:"anchor_pull" default:"0.01" validate:"gte=0"`
		DriftRate      float64       `yaml:"drift_rate" default:"0.002" validate:"gte=0,lte=1"`
		FloorRatio     float64       `yaml:"floor_ratio" default:"0.2" validate:"gte=0,lt=1"`
		DefaultDecay   float64       `yaml:"default_decay" default:"0.99" validate:"gt=0,lte=1"`
		VolatileDecay  float64       `yaml:"volatile_decay" default:"0.97" validate:"gt=0,lte=1"`
		MaxSteps       int           `yaml:"max_steps" validate:"gte=0"` // 0 leaves runs uncapped
		BatchTimeout   time.Duration `yaml:"batch_timeout" default:"60s"`
		CacheTTL       time.Duration `yaml:"cache_ttl" default:"15m"`

		// VolatileClasses use VolatileDecay instead of DefaultDecay.
		VolatileClasses []string `yaml:"volatile_classes" default:"[\"crypto\"]"`
	} `yaml:"forecast"`
	Correlation struct {
		Anchor     string  `yaml:"anchor" default:"SPY" validate:"required"`
		Lookback   int     `yaml:"lookback" default:"252" validate:"gt=1"`
		MinOverlap int     `yaml:"min_overlap" default:"50" validate:"gt=1"`
		Strength   float64 `yaml:"strength" default:"0.7" validate:"gte=0,lte=1"`
	} `yaml:"correlation"`
	Signal struct {
		DecisionThreshold float64            `yaml:"decision_threshold" default:"0.55" validate:"gt=0,lt=1"`
		StopLossPct       float64            `yaml:"stop_loss_pct" default:"0.05" validate:"gt=0,lt=1"`
		ForecastWeight    float64            `yaml:"forecast_weight" default:"0.4" validate:"gte=0,lte=1"`
		SentimentWeight   float64            `yaml:"sentiment_weight" default:"0.2" validate:"gte=0,lte=1"`
		TechnicalWeight   float64            `yaml:"technical_weight" default:"0.15" validate:"gte=0,lte=1"`
		Confidence        map[string]float64 `yaml:"confidence"`
		WeekSteps         int                `yaml:"week_steps" default:"5" validate:"gt=0"`
	} `yaml:"signal"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"fincast"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Postgres struct {
		Enabled         bool          `yaml:"enabled"`
		DSN             string        `yaml:"dsn"`
		MaxOpenConns    int           `yaml:"max_open_conns" default:"10"`
		MaxIdleConns    int           `yaml:"max_idle_conns" default:"5"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"30m"`
		QueryTimeout    time.Duration `yaml:"query_timeout" default:"5s"`
	} `yaml:"postgres"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"fincast"`
		// LocalSize and LocalTTL size the in-process layer in front of Redis.
		LocalSize int           `yaml:"local_size" default:"512" validate:"gte=0"`
		LocalTTL  time.Duration `yaml:"local_ttl" default:"1m"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"fincast.signals"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"100ms"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
}

// AssetConfig overrides or extends the built-in asset catalogue.
type AssetConfig struct {
	ID             string   `yaml:"id" validate:"required"`
	Name           string   `yaml:"name"`
	Class          string   `yaml:"class" validate:"omitempty,oneof=metal crypto equity index"`
	Features       []string `yaml:"features"`
	SequenceLength int      `yaml:"sequence_length" validate:"gte=0"`
	ModelPath      string   `yaml:"model_path"`
	NormalizerPath string   `yaml:"normalizer_path"`
}

var validate = validator.New()

// Default returns a config populated only from struct defaults.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func decode(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file next to the process is loaded first when present.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.Model.ServiceURL = v
	}
	if v := os.Getenv("MODEL_BACKEND"); v != "" {
		c.Model.Backend = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("PG_DSN"); v != "" {
		c.Postgres.DSN = v
		c.Postgres.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CORRELATION_STRENGTH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Correlation.Strength = f
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Model.Backend == "http" && c.Model.ServiceURL == "" {
		return fmt.Errorf("model.service_url is required for the http backend")
	}
	if c.Data.Source == "clickhouse" && !c.ClickHouse.Enabled {
		return fmt.Errorf("data.source=clickhouse requires clickhouse.enabled")
	}
	if c.Postgres.Enabled && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required when postgres is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Forecast.TrustFloor > 1 {
		return fmt.Errorf("forecast.trust_floor must be <= 1")
	}
	return nil
}
