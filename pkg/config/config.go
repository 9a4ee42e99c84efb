package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Model      ModelConfig
	Routing    RoutingConfig
	Dataset    DatasetConfig
	Evaluation EvaluationConfig
	SQLite     SQLiteConfig
	Redis      RedisConfig
	Milvus     MilvusConfig
	Assist     AssistConfig
	Dispatch   DispatchConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
	MaxBatchSize int
}

type ModelConfig struct {
	Dir            string
	VectorizerFile string
	ClassifierFile string
	MaxFeatures    int
	Version        string
}

type RoutingConfig struct {
	AutoResolveThreshold float64
	RouteThreshold       float64
}

type DatasetConfig struct {
	Path        string
	Seed        int64
	PerCategory int
	TrainRatio  float64
}

type EvaluationConfig struct {
	MaxLatencyMs int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type MilvusConfig struct {
	Enabled        bool
	Endpoint       string
	CollectionName string
}

type AssistConfig struct {
	Enabled     bool
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type DispatchConfig struct {
	DryRun bool
}

type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/ticket-triage")

	viper.SetEnvPrefix("TICKET_TRIAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 1048576)
	viper.SetDefault("server.maxBatchSize", 50)

	viper.SetDefault("model.dir", "./data/models")
	viper.SetDefault("model.vectorizerFile", "vectorizer.json")
	viper.SetDefault("model.classifierFile", "classifier.json")
	viper.SetDefault("model.maxFeatures", 1000)
	viper.SetDefault("model.version", "1.0.0")

	viper.SetDefault("routing.autoResolveThreshold", 0.85)
	viper.SetDefault("routing.routeThreshold", 0.5)

	viper.SetDefault("dataset.path", "./data/support_tickets.csv")
	viper.SetDefault("dataset.seed", 42)
	viper.SetDefault("dataset.perCategory", 20)
	viper.SetDefault("dataset.trainRatio", 0.8)

	viper.SetDefault("evaluation.maxLatencyMs", 100)

	viper.SetDefault("sqlite.path", "./data/triage.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttlSec", 3600)

	viper.SetDefault("milvus.enabled", false)
	viper.SetDefault("milvus.endpoint", "localhost:19530")
	viper.SetDefault("milvus.collectionName", "ticket_vectors")

	viper.SetDefault("assist.enabled", false)
	viper.SetDefault("assist.model", "gpt-4o-mini")
	viper.SetDefault("assist.temperature", 0.0)
	viper.SetDefault("assist.maxTokens", 256)
	viper.SetDefault("assist.timeoutSec", 20)

	viper.SetDefault("dispatch.dryRun", false)

	viper.SetDefault("ratelimit.requestsPerMinute", 120)
	viper.SetDefault("ratelimit.burst", 20)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
