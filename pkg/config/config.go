package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Analysis AnalysisConfig
	Cascade  CascadeConfig
	Insight  InsightConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LLMConfig struct {
	Enabled     bool
	Provider    string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type PipelineConfig struct {
	Workers         int
	AggregationDays int
}

type AnalysisConfig struct {
	RisingSlope      float64
	FallingSlope     float64
	AnomalyThreshold float64
	ForecastDays     int
	LookbackDays     int
}

type CascadeConfig struct {
	MaxDepth int
	MinDelta float64
}

type InsightConfig struct {
	TieBreakPolicy string
	CacheTTLSec    int
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
	viper.AddConfigPath("/etc/horizonbi")

	viper.SetEnvPrefix("HORIZON")
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
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("sqlite.path", "./data/horizonbi.db")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("llm.enabled", false)
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.maxTokens", 1024)
	viper.SetDefault("llm.timeoutSec", 30)

	viper.SetDefault("pipeline.workers", 8)
	viper.SetDefault("pipeline.aggregationDays", 30)

	viper.SetDefault("analysis.risingSlope", 0.25)
	viper.SetDefault("analysis.fallingSlope", -0.25)
	viper.SetDefault("analysis.anomalyThreshold", 2.0)
	viper.SetDefault("analysis.forecastDays", 7)
	viper.SetDefault("analysis.lookbackDays", 90)

	viper.SetDefault("cascade.maxDepth", 5)
	viper.SetDefault("cascade.minDelta", 0.5)

	viper.SetDefault("insight.tieBreakPolicy", "risks_first")
	viper.SetDefault("insight.cacheTTLSec", 900)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
