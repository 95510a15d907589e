package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Lock       LockConfig       `mapstructure:"lock"`
	AI         AIConfig         `mapstructure:"ai"`
	Transcript TranscriptConfig `mapstructure:"transcript"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Ranking    RankingConfig    `mapstructure:"ranking"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, sqlite
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	Path            string        `mapstructure:"path"` // sqlite file path
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LockConfig struct {
	Backend     string        `mapstructure:"backend"` // memory, redis
	TTL         time.Duration `mapstructure:"ttl"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
}

type AIConfig struct {
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	Models           []string      `mapstructure:"models"`       // ordered fallback list for the verdict call
	SummaryModel     string        `mapstructure:"summary_model"` // per-chunk summaries, no fallback
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay"`
	ShortFormTimeout time.Duration `mapstructure:"short_form_timeout"`
	LongFormTimeout  time.Duration `mapstructure:"long_form_timeout"`
}

type TranscriptConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Language string        `mapstructure:"language"`
}

type PipelineConfig struct {
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	MinTranscriptChars int           `mapstructure:"min_transcript_chars"`
}

type RankingConfig struct {
	RefreshChannel string `mapstructure:"refresh_channel"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/vericlip.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("lock.backend", "redis")
	v.SetDefault("lock.ttl", "5m")
	v.SetDefault("lock.wait_timeout", "90s")
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.models", []string{"gpt-4o", "gpt-4o-mini"})
	v.SetDefault("ai.summary_model", "gpt-4o-mini")
	v.SetDefault("ai.max_retries", 3)
	v.SetDefault("ai.retry_base_delay", "1s")
	v.SetDefault("ai.short_form_timeout", "45s")
	v.SetDefault("ai.long_form_timeout", "120s")
	v.SetDefault("transcript.timeout", "20s")
	v.SetDefault("transcript.language", "ko")
	v.SetDefault("pipeline.request_timeout", "5m")
	v.SetDefault("pipeline.min_transcript_chars", 100)
	v.SetDefault("ranking.refresh_channel", "ranking:refresh")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("ai.api_key", "OPENAI_API_KEY")
	v.BindEnv("ai.base_url", "OPENAI_BASE_URL")
	v.BindEnv("transcript.base_url", "TRANSCRIPT_BASE_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
