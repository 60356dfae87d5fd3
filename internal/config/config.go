package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Model    ModelConfig
	Runner   RunnerConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	MIDI     MIDIConfig
}

type ServerConfig struct {
	Host             string
	Port             int
	KeepAliveTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MaxConcurrency   int
	MemoryLimitMB    int
	NumericThreads   int
}

type ModelConfig struct {
	Path            string
	URL             string
	SHA256          string
	DownloadTimeout time.Duration
	WarmupOnStart   bool
}

type RunnerConfig struct {
	URL     string
	Timeout time.Duration
}

type StorageConfig struct {
	Timeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled   bool
	URL       string
	ResultTTL time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type MIDIConfig struct {
	Tempo float64
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults match the published deployment profile: one worker on port
	// 8000, one transcription at a time, single numeric thread.
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8000)
	v.SetDefault("SERVER_KEEPALIVE_TIMEOUT", "65s")
	v.SetDefault("SERVER_READ_TIMEOUT", "300s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "300s")
	v.SetDefault("MAX_CONCURRENCY", 1)
	v.SetDefault("MEMORY_LIMIT_MB", 0)
	v.SetDefault("NUMERIC_THREADS", 1)

	v.SetDefault("MODEL_PATH", "/data/models/basic_pitch/nmp.onnx")
	v.SetDefault("MODEL_URL", "")
	v.SetDefault("MODEL_SHA256", "")
	v.SetDefault("MODEL_DOWNLOAD_TIMEOUT", "10m")
	v.SetDefault("MODEL_WARMUP", true)

	v.SetDefault("RUNNER_URL", "http://localhost:8501")
	v.SetDefault("RUNNER_TIMEOUT", "120s")

	v.SetDefault("STORAGE_TIMEOUT", "60s")

	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_NAME", "transcriptions")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 2)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("REDIS_RESULT_TTL", "24h")

	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "json")

	v.SetDefault("MIDI_TEMPO", 120.0)

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:             v.GetString("SERVER_HOST"),
			Port:             v.GetInt("SERVER_PORT"),
			KeepAliveTimeout: duration(v, "SERVER_KEEPALIVE_TIMEOUT", 65*time.Second),
			ReadTimeout:      duration(v, "SERVER_READ_TIMEOUT", 300*time.Second),
			WriteTimeout:     duration(v, "SERVER_WRITE_TIMEOUT", 300*time.Second),
			MaxConcurrency:   v.GetInt("MAX_CONCURRENCY"),
			MemoryLimitMB:    v.GetInt("MEMORY_LIMIT_MB"),
			NumericThreads:   v.GetInt("NUMERIC_THREADS"),
		},
		Model: ModelConfig{
			Path:            v.GetString("MODEL_PATH"),
			URL:             v.GetString("MODEL_URL"),
			SHA256:          v.GetString("MODEL_SHA256"),
			DownloadTimeout: duration(v, "MODEL_DOWNLOAD_TIMEOUT", 10*time.Minute),
			WarmupOnStart:   v.GetBool("MODEL_WARMUP"),
		},
		Runner: RunnerConfig{
			URL:     v.GetString("RUNNER_URL"),
			Timeout: duration(v, "RUNNER_TIMEOUT", 120*time.Second),
		},
		Storage: StorageConfig{
			Timeout: duration(v, "STORAGE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DATABASE_HOST"),
			Port:            v.GetInt("DATABASE_PORT"),
			User:            v.GetString("DATABASE_USER"),
			Password:        v.GetString("DATABASE_PASSWORD"),
			Name:            v.GetString("DATABASE_NAME"),
			SSLMode:         v.GetString("DATABASE_SSLMODE"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: duration(v, "DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:   v.GetBool("REDIS_ENABLED"),
			URL:       v.GetString("REDIS_URL"),
			ResultTTL: duration(v, "REDIS_RESULT_TTL", 24*time.Hour),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
		MIDI: MIDIConfig{
			Tempo: v.GetFloat64("MIDI_TEMPO"),
		},
	}

	if cfg.Server.MaxConcurrency < 1 {
		cfg.Server.MaxConcurrency = 1
	}
	if cfg.MIDI.Tempo <= 0 {
		cfg.MIDI.Tempo = 120.0
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return fallback
	}
	return d
}
