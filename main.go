package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-json"
	"golang.org/x/text/language"

	"go-pkpass/logging"
	"go-pkpass/redis"
)

const envPrefix = "PKPASS_"

type Config struct {
	ServerConfig ServerConfig `json:"server_config"`

	LogLevel          string `json:"log_level" env:"LOG_LEVEL"`
	DefaultLanguage   string `json:"default_language" env:"DEFAULT_LANGUAGE"`
	DocumentCacheSize int    `json:"document_cache_size" env:"DOCUMENT_CACHE_SIZE"`
	PassTTLSeconds    int    `json:"pass_ttl_seconds,omitempty" env:"PASS_TTL_SECONDS"`

	StorageType         string                    `json:"storage_type" env:"STORAGE_TYPE"`
	RedisConfig         redis.RedisConfig         `json:"redis_config,omitempty" envPrefix:"REDIS_"`
	RedisSentinelConfig redis.RedisSentinelConfig `json:"redis_sentinel_config,omitempty" envPrefix:"REDIS_SENTINEL_"`
}

func defaultConfig() Config {
	return Config{
		ServerConfig: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		LogLevel:          "info",
		DefaultLanguage:   "en",
		DocumentCacheSize: DefaultDocumentCacheSize,
		StorageType:       "memory",
	}
}

func main() {
	configPath := flag.String("config", "", "Path for the config.json to use")
	flag.Parse()

	config, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to read config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	logging.InitLogger(config.LogLevel)
	slog.Info("Configuration loaded", "config", *configPath, "storage_type", config.StorageType)

	state, err := createServerState(&config)
	if err != nil {
		slog.Error("failed to create server state", "error", err)
		os.Exit(1)
	}

	server, err := NewServer(state, config.ServerConfig)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if err := server.ListenAndServe(); err != nil {
		slog.Error("failed to listen and serve", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the JSON config at path, if any, and applies PKPASS_*
// environment overrides on top.
func loadConfig(path string) (Config, error) {
	config := defaultConfig()

	if path != "" {
		configBytes, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(configBytes, &config); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&config, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	return config, nil
}

func createServerState(config *Config) (*ServerState, error) {
	defaultLanguage, err := language.Parse(config.DefaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", config.DefaultLanguage, err)
	}

	passStorage, err := createPassStorage(config)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate pass storage: %w", err)
	}

	metrics := NewMetrics()
	documents, err := NewDocumentCache(passStorage, config.DocumentCacheSize, metrics)
	if err != nil {
		return nil, err
	}

	return &ServerState{
		passStorage:     passStorage,
		documents:       documents,
		converter:       PassSummaryConverterImpl{},
		metrics:         metrics,
		defaultLanguage: defaultLanguage,
		maxUploadBytes:  config.ServerConfig.MaxUploadBytes,
	}, nil
}

func createPassStorage(config *Config) (PassStorage, error) {
	ttl := time.Duration(config.PassTTLSeconds) * time.Second

	switch config.StorageType {
	case "redis":
		slog.Info("Using redis pass storage")
		client, err := redis.NewRedisClient(&config.RedisConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisPassStorage(client, config.RedisConfig.Namespace, ttl), nil
	case "redis_sentinel":
		slog.Info("Using redis sentinel pass storage")
		client, err := redis.NewRedisSentinelClient(&config.RedisSentinelConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisPassStorage(client, config.RedisSentinelConfig.Namespace, ttl), nil
	case "memory":
		slog.Info("Using in memory pass storage")
		return NewInMemoryPassStorage(), nil
	}
	return nil, fmt.Errorf("%v is not a valid storage type", config.StorageType)
}
