package redis

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 3 * time.Second
	pingTimeout = 2 * time.Second
)

type RedisConfig struct {
	Host      string `json:"host" env:"HOST"`
	Port      int    `json:"port" env:"PORT"`
	Password  string `json:"password" env:"PASSWORD"`
	Namespace string `json:"namespace" env:"NAMESPACE"`
}

type RedisSentinelConfig struct {
	SentinelHost     string `json:"sentinel_host" env:"SENTINEL_HOST"`
	SentinelPort     int    `json:"sentinel_port" env:"SENTINEL_PORT"`
	Password         string `json:"password" env:"PASSWORD"`
	MasterName       string `json:"master_name" env:"MASTER_NAME"`
	SentinelUsername string `json:"sentinel_username" env:"SENTINEL_USERNAME"`
	Namespace        string `json:"namespace" env:"NAMESPACE"`
}

func address(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// NewRedisClient connects to a single redis server and verifies the
// connection with a ping.
func NewRedisClient(config *RedisConfig) (*redis.Client, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("failed to connect to Redis: no host configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        address(config.Host, config.Port),
		Password:    config.Password,
		DialTimeout: dialTimeout,
	})

	if err := ping(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "host", config.Host, "port", config.Port, "namespace", config.Namespace)
	return client, nil
}

// NewRedisSentinelClient connects to the master known by the sentinel and
// verifies the connection with a ping.
func NewRedisSentinelClient(config *RedisSentinelConfig) (*redis.Client, error) {
	if config.MasterName == "" {
		return nil, fmt.Errorf("failed to connect to Redis through Sentinel: no master name configured")
	}

	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       config.MasterName,
		SentinelAddrs:    []string{address(config.SentinelHost, config.SentinelPort)},
		SentinelUsername: config.SentinelUsername,
		Password:         config.Password,
		DialTimeout:      dialTimeout,
	})

	if err := ping(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis through Sentinel: %w", err)
	}

	slog.Info("Connected to Redis through Sentinel",
		"sentinel_host", config.SentinelHost,
		"sentinel_port", config.SentinelPort,
		"master_name", config.MasterName,
	)
	return client, nil
}

func ping(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
