package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; DATABASE_URL and REDIS_URL are only
// required when the matching storage backend is selected.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Durable storage
	StorageBackend string
	DataDir        string
	SQLitePath     string
	RedisURL       string
	DatabaseURL    string
	DBMaxConns     int32
	DBMinConns     int32

	// Queue
	QueueKey   string
	MaxPending int
	Retention  time.Duration

	// Remote acceptor
	AcceptorBaseURL string
	AcceptTimeout   time.Duration
	AcceptRateLimit int

	// Connectivity
	ProbeURL             string
	ConnectivityInterval time.Duration
	StartOnline          bool

	// Optional periodic trigger; zero disables it.
	SyncInterval time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		StorageBackend: getEnv("STORAGE_BACKEND", BackendFile),
		DataDir:        getEnv("DATA_DIR", "data"),
		SQLitePath:     getEnv("SQLITE_PATH", "data/offline-sync.db"),
		RedisURL:       os.Getenv("REDIS_URL"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxConns:     int32(getInt("DB_MAX_CONNS", 4)),
		DBMinConns:     int32(getInt("DB_MIN_CONNS", 1)),

		QueueKey:   getEnv("QUEUE_KEY", "offline_queue"),
		MaxPending: getInt("MAX_PENDING", 10000),
		Retention:  getDuration("RETENTION", 7*24*time.Hour),

		AcceptorBaseURL: getEnv("ACCEPTOR_BASE_URL", "http://localhost:9090"),
		AcceptTimeout:   getDuration("ACCEPT_TIMEOUT", 10*time.Second),
		AcceptRateLimit: getInt("ACCEPT_RATE_LIMIT", 50),

		ProbeURL:             getEnv("CONNECTIVITY_PROBE_URL", "http://localhost:9090/health"),
		ConnectivityInterval: getDuration("CONNECTIVITY_INTERVAL", 15*time.Second),
		StartOnline:          getBool("START_ONLINE", true),

		SyncInterval: getDuration("SYNC_INTERVAL", 0),
	}

	switch cfg.StorageBackend {
	case BackendFile, BackendSQLite:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
