package config

import (
	"os"
	"strconv"
	"time"

	infraconfig "ormcore/internal/infrastructure/config"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// Storage: "sqlite" or "pg"
	Storage     string
	DatabaseURL string
	SQLitePath  string
	// Cache: "none", "lru" or "redis"
	CacheBackend  string
	CacheSize     int
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// Metrics
	MetricsNamespace string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// Load reads environment variables and applies defaults.
func Load() Config {
	ttlMS := int(infraconfig.DefaultCacheTTL / time.Millisecond)
	return Config{
		Env:              getEnv("ENV", "local"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Storage:          getEnv("STORAGE", infraconfig.DefaultStorage),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", infraconfig.DefaultSQLitePath),
		CacheBackend:     getEnv("CACHE_BACKEND", infraconfig.DefaultCacheBackend),
		CacheSize:        atoiDef(getEnv("CACHE_SIZE", ""), infraconfig.DefaultCacheSize),
		CacheTTL:         time.Duration(atoiDef(getEnv("CACHE_TTL_MS", ""), ttlMS)) * time.Millisecond,
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          atoiDef(getEnv("REDIS_DB", "0"), 0),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", infraconfig.DefaultMetricsNamespace),
	}
}
