package config

import "time"

const (
	DefaultStorage          = "sqlite"
	DefaultSQLitePath       = "ormcore.db"
	DefaultPGMaxConns       = 5
	DefaultPGMinConns       = 1
	DefaultCacheBackend     = "none"
	DefaultCacheSize        = 1024
	DefaultCacheTTL         = 10 * time.Minute
	DefaultMetricsNamespace = "ormcore"
)
