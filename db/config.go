package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Driver      string
	DSN         string
	AutoMigrate bool
	Pool        PoolConfig
	SQLite      SQLiteConfig
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type SQLiteConfig struct {
	WAL           bool
	BusyTimeoutMs int
	ForeignKeys   bool
}

func DefaultConfig() Config {
	return Config{
		Driver:      "sqlite",
		AutoMigrate: true,
		Pool: PoolConfig{
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		SQLite: SQLiteConfig{
			WAL:           true,
			BusyTimeoutMs: 5000,
			ForeignKeys:   true,
		},
	}
}

// ResolveSQLiteDSN expands a sqlite DSN to an absolute path and makes sure
// the parent directory exists. Memory DSNs pass through untouched.
func ResolveSQLiteDSN(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("empty sqlite dsn")
	}
	if strings.HasPrefix(dsn, "file::memory:") || strings.Contains(dsn, "mode=memory") {
		return dsn, nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}
