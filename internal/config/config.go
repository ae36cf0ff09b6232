package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Data          DataConfig
	Cache         CacheConfig
	Aliases       AliasConfig
	Model         ModelConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DataConfig points at the local analytical database file holding the
// economic series tables.
type DataConfig struct {
	Path     string
	RowLimit int
}

type CacheBackend string

const (
	CacheBackendSQLite   CacheBackend = "sqlite"
	CacheBackendPostgres CacheBackend = "postgres"
)

type CacheConfig struct {
	Backend         CacheBackend
	Path            string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type AliasConfig struct {
	Path string
}

type ModelConfig struct {
	BaseURL          string
	Name             string
	GenerateTimeout  time.Duration
	InterpretTimeout time.Duration
}

type ArchiveConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("HUBIA_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid HUBIA_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "HUBIA_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "HUBIA_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "HUBIA_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "HUBIA_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_DATA_PATH", &cfg.Data.Path); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "HUBIA_DATA_ROW_LIMIT", &cfg.Data.RowLimit); err != nil {
		return Config{}, err
	}
	if err := applyCacheBackend(lookup, "HUBIA_CACHE_BACKEND", &cfg.Cache.Backend); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_CACHE_PATH", &cfg.Cache.Path); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_CACHE_DSN", &cfg.Cache.DSN); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "HUBIA_CACHE_MAX_OPEN_CONNS", &cfg.Cache.MaxOpenConns); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "HUBIA_CACHE_MAX_IDLE_CONNS", &cfg.Cache.MaxIdleConns); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "HUBIA_CACHE_CONN_MAX_IDLE_TIME", &cfg.Cache.ConnMaxIdleTime); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "HUBIA_CACHE_CONN_MAX_LIFETIME", &cfg.Cache.ConnMaxLifetime); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_ALIASES_PATH", &cfg.Aliases.Path); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_MODEL_BASE_URL", &cfg.Model.BaseURL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_MODEL_NAME", &cfg.Model.Name); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "HUBIA_MODEL_GENERATE_TIMEOUT", &cfg.Model.GenerateTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "HUBIA_MODEL_INTERPRET_TIMEOUT", &cfg.Model.InterpretTimeout); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "HUBIA_ARCHIVE_ENABLED", &cfg.Archive.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_ARCHIVE_ENDPOINT", &cfg.Archive.Endpoint); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_ARCHIVE_REGION", &cfg.Archive.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_ARCHIVE_BUCKET", &cfg.Archive.Bucket); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_ARCHIVE_ACCESS_KEY", &cfg.Archive.AccessKeyID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretAccessKey); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "HUBIA_ARCHIVE_USE_SSL", &cfg.Archive.UseSSL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "HUBIA_ARCHIVE_PREFIX", &cfg.Archive.Prefix); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "HUBIA_ARCHIVE_AUTO_CREATE_BUCKET", &cfg.Archive.AutoCreateBucket); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "HUBIA_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "HUBIA_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Data.Path == "" {
		return Config{}, fmt.Errorf("data path is required")
	}
	if cfg.Cache.Backend == CacheBackendPostgres && cfg.Cache.DSN == "" {
		return Config{}, fmt.Errorf("cache dsn is required for the postgres backend")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "hubia-server"},
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Data: DataConfig{
			Path:     "fecomdb.db",
			RowLimit: 500,
		},
		Cache: CacheConfig{
			Backend:         CacheBackendSQLite,
			Path:            "cache.db",
			DSN:             "",
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Aliases: AliasConfig{
			Path: "table_aliases.yaml",
		},
		Model: ModelConfig{
			BaseURL:          "http://localhost:11434",
			Name:             "llama3",
			GenerateTimeout:  60 * time.Second,
			InterpretTimeout: 60 * time.Second,
		},
		Archive: ArchiveConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "hubia-answers",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "",
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Archive.UseSSL = true
		cfg.Archive.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyCacheBackend(lookup LookupFunc, key string, dst *CacheBackend) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	backend := CacheBackend(strings.ToLower(strings.TrimSpace(raw)))
	switch backend {
	case CacheBackendSQLite, CacheBackendPostgres:
		*dst = backend
		return nil
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
