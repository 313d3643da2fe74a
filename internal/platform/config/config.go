package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the complete runtime configuration of the API
type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	JWT        JWTConfig        `json:"jwt"`
	Storage    StorageConfig    `json:"storage"`
	Cache      CacheConfig      `json:"cache"`
	Log        LogConfig        `json:"log"`
	Tiers      TiersConfig      `json:"tiers"`
	RateLimits RateLimitsConfig `json:"rateLimits"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// PublicBaseURL is the absolute prefix used when building links handed to clients
	PublicBaseURL string `json:"publicBaseUrl"`
	WebDomain     string `json:"webDomain"`
	// ProxyHeader names the header carrying the client IP behind a reverse proxy
	ProxyHeader string `json:"proxyHeader"`
	Debug       bool   `json:"debug"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Type     string           `json:"type"`
	Postgres PostgreSQLConfig `json:"postgres"`
}

// PostgreSQLConfig holds PostgreSQL-specific configuration
type PostgreSQLConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	Database        string        `json:"database"`
	Schema          string        `json:"schema"`
	SSLMode         string        `json:"sslMode"`
	MaxOpenConns    int           `json:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	AutoMigrate     bool          `json:"autoMigrate"`
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// StorageConfig holds blob storage configuration
type StorageConfig struct {
	Provider        string        `json:"provider"`
	BucketName      string        `json:"bucketName"`
	Endpoint        string        `json:"endpoint"`
	Region          string        `json:"region"`
	AccessKeyID     string        `json:"accessKeyId"`
	SecretAccessKey string        `json:"secretAccessKey"`
	PublicURL       string        `json:"publicUrl"`
	UseSSL          bool          `json:"useSsl"`
	URLExpiry       time.Duration `json:"urlExpiry"`
	MaxUploadMB     int           `json:"maxUploadMb"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	MaxEntries int           `json:"maxEntries"`
	TTL        time.Duration `json:"ttl"`
	Enabled    bool          `json:"enabled"`
	Backend    string        `json:"backend"`
	Prefix     string        `json:"prefix"`
	Redis      RedisConfig   `json:"redis"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Address      string        `json:"address"`
	Password     string        `json:"password"`
	Database     int           `json:"database"`
	PoolSize     int           `json:"poolSize"`
	MinIdleConns int           `json:"minIdleConns"`
	MaxConnAge   time.Duration `json:"maxConnAge"`
}

// LogConfig controls the optional rotating log file
type LogConfig struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
}

// TiersConfig holds tier registry configuration
type TiersConfig struct {
	DefaultName     string        `json:"defaultName"`
	RefreshInterval time.Duration `json:"refreshInterval"`
}

// RateLimitConfig holds rate limiting configuration for a specific endpoint
type RateLimitConfig struct {
	Enabled  bool          `json:"enabled"`
	Max      int           `json:"max"`
	Duration time.Duration `json:"duration"`
}

// RateLimitsConfig holds rate limiting configuration for all endpoints
type RateLimitsConfig struct {
	Upload        RateLimitConfig `json:"upload"`
	TempLinkIssue RateLimitConfig `json:"tempLinkIssue"`
	BinaryFetch   RateLimitConfig `json:"binaryFetch"`
	// BinaryFailures bounds unknown-token lookups per client
	BinaryFailures RateLimitConfig `json:"binaryFailures"`
}

// LoadFromEnv loads configuration from the environment.
// Precedence: explicit environment variables, then the .env file, then defaults.
func LoadFromEnv() (*Config, error) {
	// godotenv never overrides variables that are already set
	envPaths := []string{".env", "../.env", "../../.env"}

	var loadErr error
	for _, envPath := range envPaths {
		loadErr = godotenv.Load(envPath)
		if loadErr == nil {
			break
		}
	}
	if loadErr != nil {
		fmt.Println("INFO: .env file not found, using environment variables and defaults.")
	}

	return load(os.LookupEnv)
}

// LoadFromMap loads configuration from an in-memory map.
// This is the primary helper for testing configuration logic in isolation
// without manipulating global environment variables.
func LoadFromMap(envMap map[string]string) (*Config, error) {
	return load(func(key string) (string, bool) {
		value, ok := envMap[key]
		return value, ok
	})
}

func load(lookup func(string) (string, bool)) (*Config, error) {
	env := envReader{lookup: lookup}

	port := env.Int("SERVER_PORT", 8080)
	config := &Config{
		Server: ServerConfig{
			Host:          env.String("HOST", "localhost"),
			Port:          port,
			PublicBaseURL: strings.TrimSuffix(env.String("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
			WebDomain:     env.String("WEB_DOMAIN", "http://localhost:3000"),
			ProxyHeader:   env.String("SERVER_PROXY_HEADER", ""),
			Debug:         env.Bool("DEBUG", false),
		},
		Database: DatabaseConfig{
			Type: env.String("DB_TYPE", "postgresql"),
			Postgres: PostgreSQLConfig{
				Host:            env.String("POSTGRES_HOST", "localhost"),
				Port:            env.Int("POSTGRES_PORT", 5432),
				Username:        env.String("POSTGRES_USERNAME", ""),
				Password:        env.String("POSTGRES_PASSWORD", ""),
				Database:        env.String("POSTGRES_DATABASE", "imagehost"),
				Schema:          env.String("POSTGRES_SCHEMA", ""),
				SSLMode:         env.String("POSTGRES_SSL_MODE", "disable"),
				MaxOpenConns:    env.Int("POSTGRES_MAX_OPEN_CONNS", 25),
				MaxIdleConns:    env.Int("POSTGRES_MAX_IDLE_CONNS", 25),
				ConnMaxLifetime: time.Duration(env.Int("POSTGRES_CONN_MAX_LIFETIME", 300)) * time.Second,
				AutoMigrate:     env.Bool("POSTGRES_AUTO_MIGRATE", true),
			},
		},
		JWT: JWTConfig{
			PublicKey:  env.String("JWT_PUBLIC_KEY", ""),
			PrivateKey: env.String("JWT_PRIVATE_KEY", ""),
		},
		Storage: StorageConfig{
			Provider:        env.String("STORAGE_PROVIDER", "memory"),
			BucketName:      env.String("STORAGE_BUCKET", ""),
			Endpoint:        env.String("STORAGE_ENDPOINT", ""),
			Region:          env.String("STORAGE_REGION", "auto"),
			AccessKeyID:     env.String("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey: env.String("STORAGE_SECRET_ACCESS_KEY", ""),
			PublicURL:       env.String("STORAGE_PUBLIC_URL", ""),
			UseSSL:          env.Bool("STORAGE_USE_SSL", true),
			URLExpiry:       env.Duration("STORAGE_URL_EXPIRY", 24*time.Hour),
			MaxUploadMB:     env.Int("STORAGE_MAX_UPLOAD_MB", 10),
		},
		Cache: CacheConfig{
			MaxEntries: env.Int("CACHE_MAX_ENTRIES", 10000),
			TTL:        env.Duration("CACHE_TTL", 1*time.Hour),
			Enabled:    env.Bool("CACHE_ENABLED", true),
			Backend:    env.String("CACHE_BACKEND", "memory"),
			Prefix:     env.String("CACHE_PREFIX", "imagehost:"),
			Redis: RedisConfig{
				Address:      env.String("REDIS_ADDRESS", "localhost:6379"),
				Password:     env.String("REDIS_PASSWORD", ""),
				Database:     env.Int("REDIS_DATABASE", 0),
				PoolSize:     env.Int("REDIS_POOL_SIZE", 10),
				MinIdleConns: env.Int("REDIS_MIN_IDLE_CONNS", 5),
				MaxConnAge:   time.Duration(env.Int("REDIS_MAX_CONN_AGE", 300)) * time.Second,
			},
		},
		Log: LogConfig{
			File:       env.String("LOG_FILE", ""),
			MaxSizeMB:  env.Int("LOG_MAX_SIZE_MB", 100),
			MaxBackups: env.Int("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: env.Int("LOG_MAX_AGE_DAYS", 28),
		},
		Tiers: TiersConfig{
			DefaultName:     env.String("TIER_DEFAULT_NAME", "Basic"),
			RefreshInterval: env.Duration("TIER_REFRESH_INTERVAL", 1*time.Minute),
		},
		RateLimits: RateLimitsConfig{
			Upload: RateLimitConfig{
				Enabled:  env.Bool("RATE_LIMIT_UPLOAD_ENABLED", true),
				Max:      env.Int("RATE_LIMIT_UPLOAD_MAX", 60),
				Duration: env.Duration("RATE_LIMIT_UPLOAD_DURATION", 1*time.Hour),
			},
			TempLinkIssue: RateLimitConfig{
				Enabled:  env.Bool("RATE_LIMIT_TEMP_LINK_ENABLED", true),
				Max:      env.Int("RATE_LIMIT_TEMP_LINK_MAX", 120),
				Duration: env.Duration("RATE_LIMIT_TEMP_LINK_DURATION", 1*time.Hour),
			},
			BinaryFetch: RateLimitConfig{
				Enabled:  env.Bool("RATE_LIMIT_BINARY_ENABLED", true),
				Max:      env.Int("RATE_LIMIT_BINARY_MAX", 300),
				Duration: env.Duration("RATE_LIMIT_BINARY_DURATION", 1*time.Minute),
			},
			BinaryFailures: RateLimitConfig{
				Enabled:  env.Bool("RATE_LIMIT_BINARY_FAILURES_ENABLED", true),
				Max:      env.Int("RATE_LIMIT_BINARY_FAILURES_MAX", 20),
				Duration: env.Duration("RATE_LIMIT_BINARY_FAILURES_DURATION", 10*time.Minute),
			},
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration for required fields
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.JWT.PublicKey) == "" {
		errors = append(errors, "JWT_PUBLIC_KEY is required")
	}

	validDbTypes := []string{"postgresql", "memory"}
	if !contains(validDbTypes, c.Database.Type) {
		errors = append(errors, fmt.Sprintf("DB_TYPE must be one of: %s", strings.Join(validDbTypes, ", ")))
	}

	validProviders := []string{"s3", "r2", "minio", "memory"}
	if !contains(validProviders, c.Storage.Provider) {
		errors = append(errors, fmt.Sprintf("STORAGE_PROVIDER must be one of: %s", strings.Join(validProviders, ", ")))
	} else if c.Storage.Provider != "memory" && strings.TrimSpace(c.Storage.BucketName) == "" {
		errors = append(errors, "STORAGE_BUCKET is required for remote storage providers")
	}
	if c.Storage.MaxUploadMB <= 0 {
		errors = append(errors, "STORAGE_MAX_UPLOAD_MB must be positive")
	}

	validBackends := []string{"memory", "redis"}
	if !contains(validBackends, c.Cache.Backend) {
		errors = append(errors, fmt.Sprintf("CACHE_BACKEND must be one of: %s", strings.Join(validBackends, ", ")))
	}

	if strings.TrimSpace(c.Tiers.DefaultName) == "" {
		errors = append(errors, "TIER_DEFAULT_NAME must not be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// MaxUploadBytes returns the upload size ceiling in bytes
func (s StorageConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) * 1024 * 1024
}

// envReader reads typed values through a lookup function, falling back to defaults
// when a key is unset or cannot be parsed.
type envReader struct {
	lookup func(string) (string, bool)
}

func (e envReader) String(key, defaultValue string) string {
	if value, ok := e.lookup(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) Int(key string, defaultValue int) int {
	if value, ok := e.lookup(key); ok && value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e envReader) Bool(key string, defaultValue bool) bool {
	if value, ok := e.lookup(key); ok && value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func (e envReader) Duration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := e.lookup(key); ok && value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
