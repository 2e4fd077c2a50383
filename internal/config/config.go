// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Remote     RemoteConfig
	Table      TableConfig
	Validation ValidationConfig
	Log        LogConfig
}

type ServerConfig struct {
	GRPCPort         string
	HTTPPort         string
	Environment      string
	EnableReflection bool
}

// StorageConfig selects where tasks and categories live and how new ids
// are assigned.
type StorageConfig struct {
	Backend      string
	LocalLatency time.Duration
	IDStrategy   string
	SeedData     bool
}

// Storage backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
	BackendHTTP   = "http"
	BackendTable  = "table"
)

// Id strategies. IDBackend leaves ids to the storage backend.
const (
	IDSequence   = "sequence"
	IDMaxPlusOne = "max"
	IDRedis      = "redis"
	IDBackend    = "backend"
)

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	DSN      string

	// AutoMigrate creates missing tables when the server starts.
	AutoMigrate bool
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type RemoteConfig struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	TasksTable      string
	CategoriesTable string
}

type TableConfig struct {
	ConnectionString string
	Tasks            string
	Categories       string
}

type ValidationConfig struct {
	MaxTitleLength       int
	MaxDescriptionLength int
	MaxNameLength        int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			GRPCPort:         getEnv("GRPC_PORT", "50051"),
			HTTPPort:         getEnv("HTTP_PORT", "8080"),
			Environment:      getEnv("ENVIRONMENT", "development"),
			EnableReflection: getEnvAsBool("GRPC_REFLECTION", false),
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
			LocalLatency: getEnvAsDuration("LOCAL_LATENCY", 0),
			IDStrategy:   strings.ToLower(getEnv("ID_STRATEGY", IDSequence)),
			SeedData:     getEnvAsBool("SEED_DATA", false),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "taskboard"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			DSN:      getEnv("DB_DSN", ""),

			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "taskboard"),
		},
		Remote: RemoteConfig{
			BaseURL:         getEnv("REMOTE_BASE_URL", ""),
			APIKey:          getEnv("REMOTE_API_KEY", ""),
			Timeout:         getEnvAsDuration("REMOTE_TIMEOUT", 10*time.Second),
			TasksTable:      getEnv("REMOTE_TASKS_TABLE", "tasks"),
			CategoriesTable: getEnv("REMOTE_CATEGORIES_TABLE", "categories"),
		},
		Table: TableConfig{
			ConnectionString: getEnv("TABLE_CONNECTION_STRING", ""),
			Tasks:            getEnv("TABLE_TASKS", "Tasks"),
			Categories:       getEnv("TABLE_CATEGORIES", "Categories"),
		},
		Validation: ValidationConfig{
			MaxTitleLength:       getEnvAsInt("MAX_TITLE_LENGTH", 200),
			MaxDescriptionLength: getEnvAsInt("MAX_DESCRIPTION_LENGTH", 5000),
			MaxNameLength:        getEnvAsInt("MAX_NAME_LENGTH", 100),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}, nil
}

// ValidateConfig rejects settings the server cannot start with.
func (c *Config) ValidateConfig() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis, BackendSQL, BackendHTTP, BackendTable:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}

	switch c.Storage.IDStrategy {
	case IDSequence, IDMaxPlusOne, IDBackend:
	case IDRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("ID_STRATEGY=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown ID_STRATEGY %q", c.Storage.IDStrategy)
	}

	switch c.Storage.Backend {
	case BackendHTTP:
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("STORAGE_BACKEND=http requires REMOTE_BASE_URL")
		}
	case BackendTable:
		if c.Table.ConnectionString == "" {
			return fmt.Errorf("STORAGE_BACKEND=table requires TABLE_CONNECTION_STRING")
		}
	}

	if c.Storage.LocalLatency < 0 {
		return fmt.Errorf("LOCAL_LATENCY must not be negative")
	}
	if c.Validation.MaxTitleLength <= 0 || c.Validation.MaxDescriptionLength <= 0 || c.Validation.MaxNameLength <= 0 {
		return fmt.Errorf("validation limits must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	// "300ms", "2s"
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}

	return defaultValue
}
