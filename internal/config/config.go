// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Backend  BackendConfig  `yaml:"backend"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
}

// StoreConfig selects and configures the task record store
type StoreConfig struct {
	Driver      string `yaml:"driver"` // "leveldb" or "postgres"
	LevelDBPath string `yaml:"leveldbPath"`
	PostgresURL string `yaml:"-"`
}

// BackendConfig configures the learning backend client
type BackendConfig struct {
	Mode    string `yaml:"mode"` // "rest" or "memory"
	BaseURL string `yaml:"baseURL"`
	Token   string `yaml:"-"`
}

// DispatchConfig configures the step dispatcher
type DispatchConfig struct {
	Mode         string `yaml:"mode"` // "loopback" or "queue"
	SelfURL      string `yaml:"selfURL"`
	TokenSecret  string `yaml:"-"`
	TokenTTLSecs int    `yaml:"tokenTTL"`
	NATSURL      string `yaml:"natsURL"`
	NATSSubject  string `yaml:"natsSubject"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default configuration values
const (
	DefaultServerPort         = "8080"
	DefaultServerReadTimeout  = 30
	DefaultServerWriteTimeout = 30
	DefaultStoreDriver        = "leveldb"
	DefaultLevelDBPath        = "./data/leveldb"
	DefaultBackendMode        = "rest"
	DefaultDispatchMode       = "loopback"
	DefaultTokenTTL           = 60
	DefaultNATSSubject        = "enroll.step"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// Load creates a new configuration from an optional YAML file with
// environment variable overrides
func Load(configPath string) (*Config, error) {
	var config Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Server = ServerConfig{
		Port:         getEnv("ENROLLD_SERVER_PORT", pick(config.Server.Port, DefaultServerPort)),
		ReadTimeout:  getEnvInt("ENROLLD_SERVER_READ_TIMEOUT", pickInt(config.Server.ReadTimeout, DefaultServerReadTimeout)),
		WriteTimeout: getEnvInt("ENROLLD_SERVER_WRITE_TIMEOUT", pickInt(config.Server.WriteTimeout, DefaultServerWriteTimeout)),
	}

	config.Store = StoreConfig{
		Driver:      getEnv("ENROLLD_STORE_DRIVER", pick(config.Store.Driver, DefaultStoreDriver)),
		LevelDBPath: getEnv("ENROLLD_LEVELDB_PATH", pick(config.Store.LevelDBPath, DefaultLevelDBPath)),
		PostgresURL: os.Getenv("ENROLLD_POSTGRES_URL"),
	}
	if config.Store.Driver == "postgres" && config.Store.PostgresURL == "" {
		return nil, fmt.Errorf("ENROLLD_POSTGRES_URL environment variable is required for the postgres store")
	}

	config.Backend = BackendConfig{
		Mode:    getEnv("ENROLLD_BACKEND_MODE", pick(config.Backend.Mode, DefaultBackendMode)),
		BaseURL: getEnv("ENROLLD_BACKEND_URL", config.Backend.BaseURL),
		Token:   os.Getenv("ENROLLD_BACKEND_TOKEN"),
	}
	if config.Backend.Mode == "rest" && config.Backend.BaseURL == "" {
		return nil, fmt.Errorf("ENROLLD_BACKEND_URL environment variable is required for the rest backend")
	}

	config.Dispatch = DispatchConfig{
		Mode:         getEnv("ENROLLD_DISPATCH_MODE", pick(config.Dispatch.Mode, DefaultDispatchMode)),
		SelfURL:      getEnv("ENROLLD_SELF_URL", config.Dispatch.SelfURL),
		TokenSecret:  os.Getenv("ENROLLD_TOKEN_SECRET"),
		TokenTTLSecs: getEnvInt("ENROLLD_TOKEN_TTL", pickInt(config.Dispatch.TokenTTLSecs, DefaultTokenTTL)),
		NATSURL:      getEnv("ENROLLD_NATS_URL", config.Dispatch.NATSURL),
		NATSSubject:  getEnv("ENROLLD_NATS_SUBJECT", pick(config.Dispatch.NATSSubject, DefaultNATSSubject)),
	}
	if config.Dispatch.Mode == "loopback" {
		if config.Dispatch.SelfURL == "" {
			config.Dispatch.SelfURL = fmt.Sprintf("http://127.0.0.1:%s", config.Server.Port)
		}
		if config.Dispatch.TokenSecret == "" {
			return nil, fmt.Errorf("ENROLLD_TOKEN_SECRET environment variable is required for loopback dispatch")
		}
	}
	if config.Dispatch.Mode == "queue" && config.Dispatch.NATSURL == "" {
		return nil, fmt.Errorf("ENROLLD_NATS_URL environment variable is required for queue dispatch")
	}

	config.Log = LogConfig{
		Level:  getEnv("ENROLLD_LOG_LEVEL", pick(config.Log.Level, DefaultLogLevel)),
		Format: getEnv("ENROLLD_LOG_FORMAT", pick(config.Log.Format, DefaultLogFormat)),
	}

	return &config, nil
}

func pick(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func pickInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}
