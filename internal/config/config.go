package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQL    = "sql"
	DriverGORM   = "gorm"
	DriverMongo  = "mongo"
	DriverMemory = "memory"

	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"

	devSessionSecret = "task-tracker-dev-secret-change-me"
)

// Config holds all application configuration.
type Config struct {
	Production  bool              `yaml:"production"`
	HTTP        HTTPConfig        `yaml:"http"`
	GRPC        GRPCConfig        `yaml:"grpc"`
	Storage     StorageConfig     `yaml:"storage"`
	Session     SessionConfig     `yaml:"session"`
	Redis       RedisConfig       `yaml:"redis"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Log         LogConfig         `yaml:"log"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type StorageConfig struct {
	Driver   string `yaml:"driver"`   // sql | gorm | mongo | memory
	Dialect  string `yaml:"dialect"`  // postgres | sqlite, for sql and gorm
	DSN      string `yaml:"dsn"`      // connection string or sqlite file path
	Database string `yaml:"database"` // mongo database name
}

type SessionConfig struct {
	Store      string        `yaml:"store"` // redis | memory
	Secret     string        `yaml:"secret"`
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CredentialsConfig struct {
	Retain bool          `yaml:"retain"`
	TTL    time.Duration `yaml:"ttl"` // zero keeps entries until restart
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"` // OTLP gRPC collector; empty disables export
	ServiceName string `yaml:"service_name"`
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Address: ":8080"},
		GRPC: GRPCConfig{Address: ":50051"},
		Storage: StorageConfig{
			Driver:   DriverSQL,
			Dialect:  DialectSQLite,
			DSN:      "app.db",
			Database: "task_tracker",
		},
		Session: SessionConfig{
			Store:      SessionStoreMemory,
			Secret:     devSessionSecret,
			CookieName: "sid",
			TTL:        24 * time.Hour,
		},
		Redis:       RedisConfig{Addr: "localhost:6379"},
		Credentials: CredentialsConfig{Retain: true},
		Log:         LogConfig{Level: "info"},
		Tracing:     TracingConfig{ServiceName: "task-tracker"},
	}
}

// Load builds the configuration from defaults, an optional YAML file, a .env
// file and the environment, in that order of increasing precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var err error
	c.Production = getEnvBool("PRODUCTION", c.Production)
	c.HTTP.Address = getEnv("HTTP_ADDRESS", c.HTTP.Address)
	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		c.HTTP.AllowedOrigins = splitList(origins)
	}
	c.GRPC.Address = getEnv("GRPC_ADDRESS", c.GRPC.Address)

	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Dialect = getEnv("STORAGE_DIALECT", c.Storage.Dialect)
	c.Storage.DSN = getEnv("DATABASE_URL", c.Storage.DSN)
	c.Storage.Database = getEnv("DATABASE_NAME", c.Storage.Database)

	c.Session.Store = getEnv("SESSION_STORE", c.Session.Store)
	c.Session.Secret = getEnv("SESSION_SECRET", c.Session.Secret)
	c.Session.CookieName = getEnv("SESSION_COOKIE", c.Session.CookieName)
	if c.Session.TTL, err = getEnvDuration("SESSION_TTL", c.Session.TTL); err != nil {
		return err
	}

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	if c.Redis.DB, err = getEnvInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}

	c.Credentials.Retain = getEnvBool("CREDENTIALS_RETAIN", c.Credentials.Retain)
	if c.Credentials.TTL, err = getEnvDuration("CREDENTIALS_TTL", c.Credentials.TTL); err != nil {
		return err
	}

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)

	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.ServiceName = getEnv("OTEL_SERVICE_NAME", c.Tracing.ServiceName)
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQL, DriverGORM:
		if c.Storage.Dialect != DialectPostgres && c.Storage.Dialect != DialectSQLite {
			return fmt.Errorf("unsupported storage dialect %q", c.Storage.Dialect)
		}
		if c.Storage.DSN == "" {
			return errors.New("DATABASE_URL is required for sql and gorm storage")
		}
	case DriverMongo:
		if c.Storage.DSN == "" {
			return errors.New("DATABASE_URL is required for mongo storage")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	switch c.Session.Store {
	case SessionStoreRedis, SessionStoreMemory:
	default:
		return fmt.Errorf("unsupported session store %q", c.Session.Store)
	}
	if c.Session.Secret == "" {
		return errors.New("SESSION_SECRET must not be empty")
	}
	if c.Production && c.Session.Secret == devSessionSecret {
		return errors.New("SESSION_SECRET must be set in production")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	return nil
}

// String returns a representation of the config with secrets masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{HTTP: %s, gRPC: %s, Storage: %s/%s, Sessions: %s, Session secret: *** (masked) ***, Production: %t}",
		c.HTTP.Address, c.GRPC.Address, c.Storage.Driver, c.Storage.Dialect, c.Session.Store, c.Production)
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

func getEnvBool(key string, defaultVal bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return defaultVal
		}
		return b
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		return d, nil
	}
	return defaultVal, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
