package config

import (
	"fmt"
	"time"

	"cities-server/internal/shared/utils"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Frontend   FrontendConfig
	Logging    LoggingConfig
	RateLimit  RateLimitConfig
	Pagination PaginationConfig
}

type ServerConfig struct {
	Port            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PrePing         bool
	Keepalive       KeepaliveConfig
}

// KeepaliveConfig mirrors the libpq keepalives* connection parameters
type KeepaliveConfig struct {
	Enabled  bool
	Idle     time.Duration
	Interval time.Duration
	Count    int
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	JSONFormat bool
	AddSource  bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TrustProxy        bool
}

type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

func load() (*Config, error) {
	config := &Config{
		Server:     loadServerConfig(),
		Database:   loadDatabaseConfig(),
		Frontend:   loadFrontendConfig(),
		Logging:    loadLoggingConfig(),
		RateLimit:  loadRateLimitConfig(),
		Pagination: loadPaginationConfig(),
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            utils.GetEnv("SERVER_PORT", "8080"),
		Environment:     utils.GetEnv("ENVIRONMENT", "development"),
		ReadTimeout:     utils.GetEnvSeconds("SERVER_READ_TIMEOUT_SECONDS", 15),
		WriteTimeout:    utils.GetEnvSeconds("SERVER_WRITE_TIMEOUT_SECONDS", 15),
		IdleTimeout:     utils.GetEnvSeconds("SERVER_IDLE_TIMEOUT_SECONDS", 60),
		ShutdownTimeout: utils.GetEnvSeconds("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 10),
	}
}

// Database settings accept the PG* names used by libpq as fallbacks.
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            utils.GetEnv("DB_HOST", utils.GetEnv("PGHOST", "localhost")),
		Port:            utils.GetEnv("DB_PORT", utils.GetEnv("PGPORT", "5432")),
		User:            utils.GetEnv("DB_USER", utils.GetEnv("PGUSER", "postgres")),
		Password:        utils.GetEnv("DB_PASSWORD", utils.GetEnv("PGPASSWORD", "postgres")),
		Name:            utils.GetEnv("DB_NAME", utils.GetEnv("PGDATABASE", "cities")),
		SSLMode:         utils.GetEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    utils.GetEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    utils.GetEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: utils.GetEnvSeconds("DB_CONN_MAX_LIFETIME_SECONDS", 3600),
		ConnMaxIdleTime: utils.GetEnvSeconds("DB_CONN_MAX_IDLE_TIME_SECONDS", 300),
		PrePing:         utils.GetEnvBool("DB_PRE_PING", true),
		Keepalive: KeepaliveConfig{
			Enabled:  utils.GetEnvBool("DB_KEEPALIVES", true),
			Idle:     utils.GetEnvSeconds("DB_KEEPALIVES_IDLE_SECONDS", 30),
			Interval: utils.GetEnvSeconds("DB_KEEPALIVES_INTERVAL_SECONDS", 10),
			Count:    utils.GetEnvInt("DB_KEEPALIVES_COUNT", 5),
		},
	}
}

func loadFrontendConfig() FrontendConfig {
	return FrontendConfig{
		URL:       utils.GetEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSDebug: utils.GetEnv("CORS_DEBUG", "") == "true",
	}
}

func loadLoggingConfig() LoggingConfig {
	environment := utils.GetEnv("ENVIRONMENT", "development")
	format := utils.GetEnv("LOG_FORMAT", "text")

	return LoggingConfig{
		Level:      utils.GetEnv("LOG_LEVEL", "info"),
		Format:     format,
		JSONFormat: environment == "production" || format == "json",
		AddSource:  utils.GetEnvBool("LOG_ADD_SOURCE", false),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	requestsPerSecond := float64(utils.GetEnvInt("RATE_LIMIT_REQUESTS_PER_SECOND", 20))

	return RateLimitConfig{
		Enabled:           utils.GetEnv("RATE_LIMIT_ENABLED", "true") == "true",
		RequestsPerSecond: requestsPerSecond,
		BurstSize:         utils.GetEnvInt("RATE_LIMIT_BURST_SIZE", 40),
		TrustProxy:        utils.GetEnvBool("RATE_LIMIT_TRUST_PROXY", false),
	}
}

func loadPaginationConfig() PaginationConfig {
	return PaginationConfig{
		DefaultPageSize: utils.GetEnvInt("PAGINATION_DEFAULT_PAGE_SIZE", 10),
		MaxPageSize:     utils.GetEnvInt("PAGINATION_MAX_PAGE_SIZE", 100),
	}
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive")
	}

	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS")
	}

	if c.Pagination.DefaultPageSize < 1 || c.Pagination.DefaultPageSize > c.Pagination.MaxPageSize {
		return fmt.Errorf("PAGINATION_DEFAULT_PAGE_SIZE must be between 1 and PAGINATION_MAX_PAGE_SIZE")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize <= 0) {
		return fmt.Errorf("rate limit requires positive RATE_LIMIT_REQUESTS_PER_SECOND and RATE_LIMIT_BURST_SIZE")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
