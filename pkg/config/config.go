package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// DSN returns DATABASE_URL when set, otherwise a key/value PostgreSQL DSN
func (c *DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone)
}

type ServerConfig struct {
	Port string
	Env  string
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured
func (c RedisConfig) Enabled() bool {
	return c.Address != ""
}

// LedgerConfig holds the knobs of the stock ledger itself
type LedgerConfig struct {
	TimeZone             string
	SaleNumberPrefix     string
	PurchaseNumberPrefix string
	TxTimeout            time.Duration
	LockTTL              time.Duration
	LowStockThreshold    int
}

// Location resolves the ledger timezone, falling back to UTC+7 when tzdata is missing
func (c LedgerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// AdminConfig is the account seeded on first start
type AdminConfig struct {
	Email    string
	Password string
}

type Config struct {
	ServiceName    string
	Admin          AdminConfig
	DB             DBConfig
	Server         ServerConfig
	JWT            JWTConfig
	Redis          RedisConfig
	Ledger         LedgerConfig
	LogLevel       string
	TracingEnabled bool
}

// Load reads .env (optional) and the process environment
func Load(serviceName string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	cfg := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "inventory"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			TimeZone:        getEnv("TIMEZONE", "Asia/Jakarta"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@example.com"),
			Password: getEnv("ADMIN_PASSWORD", "admin123"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Ledger: LedgerConfig{
			TimeZone:             getEnv("TIMEZONE", "Asia/Jakarta"),
			SaleNumberPrefix:     getEnv("SALE_NUMBER_PREFIX", "SL"),
			PurchaseNumberPrefix: getEnv("PURCHASE_NUMBER_PREFIX", "PO"),
			TxTimeout:            getEnvAsDuration("LEDGER_TX_TIMEOUT", 15*time.Second),
			LockTTL:              getEnvAsDuration("LOCK_TTL", 30*time.Second),
			LowStockThreshold:    getEnvAsInt("LOW_STOCK_THRESHOLD", 10),
		},
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TracingEnabled: getEnvAsBool("TRACING_ENABLED", false),
	}

	if cfg.Ledger.SaleNumberPrefix == cfg.Ledger.PurchaseNumberPrefix {
		return nil, fmt.Errorf("SALE_NUMBER_PREFIX and PURCHASE_NUMBER_PREFIX must differ (both %q)", cfg.Ledger.SaleNumberPrefix)
	}

	return cfg, nil
}

// Fields returns the non-secret configuration as zap fields for the startup log
func (c *Config) Fields() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.Name),
		zap.String("port", c.Server.Port),
		zap.Bool("redis", c.Redis.Enabled()),
		zap.String("timezone", c.Ledger.TimeZone),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	switch getEnv(key, "") {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
