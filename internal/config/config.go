package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	CORS     CORSConfig
	Redis    RedisConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
	// AutoMigrate applies embedded migrations on startup.
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Name            string
	Version         string
	Port            int
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// RedisConfig backs the distributed payroll run lock.
// When Enabled is false an in-process lock is used instead.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// PayrollConfig drives the batch payroll driver and its cron trigger.
type PayrollConfig struct {
	TenantIDs       []string
	CronEnabled     bool
	CronSpec        string
	Timezone        string
	Workers         int
	EmployeeTimeout time.Duration
	RunBudget       time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using process environment")
	}

	config := &Config{}

	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	maxConns, err := getEnvInt("DB_MAX_CONNS", 25)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, err
	}
	autoMigrate, err := getEnvBool("DB_AUTO_MIGRATE", true)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        dbPort,
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", ""),
		Name:        getEnv("DB_NAME", "gaushala"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		MaxConns:    int32(maxConns),
		MinConns:    int32(minConns),
		AutoMigrate: autoMigrate,
	}

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := getEnvDuration("APP_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Name:            getEnv("APP_NAME", "gaushala-payroll"),
		Version:         getEnv("APP_VERSION", "v1.0.0"),
		Port:            appPort,
		Env:             getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: shutdownTimeout,
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Redis configuration
	redisEnabled, err := getEnvBool("REDIS_ENABLED", false)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	lockTTL, err := getEnvDuration("REDIS_LOCK_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	config.Redis = RedisConfig{
		Enabled:  redisEnabled,
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
		LockTTL:  lockTTL,
	}

	payroll, err := loadPayrollConfig()
	if err != nil {
		return nil, err
	}
	config.Payroll = payroll

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadPayrollConfig() (PayrollConfig, error) {
	cronEnabled, err := getEnvBool("PAYROLL_CRON_ENABLED", true)
	if err != nil {
		return PayrollConfig{}, err
	}
	workers, err := getEnvInt("PAYROLL_WORKERS", 4)
	if err != nil {
		return PayrollConfig{}, err
	}
	employeeTimeout, err := getEnvDuration("PAYROLL_EMPLOYEE_TIMEOUT", 30*time.Second)
	if err != nil {
		return PayrollConfig{}, err
	}
	runBudget, err := getEnvDuration("PAYROLL_RUN_BUDGET", 15*time.Minute)
	if err != nil {
		return PayrollConfig{}, err
	}
	maxRetries, err := getEnvInt("PAYROLL_MAX_RETRIES", 3)
	if err != nil {
		return PayrollConfig{}, err
	}
	retryBackoff, err := getEnvDuration("PAYROLL_RETRY_BACKOFF", 200*time.Millisecond)
	if err != nil {
		return PayrollConfig{}, err
	}

	return PayrollConfig{
		TenantIDs:       getEnvSlice("PAYROLL_TENANT_IDS", nil),
		CronEnabled:     cronEnabled,
		CronSpec:        getEnv("PAYROLL_CRON_SPEC", "0 0 * * *"),
		Timezone:        getEnv("PAYROLL_TIMEZONE", "Asia/Kolkata"),
		Workers:         workers,
		EmployeeTimeout: employeeTimeout,
		RunBudget:       runBudget,
		MaxRetries:      maxRetries,
		RetryBackoff:    retryBackoff,
	}, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if c.Payroll.Workers < 1 {
		return fmt.Errorf("PAYROLL_WORKERS must be at least 1")
	}
	if c.Payroll.MaxRetries < 0 {
		return fmt.Errorf("PAYROLL_MAX_RETRIES must not be negative")
	}
	if c.Payroll.EmployeeTimeout <= 0 || c.Payroll.RunBudget <= 0 {
		return fmt.Errorf("PAYROLL_EMPLOYEE_TIMEOUT and PAYROLL_RUN_BUDGET must be positive")
	}
	if _, err := time.LoadLocation(c.Payroll.Timezone); err != nil {
		return fmt.Errorf("invalid PAYROLL_TIMEZONE: %w", err)
	}
	if c.Payroll.CronEnabled && len(c.Payroll.TenantIDs) == 0 {
		return fmt.Errorf("PAYROLL_TENANT_IDS is required when PAYROLL_CRON_ENABLED is true")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required when REDIS_ENABLED is true")
	}
	// The run lock must outlive the run, or a second run can start mid-batch.
	if c.Redis.LockTTL <= c.Payroll.RunBudget {
		return fmt.Errorf("REDIS_LOCK_TTL must be greater than PAYROLL_RUN_BUDGET")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location returns the timezone the payroll month is evaluated in.
func (c PayrollConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
