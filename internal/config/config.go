package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		SQLitePath      string `yaml:"sqlite_path" env:"DB_SQLITE_PATH"`
	} `yaml:"database"`

	JWT struct {
		Secret                string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		Issuer                string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Enrollment struct {
		// SeatPolicy is one of on_apply, on_approval, instant
		SeatPolicy      string `yaml:"seat_policy" env:"ENROLLMENT_SEAT_POLICY"`
		SerializeWrites bool   `yaml:"serialize_writes" env:"ENROLLMENT_SERIALIZE_WRITES"`
	} `yaml:"enrollment"`

	Lock struct {
		Enabled       bool   `yaml:"enabled" env:"LOCK_ENABLED"`
		Backend       string `yaml:"backend" env:"LOCK_BACKEND"`
		LeaseTTL      string `yaml:"lease_ttl" env:"LOCK_LEASE_TTL"`
		RedisAddr     string `yaml:"redis_addr" env:"LOCK_REDIS_ADDR"`
		RedisPassword string `yaml:"redis_password" env:"LOCK_REDIS_PASSWORD"`
		RedisDB       int    `yaml:"redis_db" env:"LOCK_REDIS_DB"`
		RedisPrefix   string `yaml:"redis_prefix" env:"LOCK_REDIS_PREFIX"`
	} `yaml:"lock"`

	RateLimit struct {
		Enabled bool    `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
		RPS     float64 `yaml:"rps" env:"RATE_LIMIT_RPS"`
		Burst   int     `yaml:"burst" env:"RATE_LIMIT_BURST"`
	} `yaml:"rate_limit"`

	Seed struct {
		Enabled       bool   `yaml:"enabled" env:"SEED_ENABLED"`
		AdminEmail    string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
		AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
		AdminName     string `yaml:"admin_name" env:"SEED_ADMIN_NAME"`
	} `yaml:"seed"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load default config with sane defaults
	config := &Config{}
	setDefaults(config)

	// Try to read config file if it exists
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	// Database defaults
	config.Database.Driver = "postgres"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "mclass"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.SQLitePath = "mclass.db"

	// JWT defaults
	config.JWT.AccessTokenExpiration = "24h"
	config.JWT.Issuer = "mclass.app"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Enrollment defaults
	config.Enrollment.SeatPolicy = "on_apply"
	config.Enrollment.SerializeWrites = false

	// Lock defaults
	config.Lock.Enabled = true
	config.Lock.Backend = "memory"
	config.Lock.LeaseTTL = "30s"
	config.Lock.RedisAddr = "localhost:6379"
	config.Lock.RedisPrefix = "mclass:lock"

	// Rate limit defaults
	config.RateLimit.Enabled = true
	config.RateLimit.RPS = 5
	config.RateLimit.Burst = 10

	// Seed defaults
	config.Seed.Enabled = true
	config.Seed.AdminEmail = "admin@mclass.app"
	config.Seed.AdminPassword = "Admin123!"
	config.Seed.AdminName = "Administrator"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	// Recursively process the config structure and look for env tags
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case "sqlite":
		if config.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "":
		return fmt.Errorf("database driver is required")
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.AccessTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT access token expiration format: %w", err)
	}

	switch config.Enrollment.SeatPolicy {
	case "on_apply", "on_approval", "instant":
	default:
		return fmt.Errorf("invalid enrollment seat policy: %q", config.Enrollment.SeatPolicy)
	}

	if config.Lock.Enabled {
		if config.Lock.Backend != "memory" && config.Lock.Backend != "redis" {
			return fmt.Errorf("invalid lock backend: %q", config.Lock.Backend)
		}
		if _, err := time.ParseDuration(config.Lock.LeaseTTL); err != nil {
			return fmt.Errorf("invalid lock lease ttl: %w", err)
		}
		if config.Lock.Backend == "redis" && config.Lock.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis lock backend")
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.RPS <= 0 || config.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	if config.Seed.Enabled && (config.Seed.AdminEmail == "" || config.Seed.AdminPassword == "") {
		return fmt.Errorf("seed admin email and password are required when seeding is enabled")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetEnvAsBool gets an environment variable as a boolean or returns a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	valueLower := strings.ToLower(valueStr)
	if valueLower == "true" || valueLower == "1" || valueLower == "yes" {
		return true
	}
	if valueLower == "false" || valueLower == "0" || valueLower == "no" {
		return false
	}

	return defaultValue
}

// GetEnvAsInt gets an environment variable as an integer or returns a default value
func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
