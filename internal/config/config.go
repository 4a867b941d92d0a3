package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `json:"server"`
	Database     DatabaseConfig     `json:"database"`
	Verification VerificationConfig `json:"verification"`
	Storage      StorageConfig      `json:"storage"`
	Security     SecurityConfig     `json:"security"`
	RateLimit    RateLimitConfig    `json:"rate_limit"`
	Listings     ListingsConfig     `json:"listings"`
	Logging      LoggingConfig      `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
}

// VerificationConfig configures the external certificate verification service.
// An empty BaseURL puts the portal in demo mode: submissions are answered by a
// local deterministic generator instead of the real service.
type VerificationConfig struct {
	BaseURL        string        `json:"base_url"`
	RequestTimeout time.Duration `json:"request_timeout"`
	HealthTimeout  time.Duration `json:"health_timeout"`
	ProbeSchedule  string        `json:"probe_schedule"`
}

// StorageConfig configures object storage for uploaded certificate files
type StorageConfig struct {
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	KeyPrefix string `json:"key_prefix"`
}

// SecurityConfig holds auth settings
type SecurityConfig struct {
	JWTSecret string        `json:"jwt_secret"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// RateLimitConfig bounds verification submissions per user
type RateLimitConfig struct {
	Limit  int           `json:"limit"`
	Window time.Duration `json:"window"`
}

// ListingsConfig holds listing lifecycle settings
type ListingsConfig struct {
	PublishedTTL  time.Duration `json:"published_ttl"`
	ExpirySchedule string       `json:"expiry_schedule"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// DemoMode reports whether the verification service is unconfigured and the
// portal should answer submissions from the local mock generator.
func (c *VerificationConfig) DemoMode() bool {
	return c.BaseURL == ""
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "tanaestate_portal",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
		},
		Verification: VerificationConfig{
			RequestTimeout: 120 * time.Second,
			HealthTimeout:  5 * time.Second,
			ProbeSchedule:  "* * * * *",
		},
		Storage: StorageConfig{
			Bucket:    "tanaestate-certificates",
			Region:    "ap-southeast-1",
			KeyPrefix: "users",
		},
		Security: SecurityConfig{
			TokenTTL: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Limit:  10,
			Window: time.Minute,
		},
		Listings: ListingsConfig{
			PublishedTTL:   90 * 24 * time.Hour,
			ExpirySchedule: "0 2 * * *",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DATABASE_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			config.Database.Port = p
		}
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if baseURL := os.Getenv("VERIFICATION_API_URL"); baseURL != "" {
		config.Verification.BaseURL = baseURL
	}
	if bucket := os.Getenv("STORAGE_BUCKET"); bucket != "" {
		config.Storage.Bucket = bucket
	}
	if region := os.Getenv("STORAGE_REGION"); region != "" {
		config.Storage.Region = region
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Security.JWTSecret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
