package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth providers.
const (
	AuthProviderFirebase = "firebase"
	AuthProviderJWT      = "jwt"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Auth     AuthConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// AuthConfig selects and configures the bearer token verifier.
type AuthConfig struct {
	Provider    string
	Firebase    FirebaseConfig
	JWT         JWTConfig
	OperatorKey string
}

// FirebaseConfig holds Firebase Admin SDK configuration.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	PushEnabled     bool
}

// JWTConfig holds the shared-secret verifier configuration.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string // text | json
}

// Load loads configuration from environment variables. A .env file in the
// working directory, when present, seeds variables that are not already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
			AllowedOrigins:  getListEnv("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "ridebook"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			AutoMigrate: getBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "ridebook"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Auth: AuthConfig{
			Provider: strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderFirebase)),
			Firebase: FirebaseConfig{
				ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
				CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
				PushEnabled:     getBoolEnv("FIREBASE_PUSH_ENABLED", false),
			},
			JWT: JWTConfig{
				Secret: getEnv("JWT_SECRET", ""),
				Issuer: getEnv("JWT_ISSUER", "ridebook-dev"),
				TTL:    getDurationEnv("JWT_TTL", time.Hour),
			},
			OperatorKey: getEnv("OPERATOR_API_KEY", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Auth.Provider {
	case AuthProviderFirebase:
		if c.Auth.Firebase.ProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required for the firebase auth provider"))
		}
	case AuthProviderJWT:
		if c.Auth.JWT.Secret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required for the jwt auth provider"))
		}
	default:
		errs = append(errs, errors.New("AUTH_PROVIDER must be firebase or jwt"))
	}
	if c.Auth.Firebase.PushEnabled && c.Auth.Firebase.ProjectID == "" {
		errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required when FIREBASE_PUSH_ENABLED is set"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, errors.New("LOG_FORMAT must be text or json"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
