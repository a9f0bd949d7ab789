package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the process-wide configuration, loaded once at startup and passed
// by reference to every module. No other global state exists.
type Config struct {
	Server   ServerConfig
	Keycloak KeycloakConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Notifx   NotifxConfig
}

// ServerConfig configures the HTTP front door.
type ServerConfig struct {
	Port        string
	CORSOrigins string
	SeedRoles   bool
}

// KeycloakConfig holds the IdP coordinates: one client for user-facing
// password/refresh grants and one service-account client for the admin API.
type KeycloakConfig struct {
	ServerURL string
	Realm     string

	// Client used for password/refresh/logout grants.
	ClientID     string
	ClientSecret string

	// Service-account client for the admin REST API (client-credentials).
	AdminClientID     string
	AdminClientSecret string

	// Timeout applied to every outbound IdP call.
	Timeout time.Duration

	// Bound on concurrent admin-API calls fanned out per request.
	AdminWorkers int
}

// DatabaseConfig configures the optional Postgres audit store.
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig configures the optional login rate limiter backend.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int

	// Login attempts allowed per window, keyed by username+IP.
	LoginLimit  int
	LoginWindow time.Duration
}

// Address returns host:port.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// NotifxConfig configures the account-created notification.
type NotifxConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	AWSRegion   string
}

// Load reads the full configuration from the environment.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			SeedRoles:   getEnvBool("SEED_ROLES", false),
		},
		Keycloak: KeycloakConfig{
			ServerURL:         getEnv("KEYCLOAK_SERVER_URL", "http://localhost:8180"),
			Realm:             getEnv("KEYCLOAK_REALM", "libromesh"),
			ClientID:          getEnv("KEYCLOAK_CLIENT_ID", "libromesh-web"),
			ClientSecret:      getEnv("KEYCLOAK_CLIENT_SECRET", ""),
			AdminClientID:     getEnv("KEYCLOAK_ADMIN_CLIENT_ID", "libromesh-admin"),
			AdminClientSecret: getEnv("KEYCLOAK_ADMIN_CLIENT_SECRET", ""),
			Timeout:           getEnvDuration("KEYCLOAK_TIMEOUT", 10*time.Second),
			AdminWorkers:      getEnvInt("KEYCLOAK_ADMIN_WORKERS", 8),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvBool("AUDIT_DB_ENABLED", false),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "identity"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "identity"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:     getEnvBool("REDIS_ENABLED", false),
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnvInt("REDIS_PORT", 6379),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			LoginLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
			LoginWindow: getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),
		},
		Notifx: NotifxConfig{
			Provider:    getEnv("NOTIFX_PROVIDER", "console"),
			FromAddress: getEnv("NOTIFX_FROM_ADDRESS", "noreply@libromesh.io"),
			FromName:    getEnv("NOTIFX_FROM_NAME", "LibroMesh"),
			AWSRegion:   getEnv("NOTIFX_AWS_REGION", getEnv("AWS_REGION", "us-east-1")),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
