package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	NodeID      int64

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBMigrate         bool

	Redis RedisConfig

	EventsTransport string

	Gateway GatewayConfig

	Admin AdminConfig

	RateLimit RateLimitConfig

	RenewalConfigFile string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a redis address was configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

type GatewayConfig struct {
	Provider           string
	MercadoPagoToken   string
	MercadoPagoBaseURL string
	StripeSecretKey    string
	RequestTimeout     time.Duration
}

type AdminConfig struct {
	Username     string
	PasswordHash string
}

type RateLimitConfig struct {
	Enabled bool
	Rate    float64
	Burst   int
}

const (
	EventsTransportRedis  = "redis"
	EventsTransportMemory = "memory"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "paylane"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		NodeID:            int64(getenvInt("SNOWFLAKE_NODE_ID", 1)),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "paylane"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBMigrate:         getenvBool("DATABASE_MIGRATE", true),
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		EventsTransport: strings.ToLower(strings.TrimSpace(getenv("EVENTS_TRANSPORT", EventsTransportRedis))),
		Gateway: GatewayConfig{
			Provider:           strings.ToLower(strings.TrimSpace(getenv("GATEWAY_PROVIDER", "sandbox"))),
			MercadoPagoToken:   strings.TrimSpace(getenv("MERCADOPAGO_ACCESS_TOKEN", "")),
			MercadoPagoBaseURL: strings.TrimSpace(getenv("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com")),
			StripeSecretKey:    strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			RequestTimeout:     getenvDuration("GATEWAY_REQUEST_TIMEOUT", 15*time.Second),
		},
		Admin: AdminConfig{
			Username:     strings.TrimSpace(getenv("ADMIN_USERNAME", "admin")),
			PasswordHash: strings.TrimSpace(getenv("ADMIN_PASSWORD_HASH", "")),
		},
		RateLimit: RateLimitConfig{
			Enabled: getenvBool("RATE_LIMIT_ENABLED", true),
			Rate:    getenvFloat("RATE_LIMIT_RPS", 20),
			Burst:   getenvInt("RATE_LIMIT_BURST", 40),
		},
		RenewalConfigFile: strings.TrimSpace(getenv("RENEWAL_CONFIG_FILE", "")),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
