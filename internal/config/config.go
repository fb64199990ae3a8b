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

	OTLPEndpoint string

	// Optional push export of the pipeline metrics registry.
	MetricsPushExporter string
	MetricsPushEndpoint string
	MetricsPushToken    string
	MetricsPushInterval time.Duration

	// AI completion provider.
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// Downstream ingestion service and the secret shared with it.
	AppURL       string
	SharedSecret string

	FallbackShopDomain  string
	IncludeCustomerName bool
	HTTPClientTimeout   time.Duration

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
}

const (
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:             getenv("APP_SERVICE", "orderpulse"),
		AppVersion:          getenv("APP_VERSION", "0.1.0"),
		Environment:         getenv("ENVIRONMENT", "development"),
		HTTPAddr:            getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint:        getenv("OTLP_ENDPOINT", "localhost:4317"),
		MetricsPushExporter: strings.ToLower(strings.TrimSpace(getenv("METRICS_PUSH_EXPORTER", ""))),
		MetricsPushEndpoint: strings.TrimSpace(getenv("METRICS_PUSH_ENDPOINT", "")),
		MetricsPushToken:    strings.TrimSpace(getenv("METRICS_PUSH_TOKEN", "")),
		MetricsPushInterval: time.Duration(getenvInt64("METRICS_PUSH_INTERVAL", 30)) * time.Second,
		OpenAIAPIKey:        strings.TrimSpace(getenv("OPENAI_API_KEY", "")),
		OpenAIModel:         strings.TrimSpace(getenv("OPENAI_MODEL", DefaultOpenAIModel)),
		OpenAIBaseURL:       strings.TrimRight(strings.TrimSpace(getenv("OPENAI_BASE_URL", DefaultOpenAIBaseURL)), "/"),
		AppURL:              strings.TrimRight(strings.TrimSpace(getenv("APP_URL", "")), "/"),
		SharedSecret:        strings.TrimSpace(getenv("SHOPIFY_API_SECRET", "")),
		FallbackShopDomain:  strings.TrimSpace(getenv("FALLBACK_SHOP_DOMAIN", "")),
		IncludeCustomerName: getenvBool("INCLUDE_CUSTOMER_NAME", false),
		HTTPClientTimeout:   time.Duration(getenvInt64("HTTP_CLIENT_TIMEOUT", 10)) * time.Second,
		DBType:              getenv("DATABASE_TYPE", "postgres"),
		DBHost:              getenv("DATABASE_HOST", "localhost"),
		DBPort:              getenv("DATABASE_PORT", "5432"),
		DBName:              getenv("DATABASE_NAME", "postgres"),
		DBUser:              getenv("DATABASE_USER", "postgres"),
		DBPassword:          getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:           getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:       int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:       int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime:   int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime:   int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
	}

	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = DefaultOpenAIModel
	}
	if cfg.HTTPClientTimeout <= 0 {
		cfg.HTTPClientTimeout = 10 * time.Second
	}
	if cfg.MetricsPushInterval <= 0 {
		cfg.MetricsPushInterval = 30 * time.Second
	}

	return cfg
}

// ValidateProcessor checks the keys the event processor cannot run without.
func (c Config) ValidateProcessor() error {
	var missing []string
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.AppURL == "" {
		missing = append(missing, "APP_URL")
	}
	if c.SharedSecret == "" {
		missing = append(missing, "SHOPIFY_API_SECRET")
	}
	return missingKeys(missing)
}

// ValidateIngest checks the keys the ingestion service cannot run without.
func (c Config) ValidateIngest() error {
	if c.SharedSecret == "" {
		return missingKeys([]string{"SHOPIFY_API_SECRET"})
	}
	return nil
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

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
