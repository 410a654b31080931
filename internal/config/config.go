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
	CORSOrigins []string
	AdminToken  string

	LogLevel  string
	LogFormat string

	OTELEnabled       bool
	OTLPEndpoint      string
	OTLPProtocol      string
	OTELSamplingRatio float64

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis    RedisConfig
	Draft    DraftConfig
	Document DocumentConfig
	External ExternalConfig
	Storage  StorageConfig
	Mail     MailConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a redis address is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type DraftConfig struct {
	TTL             time.Duration
	DueDays         int
	Debounce        time.Duration
	DefaultCurrency string
}

type DocumentConfig struct {
	NumberTemplate string
	RasterScale    float64

	// LogoAllowedHosts are fetched even when they resolve to private addresses.
	LogoAllowedHosts []string
}

type ExternalConfig struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

type StorageConfig struct {
	GCSBucket          string
	GCSCredentialsFile string
}

type MailConfig struct {
	From          string
	RatePerMinute float64
	RateBurst     int

	EmailJS EmailJSConfig
	Gmail   GmailConfig
	SMTP    SMTPConfig
}

type EmailJSConfig struct {
	Endpoint    string
	ServiceID   string
	TemplateID  string
	PublicKey   string
	AccessToken string
}

func (c EmailJSConfig) Enabled() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

type GmailConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

func (c GmailConfig) Enabled() bool { return c.ClientID != "" && c.ClientSecret != "" }

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool { return c.Host != "" }

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "invoicekit"),
		AppVersion:   getenv("SERVICE_VERSION", getenv("APP_VERSION", "0.1.0")),
		Environment:  getenv("DEPLOYMENT_ENV", getenv("ENVIRONMENT", "development")),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		CORSOrigins:  splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),
		AdminToken:   strings.TrimSpace(getenv("ADMIN_TOKEN", "")),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    getenv("LOG_FORMAT", "json"),
		OTELEnabled:  getenvBool("OTEL_ENABLED", false),
		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),
		OTLPProtocol: getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),

		OTELSamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 1),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "invoicekit"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "invoicekit.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Draft: DraftConfig{
			TTL:             getenvDuration("DRAFT_TTL", 30*24*time.Hour),
			DueDays:         getenvInt("DRAFT_DUE_DAYS", 30),
			Debounce:        getenvDuration("DRAFT_DEBOUNCE", 0),
			DefaultCurrency: getenv("DEFAULT_CURRENCY", "USD"),
		},
		Document: DocumentConfig{
			NumberTemplate:   getenv("INVOICE_NUMBER_TEMPLATE", "{RAND}"),
			RasterScale:      getenvFloat("EXPORT_RASTER_SCALE", 3),
			LogoAllowedHosts: splitList(getenv("LOGO_ALLOWED_HOSTS", "")),
		},
		External: ExternalConfig{
			Timeout: getenvDuration("EXTERNAL_TIMEOUT", 10*time.Second),
			Retries: getenvInt("EXTERNAL_RETRIES", 1),
			Backoff: getenvDuration("EXTERNAL_BACKOFF", 300*time.Millisecond),
		},
		Storage: StorageConfig{
			GCSBucket:          strings.TrimSpace(getenv("GCS_BUCKET", "")),
			GCSCredentialsFile: strings.TrimSpace(getenv("GCS_CREDENTIALS_FILE", "")),
		},
		Mail: MailConfig{
			From:          getenv("MAIL_FROM", "no-reply@invoicekit.local"),
			RatePerMinute: getenvFloat("MAIL_RATE_PER_MINUTE", 6),
			RateBurst:     getenvInt("MAIL_RATE_BURST", 3),
			EmailJS: EmailJSConfig{
				Endpoint:    getenv("EMAILJS_ENDPOINT", "https://api.emailjs.com/api/v1.0/email/send"),
				ServiceID:   strings.TrimSpace(getenv("EMAILJS_SERVICE_ID", "")),
				TemplateID:  strings.TrimSpace(getenv("EMAILJS_TEMPLATE_ID", "")),
				PublicKey:   strings.TrimSpace(getenv("EMAILJS_PUBLIC_KEY", "")),
				AccessToken: strings.TrimSpace(getenv("EMAILJS_ACCESS_TOKEN", "")),
			},
			Gmail: GmailConfig{
				ClientID:     strings.TrimSpace(getenv("OAUTH2_CLIENT_ID", "")),
				ClientSecret: strings.TrimSpace(getenv("OAUTH2_CLIENT_SECRET", "")),
				TokenURL:     getenv("OAUTH2_TOKEN_URL", "https://oauth2.googleapis.com/token"),
			},
			SMTP: SMTPConfig{
				Host:     strings.TrimSpace(getenv("SMTP_HOST", "")),
				Port:     getenvInt("SMTP_PORT", 587),
				Username: getenv("SMTP_USERNAME", ""),
				Password: getenv("SMTP_PASSWORD", ""),
				From:     getenv("SMTP_FROM", ""),
			},
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
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

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
