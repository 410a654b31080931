package observability

import (
	"strings"

	"github.com/smallbiznis/invoicekit/internal/config"
)

// Config is the observability view of the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	return Config{
		ServiceName:          firstNonBlank(cfg.AppName, "invoicekit"),
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             oneOf(cfg.LogLevel, "info", "debug", "info", "warn", "error"),
		LogFormat:            oneOf(cfg.LogFormat, "json", "json", "console"),
		OtelEnabled:          cfg.OTELEnabled,
		OtelExporterEndpoint: strings.TrimSpace(cfg.OTLPEndpoint),
		OtelExporterProtocol: oneOf(cfg.OTLPProtocol, "grpc", "grpc", "http", "http/protobuf"),
		OtelSamplingRatio:    min(max(cfg.OTELSamplingRatio, 0), 1),
	}
}

// Debug is true for debug logging and for local environments.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func firstNonBlank(value, def string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return def
}

// oneOf lower-cases value and falls back to def when it is not in allowed.
func oneOf(value, def string, allowed ...string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return def
}
