package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smallbiznis/invoicekit/internal/config"
)

func TestLoadConfigNormalises(t *testing.T) {
	cfg := LoadConfig(config.Config{
		LogLevel:          " DEBUG ",
		LogFormat:         "yaml",
		OTLPProtocol:      "HTTP/Protobuf",
		OTELSamplingRatio: 4,
		Environment:       "production",
	})

	assert.Equal(t, "invoicekit", cfg.ServiceName)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "http/protobuf", cfg.OtelExporterProtocol)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.True(t, cfg.Debug())
}

func TestDebugFollowsEnvironment(t *testing.T) {
	assert.False(t, LoadConfig(config.Config{Environment: "production"}).Debug())
	assert.True(t, LoadConfig(config.Config{Environment: "local"}).Debug())
}
