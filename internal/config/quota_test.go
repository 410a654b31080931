package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaPolicyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
quota:
  trialPlans: ["trial", "starter"]
  trialLimit: 25
  guardedActions: ["save_invoice"]
`), 0o600))

	holder, err := NewQuotaPolicyHolderFromFile(path, nil)
	require.NoError(t, err)

	p := holder.Get()
	assert.Equal(t, 25, p.TrialLimit)
	assert.True(t, p.IsTrial("Starter"))
	assert.False(t, p.IsTrial("pro"))
	assert.True(t, p.Guards("save_invoice"))
	assert.False(t, p.Guards("download_pdf"))
}

func TestQuotaPolicyRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota.yml")
	require.NoError(t, os.WriteFile(path, []byte("quota:\n  trialLimit: -1\n"), 0o600))

	_, err := NewQuotaPolicyHolderFromFile(path, nil)
	assert.Error(t, err)
}

func TestDefaultQuotaPolicyTreatsBlankPlanAsTrial(t *testing.T) {
	p := DefaultQuotaPolicy()
	assert.True(t, p.IsTrial(""))
	assert.True(t, p.IsTrial(" TRIAL "))
	assert.False(t, p.IsTrial("pro"))
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("EXTERNAL_TIMEOUT", "3s")
	t.Setenv("DRAFT_DUE_DAYS", "14")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test")

	cfg := Load()
	assert.Equal(t, "3s", cfg.External.Timeout.String())
	assert.Equal(t, 14, cfg.Draft.DueDays)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSOrigins)
	assert.False(t, cfg.Redis.Enabled())
}
