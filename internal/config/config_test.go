package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("REPORT_TIMEZONE", "")
	t.Setenv("EXPORT_SETTLE_DELAY", "")

	cfg := Load()
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "America/Sao_Paulo", cfg.ReportTimezone)
	assert.Equal(t, 2*time.Second, cfg.ExportSettleDelay)
	assert.Equal(t, 12*time.Hour, cfg.DraftTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", " Boss@Example.com, ops@example.com ,")
	t.Setenv("DOWNLOAD_TTL", "30m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("PUBLIC_BASE_URL", "https://vig.example.com/")

	cfg := Load()
	assert.Equal(t, []string{"boss@example.com", "ops@example.com"}, cfg.AdminEmails)
	assert.Equal(t, 30*time.Minute, cfg.DownloadTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "https://vig.example.com", cfg.PublicBaseURL)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("REPORT_IMAGE_TIMEOUT", "soon")
	assert.Equal(t, 10*time.Second, Load().ReportImageTimeout)
}
