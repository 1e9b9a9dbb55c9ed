package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, parseDuration("7d", time.Hour))
	assert.Equal(t, 90*time.Minute, parseDuration("90m", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("soon", time.Hour))
	assert.Equal(t, time.Hour, parseDuration("-2d", time.Hour))
}

func TestLoadHonoursLegacyEnvNames(t *testing.T) {
	t.Setenv("NODE_ENV", "production")
	t.Setenv("JWT_EXPIRE", "2d")
	t.Setenv("MAX_FILE_SIZE", "2048")
	t.Setenv("UPLOAD_DIR", "/tmp/uploads")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 48*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, int64(2048), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, "/tmp/uploads", cfg.Uploads.Dir)
	assert.Equal(t, []string{"pdf", "doc", "docx", "txt", "jpg", "jpeg", "png"}, cfg.Uploads.AllowedExtensions)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}
