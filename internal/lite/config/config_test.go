package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LITE_ENV", "test")
	t.Setenv("LITE_SECRET_KEY", "s3cret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, ":8090", cfg.Address)
	assert.Equal(t, 14, cfg.LoanDays)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "1", cfg.FinePerDay.String())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.Production())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.qa"),
		[]byte("LITE_SECRET_KEY=from-file\nLITE_LOAN_DAYS=7\nLITE_ALLOWED_ORIGINS=https://a.test, https://b.test\n"), 0o600))
	t.Setenv("LITE_ENV", "qa")
	t.Cleanup(func() {
		os.Unsetenv("LITE_SECRET_KEY")
		os.Unsetenv("LITE_LOAN_DAYS")
		os.Unsetenv("LITE_ALLOWED_ORIGINS")
	})

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.SecretKey)
	assert.Equal(t, 7, cfg.LoanDays)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"no secret", map[string]string{"LITE_SECRET_KEY": ""}, "LITE_SECRET_KEY"},
		{"bad fine", map[string]string{"LITE_SECRET_KEY": "k", "LITE_FINE_PER_DAY": "lots"}, "fine_per_day"},
		{"negative fine", map[string]string{"LITE_SECRET_KEY": "k", "LITE_FINE_PER_DAY": "-1"}, "LITE_FINE_PER_DAY"},
		{"zero loan", map[string]string{"LITE_SECRET_KEY": "k", "LITE_LOAN_DAYS": "0"}, "LITE_LOAN_DAYS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LITE_ENV", "test")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(t.TempDir())
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
