package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			mutate:  func(cfg *Config) {},
			wantErr: false,
		},
		{
			name: "missing base URL",
			mutate: func(cfg *Config) {
				cfg.Slowly.BaseURL = ""
			},
			wantErr: true,
		},
		{
			name: "invalid logging level",
			mutate: func(cfg *Config) {
				cfg.Logging.Level = "verbose"
			},
			wantErr: true,
		},
		{
			name: "invalid logging format",
			mutate: func(cfg *Config) {
				cfg.Logging.Format = "xml"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Slowly: SlowlyConfig{
					BaseURL: "https://api.getslowly.com/",
					Token:   "some-token",
				},
				Logging: LoggingConfig{
					Level:  "info",
					Format: "console",
				},
			}
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
slowly:
  token: file-token
  email: me@example.com
filter:
  default: "Friend.Unread > 0"
  presets:
    favs: "isFav()"
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", cfg.Slowly.Token)
	assert.Equal(t, "me@example.com", cfg.Slowly.Email)
	assert.Equal(t, "https://api.getslowly.com/", cfg.Slowly.BaseURL)
	assert.Equal(t, "Friend.Unread > 0", cfg.Filter.DefaultExpression)
	assert.Equal(t, "isFav()", cfg.Filter.Presets["favs"])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverridesToken(t *testing.T) {
	t.Setenv("SLOWLY_TOKEN", "env-token")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slowly:\n  token: file-token\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Slowly.Token)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://api.getslowly.com/", cfg.Slowly.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
