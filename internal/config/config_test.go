package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test in an empty directory so no config.yaml is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "products.db", cfg.Database.Path)
	assert.Equal(t, 5, cfg.Scraper.TopN)
	assert.Equal(t, time.Second, cfg.Scraper.RequestInterval)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 40*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, "Europe/Athens", cfg.Browser.TimezoneID)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("WHEYRANKER_SERVER_PORT", "9090")
	t.Setenv("WHEYRANKER_DATABASE_DRIVER", "postgres")
	t.Setenv("WHEYRANKER_DATABASE_HOST", "db")
	t.Setenv("WHEYRANKER_SCRAPER_TOP_N", "10")
	t.Setenv("WHEYRANKER_BROWSER_HEADLESS", "false")
	t.Setenv("WHEYRANKER_REDIS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db", cfg.StoreConfig().Host)
	assert.Equal(t, "whey_ranker", cfg.StoreConfig().Database)
	assert.Equal(t, 10, cfg.Scraper.TopN)
	assert.False(t, cfg.FetcherConfig().Browser.Headless)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := chdirTemp(t)
	yaml := `
scraper:
  request_interval: 3s
  sources:
    fit1:
      - https://www.fit1.gr/custom-listing
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Scraper.RequestInterval)
	assert.Equal(t, []string{"https://www.fit1.gr/custom-listing"}, cfg.Scraper.Sources["fit1"])
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "sqlite", Path: "products.db"},
			Scraper:  ScraperConfig{TopN: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "sqlite without path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "postgres without host", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: true},
		{name: "zero top n", mutate: func(c *Config) { c.Scraper.TopN = 0 }, wantErr: true},
		{name: "negative interval", mutate: func(c *Config) { c.Scraper.RequestInterval = -time.Second }, wantErr: true},
		{name: "redis without addr", mutate: func(c *Config) { c.Redis.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
