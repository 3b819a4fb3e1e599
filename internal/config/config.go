package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/maltedev/whey-ranker/internal/browser"
	"github.com/maltedev/whey-ranker/internal/database"
	"github.com/maltedev/whey-ranker/internal/fetcher"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type ScraperConfig struct {
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
	Jitter          time.Duration `mapstructure:"jitter"`
	TopN            int           `mapstructure:"top_n"`
	// Sources overrides listing URLs per source name; unset sources keep
	// their built-in listing pages.
	Sources map[string][]string `mapstructure:"sources"`
}

type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"`
	Timeout           time.Duration `mapstructure:"timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	ViewportWidth     int           `mapstructure:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height"`
	AcceptLanguage    string        `mapstructure:"accept_language"`
	TimezoneID        string        `mapstructure:"timezone"`
	Locale            string        `mapstructure:"locale"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // "sqlite" or "postgres"
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	// TriggerStream carries SCRAPE_RUN_REQUESTED events that queue runs.
	TriggerStream string `mapstructure:"trigger_stream"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	ConsumerName  string `mapstructure:"consumer_name"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config.yaml when present, then WHEYRANKER_* environment
// variables, on top of the defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/whey-ranker/")

	// WHEYRANKER_DATABASE_DRIVER maps to database.driver
	v.SetEnvPrefix("WHEYRANKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "10m")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*", "https://localhost:*"})

	v.SetDefault("scraper.user_agent", browser.DefaultOptions().UserAgent)
	v.SetDefault("scraper.timeout", "30s")
	v.SetDefault("scraper.request_interval", "1s")
	v.SetDefault("scraper.jitter", "500ms")
	v.SetDefault("scraper.top_n", 5)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.timeout", "5s")
	v.SetDefault("browser.navigation_timeout", "40s")
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.accept_language", "el-GR,el;q=0.9,en;q=0.8")
	v.SetDefault("browser.timezone", "Europe/Athens")
	v.SetDefault("browser.locale", "el-GR")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "products.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "whey_ranker")
	v.SetDefault("database.max_conns", 5)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "stream:whey_ranker_runs")
	v.SetDefault("redis.trigger_stream", "stream:whey_ranker_triggers")
	v.SetDefault("redis.consumer_group", "whey-ranker")
	v.SetDefault("redis.consumer_name", "consumer-1")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("database host and name are required for the postgres driver")
		}
	default:
		return fmt.Errorf("database driver must be 'sqlite' or 'postgres', got: %s", c.Database.Driver)
	}

	if c.Scraper.TopN < 1 {
		return fmt.Errorf("scraper top_n must be at least 1")
	}

	if c.Scraper.RequestInterval < 0 || c.Scraper.Jitter < 0 {
		return fmt.Errorf("scraper request_interval and jitter cannot be negative")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when redis is enabled")
	}

	return nil
}

// FetcherConfig maps the scraper and browser sections onto the fetcher.
func (c *Config) FetcherConfig() fetcher.Config {
	return fetcher.Config{
		UserAgent:       c.Scraper.UserAgent,
		Timeout:         c.Scraper.Timeout,
		RequestInterval: c.Scraper.RequestInterval,
		Jitter:          c.Scraper.Jitter,
		Browser: &browser.Options{
			Headless:          c.Browser.Headless,
			Timeout:           c.Browser.Timeout,
			NavigationTimeout: c.Browser.NavigationTimeout,
			UserAgent:         c.Scraper.UserAgent,
			ViewportWidth:     c.Browser.ViewportWidth,
			ViewportHeight:    c.Browser.ViewportHeight,
			AcceptLanguage:    c.Browser.AcceptLanguage,
			TimezoneID:        c.Browser.TimezoneID,
			Locale:            c.Browser.Locale,
		},
	}
}

func (c *Config) StoreConfig() database.Config {
	return database.Config{
		Driver:   c.Database.Driver,
		Path:     c.Database.Path,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		Database: c.Database.Name,
		MaxConns: c.Database.MaxConns,
	}
}
