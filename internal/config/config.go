package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts Go duration strings ("30s", "1m") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds all application configuration.
type Config struct {
	AlphaVantage struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"alpha_vantage"`
	IEX struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"iex"`
	Schedule struct {
		QuoteCron  string   `yaml:"quote_cron"`
		RetryDelay Duration `yaml:"retry_delay"`
	} `yaml:"schedule"`
	Cache struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"cache"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Universe []string `yaml:"universe"`
	Proxy    string   `yaml:"proxy"`
	MockData bool     `yaml:"mock_data"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("ALPHAVANTAGE_BASE_URL"); v != "" {
		cfg.AlphaVantage.BaseURL = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("IEX_BASE_URL"); v != "" {
		cfg.IEX.BaseURL = v
	}
	if v := os.Getenv("IEX_TOKEN"); v != "" {
		cfg.IEX.Token = v
	}
	if v := os.Getenv("QUOTE_CRON"); v != "" {
		cfg.Schedule.QuoteCron = v
	}
	if v := os.Getenv("RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Schedule.RetryDelay = Duration(d)
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Cache.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("UNIVERSE"); v != "" {
		cfg.Universe = splitSymbols(v)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("MOCK_DATA"); v == "1" || strings.EqualFold(v, "true") {
		cfg.MockData = true
	}

	// Defaults
	if cfg.AlphaVantage.BaseURL == "" {
		cfg.AlphaVantage.BaseURL = "https://www.alphavantage.co/query"
	}
	if cfg.IEX.BaseURL == "" {
		cfg.IEX.BaseURL = "https://cloud.iexapis.com/v1"
	}
	if cfg.Schedule.QuoteCron == "" {
		cfg.Schedule.QuoteCron = "0 * * * * 1-5"
	}
	if cfg.Schedule.RetryDelay == 0 {
		cfg.Schedule.RetryDelay = Duration(30 * time.Second)
	}
	if cfg.Cache.SQLitePath == "" {
		cfg.Cache.SQLitePath = "data/portfolio_lens.db"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.MockData {
		return nil
	}
	if c.AlphaVantage.APIKey == "" {
		return fmt.Errorf("alpha_vantage.api_key is required")
	}
	if c.IEX.Token == "" {
		return fmt.Errorf("iex.token is required")
	}
	return nil
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}
