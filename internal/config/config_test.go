package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://www.alphavantage.co/query", cfg.AlphaVantage.BaseURL)
	assert.Equal(t, "https://cloud.iexapis.com/v1", cfg.IEX.BaseURL)
	assert.Equal(t, "0 * * * * 1-5", cfg.Schedule.QuoteCron)
	assert.Equal(t, Duration(30*time.Second), cfg.Schedule.RetryDelay)
	assert.Equal(t, "data/portfolio_lens.db", cfg.Cache.SQLitePath)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
alpha_vantage:
  api_key: from-file
iex:
  token: file-token
schedule:
  retry_delay: 45s
server:
  listen_addr: ":9000"
universe:
  - aapl
  - GOOG
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("ALPHAVANTAGE_API_KEY", "from-env")
	t.Setenv("UNIVERSE", "msft, nflx")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.AlphaVantage.APIKey)
	assert.Equal(t, "file-token", cfg.IEX.Token)
	assert.Equal(t, Duration(45*time.Second), cfg.Schedule.RetryDelay)
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"MSFT", "NFLX"}, cfg.Universe)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.AlphaVantage.APIKey = "k"
	assert.Error(t, cfg.Validate())
	cfg.IEX.Token = "tok"
	assert.NoError(t, cfg.Validate())

	cfg2, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg2.MockData = true
	assert.NoError(t, cfg2.Validate())
}
