package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
api:
  public_key: kraken-public-key
  private_key: kraken-private-key
dca:
  - pair: XETHZEUR
    delay: 1
    amount: 20
  - pair: XXBTZEUR
    delay: 3
    amount: "15.5"
    limit_factor: "0.985"
    max_price: "60000"
    ignore_differing_orders: true
`

func TestLoad(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPISecret, "")

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	require.Equal(t, "kraken-public-key", cfg.APIKey)
	require.Equal(t, "kraken-private-key", cfg.APISecret)
	require.Len(t, cfg.Pairs, 2)

	eth := cfg.Pairs[0]
	require.Equal(t, "XETHZEUR", eth.Pair)
	require.Equal(t, 1, eth.DelayDays)
	require.Equal(t, "20", eth.Amount.String())
	require.Equal(t, "1", eth.LimitFactor.String())
	require.Nil(t, eth.MaxPrice)
	require.False(t, eth.IgnoreDifferingOrders)

	btc := cfg.Pairs[1]
	require.Equal(t, 3, btc.DelayDays)
	require.Equal(t, "15.5", btc.Amount.String())
	require.Equal(t, "0.985", btc.LimitFactor.String())
	require.NotNil(t, btc.MaxPrice)
	require.Equal(t, "60000", btc.MaxPrice.String())
	require.True(t, btc.IgnoreDifferingOrders)
}

func TestLoadEnvOverridesFileKeys(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-public-key")
	t.Setenv(EnvAPISecret, "env-private-key")

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)
	require.Equal(t, "env-public-key", cfg.APIKey)
	require.Equal(t, "env-private-key", cfg.APISecret)
}

func TestLoadEnvSuppliesMissingKeys(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-public-key")
	t.Setenv(EnvAPISecret, "env-private-key")

	cfg, err := Load(writeConfig(t, `
dca:
  - pair: XETHZEUR
    delay: 1
    amount: 20
`))
	require.NoError(t, err)
	require.Equal(t, "env-public-key", cfg.APIKey)
	require.Equal(t, "env-private-key", cfg.APISecret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot read configuration file")
}

func TestLoadValidation(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPISecret, "")

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "not yaml",
			yaml:    "api: [broken",
			wantErr: "incorrectly formatted",
		},
		{
			name: "missing private key",
			yaml: `
api:
  public_key: key
dca:
  - pair: XETHZEUR
    delay: 1
    amount: 20
`,
			wantErr: "private key",
		},
		{
			name: "no pairs",
			yaml: `
api:
  public_key: key
  private_key: secret
`,
			wantErr: "at least one pair",
		},
		{
			name: "zero delay",
			yaml: `
api:
  public_key: key
  private_key: secret
dca:
  - pair: XETHZEUR
    delay: 0
    amount: 20
`,
			wantErr: "delay",
		},
		{
			name: "negative amount",
			yaml: `
api:
  public_key: key
  private_key: secret
dca:
  - pair: XETHZEUR
    delay: 1
    amount: "-20"
`,
			wantErr: "amount",
		},
		{
			name: "limit factor too precise",
			yaml: `
api:
  public_key: key
  private_key: secret
dca:
  - pair: XETHZEUR
    delay: 1
    amount: 20
    limit_factor: "0.123456"
`,
			wantErr: "limit_factor",
		},
		{
			name: "zero limit factor",
			yaml: `
api:
  public_key: key
  private_key: secret
dca:
  - pair: XETHZEUR
    delay: 1
    amount: 20
    limit_factor: "0"
`,
			wantErr: "limit_factor",
		},
		{
			name: "bad max price",
			yaml: `
api:
  public_key: key
  private_key: secret
dca:
  - pair: XETHZEUR
    delay: 1
    amount: 20
    max_price: "free"
`,
			wantErr: "max_price",
		},
		{
			name: "missing pair name",
			yaml: `
api:
  public_key: key
  private_key: secret
dca:
  - delay: 1
    amount: 20
`,
			wantErr: "pair",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
