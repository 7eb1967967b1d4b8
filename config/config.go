// Package config loads and validates the bot configuration: API
// credentials and the list of pairs to dollar cost average.
package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// EnvAPIKey overrides the public API key from the config file.
	EnvAPIKey = "KRAKEN_API_KEY"
	// EnvAPISecret overrides the private API key from the config file.
	EnvAPISecret = "KRAKEN_API_SECRET"

	// limitFactorMaxScale caps the fractional digits of limit_factor.
	limitFactorMaxScale = 5
)

// Config is the process-wide configuration, immutable after Load.
type Config struct {
	APIKey    string
	APISecret string
	Pairs     []PairConfig
}

// PairConfig configures one dollar-cost-averaged pair.
type PairConfig struct {
	// Pair is the pair id on the exchange, e.g. "XETHZEUR".
	Pair string
	// DelayDays is the number of days between purchases.
	DelayDays int
	// Amount is the quote-asset amount to spend per purchase.
	Amount decimal.Decimal
	// LimitFactor scales the ask price into the limit price, 1 by default.
	LimitFactor decimal.Decimal
	// MaxPrice skips the purchase when the limit price exceeds it. Nil
	// means no maximum.
	MaxPrice *decimal.Decimal
	// IgnoreDifferingOrders disregards existing orders whose cost
	// differs by more than 1% from Amount during duplicate detection.
	IgnoreDifferingOrders bool
}

type yamlConfig struct {
	API struct {
		PublicKey  string `yaml:"public_key"`
		PrivateKey string `yaml:"private_key"`
	} `yaml:"api"`
	DCA []yamlPair `yaml:"dca"`
}

type yamlPair struct {
	Pair                  string `yaml:"pair"`
	Delay                 int    `yaml:"delay"`
	Amount                string `yaml:"amount"`
	LimitFactor           string `yaml:"limit_factor,omitempty"`
	MaxPrice              string `yaml:"max_price,omitempty"`
	IgnoreDifferingOrders bool   `yaml:"ignore_differing_orders,omitempty"`
}

// Load reads the YAML config at path. KRAKEN_API_KEY and
// KRAKEN_API_SECRET environment variables take precedence over keys in
// the file, so the file itself never has to contain secrets.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "cannot read configuration file %s", path)
	}

	var tmp yamlConfig
	if err := yaml.Unmarshal(raw, &tmp); err != nil {
		return Config{}, errors.Wrap(err, "configuration file incorrectly formatted")
	}

	cfg := Config{
		APIKey:    tmp.API.PublicKey,
		APISecret: tmp.API.PrivateKey,
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.APIKey = key
	}
	if secret := os.Getenv(EnvAPISecret); secret != "" {
		cfg.APISecret = secret
	}

	if cfg.APIKey == "" {
		return Config{}, errors.New("please provide your Kraken API public key")
	}
	if cfg.APISecret == "" {
		return Config{}, errors.New("please provide your Kraken API private key")
	}
	if len(tmp.DCA) == 0 {
		return Config{}, errors.New("please configure at least one pair to dollar cost average")
	}

	for i, p := range tmp.DCA {
		pair, err := parsePair(p)
		if err != nil {
			return Config{}, errors.Wrapf(err, "dca entry %d (%s)", i, p.Pair)
		}
		cfg.Pairs = append(cfg.Pairs, pair)
	}

	return cfg, nil
}

func parsePair(p yamlPair) (PairConfig, error) {
	if p.Pair == "" {
		return PairConfig{}, errors.New("please provide the pair to dollar cost average")
	}
	if p.Delay <= 0 {
		return PairConfig{}, errors.New("please set the DCA days delay as a number > 0")
	}

	amount, err := decimal.NewFromString(p.Amount)
	if err != nil || !amount.IsPositive() {
		return PairConfig{}, fmt.Errorf("please provide an amount > 0 to dollar cost average, got %q", p.Amount)
	}

	limitFactor := decimal.NewFromInt(1)
	if p.LimitFactor != "" {
		limitFactor, err = decimal.NewFromString(p.LimitFactor)
		if err != nil {
			return PairConfig{}, fmt.Errorf("incorrect limit_factor %q", p.LimitFactor)
		}
		if limitFactor.Exponent() < -limitFactorMaxScale {
			return PairConfig{}, fmt.Errorf("limit_factor must have at most %d decimal digits, got %s", limitFactorMaxScale, limitFactor)
		}
		if !limitFactor.IsPositive() {
			return PairConfig{}, fmt.Errorf("limit_factor must be > 0, got %s", limitFactor)
		}
	}

	var maxPrice *decimal.Decimal
	if p.MaxPrice != "" {
		mp, err := decimal.NewFromString(p.MaxPrice)
		if err != nil || !mp.IsPositive() {
			return PairConfig{}, fmt.Errorf("incorrect max_price %q", p.MaxPrice)
		}
		maxPrice = &mp
	}

	return PairConfig{
		Pair:                  p.Pair,
		DelayDays:             p.Delay,
		Amount:                amount,
		LimitFactor:           limitFactor,
		MaxPrice:              maxPrice,
		IgnoreDifferingOrders: p.IgnoreDifferingOrders,
	}, nil
}
