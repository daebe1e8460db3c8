// Package daemon holds server configuration.
// Config lives at ~/.fitledger/config.toml (override the directory with
// FITLEDGER_HOME). A missing file means stock defaults — first run needs
// no setup.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/fitledger/fitledger/internal/app/ledger"
	"github.com/fitledger/fitledger/internal/domain"
)

// Config is the full daemon configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Policy  PolicyConfig  `toml:"policy"`
	Metrics MetricsConfig `toml:"metrics"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig controls where the database lives.
type StorageConfig struct {
	Dir string `toml:"dir"` // empty: <home>/data
}

// PolicyConfig selects and parameterizes the schedule policy.
type PolicyConfig struct {
	Variant        string `toml:"variant"`  // "credit" or "drain"
	BaseAmount     int64  `toml:"base_amount"`
	CapAmount      int64  `toml:"cap_amount"`
	DailyRate      int64  `toml:"daily_rate"`
	RewardFraction string `toml:"reward_fraction"`
	AllowNegative  bool   `toml:"allow_negative"`
}

// MetricsConfig controls the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns stock defaults: the original credit schedule
// (10 rising to 100), guarded spends, half-rate reward coupling.
func DefaultConfig() Config {
	return Config{
		API:     APIConfig{Host: "127.0.0.1", Port: 8787},
		Storage: StorageConfig{Dir: ""},
		Policy: PolicyConfig{
			Variant:        "credit",
			BaseAmount:     10,
			CapAmount:      100,
			DailyRate:      0,
			RewardFraction: "0.5",
			AllowNegative:  false,
		},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Home returns the fitledger home directory.
func Home() string {
	if h := os.Getenv("FITLEDGER_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fitledger"
	}
	return filepath.Join(home, ".fitledger")
}

// ConfigPath returns the config file location.
func ConfigPath() string {
	return filepath.Join(Home(), "config.toml")
}

// DataDir resolves the database directory.
func (c Config) DataDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	return filepath.Join(Home(), "data")
}

// Load reads config from path, layering the file over defaults.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the ledger cannot run with.
func (c Config) Validate() error {
	switch c.Policy.Variant {
	case "credit", "drain":
	default:
		return fmt.Errorf("policy.variant must be \"credit\" or \"drain\", got %q", c.Policy.Variant)
	}
	if c.Policy.DailyRate < 0 {
		return fmt.Errorf("policy.daily_rate must be non-negative, got %d", c.Policy.DailyRate)
	}
	if c.Policy.BaseAmount < 0 || c.Policy.CapAmount < c.Policy.BaseAmount {
		return fmt.Errorf("policy base/cap amounts invalid: base=%d cap=%d",
			c.Policy.BaseAmount, c.Policy.CapAmount)
	}
	if _, err := decimal.NewFromString(c.Policy.RewardFraction); err != nil {
		return fmt.Errorf("policy.reward_fraction %q is not a decimal: %w",
			c.Policy.RewardFraction, err)
	}
	return nil
}

// LedgerConfig builds the ledger service configuration from the policy
// section.
func (c Config) LedgerConfig() (ledger.Config, error) {
	if err := c.Validate(); err != nil {
		return ledger.Config{}, err
	}

	cfg := ledger.DefaultConfig()
	cfg.AllowNegative = c.Policy.AllowNegative
	cfg.RewardFraction, _ = decimal.NewFromString(c.Policy.RewardFraction)

	switch c.Policy.Variant {
	case "credit":
		cfg.Policy = domain.IncreasingCredit{Base: c.Policy.BaseAmount, Cap: c.Policy.CapAmount}
	case "drain":
		cfg.Policy = domain.FlatDrain{Rate: c.Policy.DailyRate}
		// The drain variant repurposed the spend button to "add" and
		// dropped the negative-balance guard.
		cfg.AllowNegative = true
	}
	return cfg, nil
}
