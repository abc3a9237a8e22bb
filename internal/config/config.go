package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"rhystmorgan/likeWallet/internal/chain"
)

const (
	EnvPrefix      = "LIKETERM"
	defaultDirName = ".liketerm"
)

// Config is read from LIKETERM_* environment variables.
type Config struct {
	Network        string        `default:"mainnet"`
	LCDURL         string        `envconfig:"LCD_URL"`
	ChainID        string        `envconfig:"CHAIN_ID"`
	Denom          string        `default:"nanolike"`
	DisplayDenom   string        `envconfig:"DISPLAY_DENOM" default:"LIKE"`
	FractionDigits int           `envconfig:"FRACTION_DIGITS" default:"9"`
	Bech32Prefix   string        `envconfig:"BECH32_PREFIX" default:"like"`
	GasPrice       string        `envconfig:"GAS_PRICE" default:"10"`
	GasAdjustment  float64       `envconfig:"GAS_ADJUSTMENT" default:"1.5"`
	DefaultGas     uint64        `envconfig:"DEFAULT_GAS" default:"300000"`
	SimulateGas    bool          `envconfig:"SIMULATE_GAS" default:"true"`
	Timeout        time.Duration `default:"30s"`
	RetryCount     int           `envconfig:"RETRY_COUNT" default:"3"`
	RetryDelay     time.Duration `envconfig:"RETRY_DELAY" default:"2s"`
	CacheTTL       time.Duration `envconfig:"CACHE_TTL" default:"30s"`
	SessionTimeout time.Duration `envconfig:"SESSION_TIMEOUT" default:"15m"`

	FeeReserve           decimal.Decimal `envconfig:"FEE_RESERVE" default:"1"`
	CivicLikerValidators []string        `envconfig:"CIVIC_LIKER_VALIDATORS"`
	CivicLikerMinStake   decimal.Decimal `envconfig:"CIVIC_LIKER_MIN_STAKE" default:"0"`

	Locale      string `default:"en"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
	DataDir     string `envconfig:"DATA_DIR"`
	Debug       bool
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env var: %w", err)
	}

	if cfg.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(homeDir, defaultDirName)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Network {
	case "mainnet", "testnet":
	default:
		return fmt.Errorf("invalid network: %s (must be 'mainnet' or 'testnet')", c.Network)
	}

	if c.FractionDigits < 1 || c.FractionDigits > 18 {
		return fmt.Errorf("fraction digits must be between 1 and 18, got: %d", c.FractionDigits)
	}

	gasPrice, err := decimal.NewFromString(c.GasPrice)
	if err != nil || gasPrice.IsNegative() {
		return fmt.Errorf("gas price must be a non-negative number, got: %s", c.GasPrice)
	}

	if c.GasAdjustment < 1 {
		return fmt.Errorf("gas adjustment must be at least 1, got: %v", c.GasAdjustment)
	}

	if c.DefaultGas == 0 {
		return fmt.Errorf("default gas must be positive")
	}

	if c.FeeReserve.IsNegative() {
		return fmt.Errorf("fee reserve must not be negative, got: %s", c.FeeReserve)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %v", c.Timeout)
	}

	if c.RetryCount < 0 {
		return fmt.Errorf("retry count must be non-negative, got: %d", c.RetryCount)
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("cache TTL must not be negative, got: %v", c.CacheTTL)
	}

	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session timeout must be positive, got: %v", c.SessionTimeout)
	}

	for _, addr := range c.CivicLikerValidators {
		if err := chain.ValidateValidatorAddress(addr, c.Bech32Prefix); err != nil {
			return fmt.Errorf("invalid civic liker validator %s: %w", addr, err)
		}
	}

	return nil
}

// ChainConfig derives the chain client settings, with network defaults applied.
func (c *Config) ChainConfig() chain.Config {
	network := chain.MainNet
	if c.Network == "testnet" {
		network = chain.TestNet
	}

	// CACHE_TTL=0 turns balance caching off
	cacheTTL := c.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = chain.CacheDisabled
	}

	cfg, err := chain.Config{
		Network:        network,
		LCDURL:         c.LCDURL,
		ChainID:        c.ChainID,
		Denom:          c.Denom,
		DisplayDenom:   c.DisplayDenom,
		FractionDigits: c.FractionDigits,
		Bech32Prefix:   c.Bech32Prefix,
		GasPrice:       c.GasPrice,
		GasAdjustment:  c.GasAdjustment,
		DefaultGas:     c.DefaultGas,
		SimulateGas:    c.SimulateGas,
		Timeout:        c.Timeout,
		RetryCount:     c.RetryCount,
		RetryDelay:     c.RetryDelay,
		CacheTTL:       cacheTTL,
	}.WithDefaults()
	if err != nil {
		// network is checked by Validate
		panic(err)
	}
	return cfg
}

func (c *Config) IsCivicLiker(validator string) bool {
	for _, addr := range c.CivicLikerValidators {
		if addr == validator {
			return true
		}
	}
	return false
}

func (c *Config) IsDebugEnabled() bool {
	return c.Debug
}
