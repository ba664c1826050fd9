// Package config loads application configuration from a YAML file and
// COPYBOT_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Solana  SolanaConfig  `mapstructure:"solana"`
	Bot     BotConfig     `mapstructure:"bot"`
	Copy    CopyConfig    `mapstructure:"copy"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SolanaConfig struct {
	RPCURL           string `mapstructure:"rpc_url"`
	WSURL            string `mapstructure:"ws_url"`
	RequestTimeoutMs int    `mapstructure:"request_timeout_ms"`
	MaxRetries       int    `mapstructure:"max_retries"`
}

type BotConfig struct {
	// PrivateKey is the operator's base58-encoded 64-byte secret key.
	PrivateKey string `mapstructure:"private_key"`

	// TargetWallets are seeded into the wallet store on first start.
	TargetWallets []string `mapstructure:"target_wallets"`

	AutoStart   bool `mapstructure:"auto_start"`
	HistorySize int  `mapstructure:"history_size"`
}

type CopyConfig struct {
	CopySOLTransfers bool    `mapstructure:"copy_sol_transfers"`
	CopySPLTransfers bool    `mapstructure:"copy_spl_transfers"`
	CopySwaps        bool    `mapstructure:"copy_swaps"`
	MaxAmountSOL     float64 `mapstructure:"max_amount_sol"`
	MinAmountSOL     float64 `mapstructure:"min_amount_sol"`

	// FailClosedUnknownAmount rejects transactions whose amount could
	// not be determined instead of copying them through.
	FailClosedUnknownAmount bool `mapstructure:"fail_closed_unknown_amount"`
}

type StorageConfig struct {
	// PostgresDSN selects the durable wallet store; empty means in-memory.
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// File enables rotated file output in addition to stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from config.yaml (working directory or
// ./configs) and the environment. A missing file is not an error;
// defaults and env vars apply.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// e.g. COPYBOT_SOLANA_RPC_URL, COPYBOT_BOT_PRIVATE_KEY
	v.SetEnvPrefix("copybot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")

	v.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.ws_url", "wss://api.mainnet-beta.solana.com")
	v.SetDefault("solana.request_timeout_ms", 30000)
	v.SetDefault("solana.max_retries", 3)

	// Empty defaults register the keys so AutomaticEnv can fill them.
	v.SetDefault("bot.private_key", "")
	v.SetDefault("bot.target_wallets", []string{})
	v.SetDefault("bot.auto_start", false)
	v.SetDefault("bot.history_size", 1000)

	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("logging.file", "")

	v.SetDefault("copy.copy_sol_transfers", true)
	v.SetDefault("copy.copy_spl_transfers", true)
	v.SetDefault("copy.copy_swaps", true)
	v.SetDefault("copy.max_amount_sol", 1.0)
	v.SetDefault("copy.min_amount_sol", 0.001)
	v.SetDefault("copy.fail_closed_unknown_amount", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}

// Validate rejects configurations the bot cannot run with.
func (c *Config) Validate() error {
	if c.Copy.MaxAmountSOL <= 0 {
		return fmt.Errorf("copy.max_amount_sol must be positive, got %v", c.Copy.MaxAmountSOL)
	}
	if c.Copy.MinAmountSOL < 0 {
		return fmt.Errorf("copy.min_amount_sol must not be negative, got %v", c.Copy.MinAmountSOL)
	}
	if c.Copy.MinAmountSOL > c.Copy.MaxAmountSOL {
		return fmt.Errorf("copy.min_amount_sol %v exceeds copy.max_amount_sol %v",
			c.Copy.MinAmountSOL, c.Copy.MaxAmountSOL)
	}
	if c.Solana.RPCURL == "" || c.Solana.WSURL == "" {
		return fmt.Errorf("solana.rpc_url and solana.ws_url are required")
	}
	return nil
}
