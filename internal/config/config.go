// Package config loads the bot configuration from YAML and applies
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Duration is a time.Duration that unmarshals from YAML strings such as
// "5m" or "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the top-level configuration for the trading bot.
type Config struct {
	Symbol   string         `yaml:"symbol"`
	Trading  TradingConfig  `yaml:"trading"`
	Alpaca   Alpaca         `yaml:"alpaca"`
	ML       MLConfig       `yaml:"ml"`
	AI       AIConfig       `yaml:"ai"`
	Telegram TelegramConfig `yaml:"telegram"`
	Server   Server         `yaml:"server"`
	Logging  Logging        `yaml:"logging"`
}

// TradingConfig defines the risk and execution parameters of the cycle.
type TradingConfig struct {
	// RiskPercentage is the percent of portfolio value risked per trade.
	RiskPercentage float64 `yaml:"risk_percentage"`
	// MinRiskRewardRatio is the minimum reward/risk ratio for a trade to
	// be accepted. Boundary inclusive.
	MinRiskRewardRatio float64 `yaml:"min_risk_reward_ratio"`
	// MinPositionSize is the smallest share count worth trading.
	MinPositionSize int64 `yaml:"min_position_size"`
	// DefaultStopLossPct is applied below entry when a decision carries no
	// stop (2 means entry × 0.98).
	DefaultStopLossPct float64 `yaml:"default_stop_loss_pct"`
	// DefaultTakeProfitPct is applied above entry when a decision carries
	// no target (4 means entry × 1.04).
	DefaultTakeProfitPct float64 `yaml:"default_take_profit_pct"`
	// CycleInterval is the period between trading cycles.
	CycleInterval Duration `yaml:"cycle_interval"`
	// PaperMode routes orders to the in-memory simulator.
	PaperMode bool `yaml:"paper_mode"`
}

// Alpaca holds credentials and endpoints for the Alpaca APIs.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// MLConfig points at the price-prediction service. An empty base URL
// disables the prediction signal.
type MLConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// AIConfig points at the chat-completions API used for trade decisions.
type AIConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

// TelegramConfig holds the notification sink credentials. An empty token
// disables Telegram alerts.
type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Server holds the operational HTTP listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into
// a Config struct, applies environment variable overrides, and fills in
// defaults for omitted risk parameters.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills zero-valued knobs with the documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.Trading.RiskPercentage <= 0 {
		cfg.Trading.RiskPercentage = 1.0
	}
	if cfg.Trading.MinRiskRewardRatio <= 0 {
		cfg.Trading.MinRiskRewardRatio = 2.0
	}
	if cfg.Trading.MinPositionSize <= 0 {
		cfg.Trading.MinPositionSize = 1
	}
	if cfg.Trading.DefaultStopLossPct <= 0 {
		cfg.Trading.DefaultStopLossPct = 2.0
	}
	if cfg.Trading.DefaultTakeProfitPct <= 0 {
		cfg.Trading.DefaultTakeProfitPct = 4.0
	}
	if cfg.Trading.CycleInterval <= 0 {
		cfg.Trading.CycleInterval = Duration(5 * time.Minute)
	}
	if cfg.Alpaca.BaseURL == "" {
		cfg.Alpaca.BaseURL = "https://paper-api.alpaca.markets"
	}
	if cfg.Alpaca.DataURL == "" {
		cfg.Alpaca.DataURL = "https://data.alpaca.markets"
	}
	if cfg.ML.Timeout <= 0 {
		cfg.ML.Timeout = Duration(10 * time.Second)
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4o-mini"
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = Duration(30 * time.Second)
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// validate rejects configurations that cannot run a cycle at all.
func (c *Config) validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("config: symbol is required")
	}
	if !c.Trading.PaperMode && (c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "") {
		return fmt.Errorf("config: alpaca credentials are required outside paper mode")
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADE_SYMBOL"); v != "" {
		cfg.Symbol = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("ML_BASE_URL"); v != "" {
		cfg.ML.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.AI.BaseURL = v
	}

	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
