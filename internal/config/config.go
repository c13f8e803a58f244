package config

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SPREADSPY"

// maxTokenDecimals keeps 10^decimals within uint256.
const maxTokenDecimals = 77

// legacyEnv maps keys to the bare environment names accepted besides the
// prefixed ones.
var legacyEnv = map[string]string{
	"rpc":               "ETH_RPC_URL",
	"pair-a":            "PAIR_A_ADDRESS",
	"pair-b":            "PAIR_B_ADDRESS",
	"token-decimals":    "TOKEN_DECIMALS",
	"check-amount":      "CHECK_AMOUNT",
	"threshold-percent": "THRESHOLD_PERCENT",
	"poll-interval":     "POLL_INTERVAL",
}

// ConfigError reports a missing or invalid setting.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

// Config holds the resolved monitor settings. It is built once and not
// modified afterwards.
type Config struct {
	RPCURL           string
	PairA            common.Address
	PairB            common.Address
	TokenDecimals    uint8
	CheckAmount      decimal.Decimal
	ThresholdPercent decimal.Decimal
	PollInterval     time.Duration
	RPCTimeout       time.Duration
	RPCRateLimit     float64
	ReportOut        string
	MetricsAddr      string
	LogLevel         string
}

// Threshold returns the alert cutoff as an exact rational.
func (c Config) Threshold() *big.Rat {
	return c.ThresholdPercent.Rat()
}

// RegisterFlags defines the monitor flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("rpc", "", "EVM RPC URL")
	fs.String("pair-a", "", "address of pool A")
	fs.String("pair-b", "", "address of pool B")
	fs.Int("token-decimals", 18, "token decimals used to scale reported reserves")
	fs.String("check-amount", "1", "trade size in token0 units (reported only)")
	fs.String("threshold-percent", "1.0", "spread percent that raises an alert")
	fs.Int("poll-interval", 10, "seconds between poll cycles")
	fs.Duration("rpc-timeout", 5*time.Second, "timeout for the reserve calls of one cycle")
	fs.Float64("rpc-rate-limit", 0, "max RPC requests per second (0 disables)")
	fs.String("report-out", "", "JSONL report output path, - for stdout")
	fs.String("metrics-addr", "", "address for the Prometheus /metrics endpoint")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}

// Load merges config file, environment variables, and flags into Config
// and validates the result.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetDefault("token-decimals", 18)
	v.SetDefault("check-amount", "1")
	v.SetDefault("threshold-percent", "1.0")
	v.SetDefault("poll-interval", 10)
	v.SetDefault("rpc-timeout", 5*time.Second)
	v.SetDefault("rpc-rate-limit", 0.0)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return resolve(v)
}

func resolve(v *viper.Viper) (Config, error) {
	var errs []error
	fail := func(key, reason string) {
		errs = append(errs, &ConfigError{Key: key, Reason: reason})
	}

	cfg := Config{
		RPCURL:      strings.TrimSpace(v.GetString("rpc")),
		RPCTimeout:  v.GetDuration("rpc-timeout"),
		ReportOut:   strings.TrimSpace(v.GetString("report-out")),
		MetricsAddr: strings.TrimSpace(v.GetString("metrics-addr")),
		LogLevel:    v.GetString("log-level"),
	}

	if cfg.RPCURL == "" {
		fail("rpc", "is required")
	}

	var err error
	if cfg.PairA, err = parseAddress(v.GetString("pair-a")); err != nil {
		fail("pair-a", err.Error())
	}
	if cfg.PairB, err = parseAddress(v.GetString("pair-b")); err != nil {
		fail("pair-b", err.Error())
	}
	if cfg.PairA != (common.Address{}) && cfg.PairA == cfg.PairB {
		fail("pair-b", "must differ from pair-a")
	}

	decimals, err := strconv.ParseUint(strings.TrimSpace(v.GetString("token-decimals")), 10, 8)
	if err != nil || decimals > maxTokenDecimals {
		fail("token-decimals", fmt.Sprintf("must be an integer between 0 and %d", maxTokenDecimals))
	} else {
		cfg.TokenDecimals = uint8(decimals)
	}

	if cfg.CheckAmount, err = parseDecimal(v.GetString("check-amount")); err != nil {
		fail("check-amount", err.Error())
	}
	if cfg.ThresholdPercent, err = parseDecimal(v.GetString("threshold-percent")); err != nil {
		fail("threshold-percent", err.Error())
	}

	seconds, err := strconv.ParseInt(strings.TrimSpace(v.GetString("poll-interval")), 10, 64)
	switch {
	case err != nil:
		fail("poll-interval", "must be an integer number of seconds")
	case seconds <= 0:
		fail("poll-interval", "must be positive")
	default:
		cfg.PollInterval = time.Duration(seconds) * time.Second
	}

	if cfg.RPCTimeout <= 0 {
		fail("rpc-timeout", "must be positive")
	}
	cfg.RPCRateLimit = v.GetFloat64("rpc-rate-limit")
	if cfg.RPCRateLimit < 0 {
		fail("rpc-rate-limit", "must not be negative")
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func parseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, fmt.Errorf("is required")
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address %q", input)
	}
	return common.HexToAddress(input), nil
}

func parseDecimal(input string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid decimal %q", input)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("must not be negative")
	}
	return d, nil
}
