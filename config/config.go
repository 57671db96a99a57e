package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings of one simulated account.
type Config struct {
	Platform       string
	InitialDeposit decimal.Decimal
	WalDir         string
	WebAddr        string
	TLSDomains     []string
	PollInterval   time.Duration
	Prices         map[string]decimal.Decimal
	Delisted       []string
}

type ConfigTmp struct {
	Platform       string            `yaml:"platform"`
	InitialDeposit string            `yaml:"initial_deposit"`
	WalDir         string            `yaml:"wal_dir"`
	WebAddr        string            `yaml:"web_addr"`
	TLSDomains     []string          `yaml:"tls_domains,omitempty"`
	PollInterval   time.Duration     `yaml:"poll_interval,omitempty"`
	Prices         map[string]string `yaml:"prices,omitempty"`
	Delisted       []string          `yaml:"delisted,omitempty"`
}

var platforms = map[string]bool{
	"static":      true,
	"binance":     true,
	"bybit":       true,
	"hyperliquid": true,
}

// Get loads configuration from the YAML file named by -config, falling
// back to plain CLI flags when the flag is empty.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	platform := flag.String("platform", "static", "price source: static, binance, bybit or hyperliquid")
	deposit := flag.String("deposit", "10000", "initial deposit, 0 to start empty")
	walDir := flag.String("waldir", "./wal/transactions", "transaction log directory")
	webAddr := flag.String("webaddr", ":8080", "dashboard listen address")
	pollInterval := flag.Duration("pollinterval", 5*time.Second, "dashboard snapshot poll interval")
	flag.Parse()

	if *configPath != "" {
		return getYaml(*configPath)
	}

	return build(ConfigTmp{
		Platform:       *platform,
		InitialDeposit: *deposit,
		WalDir:         *walDir,
		WebAddr:        *webAddr,
		PollInterval:   *pollInterval,
	})
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}
	return build(tmp)
}

func build(tmp ConfigTmp) (Config, error) {
	platform := strings.ToLower(strings.TrimSpace(tmp.Platform))
	if platform == "" {
		platform = "static"
	}
	if !platforms[platform] {
		return Config{}, fmt.Errorf("unsupported platform %q", tmp.Platform)
	}

	depositStr := strings.TrimSpace(tmp.InitialDeposit)
	if depositStr == "" {
		depositStr = "0"
	}
	deposit, err := decimal.NewFromString(depositStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid initial_deposit %q: %w", tmp.InitialDeposit, err)
	}
	if deposit.IsNegative() {
		return Config{}, fmt.Errorf("initial_deposit must not be negative, got %s", deposit)
	}

	cfg := Config{
		Platform:       platform,
		InitialDeposit: deposit,
		WalDir:         tmp.WalDir,
		WebAddr:        tmp.WebAddr,
		TLSDomains:     tmp.TLSDomains,
		PollInterval:   tmp.PollInterval,
		Delisted:       tmp.Delisted,
	}
	if cfg.WalDir == "" {
		cfg.WalDir = "./wal/transactions"
	}
	if cfg.WebAddr == "" {
		cfg.WebAddr = ":8080"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}

	if len(tmp.Prices) > 0 {
		cfg.Prices = make(map[string]decimal.Decimal, len(tmp.Prices))
		for symbol, raw := range tmp.Prices {
			price, err := decimal.NewFromString(raw)
			if err != nil {
				return Config{}, fmt.Errorf("invalid price for %s: %q", symbol, raw)
			}
			cfg.Prices[strings.ToUpper(symbol)] = price
		}
	}

	return cfg, nil
}
