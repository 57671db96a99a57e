// Command papertrade runs a simulated brokerage account: cash, holdings
// and an append-only transaction log, priced by a pluggable quote source.
//
// Usage:
//
//	papertrade --config config.yaml
//	papertrade --setup (interactive configuration wizard)
//	papertrade (uses CLI arguments, static quotes)
//
// Required environment variables:
//
//	For Hyperliquid quotes: HYPERLIQUID_PRIVATE_KEY
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vadiminshakov/papertrade/config"
	"github.com/vadiminshakov/papertrade/internal/clients"
	"github.com/vadiminshakov/papertrade/internal/console"
	"github.com/vadiminshakov/papertrade/internal/entity"
	"github.com/vadiminshakov/papertrade/internal/services/ledger"
	"github.com/vadiminshakov/papertrade/internal/services/pricer"
	"github.com/vadiminshakov/papertrade/internal/setup"
	"github.com/vadiminshakov/papertrade/internal/storage/txlog"
	"github.com/vadiminshakov/papertrade/internal/web"
)

func main() {
	runSetup := flag.Bool("setup", false, "run the interactive setup wizard")
	cfg, cfgErr := config.Get()

	if *runSetup {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}
	if cfgErr != nil {
		log.Fatal(cfgErr)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	quotes, err := buildPricer(cfg)
	if err != nil {
		logger.Fatal("build price source", zap.Error(err))
	}

	holder, err := newAccountHolder(cfg, quotes, logger)
	if err != nil {
		logger.Fatal("open account", zap.Error(err))
	}
	defer holder.Close()

	srv := web.NewServer(cfg.WebAddr, holder, holder)
	srv.PollInterval = cfg.PollInterval
	go func() {
		var err error
		if len(cfg.TLSDomains) > 0 {
			err = srv.StartWithAutoTLS(ctx, cfg.TLSDomains, "")
		} else {
			err = srv.Start(ctx)
		}
		if err != nil {
			logger.Error("web server", zap.Error(err))
		}
	}()
	logger.Info("dashboard listening", zap.String("addr", cfg.WebAddr))

	term := console.New(holder.Account(), holder.Reset, os.Stdin, os.Stdout, logger)
	if err := term.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("console", zap.Error(err))
	}
}

func buildPricer(cfg config.Config) (pricer.Pricer, error) {
	switch cfg.Platform {
	case "static":
		table := pricer.DefaultTable()
		for symbol, price := range cfg.Prices {
			table[symbol] = price
		}
		static := pricer.NewStaticPricer(table)
		for _, symbol := range cfg.Delisted {
			static.Delist(symbol)
		}
		return static, nil
	case "binance":
		return pricer.NewBinancePricer(clients.NewBinanceClient("", "")), nil
	case "bybit":
		return pricer.NewBybitPricer(clients.NewBybitClient()), nil
	case "hyperliquid":
		key := os.Getenv("HYPERLIQUID_PRIVATE_KEY")
		if key == "" {
			return nil, fmt.Errorf("HYPERLIQUID_PRIVATE_KEY environment variable must be set")
		}
		baseURL := os.Getenv("HYPERLIQUID_API_URL")
		if baseURL == "" {
			baseURL = "https://api.hyperliquid.xyz"
		}
		client, err := clients.NewHyperliquidClient(key, baseURL)
		if err != nil {
			return nil, err
		}
		return pricer.NewHyperliquidPricer(client.Info()), nil
	default:
		return nil, fmt.Errorf("unsupported platform %q", cfg.Platform)
	}
}

// accountHolder owns the live account and its transaction log, and
// swaps both atomically when the console asks for a reset. The web
// server reads through it so a reset is visible on the dashboard.
type accountHolder struct {
	mu      sync.RWMutex
	cfg     config.Config
	quotes  pricer.Pricer
	logger  *zap.Logger
	account *ledger.Account
	store   *txlog.Store
}

func newAccountHolder(cfg config.Config, quotes pricer.Pricer, logger *zap.Logger) (*accountHolder, error) {
	h := &accountHolder{cfg: cfg, quotes: quotes, logger: logger}
	account, store, err := h.open(cfg.WalDir)
	if err != nil {
		return nil, err
	}
	h.account, h.store = account, store
	return h, nil
}

func (h *accountHolder) open(dir string) (*ledger.Account, *txlog.Store, error) {
	store, err := txlog.NewStore(dir)
	if err != nil {
		return nil, nil, err
	}

	account, err := ledger.New(h.quotes, store, h.logger)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	// fund a brand-new account once; restored accounts keep their history
	if store.CurrentIndex() == 0 && h.cfg.InitialDeposit.IsPositive() {
		if _, err := account.Deposit(h.cfg.InitialDeposit.String()); err != nil {
			store.Close()
			return nil, nil, err
		}
	}
	return account, store, nil
}

func (h *accountHolder) Account() *ledger.Account {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.account
}

// Reset opens a fresh account under a new log namespace. The old log
// directory is kept on disk.
func (h *accountHolder) Reset() (*ledger.Account, error) {
	dir := filepath.Join(h.cfg.WalDir, fmt.Sprintf("reset-%d", time.Now().Unix()))
	account, store, err := h.open(dir)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	old := h.store
	h.account, h.store = account, store
	h.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			h.logger.Warn("close previous transaction log", zap.Error(err))
		}
	}
	return account, nil
}

func (h *accountHolder) Snapshot(ctx context.Context) entity.AccountSnapshot {
	return h.Account().Snapshot(ctx)
}

func (h *accountHolder) RecordsAfter(index uint64) ([]entity.TransactionRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store.RecordsAfter(index)
}

func (h *accountHolder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			h.logger.Warn("close transaction log", zap.Error(err))
		}
	}
}
