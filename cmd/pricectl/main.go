package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/imgmarket/storefront/internal/adapter"
	"github.com/imgmarket/storefront/internal/cache"
	"github.com/imgmarket/storefront/internal/catalog"
	"github.com/imgmarket/storefront/internal/config"
	"github.com/imgmarket/storefront/internal/domain"
	"github.com/imgmarket/storefront/internal/ledger"
	"github.com/imgmarket/storefront/internal/logger"
	"github.com/imgmarket/storefront/internal/market"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	itemID     = flag.Int64("item", -1, "Item identifier")
	newPrice   = flag.String("price", "", "New price in wei (decimal)")
)

// pricectl submits a single price update as the configured account.
// Authorization stays on the ledger: running this as a non-owner is
// expected to fail with the store's ownership revert.
func main() {
	flag.Parse()

	cfg, err := config.LoadPricectlConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := logger.Initialize(logger.Config{Debug: cfg.Debug}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	if *itemID < 0 {
		fmt.Fprintln(os.Stderr, "pricectl: -item is required")
		os.Exit(2)
	}
	price, ok := new(big.Int).SetString(*newPrice, 10)
	if !ok || price.Sign() <= 0 {
		fmt.Fprintln(os.Stderr, "pricectl: -price must be a positive decimal wei amount")
		os.Exit(2)
	}

	index, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}

	if cfg.Ledger.PrivateKey == "" {
		logger.Fatal("No wallet key configured (STOREFRONT_LEDGER_PRIVATE_KEY)")
	}
	wallet, err := adapter.NewKeyedWallet(cfg.Ledger.PrivateKey)
	if err != nil {
		logger.Fatal("Failed to initialize wallet", zap.Error(err))
	}

	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ledger.RPCURL)
	if err != nil {
		logger.Fatal("Failed to dial ledger RPC", zap.Error(err))
	}

	clock := adapter.NewClock()
	store, err := ledger.NewClient(ctx, ledger.Config{
		ContractAddress:     cfg.Ledger.ContractAddress,
		ConfirmationWindow:  cfg.Ledger.ConfirmationWindow,
		ReceiptPollInterval: cfg.Ledger.ReceiptPollInterval,
	}, ethClient, wallet, clock)
	if err != nil {
		logger.Fatal("Failed to create ledger client", zap.Error(err))
	}
	defer store.Close()

	stateCache := cache.New(cache.Config{Workers: 2, QueueSize: 16}, store, clock)
	defer stateCache.Stop()

	core := market.New(market.Config{}, index, store, stateCache, market.NewSession(wallet))

	outcome, err := core.UpdatePrice(ctx, *itemID, price)
	if err != nil {
		if re, isRevert := domain.IsRevert(err); isRevert {
			fmt.Fprintf(os.Stderr, "price update rejected by the ledger: %s (are you the store owner?)\n", re.Reason)
			os.Exit(1)
		}
		if errors.Is(err, domain.ErrTimeout) {
			fmt.Fprintf(os.Stderr, "outcome unknown (tx %s): re-query ledger state before retrying\n", outcome.TxHash)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "price update failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("price of item %d updated to %s wei (tx %s)\n", *itemID, price.String(), outcome.TxHash)
}
