package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/imgmarket/storefront/internal/adapter"
	"github.com/imgmarket/storefront/internal/api"
	"github.com/imgmarket/storefront/internal/cache"
	"github.com/imgmarket/storefront/internal/catalog"
	"github.com/imgmarket/storefront/internal/config"
	"github.com/imgmarket/storefront/internal/ledger"
	"github.com/imgmarket/storefront/internal/logger"
	"github.com/imgmarket/storefront/internal/market"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadStorefrontConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "storefront",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting storefront")

	// The catalog is built once; any malformed entry aborts startup.
	index, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Catalog loaded", zap.Int("items", index.Len()))

	if cfg.Ledger.PrivateKey == "" {
		logger.Fatal("No wallet key configured (STOREFRONT_LEDGER_PRIVATE_KEY)")
	}
	wallet, err := adapter.NewKeyedWallet(cfg.Ledger.PrivateKey)
	if err != nil {
		logger.Fatal("Failed to initialize wallet", zap.Error(err))
	}

	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ledger.RPCURL)
	if err != nil {
		logger.Fatal("Failed to dial ledger RPC", zap.Error(err), zap.String("url", cfg.Ledger.RPCURL))
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

	stateCache := cache.New(cache.Config{
		Workers:   cfg.Market.RefreshWorkers,
		QueueSize: cfg.Market.RefreshQueueSize,
	}, store, clock)
	defer stateCache.Stop()

	core := market.New(market.Config{
		PurchaseLimit: cfg.Market.PurchaseLimit,
	}, index, store, stateCache, market.NewSession(wallet))

	// Warm the cache; partial failures are tolerated and retried by the
	// boundary's refresh endpoint.
	if failed, err := core.RefreshAll(ctx); err != nil {
		logger.Warn("Initial refresh failed", zap.Error(err))
	} else if len(failed) > 0 {
		logger.Warn("Initial refresh incomplete", zap.Int("failed_items", len(failed)))
	}

	server := api.New(api.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, api.NewHandler(core, index))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error(err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(err)
	}
}
