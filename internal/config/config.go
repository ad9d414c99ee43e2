package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// LedgerConfig holds the ledger (store contract) connection configuration
type LedgerConfig struct {
	RPCURL          string `mapstructure:"rpc_url"`
	ContractAddress string `mapstructure:"contract_address"`
	// PrivateKey backs the headless wallet. Leave empty to run read-only.
	PrivateKey string `mapstructure:"private_key"`
	// ConfirmationWindow bounds how long a submit waits for a receipt
	// before the outcome is reported Unknown.
	ConfirmationWindow  time.Duration `mapstructure:"confirmation_window"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
}

// CatalogConfig holds the static catalog source configuration
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// MarketConfig holds marketplace policy configuration
type MarketConfig struct {
	// PurchaseLimit is the per-viewer purchase cap per item
	PurchaseLimit uint64 `mapstructure:"purchase_limit"`
	// RefreshWorkers bounds the concurrent fan-out of a cache refresh
	RefreshWorkers   int `mapstructure:"refresh_workers"`
	RefreshQueueSize int `mapstructure:"refresh_queue_size"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// StorefrontConfig holds configuration for the storefront API server
type StorefrontConfig struct {
	BaseConfig `mapstructure:",squash"`
	Ledger     LedgerConfig  `mapstructure:"ledger"`
	Catalog    CatalogConfig `mapstructure:"catalog"`
	Market     MarketConfig  `mapstructure:"market"`
	Server     ServerConfig  `mapstructure:"server"`
}

// PricectlConfig holds configuration for the pricectl admin CLI
type PricectlConfig struct {
	BaseConfig `mapstructure:",squash"`
	Ledger     LedgerConfig  `mapstructure:"ledger"`
	Catalog    CatalogConfig `mapstructure:"catalog"`
}

// LoadStorefrontConfig loads configuration for the storefront server
func LoadStorefrontConfig(configFile string, envPath string) (*StorefrontConfig, error) {
	v := configureViper("storefront", configFile, envPath)

	setLedgerDefaults(v)
	v.SetDefault("catalog.path", "catalog.json")
	v.SetDefault("market.purchase_limit", 3)
	v.SetDefault("market.refresh_workers", 8)
	v.SetDefault("market.refresh_queue_size", 256)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config StorefrontConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadPricectlConfig loads configuration for the pricectl admin CLI
func LoadPricectlConfig(configFile string, envPath string) (*PricectlConfig, error) {
	v := configureViper("pricectl", configFile, envPath)

	setLedgerDefaults(v)
	v.SetDefault("catalog.path", "catalog.json")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config PricectlConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setLedgerDefaults(v *viper.Viper) {
	v.SetDefault("ledger.rpc_url", "http://localhost:7545")
	v.SetDefault("ledger.confirmation_window", "90s")
	v.SetDefault("ledger.receipt_poll_interval", "2s")
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config file, rely on defaults and environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func loadEnv(envPath string, service string) {
	// Shared base first, then local, then the optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // later files override earlier ones
	}
}
