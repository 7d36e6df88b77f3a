package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server        ServerConfig              `yaml:"server"`
	Chain         ChainConfig               `yaml:"chain"`
	DEXScreener   DEXScreenerConfig         `yaml:"dexScreener"`
	CoinGecko     CoinGeckoConfig           `yaml:"coinGecko"`
	GeckoTerminal GeckoTerminalConfig       `yaml:"geckoTerminal"`
	WorldApp      WorldAppConfig            `yaml:"worldApp"`
	Brevo         BrevoConfig               `yaml:"brevo"`
	PriceSvc      PriceServiceConfig        `yaml:"priceService"`
	PortfolioSvc  PortfolioServiceConfig    `yaml:"portfolioService"`
	HistorySvc    HistoryServiceConfig      `yaml:"historyService"`
	SwapSvc       SwapServiceConfig         `yaml:"swapService"`
	Notifications NotificationServiceConfig `yaml:"notifications"`
	Logging       LoggingConfig             `yaml:"logging"`

	Secrets Secrets `yaml:"-"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// ChainConfig holds the single tracked chain and its RPC endpoint.
// The Alchemy API key from the environment is appended to RPCURL when the
// URL ends with a slash.
type ChainConfig struct {
	Name         string `yaml:"name"`
	ChainID      int64  `yaml:"chainID"`
	RPCURL       string `yaml:"rpcURL"`
	NativeSymbol string `yaml:"nativeSymbol"`
	TokensFile   string `yaml:"tokensFile"`
	RPCTimeoutMs int64  `yaml:"rpcTimeoutMs"`
	RateLimit    int    `yaml:"rateLimit"`
	BurstLimit   int    `yaml:"burstLimit"`
}

// DEXScreenerConfig holds the configuration for the DEX Screener client.
type DEXScreenerConfig struct {
	BaseURL              string `yaml:"baseURL"`
	ChainID              string `yaml:"chainID"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// CoinGeckoConfig holds the configuration for the CoinGecko client.
// CoinIDs maps token symbols to the externally maintained CoinGecko ids;
// only symbols present here are eligible for the CoinGecko fallback tier.
type CoinGeckoConfig struct {
	BaseURL              string            `yaml:"baseURL"`
	RequestTimeoutMillis int64             `yaml:"requestTimeoutMillis"`
	CoinIDs              map[string]string `yaml:"coinIDs"`
}

// GeckoTerminalConfig holds the configuration for the GeckoTerminal client.
type GeckoTerminalConfig struct {
	BaseURL              string `yaml:"baseURL"`
	Network              string `yaml:"network"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// WorldAppConfig holds the Worldcoin developer API configuration.
type WorldAppConfig struct {
	BaseURL              string `yaml:"baseURL"`
	AppID                string `yaml:"appID"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// BrevoConfig holds the transactional email configuration.
type BrevoConfig struct {
	BaseURL              string `yaml:"baseURL"`
	SenderName           string `yaml:"senderName"`
	SenderEmail          string `yaml:"senderEmail"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
}

// PriceServiceConfig holds configuration for the price resolver.
type PriceServiceConfig struct {
	CacheTTLSeconds          int      `yaml:"cacheTTLSeconds"`
	MaxTokensPerBatchRequest int      `yaml:"maxTokensPerBatchRequest"`
	Stablecoins              []string `yaml:"stablecoins"`
}

// PortfolioServiceConfig holds configuration for the balance aggregator.
type PortfolioServiceConfig struct {
	CacheTTLSeconds       int `yaml:"cacheTTLSeconds"`
	MaxConcurrentRequests int `yaml:"maxConcurrentRequests"`
	BalanceFetchTimeoutMs int `yaml:"balanceFetchTimeoutMs"`
}

// HistoryServiceConfig holds configuration for the transfer history service.
type HistoryServiceConfig struct {
	PageSize int `yaml:"pageSize"`
}

// SwapServiceConfig holds configuration for swap quoting and pool discovery.
type SwapServiceConfig struct {
	PoolsFile          string `yaml:"poolsFile"`
	DefaultSlippageBps int    `yaml:"defaultSlippageBps"`
	DeadlineMinutes    int    `yaml:"deadlineMinutes"`
}

// NotificationServiceConfig holds configuration for push dispatch.
type NotificationServiceConfig struct {
	MaxAddressesPerRequest int `yaml:"maxAddressesPerRequest"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// Secrets carries the values that never live in the YAML file.
type Secrets struct {
	AdminToken     string
	AlchemyAPIKey  string
	WorldAppAPIKey string
	BrevoAPIKey    string
	DatabaseURL    string
}

// LoadConfig loads configuration from a YAML file and the environment.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	cfg.Secrets = Secrets{
		AdminToken:     os.Getenv("ADMIN_SECRET"),
		AlchemyAPIKey:  os.Getenv("ALCHEMY_API_KEY"),
		WorldAppAPIKey: os.Getenv("WORLD_APP_API_KEY"),
		BrevoAPIKey:    os.Getenv("BREVO_API_KEY"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
	}

	applyDefaults(&cfg)

	if strings.HasSuffix(cfg.Chain.RPCURL, "/") && cfg.Secrets.AlchemyAPIKey != "" {
		cfg.Chain.RPCURL += cfg.Secrets.AlchemyAPIKey
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DEXScreener.BaseURL == "" {
		cfg.DEXScreener.BaseURL = "https://api.dexscreener.com"
		logrus.Infof("DEXScreener.BaseURL not set, defaulting to %s", cfg.DEXScreener.BaseURL)
	}
	if cfg.DEXScreener.RequestTimeoutMillis == 0 {
		cfg.DEXScreener.RequestTimeoutMillis = 10000
	}
	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
		logrus.Infof("CoinGecko.BaseURL not set, defaulting to %s", cfg.CoinGecko.BaseURL)
	}
	if cfg.CoinGecko.RequestTimeoutMillis == 0 {
		cfg.CoinGecko.RequestTimeoutMillis = 10000
	}
	if cfg.GeckoTerminal.BaseURL == "" {
		cfg.GeckoTerminal.BaseURL = "https://api.geckoterminal.com/api/v2"
	}
	if cfg.GeckoTerminal.RequestTimeoutMillis == 0 {
		cfg.GeckoTerminal.RequestTimeoutMillis = 10000
	}
	if cfg.WorldApp.BaseURL == "" {
		cfg.WorldApp.BaseURL = "https://developer.worldcoin.org"
	}
	if cfg.WorldApp.RequestTimeoutMillis == 0 {
		cfg.WorldApp.RequestTimeoutMillis = 15000
	}
	if cfg.Brevo.BaseURL == "" {
		cfg.Brevo.BaseURL = "https://api.brevo.com"
	}
	if cfg.Brevo.RequestTimeoutMillis == 0 {
		cfg.Brevo.RequestTimeoutMillis = 15000
	}
	if cfg.PriceSvc.CacheTTLSeconds == 0 {
		cfg.PriceSvc.CacheTTLSeconds = 30
		logrus.Infof("PriceService.CacheTTLSeconds not set, defaulting to %d", cfg.PriceSvc.CacheTTLSeconds)
	}
	if cfg.PriceSvc.MaxTokensPerBatchRequest == 0 {
		cfg.PriceSvc.MaxTokensPerBatchRequest = 30
		logrus.Infof("PriceService.MaxTokensPerBatchRequest not set, defaulting to %d", cfg.PriceSvc.MaxTokensPerBatchRequest)
	}
	if len(cfg.PriceSvc.Stablecoins) == 0 {
		cfg.PriceSvc.Stablecoins = []string{"USDC", "USDT", "DAI", "USDC.e"}
	}
	if cfg.PortfolioSvc.CacheTTLSeconds == 0 {
		cfg.PortfolioSvc.CacheTTLSeconds = 30
	}
	if cfg.PortfolioSvc.MaxConcurrentRequests == 0 {
		cfg.PortfolioSvc.MaxConcurrentRequests = 10
	}
	if cfg.PortfolioSvc.BalanceFetchTimeoutMs == 0 {
		cfg.PortfolioSvc.BalanceFetchTimeoutMs = 10000
	}
	if cfg.HistorySvc.PageSize == 0 {
		cfg.HistorySvc.PageSize = 10
	}
	if cfg.SwapSvc.DefaultSlippageBps == 0 {
		cfg.SwapSvc.DefaultSlippageBps = 50
	}
	if cfg.SwapSvc.DeadlineMinutes == 0 {
		cfg.SwapSvc.DeadlineMinutes = 20
	}
	if cfg.Notifications.MaxAddressesPerRequest == 0 {
		cfg.Notifications.MaxAddressesPerRequest = 1000
	}
	if cfg.Chain.RateLimit == 0 {
		cfg.Chain.RateLimit = 20
	}
	if cfg.Chain.BurstLimit == 0 {
		cfg.Chain.BurstLimit = 40
	}
	if cfg.Chain.RPCTimeoutMs == 0 {
		cfg.Chain.RPCTimeoutMs = 10000
	}
	if cfg.Chain.NativeSymbol == "" {
		cfg.Chain.NativeSymbol = "WLD"
	}
}
