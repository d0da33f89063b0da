package main

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"

	configtypes "github.com/oddsylabs/oddsy/internal/config"
)

type config struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		PoolSize int    `yaml:"pool_size"`
		SSLMode  string `yaml:"ssl_mode"`
	} `yaml:"database"`
	Ingest struct {
		RefreshInterval configtypes.Duration `yaml:"refresh_interval"`
		TradeWindow     configtypes.Duration `yaml:"trade_window"`
		TopMarkets      int                  `yaml:"top_markets"`
	} `yaml:"ingest"`
	Snapshot struct {
		Interval       configtypes.Duration `yaml:"interval"`
		TradeRetention configtypes.Duration `yaml:"trade_retention"`
	} `yaml:"snapshot"`
	Platforms struct {
		Polymarket struct {
			GammaURL     string `yaml:"gamma_url"`
			ClobURL      string `yaml:"clob_url"`
			WebsocketURL string `yaml:"websocket_url"`
		} `yaml:"polymarket"`
		Kalshi struct {
			APIURL        string                    `yaml:"api_url"`
			APIKeyID      string                    `yaml:"api_key_id"`
			APIPrivateKey configtypes.RSAPrivateKey `yaml:"api_private_key"`
		} `yaml:"kalshi"`
	} `yaml:"platforms"`
}

func readConfig(configPath *string) (*config, error) {
	rawConfig, err := os.ReadFile(*configPath)
	if err != nil {
		return nil, fmt.Errorf("couldn't read file %s: %w", *configPath, err)
	}

	cfg := &config{}
	if err = yaml.Unmarshal(rawConfig, cfg); err != nil {
		return nil, fmt.Errorf("couldn't parse config: %w", err)
	}

	if err = applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	err = validateConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't validate config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides lets deployments inject credentials without writing
// them to the config file.
func applyEnvOverrides(cfg *config) error {
	if keyID := os.Getenv("KALSHI_API_KEY_ID"); keyID != "" {
		cfg.Platforms.Kalshi.APIKeyID = keyID
	}
	if pem := os.Getenv("KALSHI_API_PRIVATE_KEY_PEM"); pem != "" {
		key, err := configtypes.DecodeRSAPrivateKey(pem)
		if err != nil {
			return fmt.Errorf("couldn't decode KALSHI_API_PRIVATE_KEY_PEM: %w", err)
		}
		cfg.Platforms.Kalshi.APIPrivateKey.PrivateKey = key
	}
	if password := os.Getenv("DATABASE_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	return nil
}

func validateConfig(cfg *config) error {
	// Database
	if cfg.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535")
	}
	if cfg.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if cfg.Database.Password == "" {
		return fmt.Errorf("database.password is required")
	}
	if cfg.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if cfg.Database.PoolSize <= 0 {
		return fmt.Errorf("database.pool_size must be greater than 0")
	}
	if cfg.Database.SSLMode == "" {
		return fmt.Errorf("database.ssl_mode is required")
	}

	// Ingest
	if cfg.Ingest.RefreshInterval.Duration() <= 0 {
		return fmt.Errorf("ingest.refresh_interval must be greater than 0")
	}
	if cfg.Ingest.TradeWindow.Duration() <= 0 {
		return fmt.Errorf("ingest.trade_window must be greater than 0")
	}

	// Snapshot
	if cfg.Snapshot.Interval.Duration() <= 0 {
		return fmt.Errorf("snapshot.interval must be greater than 0")
	}

	// Polymarket
	if cfg.Platforms.Polymarket.GammaURL == "" {
		return fmt.Errorf("platforms.polymarket.gamma_url is required")
	}
	if cfg.Platforms.Polymarket.ClobURL == "" {
		return fmt.Errorf("platforms.polymarket.clob_url is required")
	}
	if cfg.Platforms.Polymarket.WebsocketURL == "" {
		return fmt.Errorf("platforms.polymarket.websocket_url is required")
	}

	// Kalshi
	if cfg.Platforms.Kalshi.APIURL == "" {
		return fmt.Errorf("platforms.kalshi.api_url is required")
	}

	return nil
}
