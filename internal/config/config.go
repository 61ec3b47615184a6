package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ChainConfig struct {
	Name           string   `yaml:"name"`
	ChainID        int64    `yaml:"chain_id"`
	RPCURLs        []string `yaml:"rpc_urls"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type ScanConfig struct {
	BlocksToAnalyze int     `yaml:"blocks_to_analyze"`
	SampleCeiling   int     `yaml:"sample_ceiling"`
	BlockDelayMS    int     `yaml:"block_delay_ms"`
	WhaleThreshold  float64 `yaml:"whale_threshold_eth"`
}

type CacheConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"; empty disables the store
	DSN    string `yaml:"dsn"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type AppConfig struct {
	Chain    ChainConfig  `yaml:"chain"`
	Scan     ScanConfig   `yaml:"scan"`
	Cache    CacheConfig  `yaml:"cache"`
	Store    StoreConfig  `yaml:"store"`
	Server   ServerConfig `yaml:"server"`
	LogLevel string       `yaml:"log_level"`
}

var loadOnce sync.Once
var loadedConfig *AppConfig
var loadedErr error

// LoadConfig loads settings.yaml (probing the usual locations), applies
// defaults and environment overrides. The result is cached for the life of
// the process.
func LoadConfig() (*AppConfig, error) {
	loadOnce.Do(func() {
		// A .env file is optional; ignore when absent.
		_ = godotenv.Load()

		config := defaultConfig()

		configPath := findConfigFile()
		if configPath != "" {
			data, err := os.ReadFile(configPath)
			if err != nil {
				loadedErr = fmt.Errorf("failed to read configuration file: %w", err)
				return
			}
			if err := yaml.Unmarshal(data, config); err != nil {
				loadedErr = fmt.Errorf("failed to parse configuration file: %w", err)
				return
			}
		}

		applyEnvOverrides(config)

		if err := config.validate(); err != nil {
			loadedErr = err
			return
		}

		loadedConfig = config
	})

	if loadedErr != nil {
		return nil, loadedErr
	}
	return loadedConfig, nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Chain: ChainConfig{
			Name:           "ethereum",
			ChainID:        1,
			TimeoutSeconds: 30,
		},
		Scan: ScanConfig{
			BlocksToAnalyze: 5,
			SampleCeiling:   50,
			BlockDelayMS:    200,
			WhaleThreshold:  100,
		},
		Cache:    CacheConfig{TTLMinutes: 10},
		Server:   ServerConfig{Port: "8080"},
		LogLevel: "info",
	}
}

func applyEnvOverrides(c *AppConfig) {
	if v := os.Getenv("RPC_URLS"); v != "" {
		c.Chain.RPCURLs = splitAndTrim(v)
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitAndTrim(v)
	}
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *AppConfig) validate() error {
	if len(c.Chain.RPCURLs) == 0 {
		return fmt.Errorf("no RPC URLs configured: set chain.rpc_urls in settings.yaml or RPC_URLS in the environment")
	}
	if c.Scan.BlocksToAnalyze <= 0 {
		c.Scan.BlocksToAnalyze = 5
	}
	if c.Scan.SampleCeiling <= 0 {
		c.Scan.SampleCeiling = 50
	}
	return nil
}

func (c *AppConfig) ChainTimeout() time.Duration {
	if c.Chain.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Chain.TimeoutSeconds) * time.Second
}

func (c *AppConfig) BlockDelay() time.Duration {
	if c.Scan.BlockDelayMS <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(c.Scan.BlockDelayMS) * time.Millisecond
}

func (c *AppConfig) CacheTTL() time.Duration {
	if c.Cache.TTLMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

func findConfigFile() string {
	possiblePaths := []string{
		"config/settings.yaml",
		"settings.yaml",
		"../config/settings.yaml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func GetConfigPath() string {
	return findConfigFile()
}
