package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ProjectDir   string `json:"project_dir" yaml:"project_dir"`
	ResultsDir   string `json:"results_dir" yaml:"results_dir"`
	DataCacheDir string `json:"data_cache_dir" yaml:"data_cache_dir"`

	// Oracle configuration
	LLMProvider    string `json:"llm_provider" yaml:"llm_provider"` // openai | deepseek
	Model          string `json:"model" yaml:"model"`
	BackendURL     string `json:"backend_url" yaml:"backend_url"`
	OpenAIAPIKey   string `json:"openai_api_key" yaml:"openai_api_key"`
	DeepSeekAPIKey string `json:"deepseek_api_key" yaml:"deepseek_api_key"`
	OracleRetries  int    `json:"oracle_retries" yaml:"oracle_retries"`

	// Deliberation
	Mode           string `json:"mode" yaml:"mode"` // direction | portfolio
	MaxCycles      int    `json:"max_cycles" yaml:"max_cycles"`
	MaxChatRounds  int    `json:"max_chat_rounds" yaml:"max_chat_rounds"`
	SecondRound    bool   `json:"second_round" yaml:"second_round"`
	CommEnabled    bool   `json:"comm_enabled" yaml:"comm_enabled"`
	NotifyEnabled  bool   `json:"notify_enabled" yaml:"notify_enabled"`
	WorkerPoolSize int    `json:"worker_pool_size" yaml:"worker_pool_size"`

	// Scheduler
	LookbackDays      int     `json:"lookback_days" yaml:"lookback_days"`
	InitialCash       float64 `json:"initial_cash" yaml:"initial_cash"`
	MarginRequirement float64 `json:"margin_requirement" yaml:"margin_requirement"`
	RiskFraction      float64 `json:"risk_fraction" yaml:"risk_fraction"`
	WeightCadence     int     `json:"weight_cadence" yaml:"weight_cadence"`
	RotationCadence   int     `json:"rotation_cadence" yaml:"rotation_cadence"`

	// Market data
	MarketProvider      string `json:"market_provider" yaml:"market_provider"` // yahoo | longport
	CalendarURL         string `json:"calendar_url" yaml:"calendar_url"`
	CacheEnabled        bool   `json:"cache_enabled" yaml:"cache_enabled"`
	LongportAppKey      string `json:"longport_app_key" yaml:"longport_app_key"`
	LongportAppSecret   string `json:"longport_app_secret" yaml:"longport_app_secret"`
	LongportAccessToken string `json:"longport_access_token" yaml:"longport_access_token"`

	// Live feed
	FeedAddr            string `json:"feed_addr" yaml:"feed_addr"`
	QuoteRefreshSeconds int    `json:"quote_refresh_seconds" yaml:"quote_refresh_seconds"`

	Debug            bool `json:"debug" yaml:"debug"`
	EinoDebugEnabled bool `json:"eino_debug_enabled" yaml:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port" yaml:"eino_debug_port"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		ProjectDir:   currentDir,
		ResultsDir:   filepath.Join(currentDir, "results"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),

		LLMProvider:   "deepseek",
		Model:         "deepseek-chat",
		OracleRetries: 3,

		Mode:           "portfolio",
		MaxCycles:      3,
		MaxChatRounds:  2,
		SecondRound:    true,
		CommEnabled:    true,
		NotifyEnabled:  true,
		WorkerPoolSize: 4,

		LookbackDays:      30,
		InitialCash:       100000,
		MarginRequirement: 0.5,
		RiskFraction:      0.1,
		WeightCadence:     5,
		RotationCadence:   30,

		MarketProvider: "yahoo",
		CacheEnabled:   true,

		FeedAddr:            ":8677",
		QuoteRefreshSeconds: 30,

		EinoDebugPort: 52538,
	}

	// .env values feed the environment overlay below.
	_ = godotenv.Load()
	cfg.loadFromEnv()

	return cfg
}

// LoadFile overlays values from a YAML file on top of the current config.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "deepseek":
		if c.DeepSeekAPIKey == "" {
			return fmt.Errorf("DEEPSEEK_API_KEY is required for the deepseek provider")
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLMProvider)
	}
	if c.Mode != "direction" && c.Mode != "portfolio" {
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.MaxCycles <= 0 {
		return fmt.Errorf("max_cycles must be positive, got %d", c.MaxCycles)
	}
	if c.WorkerPoolSize <= 0 {
		return fmt.Errorf("worker_pool_size must be positive, got %d", c.WorkerPoolSize)
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.ResultsDir, c.DataCacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = val
	}
	if val := os.Getenv("LLM_MODEL"); val != "" {
		c.Model = val
	}
	if val := os.Getenv("BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}

	if val := os.Getenv("TRADE_MODE"); val != "" {
		c.Mode = val
	}
	if val := os.Getenv("MAX_CYCLES"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxCycles = v
		}
	}
	if val := os.Getenv("MAX_CHAT_ROUNDS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxChatRounds = v
		}
	}
	if val := os.Getenv("WORKER_POOL_SIZE"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.WorkerPoolSize = v
		}
	}
	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = enabled
		}
	}
	if val := os.Getenv("MARKET_PROVIDER"); val != "" {
		c.MarketProvider = val
	}
	if val := os.Getenv("CALENDAR_URL"); val != "" {
		c.CalendarURL = val
	}
	if val := os.Getenv("FEED_ADDR"); val != "" {
		c.FeedAddr = val
	}

	if val := os.Getenv("LONGPORT_APP_KEY"); val != "" {
		c.LongportAppKey = val
	}
	if val := os.Getenv("LONGPORT_APP_SECRET"); val != "" {
		c.LongportAppSecret = val
	}
	if val := os.Getenv("LONGPORT_ACCESS_TOKEN"); val != "" {
		c.LongportAccessToken = val
	}

	if val := os.Getenv("ALPHADESK_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
	if val := os.Getenv("EINO_DEBUG_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.EinoDebugEnabled = enabled
		}
	}
	if val := os.Getenv("EINO_DEBUG_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.EinoDebugPort = port
		}
	}
}
