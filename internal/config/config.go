// Package config assembles runtime configuration from defaults, a .env
// file, ENRICH_* environment variables, and CLI flags, in that precedence
// order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Config holds application configuration values.
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Storage
	DatabaseURL string

	// HTTP/Scraping
	HTTPTimeout time.Duration
	UserAgent   string
	MaxRetries  int
	Proxies     []string

	// Pacing
	RateLimitRPS   float64
	RateLimitBurst int
	MinDelay       time.Duration
	MaxDelay       time.Duration

	// Selection
	Freshness time.Duration

	// Browser
	BrowserHeadless bool
	ChromePath      string
	ProfileDir      string

	// Outputs
	LedgerPath string
	DebugDir   string
}

// Load builds a Config. The .env file is optional; a missing file is not an
// error. Caller passes the active *cobra.Command so flags can override.
func Load(cmd *cobra.Command) (*Config, error) {
	// Values already in the environment win over the .env file.
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:        DefaultLogLevel,
		JSONLog:         DefaultJSONLog,
		HTTPTimeout:     DefaultHTTPTimeout,
		UserAgent:       DefaultUserAgent,
		MaxRetries:      DefaultMaxRetries,
		RateLimitRPS:    DefaultRateLimitRPS,
		RateLimitBurst:  DefaultRateLimitBurst,
		MinDelay:        DefaultMinDelay,
		MaxDelay:        DefaultMaxDelay,
		Freshness:       DefaultFreshness,
		BrowserHeadless: DefaultBrowserHeadless,
		LedgerPath:      DefaultLedgerPath,
		DebugDir:        DefaultDebugDir,
		ProfileDir:      defaultProfileDir(),
	}

	applyEnv(cfg)
	applyFlags(cfg, cmd)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultProfileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileDirName
	}
	return filepath.Join(home, DefaultProfileDirName)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ENRICH_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	} else if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("ENRICH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ENRICH_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("ENRICH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTPTimeout = d
		}
	}
	if v := os.Getenv("ENRICH_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("ENRICH_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("ENRICH_MIN_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MinDelay = d
		}
	}
	if v := os.Getenv("ENRICH_MAX_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.MaxDelay = d
		}
	}
	if v := os.Getenv("ENRICH_FRESHNESS"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Freshness = d
		}
	}
	if v := os.Getenv("ENRICH_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.BrowserHeadless = b
		}
	}
	if v := os.Getenv("ENRICH_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("ENRICH_PROFILE_DIR"); v != "" {
		cfg.ProfileDir = v
	}
	if v := os.Getenv("ENRICH_LEDGER"); v != "" {
		cfg.LedgerPath = v
	}
	if v := os.Getenv("ENRICH_DEBUG_DIR"); v != "" {
		cfg.DebugDir = v
	}
	if v := os.Getenv("ENRICH_PROXIES"); v != "" {
		cfg.Proxies = splitList(v)
	}
}

func applyFlags(cfg *Config, cmd *cobra.Command) {
	if cmd == nil {
		return
	}
	flags := cmd.Flags()

	if f := flags.Lookup("user-agent"); f != nil && f.Changed {
		cfg.UserAgent = f.Value.String()
	}
	if f := flags.Lookup("timeout"); f != nil && f.Changed {
		if d, err := time.ParseDuration(f.Value.String()); err == nil {
			cfg.HTTPTimeout = d
		}
	}
	if f := flags.Lookup("freshness"); f != nil && f.Changed {
		if d, err := time.ParseDuration(f.Value.String()); err == nil {
			cfg.Freshness = d
		}
	}
	if f := flags.Lookup("headless"); f != nil && f.Changed {
		if b, err := strconv.ParseBool(f.Value.String()); err == nil {
			cfg.BrowserHeadless = b
		}
	}
	if f := flags.Lookup("ledger"); f != nil && f.Changed {
		cfg.LedgerPath = f.Value.String()
	}
	if f := flags.Lookup("debug-dir"); f != nil && f.Changed {
		cfg.DebugDir = f.Value.String()
	}
	if f := flags.Lookup("database-url"); f != nil && f.Changed {
		cfg.DatabaseURL = f.Value.String()
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// String renders the config for debug logging, with the database URL
// redacted.
func (c *Config) String() string {
	db := c.DatabaseURL
	if db != "" {
		db = "(set)"
	}
	return fmt.Sprintf("timeout=%s retries=%d rps=%.2f delay=[%s,%s] freshness=%s headless=%v db=%s",
		c.HTTPTimeout, c.MaxRetries, c.RateLimitRPS, c.MinDelay, c.MaxDelay, c.Freshness, c.BrowserHeadless, db)
}
