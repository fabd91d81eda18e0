package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel    = "info"
	DefaultJSONLog     = false
	DefaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultHTTPTimeout = 30 * time.Second

	DefaultRateLimitRPS   = 0.5
	DefaultRateLimitBurst = 1
	DefaultMinDelay       = 1500 * time.Millisecond
	DefaultMaxDelay       = 3 * time.Second

	DefaultMaxRetries = 3
	DefaultFreshness  = 7 * 24 * time.Hour

	DefaultBrowserHeadless = true
	DefaultLedgerPath      = "failed_profiles.csv"
	DefaultDebugDir        = "debug"
	DefaultProfileDirName  = ".enrich/chrome_profile"
)
