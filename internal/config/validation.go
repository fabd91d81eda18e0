package config

import "fmt"

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("retries must be >= 1")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit rps must be > 0")
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("delay range is invalid: min=%s max=%s", c.MinDelay, c.MaxDelay)
	}
	if c.Freshness < 0 {
		return fmt.Errorf("freshness must be >= 0")
	}
	return nil
}
