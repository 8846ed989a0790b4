package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if strings.TrimSpace(c.Provider.APIKey) == "" {
		return fmt.Errorf("provider.api_key is required")
	}
	if _, err := url.ParseRequestURI(c.Provider.BaseURL); err != nil {
		return fmt.Errorf("provider.base_url: %w", err)
	}

	if c.Notifier.URL != "" {
		u, err := url.Parse(c.Notifier.URL)
		if err != nil {
			return fmt.Errorf("notifier.url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("notifier.url must use ws:// or wss:// (got %q)", u.Scheme)
		}
	}

	if c.Credits.KeyPrefix == "" {
		return fmt.Errorf("credits.key_prefix must not be empty")
	}

	return nil
}
