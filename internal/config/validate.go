package config

import (
	"fmt"
	"strings"
)

// Validate performs rule validation on the loaded configuration. The llm
// section is checked by the commands that need a chat provider.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error (got %q)", c.Log.Level)
	}

	if err := c.Resolver.Validate(); err != nil {
		return fmt.Errorf("resolver: %w", err)
	}
	if err := c.Quiz.Validate(); err != nil {
		return fmt.Errorf("quiz: %w", err)
	}
	if err := c.Embedding.Validate(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}

	if c.Cache.Addr != "" && c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be >= 0 (got %s)", c.Cache.TTL)
	}

	switch c.Chat.DefaultMode {
	case "simple", "detailed":
	default:
		return fmt.Errorf("chat.default_mode must be simple or detailed (got %q)", c.Chat.DefaultMode)
	}
	if c.Chat.RateLimit < 0 {
		return fmt.Errorf("chat.rate_limit must be >= 0 (got %s)", c.Chat.RateLimit)
	}
	if strings.TrimSpace(c.Chat.UserID) == "" {
		return fmt.Errorf("chat.user_id must not be empty")
	}

	return nil
}

// Detailed reports whether chat starts in detailed mode.
func (c ChatConfig) Detailed() bool {
	return c.DefaultMode == "detailed"
}
