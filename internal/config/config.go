// Package config loads termbot settings from a YAML file and TERMBOT_*
// environment variables.
package config

import (
	"time"

	"github.com/fxposquad/termbot/internal/embedding"
	"github.com/fxposquad/termbot/internal/llm"
	"github.com/fxposquad/termbot/internal/quiz"
	"github.com/fxposquad/termbot/internal/resolver"
)

// Config is the root application configuration.
type Config struct {
	Log       LogConfig             `yaml:"log"`
	Data      DataConfig            `yaml:"data"`
	Resolver  resolver.Config       `yaml:"resolver"`
	Quiz      quiz.Config           `yaml:"quiz"`
	Embedding embedding.Config      `yaml:"embedding"`
	Cache     embedding.CacheConfig `yaml:"cache"`
	Store     StoreConfig           `yaml:"store"`
	LLM       llm.Config            `yaml:"llm"`
	Chat      ChatConfig            `yaml:"chat"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"TERMBOT_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"TERMBOT_LOG_FORMAT" env-default:"text"`
	// File redirects logs away from stderr; the chat UI needs this.
	File string `yaml:"file" env:"TERMBOT_LOG_FILE"`
}

// DataConfig points at the glossary data. An empty Dir uses the built-in data.
type DataConfig struct {
	Dir       string `yaml:"dir"        env:"TERMBOT_DATA_DIR"`
	ImagesDir string `yaml:"images_dir" env:"TERMBOT_IMAGES_DIR" env-default:"images"`
}

// StoreConfig holds event log settings. An empty Path uses store.DefaultDBPath.
type StoreConfig struct {
	Disabled bool   `yaml:"disabled" env:"TERMBOT_STORE_DISABLED"`
	Path     string `yaml:"path"     env:"TERMBOT_DB"`
}

// ChatConfig holds interactive chat settings.
type ChatConfig struct {
	RateLimit   time.Duration `yaml:"rate_limit"   env:"TERMBOT_CHAT_RATE_LIMIT" env-default:"1s"`
	DefaultMode string        `yaml:"default_mode" env:"TERMBOT_CHAT_MODE"       env-default:"simple"`
	UserID      string        `yaml:"user_id"      env:"TERMBOT_USER"            env-default:"local"`
}
