package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// AdminIDs is the allow-list of operators permitted to mutate the catalog.
	AdminIDs []int64 `yaml:"admin_ids" envconfig:"ADMIN_IDS"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
	// DropPending discards updates queued while the bot was offline.
	DropPending bool `yaml:"drop_pending" envconfig:"TELEGRAM_DROP_PENDING"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
	// SecretToken is echoed by Telegram in X-Telegram-Bot-Api-Secret-Token.
	SecretToken string `yaml:"secret_token" envconfig:"WEBHOOK_SECRET"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": inline button presses (wizard choices, navigation)
// - "message": standard text messages
// MaxUsers bounds how many senders the limiter remembers (0 uses the built-in default).
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
	MaxUsers       int      `yaml:"max_users" envconfig:"RATE_LIMIT_MAX_USERS"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// IsAdmin reports whether userID is on the configured allow-list.
func (c TelegramConfig) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// LoadEnvFiles loads variables from dotenv files that exist. Variables already set in
// the process environment win. Missing files are skipped.
func LoadEnvFiles(paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("load %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// Decode reads a YAML file into out and overlays environment variables.
// It is shared by the core config and application configs embedding it.
func Decode(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", out); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	seen := make(map[int64]struct{}, len(cfg.Telegram.AdminIDs))
	admins := cfg.Telegram.AdminIDs[:0]
	for _, id := range cfg.Telegram.AdminIDs {
		if id <= 0 {
			return fmt.Errorf("invalid telegram.admin_ids value %d; ids must be positive", id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		admins = append(admins, id)
	}
	cfg.Telegram.AdminIDs = admins

	if cfg.RateLimit.MaxUsers < 0 {
		return fmt.Errorf("rate_limit.max_users must not be negative")
	}
	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}
	return nil
}
