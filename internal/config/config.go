package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the top-level supportdesk configuration.
type Config struct {
	Store      StoreConfig     `json:"store"`
	Chat       ChatConfig      `json:"chat"`
	Connectors ConnectorConfig `json:"connectors"`
	Knowledge  []ArticleSource `json:"knowledge,omitempty"`
	API        APIConfig       `json:"api"`
}

// StoreConfig holds ticket persistence settings.
type StoreConfig struct {
	Path string `json:"path"`
}

// ChatConfig holds conversation session settings.
type ChatConfig struct {
	IdleTimeout  Duration `json:"idle_timeout,omitempty"`  // default 30m
	ReapSchedule string   `json:"reap_schedule,omitempty"` // cron expression, default every 5m
}

// ConnectorConfig holds settings for external platform connectors.
type ConnectorConfig struct {
	Telegram  *TelegramConfig            `json:"telegram,omitempty"`
	Slack     *SlackConfig               `json:"slack,omitempty"`
	WebSocket *WebSocketConfig           `json:"websocket,omitempty"`
	Webhooks  map[string]WebhookEndpoint `json:"webhooks,omitempty"`
}

// WebhookEndpoint holds auth settings for one inbound webhook endpoint.
type WebhookEndpoint struct {
	Secret      string `json:"secret,omitempty"`
	BearerToken string `json:"bearer_token,omitempty"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token     string  `json:"token"`
	AllowFrom []int64 `json:"allow_from,omitempty"`
}

// SlackConfig holds Slack Socket Mode settings.
type SlackConfig struct {
	AppToken string `json:"app_token"`
	BotToken string `json:"bot_token"`
}

// WebSocketConfig enables the browser chat gateway served by the API.
type WebSocketConfig struct {
	Enabled bool `json:"enabled"`
}

// ArticleSource points at a help-center page the knowledge lookup can cite.
type ArticleSource struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Keywords []string `json:"keywords,omitempty"`
}

// APIConfig holds REST API server settings.
type APIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Key  string `json:"api_key"`
}

// Duration is a time.Duration that unmarshals from JSON strings like "30m".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv builds a minimal config from environment variables with DESK_ prefix.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{
			Path: getenv("DESK_STORE_PATH", "/data/tickets.db"),
		},
		API: APIConfig{
			Host: getenv("DESK_API_HOST", "0.0.0.0"),
			Port: getenvInt("DESK_API_PORT", 8080),
			Key:  os.Getenv("DESK_API_KEY"),
		},
	}

	if token := os.Getenv("DESK_TELEGRAM_TOKEN"); token != "" {
		cfg.Connectors.Telegram = &TelegramConfig{Token: token}
		if ids := os.Getenv("DESK_TELEGRAM_ALLOW_FROM"); ids != "" {
			parsed, err := parseInt64List(ids)
			if err != nil {
				return nil, fmt.Errorf("config: DESK_TELEGRAM_ALLOW_FROM: %w", err)
			}
			cfg.Connectors.Telegram.AllowFrom = parsed
		}
	}

	if app := os.Getenv("DESK_SLACK_APP_TOKEN"); app != "" {
		cfg.Connectors.Slack = &SlackConfig{
			AppToken: app,
			BotToken: os.Getenv("DESK_SLACK_BOT_TOKEN"),
		}
	}

	if v := os.Getenv("DESK_WEBSOCKET"); v == "1" || strings.EqualFold(v, "true") {
		cfg.Connectors.WebSocket = &WebSocketConfig{Enabled: true}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Path == "" {
		c.Store.Path = "/data/tickets.db"
	}
	if c.Chat.IdleTimeout == 0 {
		c.Chat.IdleTimeout = Duration(30 * time.Minute)
	}
	if c.Chat.ReapSchedule == "" {
		c.Chat.ReapSchedule = "*/5 * * * *"
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
}

// Validate checks for required fields.
func (c *Config) Validate() error {
	var errs []string

	if c.Store.Path == "" {
		errs = append(errs, "store.path is required")
	}
	if c.Chat.IdleTimeout < 0 {
		errs = append(errs, "chat.idle_timeout must not be negative")
	}

	if c.Connectors.Telegram != nil && c.Connectors.Telegram.Token == "" {
		errs = append(errs, "connectors.telegram.token is required")
	}
	if c.Connectors.Slack != nil {
		if c.Connectors.Slack.AppToken == "" {
			errs = append(errs, "connectors.slack.app_token is required")
		}
		if c.Connectors.Slack.BotToken == "" {
			errs = append(errs, "connectors.slack.bot_token is required")
		}
	}

	for i, s := range c.Knowledge {
		if s.Title == "" {
			errs = append(errs, fmt.Sprintf("knowledge[%d].title is required", i))
		}
		if s.URL == "" {
			errs = append(errs, fmt.Sprintf("knowledge[%d].url is required", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func parseInt64List(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	result := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", p)
		}
		result = append(result, n)
	}
	return result, nil
}
