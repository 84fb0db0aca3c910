// Package config loads relay server settings from an optional YAML file and
// environment variables. Environment values win over the file.
package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/loteria/go/internal/relay/events"
	"github.com/mcdev12/loteria/go/internal/relay/gateway"
	"github.com/mcdev12/loteria/go/internal/relay/room"
)

type Config struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	WebSocket struct {
		WriteTimeout      time.Duration `yaml:"write_timeout"`
		ReadTimeout       time.Duration `yaml:"read_timeout"`
		PingInterval      time.Duration `yaml:"ping_interval"`
		CloseGracePeriod  time.Duration `yaml:"close_grace_period"`
		MaxMessageSize    int64         `yaml:"max_message_size"`
		SendBufferSize    int           `yaml:"send_buffer_size"`
		MessagesPerSecond float64       `yaml:"messages_per_second"`
		MessageBurst      int           `yaml:"message_burst"`
	} `yaml:"websocket"`

	Reactions struct {
		FlushWindow time.Duration `yaml:"flush_window"`
		Cooldown    time.Duration `yaml:"cooldown"`
	} `yaml:"reactions"`

	RoomInboxSize int `yaml:"room_inbox_size"`

	NATS struct {
		URL           string        `yaml:"url"`
		SubjectPrefix string        `yaml:"subject_prefix"`
		MaxReconnects int           `yaml:"max_reconnects"`
		ReconnectWait time.Duration `yaml:"reconnect_wait"`
	} `yaml:"nats"`
}

// DefaultConfig mirrors the gateway and room defaults. NATS is disabled until
// a URL is configured.
func DefaultConfig() *Config {
	conn := gateway.DefaultConnectionConfig()
	rc := room.DefaultConfig()
	nc := events.DefaultNATSConfig()

	cfg := &Config{
		Port:           "8080",
		AllowedOrigins: []string{"*"},
		RoomInboxSize:  rc.InboxSize,
	}
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"

	cfg.WebSocket.WriteTimeout = conn.WriteTimeout
	cfg.WebSocket.ReadTimeout = conn.ReadTimeout
	cfg.WebSocket.PingInterval = conn.PingInterval
	cfg.WebSocket.CloseGracePeriod = conn.CloseGracePeriod
	cfg.WebSocket.MaxMessageSize = conn.MaxMessageSize
	cfg.WebSocket.SendBufferSize = conn.SendBufferSize
	cfg.WebSocket.MessagesPerSecond = conn.MessagesPerSecond
	cfg.WebSocket.MessageBurst = conn.MessageBurst

	cfg.Reactions.FlushWindow = rc.FlushWindow
	cfg.Reactions.Cooldown = rc.Cooldown

	cfg.NATS.SubjectPrefix = nc.SubjectPrefix
	cfg.NATS.MaxReconnects = nc.MaxReconnects
	cfg.NATS.ReconnectWait = nc.ReconnectWait
	return cfg
}

// Load reads the YAML file at RELAY_CONFIG when set, then applies
// environment overrides
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if path := os.Getenv("RELAY_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	ws := &cfg.WebSocket
	ws.WriteTimeout = getEnvAsDuration("WS_WRITE_TIMEOUT", ws.WriteTimeout)
	ws.ReadTimeout = getEnvAsDuration("WS_READ_TIMEOUT", ws.ReadTimeout)
	ws.PingInterval = getEnvAsDuration("WS_PING_INTERVAL", ws.PingInterval)
	ws.CloseGracePeriod = getEnvAsDuration("WS_CLOSE_GRACE_PERIOD", ws.CloseGracePeriod)
	ws.MaxMessageSize = int64(getEnvAsInt("WS_MAX_MESSAGE_SIZE", int(ws.MaxMessageSize)))
	ws.SendBufferSize = getEnvAsInt("WS_SEND_BUFFER_SIZE", ws.SendBufferSize)
	ws.MessagesPerSecond = getEnvAsFloat("WS_MESSAGES_PER_SECOND", ws.MessagesPerSecond)
	ws.MessageBurst = getEnvAsInt("WS_MESSAGE_BURST", ws.MessageBurst)

	cfg.Reactions.FlushWindow = getEnvAsDuration("REACTION_FLUSH_WINDOW", cfg.Reactions.FlushWindow)
	cfg.Reactions.Cooldown = getEnvAsDuration("REACTION_COOLDOWN", cfg.Reactions.Cooldown)
	cfg.RoomInboxSize = getEnvAsInt("ROOM_INBOX_SIZE", cfg.RoomInboxSize)

	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", cfg.NATS.SubjectPrefix)
	cfg.NATS.MaxReconnects = getEnvAsInt("NATS_MAX_RECONNECTS", cfg.NATS.MaxReconnects)
	cfg.NATS.ReconnectWait = getEnvAsDuration("NATS_RECONNECT_WAIT", cfg.NATS.ReconnectWait)
}

// Validate rejects settings the relay cannot run with
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.WebSocket.PingInterval >= c.WebSocket.ReadTimeout {
		return fmt.Errorf("websocket ping interval %s must be shorter than read timeout %s",
			c.WebSocket.PingInterval, c.WebSocket.ReadTimeout)
	}
	if c.Reactions.FlushWindow <= 0 {
		return fmt.Errorf("reaction flush window must be positive")
	}
	if c.Reactions.Cooldown < 0 {
		return fmt.Errorf("reaction cooldown must not be negative")
	}
	if c.WebSocket.MessagesPerSecond <= 0 || c.WebSocket.MessageBurst <= 0 {
		return fmt.Errorf("inbound rate limit must be positive")
	}
	return nil
}

// NATSEnabled reports whether room events should go to NATS
func (c *Config) NATSEnabled() bool {
	return c.NATS.URL != ""
}

// Addr is the HTTP listen address
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Gateway converts the settings to a gateway.Config
func (c *Config) Gateway() gateway.Config {
	conn := gateway.DefaultConnectionConfig()
	conn.WriteTimeout = c.WebSocket.WriteTimeout
	conn.ReadTimeout = c.WebSocket.ReadTimeout
	conn.PingInterval = c.WebSocket.PingInterval
	conn.CloseGracePeriod = c.WebSocket.CloseGracePeriod
	conn.MaxMessageSize = c.WebSocket.MaxMessageSize
	conn.SendBufferSize = c.WebSocket.SendBufferSize
	conn.MessagesPerSecond = c.WebSocket.MessagesPerSecond
	conn.MessageBurst = c.WebSocket.MessageBurst
	conn.CheckOrigin = c.checkOrigin

	return gateway.Config{
		ConnectionConfig: conn,
		RoomConfig:       c.Room(),
	}
}

// Room converts the reaction and inbox settings to a room.Config
func (c *Config) Room() room.Config {
	return room.Config{
		FlushWindow: c.Reactions.FlushWindow,
		Cooldown:    c.Reactions.Cooldown,
		InboxSize:   c.RoomInboxSize,
	}
}

// Events converts the NATS settings to an events.NATSConfig
func (c *Config) Events() events.NATSConfig {
	nc := events.DefaultNATSConfig()
	nc.URL = c.NATS.URL
	nc.SubjectPrefix = c.NATS.SubjectPrefix
	nc.MaxReconnects = c.NATS.MaxReconnects
	nc.ReconnectWait = c.NATS.ReconnectWait
	return nc
}

func (c *Config) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
