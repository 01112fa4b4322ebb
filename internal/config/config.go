package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Data    DataConfig    `mapstructure:"data"`
	Stream  StreamConfig  `mapstructure:"stream"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	Debug          bool          `mapstructure:"debug"`
}

// DataConfig locates the on-disk content and registry state.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

// StreamConfig tunes the SSE stream loops.
type StreamConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	OutboxCapacity    int           `mapstructure:"outbox_capacity"`
}

// AuthConfig configures admin authentication. Disabled by default so a
// kiosk-LAN deployment works out of the box.
type AuthConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Secret        string        `mapstructure:"secret"`
	AdminUser     string        `mapstructure:"admin_user"`
	AdminPassHash string        `mapstructure:"admin_pass_hash"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
}

// MetricsConfig configures the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// ClientInfoPath returns the durable alias record location.
func (c DataConfig) ClientInfoPath() string {
	return filepath.Join(c.Dir, "client.json")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	// SSE responses never finish; the write timeout must stay disabled.
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.debug", false)
	v.SetDefault("data.dir", "./data")
	v.SetDefault("stream.heartbeat_interval", 30*time.Second)
	v.SetDefault("stream.outbox_capacity", 256)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("auth.access_ttl", 30*time.Minute)
	v.SetDefault("auth.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9464)
}

// Load reads configuration from the optional config file, the VIEWSYNC_*
// environment and defaults, in ascending priority of default < file < env.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VIEWSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("viewsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/viewsync")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Stream.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %s", c.Stream.HeartbeatInterval)
	}
	if c.Stream.OutboxCapacity <= 0 {
		return fmt.Errorf("outbox capacity must be positive, got %d", c.Stream.OutboxCapacity)
	}
	if strings.TrimSpace(c.Data.Dir) == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	if c.Auth.Enabled {
		if strings.TrimSpace(c.Auth.Secret) == "" {
			return fmt.Errorf("auth enabled but no secret configured")
		}
		if strings.TrimSpace(c.Auth.AdminPassHash) == "" {
			return fmt.Errorf("auth enabled but no admin password hash configured")
		}
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
