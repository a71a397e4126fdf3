// Package config provides Viper-based configuration loading for the lobby server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ListenerConfig holds the client WebSocket listener settings.
type ListenerConfig struct {
	// Host is the bind address for the lobby listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the lobby listener.
	Port int `mapstructure:"port"`
	// WriteTimeout is the per-message write deadline for client connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (l ListenerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// OpsConfig holds the operational HTTP endpoint settings (metrics, health).
type OpsConfig struct {
	// Host is the bind address for the ops listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the ops listener.
	Port int `mapstructure:"port"`
}

// Addr returns the "host:port" listen address.
func (o OpsConfig) Addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// LobbyConfig holds game-assembly scheduler settings.
type LobbyConfig struct {
	// TickInterval is the scheduler period for advancing pending games.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// DefaultLoadoutTimeout substitutes for a zero loadout-select timeout
	// on incoming game descriptors.
	DefaultLoadoutTimeout time.Duration `mapstructure:"default_loadout_timeout"`
	// HostRequestTimeout bounds a single game-server session request.
	HostRequestTimeout time.Duration `mapstructure:"host_request_timeout"`
	// QueueTemplateDir, if set, points at a directory of YAML queue
	// templates that overlay the built-in queue set.
	QueueTemplateDir string `mapstructure:"queue_template_dir"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// HostingConfig holds game-server host manager settings.
type HostingConfig struct {
	// Mode selects the host manager implementation: "local" or "remote".
	Mode string `mapstructure:"mode"`
	// GameServerAddress is the static session address handed out in local
	// mode.
	GameServerAddress string `mapstructure:"game_server_address"`
	// ControlAddress is the host manager control endpoint dialed in remote
	// mode.
	ControlAddress string `mapstructure:"control_address"`
	// RequestTimeout bounds one control-channel round trip in remote mode.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Listener ListenerConfig `mapstructure:"listener"`
	Ops      OpsConfig      `mapstructure:"ops"`
	Lobby    LobbyConfig    `mapstructure:"lobby"`
	Database DatabaseConfig `mapstructure:"database"`
	Hosting  HostingConfig  `mapstructure:"hosting"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateListener(c.Listener); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateOps(c.Ops); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLobby(c.Lobby); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateHosting(c.Hosting); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateListener(l ListenerConfig) error {
	var errs []string
	if l.Port < 1 || l.Port > 65535 {
		errs = append(errs, fmt.Sprintf("listener.port must be 1-65535, got %d", l.Port))
	}
	if l.WriteTimeout < 0 {
		errs = append(errs, "listener.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateOps(o OpsConfig) error {
	if o.Port < 1 || o.Port > 65535 {
		return fmt.Errorf("ops.port must be 1-65535, got %d", o.Port)
	}
	return nil
}

func validateLobby(l LobbyConfig) error {
	var errs []string
	if l.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("lobby.tick_interval must be positive, got %s", l.TickInterval))
	}
	if l.DefaultLoadoutTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("lobby.default_loadout_timeout must be positive, got %s", l.DefaultLoadoutTimeout))
	}
	if l.HostRequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("lobby.host_request_timeout must be positive, got %s", l.HostRequestTimeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateHosting(h HostingConfig) error {
	var errs []string
	switch h.Mode {
	case "local":
		if h.GameServerAddress == "" {
			errs = append(errs, "hosting.game_server_address must not be empty in local mode")
		}
	case "remote":
		if h.ControlAddress == "" {
			errs = append(errs, "hosting.control_address must not be empty in remote mode")
		}
		if h.RequestTimeout <= 0 {
			errs = append(errs, fmt.Sprintf("hosting.request_timeout must be positive, got %s", h.RequestTimeout))
		}
	default:
		errs = append(errs, fmt.Sprintf("hosting.mode must be one of [local, remote], got %q", h.Mode))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with LOBBY_ prefix
	v.SetEnvPrefix("LOBBY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listener.host", "0.0.0.0")
	v.SetDefault("listener.port", 6050)
	v.SetDefault("listener.write_timeout", "30s")

	v.SetDefault("ops.host", "0.0.0.0")
	v.SetDefault("ops.port", 6060)

	v.SetDefault("lobby.tick_interval", "1s")
	v.SetDefault("lobby.default_loadout_timeout", "1m")
	v.SetDefault("lobby.host_request_timeout", "30s")
	v.SetDefault("lobby.queue_template_dir", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "lobby")
	v.SetDefault("database.password", "lobby")
	v.SetDefault("database.name", "lobby")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("hosting.mode", "local")
	v.SetDefault("hosting.game_server_address", "ws://127.0.0.1:6061")
	v.SetDefault("hosting.control_address", "")
	v.SetDefault("hosting.request_timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
