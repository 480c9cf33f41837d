// Package config loads tool configuration from a YAML file, a .env file and
// ASBUILT_-prefixed environment variables, in ascending precedence.
// Credentials are never written back to disk; the dedicated credential
// variables (ASBUILT_USERNAME, ASBUILT_PASSWORD, ASBUILT_TOKEN,
// ASBUILT_NODE_SSH_PASSWORD, ASBUILT_SWITCH_SSH_PASSWORD) override whatever
// the file carries.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Cluster is the management API connection.
	Cluster ClusterConfig `mapstructure:"cluster"`

	// SSH drives the optional topology correlation.
	SSH SSHConfig `mapstructure:"ssh"`

	// Output is the artifact destination.
	Output OutputConfig `mapstructure:"output"`

	// Server is the serve-mode HTTP listener.
	Server ServerConfig `mapstructure:"server"`

	// History is the local run-history store.
	History HistoryConfig `mapstructure:"history"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Workers sizes the artifact-writer pool.
	Workers int `mapstructure:"workers"`
}

type ClusterConfig struct {
	// Host is the management address, with or without scheme.
	Host string `mapstructure:"host"`

	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`

	// Insecure skips TLS certificate verification. Common on appliances
	// with self-signed management certificates.
	Insecure bool `mapstructure:"insecure"`

	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	BackoffFactor float64       `mapstructure:"backoff_factor"`
}

type SSHConfig struct {
	// Enabled turns topology correlation on.
	Enabled bool `mapstructure:"enabled"`

	// Switches are the management IPs of the data-plane switches.
	Switches []string `mapstructure:"switches"`

	NodeUser       string `mapstructure:"node_user"`
	NodePassword   string `mapstructure:"node_password"`
	SwitchUser     string `mapstructure:"switch_user"`
	SwitchPassword string `mapstructure:"switch_password"`
}

type OutputConfig struct {
	// Dir receives every artifact of a run.
	Dir string `mapstructure:"dir"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type HistoryConfig struct {
	// Path is the DuckDB database file, ":memory:" for ephemeral history.
	Path string `mapstructure:"path"`

	// Keep caps the number of retained runs.
	Keep int `mapstructure:"keep"`
}

// Load reads configuration from cfgFile (or the standard search paths when
// empty) and the environment. Commands call Validate after folding in their
// flag overrides.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.asbuilt")
		v.AddConfigPath("/etc/asbuilt")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("ASBUILT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	applyCredentialEnv(cfg)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cluster.timeout", 30*time.Second)
	v.SetDefault("cluster.max_retries", 3)
	v.SetDefault("cluster.backoff_factor", 2.0)
	v.SetDefault("ssh.node_user", "admin")
	v.SetDefault("ssh.switch_user", "admin")
	v.SetDefault("output.dir", "./asbuilt-report")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8095)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("history.path", "asbuilt-history.db")
	v.SetDefault("history.keep", 30)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("workers", 4)
}

// applyCredentialEnv wires the short credential variables. They win over
// file values so operators never have to put secrets in the YAML.
func applyCredentialEnv(cfg *Config) {
	if s := os.Getenv("ASBUILT_USERNAME"); s != "" {
		cfg.Cluster.Username = s
	}
	if s := os.Getenv("ASBUILT_PASSWORD"); s != "" {
		cfg.Cluster.Password = s
	}
	if s := os.Getenv("ASBUILT_TOKEN"); s != "" {
		cfg.Cluster.Token = s
	}
	if s := os.Getenv("ASBUILT_NODE_SSH_PASSWORD"); s != "" {
		cfg.SSH.NodePassword = s
	}
	if s := os.Getenv("ASBUILT_SWITCH_SSH_PASSWORD"); s != "" {
		cfg.SSH.SwitchPassword = s
	}
}

// Validate checks invariants that cannot wait until first use.
func (c *Config) Validate() error {
	if c.Cluster.Host == "" {
		return errors.New("cluster.host is required")
	}
	if c.Cluster.MaxRetries < 0 {
		return errors.New("cluster.max_retries must not be negative")
	}
	if c.Cluster.BackoffFactor < 1 {
		return errors.New("cluster.backoff_factor must be >= 1")
	}
	if c.SSH.Enabled && len(c.SSH.Switches) == 0 {
		return errors.New("ssh.switches is required when ssh.enabled is set")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.History.Keep < 1 {
		return errors.New("history.keep must be >= 1")
	}
	if c.Workers < 1 {
		return errors.New("workers must be >= 1")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level: %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log_format: %q", c.LogFormat)
	}
	return nil
}
