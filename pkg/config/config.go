// Package config provides a reusable loader for zenoh-go session
// configuration: a YAML file merged with environment overrides via
// viper, mirroring the teacher's cmd-config loading convention.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"zenoh-go/core/zerr"
	"zenoh-go/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Mode is the session topology: a client attached to a single router,
// or a peer participating in a multicast group.
type Mode string

const (
	ModeClient Mode = "client"
	ModePeer   Mode = "peer"
)

// Config is the unified configuration for a zenoh-go session. Field
// names mirror the string config keys of spec.md §6.
type Config struct {
	Mode    Mode     `mapstructure:"mode" json:"mode"`
	Connect []string `mapstructure:"connect" json:"connect"`
	Listen  []string `mapstructure:"listen" json:"listen"`

	User        string `mapstructure:"user" json:"user"`
	Password    string `mapstructure:"password" json:"password"`
	AccessToken string `mapstructure:"access_token" json:"access_token"`

	Scouting struct {
		Multicast struct {
			Enabled   bool   `mapstructure:"enabled" json:"enabled"`
			Address   string `mapstructure:"address" json:"address"`
			Interface string `mapstructure:"interface" json:"interface"`
		} `mapstructure:"multicast" json:"multicast"`
		TimeoutMs int `mapstructure:"timeout" json:"timeout"`
	} `mapstructure:"scouting" json:"scouting"`

	Transport struct {
		LeaseMs        int  `mapstructure:"lease_ms" json:"lease_ms"`
		BatchSize      int  `mapstructure:"batch_size" json:"batch_size"`
		SnResolution   int  `mapstructure:"sn_resolution" json:"sn_resolution"`
		Compression    bool `mapstructure:"compression" json:"compression"`
		AutoReconnect  bool `mapstructure:"auto_reconnect" json:"auto_reconnect"`
		JoinIntervalMs int  `mapstructure:"join_interval_ms" json:"join_interval_ms"`
	} `mapstructure:"transport" json:"transport"`

	Logging struct {
		Level   string `mapstructure:"level" json:"level"`
		Backend string `mapstructure:"backend" json:"backend"`
	} `mapstructure:"logging" json:"logging"`
}

// Default returns a Config populated with the spec's reference defaults
// (Z_TRANSPORT_LEASE_EXPIRE_FACTOR-friendly lease, standard batch size).
func Default() Config {
	var c Config
	c.Mode = ModeClient
	c.Scouting.Multicast.Address = "224.0.0.224:7447"
	c.Scouting.TimeoutMs = 1000
	c.Transport.LeaseMs = 10000
	c.Transport.BatchSize = 2048
	c.Transport.SnResolution = 1 << 28
	c.Transport.JoinIntervalMs = 2500
	c.Transport.AutoReconnect = true
	c.Logging.Level = "info"
	c.Logging.Backend = "logrus"
	return c
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig = Default()

// Load reads a YAML configuration file named after env (or "default" if
// env is empty) from ./config or ./cmd/config, merges ZENOH_-prefixed
// environment overrides, and stores the result in AppConfig.
func Load(env string) (*Config, error) {
	v := viper.New()
	name := "default"
	if env != "" {
		name = env
	}
	v.SetConfigName(name)
	v.AddConfigPath("config")
	v.AddConfigPath("cmd/config")
	v.SetConfigType("yaml")

	base := Default()
	if err := v.Unmarshal(&base); err != nil {
		return nil, zerr.Wrap(zerr.InvalidArgument, "seed config defaults", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, zerr.Wrap(zerr.InvalidArgument, "load config", err)
		}
	}

	v.SetEnvPrefix("ZENOH")
	v.AutomaticEnv()

	if err := v.Unmarshal(&base); err != nil {
		return nil, zerr.Wrap(zerr.InvalidArgument, "unmarshal config", err)
	}
	if err := validate(&base); err != nil {
		return nil, err
	}
	AppConfig = base
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the ZENOH_ENV environment
// variable to select an overlay file.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ZENOH_ENV", ""))
}

// LoadDotEnv overlays a .env file onto the process environment before
// Load/LoadFromEnv is called, for convenient local CLI use. Missing
// files are not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if isNotExist(err) {
			return nil
		}
		return zerr.Wrap(zerr.InvalidArgument, "load .env", err)
	}
	return nil
}

func isNotExist(err error) bool {
	type notExister interface{ IsNotExist() bool }
	if ne, ok := err.(notExister); ok {
		return ne.IsNotExist()
	}
	return false
}

// validate enforces spec §9's open-question resolution: the core must
// not silently discard credentials it does not recognize but must fail
// InvalidArgument on an unrecognized combination.
func validate(c *Config) error {
	if c.Mode != ModeClient && c.Mode != ModePeer {
		return zerr.Newf(zerr.InvalidArgument, "mode must be %q or %q, got %q", ModeClient, ModePeer, c.Mode)
	}
	hasUserPass := c.User != "" || c.Password != ""
	hasToken := c.AccessToken != ""
	if hasUserPass && c.User == "" {
		return zerr.New(zerr.InvalidArgument, "password set without user")
	}
	if hasUserPass && hasToken {
		return zerr.New(zerr.InvalidArgument, "access_token and user/password are mutually exclusive auth modes")
	}
	if c.Mode == ModeClient && len(c.Connect) == 0 {
		return zerr.New(zerr.InvalidArgument, "client mode requires at least one connect endpoint")
	}
	return nil
}

// String renders a summary safe for logging (credentials redacted).
func (c Config) String() string {
	redacted := "none"
	switch {
	case c.AccessToken != "":
		redacted = "access_token"
	case c.User != "":
		redacted = "user/password"
	}
	return fmt.Sprintf("mode=%s connect=%v listen=%v auth=%s", c.Mode, c.Connect, c.Listen, redacted)
}
