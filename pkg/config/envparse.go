package config

import (
	"os"

	"github.com/hashicorp/go-envparse"

	"zenoh-go/core/zerr"
)

// ParseEnvFile reads a KEY=VALUE file (the embedded-build's alternative
// to LoadDotEnv: it returns the pairs without mutating the process
// environment, suitable for constrained hosts that want to apply
// overrides programmatically rather than through os.Setenv).
func ParseEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, zerr.Wrap(zerr.IoError, "open env file", err)
	}
	defer f.Close()

	m, err := envparse.Parse(f)
	if err != nil {
		return nil, zerr.Wrap(zerr.InvalidArgument, "parse env file", err)
	}
	return m, nil
}

// ApplyOverrides merges a KEY=VALUE map (as returned by ParseEnvFile)
// onto cfg, recognizing ZENOH_MODE, ZENOH_USER, ZENOH_PASSWORD and
// ZENOH_ACCESS_TOKEN. Other keys are ignored: this function is for the
// subset of config addressable from a flat env file, not a full
// re-implementation of viper's unmarshalling.
func ApplyOverrides(cfg *Config, overrides map[string]string) {
	if v, ok := overrides["ZENOH_MODE"]; ok {
		cfg.Mode = Mode(v)
	}
	if v, ok := overrides["ZENOH_USER"]; ok {
		cfg.User = v
	}
	if v, ok := overrides["ZENOH_PASSWORD"]; ok {
		cfg.Password = v
	}
	if v, ok := overrides["ZENOH_ACCESS_TOKEN"]; ok {
		cfg.AccessToken = v
	}
}
