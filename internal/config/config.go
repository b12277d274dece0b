// Package config resolves koans settings from an optional .env file and
// the process environment. Command-line flags are applied on top by the
// CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when no env file is named and it exists.
const DefaultEnvFile = ".env"

// Environment variables.
const (
	EnvPath       = "KOANS_PATH"
	EnvFailFast   = "KOANS_FAIL_FAST"
	EnvHistoryDB  = "KOANS_HISTORY_DB"
	EnvFormat     = "KOANS_FORMAT"
	EnvNoColor    = "KOANS_NO_COLOR"
	EnvNoColorStd = "NO_COLOR"
)

// Config holds resolved settings.
type Config struct {
	// Path is the lesson directory used when no paths are given.
	Path string

	FailFast  bool
	HistoryDB string // empty disables run history
	Format    string // "text" | "json"
	NoColor   bool
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Path:   "koans",
		Format: "text",
	}
}

// LookupFunc reads an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load resolves settings. Values from envFile are read first and the
// process environment (via lookup) overrides them; empty variables count
// as unset. An empty envFile reads DefaultEnvFile when it exists; a named
// envFile must exist.
// A nil lookup uses os.LookupEnv.
func Load(envFile string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	fileVals, err := readEnvFile(envFile)
	if err != nil {
		return Config{}, err
	}

	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}

	cfg := Default()
	if v, ok := get(EnvPath); ok && v != "" {
		cfg.Path = v
	}
	if v, ok := get(EnvHistoryDB); ok {
		cfg.HistoryDB = v
	}
	if v, ok := get(EnvFormat); ok && v != "" {
		cfg.Format = v
	}
	if cfg.FailFast, err = boolVar(get, EnvFailFast); err != nil {
		return Config{}, err
	}
	if cfg.NoColor, err = boolVar(get, EnvNoColor); err != nil {
		return Config{}, err
	}
	// NO_COLOR disables color when set to any non-empty value.
	if v, ok := get(EnvNoColorStd); ok && v != "" {
		cfg.NoColor = true
	}

	return cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	vals, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return vals, nil
}

func boolVar(get func(string) (string, bool), key string) (bool, error) {
	v, ok := get(key)
	if !ok || v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}
