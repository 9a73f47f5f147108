// Package config loads the small CLI config file cmd/radioclone reads
// defaults from: serial port/baud defaults, the model key and the log
// level. Flags passed on the command line always win over the file.
package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk shape, unmarshalled the same way deviceid.go
// unmarshals tocalls.yaml with gopkg.in/yaml.v3.
type Config struct {
	Port     string `yaml:"port"`
	Baud     int    `yaml:"baud"`
	Model    string `yaml:"model"`
	LogLevel string `yaml:"log_level"`
}

// DefaultPath is the config file location cmd/radioclone looks at when
// -c/--config-file isn't given.
const DefaultPath = "radioclone.yaml"

// Load reads path and returns its parsed Config. A missing file is not an
// error: it returns a zero Config, so callers fall through to flag defaults.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return c, nil
}

// LogLevelOrDefault parses the config's log_level field, defaulting to Info on an
// empty or unrecognized value.
func (c Config) LogLevelOrDefault() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
