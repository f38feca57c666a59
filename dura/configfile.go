package dura

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// configFileSettings are the settings which can be given defaults in
// the optional TOML config file.
type configFileSettings struct {
	LogLevel   string   `toml:"log_level"`
	UseJSONLog bool     `toml:"use_json_log"`
	Excludes   []string `toml:"excludes"`
}

// LoadConfigFile reads defaults from the TOML file at path into ci.
//
// Explicit command line flags are parsed after this so they take
// precedence over the file.
func LoadConfigFile(path string, ci *ConfigInfo) error {
	var settings configFileSettings
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "config file %q", path)
	}
	if _, err := toml.DecodeFile(path, &settings); err != nil {
		return errors.Wrapf(err, "failed to parse config file %q", path)
	}
	if settings.LogLevel != "" {
		if err := ci.LogLevel.Set(settings.LogLevel); err != nil {
			return err
		}
	}
	if settings.UseJSONLog {
		ci.UseJSONLog = true
	}
	ci.Excludes = append(ci.Excludes, settings.Excludes...)
	return nil
}
