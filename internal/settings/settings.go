// Package settings resolves runtime configuration for types-publisher.
//
// Values are resolved in precedence order: command-line flags, environment
// variables (TYPES_PUBLISHER_*), an optional types-publisher.yaml config
// file, and built-in defaults.
package settings

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mxl/types-publisher/pkg/registry"
)

// Settings holds the resolved runtime configuration.
type Settings struct {
	// Registry is the base URL of the npm registry, always carrying a
	// trailing slash after Load.
	Registry string `mapstructure:"registry"`
	// DataDir is the directory holding the package definitions file.
	DataDir string `mapstructure:"dataDir"`
	// LogsDir is the directory audit logs are written to.
	LogsDir string `mapstructure:"logsDir"`
	// Concurrency bounds the number of in-flight registry queries.
	Concurrency int `mapstructure:"concurrency"`
}

// Defaults applied when no config file, environment variable or flag
// provides a value.
const (
	DefaultDataDir     = "data"
	DefaultLogsDir     = "logs"
	DefaultConcurrency = 10
)

// flagBindings maps command-line flag names to settings keys.
var flagBindings = map[string]string{
	"registry":    "registry",
	"data":        "dataDir",
	"logs":        "logsDir",
	"concurrency": "concurrency",
}

// Load resolves settings from defaults, a config file, the environment and
// command-line flags. configFile, when non-empty, names an explicit config
// file and a read failure is an error; otherwise types-publisher.yaml is
// searched for in the current directory and $HOME and may be absent. flags
// may be nil when no command-line overrides apply.
func Load(configFile string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("registry", registry.DefaultRegistryURL)
	v.SetDefault("dataDir", DefaultDataDir)
	v.SetDefault("logsDir", DefaultLogsDir)
	v.SetDefault("concurrency", DefaultConcurrency)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("types-publisher")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		// The config file is optional; defaults cover its absence.
		_ = v.ReadInConfig()
	}

	v.SetEnvPrefix("TYPES_PUBLISHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for flagName, key := range flagBindings {
			flag := flags.Lookup(flagName)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("binding --%s: %w", flagName, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// normalize validates resolved values and applies canonical forms.
func (s *Settings) normalize() error {
	if s.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", s.Concurrency)
	}
	if s.DataDir == "" {
		return fmt.Errorf("dataDir must not be empty")
	}
	if s.LogsDir == "" {
		return fmt.Errorf("logsDir must not be empty")
	}

	if s.Registry == "" {
		s.Registry = registry.DefaultRegistryURL
	}
	u, err := url.Parse(s.Registry)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("registry URL %q is not a valid absolute URL", s.Registry)
	}
	if !strings.HasSuffix(s.Registry, "/") {
		s.Registry += "/"
	}
	return nil
}
