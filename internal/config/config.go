package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level koalaviz configuration.
type Config struct {
	// DataPath is the dataset opened when no --data flag is given: a
	// directory, a zip archive or an s3:// URI.
	DataPath string  `mapstructure:"data_path"`
	Views    Views   `mapstructure:"views"`
	Cache    Cache   `mapstructure:"cache"`
	S3       S3      `mapstructure:"s3"`
	Output   Output  `mapstructure:"output"`
	History  History `mapstructure:"history"`
}

// Views defines the initial view parameters.
type Views struct {
	Top        int    `mapstructure:"top"`
	Normalize  bool   `mapstructure:"normalize"`
	Ascending  bool   `mapstructure:"ascending"`
	Kind       string `mapstructure:"kind"`
	Scale      string `mapstructure:"scale"`
	FilterMode string `mapstructure:"filter_mode"`
}

// Cache defines the memo cache size.
type Cache struct {
	MaxEntries int `mapstructure:"max_entries"`
}

// S3 defines how s3:// data sources are fetched.
type S3 struct {
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

// Output defines output preferences. A zero Width uses the terminal width.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// History defines snapshot history preferences.
type History struct {
	Enabled bool `mapstructure:"enabled"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. Environment variables
// prefixed with KOALAVIZ_ override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	// Set defaults.
	v.SetDefault("data_path", "")
	v.SetDefault("views.top", DefaultViews.Top)
	v.SetDefault("views.normalize", DefaultViews.Normalize)
	v.SetDefault("views.ascending", DefaultViews.Ascending)
	v.SetDefault("views.kind", DefaultViews.Kind)
	v.SetDefault("views.scale", DefaultViews.Scale)
	v.SetDefault("views.filter_mode", DefaultViews.FilterMode)
	v.SetDefault("cache.max_entries", DefaultCache.MaxEntries)
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)
	v.SetDefault("history.enabled", DefaultHistory.Enabled)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if !strings.HasPrefix(cfg.DataPath, "s3://") {
		cfg.DataPath = expandPath(cfg.DataPath)
	}

	return &cfg, nil
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(ConfigDir(), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
