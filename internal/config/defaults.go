// Package config provides configuration loading and defaults for koalaviz.
package config

// DefaultConfigDir is the default location for koalaviz configuration.
const DefaultConfigDir = "~/.config/koalaviz"

// DefaultDBName is the filename for the snapshot history database.
const DefaultDBName = "koalaviz.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. KOALAVIZ_DATA_PATH.
const EnvPrefix = "KOALAVIZ"

// DefaultViews holds the initial view parameters.
var DefaultViews = Views{
	Top:        10,
	Normalize:  true,
	Ascending:  false,
	Kind:       "shortcut",
	Scale:      "seconds",
	FilterMode: "exclude",
}

// DefaultCache holds the default memo cache settings.
var DefaultCache = Cache{
	MaxEntries: 256,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 0,
}

// DefaultHistory holds the default snapshot history settings.
var DefaultHistory = History{
	Enabled: true,
}
