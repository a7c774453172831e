package config

import (
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/varden/envsensord/internal/errors"
)

const (
	DefaultInterval  = 300
	DefaultLogLevel  = "info"
	DefaultToAverage = 1

	configName = "envsensord"
	configType = "toml"
	envConfig  = "ENVSENSORD_CONFIG"
)

// Config is the station configuration: the update cadence, persistence and
// the attached instruments. Immutable after Load.
type Config struct {
	Interval       int    `mapstructure:"interval"`
	LogLevel       string `mapstructure:"log_level"`
	Telemetry      bool   `mapstructure:"telemetry"`
	Database       string `mapstructure:"database"`
	SamplesPerRead int    `mapstructure:"samples_per_reading"`

	Processor  ProcessorConfig  `mapstructure:"processor"`
	Yosemitech YosemitechConfig `mapstructure:"yosemitech"`
	BME280     BME280Config     `mapstructure:"bme280"`
}

// ProcessorConfig configures the controller diagnostics pseudo-sensor.
type ProcessorConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BatteryPath string `mapstructure:"battery_path"`
}

// YosemitechConfig configures a Yosemitech probe on a serial line.
type YosemitechConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
	Port    string `mapstructure:"port"`
	Baud    int    `mapstructure:"baud"`
	Address int    `mapstructure:"address"`
}

// BME280Config configures a Bosch BME280 on an I2C bus.
type BME280Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Bus     string `mapstructure:"bus"`
	Address int    `mapstructure:"address"`
}

// Load reads configuration from file, environment and flags, in increasing
// order of precedence. The config file is envsensord.toml in /etc (or the
// path in ENVSENSORD_CONFIG); a missing file falls back to defaults.
func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("samples_per_reading", DefaultToAverage)
	v.SetDefault("yosemitech.baud", 9600)
	v.SetDefault("yosemitech.model", "Y511")

	flags := pflag.NewFlagSet("envsensord", pflag.ContinueOnError)
	// Tolerate foreign flags so Load works under `go test`
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Int("interval", DefaultInterval, "Seconds between update rounds")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.Bool("telemetry", false, "Persist readings to the database")
	flags.String("database", "", "Path to the readings database")
	flags.Int("samples-per-reading", DefaultToAverage, "Measurements averaged into one reading")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	if path := os.Getenv(envConfig); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Flags set on the command line override file values
	flags.Visit(func(f *pflag.Flag) {
		key := f.Name
		if key == "log-level" {
			key = "log_level"
		}
		if key == "samples-per-reading" {
			key = "samples_per_reading"
		}
		v.Set(key, f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks field ranges and cross-field requirements.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.SamplesPerRead < 1 {
		return errFactory.WithData(errors.ErrInvalidConfig, c.SamplesPerRead)
	}
	if c.Telemetry && c.Database == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "telemetry enabled without database path")
	}
	if c.Yosemitech.Enabled {
		if c.Yosemitech.Port == "" {
			return errFactory.WithMessage(errors.ErrMissingConfig, "yosemitech enabled without serial port")
		}
		switch c.Yosemitech.Model {
		case "Y511", "Y514", "Y520":
		default:
			return errFactory.WithData(errors.ErrInvalidConfig, c.Yosemitech.Model)
		}
	}

	return nil
}
