package config

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}

// Provider defines read access to the loaded station configuration. All
// values are immutable after loading.
type Provider interface {
	// GetInterval returns the update interval in seconds
	GetInterval() int

	// GetLogLevel returns the configured logging level
	GetLogLevel() string

	// IsTelemetryEnabled returns whether readings persistence is enabled
	IsTelemetryEnabled() bool

	// GetDatabasePath returns the path to the readings database
	GetDatabasePath() string

	// GetSamplesPerReading returns how many measurements are averaged into
	// one reported reading
	GetSamplesPerReading() int
}

func (c *Config) GetInterval() int          { return c.Interval }
func (c *Config) GetLogLevel() string       { return c.LogLevel }
func (c *Config) IsTelemetryEnabled() bool  { return c.Telemetry }
func (c *Config) GetDatabasePath() string   { return c.Database }
func (c *Config) GetSamplesPerReading() int { return c.SamplesPerRead }
