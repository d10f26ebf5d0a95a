package config

import "time"

const (
	// Environment variable names
	EnvPipeRoot      = "PIPEBUS_ROOT"
	EnvPollInterval  = "PIPEBUS_INTERVAL"
	EnvWriteRetries  = "PIPEBUS_RETRIES"
	EnvRetryInterval = "PIPEBUS_RETRY_INTERVAL"
	EnvLogLevel      = "LOG_LEVEL"
	EnvLogFormat     = "LOG_FORMAT"
)

const (
	// Default pipe settings
	DefaultPipeRoot       = "/tmp"
	DefaultReadBufferSize = 9999
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultHistorySize    = 100

	// Default client settings
	DefaultWriteRetries  = 3
	DefaultRetryInterval = 100 * time.Millisecond

	// Default logging settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultLogOutput = "stderr"
)

// DefaultPipeConfig returns the default pipe configuration
func DefaultPipeConfig() PipeConfig {
	return PipeConfig{
		Root:           DefaultPipeRoot,
		ReadBufferSize: DefaultReadBufferSize,
		Interval:       DefaultPollInterval,
		HistorySize:    DefaultHistorySize,
	}
}

// DefaultClientConfig returns the default client configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Root:              DefaultPipeRoot,
		Retries:           DefaultWriteRetries,
		RetryInterval:     DefaultRetryInterval,
		GuaranteeDelivery: false,
	}
}

// DefaultLoggingConfig returns the default logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  DefaultLogLevel,
		Format: DefaultLogFormat,
		Output: DefaultLogOutput,
	}
}

// DefaultConfig returns the complete default configuration
func DefaultConfig() *Config {
	return &Config{
		Pipe:    DefaultPipeConfig(),
		Client:  DefaultClientConfig(),
		Logging: DefaultLoggingConfig(),
	}
}

// applyDefaults fills zero-valued fields with defaults
func applyDefaults(cfg *Config) {
	if cfg.Pipe.Root == "" {
		cfg.Pipe.Root = DefaultPipeRoot
	}
	if cfg.Pipe.ReadBufferSize == 0 {
		cfg.Pipe.ReadBufferSize = DefaultReadBufferSize
	}
	if cfg.Pipe.Interval == 0 {
		cfg.Pipe.Interval = DefaultPollInterval
	}
	// HistorySize is left alone: an omitted value means history disabled
	if cfg.Client.Root == "" {
		cfg.Client.Root = DefaultPipeRoot
	}
	if cfg.Client.Retries == 0 {
		cfg.Client.Retries = DefaultWriteRetries
	}
	if cfg.Client.RetryInterval == 0 {
		cfg.Client.RetryInterval = DefaultRetryInterval
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = DefaultLogOutput
	}
}
