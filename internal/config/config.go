package config

import (
	"time"

	"github.com/pipebus/pipebus/pkg/types"
	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for pipebus
type Config struct {
	Pipe    PipeConfig    `json:"pipe" yaml:"pipe"`
	Client  ClientConfig  `json:"client" yaml:"client"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// PipeConfig contains worker-side pipe configuration
type PipeConfig struct {
	Root           string        `json:"root" yaml:"root"`                         // directory under which relative pipe names resolve
	ReadBufferSize int           `json:"read_buffer_size" yaml:"read_buffer_size"` // max bytes per read batch
	Interval       time.Duration `json:"interval" yaml:"interval"`                 // sleep between polling ticks
	HistorySize    int           `json:"history_size" yaml:"history_size"`         // dispatched-message history bound, 0 disables
}

// ClientConfig contains writer-side pipe configuration
type ClientConfig struct {
	Root              string        `json:"root" yaml:"root"`
	Retries           int           `json:"retries" yaml:"retries"`
	RetryInterval     time.Duration `json:"retry_interval" yaml:"retry_interval"`
	GuaranteeDelivery bool          `json:"guarantee_delivery" yaml:"guarantee_delivery"`
}

// UnmarshalYAML decodes a PipeConfig, accepting durations in the usual
// "100ms" form
func (c *PipeConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Root           string `yaml:"root"`
		ReadBufferSize int    `yaml:"read_buffer_size"`
		Interval       string `yaml:"interval"`
		HistorySize    int    `yaml:"history_size"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.Root = raw.Root
	c.ReadBufferSize = raw.ReadBufferSize
	c.HistorySize = raw.HistorySize
	if raw.Interval != "" {
		d, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return types.WrapError(types.ErrCodeInvalidArgument, "invalid pipe interval: "+raw.Interval, err)
		}
		c.Interval = d
	}
	return nil
}

// UnmarshalYAML decodes a ClientConfig, accepting durations in the usual
// "100ms" form
func (c *ClientConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Root              string `yaml:"root"`
		Retries           int    `yaml:"retries"`
		RetryInterval     string `yaml:"retry_interval"`
		GuaranteeDelivery bool   `yaml:"guarantee_delivery"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.Root = raw.Root
	c.Retries = raw.Retries
	c.GuaranteeDelivery = raw.GuaranteeDelivery
	if raw.RetryInterval != "" {
		d, err := time.ParseDuration(raw.RetryInterval)
		if err != nil {
			return types.WrapError(types.ErrCodeInvalidArgument, "invalid client retry interval: "+raw.RetryInterval, err)
		}
		c.RetryInterval = d
	}
	return nil
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
	Output string `json:"output" yaml:"output"` // stdout, stderr, file path
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if err := c.Pipe.Validate(); err != nil {
		return err
	}
	if err := c.Client.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// Validate checks the pipe configuration
func (c *PipeConfig) Validate() error {
	if c.Root == "" {
		return types.NewError(types.ErrCodeInvalidArgument, "pipe root cannot be empty")
	}
	if c.ReadBufferSize <= 0 {
		return types.NewError(types.ErrCodeInvalidArgument, "pipe read buffer size must be positive")
	}
	if c.Interval <= 0 {
		return types.NewError(types.ErrCodeInvalidArgument, "pipe poll interval must be positive")
	}
	if c.HistorySize < 0 {
		return types.NewError(types.ErrCodeInvalidArgument, "pipe history size cannot be negative")
	}
	return nil
}

// Validate checks the client configuration
func (c *ClientConfig) Validate() error {
	if c.Root == "" {
		return types.NewError(types.ErrCodeInvalidArgument, "client root cannot be empty")
	}
	if c.Retries < 0 {
		return types.NewError(types.ErrCodeInvalidArgument, "client retries cannot be negative")
	}
	if c.RetryInterval <= 0 {
		return types.NewError(types.ErrCodeInvalidArgument, "client retry interval must be positive")
	}
	return nil
}

// Validate checks the logging configuration
func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return types.NewError(types.ErrCodeInvalidArgument, "log level must be one of debug, info, warn, error")
	}
	switch c.Format {
	case "", "json", "text":
	default:
		return types.NewError(types.ErrCodeInvalidArgument, "log format must be json or text")
	}
	return nil
}
