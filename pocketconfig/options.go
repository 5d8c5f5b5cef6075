package pocketconfig

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Option configures a Config.
type Option func(*Config) error

// WithInterface sets the interface whose gateway is discovered.
func WithInterface(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return errors.New("interface cannot be empty")
		}
		c.Interface = name
		return nil
	}
}

// WithTimeout sets the discovery deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return errors.Errorf("timeout must be positive, got %s", timeout)
		}
		c.Timeout = timeout
		return nil
	}
}

// WithNamespace runs discovery inside a named network namespace.
func WithNamespace(name string) Option {
	return func(c *Config) error {
		c.Namespace = name
		return nil
	}
}

func WithWiFiInterface(name string) Option {
	return func(c *Config) error {
		c.WiFi.Interface = name
		return nil
	}
}

// WithFlushDNS flushes the resolver cache after joining a network.
func WithFlushDNS(flush bool) Option {
	return func(c *Config) error {
		c.WiFi.FlushDNS = flush
		return nil
	}
}

func WithLogLevel(level string) Option {
	return func(c *Config) error {
		if _, err := logrus.ParseLevel(level); err != nil {
			return err
		}
		c.Log.Level = level
		return nil
	}
}

func WithLogFormat(format string) Option {
	return func(c *Config) error {
		if format != "text" && format != "json" {
			return errors.Errorf("unknown log format %q", format)
		}
		c.Log.Format = format
		return nil
	}
}

// WithLogFile enables rotated file output at path.
func WithLogFile(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return errors.New("log file path cannot be empty")
		}
		c.Log.File.Enabled = true
		c.Log.File.Path = path
		return nil
	}
}

// WithMetricsTextfile writes discovery metrics to path in the Prometheus text format.
func WithMetricsTextfile(path string) Option {
	return func(c *Config) error {
		c.Metrics.Textfile = path
		return nil
	}
}
