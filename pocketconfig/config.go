package pocketconfig

import (
	"strings"
	"time"

	"github.com/SyNdicateFoundation/pockethost/gateway"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. POCKETHOST_LOG_LEVEL.
const EnvPrefix = "POCKETHOST"

// RouteConfig selects which routing table entries are read.
type RouteConfig struct {
	Family int `mapstructure:"family" yaml:"family"`
	Flags  int `mapstructure:"flags" yaml:"flags"`
}

type WiFiConfig struct {
	// Interface used for association. Empty means the discovery interface.
	Interface string `mapstructure:"interface" yaml:"interface"`
	FlushDNS  bool   `mapstructure:"flush_dns" yaml:"flush_dns"`
}

type FileConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type LogConfig struct {
	Level  string     `mapstructure:"level" yaml:"level"`
	Format string     `mapstructure:"format" yaml:"format"`
	File   FileConfig `mapstructure:"file" yaml:"file"`
}

type MetricsConfig struct {
	// Textfile is where discovery metrics are written after each run.
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// Config holds everything the onboarding helper reads at startup.
type Config struct {
	Interface string        `mapstructure:"interface" yaml:"interface"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"-"`
	Namespace string        `mapstructure:"netns" yaml:"netns"`
	Route     RouteConfig   `mapstructure:"route" yaml:"route"`
	WiFi      WiFiConfig    `mapstructure:"wifi" yaml:"wifi"`
	Log       LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics   MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// New initializes a Config with defaults and applies opts.
func New(opts ...Option) (*Config, error) {
	cfg := defaults()

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Interface: gateway.DefaultInterface,
		Timeout:   gateway.DefaultTimeout,
		Route:     RouteConfig{Family: gateway.DefaultFilter.Family, Flags: gateway.DefaultFilter.Flags},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File: FileConfig{
				Path:       "pockethost.log",
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
		},
	}
}

// Load reads path (if not empty), applies POCKETHOST_* environment overrides and
// then opts, which take precedence over both.
func Load(path string, opts ...Option) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v, defaults())

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("interface", d.Interface)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("netns", d.Namespace)

	v.SetDefault("route.family", d.Route.Family)
	v.SetDefault("route.flags", d.Route.Flags)

	v.SetDefault("wifi.interface", d.WiFi.Interface)
	v.SetDefault("wifi.flush_dns", d.WiFi.FlushDNS)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file.enabled", d.Log.File.Enabled)
	v.SetDefault("log.file.path", d.Log.File.Path)
	v.SetDefault("log.file.max_size_mb", d.Log.File.MaxSizeMB)
	v.SetDefault("log.file.max_backups", d.Log.File.MaxBackups)
	v.SetDefault("log.file.max_age_days", d.Log.File.MaxAgeDays)
	v.SetDefault("log.file.compress", d.Log.File.Compress)

	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// Validate checks values that options and files cannot check on their own.
func (c *Config) Validate() error {
	if c.Interface == "" {
		return errors.New("interface cannot be empty")
	}
	if c.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Route.Family != gateway.AFInet {
		return errors.Errorf("route family %d is not supported", c.Route.Family)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Log.File.Enabled && c.Log.File.Path == "" {
		return errors.New("log file path cannot be empty when file output is enabled")
	}
	return nil
}

// WiFiInterface is the interface used for association.
func (c *Config) WiFiInterface() string {
	if c.WiFi.Interface != "" {
		return c.WiFi.Interface
	}
	return c.Interface
}

// Filter is the routing query filter.
func (c *Config) Filter() gateway.Filter {
	return gateway.Filter{Family: c.Route.Family, Flags: c.Route.Flags}
}

// MarshalYAML renders the timeout as a duration string so the output loads back.
func (c Config) MarshalYAML() (any, error) {
	type plain Config
	return struct {
		plain   `yaml:",inline"`
		Timeout string `yaml:"timeout"`
	}{plain(c), c.Timeout.String()}, nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
