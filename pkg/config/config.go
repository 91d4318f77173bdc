// Package config loads classscan settings.
//
// Settings come from, in increasing precedence: built-in defaults, a
// .classscan.toml file (current directory first, then the user config
// directory), and CLASSSCAN_* environment variables. Command-line flags are
// applied on top by the CLI.
//
//	cfg, err := config.Load(".")
//	opts := cfg.ScanOptions()
//
// Nested keys map to environment variables with underscores:
// cache.backend is CLASSSCAN_CACHE_BACKEND. List values in the
// environment are comma separated.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/matzehuels/classscan/pkg/classpath"
	errs "github.com/matzehuels/classscan/pkg/errors"
	"github.com/matzehuels/classscan/pkg/scan"
)

const (
	// FileName is the config file looked up by Load.
	FileName = ".classscan.toml"

	// EnvPrefix prefixes environment overrides.
	EnvPrefix = "CLASSSCAN"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config holds every persistent setting.
type Config struct {
	Classpath          []string `mapstructure:"classpath" toml:"classpath"`
	Accept             []string `mapstructure:"accept" toml:"accept"`
	AcceptNonRecursive []string `mapstructure:"accept_nonrecursive" toml:"accept_nonrecursive"`
	Reject             []string `mapstructure:"reject" toml:"reject"`
	AcceptClasses      []string `mapstructure:"accept_classes" toml:"accept_classes"`
	RejectClasses      []string `mapstructure:"reject_classes" toml:"reject_classes"`

	Workers              int  `mapstructure:"workers" toml:"workers"`
	QueueSize            int  `mapstructure:"queue_size" toml:"queue_size"`
	ClassInfo            bool `mapstructure:"class_info" toml:"class_info"`
	Dependencies         bool `mapstructure:"dependencies" toml:"dependencies"`
	ConstantPoolDeps     bool `mapstructure:"constant_pool_deps" toml:"constant_pool_deps"`
	InvisibleAnnotations bool `mapstructure:"invisible_annotations" toml:"invisible_annotations"`
	StrictNames          bool `mapstructure:"strict_names" toml:"strict_names"`

	Cache CacheConfig `mapstructure:"cache" toml:"cache"`
	Serve ServeConfig `mapstructure:"serve" toml:"serve"`

	// File is the config file that was read, or "" when none was found.
	File string `mapstructure:"-" toml:"-"`
}

// CacheConfig selects and configures the snapshot cache.
type CacheConfig struct {
	Backend       string `mapstructure:"backend" toml:"backend"` // file, redis or none
	Dir           string `mapstructure:"dir" toml:"dir"`         // "" means the user cache directory
	RedisAddr     string `mapstructure:"redis_addr" toml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" toml:"redis_password,omitempty"`
	RedisDB       int    `mapstructure:"redis_db" toml:"redis_db"`
	TTL           string `mapstructure:"ttl" toml:"ttl"` // Go duration, e.g. "168h"
	// Prefix namespaces snapshot keys, for projects sharing one backend.
	Prefix string `mapstructure:"prefix" toml:"prefix,omitempty"`
}

// ServeConfig configures `classscan serve`.
type ServeConfig struct {
	Addr string `mapstructure:"addr" toml:"addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ClassInfo:    true,
		Dependencies: true,
		Cache: CacheConfig{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
			TTL:       "168h",
		},
		Serve: ServeConfig{Addr: "127.0.0.1:8080"},
	}
}

// Dir returns the per-user config directory ($XDG_CONFIG_HOME/classscan on
// Linux).
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "classscan"), nil
}

// Load reads FileName from dir, falling back to the user config directory,
// and applies environment overrides. A missing file is not an error.
func Load(dir string) (*Config, error) {
	v := newViper()
	v.SetConfigName(strings.TrimSuffix(FileName, ".toml"))
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	if userDir, err := Dir(); err == nil {
		v.AddConfigPath(userDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read config")
		}
	}
	return decode(v)
}

// LoadFile reads the config file at path and applies environment
// overrides. The file must exist.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()
	defaults := map[string]any{
		"classpath":             d.Classpath,
		"accept":                d.Accept,
		"accept_nonrecursive":   d.AcceptNonRecursive,
		"reject":                d.Reject,
		"accept_classes":        d.AcceptClasses,
		"reject_classes":        d.RejectClasses,
		"workers":               d.Workers,
		"queue_size":            d.QueueSize,
		"class_info":            d.ClassInfo,
		"dependencies":          d.Dependencies,
		"constant_pool_deps":    d.ConstantPoolDeps,
		"invisible_annotations": d.InvisibleAnnotations,
		"strict_names":          d.StrictNames,
		"cache.backend":         d.Cache.Backend,
		"cache.dir":             d.Cache.Dir,
		"cache.redis_addr":      d.Cache.RedisAddr,
		"cache.redis_password":  d.Cache.RedisPassword,
		"cache.redis_db":        d.Cache.RedisDB,
		"cache.ttl":             d.Cache.TTL,
		"cache.prefix":          d.Cache.Prefix,
		"serve.addr":            d.Serve.Addr,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "decode config")
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "workers must not be negative")
	}
	if c.QueueSize < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "queue_size must not be negative")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errs.New(errs.ErrCodeInvalidConfig,
			"invalid cache.backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if _, err := c.TTL(); err != nil {
		return err
	}
	if err := c.filter().Validate(); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid filter")
	}
	return nil
}

// TTL returns the parsed cache lifetime. An empty value means zero.
func (c *Config) TTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || d < 0 {
		return 0, errs.New(errs.ErrCodeInvalidConfig, "invalid cache.ttl %q", c.Cache.TTL)
	}
	return d, nil
}

func (c *Config) filter() classpath.Filter {
	return classpath.Filter{
		AcceptPackages:             c.Accept,
		AcceptPackagesNonRecursive: c.AcceptNonRecursive,
		RejectPackages:             c.Reject,
		AcceptClasses:              c.AcceptClasses,
		RejectClasses:              c.RejectClasses,
	}
}

// ScanOptions converts the settings into scan options.
func (c *Config) ScanOptions() scan.Options {
	return scan.Options{
		Classpath:                      c.Classpath,
		Filter:                         c.filter(),
		EnableClassInfo:                c.ClassInfo,
		EnableInterClassDependencies:   c.Dependencies,
		EnableConstantPoolDependencies: c.ConstantPoolDeps,
		IncludeInvisibleAnnotations:    c.InvisibleAnnotations,
		StrictNames:                    c.StrictNames,
		Workers:                        c.Workers,
		QueueSize:                      c.QueueSize,
	}
}

// Write encodes cfg as TOML to path, replacing any existing file.
func Write(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteDefault writes the default settings to path. It refuses to replace
// an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errs.New(errs.ErrCodeInvalidPath, "%s already exists", path)
		}
	}
	return Write(path, Default())
}
