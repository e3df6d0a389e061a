// Package config holds the settings shared by the hackvm commands. Values
// come from defaults, then an optional TOML or YAML file, then command-line
// flags that were set explicitly.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Bootstrap modes.
const (
	BootstrapAuto   = "auto"
	BootstrapAlways = "always"
	BootstrapNever  = "never"
)

const DefaultCycles = 1_000_000

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	// Bootstrap controls the SP=256 / call Sys.init prologue. auto enables
	// it when the sources include Sys.vm.
	Bootstrap string `toml:"bootstrap" yaml:"bootstrap"`
	// Annotate writes a comment before each translated VM command.
	Annotate bool `toml:"annotate" yaml:"annotate"`
	// OutDir, when set, receives generated files instead of the source
	// directory.
	OutDir   string `toml:"out_dir" yaml:"out_dir"`
	LogLevel string `toml:"log_level" yaml:"log_level"`
	// Cycles bounds emulator runs.
	Cycles int `toml:"cycles" yaml:"cycles"`
}

func Default() *Config {
	return &Config{
		Bootstrap: BootstrapAuto,
		LogLevel:  logrus.WarnLevel.String(),
		Cycles:    DefaultCycles,
	}
}

// Load reads path over the defaults. The format follows the extension:
// .toml, or .yaml/.yml.
func Load(path string) (*Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return nil, errors.Wrapf(err, "decoding %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, errors.Wrapf(err, "decoding %s", path)
		}
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "%s: unsupported config format %q", path, ext)
	}
	logrus.Debugf("config: loaded %s", path)
	return c, c.Validate()
}

// AddFlags binds the settings to fs, using the current values as defaults.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Bootstrap, "bootstrap", c.Bootstrap, "emit bootstrap code: auto, always or never")
	fs.BoolVar(&c.Annotate, "annotate", c.Annotate, "annotate generated assembly with the VM commands")
	fs.StringVar(&c.OutDir, "out-dir", c.OutDir, "directory for generated files (default: next to the sources)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: trace, debug, info, warn, error")
	fs.IntVar(&c.Cycles, "cycles", c.Cycles, "maximum emulator cycles for run")
}

// Override copies into c every flag in fs that was set on the command line.
// flags is the Config the set was bound to with AddFlags.
func (c *Config) Override(fs *pflag.FlagSet, flags *Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "bootstrap":
			c.Bootstrap = flags.Bootstrap
		case "annotate":
			c.Annotate = flags.Annotate
		case "out-dir":
			c.OutDir = flags.OutDir
		case "log-level":
			c.LogLevel = flags.LogLevel
		case "cycles":
			c.Cycles = flags.Cycles
		}
	})
}

func (c *Config) Validate() error {
	switch c.Bootstrap {
	case BootstrapAuto, BootstrapAlways, BootstrapNever:
	default:
		return errors.Wrapf(ErrInvalidConfig, "bootstrap mode %q", c.Bootstrap)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "log level %q", c.LogLevel)
	}
	if c.Cycles <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "cycles must be positive, got %d", c.Cycles)
	}
	return nil
}

// UseBootstrap resolves the bootstrap mode for a program; hasSysInit tells
// whether its sources include Sys.vm.
func (c *Config) UseBootstrap(hasSysInit bool) bool {
	switch c.Bootstrap {
	case BootstrapAlways:
		return true
	case BootstrapNever:
		return false
	}
	return hasSysInit
}
