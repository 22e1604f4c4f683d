package cli

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/toyz/axon-aot/internal/errors"
)

const (
	// ConfigName is the base name of the optional config file
	ConfigName = "axon-aot"
	// EnvPrefix prefixes environment overrides, e.g. AXON_AOT_BATCH_SIZE
	EnvPrefix = "AXON_AOT"
)

// Config holds the configuration of one compile run
type Config struct {
	// Snapshot is the container snapshot file to compile
	Snapshot string `mapstructure:"snapshot"`

	// OutputDir receives the main generated package and the manifest
	OutputDir string `mapstructure:"output"`

	// Package is the import path of OutputDir. Derived from go.mod when empty.
	Package string `mapstructure:"package"`

	// ModuleName overrides the module path read from go.mod
	ModuleName string `mapstructure:"module"`

	BatchSize    int      `mapstructure:"batch_size"`
	FailFast     bool     `mapstructure:"fail_fast"`
	Parallelism  int      `mapstructure:"parallelism"`
	Exclude      []string `mapstructure:"exclude"`
	ExcludeTypes []string `mapstructure:"exclude_types"`
	Disable      []string `mapstructure:"disable"`
	Manifest     bool     `mapstructure:"manifest"`

	// Verbose enables detailed logging and error reporting
	Verbose bool `mapstructure:"verbose"`
	Quiet   bool `mapstructure:"quiet"`
}

// flagKeys maps command line flags onto config keys
var flagKeys = map[string]string{
	"out":           "output",
	"package":       "package",
	"module":        "module",
	"batch-size":    "batch_size",
	"fail-fast":     "fail_fast",
	"parallelism":   "parallelism",
	"exclude":       "exclude",
	"exclude-types": "exclude_types",
	"disable":       "disable",
	"manifest":      "manifest",
	"verbose":       "verbose",
	"quiet":         "quiet",
}

// AddFlags defines the compile flags on fs. Their names are the keys of
// flagKeys.
func AddFlags(fs *pflag.FlagSet) {
	fs.StringP("out", "o", ".", "Directory of the generated package")
	fs.String("package", "", "Import path of the generated package (default: derived from go.mod)")
	fs.String("module", "", "Module path replacing the one in go.mod")
	fs.Int("batch-size", 1000, "Registrations per generated function")
	fs.Bool("fail-fast", false, "Stop at the first component that cannot be compiled")
	fs.Int("parallelism", 0, "Concurrent manifest contributors (0 selects the default)")
	fs.StringSlice("exclude", nil, "Component names to skip")
	fs.StringSlice("exclude-types", nil, "Component types to skip")
	fs.StringSlice("disable", nil, "Manifest contributors or graph emitters to disable")
	fs.Bool("manifest", true, "Write the capability manifest")
}

// LoadConfig reads axon-aot.yaml from the working directory, or configFile
// when set, then applies AXON_AOT_* environment variables and any flags the
// user changed. A missing default config file is not an error.
func LoadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("snapshot", "")
	v.SetDefault("output", ".")
	v.SetDefault("package", "")
	v.SetDefault("module", "")
	v.SetDefault("batch_size", 1000)
	v.SetDefault("fail_fast", false)
	v.SetDefault("parallelism", 0)
	v.SetDefault("exclude", []string{})
	v.SetDefault("exclude_types", []string{})
	v.SetDefault("disable", []string{})
	v.SetDefault("manifest", true)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !stderrors.As(err, &notFound) {
			return nil, errors.WrapConfigurationError(ConfigName, "read", err)
		}
	}

	if flags != nil {
		for flag, key := range flagKeys {
			f := flags.Lookup(flag)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.WrapConfigurationError(ConfigName, "bind", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfigurationError(ConfigName, "decode", err)
	}
	return &config, nil
}

// Validate checks the configuration for a compile run
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Snapshot) == "":
		return errors.NewValidationError("snapshot", "a container snapshot file is required")
	case strings.TrimSpace(c.OutputDir) == "":
		return errors.NewValidationError("output", "output directory cannot be empty")
	case c.BatchSize < 0:
		return errors.NewValidationError("batch_size", fmt.Sprintf("must not be negative, got %d", c.BatchSize))
	case c.Parallelism < 0:
		return errors.NewValidationError("parallelism", fmt.Sprintf("must not be negative, got %d", c.Parallelism))
	case c.Verbose && c.Quiet:
		return errors.NewValidationError("verbose", "verbose and quiet cannot both be set")
	}
	return nil
}
