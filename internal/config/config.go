// Package config resolves harness settings from defaults, a tsdcompat.yaml
// file, TSDCOMPAT_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the project directory.
const FileName = "tsdcompat"

// EnvPrefix prefixes environment overrides, e.g. TSDCOMPAT_NODE.
const EnvPrefix = "TSDCOMPAT"

// Config keys.
const (
	KeyProjectDir   = "project_dir"
	KeyDistDir      = "dist_dir"
	KeyResultsDir   = "results_dir"
	KeyTemplatesDir = "templates_dir"
	KeyNode         = "node"
	KeyTscScript    = "tsc_script"
	KeyMarker       = "marker"
	KeyMatrix       = "matrix"
	KeyHistoryDB    = "history_db"
	KeyVerbose      = "verbose"
	KeyNoColor      = "no_color"
)

// Keys lists every config key.
var Keys = []string{
	KeyProjectDir, KeyDistDir, KeyResultsDir, KeyTemplatesDir,
	KeyNode, KeyTscScript, KeyMarker, KeyMatrix, KeyHistoryDB,
	KeyVerbose, KeyNoColor,
}

// Config holds resolved settings. After Load every path is absolute,
// except Node which may be a bare name looked up in PATH.
type Config struct {
	ProjectDir   string `mapstructure:"project_dir" json:"project_dir"`
	DistDir      string `mapstructure:"dist_dir" json:"dist_dir"`
	ResultsDir   string `mapstructure:"results_dir" json:"results_dir"`
	TemplatesDir string `mapstructure:"templates_dir" json:"templates_dir,omitempty"`
	Node         string `mapstructure:"node" json:"node"`
	TscScript    string `mapstructure:"tsc_script" json:"tsc_script"`
	Marker       string `mapstructure:"marker" json:"marker"`
	Matrix       string `mapstructure:"matrix" json:"matrix,omitempty"`
	HistoryDB    string `mapstructure:"history_db" json:"history_db,omitempty"`
	Verbose      bool   `mapstructure:"verbose" json:"verbose"`
	NoColor      bool   `mapstructure:"no_color" json:"no_color"`
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees env values for keys viper already knows.
	for _, key := range Keys {
		v.SetDefault(key, "")
	}
	v.SetDefault(KeyNode, "node")
	v.SetDefault(KeyMarker, "Hello A!")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyNoColor, false)
	return v
}

// FlagName returns the command-line flag bound to key.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// BindFlags binds every flag of fs named after a config key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range Keys {
		f := fs.Lookup(FlagName(key))
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", f.Name, err)
		}
	}
	return nil
}

// Load reads the config file and resolves paths.
//
// An explicit configFile must exist. Otherwise tsdcompat.yaml is looked up
// in the project directory and is optional.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	projectDir, err := absDir(v.GetString(KeyProjectDir))
	if err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(projectDir)
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The file may move the project directory.
	if cfg.ProjectDir, err = absDir(cfg.ProjectDir); err != nil {
		return nil, err
	}
	cfg.resolve()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolve() {
	c.DistDir = c.path(c.DistDir, "dist")
	c.ResultsDir = c.path(c.ResultsDir, "results")
	c.TscScript = c.path(c.TscScript, filepath.Join("node_modules", "typescript", "bin", "tsc"))
	c.TemplatesDir = c.path(c.TemplatesDir, "")
	c.Matrix = c.path(c.Matrix, "")
	c.HistoryDB = c.path(c.HistoryDB, "")
}

// path resolves p against the project directory. An empty p becomes def,
// and an empty def leaves it unset.
func (c *Config) path(p, def string) string {
	if p == "" {
		if def == "" {
			return ""
		}
		p = def
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.ProjectDir, p)
}

// Validate checks settings that would make every case fail.
func (c *Config) Validate() error {
	if c.Node == "" {
		return errors.New("node must not be empty")
	}
	if strings.TrimSpace(c.Marker) == "" {
		return errors.New("marker must not be empty")
	}
	if c.DistDir == c.ResultsDir {
		return fmt.Errorf("dist_dir and results_dir must differ: %s", c.DistDir)
	}
	return nil
}

func absDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project directory: %w", err)
	}
	return abs, nil
}
