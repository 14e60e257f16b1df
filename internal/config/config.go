package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. STAN_WORKERS.
const EnvPrefix = "STAN"

// Config holds the application settings shared by the CLI and the API server.
type Config struct {
	// CategoriesFile is a JSON or YAML category configuration. The embedded
	// default is used when empty.
	CategoriesFile string `mapstructure:"categories_file"`
	// TextOutputDir receives the extracted text of every parsed file.
	TextOutputDir string `mapstructure:"text_output_dir"`
	Workers       int    `mapstructure:"workers"`
	ListenAddr    string `mapstructure:"listen_addr"`
	LogLevel      string `mapstructure:"log_level"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Workers:    runtime.NumCPU(),
		ListenAddr: ":8080",
		LogLevel:   "info",
	}
}

// Load reads the settings from the optional YAML file at path and the
// environment. Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("categories_file", def.CategoriesFile)
	v.SetDefault("text_output_dir", def.TextOutputDir)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings for values the commands cannot work with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	return nil
}
