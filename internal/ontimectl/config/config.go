// Package config provides configuration management for the ontimectl CLI
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the CLI configuration
type Config struct {
	// CurrentContext is the name of the active context
	CurrentContext string `mapstructure:"current-context" yaml:"current-context" json:"current-context"`
	// Contexts holds the available server contexts
	Contexts map[string]*Context `mapstructure:"contexts" yaml:"contexts" json:"contexts"`
}

// Context represents a server configuration context
type Context struct {
	// Name is the context identifier
	Name string `mapstructure:"name" yaml:"name" json:"name"`
	// Server is the timer server base URL
	Server string `mapstructure:"server" yaml:"server" json:"server"`
	// InsecureSkipVerify disables TLS verification
	InsecureSkipVerify bool `mapstructure:"insecure-skip-verify" yaml:"insecure-skip-verify" json:"insecure-skip-verify"`
}

// defaultConfigPath returns the default config file path
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ontimectl/config.yaml"
	}
	return filepath.Join(home, ".ontimectl/config.yaml")
}

// LoadConfig loads the configuration from disk. An explicit path wins over
// the ONTIMECTL_CONFIG environment variable, which wins over the default
// location. A missing file is created with defaults rather than treated as
// an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("ONTIMECTL_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath()
	}

	viper.SetDefault("current-context", "")
	viper.SetDefault("contexts", map[string]*Context{})

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("error creating config directory: %w", err)
			}
			if err := viper.SafeWriteConfig(); err != nil {
				return nil, fmt.Errorf("error writing default config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return &config, nil
}

// SaveConfig writes the configuration to disk
func SaveConfig(config *Config) error {
	viper.Set("current-context", config.CurrentContext)
	viper.Set("contexts", config.Contexts)

	if err := viper.WriteConfig(); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}

	return nil
}

// GetCurrentContext returns the active context configuration
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}

	ctx, ok := c.Contexts[c.CurrentContext]
	if !ok {
		return nil, fmt.Errorf("current context %q not found", c.CurrentContext)
	}

	return ctx, nil
}

// AddContext adds or updates a context in the configuration
func (c *Config) AddContext(name string, context *Context) {
	if c.Contexts == nil {
		c.Contexts = make(map[string]*Context)
	}
	context.Name = name
	c.Contexts[name] = context
}

// SetCurrentContext sets the active context
func (c *Config) SetCurrentContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return nil
}

// RemoveContext removes a context from the configuration
func (c *Config) RemoveContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)

	// If we removed the current context, clear it
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}

	return nil
}
