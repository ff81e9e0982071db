package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Nav     NavConfig     `yaml:"nav"`
	History HistoryConfig `yaml:"history"`
	Watch   WatchConfig   `yaml:"watch"`
	Events  EventsConfig  `yaml:"events"`
}

// SiteConfig locates the built documentation tree.
type SiteConfig struct {
	Root string `yaml:"root"` // root of the docs tree the external build produced
}

// NavConfig controls the navigation document itself.
type NavConfig struct {
	AnnotatedPath string `yaml:"annotated_path,omitempty"` // virtual path of the annotated index
	OutputPath    string `yaml:"output_path,omitempty"`    // virtual path of the generated document
	Header        string `yaml:"header,omitempty"`         // fixed first line
}

// HistoryConfig controls run-history persistence.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // sqlite database path
}

// WatchConfig controls watch mode. Durations are Go duration strings
// ("2s", "5m"); empty interval disables periodic rebuilds.
type WatchConfig struct {
	Debounce    string `yaml:"debounce,omitempty"`     // quiet window after a filesystem event
	Interval    string `yaml:"interval,omitempty"`     // optional periodic rebuild
	MetricsAddr string `yaml:"metrics_addr,omitempty"` // optional Prometheus listen address
}

// DebounceDuration parses the debounce window, falling back to the default on
// malformed values.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// IntervalDuration parses the periodic rebuild interval; zero disables it.
func (w WatchConfig) IntervalDuration() (time.Duration, error) {
	if w.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(w.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid watch interval %q: %w", w.Interval, err)
	}
	return d, nil
}

// EventsConfig controls optional NATS event publishing.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// Default returns a configuration with all defaults applied, for running
// without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Site.Root == "" {
		c.Site.Root = "."
	}
	if c.Nav.AnnotatedPath == "" {
		c.Nav.AnnotatedPath = "ecss/annotated.md"
	}
	if c.Nav.OutputPath == "" {
		c.Nav.OutputPath = "ecss/SUMMARY.md"
	}
	if c.Nav.Header == "" {
		c.Nav.Header = "* [API Reference](annotated.md)"
	}
	if c.History.Enabled && c.History.Path == "" {
		c.History.Path = "navbuilder.db"
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = "2s"
	}
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Site: SiteConfig{Root: "./site"},
		Nav: NavConfig{
			AnnotatedPath: "ecss/annotated.md",
			OutputPath:    "ecss/SUMMARY.md",
			Header:        "* [API Reference](annotated.md)",
		},
		History: HistoryConfig{Enabled: true, Path: "navbuilder.db"},
		Watch:   WatchConfig{Debounce: "2s"},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// #nosec G306 -- example configuration holds no secrets
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// loadEnvFile loads environment variables from .env/.env.local files.
// It attempts each supported filename in order and stops at the first
// successfully parsed file. Existing process variables win.
func loadEnvFile() error {
	envPaths := []string{".env", ".env.local"}
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
			return nil
		}
	}
	return fmt.Errorf("no .env file found")
}
