package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/conflictmap/internal/llm"
	"github.com/agentstation/conflictmap/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Reasoning backend defaults
	Provider string
	Model    string
	BaseURL  string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
	LogFile   string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (./.conflictmap.yaml or ~/.conflictmap.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	viper.SetEnvPrefix("CONFLICTMAP")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	bindAPIKeys()

	return loadConfig(viper.GetString("config_file"))
}

// loadConfig reads configFile, or searches the standard locations when it
// is empty, and builds a Config from viper.
func loadConfig(configFile string) (*Config, error) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".conflictmap")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no_color"),
		Format:  viper.GetString("format"),

		ConfigFile: viper.ConfigFileUsed(),

		Provider: viper.GetString("provider"),
		Model:    viper.GetString("model"),
		BaseURL:  viper.GetString("base_url"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", viper.GetString("log_level")),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
		LogFile:   viper.GetString("log_file"),
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// Flag values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel, logFile string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if logFile != "" {
		c.LogFile = logFile
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded after .env; godotenv never overrides a variable that
// is already set, so the process environment always wins.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// bindAPIKeys binds the API key variable of every reasoning provider to Viper
// so keys can also come from the config file.
func bindAPIKeys() {
	for _, p := range llm.Providers() {
		for _, key := range p.APIKey.Names {
			if err := viper.BindEnv(key, key); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to bind environment variable %s: %v\n", key, err)
			}
		}
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
