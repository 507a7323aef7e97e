// Package config resolves reasoning-provider credentials from viper and the
// process environment.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/viper"

	"github.com/agentstation/conflictmap/pkg/errors"
)

// APIKey describes where a provider's API key comes from.
type APIKey struct {
	// Names are the environment/config keys checked in order.
	Names []string
	// Pattern optionally constrains the key's shape.
	Pattern  string
	Required bool
}

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// GetAPIKey returns the first configured value among key.Names. A missing
// required key is an AuthenticationError; a key that does not match
// key.Pattern is rejected the same way.
func GetAPIKey(provider string, key APIKey) (string, error) {
	var value string
	for _, name := range key.Names {
		if value = GetString(name); value != "" {
			break
		}
	}

	if value == "" {
		if key.Required && len(key.Names) > 0 {
			return "", errors.NewAuthenticationError(provider, "api_key",
				fmt.Sprintf("environment variable %s not set", key.Names[0]), errors.ErrAPIKeyRequired)
		}
		return "", nil
	}

	if key.Pattern != "" && key.Pattern != ".*" {
		matched, err := regexp.MatchString(key.Pattern, value)
		if err != nil {
			return "", fmt.Errorf("invalid pattern %s: %w", key.Pattern, err)
		}
		if !matched {
			return "", errors.NewAuthenticationError(provider, "api_key",
				"API key does not match the expected format", errors.ErrAPIKeyInvalid)
		}
	}
	return value, nil
}

// HasAPIKey reports whether any of key.Names is set, without validating it.
func HasAPIKey(key APIKey) bool {
	for _, name := range key.Names {
		if GetString(name) != "" {
			return true
		}
	}
	return false
}
