// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultConfigFile is the persisted connector settings file written by the
// setup wizard and read by the CLI commands.
const DefaultConfigFile = "alexa-smapi.json"

// Load reads the capability set from the given config file (JSON), with
// environment variable overrides. An empty path falls back to
// DefaultConfigFile in the working directory; a missing file is not an
// error, the environment alone may carry the full configuration.
func Load(path string) (*Capabilities, error) {
	loadEnvFile()

	v := viper.New()
	applyDefaults(v)
	bindEnvKeys(v)

	if path == "" {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	var caps Capabilities
	if err := v.Unmarshal(&caps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := caps.Validate(); err != nil {
		return nil, err
	}

	return &caps, nil
}

// FromMap builds a validated capability set from an in-memory key/value
// map, applying the same defaults as Load. Unknown keys are ignored.
func FromMap(values map[string]interface{}) (*Capabilities, error) {
	v := viper.New()
	applyDefaults(v)
	for key, value := range values {
		v.Set(key, value)
	}

	var caps Capabilities
	if err := v.Unmarshal(&caps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal capabilities: %w", err)
	}

	if err := caps.Validate(); err != nil {
		return nil, err
	}

	return &caps, nil
}

// capabilityKeys lists every supported capability so environment variables
// of the same name override file values even without a default.
var capabilityKeys = []string{
	"ALEXA_SMAPI_API",
	"ALEXA_SMAPI_SKILLID",
	"ALEXA_SMAPI_LOCALE",
	"ALEXA_SMAPI_BASE_URL",
	"ALEXA_SMAPI_ENDPOINTREGION",
	"ALEXA_SMAPI_CLIENTID",
	"ALEXA_SMAPI_CLIENTSECRET",
	"ALEXA_SMAPI_REFRESHTOKEN",
	"ALEXA_SMAPI_ACCESSTOKEN",
	"ALEXA_SMAPI_AWSPROFILE",
	"ALEXA_SMAPI_VENDORID",
	"ALEXA_SMAPI_API_TIMEOUT",
	"ALEXA_SMAPI_SIMULATION_POLL_INTERVAL",
	"ALEXA_SMAPI_AUDIO_CAPABILITY",
	"ALEXA_SMAPI_DISPLAY_CAPABILITY",
	"ALEXA_SMAPI_REFRESH_USER_ID",
	"ALEXA_SMAPI_KEEP_AUDIO_PLAYER_STATE",
	"ALEXA_SMAPI_INVOCATION_TEXT_INTENT",
	"ALEXA_SMAPI_INVOCATION_TEXT_SLOT",
	"ALEXA_SMAPI_INVOCATION_REQUEST_TEMPLATE",
	"ALEXA_SMAPI_INVOCATION_REQUEST_TEMPLATE_FILE",
}

func bindEnvKeys(v *viper.Viper) {
	for _, key := range capabilityKeys {
		_ = v.BindEnv(key)
	}
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("ALEXA_SMAPI_API", APISimulation)
	v.SetDefault("ALEXA_SMAPI_LOCALE", "en-US")
	v.SetDefault("ALEXA_SMAPI_BASE_URL", "https://api.amazonalexa.com")
	v.SetDefault("ALEXA_SMAPI_ENDPOINTREGION", "default")
	v.SetDefault("ALEXA_SMAPI_AWSPROFILE", "default")
	v.SetDefault("ALEXA_SMAPI_API_TIMEOUT", 10000)
	v.SetDefault("ALEXA_SMAPI_SIMULATION_POLL_INTERVAL", 2000)
	v.SetDefault("LOGGING.level", "info")
	v.SetDefault("LOGGING.format", "console")
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
