// internal/common/config/config.go
package config

import (
	"fmt"
	"time"

	"alexa-smapi-connector/internal/common/errors"
)

// Transport modes for driving skill turns.
const (
	APISimulation = "simulation"
	APIInvocation = "invocation"
)

// Capabilities is the immutable configuration bag resolved once at build
// time. Keys match the persisted connector settings file.
type Capabilities struct {
	API            string `mapstructure:"ALEXA_SMAPI_API"`
	SkillID        string `mapstructure:"ALEXA_SMAPI_SKILLID"`
	Locale         string `mapstructure:"ALEXA_SMAPI_LOCALE"`
	BaseURL        string `mapstructure:"ALEXA_SMAPI_BASE_URL"`
	EndpointRegion string `mapstructure:"ALEXA_SMAPI_ENDPOINTREGION"`

	// Credentials: either a refresh token (exchanged at the LWA endpoint),
	// a ready-made access token, or a named local credential profile.
	ClientID     string `mapstructure:"ALEXA_SMAPI_CLIENTID"`
	ClientSecret string `mapstructure:"ALEXA_SMAPI_CLIENTSECRET"`
	RefreshToken string `mapstructure:"ALEXA_SMAPI_REFRESHTOKEN"`
	AccessToken  string `mapstructure:"ALEXA_SMAPI_ACCESSTOKEN"`
	AWSProfile   string `mapstructure:"ALEXA_SMAPI_AWSPROFILE"`
	VendorID     string `mapstructure:"ALEXA_SMAPI_VENDORID"`

	APITimeoutMs     int `mapstructure:"ALEXA_SMAPI_API_TIMEOUT"`
	SimulationPollMs int `mapstructure:"ALEXA_SMAPI_SIMULATION_POLL_INTERVAL"`

	AudioCapability      bool `mapstructure:"ALEXA_SMAPI_AUDIO_CAPABILITY"`
	DisplayCapability    bool `mapstructure:"ALEXA_SMAPI_DISPLAY_CAPABILITY"`
	RefreshUserID        bool `mapstructure:"ALEXA_SMAPI_REFRESH_USER_ID"`
	KeepAudioPlayerState bool `mapstructure:"ALEXA_SMAPI_KEEP_AUDIO_PLAYER_STATE"`

	// Plain-text-to-intent translation for the invocation transport.
	InvocationTextIntent string `mapstructure:"ALEXA_SMAPI_INVOCATION_TEXT_INTENT"`
	InvocationTextSlot   string `mapstructure:"ALEXA_SMAPI_INVOCATION_TEXT_SLOT"`

	// Optional override of the bundled invocation request template,
	// either inline JSON or a file path. Mutually exclusive.
	InvocationRequestTemplate     string `mapstructure:"ALEXA_SMAPI_INVOCATION_REQUEST_TEMPLATE"`
	InvocationRequestTemplateFile string `mapstructure:"ALEXA_SMAPI_INVOCATION_REQUEST_TEMPLATE_FILE"`

	Logging LoggingConfig `mapstructure:"LOGGING"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APITimeout returns the per-turn budget.
func (c *Capabilities) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutMs) * time.Millisecond
}

// SimulationPollInterval returns the delay between simulation status polls.
func (c *Capabilities) SimulationPollInterval() time.Duration {
	return time.Duration(c.SimulationPollMs) * time.Millisecond
}

// HasTokenCredentials reports whether token-based credentials were supplied
// (as opposed to a named local profile).
func (c *Capabilities) HasTokenCredentials() bool {
	return c.RefreshToken != "" || c.AccessToken != ""
}

// Validate checks the capability set exhaustively. It is called once before
// any network activity; failures are fatal ConfigErrors.
func (c *Capabilities) Validate() error {
	if c.API != APISimulation && c.API != APIInvocation {
		return errors.NewConfigError(fmt.Sprintf(
			"ALEXA_SMAPI_API capability invalid %q (allowed values: %q, %q)",
			c.API, APISimulation, APIInvocation))
	}
	if c.SkillID == "" {
		return errors.NewConfigError("ALEXA_SMAPI_SKILLID capability required")
	}
	if c.APITimeoutMs <= 0 {
		return errors.NewConfigError("ALEXA_SMAPI_API_TIMEOUT must be positive")
	}
	if c.SimulationPollMs <= 0 {
		return errors.NewConfigError("ALEXA_SMAPI_SIMULATION_POLL_INTERVAL must be positive")
	}
	if c.InvocationTextSlot != "" && c.InvocationTextIntent == "" {
		return errors.NewConfigError("ALEXA_SMAPI_INVOCATION_TEXT_SLOT requires ALEXA_SMAPI_INVOCATION_TEXT_INTENT")
	}
	if c.InvocationRequestTemplate != "" && c.InvocationRequestTemplateFile != "" {
		return errors.NewConfigError("inline invocation request template and template file are mutually exclusive")
	}
	return nil
}
