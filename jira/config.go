package jira

import (
	"encoding/base64"
	"time"
)

// AuthType selects the authentication method.
type AuthType string

// Authentication methods supported by Jira deployments.
const (
	AuthAPIToken AuthType = "api_token" // Cloud: email + API token
	AuthOAuth2   AuthType = "oauth2"    // Cloud: OAuth 2.0 access token
	AuthBasic    AuthType = "basic"     // Server: username + password
	AuthPAT      AuthType = "pat"       // Server/DC: personal access token
)

// APIVersion selects the REST API version. Cloud speaks v3, Server and
// Data Center speak v2.
type APIVersion string

// API versions accepted in configuration.
const (
	APIVersionAuto APIVersion = "auto"
	APIVersionV2   APIVersion = "v2"
	APIVersionV3   APIVersion = "v3"
)

// Config holds the connection settings for a Jira instance.
type Config struct {
	// URL is the base URL, e.g. https://your-domain.atlassian.net.
	URL string `yaml:"url"`

	// APIVersion is v2, v3, or auto. Auto defaults to v3.
	APIVersion APIVersion `yaml:"api_version"`

	Auth AuthConfig `yaml:"auth"`

	// MaxRetries and RetryWait tune the retry behavior of the underlying
	// REST client. Zero values use the shared defaults.
	MaxRetries int           `yaml:"max_retries"`
	RetryWait  time.Duration `yaml:"retry_wait"`
}

// AuthConfig holds the credentials for one of the supported auth methods.
type AuthConfig struct {
	Type AuthType `yaml:"type"`

	// Email and Token for api_token auth.
	Email string `yaml:"email"`
	Token string `yaml:"token"`

	// Username and Password for basic auth.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// AccessToken for oauth2 auth.
	AccessToken string `yaml:"access_token"`
}

// Validate checks that the configuration is complete for its auth type.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrConfigURLRequired
	}

	switch c.Auth.Type {
	case AuthAPIToken:
		if c.Auth.Email == "" || c.Auth.Token == "" {
			return ErrConfigAPITokenAuth
		}
	case AuthBasic:
		if c.Auth.Username == "" || c.Auth.Password == "" {
			return ErrConfigBasicAuth
		}
	case AuthPAT:
		if c.Auth.Token == "" {
			return ErrConfigPATAuth
		}
	case AuthOAuth2:
		if c.Auth.AccessToken == "" {
			return ErrConfigOAuth2Auth
		}
	case "":
		return ErrConfigAuthTypeRequired
	default:
		return ErrConfigAuthTypeInvalid
	}

	switch c.APIVersion {
	case "", APIVersionAuto, APIVersionV2, APIVersionV3:
		return nil
	default:
		return ErrConfigAPIVersionInvalid
	}
}

// resolveAPIVersion returns the effective API version.
func (c *Config) resolveAPIVersion() APIVersion {
	if c.APIVersion == "" || c.APIVersion == APIVersionAuto {
		return APIVersionV3
	}
	return c.APIVersion
}

// header returns the Authorization header value for the configured auth.
func (a *AuthConfig) header() string {
	switch a.Type {
	case AuthAPIToken:
		return "Basic " + basicCredentials(a.Email, a.Token)
	case AuthBasic:
		return "Basic " + basicCredentials(a.Username, a.Password)
	case AuthPAT:
		return "Bearer " + a.Token
	case AuthOAuth2:
		return "Bearer " + a.AccessToken
	}
	return ""
}

func basicCredentials(user, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + secret))
}
