package packages

import (
	"strings"
	"time"

	"github.com/temirov/ghprune/internal/ghcr"
)

const (
	defaultTokenSourceValueConstant        = "env:GITHUB_PACKAGES_TOKEN"
	defaultMaxAttemptsConstant             = 1
	configurationKeySeparatorConstant      = "."
	purgeConfigurationKeyConstant          = "purge"
	organizationConfigurationKeyConstant   = "organization"
	ownerTypeConfigurationKeyConstant      = "owner_type"
	tokenSourceConfigurationKeyConstant    = "token_source"
	dryRunConfigurationKeyConstant         = "dry_run"
	serviceBaseURLConfigurationKeyConstant = "service_base_url"
	pageSizeConfigurationKeyConstant       = "page_size"
	maxAttemptsConfigurationKeyConstant    = "max_attempts"
	requestTimeoutConfigurationKeyConstant = "request_timeout"
)

// PurgeConfiguration stores options for deleting untagged container versions.
type PurgeConfiguration struct {
	Organization   string        `mapstructure:"organization"`
	OwnerType      string        `mapstructure:"owner_type"`
	TokenSource    string        `mapstructure:"token_source"`
	DryRun         bool          `mapstructure:"dry_run"`
	ServiceBaseURL string        `mapstructure:"service_base_url"`
	PageSize       int           `mapstructure:"page_size"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DefaultConfiguration supplies baseline values for the purge configuration.
func DefaultConfiguration() PurgeConfiguration {
	return PurgeConfiguration{
		OwnerType:      string(ghcr.OrganizationOwnerType),
		TokenSource:    defaultTokenSourceValueConstant,
		ServiceBaseURL: ghcr.DefaultServiceBaseURL,
		MaxAttempts:    defaultMaxAttemptsConstant,
		RequestTimeout: ghcr.DefaultRequestTimeout,
	}
}

// DefaultConfigurationValues produces Viper defaults keyed under rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultConfiguration()
	prefix := purgeConfigurationKeyConstant + configurationKeySeparatorConstant
	if trimmedRootKey := strings.TrimSpace(rootKey); len(trimmedRootKey) > 0 {
		prefix = trimmedRootKey + configurationKeySeparatorConstant + prefix
	}
	return map[string]any{
		prefix + organizationConfigurationKeyConstant:   defaults.Organization,
		prefix + ownerTypeConfigurationKeyConstant:      defaults.OwnerType,
		prefix + tokenSourceConfigurationKeyConstant:    defaults.TokenSource,
		prefix + dryRunConfigurationKeyConstant:         defaults.DryRun,
		prefix + serviceBaseURLConfigurationKeyConstant: defaults.ServiceBaseURL,
		prefix + pageSizeConfigurationKeyConstant:       defaults.PageSize,
		prefix + maxAttemptsConfigurationKeyConstant:    defaults.MaxAttempts,
		prefix + requestTimeoutConfigurationKeyConstant: defaults.RequestTimeout.String(),
	}
}

// Sanitize trims purge configuration values and restores defaults for unusable ones.
func (configuration PurgeConfiguration) Sanitize() PurgeConfiguration {
	defaults := DefaultConfiguration()
	sanitized := configuration
	sanitized.Organization = strings.TrimSpace(configuration.Organization)
	sanitized.OwnerType = strings.TrimSpace(configuration.OwnerType)
	sanitized.TokenSource = strings.TrimSpace(configuration.TokenSource)
	if len(sanitized.TokenSource) == 0 {
		sanitized.TokenSource = defaults.TokenSource
	}
	sanitized.ServiceBaseURL = strings.TrimSpace(configuration.ServiceBaseURL)
	if len(sanitized.ServiceBaseURL) == 0 {
		sanitized.ServiceBaseURL = defaults.ServiceBaseURL
	}
	if sanitized.PageSize < 0 {
		sanitized.PageSize = 0
	}
	if sanitized.MaxAttempts < 1 {
		sanitized.MaxAttempts = defaults.MaxAttempts
	}
	if sanitized.RequestTimeout <= 0 {
		sanitized.RequestTimeout = defaults.RequestTimeout
	}
	return sanitized
}
