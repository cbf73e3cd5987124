package ghcr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Defaults applied when ServiceConfiguration or HTTPTransportOptions leave a value unset.
const (
	DefaultServiceBaseURL = "https://api.github.com"
	DefaultRequestTimeout = 10 * time.Second
)

const (
	organizationMissingErrorMessage = "organization must be provided"
	tokenMissingErrorMessage        = "personal access token must be provided"
	negativePageSizeErrorTemplate   = "page size must not be negative: %d"
	runConfigurationStringTemplate  = "RunConfiguration{Organization:%s OwnerType:%s Token:%s}"
	redactedTokenPlaceholder        = "[redacted]"
	emptyTokenPlaceholder           = "[empty]"
)

var (
	// ErrOrganizationMissing indicates the owner name was empty.
	ErrOrganizationMissing = errors.New(organizationMissingErrorMessage)
	// ErrTokenMissing indicates the bearer credential was empty.
	ErrTokenMissing = errors.New(tokenMissingErrorMessage)
)

// RunConfiguration is the immutable owner and credential pair used for every request.
type RunConfiguration struct {
	Organization string
	OwnerType    OwnerType
	Token        string
}

// Validate rejects empty owner names and credentials.
func (configuration RunConfiguration) Validate() error {
	if len(strings.TrimSpace(configuration.Organization)) == 0 {
		return ErrOrganizationMissing
	}
	if len(strings.TrimSpace(configuration.Token)) == 0 {
		return ErrTokenMissing
	}
	return nil
}

// String renders the configuration without exposing the credential.
func (configuration RunConfiguration) String() string {
	tokenPlaceholder := redactedTokenPlaceholder
	if len(configuration.Token) == 0 {
		tokenPlaceholder = emptyTokenPlaceholder
	}
	return fmt.Sprintf(runConfigurationStringTemplate, configuration.Organization, configuration.OwnerType, tokenPlaceholder)
}

// GoString keeps %#v from printing the credential.
func (configuration RunConfiguration) GoString() string {
	return configuration.String()
}

// ServiceConfiguration controls the API endpoint and listing behavior.
type ServiceConfiguration struct {
	BaseURL  string
	PageSize int
}

func (configuration ServiceConfiguration) normalized() (ServiceConfiguration, error) {
	normalizedConfiguration := configuration
	normalizedConfiguration.BaseURL = strings.TrimRight(strings.TrimSpace(configuration.BaseURL), "/")
	if len(normalizedConfiguration.BaseURL) == 0 {
		normalizedConfiguration.BaseURL = DefaultServiceBaseURL
	}
	if configuration.PageSize < 0 {
		return ServiceConfiguration{}, fmt.Errorf(negativePageSizeErrorTemplate, configuration.PageSize)
	}
	return normalizedConfiguration, nil
}
