package ghcr

import (
	"fmt"
	"strings"
)

const (
	transportErrorTemplateConstant      = "%s request to %s failed: %v"
	decodeErrorTemplateConstant         = "%s response from %s could not be decoded: %v"
	apiErrorTemplateConstant            = "%s %s returned status %d"
	apiErrorWithBodyTemplateConstant    = "%s %s returned status %d: %s"
	apiErrorBodyLimitConstant           = 512
	apiErrorTruncatedSuffixConstant     = "..."
	statusTooManyRequestsConstant       = 429
	statusServerErrorLowerBoundConstant = 500
	successStatusLowerBoundConstant     = 200
	successStatusUpperBoundConstant     = 300
)

// OperationName identifies a GitHub Packages REST call issued by the client.
type OperationName string

// Operation names reported in errors and logs.
const (
	ListPackagesOperationName  OperationName = "ListPackages"
	ListVersionsOperationName  OperationName = "ListPackageVersions"
	DeleteVersionOperationName OperationName = "DeletePackageVersion"
)

// TransportError reports a network, TLS, or timeout failure reaching the API.
type TransportError struct {
	Method string
	URL    string
	Cause  error
}

// Error describes the transport failure.
func (transportError *TransportError) Error() string {
	return fmt.Sprintf(transportErrorTemplateConstant, transportError.Method, transportError.URL, transportError.Cause)
}

// Unwrap exposes the underlying cause.
func (transportError *TransportError) Unwrap() error {
	return transportError.Cause
}

// DecodeError reports a response body that does not match the expected JSON shape.
type DecodeError struct {
	Operation OperationName
	URL       string
	Cause     error
}

// Error describes the decoding failure.
func (decodeError *DecodeError) Error() string {
	return fmt.Sprintf(decodeErrorTemplateConstant, decodeError.Operation, decodeError.URL, decodeError.Cause)
}

// Unwrap exposes the underlying cause.
func (decodeError *DecodeError) Unwrap() error {
	return decodeError.Cause
}

// APIError reports a non-success HTTP status returned by the API.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// Error describes the status and, when present, a trimmed response body.
func (apiError *APIError) Error() string {
	trimmedBody := strings.TrimSpace(apiError.Body)
	if len(trimmedBody) == 0 {
		return fmt.Sprintf(apiErrorTemplateConstant, apiError.Method, apiError.URL, apiError.StatusCode)
	}
	if len(trimmedBody) > apiErrorBodyLimitConstant {
		trimmedBody = trimmedBody[:apiErrorBodyLimitConstant] + apiErrorTruncatedSuffixConstant
	}
	return fmt.Sprintf(apiErrorWithBodyTemplateConstant, apiError.Method, apiError.URL, apiError.StatusCode, trimmedBody)
}

// Retryable reports whether the status indicates a transient server condition.
func (apiError *APIError) Retryable() bool {
	return apiError.StatusCode == statusTooManyRequestsConstant || apiError.StatusCode >= statusServerErrorLowerBoundConstant
}

func isSuccessStatus(statusCode int) bool {
	return statusCode >= successStatusLowerBoundConstant && statusCode < successStatusUpperBoundConstant
}
